package notification

import "context"

// Result is the outcome of one delivery attempt.
type Result struct {
	Success   bool
	MessageID string
	Error     string
}

// Sender delivers a text message to a recipient address. Implementations
// never return an out-of-band error; every failure is reported inside the
// Result so callers can record it and move on.
type Sender interface {
	Send(ctx context.Context, to, body string) Result
}
