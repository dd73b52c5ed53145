package domain

import "time"

// Escalation levels are ordinal severity markers. Levels recorded for one
// ticket strictly increase; at most one unresolved escalation exists per
// ticket at a time.
const (
	EscalationLevel1 = 1
	EscalationLevel2 = 2
)

// Escalation records one escalation event for a breached ticket.
type Escalation struct {
	ID          string
	TicketID    string
	Level       int
	EscalatedTo string
	EscalatedAt time.Time
	ResolvedAt  *time.Time
	CreatedAt   time.Time
}

// Resolved reports whether this escalation has been closed out, either by a
// staff action or by a higher-level escalation superseding it.
func (e *Escalation) Resolved() bool {
	return e.ResolvedAt != nil
}
