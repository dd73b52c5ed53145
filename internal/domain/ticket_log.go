package domain

import "time"

// ActionType captures what a ticket log entry records.
type ActionType string

const (
	ActionCreated         ActionType = "CREATED"
	ActionStatusChanged   ActionType = "STATUS_CHANGED"
	ActionAssigned        ActionType = "ASSIGNED"
	ActionEscalated       ActionType = "ESCALATED"
	ActionAttachmentAdded ActionType = "ATTACHMENT_ADDED"
	ActionDeleted         ActionType = "DELETED"
)

// ActorType identifies who performed a logged action.
type ActorType string

const (
	ActorTypeUser   ActorType = "USER"
	ActorTypeStaff  ActorType = "STAFF"
	ActorTypeSystem ActorType = "SYSTEM"
)

// TicketLog is an immutable audit trail entry. Only the notification
// bookkeeping fields may be patched, once, by the notifier adapter.
type TicketLog struct {
	ID                 string
	TicketID           string
	ActionType         ActionType
	OldValue           map[string]any
	NewValue           map[string]any
	ActorType          ActorType
	ActorID            *string
	NotificationSent   *bool
	NotificationSentAt *time.Time
	CreatedAt          time.Time
}
