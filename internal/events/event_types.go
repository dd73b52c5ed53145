package events

import (
	"time"

	"github.com/civic-kit/complaint-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated       EventType = "ticket.created"
	EventTicketStatusUpdated EventType = "ticket.statusUpdated"
	EventTicketAssigned      EventType = "ticket.assigned"
	EventTicketEscalated     EventType = "ticket.escalated"
)

// Actor encapsulates actor metadata for an event.
type Actor struct {
	Type    domain.ActorType `json:"type"`
	ActorID *string          `json:"actor_id,omitempty"`
}

// SystemActor is the actor for scheduler and intake side effects.
func SystemActor() Actor {
	return Actor{Type: domain.ActorTypeSystem}
}

// StaffActor wraps a staff id as event actor.
func StaffActor(staffID string) Actor {
	return Actor{Type: domain.ActorTypeStaff, ActorID: &staffID}
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  string      `json:"ticket_id"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	TicketNumber string                `json:"ticket_number"`
	CategoryID   string                `json:"category_id"`
	Priority     domain.TicketPriority `json:"priority"`
	SLADeadline  *time.Time            `json:"sla_deadline,omitempty"`
}

// TicketStatusUpdatedPayload payload. LogID names the STATUS_CHANGED audit
// entry so the notifier can patch its delivery bookkeeping.
type TicketStatusUpdatedPayload struct {
	TicketNumber string              `json:"ticket_number"`
	OldStatus    domain.TicketStatus `json:"old_status"`
	NewStatus    domain.TicketStatus `json:"new_status"`
	Note         string              `json:"note,omitempty"`
	LogID        string              `json:"log_id"`
}

// TicketAssignedPayload payload.
type TicketAssignedPayload struct {
	AssignedTo string `json:"assigned_to"`
	AssignedBy string `json:"assigned_by"`
}

// TicketEscalatedPayload payload.
type TicketEscalatedPayload struct {
	TicketNumber string              `json:"ticket_number"`
	Level        int                 `json:"level"`
	EscalatedTo  string              `json:"escalated_to"`
	OldStatus    domain.TicketStatus `json:"old_status"`
	SLADeadline  time.Time           `json:"sla_deadline"`
	LogID        string              `json:"log_id"`
}
