package dto

import (
	"time"

	"github.com/civic-kit/complaint-service/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	CategoryID  string                `json:"category_id"`
	Description string                `json:"description"`
	Priority    domain.TicketPriority `json:"priority"`
}

// UpdateStatusRequest payload.
type UpdateStatusRequest struct {
	Status domain.TicketStatus `json:"status"`
	Note   string              `json:"note"`
}

// AssignTicketRequest payload.
type AssignTicketRequest struct {
	StaffID string `json:"staff_id"`
}

// AddAttachmentRequest payload.
type AddAttachmentRequest struct {
	FileURL  string `json:"file_url"`
	FileType string `json:"file_type"`
}

// TicketResponse is the public view of a complaint.
type TicketResponse struct {
	ID           string                `json:"id"`
	TicketNumber string                `json:"ticket_number"`
	CitizenID    string                `json:"citizen_id"`
	CategoryID   string                `json:"category_id"`
	Description  string                `json:"description"`
	Status       domain.TicketStatus   `json:"status"`
	Priority     domain.TicketPriority `json:"priority"`
	SLADeadline  *time.Time            `json:"sla_deadline"`
	CreatedAt    time.Time             `json:"created_at"`
	UpdatedAt    time.Time             `json:"updated_at"`
	ClosedAt     *time.Time            `json:"closed_at,omitempty"`
}

// TicketLogResponse is one audit trail entry.
type TicketLogResponse struct {
	ID                 string            `json:"id"`
	ActionType         domain.ActionType `json:"action_type"`
	OldValue           map[string]any    `json:"old_value,omitempty"`
	NewValue           map[string]any    `json:"new_value,omitempty"`
	ActorType          domain.ActorType  `json:"actor_type"`
	ActorID            *string           `json:"actor_id,omitempty"`
	NotificationSent   *bool             `json:"notification_sent,omitempty"`
	NotificationSentAt *time.Time        `json:"notification_sent_at,omitempty"`
	CreatedAt          time.Time         `json:"created_at"`
}

// AttachmentResponse metadata.
type AttachmentResponse struct {
	ID        string    `json:"id"`
	FileURL   string    `json:"file_url"`
	FileType  string    `json:"file_type"`
	CreatedAt time.Time `json:"created_at"`
}

// EscalationResponse is one open escalation.
type EscalationResponse struct {
	ID          string     `json:"id"`
	TicketID    string     `json:"ticket_id"`
	Level       int        `json:"level"`
	EscalatedTo string     `json:"escalated_to"`
	EscalatedAt time.Time  `json:"escalated_at"`
	ResolvedAt  *time.Time `json:"resolved_at,omitempty"`
}

// FromTicket maps a domain ticket.
func FromTicket(ticket *domain.Ticket) TicketResponse {
	return TicketResponse{
		ID:           ticket.ID,
		TicketNumber: ticket.TicketNumber,
		CitizenID:    ticket.CitizenID,
		CategoryID:   ticket.CategoryID,
		Description:  ticket.Description,
		Status:       ticket.Status,
		Priority:     ticket.Priority,
		SLADeadline:  ticket.SLADeadline,
		CreatedAt:    ticket.CreatedAt,
		UpdatedAt:    ticket.UpdatedAt,
		ClosedAt:     ticket.ClosedAt,
	}
}

// FromTicketLog maps an audit entry.
func FromTicketLog(entry *domain.TicketLog) TicketLogResponse {
	return TicketLogResponse{
		ID:                 entry.ID,
		ActionType:         entry.ActionType,
		OldValue:           entry.OldValue,
		NewValue:           entry.NewValue,
		ActorType:          entry.ActorType,
		ActorID:            entry.ActorID,
		NotificationSent:   entry.NotificationSent,
		NotificationSentAt: entry.NotificationSentAt,
		CreatedAt:          entry.CreatedAt,
	}
}

// FromAttachment maps an attachment.
func FromAttachment(attachment *domain.TicketAttachment) AttachmentResponse {
	return AttachmentResponse{
		ID:        attachment.ID,
		FileURL:   attachment.FileURL,
		FileType:  attachment.FileType,
		CreatedAt: attachment.CreatedAt,
	}
}

// FromEscalation maps an escalation.
func FromEscalation(esc *domain.Escalation) EscalationResponse {
	return EscalationResponse{
		ID:          esc.ID,
		TicketID:    esc.TicketID,
		Level:       esc.Level,
		EscalatedTo: esc.EscalatedTo,
		EscalatedAt: esc.EscalatedAt,
		ResolvedAt:  esc.ResolvedAt,
	}
}
