package domain

import "time"

// TicketStatus enumerates lifecycle states for complaint tickets.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "OPEN"
	TicketStatusAssigned   TicketStatus = "ASSIGNED"
	TicketStatusInProgress TicketStatus = "IN_PROGRESS"
	TicketStatusResolved   TicketStatus = "RESOLVED"
	TicketStatusEscalated  TicketStatus = "ESCALATED"
	TicketStatusClosed     TicketStatus = "CLOSED"
)

// Terminal reports whether SLA monitoring stops at this status.
func (s TicketStatus) Terminal() bool {
	return s == TicketStatusResolved || s == TicketStatusClosed
}

// SLAExcludedStatuses lists statuses the breach scan never selects.
// ESCALATED is excluded so one breach window yields one escalation; a staff
// member reverting the status re-enters the ticket into the breach pool.
func SLAExcludedStatuses() []TicketStatus {
	return []TicketStatus{TicketStatusResolved, TicketStatusClosed, TicketStatusEscalated}
}

// TicketPriority enumerates complaint urgency.
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "LOW"
	TicketPriorityMedium TicketPriority = "MEDIUM"
	TicketPriorityHigh   TicketPriority = "HIGH"
	TicketPriorityUrgent TicketPriority = "URGENT"
)

// Ticket is the aggregate for citizen complaints.
type Ticket struct {
	ID           string
	TicketNumber string
	CitizenID    string
	CategoryID   string
	Description  string
	Status       TicketStatus
	Priority     TicketPriority
	SLADeadline  *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
	ClosedAt     *time.Time
	DeletedAt    *time.Time
}

// Deleted reports whether the ticket has been soft-deleted.
func (t *Ticket) Deleted() bool {
	return t.DeletedAt != nil
}

var allowedTransitions = map[TicketStatus][]TicketStatus{
	TicketStatusOpen:       {TicketStatusAssigned, TicketStatusInProgress, TicketStatusResolved, TicketStatusEscalated, TicketStatusClosed},
	TicketStatusAssigned:   {TicketStatusInProgress, TicketStatusResolved, TicketStatusEscalated, TicketStatusClosed},
	TicketStatusInProgress: {TicketStatusResolved, TicketStatusEscalated, TicketStatusClosed},
	TicketStatusEscalated:  {TicketStatusAssigned, TicketStatusInProgress, TicketStatusResolved, TicketStatusClosed},
	TicketStatusResolved:   {TicketStatusInProgress, TicketStatusClosed},
	TicketStatusClosed:     {},
}

// CanTransition reports whether a status change to next is allowed.
func (s TicketStatus) CanTransition(next TicketStatus) bool {
	for _, candidate := range allowedTransitions[s] {
		if candidate == next {
			return true
		}
	}
	return false
}
