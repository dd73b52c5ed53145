package domain

import "time"

// TicketAssignment links a ticket to the staff member working it. At most one
// assignment per ticket is active at a time.
type TicketAssignment struct {
	ID         string
	TicketID   string
	AssignedTo string
	AssignedBy string
	AssignedAt time.Time
	Active     bool
	CreatedAt  time.Time
}
