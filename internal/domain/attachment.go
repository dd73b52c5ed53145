package domain

import "time"

// TicketAttachment stores metadata for files attached to a complaint.
type TicketAttachment struct {
	ID         string
	TicketID   string
	FileURL    string
	FileType   string
	UploadedBy *string
	CreatedAt  time.Time
	DeletedAt  *time.Time
}
