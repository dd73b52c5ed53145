package domain

import "time"

// Category classifies complaints. Categories form a tree via ParentID, but
// the core only ever resolves "rule for this ticket's category".
type Category struct {
	ID        string
	Name      string
	ParentID  *string
	AgencyID  *string
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt *time.Time
}
