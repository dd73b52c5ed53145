package domain

import "time"

// StaffUser models an agency operator. Staff records are administered by an
// external system; the core reads them for escalation targeting and login.
type StaffUser struct {
	ID           string
	FullName     string
	Email        string
	PasswordHash string
	RoleID       string
	AgencyID     *string
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
