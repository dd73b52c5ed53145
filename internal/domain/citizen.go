package domain

import "time"

// Citizen is the submitter of complaints. Created by the intake channel;
// the core only needs identity and a deliverable phone number.
type Citizen struct {
	ID          string
	FullName    string
	PhoneNumber string
	Email       *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
