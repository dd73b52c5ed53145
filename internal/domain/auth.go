package domain

import "time"

// SubjectType differentiates citizen vs staff tokens.
type SubjectType string

const (
	SubjectTypeUser  SubjectType = "USER"
	SubjectTypeStaff SubjectType = "STAFF"
)

// Token represents issued authentication token metadata.
type Token struct {
	ID        string
	SubjectID string
	Subject   SubjectType
	RoleID    *string
	ExpiresAt time.Time
	IssuedAt  time.Time
}
