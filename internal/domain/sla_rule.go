package domain

import "time"

// SlaRule maps a category to its response-time guarantee. One active rule per
// category; rule changes only affect tickets created afterwards.
type SlaRule struct {
	ID                    string
	CategoryID            string
	MaxHours              int
	EscalationLevel1Hours int
	EscalationLevel2Hours int
	EscalationRoleID      string
	CreatedAt             time.Time
	UpdatedAt             time.Time
	DeletedAt             *time.Time
}

// Level1Threshold returns the hours-past-deadline threshold for level 1.
// Zero means not configured.
func (r *SlaRule) Level1Threshold() int {
	if r == nil {
		return 0
	}
	return r.EscalationLevel1Hours
}

// Level2Threshold returns the hours-past-deadline threshold for level 2.
// Zero means not configured.
func (r *SlaRule) Level2Threshold() int {
	if r == nil {
		return 0
	}
	return r.EscalationLevel2Hours
}
