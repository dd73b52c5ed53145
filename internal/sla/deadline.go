package sla

import (
	"context"
	"time"

	"github.com/civic-kit/complaint-service/internal/domain"
	"github.com/civic-kit/complaint-service/internal/repository"
)

// DefaultSLAHours applies when a category has no rule.
const DefaultSLAHours = 24

// ComputeDeadline derives the absolute SLA deadline for a ticket created at
// createdAt. A nil rule falls back to defaultHours. Pure; the caller persists
// the result exactly once, at creation.
func ComputeDeadline(rule *domain.SlaRule, createdAt time.Time, defaultHours int) time.Time {
	hours := defaultHours
	if hours <= 0 {
		hours = DefaultSLAHours
	}
	if rule != nil {
		hours = rule.MaxHours
	}
	return createdAt.Add(time.Duration(hours) * time.Hour)
}

// DeadlineCalculator resolves a category's rule and computes the deadline.
type DeadlineCalculator struct {
	rules        repository.SlaRuleRepository
	defaultHours int
}

// NewDeadlineCalculator builds a calculator.
func NewDeadlineCalculator(rules repository.SlaRuleRepository, defaultHours int) *DeadlineCalculator {
	if defaultHours <= 0 {
		defaultHours = DefaultSLAHours
	}
	return &DeadlineCalculator{rules: rules, defaultHours: defaultHours}
}

// ForCategory computes the deadline for a ticket in the given category.
func (c *DeadlineCalculator) ForCategory(ctx context.Context, categoryID string, createdAt time.Time) (time.Time, error) {
	rule, err := c.rules.FindActiveByCategory(ctx, categoryID)
	if err != nil {
		return time.Time{}, err
	}
	return ComputeDeadline(rule, createdAt, c.defaultHours), nil
}
