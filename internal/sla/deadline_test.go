package sla

import (
	"context"
	"testing"
	"time"

	"github.com/civic-kit/complaint-service/internal/domain"
)

type staticRuleRepo struct {
	rules map[string]*domain.SlaRule
}

func (r *staticRuleRepo) FindActiveByCategory(_ context.Context, categoryID string) (*domain.SlaRule, error) {
	return r.rules[categoryID], nil
}

func (r *staticRuleRepo) GetByID(_ context.Context, id string) (*domain.SlaRule, error) {
	for _, rule := range r.rules {
		if rule.ID == id {
			return rule, nil
		}
	}
	return nil, nil
}

func TestComputeDeadlineWithRule(t *testing.T) {
	createdAt := time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)
	rule := &domain.SlaRule{MaxHours: 48}

	got := ComputeDeadline(rule, createdAt, DefaultSLAHours)
	want := createdAt.Add(48 * time.Hour)
	if !got.Equal(want) {
		t.Errorf("deadline = %v, want %v", got, want)
	}
}

func TestComputeDeadlineDefaultsTo24Hours(t *testing.T) {
	createdAt := time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)

	got := ComputeDeadline(nil, createdAt, DefaultSLAHours)
	want := createdAt.Add(24 * time.Hour)
	if !got.Equal(want) {
		t.Errorf("deadline = %v, want %v", got, want)
	}
}

func TestDeadlineCalculatorForCategory(t *testing.T) {
	createdAt := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	repo := &staticRuleRepo{rules: map[string]*domain.SlaRule{
		"cat-roads": {ID: "rule-1", CategoryID: "cat-roads", MaxHours: 12},
	}}
	calc := NewDeadlineCalculator(repo, DefaultSLAHours)

	got, err := calc.ForCategory(context.Background(), "cat-roads", createdAt)
	if err != nil {
		t.Fatalf("ForCategory: %v", err)
	}
	if want := createdAt.Add(12 * time.Hour); !got.Equal(want) {
		t.Errorf("deadline = %v, want %v", got, want)
	}

	got, err = calc.ForCategory(context.Background(), "cat-unknown", createdAt)
	if err != nil {
		t.Fatalf("ForCategory fallback: %v", err)
	}
	if want := createdAt.Add(24 * time.Hour); !got.Equal(want) {
		t.Errorf("fallback deadline = %v, want %v", got, want)
	}
}

func TestResolveTargetLevel(t *testing.T) {
	rule := &domain.SlaRule{EscalationLevel1Hours: 4, EscalationLevel2Hours: 24}

	tests := []struct {
		name          string
		currentLevel  int
		hoursBreached int
		rule          *domain.SlaRule
		want          int
	}{
		{"first breach before level1 threshold", 0, 1, rule, 1},
		{"first breach past level1 threshold", 0, 5, rule, 1},
		{"first breach past level2 threshold", 0, 25, rule, 2},
		{"level1 holds under level2 threshold", 1, 10, rule, 0},
		{"level1 upgrades past level2 threshold", 1, 25, rule, 2},
		{"level2 is the ceiling", 2, 100, rule, 0},
		{"no rule escalates once", 0, 0, nil, 1},
		{"no rule never upgrades", 1, 500, nil, 0},
		{"zero thresholds never match", 0, 50, &domain.SlaRule{}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := resolveTargetLevel(tt.currentLevel, tt.hoursBreached, tt.rule); got != tt.want {
				t.Errorf("resolveTargetLevel(%d, %d) = %d, want %d", tt.currentLevel, tt.hoursBreached, got, tt.want)
			}
		})
	}
}
