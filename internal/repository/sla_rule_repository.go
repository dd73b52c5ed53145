package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/civic-kit/complaint-service/internal/domain"
)

// SlaRuleRepository reads SLA rules. Rules are administered externally; the
// core only consumes them.
type SlaRuleRepository interface {
	// FindActiveByCategory returns the rule for a category, or nil when the
	// category has none.
	FindActiveByCategory(ctx context.Context, categoryID string) (*domain.SlaRule, error)
	GetByID(ctx context.Context, id string) (*domain.SlaRule, error)
}

type slaRuleRepository struct {
	pool *pgxpool.Pool
}

// NewSlaRuleRepository instantiates the repository.
func NewSlaRuleRepository(pool *pgxpool.Pool) SlaRuleRepository {
	return &slaRuleRepository{pool: pool}
}

const slaRuleColumns = `id, category_id, max_hours, escalation_level1_hours,
               escalation_level2_hours, escalation_role_id, created_at, updated_at, deleted_at`

func (r *slaRuleRepository) FindActiveByCategory(ctx context.Context, categoryID string) (*domain.SlaRule, error) {
	query := `SELECT ` + slaRuleColumns + `
        FROM sla_rules WHERE category_id=$1 AND deleted_at IS NULL
        ORDER BY created_at ASC LIMIT 1`
	rule, err := r.fetchSingle(ctx, query, categoryID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return rule, err
}

func (r *slaRuleRepository) GetByID(ctx context.Context, id string) (*domain.SlaRule, error) {
	query := `SELECT ` + slaRuleColumns + ` FROM sla_rules WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *slaRuleRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.SlaRule, error) {
	var rule domain.SlaRule
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&rule.ID,
		&rule.CategoryID,
		&rule.MaxHours,
		&rule.EscalationLevel1Hours,
		&rule.EscalationLevel2Hours,
		&rule.EscalationRoleID,
		&rule.CreatedAt,
		&rule.UpdatedAt,
		&rule.DeletedAt,
	); err != nil {
		return nil, err
	}
	return &rule, nil
}
