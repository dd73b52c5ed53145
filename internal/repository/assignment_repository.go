package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/civic-kit/complaint-service/internal/domain"
)

// AssignmentRepository persists ticket assignments.
type AssignmentRepository interface {
	// Replace deactivates the ticket's active assignment (if any) and inserts
	// the new active one in a single transaction, so at most one assignment
	// per ticket is ever active.
	Replace(ctx context.Context, assignment *domain.TicketAssignment) error
	ListActiveByTicket(ctx context.Context, ticketID string) ([]domain.TicketAssignment, error)
}

type assignmentRepository struct {
	pool *pgxpool.Pool
}

// NewAssignmentRepository instantiates the repository.
func NewAssignmentRepository(pool *pgxpool.Pool) AssignmentRepository {
	return &assignmentRepository{pool: pool}
}

func (r *assignmentRepository) Replace(ctx context.Context, assignment *domain.TicketAssignment) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	const deactivate = `
        UPDATE ticket_assignments SET is_active=FALSE WHERE ticket_id=$1 AND is_active=TRUE`
	if _, err := tx.Exec(ctx, deactivate, assignment.TicketID); err != nil {
		return err
	}

	const insert = `
        INSERT INTO ticket_assignments (ticket_id, assigned_to, assigned_by, assigned_at, is_active)
        VALUES ($1,$2,$3,$4,TRUE)
        RETURNING id, created_at`
	if err := tx.QueryRow(ctx, insert,
		assignment.TicketID,
		assignment.AssignedTo,
		assignment.AssignedBy,
		assignment.AssignedAt,
	).Scan(&assignment.ID, &assignment.CreatedAt); err != nil {
		return err
	}
	assignment.Active = true

	return tx.Commit(ctx)
}

func (r *assignmentRepository) ListActiveByTicket(ctx context.Context, ticketID string) ([]domain.TicketAssignment, error) {
	const query = `
        SELECT id, ticket_id, assigned_to, assigned_by, assigned_at, is_active, created_at
        FROM ticket_assignments
        WHERE ticket_id=$1 AND is_active=TRUE
        ORDER BY assigned_at DESC`
	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.TicketAssignment
	for rows.Next() {
		var assignment domain.TicketAssignment
		if err := rows.Scan(
			&assignment.ID,
			&assignment.TicketID,
			&assignment.AssignedTo,
			&assignment.AssignedBy,
			&assignment.AssignedAt,
			&assignment.Active,
			&assignment.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, assignment)
	}
	return result, rows.Err()
}
