package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/civic-kit/complaint-service/internal/domain"
)

// TicketLogRepository stores the append-only audit trail.
type TicketLogRepository interface {
	Create(ctx context.Context, entry *domain.TicketLog) error
	ListByTicket(ctx context.Context, ticketID string, limit, offset int) ([]domain.TicketLog, error)
	// MarkNotification patches the delivery bookkeeping on one entry. This is
	// the only mutation an audit entry ever receives.
	MarkNotification(ctx context.Context, logID string, sent bool, at *time.Time) error
}

type ticketLogRepository struct {
	pool *pgxpool.Pool
}

// NewTicketLogRepository builds the repository.
func NewTicketLogRepository(pool *pgxpool.Pool) TicketLogRepository {
	return &ticketLogRepository{pool: pool}
}

func (r *ticketLogRepository) Create(ctx context.Context, entry *domain.TicketLog) error {
	const query = `
        INSERT INTO ticket_logs (ticket_id, action_type, old_value, new_value, actor_type, actor_id)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		entry.TicketID,
		entry.ActionType,
		entry.OldValue,
		entry.NewValue,
		entry.ActorType,
		entry.ActorID,
	).Scan(&entry.ID, &entry.CreatedAt)
}

func (r *ticketLogRepository) ListByTicket(ctx context.Context, ticketID string, limit, offset int) ([]domain.TicketLog, error) {
	if limit <= 0 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	const query = `
        SELECT id, ticket_id, action_type, old_value, new_value, actor_type, actor_id,
               notification_sent, notification_sent_at, created_at
        FROM ticket_logs WHERE ticket_id=$1 ORDER BY created_at ASC LIMIT $2 OFFSET $3`
	rows, err := r.pool.Query(ctx, query, ticketID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.TicketLog
	for rows.Next() {
		var entry domain.TicketLog
		if err := rows.Scan(
			&entry.ID,
			&entry.TicketID,
			&entry.ActionType,
			&entry.OldValue,
			&entry.NewValue,
			&entry.ActorType,
			&entry.ActorID,
			&entry.NotificationSent,
			&entry.NotificationSentAt,
			&entry.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}

func (r *ticketLogRepository) MarkNotification(ctx context.Context, logID string, sent bool, at *time.Time) error {
	const query = `
        UPDATE ticket_logs SET notification_sent=$1, notification_sent_at=$2
        WHERE id=$3 AND notification_sent IS NULL`
	cmd, err := r.pool.Exec(ctx, query, sent, at, logID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
