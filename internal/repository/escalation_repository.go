package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/civic-kit/complaint-service/internal/domain"
)

// ErrTicketStateChanged reports that a ticket's status moved between the
// breach scan and the escalation write; the escalation is abandoned.
var ErrTicketStateChanged = errors.New("ticket status changed concurrently")

// EscalationRepository persists escalation records.
type EscalationRepository interface {
	// GetUnresolvedByTicket returns the current escalation, or nil.
	GetUnresolvedByTicket(ctx context.Context, ticketID string) (*domain.Escalation, error)
	// RecordEscalation commits the escalation insert, the ticket status flip
	// and the audit entry in a single transaction. The ticket row is
	// re-checked against expectedStatus inside the transaction; a mismatch
	// returns ErrTicketStateChanged and writes nothing. Any previously
	// unresolved escalation is resolved in the same transaction, keeping at
	// most one unresolved escalation per ticket.
	RecordEscalation(ctx context.Context, ticketID string, expectedStatus domain.TicketStatus, level int, staffID string, now time.Time) (*domain.Escalation, *domain.TicketLog, error)
	Resolve(ctx context.Context, id string, now time.Time) (*domain.Escalation, error)
	ListUnresolved(ctx context.Context, limit, offset int) ([]domain.Escalation, error)
}

type escalationRepository struct {
	pool *pgxpool.Pool
}

// NewEscalationRepository instantiates the repository.
func NewEscalationRepository(pool *pgxpool.Pool) EscalationRepository {
	return &escalationRepository{pool: pool}
}

func (r *escalationRepository) GetUnresolvedByTicket(ctx context.Context, ticketID string) (*domain.Escalation, error) {
	const query = `
        SELECT id, ticket_id, escalation_level, escalated_to, escalated_at, resolved_at, created_at
        FROM escalations
        WHERE ticket_id=$1 AND resolved_at IS NULL
        ORDER BY escalation_level DESC LIMIT 1`
	var esc domain.Escalation
	err := r.pool.QueryRow(ctx, query, ticketID).Scan(
		&esc.ID,
		&esc.TicketID,
		&esc.Level,
		&esc.EscalatedTo,
		&esc.EscalatedAt,
		&esc.ResolvedAt,
		&esc.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &esc, nil
}

func (r *escalationRepository) RecordEscalation(ctx context.Context, ticketID string, expectedStatus domain.TicketStatus, level int, staffID string, now time.Time) (*domain.Escalation, *domain.TicketLog, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, nil, err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	const flipStatus = `
        UPDATE tickets SET status=$1, updated_at=NOW()
        WHERE id=$2 AND status=$3 AND deleted_at IS NULL`
	cmd, err := tx.Exec(ctx, flipStatus, domain.TicketStatusEscalated, ticketID, expectedStatus)
	if err != nil {
		return nil, nil, err
	}
	if cmd.RowsAffected() == 0 {
		return nil, nil, ErrTicketStateChanged
	}

	const supersede = `
        UPDATE escalations SET resolved_at=$1 WHERE ticket_id=$2 AND resolved_at IS NULL`
	if _, err := tx.Exec(ctx, supersede, now, ticketID); err != nil {
		return nil, nil, err
	}

	esc := &domain.Escalation{
		TicketID:    ticketID,
		Level:       level,
		EscalatedTo: staffID,
		EscalatedAt: now,
	}
	const insertEscalation = `
        INSERT INTO escalations (ticket_id, escalation_level, escalated_to, escalated_at)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at`
	if err := tx.QueryRow(ctx, insertEscalation, esc.TicketID, esc.Level, esc.EscalatedTo, esc.EscalatedAt).
		Scan(&esc.ID, &esc.CreatedAt); err != nil {
		return nil, nil, err
	}

	entry := &domain.TicketLog{
		TicketID:   ticketID,
		ActionType: domain.ActionEscalated,
		OldValue:   map[string]any{"status": string(expectedStatus)},
		NewValue:   map[string]any{"status": string(domain.TicketStatusEscalated), "escalationLevel": level},
		ActorType:  domain.ActorTypeSystem,
	}
	const insertLog = `
        INSERT INTO ticket_logs (ticket_id, action_type, old_value, new_value, actor_type, actor_id)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at`
	if err := tx.QueryRow(ctx, insertLog,
		entry.TicketID,
		entry.ActionType,
		entry.OldValue,
		entry.NewValue,
		entry.ActorType,
		entry.ActorID,
	).Scan(&entry.ID, &entry.CreatedAt); err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, err
	}
	return esc, entry, nil
}

func (r *escalationRepository) Resolve(ctx context.Context, id string, now time.Time) (*domain.Escalation, error) {
	const query = `
        UPDATE escalations SET resolved_at=$1
        WHERE id=$2 AND resolved_at IS NULL
        RETURNING id, ticket_id, escalation_level, escalated_to, escalated_at, resolved_at, created_at`
	var esc domain.Escalation
	if err := r.pool.QueryRow(ctx, query, now, id).Scan(
		&esc.ID,
		&esc.TicketID,
		&esc.Level,
		&esc.EscalatedTo,
		&esc.EscalatedAt,
		&esc.ResolvedAt,
		&esc.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &esc, nil
}

func (r *escalationRepository) ListUnresolved(ctx context.Context, limit, offset int) ([]domain.Escalation, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	const query = `
        SELECT id, ticket_id, escalation_level, escalated_to, escalated_at, resolved_at, created_at
        FROM escalations
        WHERE resolved_at IS NULL
        ORDER BY escalated_at DESC LIMIT $1 OFFSET $2`
	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Escalation
	for rows.Next() {
		var esc domain.Escalation
		if err := rows.Scan(
			&esc.ID,
			&esc.TicketID,
			&esc.Level,
			&esc.EscalatedTo,
			&esc.EscalatedAt,
			&esc.ResolvedAt,
			&esc.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, esc)
	}
	return result, rows.Err()
}
