package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/civic-kit/complaint-service/internal/domain"
)

// StaffRepository reads staff records. Staff administration lives in an
// external system; the core consumes records for escalation and login.
type StaffRepository interface {
	GetByID(ctx context.Context, id string) (*domain.StaffUser, error)
	GetByEmail(ctx context.Context, email string) (*domain.StaffUser, error)
	// FindActiveByRole returns the earliest-created active holder of the role,
	// or nil when none exists. Deterministic so repeated sweeps pick the same
	// escalation target.
	FindActiveByRole(ctx context.Context, roleID string) (*domain.StaffUser, error)
	// FindFirstActive returns the earliest-created active staff member, used
	// when a breached ticket has no rule naming an escalation role.
	FindFirstActive(ctx context.Context) (*domain.StaffUser, error)
}

type staffRepository struct {
	pool *pgxpool.Pool
}

// NewStaffRepository instantiates the repository.
func NewStaffRepository(pool *pgxpool.Pool) StaffRepository {
	return &staffRepository{pool: pool}
}

const staffColumns = `id, full_name, email, password_hash, role_id, agency_id, is_active, created_at, updated_at`

func (r *staffRepository) GetByID(ctx context.Context, id string) (*domain.StaffUser, error) {
	query := `SELECT ` + staffColumns + ` FROM staff_users WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *staffRepository) GetByEmail(ctx context.Context, email string) (*domain.StaffUser, error) {
	query := `SELECT ` + staffColumns + ` FROM staff_users WHERE email=$1`
	return r.fetchSingle(ctx, query, email)
}

func (r *staffRepository) FindActiveByRole(ctx context.Context, roleID string) (*domain.StaffUser, error) {
	query := `SELECT ` + staffColumns + `
        FROM staff_users WHERE role_id=$1 AND is_active=TRUE
        ORDER BY created_at ASC LIMIT 1`
	staff, err := r.fetchSingle(ctx, query, roleID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return staff, err
}

func (r *staffRepository) FindFirstActive(ctx context.Context) (*domain.StaffUser, error) {
	query := `SELECT ` + staffColumns + `
        FROM staff_users WHERE is_active=TRUE
        ORDER BY created_at ASC LIMIT 1`
	staff, err := r.fetchSingle(ctx, query)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return staff, err
}

func (r *staffRepository) fetchSingle(ctx context.Context, query string, args ...any) (*domain.StaffUser, error) {
	var staff domain.StaffUser
	if err := r.pool.QueryRow(ctx, query, args...).Scan(
		&staff.ID,
		&staff.FullName,
		&staff.Email,
		&staff.PasswordHash,
		&staff.RoleID,
		&staff.AgencyID,
		&staff.Active,
		&staff.CreatedAt,
		&staff.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &staff, nil
}
