package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/civic-kit/complaint-service/internal/domain"
)

// CitizenRepository reads complaint submitters. Citizens are created by the
// intake channel; the core needs them for ownership and notification routing.
type CitizenRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Citizen, error)
	GetByPhone(ctx context.Context, phoneNumber string) (*domain.Citizen, error)
	// Upsert registers a citizen keyed by phone number, updating the name on
	// conflict. The intake channel calls this on every inbound message.
	Upsert(ctx context.Context, citizen *domain.Citizen) error
}

type citizenRepository struct {
	pool *pgxpool.Pool
}

// NewCitizenRepository instantiates the repository.
func NewCitizenRepository(pool *pgxpool.Pool) CitizenRepository {
	return &citizenRepository{pool: pool}
}

const citizenColumns = `id, full_name, phone_number, email, created_at, updated_at`

func (r *citizenRepository) GetByID(ctx context.Context, id string) (*domain.Citizen, error) {
	query := `SELECT ` + citizenColumns + ` FROM citizens WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *citizenRepository) GetByPhone(ctx context.Context, phoneNumber string) (*domain.Citizen, error) {
	query := `SELECT ` + citizenColumns + ` FROM citizens WHERE phone_number=$1`
	return r.fetchSingle(ctx, query, phoneNumber)
}

func (r *citizenRepository) Upsert(ctx context.Context, citizen *domain.Citizen) error {
	const query = `
        INSERT INTO citizens (full_name, phone_number, email)
        VALUES ($1,$2,$3)
        ON CONFLICT (phone_number) DO UPDATE
        SET full_name=EXCLUDED.full_name, updated_at=NOW()
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		citizen.FullName,
		citizen.PhoneNumber,
		citizen.Email,
	).Scan(&citizen.ID, &citizen.CreatedAt, &citizen.UpdatedAt)
}

func (r *citizenRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Citizen, error) {
	var citizen domain.Citizen
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&citizen.ID,
		&citizen.FullName,
		&citizen.PhoneNumber,
		&citizen.Email,
		&citizen.CreatedAt,
		&citizen.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &citizen, nil
}
