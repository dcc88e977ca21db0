package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/finsupport/triage-service/internal/domain"
)

// OperatorRepository defines persistence access for triage operators.
type OperatorRepository interface {
	Create(ctx context.Context, operator *domain.Operator) error
	GetByID(ctx context.Context, id string) (*domain.Operator, error)
	GetByEmail(ctx context.Context, email string) (*domain.Operator, error)
}

type operatorRepository struct {
	pool *pgxpool.Pool
}

// NewOperatorRepository returns a Postgres-backed implementation.
func NewOperatorRepository(pool *pgxpool.Pool) OperatorRepository {
	return &operatorRepository{pool: pool}
}

func (r *operatorRepository) Create(ctx context.Context, operator *domain.Operator) error {
	const query = `
        INSERT INTO operators (email, display_name, password_hash, is_active)
        VALUES ($1, $2, $3, $4)
        RETURNING id, created_at, updated_at`

	return r.pool.QueryRow(ctx, query,
		operator.Email,
		operator.DisplayName,
		operator.PasswordHash,
		operator.IsActive,
	).Scan(&operator.ID, &operator.CreatedAt, &operator.UpdatedAt)
}

func (r *operatorRepository) GetByID(ctx context.Context, id string) (*domain.Operator, error) {
	const query = `
        SELECT id, email, display_name, password_hash, is_active, created_at, updated_at
        FROM operators WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *operatorRepository) GetByEmail(ctx context.Context, email string) (*domain.Operator, error) {
	const query = `
        SELECT id, email, display_name, password_hash, is_active, created_at, updated_at
        FROM operators WHERE email=$1`
	return r.fetchSingle(ctx, query, email)
}

func (r *operatorRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Operator, error) {
	var operator domain.Operator
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&operator.ID,
		&operator.Email,
		&operator.DisplayName,
		&operator.PasswordHash,
		&operator.IsActive,
		&operator.CreatedAt,
		&operator.UpdatedAt,
	); err != nil {
		if err == pgx.ErrNoRows {
			return nil, pgx.ErrNoRows
		}
		return nil, err
	}
	return &operator, nil
}
