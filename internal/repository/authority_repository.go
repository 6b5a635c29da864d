package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/complaint-service/internal/domain"
)

// AuthorityRepository defines persistence access for authority accounts.
type AuthorityRepository interface {
	Create(ctx context.Context, authority *domain.Authority) error
	Update(ctx context.Context, authority *domain.Authority) error
	GetByID(ctx context.Context, id string) (*domain.Authority, error)
	GetByEmail(ctx context.Context, email string) (*domain.Authority, error)
}

type authorityRepository struct {
	pool *pgxpool.Pool
}

// NewAuthorityRepository returns a Postgres-backed implementation.
func NewAuthorityRepository(pool *pgxpool.Pool) AuthorityRepository {
	return &authorityRepository{pool: pool}
}

func (r *authorityRepository) Create(ctx context.Context, authority *domain.Authority) error {
	const query = `
        INSERT INTO authorities (name, email, password_hash, role, active)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at, updated_at`
	return querierFrom(ctx, r.pool).QueryRow(ctx, query,
		authority.Name,
		authority.Email,
		authority.PasswordHash,
		authority.Role,
		authority.Active,
	).Scan(&authority.ID, &authority.CreatedAt, &authority.UpdatedAt)
}

func (r *authorityRepository) Update(ctx context.Context, authority *domain.Authority) error {
	const query = `
        UPDATE authorities SET name=$1, email=$2, password_hash=$3, role=$4, active=$5, updated_at=NOW()
        WHERE id=$6`
	cmd, err := querierFrom(ctx, r.pool).Exec(ctx, query,
		authority.Name,
		authority.Email,
		authority.PasswordHash,
		authority.Role,
		authority.Active,
		authority.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *authorityRepository) GetByID(ctx context.Context, id string) (*domain.Authority, error) {
	const query = `
        SELECT id, name, email, password_hash, role, active, created_at, updated_at
        FROM authorities WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *authorityRepository) GetByEmail(ctx context.Context, email string) (*domain.Authority, error) {
	const query = `
        SELECT id, name, email, password_hash, role, active, created_at, updated_at
        FROM authorities WHERE email=$1`
	return r.fetchSingle(ctx, query, email)
}

func (r *authorityRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Authority, error) {
	var authority domain.Authority
	if err := querierFrom(ctx, r.pool).QueryRow(ctx, query, arg).Scan(
		&authority.ID,
		&authority.Name,
		&authority.Email,
		&authority.PasswordHash,
		&authority.Role,
		&authority.Active,
		&authority.CreatedAt,
		&authority.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &authority, nil
}
