package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/complaint-service/internal/domain"
)

// StatusRepository manages the complaint status catalog. The catalog is
// seeded reference data; flow_order is never mutated after seeding.
type StatusRepository interface {
	Create(ctx context.Context, status *domain.Status) error
	ListAll(ctx context.Context) ([]domain.Status, error)
	GetByID(ctx context.Context, id string) (*domain.Status, error)
	GetByName(ctx context.Context, name string) (*domain.Status, error)
}

type statusRepository struct {
	pool *pgxpool.Pool
}

// NewStatusRepository builds the repository.
func NewStatusRepository(pool *pgxpool.Pool) StatusRepository {
	return &statusRepository{pool: pool}
}

func (r *statusRepository) Create(ctx context.Context, status *domain.Status) error {
	const query = `
        INSERT INTO complaint_statuses (name, description, flow_order)
        VALUES ($1,$2,$3)
        RETURNING id, created_at`
	return querierFrom(ctx, r.pool).QueryRow(ctx, query,
		status.Name,
		status.Description,
		status.FlowOrder,
	).Scan(&status.ID, &status.CreatedAt)
}

func (r *statusRepository) ListAll(ctx context.Context) ([]domain.Status, error) {
	const query = `
        SELECT id, name, description, flow_order, created_at
        FROM complaint_statuses ORDER BY flow_order ASC`
	rows, err := querierFrom(ctx, r.pool).Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Status
	for rows.Next() {
		var status domain.Status
		if err := rows.Scan(&status.ID, &status.Name, &status.Description, &status.FlowOrder, &status.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, status)
	}
	return result, rows.Err()
}

func (r *statusRepository) GetByID(ctx context.Context, id string) (*domain.Status, error) {
	const query = `
        SELECT id, name, description, flow_order, created_at
        FROM complaint_statuses WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *statusRepository) GetByName(ctx context.Context, name string) (*domain.Status, error) {
	const query = `
        SELECT id, name, description, flow_order, created_at
        FROM complaint_statuses WHERE name=$1`
	return r.fetchSingle(ctx, query, name)
}

func (r *statusRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Status, error) {
	var status domain.Status
	if err := querierFrom(ctx, r.pool).QueryRow(ctx, query, arg).Scan(
		&status.ID,
		&status.Name,
		&status.Description,
		&status.FlowOrder,
		&status.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &status, nil
}
