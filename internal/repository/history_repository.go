package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/complaint-service/internal/domain"
)

// HistoryRepository stores the append-only status audit trail. It carries no
// validation responsibility; the lifecycle service validates transitions
// before appending.
type HistoryRepository interface {
	Append(ctx context.Context, entry *domain.StatusHistory) error
	ListByComplaint(ctx context.Context, complaintID string) ([]domain.StatusHistory, error)
	DeleteByComplaint(ctx context.Context, complaintID string) (int64, error)
}

type historyRepository struct {
	pool *pgxpool.Pool
}

// NewHistoryRepository builds repository.
func NewHistoryRepository(pool *pgxpool.Pool) HistoryRepository {
	return &historyRepository{pool: pool}
}

func (r *historyRepository) Append(ctx context.Context, entry *domain.StatusHistory) error {
	const query = `
        INSERT INTO complaint_status_history (complaint_id, previous_status_id, new_status_id, changed_by_id, comment)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at`
	return querierFrom(ctx, r.pool).QueryRow(ctx, query,
		entry.ComplaintID,
		entry.PreviousStatusID,
		entry.NewStatusID,
		entry.ChangedByID,
		entry.Comment,
	).Scan(&entry.ID, &entry.CreatedAt)
}

func (r *historyRepository) ListByComplaint(ctx context.Context, complaintID string) ([]domain.StatusHistory, error) {
	const query = `
        SELECT id, complaint_id, previous_status_id, new_status_id, changed_by_id, comment, created_at
        FROM complaint_status_history WHERE complaint_id=$1 ORDER BY created_at ASC, id ASC`
	rows, err := querierFrom(ctx, r.pool).Query(ctx, query, complaintID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.StatusHistory
	for rows.Next() {
		var entry domain.StatusHistory
		if err := rows.Scan(
			&entry.ID,
			&entry.ComplaintID,
			&entry.PreviousStatusID,
			&entry.NewStatusID,
			&entry.ChangedByID,
			&entry.Comment,
			&entry.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}

func (r *historyRepository) DeleteByComplaint(ctx context.Context, complaintID string) (int64, error) {
	const query = `DELETE FROM complaint_status_history WHERE complaint_id=$1`
	cmd, err := querierFrom(ctx, r.pool).Exec(ctx, query, complaintID)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}
