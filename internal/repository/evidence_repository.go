package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/complaint-service/internal/domain"
)

// EvidenceRepository persists evidence photo metadata. Rows are created by
// the upload collaborator after files land in storage and removed only when
// the owning complaint is deleted.
type EvidenceRepository interface {
	AttachMany(ctx context.Context, photos []*domain.EvidencePhoto) (int, error)
	ListByComplaint(ctx context.Context, complaintID string) ([]domain.EvidencePhoto, error)
	// DeleteByComplaint removes all index rows and returns the storage keys
	// so the caller can clean up the underlying files after commit.
	DeleteByComplaint(ctx context.Context, complaintID string) ([]string, error)
}

type evidenceRepository struct {
	pool *pgxpool.Pool
}

// NewEvidenceRepository constructs repository.
func NewEvidenceRepository(pool *pgxpool.Pool) EvidenceRepository {
	return &evidenceRepository{pool: pool}
}

func (r *evidenceRepository) AttachMany(ctx context.Context, photos []*domain.EvidencePhoto) (int, error) {
	const query = `
        INSERT INTO evidence_photos (complaint_id, storage_key, file_name)
        VALUES ($1,$2,$3)
        RETURNING id, uploaded_at`
	q := querierFrom(ctx, r.pool)
	inserted := 0
	for _, photo := range photos {
		if err := q.QueryRow(ctx, query,
			photo.ComplaintID,
			photo.StorageKey,
			photo.FileName,
		).Scan(&photo.ID, &photo.UploadedAt); err != nil {
			return inserted, err
		}
		inserted++
	}
	return inserted, nil
}

func (r *evidenceRepository) ListByComplaint(ctx context.Context, complaintID string) ([]domain.EvidencePhoto, error) {
	const query = `
        SELECT id, complaint_id, storage_key, file_name, uploaded_at
        FROM evidence_photos WHERE complaint_id=$1 ORDER BY uploaded_at ASC`
	rows, err := querierFrom(ctx, r.pool).Query(ctx, query, complaintID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.EvidencePhoto
	for rows.Next() {
		var photo domain.EvidencePhoto
		if err := rows.Scan(
			&photo.ID,
			&photo.ComplaintID,
			&photo.StorageKey,
			&photo.FileName,
			&photo.UploadedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, photo)
	}
	return result, rows.Err()
}

func (r *evidenceRepository) DeleteByComplaint(ctx context.Context, complaintID string) ([]string, error) {
	const query = `DELETE FROM evidence_photos WHERE complaint_id=$1 RETURNING storage_key`
	rows, err := querierFrom(ctx, r.pool).Query(ctx, query, complaintID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}
