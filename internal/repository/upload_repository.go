package repository

import (
	"context"

	"github.com/spec-kit/audioclean-service/internal/domain"
)

// UploadRepository persists metadata for stored audio files.
type UploadRepository interface {
	Create(ctx context.Context, upload *domain.Upload) error
	ListByUser(ctx context.Context, userID int64, limit int) ([]domain.Upload, error)
}

type uploadRepository struct {
	db DBTX
}

// NewUploadRepository constructs repository.
func NewUploadRepository(db DBTX) UploadRepository {
	return &uploadRepository{db: db}
}

func (r *uploadRepository) Create(ctx context.Context, upload *domain.Upload) error {
	const query = `
        INSERT INTO uploads (user_id, filename, original_name, path, mime_type, size_bytes, checksum_sha256)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id, created_at`
	err := r.db.QueryRow(ctx, query,
		upload.UserID,
		upload.Filename,
		upload.OriginalName,
		upload.Path,
		upload.MimeType,
		upload.SizeBytes,
		upload.ChecksumSHA256,
	).Scan(&upload.ID, &upload.CreatedAt)
	return translateError(err)
}

func (r *uploadRepository) ListByUser(ctx context.Context, userID int64, limit int) ([]domain.Upload, error) {
	const query = `
        SELECT id, user_id, filename, original_name, path, mime_type, size_bytes, checksum_sha256, created_at
        FROM uploads WHERE user_id=$1
        ORDER BY created_at DESC, id DESC
        LIMIT $2`
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, translateError(err)
	}
	defer rows.Close()

	result := make([]domain.Upload, 0)
	for rows.Next() {
		var upload domain.Upload
		if err := rows.Scan(
			&upload.ID,
			&upload.UserID,
			&upload.Filename,
			&upload.OriginalName,
			&upload.Path,
			&upload.MimeType,
			&upload.SizeBytes,
			&upload.ChecksumSHA256,
			&upload.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, upload)
	}
	return result, rows.Err()
}
