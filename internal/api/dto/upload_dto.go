package dto

import (
	"time"

	"github.com/spec-kit/audioclean-service/internal/domain"
)

// UploadResponse is returned by POST /upload.
type UploadResponse struct {
	Message  string `json:"message"`
	Filename string `json:"filename"`
	Path     string `json:"path"`
	Size     int64  `json:"size"`
}

// UploadRecord is one entry of GET /uploads.
type UploadRecord struct {
	ID             int64     `json:"id"`
	Filename       string    `json:"filename"`
	OriginalName   string    `json:"original_name"`
	Path           string    `json:"path"`
	MimeType       string    `json:"mime_type"`
	Size           int64     `json:"size"`
	ChecksumSHA256 string    `json:"checksum_sha256"`
	CreatedAt      time.Time `json:"created_at"`
}

// UploadListResponse wraps the caller's uploads.
type UploadListResponse struct {
	Uploads []UploadRecord `json:"uploads"`
}

// NewUploadListResponse projects domain uploads.
func NewUploadListResponse(uploads []domain.Upload) UploadListResponse {
	records := make([]UploadRecord, 0, len(uploads))
	for _, u := range uploads {
		records = append(records, UploadRecord{
			ID:             u.ID,
			Filename:       u.Filename,
			OriginalName:   u.OriginalName,
			Path:           u.Path,
			MimeType:       u.MimeType,
			Size:           u.SizeBytes,
			ChecksumSHA256: u.ChecksumSHA256,
			CreatedAt:      u.CreatedAt.UTC(),
		})
	}
	return UploadListResponse{Uploads: records}
}
