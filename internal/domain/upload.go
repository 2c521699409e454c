package domain

import "time"

// Upload records an admitted audio file.
type Upload struct {
	ID             int64
	UserID         int64
	Filename       string
	OriginalName   string
	Path           string
	MimeType       string
	SizeBytes      int64
	ChecksumSHA256 string
	CreatedAt      time.Time
}
