// Package storage commits fully written upload files to their final location.
//
// Uploads are always streamed into a temp file inside StagingDir first; a
// Backend only ever sees complete, synced files, so a failed or cancelled
// upload never becomes visible under its final name.
package storage

import (
	"context"
	"fmt"
	"os"
)

// Backend moves a staged file to durable storage.
type Backend interface {
	// StagingDir is where temp files for this backend are created.
	StagingDir() string
	// Commit stores the staged file under filename and returns the location
	// reported to the caller. The staged file is consumed on success.
	Commit(ctx context.Context, stagedPath, filename, contentType string) (string, error)
	// Remove deletes a previously committed location.
	Remove(ctx context.Context, location string) error
}

// EnsureDir creates dir when it is missing. The service cannot accept uploads
// without it, so callers treat an error as fatal.
func EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create upload dir %s: %w", dir, err)
	}
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("stat upload dir %s: %w", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("upload dir %s is not a directory", dir)
	}
	return nil
}
