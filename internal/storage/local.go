package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// ErrExists is returned when the target name is already taken.
var ErrExists = errors.New("storage: file already exists")

// LocalBackend keeps uploads in a directory on local disk.
type LocalBackend struct {
	dir string
}

// NewLocalBackend returns a backend rooted at dir. Call EnsureDir first.
func NewLocalBackend(dir string) *LocalBackend {
	return &LocalBackend{dir: dir}
}

func (b *LocalBackend) StagingDir() string {
	return b.dir
}

// Commit renames the staged file into place. Staging and target share a
// directory, so the rename is atomic.
func (b *LocalBackend) Commit(_ context.Context, stagedPath, filename, _ string) (string, error) {
	if filename != filepath.Base(filename) {
		return "", fmt.Errorf("storage: invalid filename %q", filename)
	}
	target := filepath.Join(b.dir, filename)
	if _, err := os.Lstat(target); err == nil {
		return "", fmt.Errorf("%w: %s", ErrExists, filename)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return "", err
	}
	if err := os.Rename(stagedPath, target); err != nil {
		return "", err
	}
	return target, nil
}

func (b *LocalBackend) Remove(_ context.Context, location string) error {
	if err := os.Remove(location); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
