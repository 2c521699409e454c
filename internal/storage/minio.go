package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/spec-kit/audioclean-service/internal/config"
)

// MinioBackend stores uploads in an S3-compatible bucket. Files are still
// staged on local disk so size limits and checksums apply before any bytes
// leave the host.
type MinioBackend struct {
	client     *minio.Client
	bucket     string
	stagingDir string
}

// NewMinioBackend connects and makes sure the bucket exists.
func NewMinioBackend(ctx context.Context, cfg config.MinioConfig, stagingDir string) (*MinioBackend, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("minio bucket check: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("minio make bucket: %w", err)
		}
	}

	return &MinioBackend{client: client, bucket: cfg.Bucket, stagingDir: stagingDir}, nil
}

func (b *MinioBackend) StagingDir() string {
	return b.stagingDir
}

// Commit uploads the staged file and removes it locally.
func (b *MinioBackend) Commit(ctx context.Context, stagedPath, filename, contentType string) (string, error) {
	if _, err := b.client.FPutObject(ctx, b.bucket, filename, stagedPath, minio.PutObjectOptions{
		ContentType: contentType,
	}); err != nil {
		return "", fmt.Errorf("minio put %s: %w", filename, err)
	}
	if err := os.Remove(stagedPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return "", err
	}
	return b.bucket + "/" + filename, nil
}

func (b *MinioBackend) Remove(ctx context.Context, location string) error {
	key := strings.TrimPrefix(location, b.bucket+"/")
	return b.client.RemoveObject(ctx, b.bucket, key, minio.RemoveObjectOptions{})
}
