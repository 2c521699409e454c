package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/audioclean-service/internal/auth"
	"github.com/spec-kit/audioclean-service/internal/config"
	"github.com/spec-kit/audioclean-service/internal/domain"
	"github.com/spec-kit/audioclean-service/internal/events"
	"github.com/spec-kit/audioclean-service/internal/repository"
	"github.com/spec-kit/audioclean-service/internal/storage"
	apperrors "github.com/spec-kit/audioclean-service/pkg/util/errorutil"
)

const audioMediaPrefix = "audio/"

// UploadInput describes one incoming file. Size is the size declared by the
// client; the streamed byte count is enforced separately.
type UploadInput struct {
	OriginalName string
	ContentType  string
	Size         int64
	Body         io.Reader
}

// UploadService admits, stores and records audio uploads.
type UploadService struct {
	backend    storage.Backend
	uploads    repository.UploadRepository
	dispatcher events.Dispatcher
	cfg        config.UploadConfig
	logger     *zap.Logger
	now        func() time.Time
}

// NewUploadService creates the service.
func NewUploadService(cfg config.UploadConfig, backend storage.Backend, uploads repository.UploadRepository,
	dispatcher events.Dispatcher, logger *zap.Logger) *UploadService {
	return &UploadService{
		backend:    backend,
		uploads:    uploads,
		dispatcher: dispatcher,
		cfg:        cfg,
		logger:     logger,
		now:        time.Now,
	}
}

// FieldName is the multipart field uploads are read from.
func (s *UploadService) FieldName() string {
	return s.cfg.FieldName
}

// Store admits the file for the authenticated caller. On success the bytes
// are fully written and synced, committed under a fresh name, and recorded;
// on any failure nothing remains under the final name.
func (s *UploadService) Store(ctx context.Context, identity auth.Identity, in UploadInput) (*domain.Upload, error) {
	if in.Body == nil {
		return nil, apperrors.NewNoFile()
	}
	if in.Size > s.cfg.MaxBytes {
		return nil, apperrors.NewPayloadTooLarge(s.cfg.MaxBytes)
	}
	if s.cfg.AudioOnly && !strings.HasPrefix(strings.ToLower(in.ContentType), audioMediaPrefix) {
		return nil, apperrors.NewUnsupportedMediaType(in.ContentType)
	}

	filename := storage.GenerateFilename(s.cfg.FieldName, in.OriginalName, s.now())

	staged, size, checksum, err := s.stage(ctx, in.Body)
	if err != nil {
		return nil, err
	}

	location, err := s.backend.Commit(ctx, staged, filename, in.ContentType)
	if err != nil {
		discard(staged)
		s.logger.Error("commit upload", zap.String("filename", filename), zap.Error(err))
		return nil, apperrors.NewInternalError(err)
	}

	record := &domain.Upload{
		UserID:         identity.UserID,
		Filename:       filename,
		OriginalName:   in.OriginalName,
		Path:           location,
		MimeType:       in.ContentType,
		SizeBytes:      size,
		ChecksumSHA256: checksum,
	}
	if err := s.uploads.Create(ctx, record); err != nil {
		if rmErr := s.backend.Remove(context.WithoutCancel(ctx), location); rmErr != nil {
			s.logger.Error("remove orphaned upload", zap.String("path", location), zap.Error(rmErr))
		}
		s.logger.Error("record upload", zap.String("filename", filename), zap.Error(err))
		return nil, apperrors.NewInternalError(err)
	}

	s.logger.Info("file uploaded",
		zap.Int64("user_id", identity.UserID),
		zap.String("filename", filename),
		zap.Int64("size", size),
		zap.String("mime_type", in.ContentType))

	if s.dispatcher != nil {
		_ = s.dispatcher.Publish(ctx, events.NewEvent(events.EventUploadStored, identity.UserID, events.UploadStoredPayload{
			UploadID:       record.ID,
			Filename:       record.Filename,
			Path:           record.Path,
			MimeType:       record.MimeType,
			SizeBytes:      record.SizeBytes,
			ChecksumSHA256: record.ChecksumSHA256,
		}))
	}
	return record, nil
}

// List returns the caller's uploads, newest first.
func (s *UploadService) List(ctx context.Context, identity auth.Identity, limit int) ([]domain.Upload, error) {
	uploads, err := s.uploads.ListByUser(ctx, identity.UserID, limit)
	if err != nil {
		s.logger.Error("list uploads", zap.Int64("user_id", identity.UserID), zap.Error(err))
		return nil, apperrors.NewInternalError(err)
	}
	return uploads, nil
}

// stage streams body into a synced temp file, reading at most MaxBytes+1
// bytes. The temp file is removed on every error path.
func (s *UploadService) stage(ctx context.Context, body io.Reader) (path string, size int64, checksum string, err error) {
	tmp, err := os.CreateTemp(s.backend.StagingDir(), ".upload-*.part")
	if err != nil {
		s.logger.Error("create staging file", zap.Error(err))
		return "", 0, "", apperrors.NewInternalError(err)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			discard(tmp.Name())
		}
	}()

	hasher := sha256.New()
	limited := io.LimitReader(contextReader{ctx: ctx, r: body}, s.cfg.MaxBytes+1)
	size, err = io.Copy(io.MultiWriter(tmp, hasher), limited)
	if err != nil {
		if ctx.Err() != nil {
			s.logger.Info("upload aborted by caller", zap.Error(ctx.Err()))
		} else {
			s.logger.Error("write upload", zap.Error(err))
		}
		return "", 0, "", apperrors.NewInternalError(err)
	}
	if size > s.cfg.MaxBytes {
		err = apperrors.NewPayloadTooLarge(s.cfg.MaxBytes)
		return "", 0, "", err
	}
	if err = tmp.Sync(); err != nil {
		s.logger.Error("sync upload", zap.Error(err))
		return "", 0, "", apperrors.NewInternalError(err)
	}
	if err = tmp.Close(); err != nil {
		s.logger.Error("close upload", zap.Error(err))
		return "", 0, "", apperrors.NewInternalError(err)
	}
	return tmp.Name(), size, hex.EncodeToString(hasher.Sum(nil)), nil
}

func discard(path string) {
	_ = os.Remove(path)
}

// contextReader stops reading once ctx is done so an abandoned upload is not
// written to completion.
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (cr contextReader) Read(p []byte) (int, error) {
	if err := cr.ctx.Err(); err != nil {
		return 0, err
	}
	return cr.r.Read(p)
}
