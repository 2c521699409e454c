package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/audioclean-service/internal/api/dto"
	"github.com/spec-kit/audioclean-service/internal/auth"
	"github.com/spec-kit/audioclean-service/internal/service"
	apperrors "github.com/spec-kit/audioclean-service/pkg/util/errorutil"
)

const defaultListLimit = 50

// UploadHandler accepts audio files from authenticated callers.
type UploadHandler struct {
	uploads *service.UploadService
}

// NewUploadHandler constructs handler.
func NewUploadHandler(uploads *service.UploadService) *UploadHandler {
	return &UploadHandler{uploads: uploads}
}

// Upload handles POST /upload.
func (h *UploadHandler) Upload(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return apperrors.NewMissingToken()
	}

	header, err := c.FormFile(h.uploads.FieldName())
	if err != nil {
		return apperrors.NewNoFile()
	}
	file, err := header.Open()
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	defer file.Close()

	upload, err := h.uploads.Store(c.UserContext(), identity, service.UploadInput{
		OriginalName: header.Filename,
		ContentType:  header.Header.Get(fiber.HeaderContentType),
		Size:         header.Size,
		Body:         file,
	})
	if err != nil {
		return err
	}

	return c.JSON(dto.UploadResponse{
		Message:  "File uploaded successfully!",
		Filename: upload.Filename,
		Path:     upload.Path,
		Size:     upload.SizeBytes,
	})
}

// List handles GET /uploads.
func (h *UploadHandler) List(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return apperrors.NewMissingToken()
	}

	limit := c.QueryInt("limit", defaultListLimit)
	if limit <= 0 || limit > defaultListLimit {
		limit = defaultListLimit
	}
	uploads, err := h.uploads.List(c.UserContext(), identity, limit)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewUploadListResponse(uploads))
}
