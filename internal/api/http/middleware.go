package http

import (
	"context"
	"errors"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/audioclean-service/internal/observability"
	apperrors "github.com/spec-kit/audioclean-service/pkg/util/errorutil"
)

// multipartOverhead is the room left above the upload limit for multipart
// boundaries and headers before fiber rejects the body outright.
const multipartOverhead = 1 << 20

// AppOptions configures NewApp.
type AppOptions struct {
	Name           string
	MaxUploadBytes int64
	Logger         *zap.Logger
	Metrics        *observability.Metrics
}

// NewApp builds the fiber app with the JSON error body as its error handler.
// Errors raised before routing, such as an oversized body, go through it too.
func NewApp(opts AppOptions) *fiber.App {
	bodyLimit := fiber.DefaultBodyLimit
	if opts.MaxUploadBytes > 0 {
		bodyLimit = int(opts.MaxUploadBytes) + multipartOverhead
	}
	renderer := &errorRenderer{logger: opts.Logger, metrics: opts.Metrics, maxUploadBytes: opts.MaxUploadBytes}
	return fiber.New(fiber.Config{
		AppName:               opts.Name,
		BodyLimit:             bodyLimit,
		DisableStartupMessage: true,
		ErrorHandler:          renderer.handle,
	})
}

// RegisterMiddlewares attaches global middlewares: request logging outermost
// so it observes the rendered status, then error rendering, then the timeout.
func RegisterMiddlewares(app *fiber.App, opts AppOptions, timeout time.Duration) {
	renderer := &errorRenderer{logger: opts.Logger, metrics: opts.Metrics, maxUploadBytes: opts.MaxUploadBytes}
	app.Use(observability.RequestLogger(opts.Logger, opts.Metrics))
	app.Use(errorHandlingMiddleware(renderer))
	if timeout > 0 {
		app.Use(requestTimeoutMiddleware(timeout))
	}
}

func requestTimeoutMiddleware(timeout time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), timeout)
		defer cancel()
		c.SetUserContext(ctx)
		return c.Next()
	}
}

func errorHandlingMiddleware(renderer *errorRenderer) fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				renderer.logger.Error("panic recovered", zap.Any("panic", r), zap.ByteString("stack", debug.Stack()))
				err = apperrors.NewInternalError(nil)
			}
			if err != nil {
				err = renderer.handle(c, err)
			}
		}()
		return c.Next()
	}
}

type errorRenderer struct {
	logger         *zap.Logger
	metrics        *observability.Metrics
	maxUploadBytes int64
}

// handle writes {"code","message","details"?}. Unknown errors render as an
// internal error and their text is only logged.
func (r *errorRenderer) handle(c *fiber.Ctx, err error) error {
	domainErr := r.toDomainError(err)
	r.metrics.RecordError(c.Path(), c.Method(), domainErr.Code)

	response := fiber.Map{
		"code":    domainErr.Code,
		"message": domainErr.Message,
	}
	if len(domainErr.Details) > 0 {
		response["details"] = domainErr.Details
	}
	if domainErr.HTTPStatus >= http.StatusInternalServerError {
		r.logger.Error("request failed",
			zap.String("request_id", observability.RequestID(c)),
			zap.String("path", c.Path()),
			zap.String("code", domainErr.Code),
			zap.Error(domainErr))
	}
	return c.Status(domainErr.HTTPStatus).JSON(response)
}

func (r *errorRenderer) toDomainError(err error) *apperrors.DomainError {
	var domainErr *apperrors.DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return fromFiberError(fiberErr, r.maxUploadBytes)
	}
	return apperrors.ToDomainError(err)
}

func fromFiberError(fe *fiber.Error, maxUploadBytes int64) *apperrors.DomainError {
	var mapped error
	switch fe.Code {
	case fiber.StatusRequestEntityTooLarge:
		mapped = apperrors.NewPayloadTooLarge(maxUploadBytes)
	case fiber.StatusNotFound:
		mapped = apperrors.NewNotFound("route")
	case fiber.StatusBadRequest, fiber.StatusUnprocessableEntity:
		mapped = apperrors.NewValidationError(fe.Message, nil)
	default:
		if fe.Code >= http.StatusInternalServerError {
			mapped = apperrors.NewInternalError(fe)
		} else {
			mapped = apperrors.NewDomainError(statusCode(fe.Code), fe.Message, fe.Code, nil)
		}
	}
	return apperrors.ToDomainError(mapped)
}

// statusCode turns 405 into METHOD_NOT_ALLOWED and so on.
func statusCode(status int) string {
	return strings.ToUpper(strings.ReplaceAll(http.StatusText(status), " ", "_"))
}
