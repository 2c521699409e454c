package errorutil

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes rendered to API callers.
const (
	CodeValidation           = "VALIDATION_FAILED"
	CodeConflict             = "CONFLICT"
	CodeInvalidCredentials   = "INVALID_CREDENTIALS"
	CodeMissingToken         = "MISSING_TOKEN"
	CodeInvalidToken         = "INVALID_TOKEN"
	CodeConfiguration        = "CONFIGURATION_ERROR"
	CodePayloadTooLarge      = "PAYLOAD_TOO_LARGE"
	CodeUnsupportedMediaType = "UNSUPPORTED_MEDIA_TYPE"
	CodeNoFile               = "NO_FILE"
	CodeNotFound             = "NOT_FOUND"
	CodeInternal             = "INTERNAL_ERROR"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError(CodeValidation, message, http.StatusBadRequest, details)
}

func NewConflict(message string, details map[string]any) error {
	return NewDomainError(CodeConflict, message, http.StatusConflict, details)
}

// NewInvalidCredentials is shared by the unknown-account and wrong-password paths.
func NewInvalidCredentials() error {
	return NewDomainError(CodeInvalidCredentials, "Invalid credentials.", http.StatusUnauthorized, nil)
}

func NewMissingToken() error {
	return NewDomainError(CodeMissingToken, "Access denied. No token provided.", http.StatusUnauthorized, nil)
}

// NewInvalidToken reports a token that is present but expired or tampered with.
func NewInvalidToken(reason string) error {
	var details map[string]any
	if reason != "" {
		details = map[string]any{"reason": reason}
	}
	return NewDomainError(CodeInvalidToken, "Invalid token.", http.StatusForbidden, details)
}

// NewConfigurationError reports a deployment fault. It always renders as a 5xx.
func NewConfigurationError(message string, err error) error {
	return &DomainError{
		Code:       CodeConfiguration,
		Message:    message,
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

func NewPayloadTooLarge(maxBytes int64) error {
	var details map[string]any
	if maxBytes > 0 {
		details = map[string]any{"max_bytes": maxBytes}
	}
	return NewDomainError(CodePayloadTooLarge, "File too large", http.StatusBadRequest, details)
}

func NewUnsupportedMediaType(mimeType string) error {
	return NewDomainError(CodeUnsupportedMediaType, "Not an audio file!", http.StatusBadRequest,
		map[string]any{"mime_type": mimeType})
}

func NewNoFile() error {
	return NewDomainError(CodeNoFile, "No file uploaded.", http.StatusBadRequest, nil)
}

func NewNotFound(resource string) error {
	return NewDomainError(CodeNotFound, fmt.Sprintf("%s not found", resource), http.StatusNotFound, nil)
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// ToDomainError converts generic errors to DomainError. Unknown errors become
// an InternalError so their text never reaches the caller.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return NewInternalError(err).(*DomainError)
}

// HasCode reports whether err carries the given domain code.
func HasCode(err error, code string) bool {
	var domainErr *DomainError
	return errors.As(err, &domainErr) && domainErr.Code == code
}
