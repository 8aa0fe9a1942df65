package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"

	"petitiondesk/domain/core"
)

// AppError represents a structured application error
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// New creates a new AppError
func New(code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an error with additional context, keeping an existing code or
// deriving one from the domain sentinel it wraps
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return &AppError{
		Code:    GetCode(err),
		Message: message,
		Cause:   err,
	}
}

// Wrapf wraps an error with formatted additional context
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return Wrap(err, fmt.Sprintf(format, args...))
}

// IsAppError checks if an error is an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr)
}

// GetCode returns the outermost AppError code, else a code derived from domain
// sentinels, else INTERNAL_ERROR
func GetCode(err error) string {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	switch {
	case err == nil:
		return ""
	case stderrors.Is(err, core.ErrEmptyText):
		return CodeValidationError
	case stderrors.Is(err, core.ErrNotReady):
		return CodeNotReady
	case stderrors.Is(err, core.ErrCorruptBlob):
		return CodeCorruptBlob
	case stderrors.Is(err, core.ErrNotFound):
		return CodeNotFound
	case stderrors.Is(err, core.ErrData):
		return CodeDataError
	case stderrors.Is(err, core.ErrTranscriptionTimeout):
		return CodeTimeout
	case stderrors.Is(err, core.ErrUnsupportedAudio):
		return CodeInvalidInput
	case stderrors.Is(err, core.ErrTranscription):
		return CodeExternalService
	default:
		return CodeInternalError
	}
}

// Predefined error codes
const (
	CodeConfigInvalid   = "CONFIG_INVALID"
	CodeValidationError = "VALIDATION_ERROR"
	CodeInvalidInput    = "INVALID_INPUT"
	CodeNotFound        = "NOT_FOUND"
	CodeNotReady        = "NOT_READY"
	CodeCorruptBlob     = "CORRUPT_BLOB"
	CodeDataError       = "DATA_ERROR"
	CodeStorageError    = "STORAGE_ERROR"
	CodeExternalService = "EXTERNAL_SERVICE_ERROR"
	CodeTimeout         = "TIMEOUT"
	CodeInternalError   = "INTERNAL_ERROR"
)

// HTTPStatus maps an error code to the status returned at request boundaries
func HTTPStatus(code string) int {
	switch code {
	case CodeValidationError, CodeInvalidInput:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeNotReady:
		return http.StatusServiceUnavailable
	case CodeExternalService:
		return http.StatusBadGateway
	case CodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// Common error constructors
func ConfigInvalid(message string) *AppError {
	return New(CodeConfigInvalid, message)
}

func ValidationError(message string) *AppError {
	return New(CodeValidationError, message)
}

func StorageError(message string, cause error) *AppError {
	return &AppError{
		Code:    CodeStorageError,
		Message: message,
		Cause:   cause,
	}
}

func ExternalServiceError(service string, cause error) *AppError {
	return &AppError{
		Code:    CodeExternalService,
		Message: fmt.Sprintf("%s service error", service),
		Cause:   cause,
	}
}

func InvalidInput(message string) *AppError {
	return New(CodeInvalidInput, message)
}
