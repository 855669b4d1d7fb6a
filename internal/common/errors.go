package common

import (
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Common application errors
var (
	ErrNotFound     = errors.New("resource not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrInternal     = errors.New("internal error")
	ErrStore        = errors.New("store error")

	// external tools
	ErrToolUnavailable = errors.New("external tool unavailable")
	ErrToolTimeout     = errors.New("external tool timed out")
	ErrToolFailed      = errors.New("external tool failed")

	// payloads
	ErrPayloadTooLarge   = errors.New("payload too large")
	ErrUnsupportedFormat = errors.New("unsupported format")
	ErrEmptyExtraction   = errors.New("no usable text extracted")

	// admission
	ErrRateLimited      = errors.New("rate limit exceeded")
	ErrConcurrencyLimit = errors.New("too many concurrent jobs")
	ErrQueueFull        = errors.New("job queue is full")
	ErrBackendMissing   = errors.New("transcription backend not configured")
)

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// IsToolError reports whether err belongs to the external tool family.
func IsToolError(err error) bool {
	return errors.Is(err, ErrToolUnavailable) || errors.Is(err, ErrToolTimeout) || errors.Is(err, ErrToolFailed)
}

// GRPCCode maps the error taxonomy onto gRPC status codes.
func GRPCCode(err error) codes.Code {
	switch {
	case err == nil:
		return codes.OK
	case errors.Is(err, ErrRateLimited), errors.Is(err, ErrConcurrencyLimit), errors.Is(err, ErrQueueFull):
		return codes.ResourceExhausted
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrUnsupportedFormat), errors.Is(err, ErrPayloadTooLarge):
		return codes.InvalidArgument
	case errors.Is(err, ErrNotFound):
		return codes.NotFound
	case errors.Is(err, ErrBackendMissing):
		return codes.FailedPrecondition
	case IsToolError(err):
		return codes.Unavailable
	}
	return codes.Internal
}

// GRPCStatus converts any error into a gRPC status error carrying its message.
func GRPCStatus(err error) error {
	if err == nil {
		return nil
	}
	return status.Error(GRPCCode(err), err.Error())
}
