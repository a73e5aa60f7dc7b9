package common

import (
	"errors"
	"fmt"
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

// Error kinds for the extraction pipeline. Every failure a document can hit
// wraps exactly one of these, so callers can match with errors.Is.
var (
	ErrUnsupportedFormat = errors.New("unsupported document format")
	ErrUnreadable        = errors.New("document unreadable")
	ErrService           = errors.New("extraction service error")
	ErrTimeout           = errors.New("extraction service timeout")
	ErrMalformedResponse = errors.New("malformed model response")
	ErrInvalidInput      = errors.New("invalid input")
)

// NewAppError creates an AppError with a stable code and an underlying cause.
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// Convenience constructors mapping each error kind to its stable code.

func UnsupportedFormatError(message string) error {
	return NewAppError("UNSUPPORTED_FORMAT", message, ErrUnsupportedFormat)
}

func ReadError(message string, cause error) error {
	return NewAppError("READ_ERROR", message, errors.Join(ErrUnreadable, cause))
}

func ServiceError(message string, cause error) error {
	return NewAppError("SERVICE_ERROR", message, errors.Join(ErrService, cause))
}

func TimeoutError(message string, cause error) error {
	return NewAppError("TIMEOUT", message, errors.Join(ErrTimeout, cause))
}

func MalformedResponseError(message string, cause error) error {
	return NewAppError("MALFORMED_RESPONSE", message, errors.Join(ErrMalformedResponse, cause))
}

// WrapError annotates err with a message, preserving the chain.
func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}
