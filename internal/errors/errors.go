// Package errors provides standardized domain errors that express business intent
// rather than infrastructure details. These errors are returned by use cases and
// repositories and mapped to vault error envelopes by the HTTP layer.
package errors

import (
	"errors"
	"fmt"
)

// Standard domain errors that can be used across all domain modules.
var (
	// ErrNotFound indicates the requested resource does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict indicates a conflict with existing data (e.g., a name parked in the deleted namespace).
	ErrConflict = errors.New("conflict")

	// ErrInvalidInput indicates the input data is invalid or fails validation.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnauthorized indicates the request lacks valid authentication credentials.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden indicates the operation is not allowed on the target resource.
	ErrForbidden = errors.New("forbidden")

	// ErrNotImplemented indicates an operation that is reserved but not supported.
	ErrNotImplemented = errors.New("not implemented")

	// ErrUnavailable indicates the service cannot handle the request in its current setup.
	ErrUnavailable = errors.New("unavailable")
)

// ServiceError decorates an error with the code and message returned to API clients.
// Unwrap exposes Err so callers keep matching on the sentinel errors above.
type ServiceError struct {
	Code      string
	Message   string
	RequestID string
	Err       error
}

// Error returns the client facing message.
func (e *ServiceError) Error() string {
	return e.Message
}

// Unwrap returns the underlying classification error.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewServiceError wraps err with a wire code, a message and the request id that produced it.
func NewServiceError(err error, code, message, requestID string) error {
	return &ServiceError{Code: code, Message: message, RequestID: requestID, Err: err}
}

// New creates a new error with the given message.
// This is a convenience wrapper around errors.New for consistency.
func New(message string) error {
	return errors.New(message)
}

// Wrap wraps an error with additional context while preserving the error chain.
// Use this to add context at each layer without losing the original error type.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf is like Wrap with a formatted message.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Is reports whether any error in err's tree matches target.
// This is a convenience wrapper around errors.Is.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's tree that matches target.
// This is a convenience wrapper around errors.As.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// Join returns an error that wraps the given errors, discarding nils.
func Join(errs ...error) error {
	return errors.Join(errs...)
}
