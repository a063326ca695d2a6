// Package errors provides the standardized error taxonomy shared by all domain
// modules. Use cases return errors from this taxonomy and handlers translate them
// to HTTP status codes; infrastructure details never leak past the repository layer.
package errors

import (
	"errors"
	"fmt"
)

// Categories every domain error eventually wraps.
var (
	// ErrNotFound indicates the requested resource does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict indicates a conflict with existing data (duplicate name,
	// already-assigned, not-assigned).
	ErrConflict = errors.New("conflict")

	// ErrInvalidInput indicates the input data is invalid or an aggregate
	// invariant would be violated by the write.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnauthorized indicates the request lacks a valid identity claim.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden indicates the authenticated user's role doesn't permit the operation.
	ErrForbidden = errors.New("forbidden")
)

// New creates a new error with the given message.
func New(message string) error {
	return errors.New(message)
}

// Wrap wraps an error with additional context while preserving the error chain.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Is reports whether any error in err's tree matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's tree that matches target.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// messageError carries a caller-facing message while keeping the sentinel chain
// intact. Error() returns only the message, so it can be written to API
// responses without exposing the internal chain.
type messageError struct {
	sentinel error
	message  string
}

func (e *messageError) Error() string { return e.message }

func (e *messageError) Unwrap() error { return e.sentinel }

// WithMessage attaches a caller-facing message to a sentinel error. The result
// still matches the sentinel (and its category) via errors.Is, but Error()
// returns the formatted message alone.
func WithMessage(sentinel error, format string, args ...any) error {
	if sentinel == nil {
		return nil
	}
	return &messageError{
		sentinel: sentinel,
		message:  fmt.Sprintf(format, args...),
	}
}
