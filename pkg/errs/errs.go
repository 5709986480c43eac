// Package errs holds the error taxonomy shared by the store, the managers and
// the command line. Callers match with errors.Is.
package errs

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks bad input. The operation is aborted before any write.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound is returned when a referenced quest or profile is absent.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists is returned by create-if-absent when the document exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrConnectivity is returned when the backing store cannot be reached.
	ErrConnectivity = errors.New("store unreachable")

	// ErrNoAccount is returned when an operation needs an active account and
	// the session has none. It is a validation error.
	ErrNoAccount = &ValidationError{Field: "account", Reason: "no active account"}
)

// ValidationError describes which input was rejected and why.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// Is makes every ValidationError match ErrValidation.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Invalid builds a ValidationError.
func Invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// Unavailable wraps err so it matches ErrConnectivity while keeping the cause.
func Unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrConnectivity, err)
}
