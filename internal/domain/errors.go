// Package domain defines the core business entities and errors.
package domain

import (
	"errors"
	"fmt"
)

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain value fails validation.
	// This is often wrapped with a more specific error message.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidTaskStatus is returned when a status is not one of the known values.
	ErrInvalidTaskStatus = errors.New("invalid task status")

	// ErrInvalidTaskPriority is returned when a priority is not one of the known values.
	ErrInvalidTaskPriority = errors.New("invalid task priority")

	// ErrInvalidTaskLabel is returned when a label is not one of the known values.
	ErrInvalidTaskLabel = errors.New("invalid task label")

	// ErrInvalidPagination is returned when page or per-page are not positive.
	ErrInvalidPagination = errors.New("invalid pagination")
)

// ValidationError describes a validation failure on a single field.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

// Error implements the error interface for ValidationError.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Message)
}

// Unwrap returns the wrapped errors to support errors.Is/errors.As. Every
// ValidationError matches ErrValidation as well as its specific cause.
func (e *ValidationError) Unwrap() []error {
	if e.Err == nil || e.Err == ErrValidation {
		return []error{ErrValidation}
	}
	return []error{ErrValidation, e.Err}
}

// NewValidationError creates a ValidationError for the given field.
func NewValidationError(field, message string, err error) *ValidationError {
	if err == nil {
		err = ErrValidation
	}
	return &ValidationError{
		Field:   field,
		Message: message,
		Err:     err,
	}
}
