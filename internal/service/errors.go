package service

import (
	"errors"
	"fmt"

	"github.com/phrazzld/taskdeck-api/internal/domain"
)

// Common service errors - sentinel errors used across service implementations.
// These errors represent common conditions that callers may want to check for with errors.Is().
//
// Error handling principles:
// 1. Strict service methods return sentinel or validation errors for expected conditions
// 2. Storage failures are wrapped in TaskQueryServiceError
// 3. The non-strict methods never return errors; they log and degrade to empty values
// 4. The API layer maps service errors to appropriate HTTP status codes
var (
	// ErrStorageUnavailable indicates the task store could not answer the query.
	// API layer should map this to HTTP 503 Service Unavailable.
	ErrStorageUnavailable = errors.New("task storage unavailable")

	// ErrMissingDependency is returned by constructors when a required collaborator is nil.
	ErrMissingDependency = errors.New("missing dependency")
)

// TaskQueryServiceError wraps errors from the task query service with context.
type TaskQueryServiceError struct {
	// Operation is the operation that failed (e.g., "get_tasks", "count_by_status")
	Operation string
	// Message is a human-readable description of the error
	Message string
	// Err is the underlying error that caused the failure
	Err error
}

// Error implements the error interface for TaskQueryServiceError.
func (e *TaskQueryServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("task query service %s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("task query service %s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped errors to support errors.Is/errors.As. Every
// TaskQueryServiceError also matches ErrStorageUnavailable.
func (e *TaskQueryServiceError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrStorageUnavailable}
	}
	return []error{ErrStorageUnavailable, e.Err}
}

// NewTaskQueryServiceError creates a new TaskQueryServiceError.
// Validation errors are returned directly without wrapping.
func NewTaskQueryServiceError(operation, message string, err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, domain.ErrValidation) {
		return err
	}

	return &TaskQueryServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}
