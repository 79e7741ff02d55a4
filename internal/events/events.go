package events

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskdeck-api/internal/domain"
)

// MutationKind names the write that produced a TaskMutationEvent.
type MutationKind string

// Mutation kinds
const (
	MutationCreated MutationKind = "created"
	MutationUpdated MutationKind = "updated"
	MutationDeleted MutationKind = "deleted"
)

// ErrInvalidEvent is returned when a mutation event is missing the state its kind requires.
var ErrInvalidEvent = errors.New("invalid task mutation event")

// TaskState is the part of a task that aggregate counts depend on.
type TaskState struct {
	Status   domain.TaskStatus   `json:"status"`
	Priority domain.TaskPriority `json:"priority"`
}

// TaskMutationEvent reports that a task was written by another component.
// Before is absent for creations and After for deletions.
type TaskMutationEvent struct {
	// ID is a unique identifier for this event
	ID uuid.UUID `json:"id"`

	// Kind is the write that happened
	Kind MutationKind `json:"kind"`

	// TaskID identifies the task that changed
	TaskID uuid.UUID `json:"task_id"`

	Before *TaskState `json:"before,omitempty"`
	After  *TaskState `json:"after,omitempty"`

	// OccurredAt is the timestamp when the mutation happened
	OccurredAt time.Time `json:"occurred_at"`
}

// NewTaskMutationEvent creates a validated TaskMutationEvent.
func NewTaskMutationEvent(kind MutationKind, taskID uuid.UUID, before, after *TaskState) (*TaskMutationEvent, error) {
	event := &TaskMutationEvent{
		ID:         uuid.New(),
		Kind:       kind,
		TaskID:     taskID,
		Before:     before,
		After:      after,
		OccurredAt: time.Now().UTC(),
	}
	if err := event.Validate(); err != nil {
		return nil, err
	}
	return event, nil
}

// Validate checks that the event carries the states required by its kind.
func (e *TaskMutationEvent) Validate() error {
	switch e.Kind {
	case MutationCreated:
		if e.After == nil {
			return fmt.Errorf("%w: created event without after state", ErrInvalidEvent)
		}
	case MutationUpdated:
		if e.Before == nil || e.After == nil {
			return fmt.Errorf("%w: updated event needs before and after state", ErrInvalidEvent)
		}
	case MutationDeleted:
		if e.Before == nil {
			return fmt.Errorf("%w: deleted event without before state", ErrInvalidEvent)
		}
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidEvent, e.Kind)
	}
	if e.TaskID == uuid.Nil {
		return fmt.Errorf("%w: missing task id", ErrInvalidEvent)
	}
	for _, s := range []*TaskState{e.Before, e.After} {
		if s != nil && (!s.Status.IsValid() || !s.Priority.IsValid()) {
			return fmt.Errorf("%w: unknown status %q or priority %q", ErrInvalidEvent, s.Status, s.Priority)
		}
	}
	return nil
}

// EventHandler defines an interface for components that can handle events.
// Handlers are responsible for processing events and taking appropriate actions.
type EventHandler interface {
	// HandleEvent processes the given event within the provided context.
	// Returns an error if the event cannot be handled successfully.
	HandleEvent(ctx context.Context, event *TaskMutationEvent) error
}

// EventEmitter defines an interface for components that can emit events.
// This allows writers to publish mutations without knowledge of the caches they affect.
type EventEmitter interface {
	// EmitEvent publishes the given event to all registered handlers.
	// Returns an error if the event cannot be emitted.
	EmitEvent(ctx context.Context, event *TaskMutationEvent) error
}
