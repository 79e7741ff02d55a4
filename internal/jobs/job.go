package jobs

import (
	"context"

	"github.com/google/uuid"
)

// Job types
const (
	// JobTypeInvalidation drops cached aggregates after a task mutation.
	JobTypeInvalidation = "cache_invalidation"
)

// Job is a unit of background work.
type Job interface {
	// ID returns the job's unique identifier
	ID() uuid.UUID

	// Type returns the job type identifier
	Type() string

	// Execute runs the job logic
	Execute(ctx context.Context) error
}

// QueueReader provides read-only access to queued jobs so workers can
// consume them without being able to enqueue.
type QueueReader interface {
	// Channel returns a read-only channel for consuming jobs
	Channel() <-chan Job
}

// QueueWriter lets producers submit jobs.
type QueueWriter interface {
	// Enqueue adds a job to the queue for processing.
	// Returns an error if the queue is full or closed.
	Enqueue(job Job) error

	// Close closes the queue, preventing further submission
	Close()
}

// FuncJob adapts a function to the Job interface.
type FuncJob struct {
	id      uuid.UUID
	jobType string
	fn      func(ctx context.Context) error
}

// NewFuncJob creates a job of the given type that runs fn.
func NewFuncJob(jobType string, fn func(ctx context.Context) error) *FuncJob {
	return &FuncJob{id: uuid.New(), jobType: jobType, fn: fn}
}

// ID implements Job
func (j *FuncJob) ID() uuid.UUID { return j.id }

// Type implements Job
func (j *FuncJob) Type() string { return j.jobType }

// Execute implements Job
func (j *FuncJob) Execute(ctx context.Context) error { return j.fn(ctx) }
