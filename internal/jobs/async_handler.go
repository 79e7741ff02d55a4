package jobs

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/phrazzld/taskdeck-api/internal/events"
)

// AsyncHandler forwards events to a wrapped handler on the worker pool.
// HandleEvent returns as soon as the job is queued.
type AsyncHandler struct {
	next   events.EventHandler
	queue  QueueWriter
	logger *slog.Logger
}

var _ events.EventHandler = (*AsyncHandler)(nil)

// NewAsyncHandler wraps next so its work runs on queue.
func NewAsyncHandler(next events.EventHandler, queue QueueWriter, logger *slog.Logger) *AsyncHandler {
	if next == nil || queue == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("handler and queue cannot be nil for AsyncHandler")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AsyncHandler{
		next:   next,
		queue:  queue,
		logger: logger.With(slog.String("component", "async_handler")),
	}
}

// HandleEvent queues the wrapped handler's work. A full or closed queue is
// reported to the caller.
func (h *AsyncHandler) HandleEvent(_ context.Context, event *events.TaskMutationEvent) error {
	job := NewFuncJob(JobTypeInvalidation, func(ctx context.Context) error {
		return h.next.HandleEvent(ctx, event)
	})

	if err := h.queue.Enqueue(job); err != nil {
		h.logger.Warn("failed to queue event",
			"event_id", event.ID,
			"task_id", event.TaskID,
			"error", err)
		return fmt.Errorf("queue event %s: %w", event.ID, err)
	}
	return nil
}
