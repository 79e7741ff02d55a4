package service

import (
	"context"
	"log/slog"

	"github.com/phrazzld/taskdeck-api/internal/events"
)

// TagInvalidator drops cached entries by tag. TaskQueryService implements it.
type TagInvalidator interface {
	InvalidateTags(ctx context.Context, tags ...string) error
}

// InvalidationHandler turns task mutation events into cache invalidations.
type InvalidationHandler struct {
	invalidator TagInvalidator
	logger      *slog.Logger
}

var _ events.EventHandler = (*InvalidationHandler)(nil)

// NewInvalidationHandler creates a handler that invalidates through inv.
func NewInvalidationHandler(inv TagInvalidator, logger *slog.Logger) *InvalidationHandler {
	if inv == nil {
		panic("invalidator cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &InvalidationHandler{
		invalidator: inv,
		logger:      logger.With(slog.String("component", "invalidation_handler")),
	}
}

// HandleEvent implements events.EventHandler.
func (h *InvalidationHandler) HandleEvent(ctx context.Context, event *events.TaskMutationEvent) error {
	tags := TagsForMutation(event)
	if len(tags) == 0 {
		h.logger.Debug("mutation does not affect aggregates",
			slog.String("event_id", event.ID.String()),
			slog.String("task_id", event.TaskID.String()))
		return nil
	}
	return h.invalidator.InvalidateTags(ctx, tags...)
}

// TagsForMutation returns the cache tags made stale by event. A write that
// leaves both status and priority unchanged affects no aggregate.
func TagsForMutation(event *events.TaskMutationEvent) []string {
	var tags []string
	add := func(tag string) {
		for _, t := range tags {
			if t == tag {
				return
			}
		}
		tags = append(tags, tag)
	}

	statusChanged := event.Before == nil || event.After == nil ||
		event.Before.Status != event.After.Status
	priorityChanged := event.Before == nil || event.After == nil ||
		event.Before.Priority != event.After.Priority

	for _, state := range []*events.TaskState{event.Before, event.After} {
		if state == nil {
			continue
		}
		if statusChanged {
			add(StatusTag(state.Status))
		}
		if priorityChanged {
			add(PriorityTag(state.Priority))
		}
	}
	if statusChanged {
		add(TagStatusCounts)
	}
	if priorityChanged {
		add(TagPriorityCounts)
	}
	return tags
}
