package service

import (
	"context"
	"log/slog"

	"github.com/phrazzld/taskdeck-api/internal/cache"
	"github.com/phrazzld/taskdeck-api/internal/domain"
	"github.com/phrazzld/taskdeck-api/internal/query"
	"github.com/phrazzld/taskdeck-api/internal/redact"
)

// cached serves key from the aggregate cache, falling back to load on a miss.
// Only successful loads are stored. A cache that fails to answer is treated
// as a miss so the count is still served from storage.
func cached[T any](
	ctx context.Context,
	s *taskQueryServiceImpl,
	key string,
	tags []string,
	load func(ctx context.Context) (T, error),
) (T, error) {
	v, ok, err := cache.GetJSON[T](ctx, s.cache, key)
	if err != nil {
		s.log(ctx).Warn("cache read failed, computing aggregate",
			slog.String("key", key),
			slog.String("error", redact.Error(err)))
	}
	if ok {
		return v, nil
	}

	v, err = load(ctx)
	if err != nil {
		var zero T
		return zero, err
	}

	if err := cache.PutJSON(ctx, s.cache, key, v, s.ttl, tags...); err != nil {
		s.log(ctx).Warn("cache write failed",
			slog.String("key", key),
			slog.String("error", redact.Error(err)))
	}
	return v, nil
}

// GetTaskCountByStatus implements TaskQueryService.GetTaskCountByStatus.
func (s *taskQueryServiceImpl) GetTaskCountByStatus(ctx context.Context, status domain.TaskStatus) int {
	n, err := s.GetTaskCountByStatusStrict(ctx, status)
	if err != nil {
		s.log(ctx).Error("failed to count tasks by status, serving zero",
			slog.String("status", string(status)),
			slog.String("error", redact.Error(err)))
		return 0
	}
	return n
}

// GetTaskCountByStatusStrict implements TaskQueryService.GetTaskCountByStatusStrict.
func (s *taskQueryServiceImpl) GetTaskCountByStatusStrict(
	ctx context.Context,
	status domain.TaskStatus,
) (int, error) {
	if !status.IsValid() {
		return 0, domain.NewValidationError("status", "is not a known task status", domain.ErrInvalidTaskStatus)
	}

	tags := []string{TagAggregateInvalidation, StatusTag(status)}
	return cached(ctx, s, statusCountKey(status), tags, func(ctx context.Context) (int, error) {
		counts, err := s.store.CountByColumn(ctx, query.ColumnStatus,
			query.Eq{Column: query.ColumnStatus, Value: string(status)})
		if err != nil {
			return 0, NewTaskQueryServiceError("count_by_status", "failed to count tasks", err)
		}
		return counts[string(status)], nil
	})
}

// GetTaskCountByPriority implements TaskQueryService.GetTaskCountByPriority.
func (s *taskQueryServiceImpl) GetTaskCountByPriority(ctx context.Context, priority domain.TaskPriority) int {
	n, err := s.GetTaskCountByPriorityStrict(ctx, priority)
	if err != nil {
		s.log(ctx).Error("failed to count tasks by priority, serving zero",
			slog.String("priority", string(priority)),
			slog.String("error", redact.Error(err)))
		return 0
	}
	return n
}

// GetTaskCountByPriorityStrict implements TaskQueryService.GetTaskCountByPriorityStrict.
func (s *taskQueryServiceImpl) GetTaskCountByPriorityStrict(
	ctx context.Context,
	priority domain.TaskPriority,
) (int, error) {
	if !priority.IsValid() {
		return 0, domain.NewValidationError("priority", "is not a known task priority", domain.ErrInvalidTaskPriority)
	}

	tags := []string{TagAggregateInvalidation, PriorityTag(priority)}
	return cached(ctx, s, priorityCountKey(priority), tags, func(ctx context.Context) (int, error) {
		counts, err := s.store.CountByColumn(ctx, query.ColumnPriority,
			query.Eq{Column: query.ColumnPriority, Value: string(priority)})
		if err != nil {
			return 0, NewTaskQueryServiceError("count_by_priority", "failed to count tasks", err)
		}
		return counts[string(priority)], nil
	})
}

// GetTaskStatusCounts implements TaskQueryService.GetTaskStatusCounts.
func (s *taskQueryServiceImpl) GetTaskStatusCounts(ctx context.Context) map[domain.TaskStatus]int {
	counts, err := s.GetTaskStatusCountsStrict(ctx)
	if err != nil {
		s.log(ctx).Error("failed to group tasks by status, serving empty counts",
			slog.String("error", redact.Error(err)))
		return map[domain.TaskStatus]int{}
	}
	return counts
}

// GetTaskStatusCountsStrict implements TaskQueryService.GetTaskStatusCountsStrict.
func (s *taskQueryServiceImpl) GetTaskStatusCountsStrict(ctx context.Context) (map[domain.TaskStatus]int, error) {
	tags := []string{TagAggregateInvalidation, TagStatusCounts}
	return cached(ctx, s, keyStatusCounts, tags, func(ctx context.Context) (map[domain.TaskStatus]int, error) {
		raw, err := s.store.CountByColumn(ctx, query.ColumnStatus, nil)
		if err != nil {
			return nil, NewTaskQueryServiceError("status_counts", "failed to group tasks", err)
		}
		counts := make(map[domain.TaskStatus]int, len(raw))
		for v, n := range raw {
			if n > 0 {
				counts[domain.TaskStatus(v)] = n
			}
		}
		return counts, nil
	})
}

// GetTaskPriorityCounts implements TaskQueryService.GetTaskPriorityCounts.
func (s *taskQueryServiceImpl) GetTaskPriorityCounts(ctx context.Context) map[domain.TaskPriority]int {
	counts, err := s.GetTaskPriorityCountsStrict(ctx)
	if err != nil {
		s.log(ctx).Error("failed to group tasks by priority, serving empty counts",
			slog.String("error", redact.Error(err)))
		return map[domain.TaskPriority]int{}
	}
	return counts
}

// GetTaskPriorityCountsStrict implements TaskQueryService.GetTaskPriorityCountsStrict.
func (s *taskQueryServiceImpl) GetTaskPriorityCountsStrict(ctx context.Context) (map[domain.TaskPriority]int, error) {
	tags := []string{TagAggregateInvalidation, TagPriorityCounts}
	return cached(ctx, s, keyPriorityCounts, tags, func(ctx context.Context) (map[domain.TaskPriority]int, error) {
		raw, err := s.store.CountByColumn(ctx, query.ColumnPriority, nil)
		if err != nil {
			return nil, NewTaskQueryServiceError("priority_counts", "failed to group tasks", err)
		}
		counts := make(map[domain.TaskPriority]int, len(raw))
		for v, n := range raw {
			if n > 0 {
				counts[domain.TaskPriority(v)] = n
			}
		}
		return counts, nil
	})
}
