package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/phrazzld/taskdeck-api/internal/cache"
	"github.com/phrazzld/taskdeck-api/internal/domain"
	"github.com/phrazzld/taskdeck-api/internal/platform/logger"
	"github.com/phrazzld/taskdeck-api/internal/query"
	"github.com/phrazzld/taskdeck-api/internal/redact"
	"github.com/phrazzld/taskdeck-api/internal/store"
)

// TaskQueryService answers the read-side questions of the task table view:
// filtered pages of tasks and aggregate counts.
//
// The plain methods never fail. A storage error is logged and the caller gets
// an empty page, a zero count or an empty map. The Strict counterparts return
// the error instead, for callers that must tell failure from emptiness.
type TaskQueryService interface {
	// GetTasks returns one page of tasks and the number of pages.
	GetTasks(ctx context.Context, req domain.QueryRequest) domain.QueryResult
	GetTasksStrict(ctx context.Context, req domain.QueryRequest) (domain.QueryResult, error)

	// GetTaskCountByStatus returns the number of tasks with the given status.
	GetTaskCountByStatus(ctx context.Context, status domain.TaskStatus) int
	GetTaskCountByStatusStrict(ctx context.Context, status domain.TaskStatus) (int, error)

	// GetTaskCountByPriority returns the number of tasks with the given priority.
	GetTaskCountByPriority(ctx context.Context, priority domain.TaskPriority) int
	GetTaskCountByPriorityStrict(ctx context.Context, priority domain.TaskPriority) (int, error)

	// GetTaskStatusCounts returns the number of tasks per status. Statuses
	// without tasks are absent.
	GetTaskStatusCounts(ctx context.Context) map[domain.TaskStatus]int
	GetTaskStatusCountsStrict(ctx context.Context) (map[domain.TaskStatus]int, error)

	// GetTaskPriorityCounts returns the number of tasks per priority.
	// Priorities without tasks are absent.
	GetTaskPriorityCounts(ctx context.Context) map[domain.TaskPriority]int
	GetTaskPriorityCountsStrict(ctx context.Context) (map[domain.TaskPriority]int, error)

	// InvalidateTags drops every cached aggregate carrying any of the tags.
	InvalidateTags(ctx context.Context, tags ...string) error
}

// Option configures the task query service.
type Option func(*taskQueryServiceImpl)

// WithAggregateTTL overrides AggregateTTL.
func WithAggregateTTL(ttl time.Duration) Option {
	return func(s *taskQueryServiceImpl) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// taskQueryServiceImpl implements the TaskQueryService interface
type taskQueryServiceImpl struct {
	store  store.TaskStore
	cache  cache.Cache
	ttl    time.Duration
	logger *slog.Logger
}

// NewTaskQueryService creates a new TaskQueryService.
// It returns an error if any of the required dependencies are nil.
func NewTaskQueryService(
	taskStore store.TaskStore,
	aggregateCache cache.Cache,
	logger *slog.Logger,
	opts ...Option,
) (TaskQueryService, error) {
	if taskStore == nil {
		return nil, &TaskQueryServiceError{
			Operation: "create_service",
			Message:   "taskStore cannot be nil",
			Err:       ErrMissingDependency,
		}
	}
	if aggregateCache == nil {
		return nil, &TaskQueryServiceError{
			Operation: "create_service",
			Message:   "aggregateCache cannot be nil",
			Err:       ErrMissingDependency,
		}
	}

	if logger == nil {
		logger = slog.Default()
	}

	s := &taskQueryServiceImpl{
		store:  taskStore,
		cache:  aggregateCache,
		ttl:    AggregateTTL,
		logger: logger.With(slog.String("component", "task_query_service")),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// GetTasks implements TaskQueryService.GetTasks.
func (s *taskQueryServiceImpl) GetTasks(ctx context.Context, req domain.QueryRequest) domain.QueryResult {
	result, err := s.GetTasksStrict(ctx, req)
	if err != nil {
		s.log(ctx).Error("failed to get tasks, serving empty page",
			slog.String("error", redact.Error(err)),
			slog.Int("page", req.Page),
			slog.Int("per_page", req.PerPage))
		return domain.EmptyQueryResult()
	}
	return result
}

// GetTasksStrict implements TaskQueryService.GetTasksStrict.
func (s *taskQueryServiceImpl) GetTasksStrict(
	ctx context.Context,
	req domain.QueryRequest,
) (domain.QueryResult, error) {
	if err := req.Validate(); err != nil {
		return domain.EmptyQueryResult(), err
	}

	plan := query.Compose(req)
	page, err := s.store.ListPage(ctx, plan)
	if err != nil {
		return domain.EmptyQueryResult(), NewTaskQueryServiceError("get_tasks", "failed to read page", err)
	}

	rows := page.Rows
	if rows == nil {
		rows = []domain.Task{}
	}
	return domain.QueryResult{
		Rows:      rows,
		PageCount: query.PageCount(page.Total, req.PerPage),
	}, nil
}

// InvalidateTags implements TaskQueryService.InvalidateTags.
func (s *taskQueryServiceImpl) InvalidateTags(ctx context.Context, tags ...string) error {
	if len(tags) == 0 {
		return nil
	}
	if err := s.cache.Invalidate(ctx, tags...); err != nil {
		s.log(ctx).Error("failed to invalidate cache tags",
			slog.Any("tags", tags),
			slog.String("error", redact.Error(err)))
		return NewTaskQueryServiceError("invalidate", "failed to invalidate cache", err)
	}
	s.log(ctx).Info("invalidated cache tags", slog.Any("tags", tags))
	return nil
}

func (s *taskQueryServiceImpl) log(ctx context.Context) *slog.Logger {
	return logger.FromContextOrDefault(ctx, s.logger)
}
