package memory

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/phrazzld/taskdeck-api/internal/domain"
	"github.com/phrazzld/taskdeck-api/internal/platform/logger"
	"github.com/phrazzld/taskdeck-api/internal/query"
	"github.com/phrazzld/taskdeck-api/internal/store"
)

// TaskStore keeps tasks in a map guarded by a RWMutex.
type TaskStore struct {
	mu     sync.RWMutex
	tasks  map[uuid.UUID]domain.Task
	logger *slog.Logger
}

// NewTaskStore returns a store holding the given tasks.
func NewTaskStore(logger *slog.Logger, tasks ...domain.Task) *TaskStore {
	if logger == nil {
		logger = slog.Default()
	}
	s := &TaskStore{
		tasks:  make(map[uuid.UUID]domain.Task, len(tasks)),
		logger: logger.With(slog.String("component", "memory_task_store")),
	}
	for _, t := range tasks {
		s.tasks[t.ID] = t
	}
	return s
}

var _ store.TaskStore = (*TaskStore)(nil)

// Put inserts or replaces tasks by id. Tasks failing validation are rejected.
func (s *TaskStore) Put(tasks ...domain.Task) error {
	for i := range tasks {
		if err := tasks[i].Validate(); err != nil {
			return store.NewStoreError("task", "put", "invalid task "+tasks[i].ID.String(), err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range tasks {
		s.tasks[t.ID] = t
	}
	return nil
}

// Delete removes the task with the given id.
func (s *TaskStore) Delete(id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tasks[id]; !ok {
		return store.ErrTaskNotFound
	}
	delete(s.tasks, id)
	return nil
}

// Len returns the number of stored tasks.
func (s *TaskStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tasks)
}

// ListPage implements store.TaskStore.ListPage. The read lock is held for
// the whole call so the page and the total come from the same state.
func (s *TaskStore) ListPage(ctx context.Context, plan query.Plan) (*store.TaskPage, error) {
	if err := ctx.Err(); err != nil {
		return nil, store.NewStoreError("task", "list", "context done", err)
	}
	if plan.Limit < 1 {
		return nil, store.NewStoreError("task", "list", "limit must be positive", domain.ErrInvalidPagination)
	}

	orderBy := plan.OrderBy
	if len(orderBy) == 0 {
		orderBy = query.DefaultSort
	}

	s.mu.RLock()
	matched := make([]domain.Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		if plan.Where == nil || plan.Where.Matches(t) {
			matched = append(matched, t)
		}
	}
	s.mu.RUnlock()

	query.SortTasks(matched, orderBy)

	page := &store.TaskPage{Rows: []domain.Task{}, Total: len(matched)}
	if plan.Offset < len(matched) {
		end := min(plan.Offset+plan.Limit, len(matched))
		page.Rows = append(page.Rows, matched[plan.Offset:end]...)
	}

	logger.FromContextOrDefault(ctx, s.logger).Debug("listed tasks",
		slog.Int("rows", len(page.Rows)),
		slog.Int("total", page.Total))

	return page, nil
}

// CountByColumn implements store.TaskStore.CountByColumn.
func (s *TaskStore) CountByColumn(
	ctx context.Context,
	col query.Column,
	where query.Expr,
) (map[string]int, error) {
	if err := ctx.Err(); err != nil {
		return nil, store.NewStoreError("task", "count", "context done", err)
	}
	if !col.Selectable() {
		return nil, store.NewStoreError("task", "count", "column "+col.Name+" cannot be grouped", store.ErrQueryFailed)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[string]int)
	for _, t := range s.tasks {
		if where != nil && !where.Matches(t) {
			continue
		}
		counts[col.Value(t)]++
	}
	return counts, nil
}
