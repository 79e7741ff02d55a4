package mocks

import (
	"context"
	"sync"

	"github.com/phrazzld/taskdeck-api/internal/domain"
	"github.com/phrazzld/taskdeck-api/internal/service"
)

// MockTaskQueryService implements service.TaskQueryService for testing.
// The plain methods delegate to the Strict ones and degrade on error, the
// same way the real service does. Every request passed to GetTasksStrict and
// every invalidation is recorded.
type MockTaskQueryService struct {
	GetTasksFn        func(ctx context.Context, req domain.QueryRequest) (domain.QueryResult, error)
	CountByStatusFn   func(ctx context.Context, status domain.TaskStatus) (int, error)
	CountByPriorityFn func(ctx context.Context, priority domain.TaskPriority) (int, error)
	StatusCountsFn    func(ctx context.Context) (map[domain.TaskStatus]int, error)
	PriorityCountsFn  func(ctx context.Context) (map[domain.TaskPriority]int, error)
	InvalidateTagsFn  func(ctx context.Context, tags ...string) error

	mu          sync.Mutex
	Requests    []domain.QueryRequest
	Invalidated [][]string
}

var _ service.TaskQueryService = (*MockTaskQueryService)(nil)

// GetTasks implements service.TaskQueryService
func (m *MockTaskQueryService) GetTasks(ctx context.Context, req domain.QueryRequest) domain.QueryResult {
	res, err := m.GetTasksStrict(ctx, req)
	if err != nil {
		return domain.EmptyQueryResult()
	}
	return res
}

// GetTasksStrict implements service.TaskQueryService
func (m *MockTaskQueryService) GetTasksStrict(ctx context.Context, req domain.QueryRequest) (domain.QueryResult, error) {
	m.mu.Lock()
	m.Requests = append(m.Requests, req)
	m.mu.Unlock()

	if m.GetTasksFn != nil {
		return m.GetTasksFn(ctx, req)
	}
	return domain.EmptyQueryResult(), nil
}

// GetTaskCountByStatus implements service.TaskQueryService
func (m *MockTaskQueryService) GetTaskCountByStatus(ctx context.Context, status domain.TaskStatus) int {
	n, _ := m.GetTaskCountByStatusStrict(ctx, status)
	return n
}

// GetTaskCountByStatusStrict implements service.TaskQueryService
func (m *MockTaskQueryService) GetTaskCountByStatusStrict(ctx context.Context, status domain.TaskStatus) (int, error) {
	if m.CountByStatusFn != nil {
		return m.CountByStatusFn(ctx, status)
	}
	return 0, nil
}

// GetTaskCountByPriority implements service.TaskQueryService
func (m *MockTaskQueryService) GetTaskCountByPriority(ctx context.Context, priority domain.TaskPriority) int {
	n, _ := m.GetTaskCountByPriorityStrict(ctx, priority)
	return n
}

// GetTaskCountByPriorityStrict implements service.TaskQueryService
func (m *MockTaskQueryService) GetTaskCountByPriorityStrict(ctx context.Context, priority domain.TaskPriority) (int, error) {
	if m.CountByPriorityFn != nil {
		return m.CountByPriorityFn(ctx, priority)
	}
	return 0, nil
}

// GetTaskStatusCounts implements service.TaskQueryService
func (m *MockTaskQueryService) GetTaskStatusCounts(ctx context.Context) map[domain.TaskStatus]int {
	counts, err := m.GetTaskStatusCountsStrict(ctx)
	if err != nil {
		return map[domain.TaskStatus]int{}
	}
	return counts
}

// GetTaskStatusCountsStrict implements service.TaskQueryService
func (m *MockTaskQueryService) GetTaskStatusCountsStrict(ctx context.Context) (map[domain.TaskStatus]int, error) {
	if m.StatusCountsFn != nil {
		return m.StatusCountsFn(ctx)
	}
	return map[domain.TaskStatus]int{}, nil
}

// GetTaskPriorityCounts implements service.TaskQueryService
func (m *MockTaskQueryService) GetTaskPriorityCounts(ctx context.Context) map[domain.TaskPriority]int {
	counts, err := m.GetTaskPriorityCountsStrict(ctx)
	if err != nil {
		return map[domain.TaskPriority]int{}
	}
	return counts
}

// GetTaskPriorityCountsStrict implements service.TaskQueryService
func (m *MockTaskQueryService) GetTaskPriorityCountsStrict(ctx context.Context) (map[domain.TaskPriority]int, error) {
	if m.PriorityCountsFn != nil {
		return m.PriorityCountsFn(ctx)
	}
	return map[domain.TaskPriority]int{}, nil
}

// InvalidateTags implements service.TaskQueryService
func (m *MockTaskQueryService) InvalidateTags(ctx context.Context, tags ...string) error {
	m.mu.Lock()
	m.Invalidated = append(m.Invalidated, tags)
	m.mu.Unlock()

	if m.InvalidateTagsFn != nil {
		return m.InvalidateTagsFn(ctx, tags...)
	}
	return nil
}

// LastRequest returns the most recent request passed to GetTasksStrict.
func (m *MockTaskQueryService) LastRequest() (domain.QueryRequest, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Requests) == 0 {
		return domain.QueryRequest{}, false
	}
	return m.Requests[len(m.Requests)-1], true
}
