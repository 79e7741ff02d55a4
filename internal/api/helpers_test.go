package api

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/taskdeck-api/internal/api/middleware"
	"github.com/phrazzld/taskdeck-api/internal/cache"
	"github.com/phrazzld/taskdeck-api/internal/domain"
	"github.com/phrazzld/taskdeck-api/internal/events"
	"github.com/phrazzld/taskdeck-api/internal/platform/memory"
	"github.com/phrazzld/taskdeck-api/internal/service"
	"github.com/phrazzld/taskdeck-api/internal/service/auth"
	"github.com/stretchr/testify/require"
)

var fixtureBase = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fixtureTasks returns 8 done, 4 canceled and 3 todo tasks created one hour
// apart. Every third task is high priority, the rest low.
func fixtureTasks() []domain.Task {
	tasks := make([]domain.Task, 0, 15)
	for i := 0; i < 15; i++ {
		status := domain.TaskStatusTodo
		switch {
		case i < 8:
			status = domain.TaskStatusDone
		case i < 12:
			status = domain.TaskStatusCanceled
		}
		priority := domain.TaskPriorityLow
		if i%3 == 0 {
			priority = domain.TaskPriorityHigh
		}
		tasks = append(tasks, domain.Task{
			ID:        uuid.New(),
			Code:      fmt.Sprintf("TASK-%04d", i),
			Title:     fmt.Sprintf("task %02d", i),
			Status:    status,
			Priority:  priority,
			Label:     domain.TaskLabelFeature,
			CreatedAt: fixtureBase.Add(time.Duration(i) * time.Hour),
			UpdatedAt: fixtureBase.Add(time.Duration(i) * time.Hour),
		})
	}
	return tasks
}

// testServer wires the handlers over an in-memory store and cache the way
// the server does.
type testServer struct {
	store   *memory.TaskStore
	svc     service.TaskQueryService
	emitter *events.InMemoryEventEmitter
	router  http.Handler
}

func newTestServer(t *testing.T, svc service.TaskQueryService, jwtSvc auth.JWTService) *testServer {
	t.Helper()

	ts := &testServer{store: memory.NewTaskStore(discardLogger(), fixtureTasks()...)}
	if svc == nil {
		var err error
		svc, err = service.NewTaskQueryService(ts.store, cache.NewMemoryCache(), discardLogger())
		require.NoError(t, err)
	}
	ts.svc = svc

	ts.emitter = events.NewInMemoryEventEmitter(discardLogger())
	ts.emitter.RegisterHandler(service.NewInvalidationHandler(svc, discardLogger()))

	tasks := NewTaskHandler(svc, 100, discardLogger())
	caches := NewCacheHandler(svc, ts.emitter, discardLogger())
	authMw := middleware.NewAuthMiddleware(jwtSvc)

	r := chi.NewRouter()
	r.Use(middleware.Trace(discardLogger()))
	r.Route("/api", func(r chi.Router) {
		r.Get("/tasks", tasks.ListTasks)
		r.Get("/tasks/count", tasks.CountTasks)
		r.Get("/tasks/counts/status", tasks.StatusCounts)
		r.Get("/tasks/counts/priority", tasks.PriorityCounts)
		r.With(authMw.RequireScope(auth.ScopeCacheInvalidate)).Post("/cache/invalidate", caches.Invalidate)
		r.With(authMw.RequireScope(auth.ScopeTaskMutations)).Post("/tasks/mutations", caches.RecordMutation)
	})
	ts.router = r

	return ts
}

func (ts *testServer) do(t *testing.T, method, target, body, token string) *httptest.ResponseRecorder {
	t.Helper()

	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rd)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	ts.router.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), rr.Body.String())
	return v
}
