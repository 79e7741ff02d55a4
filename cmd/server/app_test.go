package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskdeck-api/internal/cache"
	"github.com/phrazzld/taskdeck-api/internal/config"
	"github.com/phrazzld/taskdeck-api/internal/domain"
	"github.com/phrazzld/taskdeck-api/internal/platform/memory"
	"github.com/phrazzld/taskdeck-api/internal/service/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Port: 8080, LogLevel: "info", MaxPerPage: 100},
		Cache:  config.CacheConfig{Backend: "memory", TTLSeconds: 900},
		Auth: config.AuthConfig{
			JWTSecret:            "server-test-secret-that-is-long-enough",
			TokenLifetimeMinutes: 5,
		},
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testTasks() []domain.Task {
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	tasks := make([]domain.Task, 0, 6)
	for i := 0; i < 6; i++ {
		status := domain.TaskStatusTodo
		if i < 4 {
			status = domain.TaskStatusDone
		}
		tasks = append(tasks, domain.Task{
			ID:        uuid.New(),
			Code:      fmt.Sprintf("TASK-%04d", i),
			Title:     fmt.Sprintf("task %02d", i),
			Status:    status,
			Priority:  domain.TaskPriorityLow,
			Label:     domain.TaskLabelFeature,
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
			UpdatedAt: base.Add(time.Duration(i) * time.Hour),
		})
	}
	return tasks
}

func newTestApp(t *testing.T) (*application, *memory.TaskStore) {
	t.Helper()

	taskStore := memory.NewTaskStore(discardLogger(), testTasks()...)
	app, err := buildApplication(testConfig(), discardLogger(), appDependencies{
		TaskStore: taskStore,
		Cache:     cache.NewMemoryCache(),
	})
	require.NoError(t, err)
	t.Cleanup(app.cleanup)
	return app, taskStore
}

func doRequest(t *testing.T, h http.Handler, method, target, body, token string) *httptest.ResponseRecorder {
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
	h.ServeHTTP(rr, req)
	return rr
}

func TestBuildApplicationRejectsWeakSecret(t *testing.T) {
	cfg := testConfig()
	cfg.Auth.JWTSecret = "short"

	_, err := buildApplication(cfg, discardLogger(), appDependencies{
		TaskStore: memory.NewTaskStore(discardLogger()),
		Cache:     cache.NewMemoryCache(),
	})
	assert.Error(t, err)
}

func TestBuildApplicationRequiresStore(t *testing.T) {
	_, err := buildApplication(testConfig(), discardLogger(), appDependencies{
		Cache: cache.NewMemoryCache(),
	})
	assert.Error(t, err)
}

func TestSetupAggregateCache(t *testing.T) {
	cfg := testConfig()
	c, client, err := setupAggregateCache(context.Background(), cfg, discardLogger())
	require.NoError(t, err)
	assert.IsType(t, &cache.MemoryCache{}, c)
	assert.Nil(t, client)

	cfg.Cache.Backend = "memcached"
	_, _, err = setupAggregateCache(context.Background(), cfg, discardLogger())
	assert.Error(t, err)

	cfg.Cache.Backend = "redis"
	cfg.Cache.RedisAddr = ""
	_, _, err = setupAggregateCache(context.Background(), cfg, discardLogger())
	assert.Error(t, err)
}

func TestHealth(t *testing.T) {
	app, _ := newTestApp(t)

	rr := doRequest(t, app.router, http.MethodGet, "/health", "", "")
	require.Equal(t, http.StatusOK, rr.Code)

	var resp healthResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
}

func TestRouterServesTaskEndpoints(t *testing.T) {
	app, _ := newTestApp(t)

	rr := doRequest(t, app.router, http.MethodGet, "/api/tasks?per_page=4", "", "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.NotEmpty(t, rr.Header().Get("Content-Type"))

	var list struct {
		Rows      []json.RawMessage `json:"rows"`
		PageCount int               `json:"page_count"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &list))
	assert.Len(t, list.Rows, 4)
	assert.Equal(t, 2, list.PageCount)

	rr = doRequest(t, app.router, http.MethodGet, "/api/tasks/count?status=done", "", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"field":"status","value":"done","count":4}`, rr.Body.String())

	rr = doRequest(t, app.router, http.MethodGet, "/api/nope", "", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestRouterRequiresScopes(t *testing.T) {
	app, _ := newTestApp(t)

	tok, err := app.jwtService.GenerateToken(context.Background(), "writer", auth.ScopeCacheInvalidate)
	require.NoError(t, err)

	rr := doRequest(t, app.router, http.MethodPost, "/api/cache/invalidate", `{"tags":["status-counts"]}`, "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = doRequest(t, app.router, http.MethodPost, "/api/tasks/mutations",
		fmt.Sprintf(`{"kind":"deleted","task_id":%q,"before":{"status":"done","priority":"low"}}`, uuid.New()), tok)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = doRequest(t, app.router, http.MethodPost, "/api/cache/invalidate", `{"tags":["status-counts"]}`, tok)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestMutationInvalidatesCountsAsynchronously(t *testing.T) {
	app, taskStore := newTestApp(t)
	app.workers.Start()
	t.Cleanup(func() {
		app.jobQueue.Close()
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = app.workers.Stop(ctx)
	})

	// countDone returns -1 on any failure; it also runs inside Eventually.
	countDone := func() int {
		req := httptest.NewRequest(http.MethodGet, "/api/tasks/count?status=done", nil)
		rr := httptest.NewRecorder()
		app.router.ServeHTTP(rr, req)
		if rr.Code != http.StatusOK {
			return -1
		}
		var resp struct {
			Count int `json:"count"`
		}
		if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
			return -1
		}
		return resp.Count
	}
	require.Equal(t, 4, countDone())

	// A write the cache has not heard about yet stays invisible.
	task := testTasks()[0]
	task.ID = uuid.New()
	require.NoError(t, taskStore.Put(task))
	require.Equal(t, 4, countDone())

	tok, err := app.jwtService.GenerateToken(context.Background(), "writer", auth.ScopeTaskMutations)
	require.NoError(t, err)
	body := fmt.Sprintf(`{"kind":"created","task_id":%q,"after":{"status":"done","priority":"low"}}`, task.ID)
	rr := doRequest(t, app.router, http.MethodPost, "/api/tasks/mutations", body, tok)
	require.Equal(t, http.StatusAccepted, rr.Code, rr.Body.String())

	assert.Eventually(t, func() bool { return countDone() == 5 }, 2*time.Second, 10*time.Millisecond)
}

func TestMetricsEndpoint(t *testing.T) {
	app, _ := newTestApp(t)

	rr := doRequest(t, app.router, http.MethodGet, "/api/tasks/counts/status", "", "")
	require.Equal(t, http.StatusOK, rr.Code)

	tok, err := app.jwtService.GenerateToken(context.Background(), "ops", auth.ScopeCacheInvalidate)
	require.NoError(t, err)
	rr = doRequest(t, app.router, http.MethodPost, "/api/cache/invalidate",
		`{"tags":["status:done","sprint-41","sprint-42"]}`, tok)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	rr = doRequest(t, app.router, http.MethodGet, "/metrics", "", "")
	require.Equal(t, http.StatusOK, rr.Code)

	body := rr.Body.String()
	assert.Contains(t, body, `taskdeck_cache_misses_total{backend="memory"} 1`)
	assert.Contains(t, body, `taskdeck_cache_stores_total{backend="memory"} 1`)
	assert.Contains(t, body,
		`taskdeck_http_requests_total{method="GET",route="/api/tasks/counts/status",status="200"} 1`)
	assert.Contains(t, body, `taskdeck_cache_invalidations_total{backend="memory",tag_family="status"} 1`)
	assert.Contains(t, body, `taskdeck_cache_invalidations_total{backend="memory",tag_family="other"} 2`)
	assert.NotContains(t, body, "sprint-41")
	assert.Contains(t, body, "go_goroutines")
}
