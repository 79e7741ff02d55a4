package shared

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/phrazzld/taskdeck-api/internal/platform/logger"
	"github.com/phrazzld/taskdeck-api/internal/redact"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// taskPage mirrors the body of GET /api/tasks.
type taskPage struct {
	Rows      []taskRow `json:"rows"`
	Page      int       `json:"page"`
	PerPage   int       `json:"per_page"`
	RowCount  int       `json:"row_count"`
	PageCount int       `json:"page_count"`
}

type taskRow struct {
	Code   string `json:"code"`
	Title  string `json:"title"`
	Status string `json:"status"`
}

// countBody mirrors the body of GET /api/tasks/count.
type countBody struct {
	Field string `json:"field"`
	Value string `json:"value"`
	Count int    `json:"count"`
}

// newTracedRequest returns a request carrying traceID (when non-empty) and a
// debug logger that writes into the returned buffer.
func newTracedRequest(target, traceID string) (*http.Request, *strings.Builder) {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	ctx := req.Context()
	if traceID != "" {
		ctx = SetTraceID(ctx, traceID)
	}

	var logBuf strings.Builder
	log := slog.New(slog.NewTextHandler(&logBuf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return req.WithContext(logger.WithLogger(ctx, log)), &logBuf
}

func TestRespondWithJSON(t *testing.T) {
	tests := []struct {
		name   string
		status int
		data   interface{}
		want   string
	}{
		{
			name:   "task page",
			status: http.StatusOK,
			data: taskPage{
				Rows: []taskRow{
					{Code: "TASK-0001", Title: "Fix login", Status: "todo"},
					{Code: "TASK-0002", Title: "Ship docs", Status: "done"},
				},
				Page: 2, PerPage: 2, RowCount: 5, PageCount: 3,
			},
			want: `{"rows":[{"code":"TASK-0001","title":"Fix login","status":"todo"},` +
				`{"code":"TASK-0002","title":"Ship docs","status":"done"}],` +
				`"page":2,"per_page":2,"row_count":5,"page_count":3}`,
		},
		{
			name:   "page past the end keeps an empty row list",
			status: http.StatusOK,
			data:   taskPage{Rows: []taskRow{}, Page: 9, PerPage: 10, RowCount: 5, PageCount: 1},
			want:   `{"rows":[],"page":9,"per_page":10,"row_count":5,"page_count":1}`,
		},
		{
			name:   "single count",
			status: http.StatusOK,
			data:   countBody{Field: "status", Value: "done", Count: 4},
			want:   `{"field":"status","value":"done","count":4}`,
		},
		{
			name:   "grouped counts",
			status: http.StatusOK,
			data: map[string]interface{}{
				"field":  "priority",
				"counts": map[string]int{"low": 3, "medium": 0, "high": 1},
			},
			want: `{"field":"priority","counts":{"high":1,"low":3,"medium":0}}`,
		},
		{
			name:   "accepted mutation",
			status: http.StatusAccepted,
			data:   map[string]interface{}{"tags": []string{"status:done", "status-counts"}},
			want:   `{"tags":["status:done","status-counts"]}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, _ := newTracedRequest("/api/tasks", "")
			rr := httptest.NewRecorder()

			RespondWithJSON(rr, req, tt.status, tt.data)

			assert.Equal(t, tt.status, rr.Code)
			assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
			assert.JSONEq(t, tt.want, rr.Body.String())
			assert.True(t, strings.HasSuffix(rr.Body.String(), "\n"))
		})
	}
}

func TestRespondWithJSONLogsEncodingFailure(t *testing.T) {
	req, logBuf := newTracedRequest("/api/tasks/counts/status", "")
	rr := httptest.NewRecorder()

	// Channels have no JSON encoding.
	RespondWithJSON(rr, req, http.StatusOK, map[string]interface{}{"counts": make(chan int)})

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.Empty(t, rr.Body.String())
	assert.Contains(t, logBuf.String(), "failed to encode JSON response")
}

func TestRespondWithError(t *testing.T) {
	t.Run("echoes the trace id", func(t *testing.T) {
		req, _ := newTracedRequest("/api/tasks?page=0", "req-7f3a")
		rr := httptest.NewRecorder()

		RespondWithError(rr, req, http.StatusBadRequest, "Invalid page: must be at least 1")

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		var resp ErrorResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Equal(t, "Invalid page: must be at least 1", resp.Error)
		assert.Equal(t, "req-7f3a", resp.TraceID)
	})

	t.Run("omits a missing trace id", func(t *testing.T) {
		req, _ := newTracedRequest("/api/cache/invalidate", "")
		rr := httptest.NewRecorder()

		RespondWithError(rr, req, http.StatusUnauthorized, "Missing bearer token")

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.JSONEq(t, `{"error":"Missing bearer token"}`, rr.Body.String())
	})
}

func TestRespondWithErrorAndLog(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		message   string
		err       error
		opts      []ResponseOption
		wantLevel string
	}{
		{
			name:      "store unavailable",
			status:    http.StatusServiceUnavailable,
			message:   "Task store unavailable",
			err:       errors.New("dial tcp: connection refused"),
			wantLevel: "ERROR",
		},
		{
			name:      "invalid filter",
			status:    http.StatusBadRequest,
			message:   "Invalid status: is not a known task status",
			err:       errors.New("invalid task status"),
			wantLevel: "DEBUG",
		},
		{
			name:      "rejected token raised to warn",
			status:    http.StatusUnauthorized,
			message:   "Invalid token",
			err:       errors.New("token signature is invalid"),
			opts:      []ResponseOption{WithElevatedLogLevel()},
			wantLevel: "WARN",
		},
		{
			name:      "too many requests",
			status:    http.StatusTooManyRequests,
			message:   "Too many requests",
			err:       errors.New("limit reached"),
			wantLevel: "WARN",
		},
		{
			name:      "no cause",
			status:    http.StatusNotFound,
			message:   "Not found",
			wantLevel: "DEBUG",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, logBuf := newTracedRequest("/api/tasks/count", "req-42")
			rr := httptest.NewRecorder()

			RespondWithErrorAndLog(rr, req, tt.status, tt.message, tt.err, tt.opts...)

			assert.Equal(t, tt.status, rr.Code)
			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
			assert.Equal(t, tt.message, resp.Error)
			assert.Equal(t, "req-42", resp.TraceID)

			logOutput := logBuf.String()
			assert.Contains(t, logOutput, "level="+tt.wantLevel)
			assert.Contains(t, logOutput, "trace_id=req-42")
			assert.Contains(t, logOutput, "path=/api/tasks/count")
			if tt.err != nil {
				assert.Contains(t, logOutput, "error_type=")
			} else {
				assert.NotContains(t, logOutput, "error_type=")
			}
		})
	}
}

func TestRespondWithErrorAndLogRedactsCause(t *testing.T) {
	req, logBuf := newTracedRequest("/api/tasks", "req-9")
	rr := httptest.NewRecorder()

	cause := fmt.Errorf("count failed: %w", errors.New(
		"SELECT count(*) FROM tasks WHERE status = $1 via postgres://taskdeck:hunter2@db:5432"))
	RespondWithErrorAndLog(rr, req, http.StatusServiceUnavailable, "Task store unavailable", cause)

	assert.JSONEq(t, `{"error":"Task store unavailable","trace_id":"req-9"}`, rr.Body.String())

	logOutput := logBuf.String()
	assert.Contains(t, logOutput, redact.RedactedSQLPlaceholder)
	assert.NotContains(t, logOutput, "FROM tasks")
	assert.NotContains(t, logOutput, "hunter2")
}

func TestWithElevatedLogLevel(t *testing.T) {
	var opts responseOptions
	WithElevatedLogLevel()(&opts)
	assert.True(t, opts.elevateLogLevel)
}
