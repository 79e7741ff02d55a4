package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/phrazzld/taskdeck-api/internal/api/shared"
	"github.com/phrazzld/taskdeck-api/internal/domain"
	"github.com/phrazzld/taskdeck-api/internal/events"
	"github.com/phrazzld/taskdeck-api/internal/jobs"
	"github.com/phrazzld/taskdeck-api/internal/service"
	"github.com/phrazzld/taskdeck-api/internal/service/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapErrorToStatusCode(t *testing.T) {
	storageErr := service.NewTaskQueryServiceError("get_tasks", "failed to read page",
		errors.New("dial tcp 10.0.0.3:5432: connection refused"))

	tests := []struct {
		name           string
		err            error
		expectedStatus int
	}{
		{name: "nil error", err: nil, expectedStatus: http.StatusInternalServerError},
		{name: "authentication error", err: auth.ErrInvalidToken, expectedStatus: http.StatusUnauthorized},
		{
			name:           "wrapped authentication error",
			err:            fmt.Errorf("failed to authenticate: %w", auth.ErrExpiredToken),
			expectedStatus: http.StatusUnauthorized,
		},
		{name: "missing scope", err: auth.ErrInsufficientScope, expectedStatus: http.StatusForbidden},
		{
			name:           "validation error",
			err:            domain.NewValidationError("page", "must be at least 1", domain.ErrInvalidPagination),
			expectedStatus: http.StatusBadRequest,
		},
		{name: "invalid status", err: domain.ErrInvalidTaskStatus, expectedStatus: http.StatusBadRequest},
		{
			name:           "invalid event",
			err:            fmt.Errorf("%w: missing after state", events.ErrInvalidEvent),
			expectedStatus: http.StatusBadRequest,
		},
		{name: "storage unavailable", err: storageErr, expectedStatus: http.StatusServiceUnavailable},
		{name: "queue full", err: jobs.ErrQueueFull, expectedStatus: http.StatusServiceUnavailable},
		{name: "unknown error", err: errors.New("boom"), expectedStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expectedStatus, MapErrorToStatusCode(tt.err))
		})
	}
}

func TestGetSafeErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "nil", err: nil, want: "An unexpected error occurred"},
		{name: "expired", err: auth.ErrExpiredToken, want: "Token expired"},
		{name: "invalid token", err: auth.ErrInvalidToken, want: "Invalid token"},
		{
			name: "validation",
			err:  domain.NewValidationError("per_page", "must be at least 1", domain.ErrInvalidPagination),
			want: "Invalid per_page: must be at least 1",
		},
		{
			name: "storage",
			err:  service.NewTaskQueryServiceError("count", "failed", errors.New("password=hunter22 rejected")),
			want: "Task storage is unavailable",
		},
		{name: "unknown", err: errors.New("/var/lib/postgres/data corrupted"), want: "An unexpected error occurred"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := GetSafeErrorMessage(tt.err)
			assert.Equal(t, tt.want, got)
			assert.NotContains(t, got, "hunter22")
		})
	}
}

func TestSanitizeValidationError(t *testing.T) {
	type params struct {
		PerPage  int    `validate:"min=1"`
		Operator string `validate:"omitempty,oneof=and or"`
	}

	err := validator.New().Struct(params{PerPage: 0})
	require.Error(t, err)
	assert.Equal(t, "Invalid per_page: too small", SanitizeValidationError(err))

	err = validator.New().Struct(params{PerPage: 1, Operator: "xor"})
	require.Error(t, err)
	assert.Equal(t, "Invalid operator: invalid value", SanitizeValidationError(err))

	assert.Equal(t, "Validation error", SanitizeValidationError(errors.New("whatever")))
}

func TestHandleAPIError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		defaultMsg string
		wantStatus int
		wantMsg    string
	}{
		{
			name:       "server error uses default message",
			err:        errors.New("pq: relation tasks does not exist"),
			defaultMsg: "Failed to list tasks",
			wantStatus: http.StatusInternalServerError,
			wantMsg:    "Failed to list tasks",
		},
		{
			name:       "client error keeps safe message",
			err:        domain.NewValidationError("page", "must be at least 1", domain.ErrInvalidPagination),
			defaultMsg: "Failed to list tasks",
			wantStatus: http.StatusBadRequest,
			wantMsg:    "Invalid page: must be at least 1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
			req = req.WithContext(shared.SetTraceID(req.Context(), "trace-1"))
			rr := httptest.NewRecorder()

			HandleAPIError(rr, req, tt.err, tt.defaultMsg)

			assert.Equal(t, tt.wantStatus, rr.Code)
			var body shared.ErrorResponse
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
			assert.Equal(t, tt.wantMsg, body.Error)
			assert.Equal(t, "trace-1", body.TraceID)
			assert.NotContains(t, rr.Body.String(), "relation tasks")
		})
	}
}

func TestToSnake(t *testing.T) {
	assert.Equal(t, "per_page", toSnake("PerPage"))
	assert.Equal(t, "page", toSnake("Page"))
	assert.Equal(t, "tags", toSnake("Tags"))
}
