package api

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/phrazzld/taskdeck-api/internal/api/shared"
	"github.com/phrazzld/taskdeck-api/internal/domain"
	"github.com/phrazzld/taskdeck-api/internal/platform/logger"
	"github.com/phrazzld/taskdeck-api/internal/service"
)

// TaskHandler serves the read-only task list and its aggregate counts.
type TaskHandler struct {
	tasks      service.TaskQueryService
	maxPerPage int
	logger     *slog.Logger
}

// NewTaskHandler creates a new TaskHandler. maxPerPage caps the per_page
// parameter; zero disables the cap.
func NewTaskHandler(tasks service.TaskQueryService, maxPerPage int, logger *slog.Logger) *TaskHandler {
	if tasks == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("tasks cannot be nil for TaskHandler")
	}
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for TaskHandler")
	}

	return &TaskHandler{
		tasks:      tasks,
		maxPerPage: maxPerPage,
		logger:     logger.With(slog.String("component", "task_handler")),
	}
}

// ListTasks handles GET /api/tasks requests
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	req, err := parseListRequest(r, h.maxPerPage, log)
	if err != nil {
		HandleValidationError(w, r, err)
		return
	}

	log.Debug("listing tasks",
		slog.Int("page", req.Page),
		slog.Int("per_page", req.PerPage),
		slog.String("sort", req.Sort),
		slog.Int("filters", len(req.Filters)))

	result, err := h.tasks.GetTasksStrict(r.Context(), req)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list tasks")
		return
	}

	rows := make([]TaskResponse, 0, len(result.Rows))
	for _, t := range result.Rows {
		rows = append(rows, toTaskResponse(t))
	}

	shared.RespondWithJSON(w, r, http.StatusOK, TaskListResponse{
		Rows:      rows,
		Page:      req.Page,
		PerPage:   req.PerPage,
		PageCount: result.PageCount,
	})
}

// CountTasks handles GET /api/tasks/count requests. Exactly one of the
// status or priority parameters selects the value to count.
func (h *TaskHandler) CountTasks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	status := strings.TrimSpace(q.Get("status"))
	priority := strings.TrimSpace(q.Get("priority"))

	var (
		resp CountResponse
		err  error
	)
	switch {
	case status != "" && priority == "":
		resp = CountResponse{Field: "status", Value: status}
		resp.Count, err = h.tasks.GetTaskCountByStatusStrict(r.Context(), domain.TaskStatus(status))
	case priority != "" && status == "":
		resp = CountResponse{Field: "priority", Value: priority}
		resp.Count, err = h.tasks.GetTaskCountByPriorityStrict(r.Context(), domain.TaskPriority(priority))
	default:
		HandleValidationError(w, r,
			domain.NewValidationError("status", "or priority is required, but not both", domain.ErrValidation))
		return
	}

	if err != nil {
		HandleAPIError(w, r, err, "Failed to count tasks")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, resp)
}

// StatusCounts handles GET /api/tasks/counts/status requests
func (h *TaskHandler) StatusCounts(w http.ResponseWriter, r *http.Request) {
	counts, err := h.tasks.GetTaskStatusCountsStrict(r.Context())
	if err != nil {
		HandleAPIError(w, r, err, "Failed to count tasks")
		return
	}

	out := make(map[string]int, len(counts))
	for k, v := range counts {
		out[string(k)] = v
	}
	shared.RespondWithJSON(w, r, http.StatusOK, CountsResponse{Field: "status", Counts: out})
}

// PriorityCounts handles GET /api/tasks/counts/priority requests
func (h *TaskHandler) PriorityCounts(w http.ResponseWriter, r *http.Request) {
	counts, err := h.tasks.GetTaskPriorityCountsStrict(r.Context())
	if err != nil {
		HandleAPIError(w, r, err, "Failed to count tasks")
		return
	}

	out := make(map[string]int, len(counts))
	for k, v := range counts {
		out[string(k)] = v
	}
	shared.RespondWithJSON(w, r, http.StatusOK, CountsResponse{Field: "priority", Counts: out})
}
