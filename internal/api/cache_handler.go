package api

import (
	"log/slog"
	"net/http"

	"github.com/phrazzld/taskdeck-api/internal/api/middleware"
	"github.com/phrazzld/taskdeck-api/internal/api/shared"
	"github.com/phrazzld/taskdeck-api/internal/events"
	"github.com/phrazzld/taskdeck-api/internal/platform/logger"
	"github.com/phrazzld/taskdeck-api/internal/service"
)

// CacheHandler lets trusted writers drop cached aggregates, either by naming
// tags directly or by describing the mutation they just made.
type CacheHandler struct {
	tasks   service.TaskQueryService
	emitter events.EventEmitter
	logger  *slog.Logger
}

// NewCacheHandler creates a new CacheHandler
func NewCacheHandler(tasks service.TaskQueryService, emitter events.EventEmitter, logger *slog.Logger) *CacheHandler {
	if tasks == nil || emitter == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("tasks and emitter cannot be nil for CacheHandler")
	}
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for CacheHandler")
	}

	return &CacheHandler{
		tasks:   tasks,
		emitter: emitter,
		logger:  logger.With(slog.String("component", "cache_handler")),
	}
}

// Invalidate handles POST /api/cache/invalidate requests
func (h *CacheHandler) Invalidate(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	var req InvalidateRequest
	if err := shared.DecodeJSON(w, r, &req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid request format", err)
		return
	}
	if err := shared.ValidateRequest(&req); err != nil {
		HandleValidationError(w, r, err)
		return
	}

	if err := h.tasks.InvalidateTags(r.Context(), req.Tags...); err != nil {
		HandleAPIError(w, r, err, "Failed to invalidate cache")
		return
	}

	subject := ""
	if claims, ok := middleware.GetClaims(r); ok {
		subject = claims.Subject
	}
	log.Info("cache invalidated", slog.Any("tags", req.Tags), slog.String("subject", subject))

	shared.RespondWithJSON(w, r, http.StatusOK, InvalidateResponse{Invalidated: req.Tags})
}

// RecordMutation handles POST /api/tasks/mutations requests. The event is
// handed to the emitter and acknowledged with 202; invalidation may still
// be in flight when the response is written.
func (h *CacheHandler) RecordMutation(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	var req MutationRequest
	if err := shared.DecodeJSON(w, r, &req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid request format", err)
		return
	}
	if err := shared.ValidateRequest(&req); err != nil {
		HandleValidationError(w, r, err)
		return
	}

	event, err := events.NewTaskMutationEvent(req.Kind, req.TaskID, req.Before, req.After)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	if err := h.emitter.EmitEvent(r.Context(), event); err != nil {
		HandleAPIError(w, r, err, "Failed to record mutation")
		return
	}

	tags := service.TagsForMutation(event)
	log.Debug("mutation recorded",
		slog.String("event_id", event.ID.String()),
		slog.String("task_id", event.TaskID.String()),
		slog.String("kind", string(event.Kind)),
		slog.Any("tags", tags))

	if tags == nil {
		tags = []string{}
	}
	shared.RespondWithJSON(w, r, http.StatusAccepted, MutationResponse{EventID: event.ID, Tags: tags})
}
