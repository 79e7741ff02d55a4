package main

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/phrazzld/taskdeck-api/internal/api"
	apimw "github.com/phrazzld/taskdeck-api/internal/api/middleware"
	"github.com/phrazzld/taskdeck-api/internal/api/shared"
	"github.com/phrazzld/taskdeck-api/internal/redact"
	"github.com/phrazzld/taskdeck-api/internal/service/auth"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// setupRouter creates and configures the HTTP router with all routes and
// middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(apimw.Trace(app.logger))
	r.Use(app.metrics.middleware)

	authMiddleware := apimw.NewAuthMiddleware(app.jwtService)
	taskHandler := api.NewTaskHandler(app.queries, app.config.Server.MaxPerPage, app.logger)
	cacheHandler := api.NewCacheHandler(app.queries, app.emitter, app.logger)

	r.Route("/api", func(r chi.Router) {
		r.Get("/tasks", taskHandler.ListTasks)
		r.Get("/tasks/count", taskHandler.CountTasks)
		r.Get("/tasks/counts/status", taskHandler.StatusCounts)
		r.Get("/tasks/counts/priority", taskHandler.PriorityCounts)

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.RequireScope(auth.ScopeTaskMutations))
			r.Post("/tasks/mutations", cacheHandler.RecordMutation)
		})
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.RequireScope(auth.ScopeCacheInvalidate))
			r.Post("/cache/invalidate", cacheHandler.Invalidate)
		})
	})

	r.Get("/health", app.handleHealth)
	r.Handle("/metrics", promhttp.HandlerFor(app.registry, promhttp.HandlerOpts{}))

	return r
}

// healthResponse is the body of GET /health.
type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// handleHealth reports whether the database and the shared cache answer.
func (app *application) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	resp := healthResponse{Status: "ok", Checks: map[string]string{}}
	status := http.StatusOK

	if app.db != nil {
		if err := app.db.PingContext(ctx); err != nil {
			app.logger.Warn("database health check failed", "error", redact.Error(err))
			resp.Checks["database"] = "unavailable"
			status = http.StatusServiceUnavailable
		} else {
			resp.Checks["database"] = "ok"
		}
	}
	if app.redis != nil {
		if err := app.redis.Ping(ctx).Err(); err != nil {
			app.logger.Warn("redis health check failed", "error", redact.Error(err))
			resp.Checks["cache"] = "unavailable"
			status = http.StatusServiceUnavailable
		} else {
			resp.Checks["cache"] = "ok"
		}
	}

	if status != http.StatusOK {
		resp.Status = "degraded"
	}
	shared.RespondWithJSON(w, r, status, resp)
}
