package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/phrazzld/taskdeck-api/internal/redact"
)

// shutdownTimeout bounds the graceful shutdown of the HTTP server and the
// invalidation workers.
const shutdownTimeout = 10 * time.Second

// serve starts the invalidation workers and the HTTP server, and blocks
// until ctx is cancelled or the server fails. In-flight requests and queued
// invalidations are drained before it returns.
func (app *application) serve(ctx context.Context) error {
	app.workers.Start()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", app.config.Server.Port),
		Handler:           app.router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		app.logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		app.logger.Info("shutdown signal received")
	case err := <-serverErr:
		if err != nil {
			app.logger.Error("server failed", "error", redact.Error(err))
			runErr = fmt.Errorf("server failed: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		app.logger.Error("server shutdown failed", "error", redact.Error(err))
		runErr = errors.Join(runErr, fmt.Errorf("server shutdown: %w", err))
	}

	app.jobQueue.Close()
	if err := app.workers.Stop(shutdownCtx); err != nil {
		app.logger.Error("invalidation workers did not drain", "error", redact.Error(err))
		runErr = errors.Join(runErr, err)
	}

	app.logger.Info("server stopped")
	return runErr
}
