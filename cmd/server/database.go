package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/taskdeck-api/internal/config"
	"github.com/phrazzld/taskdeck-api/internal/redact"

	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver
)

// setupAppDatabase opens the task database, applies the pool settings and
// verifies connectivity.
func setupAppDatabase(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*sql.DB, error) {
	log := logger.With(slog.String("component", "database"))
	log.Info("setting up database connection")

	db, err := sql.Open("pgx", cfg.Database.URL)
	if err != nil {
		log.Error("failed to open database connection", "error", redact.Error(err))
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.Database.ConnMaxLifetimeMinutes) * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		log.Error("failed to ping database", "error", redact.Error(err))
		if closeErr := db.Close(); closeErr != nil {
			log.Error("failed to close database after ping failure", "error", redact.Error(closeErr))
		}
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Info("database connection established",
		slog.Int("max_open_conns", cfg.Database.MaxOpenConns),
		slog.Int("max_idle_conns", cfg.Database.MaxIdleConns))
	return db, nil
}
