// Package main is the entry point for the taskdeck API server.
// It wires the task read layer over PostgreSQL, the aggregate cache and the
// HTTP API, then serves until interrupted.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/phrazzld/taskdeck-api/internal/config"
	"github.com/phrazzld/taskdeck-api/internal/platform/logger"
	"github.com/phrazzld/taskdeck-api/internal/platform/postgres"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	migrateCmd := flag.String("migrate", "", fmt.Sprintf("run a migration command %v and exit", postgres.MigrationCommands))
	flag.Parse()

	if err := run(*configPath, *migrateCmd); err != nil {
		slog.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}

func run(configPath, migrateCmd string) error {
	cfg, err := config.LoadFile(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := logger.Setup(logger.LoggerConfig{Level: cfg.Server.LogLevel})
	if err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logger.WithLogger(ctx, log)

	if migrateCmd != "" {
		return runMigrations(ctx, cfg, migrateCmd, log)
	}

	app, err := newApplication(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer app.cleanup()

	return app.serve(ctx)
}

// runMigrations applies a goose command against the configured database.
func runMigrations(ctx context.Context, cfg *config.Config, command string, log *slog.Logger) error {
	db, err := setupAppDatabase(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := db.Close(); cerr != nil {
			log.Error("failed to close database", "error", cerr)
		}
	}()

	if err := postgres.Migrate(ctx, db, command, log); err != nil {
		return fmt.Errorf("migration %q failed: %w", command, err)
	}
	log.Info("migration completed", "command", command)
	return nil
}
