package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/phrazzld/taskdeck-api/internal/cache"
	"github.com/phrazzld/taskdeck-api/internal/config"
	"github.com/phrazzld/taskdeck-api/internal/events"
	"github.com/phrazzld/taskdeck-api/internal/jobs"
	"github.com/phrazzld/taskdeck-api/internal/platform/postgres"
	"github.com/phrazzld/taskdeck-api/internal/redact"
	"github.com/phrazzld/taskdeck-api/internal/service"
	"github.com/phrazzld/taskdeck-api/internal/service/auth"
	"github.com/phrazzld/taskdeck-api/internal/store"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
)

// invalidationQueueSize bounds the mutation notifications waiting for a worker.
const invalidationQueueSize = 256

// application holds the wired components of a running server.
type application struct {
	config   *config.Config
	logger   *slog.Logger
	registry *prometheus.Registry

	// db and redis are nil when the backing store or cache is in-process.
	db    *sql.DB
	redis redis.UniversalClient

	queries    service.TaskQueryService
	emitter    *events.InMemoryEventEmitter
	jobQueue   *jobs.Queue
	workers    *jobs.WorkerPool
	jwtService auth.JWTService
	metrics    *httpMetrics
	router     http.Handler
}

// appDependencies are the storage components buildApplication wires the
// services over.
type appDependencies struct {
	TaskStore store.TaskStore
	Cache     cache.Cache
	DB        *sql.DB
	Redis     redis.UniversalClient
}

// newApplication connects to PostgreSQL and the configured cache backend and
// wires the services over them.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*application, error) {
	db, err := setupAppDatabase(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	aggregateCache, redisClient, err := setupAggregateCache(ctx, cfg, logger)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	app, err := buildApplication(cfg, logger, appDependencies{
		TaskStore: postgres.NewPostgresTaskStore(db, logger),
		Cache:     aggregateCache,
		DB:        db,
		Redis:     redisClient,
	})
	if err != nil {
		_ = db.Close()
		if redisClient != nil {
			_ = redisClient.Close()
		}
		return nil, err
	}
	return app, nil
}

// setupAggregateCache builds the cache selected by cfg.Cache.Backend. The
// Redis client is returned so it can be closed on shutdown.
func setupAggregateCache(
	ctx context.Context,
	cfg *config.Config,
	logger *slog.Logger,
) (cache.Cache, redis.UniversalClient, error) {
	switch cfg.Cache.Backend {
	case "redis":
		client, err := cache.NewRedisClient(ctx, cache.RedisOptions{
			Addr:     cfg.Cache.RedisAddr,
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
		})
		if err != nil {
			logger.Error("failed to connect to redis", "error", redact.Error(err))
			return nil, nil, fmt.Errorf("failed to set up redis cache: %w", err)
		}
		logger.Info("using redis aggregate cache", "key_prefix", cfg.Cache.KeyPrefix)
		return cache.NewRedisCache(client, cfg.Cache.KeyPrefix, logger), client, nil
	case "memory", "":
		logger.Info("using in-memory aggregate cache")
		return cache.NewMemoryCache(), nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown cache backend %q", cfg.Cache.Backend)
	}
}

// buildApplication wires the query service, the invalidation pipeline and
// the HTTP router over deps.
func buildApplication(cfg *config.Config, logger *slog.Logger, deps appDependencies) (*application, error) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	backend := cfg.Cache.Backend
	if backend == "" {
		backend = "memory"
	}
	cacheMetrics := cache.NewMetrics(registry).WithTagFamilies(service.TagFamilies()...)
	aggregateCache := cache.Instrument(deps.Cache, backend, cacheMetrics)

	queries, err := service.NewTaskQueryService(
		deps.TaskStore,
		aggregateCache,
		logger,
		service.WithAggregateTTL(time.Duration(cfg.Cache.TTLSeconds)*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create task query service: %w", err)
	}

	jwtService, err := auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to create JWT service: %w", err)
	}

	// Mutation notifications are acknowledged immediately; the tag
	// invalidation runs on the worker pool.
	jobQueue := jobs.NewQueue(invalidationQueueSize, logger)
	workers := jobs.NewWorkerPool(jobQueue, jobs.DefaultWorkerPoolConfig(), logger)
	emitter := events.NewInMemoryEventEmitter(logger)
	emitter.RegisterHandler(jobs.NewAsyncHandler(
		service.NewInvalidationHandler(queries, logger),
		jobQueue,
		logger,
	))

	app := &application{
		config:     cfg,
		logger:     logger,
		registry:   registry,
		db:         deps.DB,
		redis:      deps.Redis,
		queries:    queries,
		emitter:    emitter,
		jobQueue:   jobQueue,
		workers:    workers,
		jwtService: jwtService,
		metrics:    newHTTPMetrics(registry),
	}
	app.router = app.setupRouter()
	return app, nil
}

// cleanup releases the connections held by the application.
func (app *application) cleanup() {
	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			app.logger.Error("failed to close redis client", "error", redact.Error(err))
		}
	}
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("failed to close database", "error", redact.Error(err))
		}
	}
}
