package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskdeck-api/internal/domain"
	"github.com/phrazzld/taskdeck-api/internal/platform/logger"
	"github.com/phrazzld/taskdeck-api/internal/query"
	"github.com/phrazzld/taskdeck-api/internal/store"
)

// taskColumns is the select list scanned by scanTask, in order.
const taskColumns = "id, code, title, status, priority, label, created_at, updated_at"

// PostgresTaskStore implements the store.TaskStore interface
// using a PostgreSQL database as the storage backend.
type PostgresTaskStore struct {
	db     store.DB
	logger *slog.Logger
}

// NewPostgresTaskStore creates a new PostgreSQL implementation of the TaskStore interface.
// It accepts a database connection that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresTaskStore(db store.DB, logger *slog.Logger) *PostgresTaskStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresTaskStore{
		db:     db,
		logger: logger.With(slog.String("component", "task_store")),
	}
}

// Ensure PostgresTaskStore implements store.TaskStore interface
var _ store.TaskStore = (*PostgresTaskStore)(nil)

// ListPage implements store.TaskStore.ListPage.
// The page and the total are read inside one read-only repeatable-read
// transaction, so the count always describes the same rows the page came from.
func (s *PostgresTaskStore) ListPage(ctx context.Context, plan query.Plan) (*store.TaskPage, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if plan.Limit < 1 {
		return nil, store.NewStoreError("task", "list", "limit must be positive", domain.ErrInvalidPagination)
	}

	orderBy := plan.OrderBy
	if len(orderBy) == 0 {
		orderBy = query.DefaultSort
	}

	where, args := query.Where(plan.Where, 0)
	listArgs := make([]any, 0, len(args)+2)
	listArgs = append(listArgs, args...)
	listArgs = append(listArgs, plan.Limit, plan.Offset)

	listSQL := fmt.Sprintf(
		"SELECT %s FROM tasks WHERE %s ORDER BY %s LIMIT $%d OFFSET $%d",
		taskColumns, where, query.OrderBy(orderBy), len(args)+1, len(args)+2,
	)
	countSQL := "SELECT COUNT(*) FROM tasks WHERE " + where

	page := &store.TaskPage{Rows: []domain.Task{}}
	start := time.Now()

	err := store.RunInReadSnapshot(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, listSQL, listArgs...)
		if err != nil {
			return MapError(err)
		}
		defer func() {
			if closeErr := rows.Close(); closeErr != nil {
				log.Error("failed to close rows", slog.String("error", closeErr.Error()))
			}
		}()

		for rows.Next() {
			task, err := scanTask(rows)
			if err != nil {
				return err
			}
			page.Rows = append(page.Rows, task)
		}
		if err := rows.Err(); err != nil {
			return MapError(err)
		}

		if err := tx.QueryRowContext(ctx, countSQL, args...).Scan(&page.Total); err != nil {
			return MapError(err)
		}
		return nil
	})
	if err != nil {
		log.Error("failed to list tasks",
			slog.String("error", err.Error()),
			slog.Int("limit", plan.Limit),
			slog.Int("offset", plan.Offset))
		return nil, store.NewStoreError("task", "list", "failed to read page", err)
	}

	log.Debug("listed tasks",
		slog.Int("rows", len(page.Rows)),
		slog.Int("total", page.Total),
		slog.Duration("duration", time.Since(start)))

	return page, nil
}

// CountByColumn implements store.TaskStore.CountByColumn.
// col must be an enumerated column; values with no rows never appear in the result.
func (s *PostgresTaskStore) CountByColumn(
	ctx context.Context,
	col query.Column,
	where query.Expr,
) (map[string]int, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if !col.Selectable() {
		return nil, store.NewStoreError("task", "count", "column "+col.Name+" cannot be grouped", store.ErrQueryFailed)
	}

	cond, args := query.Where(where, 0)
	countSQL := fmt.Sprintf(
		"SELECT %[1]s, COUNT(*) FROM tasks WHERE %[2]s GROUP BY %[1]s HAVING COUNT(*) > 0",
		col.Name, cond,
	)

	rows, err := s.db.QueryContext(ctx, countSQL, args...)
	if err != nil {
		log.Error("failed to count tasks",
			slog.String("column", col.Name),
			slog.String("error", err.Error()))
		return nil, store.NewStoreError("task", "count", "failed to count by "+col.Name, MapError(err))
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			log.Error("failed to close rows", slog.String("error", closeErr.Error()))
		}
	}()

	counts := make(map[string]int)
	for rows.Next() {
		var (
			value string
			n     int
		)
		if err := rows.Scan(&value, &n); err != nil {
			return nil, store.NewStoreError("task", "count", "failed to scan count", MapError(err))
		}
		if n > 0 {
			counts[value] = n
		}
	}
	if err := rows.Err(); err != nil {
		return nil, store.NewStoreError("task", "count", "failed to iterate counts", MapError(err))
	}

	log.Debug("counted tasks",
		slog.String("column", col.Name),
		slog.Int("groups", len(counts)))

	return counts, nil
}

// scanTask reads one row selected with taskColumns.
func scanTask(rows *sql.Rows) (domain.Task, error) {
	var (
		task                    domain.Task
		id                      uuid.UUID
		status, priority, label string
	)

	err := rows.Scan(
		&id,
		&task.Code,
		&task.Title,
		&status,
		&priority,
		&label,
		&task.CreatedAt,
		&task.UpdatedAt,
	)
	if err != nil {
		return domain.Task{}, MapError(err)
	}

	task.ID = id
	task.Status = domain.TaskStatus(status)
	task.Priority = domain.TaskPriority(priority)
	task.Label = domain.TaskLabel(label)

	if err := task.Validate(); err != nil {
		return domain.Task{}, fmt.Errorf("%w: task %s: %w", store.ErrInvalidEntity, id, err)
	}
	return task, nil
}
