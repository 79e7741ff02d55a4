package postgres_test

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/phrazzld/taskdeck-api/internal/domain"
	"github.com/phrazzld/taskdeck-api/internal/platform/postgres"
	"github.com/phrazzld/taskdeck-api/internal/query"
	"github.com/phrazzld/taskdeck-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var taskRowColumns = []string{
	"id", "code", "title", "status", "priority", "label", "created_at", "updated_at",
}

func newMockStore(t *testing.T) (*postgres.PostgresTaskStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return postgres.NewPostgresTaskStore(db, nil), mock
}

func TestNewPostgresTaskStore(t *testing.T) {
	assert.Panics(t, func() { postgres.NewPostgresTaskStore(nil, nil) })

	s, _ := newMockStore(t)
	assert.NotNil(t, s)
}

func TestPostgresTaskStore_ListPage(t *testing.T) {
	created := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	plan := query.Compose(domain.QueryRequest{
		Page:    2,
		PerPage: 10,
		Sort:    "title.asc",
		Filters: []domain.FilterTerm{{Field: "status", Value: "done"}},
	})

	listSQL := regexp.QuoteMeta(
		"SELECT id, code, title, status, priority, label, created_at, updated_at FROM tasks " +
			`WHERE status = $1 ORDER BY title COLLATE "C" ASC, id ASC LIMIT $2 OFFSET $3`)
	countSQL := regexp.QuoteMeta("SELECT COUNT(*) FROM tasks WHERE status = $1")

	t.Run("page and total read in one transaction", func(t *testing.T) {
		s, mock := newMockStore(t)
		id1, id2 := uuid.New(), uuid.New()

		mock.ExpectBegin()
		mock.ExpectQuery(listSQL).
			WithArgs("done", 10, 10).
			WillReturnRows(sqlmock.NewRows(taskRowColumns).
				AddRow(id1.String(), "TASK-11", "alpha", "done", "high", "bug", created, created).
				AddRow(id2.String(), "TASK-12", "bravo", "done", "low", "feature", created, created))
		mock.ExpectQuery(countSQL).
			WithArgs("done").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(12)))
		mock.ExpectCommit()

		page, err := s.ListPage(context.Background(), plan)
		require.NoError(t, err)
		require.Len(t, page.Rows, 2)
		assert.Equal(t, 12, page.Total)
		assert.Equal(t, id1, page.Rows[0].ID)
		assert.Equal(t, domain.TaskStatusDone, page.Rows[0].Status)
		assert.Equal(t, domain.TaskLabelFeature, page.Rows[1].Label)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("empty page still reports total", func(t *testing.T) {
		s, mock := newMockStore(t)

		mock.ExpectBegin()
		mock.ExpectQuery(listSQL).
			WithArgs("done", 10, 10).
			WillReturnRows(sqlmock.NewRows(taskRowColumns))
		mock.ExpectQuery(countSQL).
			WithArgs("done").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(3)))
		mock.ExpectCommit()

		page, err := s.ListPage(context.Background(), plan)
		require.NoError(t, err)
		assert.NotNil(t, page.Rows)
		assert.Empty(t, page.Rows)
		assert.Equal(t, 3, page.Total)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("count failure rolls back", func(t *testing.T) {
		s, mock := newMockStore(t)

		mock.ExpectBegin()
		mock.ExpectQuery(listSQL).
			WillReturnRows(sqlmock.NewRows(taskRowColumns))
		mock.ExpectQuery(countSQL).
			WillReturnError(newPgError("57014"))
		mock.ExpectRollback()

		page, err := s.ListPage(context.Background(), plan)
		assert.Nil(t, page)
		require.Error(t, err)
		assert.ErrorIs(t, err, store.ErrQueryFailed)

		var storeErr *store.StoreError
		require.True(t, errors.As(err, &storeErr))
		assert.Equal(t, "list", storeErr.Operation)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown enum value in a row", func(t *testing.T) {
		s, mock := newMockStore(t)

		mock.ExpectBegin()
		mock.ExpectQuery(listSQL).
			WillReturnRows(sqlmock.NewRows(taskRowColumns).
				AddRow(uuid.NewString(), "TASK-1", "alpha", "archived", "high", "bug", created, created))
		mock.ExpectRollback()

		_, err := s.ListPage(context.Background(), plan)
		require.Error(t, err)
		assert.ErrorIs(t, err, store.ErrInvalidEntity)
		assert.ErrorIs(t, err, domain.ErrInvalidTaskStatus)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("begin failure", func(t *testing.T) {
		s, mock := newMockStore(t)
		mock.ExpectBegin().WillReturnError(errors.New("connection refused"))

		_, err := s.ListPage(context.Background(), plan)
		assert.ErrorIs(t, err, store.ErrTransactionFailed)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("non-positive limit never reaches the database", func(t *testing.T) {
		s, mock := newMockStore(t)

		_, err := s.ListPage(context.Background(), query.Plan{Limit: 0})
		assert.ErrorIs(t, err, domain.ErrInvalidPagination)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing order falls back to default sort", func(t *testing.T) {
		s, mock := newMockStore(t)

		mock.ExpectBegin()
		mock.ExpectQuery(regexp.QuoteMeta("WHERE TRUE ORDER BY created_at DESC, id DESC LIMIT $1 OFFSET $2")).
			WithArgs(5, 0).
			WillReturnRows(sqlmock.NewRows(taskRowColumns))
		mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM tasks WHERE TRUE")).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(0)))
		mock.ExpectCommit()

		page, err := s.ListPage(context.Background(), query.Plan{Limit: 5})
		require.NoError(t, err)
		assert.Equal(t, 0, page.Total)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostgresTaskStore_CountByColumn(t *testing.T) {
	t.Run("groups by the column", func(t *testing.T) {
		s, mock := newMockStore(t)

		mock.ExpectQuery(regexp.QuoteMeta("SELECT status, COUNT(*) FROM tasks WHERE TRUE GROUP BY status HAVING COUNT(*) > 0")).
			WillReturnRows(sqlmock.NewRows([]string{"status", "count"}).
				AddRow("done", int64(3)).
				AddRow("todo", int64(1)))

		counts, err := s.CountByColumn(context.Background(), query.ColumnStatus, nil)
		require.NoError(t, err)
		assert.Equal(t, map[string]int{"done": 3, "todo": 1}, counts)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("narrowed by a predicate", func(t *testing.T) {
		s, mock := newMockStore(t)

		mock.ExpectQuery(regexp.QuoteMeta(
			"SELECT priority, COUNT(*) FROM tasks WHERE priority = $1 GROUP BY priority HAVING COUNT(*) > 0")).
			WithArgs("high").
			WillReturnRows(sqlmock.NewRows([]string{"priority", "count"}).AddRow("high", int64(7)))

		counts, err := s.CountByColumn(context.Background(), query.ColumnPriority,
			query.Selectable(query.ColumnPriority, "high"))
		require.NoError(t, err)
		assert.Equal(t, map[string]int{"high": 7}, counts)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("no rows yields an empty map", func(t *testing.T) {
		s, mock := newMockStore(t)

		mock.ExpectQuery("SELECT label, COUNT").
			WillReturnRows(sqlmock.NewRows([]string{"label", "count"}))

		counts, err := s.CountByColumn(context.Background(), query.ColumnLabel, nil)
		require.NoError(t, err)
		assert.NotNil(t, counts)
		assert.Empty(t, counts)
	})

	t.Run("query failure", func(t *testing.T) {
		s, mock := newMockStore(t)

		mock.ExpectQuery("SELECT status, COUNT").
			WillReturnError(errors.New("connection reset"))

		counts, err := s.CountByColumn(context.Background(), query.ColumnStatus, nil)
		assert.Nil(t, counts)
		assert.ErrorIs(t, err, store.ErrQueryFailed)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("free-text column rejected", func(t *testing.T) {
		s, mock := newMockStore(t)

		_, err := s.CountByColumn(context.Background(), query.ColumnTitle, nil)
		assert.ErrorIs(t, err, store.ErrQueryFailed)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
