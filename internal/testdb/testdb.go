// Package testdb provides utilities for tests that need a real PostgreSQL
// database. Tests using it are skipped unless a database URL is configured.
package testdb

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"testing"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver
	"github.com/phrazzld/taskdeck-api/internal/platform/postgres"
	"github.com/stretchr/testify/require"
)

// TestTimeout defines a default timeout for test database operations.
const TestTimeout = 30 * time.Second

// databaseURLVars are checked in order by DatabaseURL.
var databaseURLVars = []string{"DATABASE_URL", "TASKDECK_TEST_DB_URL"}

// DatabaseURL returns the first non-empty database URL found in the
// environment.
func DatabaseURL() string {
	for _, name := range databaseURLVars {
		if v := os.Getenv(name); v != "" {
			return v
		}
	}
	return ""
}

// IsIntegrationTestEnvironment reports whether a database URL is set.
func IsIntegrationTestEnvironment() bool {
	return DatabaseURL() != ""
}

// Open connects to the test database and applies the embedded migrations.
// The test is skipped when no database is configured; the connection is
// closed when the test ends.
func Open(t *testing.T) *sql.DB {
	t.Helper()
	if !IsIntegrationTestEnvironment() {
		t.Skip("Skipping integration test - DATABASE_URL environment variable required")
	}

	db, err := sql.Open("pgx", DatabaseURL())
	require.NoError(t, err, "Failed to open database")
	t.Cleanup(func() { _ = db.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), TestTimeout)
	defer cancel()
	require.NoError(t, db.PingContext(ctx), "Failed to ping database")
	require.NoError(t, postgres.Migrate(ctx, db, "up", nil), "Failed to run migrations")

	return db
}

// WithTx runs fn inside a transaction that is always rolled back, so the
// test leaves no rows behind.
func WithTx(t *testing.T, db *sql.DB, fn func(t *testing.T, tx *sql.Tx)) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), TestTimeout)
	defer cancel()

	tx, err := db.BeginTx(ctx, nil)
	require.NoError(t, err, "Failed to begin transaction")

	defer func() {
		// sql.ErrTxDone is expected if fn already ended the transaction.
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			t.Logf("Warning: failed to rollback transaction: %v", err)
		}
	}()

	fn(t, tx)
}
