package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/phrazzld/taskdeck-api/internal/store"
)

// PostgreSQL error codes
const (
	// queryCanceledCode is raised when statement_timeout fires or the query is cancelled
	queryCanceledCode = "57014"

	// serializationFailureCode is raised when a snapshot read conflicts with a concurrent writer
	serializationFailureCode = "40001"

	// undefinedTableCode is raised when the tasks table is missing (migrations not applied)
	undefinedTableCode = "42P01"

	// undefinedColumnCode is raised when a column referenced by a query does not exist
	undefinedColumnCode = "42703"

	// invalidTextRepresentationCode is raised when a bound argument cannot be cast to the column type
	invalidTextRepresentationCode = "22P02"
)

// MapError maps a database error to an appropriate store error.
// It wraps the original error to preserve context and provide better debugging information.
// Every read in this package passes its error through MapError.
func MapError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %v", store.ErrNotFound, err)
	}

	// Cancellation is the caller's doing; keep it recognisable.
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", store.ErrQueryFailed, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case queryCanceledCode:
			return fmt.Errorf("%w: query canceled: %v", store.ErrQueryFailed, err)
		case serializationFailureCode:
			return fmt.Errorf("%w: serialization failure: %v", store.ErrTransactionFailed, err)
		case undefinedTableCode, undefinedColumnCode:
			return fmt.Errorf("%w: schema mismatch (%s): %v", store.ErrQueryFailed, pgErr.Code, err)
		case invalidTextRepresentationCode:
			return fmt.Errorf("%w: invalid filter value: %v", store.ErrQueryFailed, err)
		}
		return fmt.Errorf("%w: %v", store.ErrQueryFailed, err)
	}

	if errors.Is(err, store.ErrQueryFailed) || errors.Is(err, store.ErrTransactionFailed) ||
		errors.Is(err, store.ErrInvalidEntity) {
		return err
	}

	return fmt.Errorf("%w: %v", store.ErrQueryFailed, err)
}

// IsSerializationFailure checks if the given error is a PostgreSQL serialization failure.
// Such reads can safely be retried.
func IsSerializationFailure(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == serializationFailureCode
}

// IsQueryCanceled checks if the given error is a PostgreSQL query cancellation,
// usually the result of statement_timeout.
func IsQueryCanceled(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == queryCanceledCode
}

// IsNotFoundError checks if the given error represents a "not found" scenario.
// This handles both sql.ErrNoRows and errors that are or wrap store.ErrNotFound.
func IsNotFoundError(err error) bool {
	return errors.Is(err, sql.ErrNoRows) || errors.Is(err, store.ErrNotFound)
}
