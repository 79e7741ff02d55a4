// Package postgres provides the PostgreSQL implementation of the task read
// interface defined in the internal/store package, the mapping of driver
// errors onto store errors, and the embedded goose migrations that create the
// tasks table.
package postgres
