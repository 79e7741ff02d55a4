// Package memory provides an in-process implementation of store.TaskStore.
// Predicates and sort order are evaluated with the same expressions the
// PostgreSQL store renders to SQL, which makes it the store of choice for
// service and handler tests.
package memory
