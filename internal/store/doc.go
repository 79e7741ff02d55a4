// Package store defines interfaces for data persistence operations.
// These interfaces abstract the underlying data storage mechanism from
// the application's core logic, allowing the query layer to remain
// independent of specific database technologies or persistence details.
//
// The task tracker only reads from storage: TaskStore exposes the paginated
// listing and the grouped counts, nothing that writes.
package store
