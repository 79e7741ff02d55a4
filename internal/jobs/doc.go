// Package jobs runs small units of background work on a bounded in-memory
// queue drained by a fixed pool of workers. The server uses it to apply
// cache invalidations triggered by task mutation notifications without
// holding the HTTP request open.
package jobs
