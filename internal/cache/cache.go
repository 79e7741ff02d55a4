package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrBackend is returned when the cache backend could not be reached or
// returned an unexpected response. A miss is never an error.
var ErrBackend = errors.New("cache backend failure")

// Cache stores encoded values under a key for a bounded time, grouped by tags.
type Cache interface {
	// Get returns the value stored under key. ok is false on a miss or when
	// the entry has expired.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)

	// Put stores value under key for ttl and associates it with every tag.
	// A non-positive ttl stores nothing.
	Put(ctx context.Context, key string, value []byte, ttl time.Duration, tags ...string) error

	// Invalidate drops every entry associated with any of the tags.
	Invalidate(ctx context.Context, tags ...string) error
}

// GetJSON reads key and decodes it into a T. An entry that no longer decodes
// is reported as a miss.
func GetJSON[T any](ctx context.Context, c Cache, key string) (T, bool, error) {
	var zero T
	raw, ok, err := c.Get(ctx, key)
	if err != nil || !ok {
		return zero, false, err
	}

	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return zero, false, nil
	}
	return v, true, nil
}

// PutJSON encodes v and stores it under key.
func PutJSON[T any](ctx context.Context, c Cache, key string, v T, ttl time.Duration, tags ...string) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode cache value for %s: %w", key, err)
	}
	return c.Put(ctx, key, raw, ttl, tags...)
}
