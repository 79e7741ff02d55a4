// Package cache provides a tagged, TTL-bound key/value cache used to hold
// aggregate query results. Entries are grouped by tags so a single
// invalidation can drop every entry derived from the same data.
//
// Two backends are available: an in-process map (MemoryCache) and Redis
// (RedisCache) for deployments running several API instances. Instrument
// wraps either one with Prometheus counters.
package cache
