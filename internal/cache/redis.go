package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisOptions configures NewRedisClient.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisClient connects to Redis and verifies the connection with a ping.
func NewRedisClient(ctx context.Context, opts RedisOptions) (redis.UniversalClient, error) {
	if opts.Addr == "" {
		return nil, errors.New("redis address empty")
	}

	client := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:        []string{opts.Addr},
		Password:     opts.Password,
		DB:           opts.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return client, nil
}

// RedisCache is a Cache backed by Redis, shared by every API instance
// pointing at the same server.
//
// Each value lives at <prefix>k:<key>; each tag is a set at <prefix>t:<tag>
// holding the keys filed under it. Tag sets expire with the most recently
// stored member, which keeps them alive as long as any entry stored with the
// same TTL.
type RedisCache struct {
	client redis.UniversalClient
	prefix string
	logger *slog.Logger
}

// NewRedisCache wraps an existing client. prefix namespaces every key.
func NewRedisCache(client redis.UniversalClient, prefix string, logger *slog.Logger) *RedisCache {
	if client == nil {
		panic("redis client cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisCache{
		client: client,
		prefix: prefix,
		logger: logger.With(slog.String("component", "redis_cache")),
	}
}

var _ Cache = (*RedisCache)(nil)

func (c *RedisCache) valueKey(key string) string { return c.prefix + "k:" + key }
func (c *RedisCache) tagKey(tag string) string   { return c.prefix + "t:" + tag }

// Get implements Cache.Get.
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	raw, err := c.client.Get(ctx, c.valueKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("%w: get %s: %w", ErrBackend, key, err)
	}
	return raw, true, nil
}

// Put implements Cache.Put. The value and its tag memberships are written in
// one MULTI/EXEC block.
func (c *RedisCache) Put(ctx context.Context, key string, value []byte, ttl time.Duration, tags ...string) error {
	if ttl <= 0 {
		return nil
	}

	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, c.valueKey(key), value, ttl)
		for _, tag := range tags {
			pipe.SAdd(ctx, c.tagKey(tag), key)
			pipe.Expire(ctx, c.tagKey(tag), ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: put %s: %w", ErrBackend, key, err)
	}
	return nil
}

// Invalidate implements Cache.Invalidate.
func (c *RedisCache) Invalidate(ctx context.Context, tags ...string) error {
	for _, tag := range tags {
		members, err := c.client.SMembers(ctx, c.tagKey(tag)).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return fmt.Errorf("%w: members of %s: %w", ErrBackend, tag, err)
		}

		keys := make([]string, 0, len(members)+1)
		for _, m := range members {
			keys = append(keys, c.valueKey(m))
		}
		keys = append(keys, c.tagKey(tag))

		if err := c.client.Del(ctx, keys...).Err(); err != nil {
			return fmt.Errorf("%w: invalidate %s: %w", ErrBackend, tag, err)
		}
		c.logger.Debug("invalidated cache tag",
			slog.String("tag", tag),
			slog.Int("entries", len(members)))
	}
	return nil
}
