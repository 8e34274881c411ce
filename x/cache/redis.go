package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/offbit-ai/zeal-auth/core"
)

type redisCache struct {
	rdb        *redis.Client
	prefix     string
	defaultTTL time.Duration
}

// NewRedisCache creates the redis cache backend. Keys are namespaced
// under the configured prefix.
func NewRedisCache(rdb *redis.Client, config core.Config) core.CacheService {
	return &redisCache{
		rdb:        rdb,
		prefix:     config.CachePrefix + core.CacheNamespace,
		defaultTTL: config.CacheTTL,
	}
}

func (c *redisCache) Get(ctx context.Context, key string, dest any) error {
	ctx, span := tracer.Start(ctx, "Cache.Redis.Get")
	defer span.End()

	val, err := c.rdb.Get(ctx, c.prefix+key).Result()
	if err != nil {
		if err == redis.Nil {
			return core.NewErrorCacheMiss()
		}
		span.RecordError(err)
		return errors.Wrap(err, "failed to get cache entry")
	}

	// sliding expiration
	if c.defaultTTL > 0 {
		c.rdb.Expire(ctx, c.prefix+key, c.defaultTTL)
	}

	err = json.Unmarshal([]byte(val), dest)
	if err != nil {
		span.RecordError(err)
		return errors.Wrap(err, "failed to unmarshal cache entry")
	}

	return nil
}

func (c *redisCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	ctx, span := tracer.Start(ctx, "Cache.Redis.Set")
	defer span.End()

	if ttl <= 0 {
		ttl = c.defaultTTL
	}

	data, err := json.Marshal(value)
	if err != nil {
		span.RecordError(err)
		return errors.Wrap(err, "failed to marshal cache entry")
	}

	err = c.rdb.Set(ctx, c.prefix+key, data, ttl).Err()
	if err != nil {
		span.RecordError(err)
		return errors.Wrap(err, "failed to set cache entry")
	}

	return nil
}

func (c *redisCache) MGet(ctx context.Context, keys []string) (map[string]string, error) {
	ctx, span := tracer.Start(ctx, "Cache.Redis.MGet")
	defer span.End()

	pipe := c.rdb.Pipeline()
	cmds := make(map[string]*redis.StringCmd, len(keys))
	for _, key := range keys {
		cmds[key] = pipe.Get(ctx, c.prefix+key)
	}

	_, err := pipe.Exec(ctx)
	if err != nil && err != redis.Nil {
		span.RecordError(err)
		return nil, errors.Wrap(err, "failed to mget cache entries")
	}

	result := make(map[string]string)
	for key, cmd := range cmds {
		if cmd.Err() == nil {
			result[key] = cmd.Val()
		}
	}

	return result, nil
}

func (c *redisCache) MSet(ctx context.Context, entries map[string]any, ttl time.Duration) error {
	ctx, span := tracer.Start(ctx, "Cache.Redis.MSet")
	defer span.End()

	if ttl <= 0 {
		ttl = c.defaultTTL
	}

	pipe := c.rdb.Pipeline()
	for key, value := range entries {
		data, err := json.Marshal(value)
		if err != nil {
			span.RecordError(err)
			return errors.Wrap(err, "failed to marshal cache entry")
		}
		pipe.Set(ctx, c.prefix+key, data, ttl)
	}

	_, err := pipe.Exec(ctx)
	if err != nil {
		span.RecordError(err)
		return errors.Wrap(err, "failed to mset cache entries")
	}

	return nil
}

func (c *redisCache) Invalidate(ctx context.Context, key string) error {
	ctx, span := tracer.Start(ctx, "Cache.Redis.Invalidate")
	defer span.End()

	err := c.rdb.Del(ctx, c.prefix+key).Err()
	if err != nil {
		span.RecordError(err)
		return errors.Wrap(err, "failed to invalidate cache entry")
	}

	return nil
}

func (c *redisCache) InvalidatePrefix(ctx context.Context, prefix string) error {
	ctx, span := tracer.Start(ctx, "Cache.Redis.InvalidatePrefix")
	defer span.End()

	iter := c.rdb.Scan(ctx, 0, c.prefix+prefix+"*", 100).Iterator()
	batch := make([]string, 0, 100)
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) >= 100 {
			if err := c.rdb.Del(ctx, batch...).Err(); err != nil {
				span.RecordError(err)
				return errors.Wrap(err, "failed to delete cache entries")
			}
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		span.RecordError(err)
		return errors.Wrap(err, "failed to scan cache entries")
	}
	if len(batch) > 0 {
		if err := c.rdb.Del(ctx, batch...).Err(); err != nil {
			span.RecordError(err)
			return errors.Wrap(err, "failed to delete cache entries")
		}
	}

	return nil
}

func (c *redisCache) Clear(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "Cache.Redis.Clear")
	defer span.End()

	return c.InvalidatePrefix(ctx, "")
}

func (c *redisCache) Close() error {
	return nil
}
