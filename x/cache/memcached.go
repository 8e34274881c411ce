package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/bradfitz/gomemcache/memcache"
	"github.com/pkg/errors"

	"github.com/offbit-ai/zeal-auth/core"
)

type memcachedCache struct {
	mc         *memcache.Client
	prefix     string
	defaultTTL time.Duration
}

// NewMemcachedCache creates the memcached cache backend.
func NewMemcachedCache(mc *memcache.Client, config core.Config) core.CacheService {
	return &memcachedCache{
		mc:         mc,
		prefix:     config.CachePrefix + core.CacheNamespace,
		defaultTTL: config.CacheTTL,
	}
}

func (c *memcachedCache) Get(ctx context.Context, key string, dest any) error {
	_, span := tracer.Start(ctx, "Cache.Memcached.Get")
	defer span.End()

	item, err := c.mc.Get(c.prefix + key)
	if err != nil {
		if err == memcache.ErrCacheMiss {
			return core.NewErrorCacheMiss()
		}
		span.RecordError(err)
		return errors.Wrap(err, "failed to get cache entry")
	}

	if c.defaultTTL > 0 {
		c.mc.Touch(c.prefix+key, int32(c.defaultTTL.Seconds()))
	}

	err = json.Unmarshal(item.Value, dest)
	if err != nil {
		span.RecordError(err)
		return errors.Wrap(err, "failed to unmarshal cache entry")
	}

	return nil
}

func (c *memcachedCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	_, span := tracer.Start(ctx, "Cache.Memcached.Set")
	defer span.End()

	if ttl <= 0 {
		ttl = c.defaultTTL
	}

	data, err := json.Marshal(value)
	if err != nil {
		span.RecordError(err)
		return errors.Wrap(err, "failed to marshal cache entry")
	}

	err = c.mc.Set(&memcache.Item{
		Key:        c.prefix + key,
		Value:      data,
		Expiration: int32(ttl.Seconds()),
	})
	if err != nil {
		span.RecordError(err)
		return errors.Wrap(err, "failed to set cache entry")
	}

	return nil
}

func (c *memcachedCache) MGet(ctx context.Context, keys []string) (map[string]string, error) {
	_, span := tracer.Start(ctx, "Cache.Memcached.MGet")
	defer span.End()

	prefixed := make([]string, len(keys))
	keytable := make(map[string]string, len(keys))
	for i, key := range keys {
		prefixed[i] = c.prefix + key
		keytable[c.prefix+key] = key
	}

	items, err := c.mc.GetMulti(prefixed)
	if err != nil {
		span.RecordError(err)
		return nil, errors.Wrap(err, "failed to mget cache entries")
	}

	result := make(map[string]string)
	for full, item := range items {
		result[keytable[full]] = string(item.Value)
	}

	return result, nil
}

func (c *memcachedCache) MSet(ctx context.Context, entries map[string]any, ttl time.Duration) error {
	ctx, span := tracer.Start(ctx, "Cache.Memcached.MSet")
	defer span.End()

	for key, value := range entries {
		if err := c.Set(ctx, key, value, ttl); err != nil {
			return err
		}
	}

	return nil
}

func (c *memcachedCache) Invalidate(ctx context.Context, key string) error {
	_, span := tracer.Start(ctx, "Cache.Memcached.Invalidate")
	defer span.End()

	err := c.mc.Delete(c.prefix + key)
	if err != nil && err != memcache.ErrCacheMiss {
		span.RecordError(err)
		return errors.Wrap(err, "failed to invalidate cache entry")
	}

	return nil
}

// InvalidatePrefix is a no-op on memcached; the protocol has no key scan.
// Entries age out on their TTL instead.
func (c *memcachedCache) InvalidatePrefix(ctx context.Context, prefix string) error {
	_, span := tracer.Start(ctx, "Cache.Memcached.InvalidatePrefix")
	defer span.End()

	slog.Warn("memcached backend cannot invalidate by prefix", slog.String("prefix", prefix))
	return nil
}

// Clear flushes the whole instance
func (c *memcachedCache) Clear(ctx context.Context) error {
	_, span := tracer.Start(ctx, "Cache.Memcached.Clear")
	defer span.End()

	err := c.mc.FlushAll()
	if err != nil {
		span.RecordError(err)
		return errors.Wrap(err, "failed to flush cache")
	}

	return nil
}

func (c *memcachedCache) Close() error {
	return nil
}
