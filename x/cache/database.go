package cache

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/offbit-ai/zeal-auth/core"
)

// databaseCache backs the cache with the auth_cache table for deployments
// without a remote key-value store. Expired rows are purged lazily on read.
type databaseCache struct {
	db         *gorm.DB
	prefix     string
	defaultTTL time.Duration
}

func NewDatabaseCache(db *gorm.DB, config core.Config) core.CacheService {
	return &databaseCache{
		db:         db,
		prefix:     config.CachePrefix + core.CacheNamespace,
		defaultTTL: config.CacheTTL,
	}
}

// decision keys look like decision:<tenant>:<hash>; keep the tenant column
// filled so row-level security can scope the table
func tenantFromKey(key string) string {
	parts := strings.Split(key, ":")
	if len(parts) >= 3 && parts[0] == "decision" {
		return parts[1]
	}
	return ""
}

func (c *databaseCache) Get(ctx context.Context, key string, dest any) error {
	ctx, span := tracer.Start(ctx, "Cache.Database.Get")
	defer span.End()

	var entry core.AuthCacheEntry
	err := c.db.WithContext(ctx).First(&entry, "cache_key = ?", c.prefix+key).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return core.NewErrorCacheMiss()
		}
		span.RecordError(err)
		return errors.Wrap(err, "failed to get cache entry")
	}

	if entry.ExpiresAt.Before(time.Now()) {
		c.db.WithContext(ctx).Delete(&core.AuthCacheEntry{}, "cache_key = ?", c.prefix+key)
		return core.NewErrorCacheMiss()
	}

	if c.defaultTTL > 0 {
		c.db.WithContext(ctx).Model(&core.AuthCacheEntry{}).
			Where("cache_key = ?", c.prefix+key).
			Update("expires_at", time.Now().Add(c.defaultTTL))
	}

	err = json.Unmarshal([]byte(entry.Result), dest)
	if err != nil {
		span.RecordError(err)
		return errors.Wrap(err, "failed to unmarshal cache entry")
	}

	return nil
}

func (c *databaseCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	ctx, span := tracer.Start(ctx, "Cache.Database.Set")
	defer span.End()

	if ttl <= 0 {
		ttl = c.defaultTTL
	}

	data, err := json.Marshal(value)
	if err != nil {
		span.RecordError(err)
		return errors.Wrap(err, "failed to marshal cache entry")
	}

	entry := core.AuthCacheEntry{
		CacheKey:  c.prefix + key,
		TenantID:  tenantFromKey(key),
		Result:    string(data),
		ExpiresAt: time.Now().Add(ttl),
	}

	err = c.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "cache_key"}},
		UpdateAll: true,
	}).Create(&entry).Error
	if err != nil {
		span.RecordError(err)
		return errors.Wrap(err, "failed to set cache entry")
	}

	return nil
}

func (c *databaseCache) MGet(ctx context.Context, keys []string) (map[string]string, error) {
	ctx, span := tracer.Start(ctx, "Cache.Database.MGet")
	defer span.End()

	prefixed := make([]string, len(keys))
	for i, key := range keys {
		prefixed[i] = c.prefix + key
	}

	var entries []core.AuthCacheEntry
	err := c.db.WithContext(ctx).
		Where("cache_key IN ? AND expires_at > ?", prefixed, time.Now()).
		Find(&entries).Error
	if err != nil {
		span.RecordError(err)
		return nil, errors.Wrap(err, "failed to mget cache entries")
	}

	result := make(map[string]string)
	for _, entry := range entries {
		result[strings.TrimPrefix(entry.CacheKey, c.prefix)] = entry.Result
	}

	return result, nil
}

func (c *databaseCache) MSet(ctx context.Context, entries map[string]any, ttl time.Duration) error {
	ctx, span := tracer.Start(ctx, "Cache.Database.MSet")
	defer span.End()

	if ttl <= 0 {
		ttl = c.defaultTTL
	}

	rows := make([]core.AuthCacheEntry, 0, len(entries))
	for key, value := range entries {
		data, err := json.Marshal(value)
		if err != nil {
			span.RecordError(err)
			return errors.Wrap(err, "failed to marshal cache entry")
		}
		rows = append(rows, core.AuthCacheEntry{
			CacheKey:  c.prefix + key,
			TenantID:  tenantFromKey(key),
			Result:    string(data),
			ExpiresAt: time.Now().Add(ttl),
		})
	}

	err := c.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "cache_key"}},
		UpdateAll: true,
	}).Create(&rows).Error
	if err != nil {
		span.RecordError(err)
		return errors.Wrap(err, "failed to mset cache entries")
	}

	return nil
}

func (c *databaseCache) Invalidate(ctx context.Context, key string) error {
	ctx, span := tracer.Start(ctx, "Cache.Database.Invalidate")
	defer span.End()

	err := c.db.WithContext(ctx).Delete(&core.AuthCacheEntry{}, "cache_key = ?", c.prefix+key).Error
	if err != nil {
		span.RecordError(err)
		return errors.Wrap(err, "failed to invalidate cache entry")
	}

	return nil
}

func (c *databaseCache) InvalidatePrefix(ctx context.Context, prefix string) error {
	ctx, span := tracer.Start(ctx, "Cache.Database.InvalidatePrefix")
	defer span.End()

	pattern := strings.ReplaceAll(c.prefix+prefix, `\`, `\\`)
	pattern = strings.ReplaceAll(pattern, "%", `\%`)
	pattern = strings.ReplaceAll(pattern, "_", `\_`)

	err := c.db.WithContext(ctx).Delete(&core.AuthCacheEntry{}, "cache_key LIKE ?", pattern+"%").Error
	if err != nil {
		span.RecordError(err)
		return errors.Wrap(err, "failed to invalidate cache entries")
	}

	return nil
}

func (c *databaseCache) Clear(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "Cache.Database.Clear")
	defer span.End()

	return c.InvalidatePrefix(ctx, "")
}

func (c *databaseCache) Close() error {
	return nil
}
