package cache

import (
	"fmt"

	"github.com/bradfitz/gomemcache/memcache"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"gorm.io/gorm"

	"github.com/offbit-ai/zeal-auth/core"
)

var tracer = otel.Tracer("cache")

// NewService selects a cache backend by name. redis is the default.
func NewService(backend string, rdb *redis.Client, mc *memcache.Client, db *gorm.DB, config core.Config) (core.CacheService, error) {
	switch backend {
	case "", "redis":
		if rdb == nil {
			return nil, fmt.Errorf("redis cache backend requires a redis client")
		}
		return NewRedisCache(rdb, config), nil
	case "memcached":
		if mc == nil {
			return nil, fmt.Errorf("memcached cache backend requires a memcached client")
		}
		return NewMemcachedCache(mc, config), nil
	case "database":
		if db == nil {
			return nil, fmt.Errorf("database cache backend requires a database handle")
		}
		return NewDatabaseCache(db, config), nil
	}
	return nil, fmt.Errorf("unknown cache backend: %s", backend)
}
