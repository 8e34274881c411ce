package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/offbit-ai/zeal-auth/core"
	"github.com/offbit-ai/zeal-auth/internal/testutil"
)

func testConfig() core.Config {
	return core.SetupConfig(core.ConfigInput{
		CachePrefix: "test:",
		Cache:       core.CacheConfig{TTL: 60},
	})
}

func TestRedisCache(t *testing.T) {

	var ctx = context.Background()

	rdb, cleanup := testutil.CreateRDB()
	defer cleanup()

	c := NewRedisCache(rdb, testConfig())

	err := c.Set(ctx, "k1", map[string]string{"hello": "world"}, time.Minute)
	assert.NoError(t, err)

	var got map[string]string
	err = c.Get(ctx, "k1", &got)
	if assert.NoError(t, err) {
		assert.Equal(t, "world", got["hello"])
	}

	err = c.Get(ctx, "nope", &got)
	assert.IsType(t, core.ErrorCacheMiss{}, err)

	err = c.MSet(ctx, map[string]any{"m1": "a", "m2": "b"}, time.Minute)
	assert.NoError(t, err)

	vals, err := c.MGet(ctx, []string{"m1", "m2", "m3"})
	if assert.NoError(t, err) {
		assert.Len(t, vals, 2)
		assert.Equal(t, `"a"`, vals["m1"])
		assert.Equal(t, `"b"`, vals["m2"])
	}

	err = c.Invalidate(ctx, "k1")
	assert.NoError(t, err)
	err = c.Get(ctx, "k1", &got)
	assert.IsType(t, core.ErrorCacheMiss{}, err)

	err = c.Set(ctx, "decision:t1:a", "x", time.Minute)
	assert.NoError(t, err)
	err = c.Set(ctx, "decision:t1:b", "y", time.Minute)
	assert.NoError(t, err)
	err = c.Set(ctx, "decision:t2:a", "z", time.Minute)
	assert.NoError(t, err)

	err = c.InvalidatePrefix(ctx, "decision:t1:")
	assert.NoError(t, err)

	var s string
	err = c.Get(ctx, "decision:t1:a", &s)
	assert.IsType(t, core.ErrorCacheMiss{}, err)
	err = c.Get(ctx, "decision:t2:a", &s)
	assert.NoError(t, err)

	err = c.Set(ctx, "short", "gone", 100*time.Millisecond)
	assert.NoError(t, err)
	time.Sleep(200 * time.Millisecond)
	err = c.Get(ctx, "short", &s)
	assert.IsType(t, core.ErrorCacheMiss{}, err)
}

func TestMemcachedCache(t *testing.T) {

	var ctx = context.Background()

	mc, cleanup := testutil.CreateMC()
	defer cleanup()

	c := NewMemcachedCache(mc, testConfig())

	err := c.Set(ctx, "k1", "v1", time.Minute)
	assert.NoError(t, err)

	var got string
	err = c.Get(ctx, "k1", &got)
	if assert.NoError(t, err) {
		assert.Equal(t, "v1", got)
	}

	err = c.Get(ctx, "nope", &got)
	assert.IsType(t, core.ErrorCacheMiss{}, err)

	err = c.MSet(ctx, map[string]any{"m1": 1, "m2": 2}, time.Minute)
	assert.NoError(t, err)

	vals, err := c.MGet(ctx, []string{"m1", "m2", "m3"})
	if assert.NoError(t, err) {
		assert.Len(t, vals, 2)
	}

	err = c.Invalidate(ctx, "k1")
	assert.NoError(t, err)
	err = c.Get(ctx, "k1", &got)
	assert.IsType(t, core.ErrorCacheMiss{}, err)

	err = c.Clear(ctx)
	assert.NoError(t, err)
	err = c.Get(ctx, "m1", &got)
	assert.IsType(t, core.ErrorCacheMiss{}, err)
}

func TestDatabaseCache(t *testing.T) {

	var ctx = context.Background()

	db, cleanup := testutil.CreateDB()
	defer cleanup()

	c := NewDatabaseCache(db, testConfig())

	err := c.Set(ctx, "decision:t1:h1", core.AuthorizationResult{Allowed: true, Reason: "ok"}, time.Minute)
	assert.NoError(t, err)

	var result core.AuthorizationResult
	err = c.Get(ctx, "decision:t1:h1", &result)
	if assert.NoError(t, err) {
		assert.True(t, result.Allowed)
		assert.Equal(t, "ok", result.Reason)
	}

	// overwrite through upsert
	err = c.Set(ctx, "decision:t1:h1", core.AuthorizationResult{Allowed: false, Reason: "no"}, time.Minute)
	assert.NoError(t, err)
	err = c.Get(ctx, "decision:t1:h1", &result)
	if assert.NoError(t, err) {
		assert.False(t, result.Allowed)
	}

	err = c.Get(ctx, "missing", &result)
	assert.IsType(t, core.ErrorCacheMiss{}, err)

	// expired rows behave as misses and are purged lazily
	err = c.Set(ctx, "expired", "x", 100*time.Millisecond)
	assert.NoError(t, err)
	time.Sleep(200 * time.Millisecond)
	var s string
	err = c.Get(ctx, "expired", &s)
	assert.IsType(t, core.ErrorCacheMiss{}, err)

	err = c.InvalidatePrefix(ctx, "decision:t1:")
	assert.NoError(t, err)
	err = c.Get(ctx, "decision:t1:h1", &result)
	assert.IsType(t, core.ErrorCacheMiss{}, err)
}
