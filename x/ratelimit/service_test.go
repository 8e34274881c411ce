package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/offbit-ai/zeal-auth/core"
	"github.com/offbit-ai/zeal-auth/internal/testutil"
)

func TestSlidingWindow(t *testing.T) {

	var ctx = context.Background()

	rdb, cleanup := testutil.CreateRDB()
	defer cleanup()

	config := core.SetupConfig(core.ConfigInput{
		CachePrefix: "test:",
		RateLimit:   core.RateLimitConfig{Requests: 3, Window: 1},
	})
	s := NewService(rdb, config)

	denied := 0
	for i := 0; i < 4; i++ {
		allowed, err := s.IsAllowed(ctx, "u1")
		assert.NoError(t, err)
		if !allowed {
			denied++
		}
	}
	assert.Equal(t, 1, denied)

	// another identifier has its own window
	allowed, err := s.IsAllowed(ctx, "u2")
	assert.NoError(t, err)
	assert.True(t, allowed)

	// the window slides: after it elapses the next call passes
	time.Sleep(1100 * time.Millisecond)
	allowed, err = s.IsAllowed(ctx, "u1")
	assert.NoError(t, err)
	assert.True(t, allowed)
}

func TestRemainingAndReset(t *testing.T) {

	var ctx = context.Background()

	rdb, cleanup := testutil.CreateRDB()
	defer cleanup()

	config := core.SetupConfig(core.ConfigInput{
		RateLimit: core.RateLimitConfig{Requests: 5, Window: 60},
	})
	s := NewService(rdb, config)

	remaining, err := s.Remaining(ctx, "u1")
	assert.NoError(t, err)
	assert.Equal(t, 5, remaining)

	_, err = s.IsAllowed(ctx, "u1")
	assert.NoError(t, err)
	_, err = s.IsAllowed(ctx, "u1")
	assert.NoError(t, err)

	remaining, err = s.Remaining(ctx, "u1")
	assert.NoError(t, err)
	assert.Equal(t, 3, remaining)

	err = s.Reset(ctx, "u1")
	assert.NoError(t, err)

	remaining, err = s.Remaining(ctx, "u1")
	assert.NoError(t, err)
	assert.Equal(t, 5, remaining)
}
