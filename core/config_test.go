package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSetupConfigDefaults(t *testing.T) {
	conf := SetupConfig(ConfigInput{})

	assert.Equal(t, EffectDeny, conf.DefaultEffect)
	assert.Equal(t, StrategyPriority, conf.Strategy)
	assert.Equal(t, 300*time.Second, conf.CacheTTL)
	assert.Equal(t, 600*time.Second, conf.AllowTTL)
	assert.Equal(t, 60*time.Second, conf.DenyTTL)
	assert.Equal(t, conf.CacheTTL, conf.RefreshInterval)
	assert.Equal(t, []string{"sub", "userId"}, conf.Mapping.ID)
	assert.Equal(t, 1.0, conf.Audit.SamplingRate)
	assert.Equal(t, 100, conf.Audit.BufferSize)
	assert.Contains(t, conf.Audit.SensitiveKeys, "password")
	assert.Contains(t, conf.Audit.SensitiveKeys, "apiKey")
	assert.Equal(t, 3, conf.Lock.Retries)
	assert.False(t, conf.AllowUnverified)
}

func TestSetupConfigOverrides(t *testing.T) {
	conf := SetupConfig(ConfigInput{
		DefaultEffect: "allow",
		Strategy:      "all-match",
		Cache:         CacheConfig{TTL: 120, AllowTTL: 30, DenyTTL: 5},
		Hierarchy:     HierarchyConfig{RefreshInterval: 60},
	})

	assert.Equal(t, EffectAllow, conf.DefaultEffect)
	assert.Equal(t, StrategyAllMatch, conf.Strategy)
	assert.Equal(t, 120*time.Second, conf.CacheTTL)
	assert.Equal(t, 30*time.Second, conf.AllowTTL)
	assert.Equal(t, 5*time.Second, conf.DenyTTL)
	assert.Equal(t, 60*time.Second, conf.RefreshInterval)
}

func TestSetupConfigBadEffect(t *testing.T) {
	conf := SetupConfig(ConfigInput{DefaultEffect: "whatever"})
	assert.Equal(t, EffectDeny, conf.DefaultEffect)
}
