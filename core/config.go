package core

import (
	"time"
)

// ConfigInput is the yaml-facing engine configuration
type ConfigInput struct {
	DefaultEffect   string `yaml:"defaultEffect"` // allow or deny; deny when unset
	Strategy        string `yaml:"strategy"`      // priority, first-match, all-match
	CachePrefix     string `yaml:"cachePrefix"`
	AllowUnverified bool   `yaml:"allowUnverified"`

	Cache     CacheConfig      `yaml:"cache"`
	Providers []ProviderConfig `yaml:"providers"`
	Mapping   MappingConfig    `yaml:"mapping"`
	Sources   []SourceConfig   `yaml:"sources"`
	Hierarchy HierarchyConfig  `yaml:"hierarchy"`
	Audit     AuditConfig      `yaml:"audit"`
	Lock      LockConfig       `yaml:"lock"`
	RateLimit RateLimitConfig  `yaml:"rateLimit"`
}

type CacheConfig struct {
	TTL      int `yaml:"ttl"`      // seconds, default 300
	AllowTTL int `yaml:"allowTTL"` // seconds, default 600
	DenyTTL  int `yaml:"denyTTL"`  // seconds, default 60
}

// ProviderConfig describes one identity provider. Exactly one of PublicKey,
// Secret and JWKSURL is expected; ES256K providers verify by recovering the
// signer address instead.
type ProviderConfig struct {
	ID           string            `yaml:"id"`
	Issuer       string            `yaml:"issuer"`
	Audience     string            `yaml:"audience"`
	Algorithm    string            `yaml:"algorithm"` // RS256, ES256, HS256, ES256K
	PublicKey    string            `yaml:"publicKey"` // PEM
	Secret       string            `yaml:"secret"`    // HMAC and sdk tokens
	JWKSURL      string            `yaml:"jwksUrl"`
	ClaimRenames map[string]string `yaml:"claimRenames"` // target path <- source path
}

// MappingConfig lists candidate claim paths per subject field; the first
// path that resolves wins
type MappingConfig struct {
	ID             []string `yaml:"id"`
	Type           []string `yaml:"type"`
	TenantID       []string `yaml:"tenantId"`
	OrganizationID []string `yaml:"organizationId"`
	Teams          []string `yaml:"teams"`
	Groups         []string `yaml:"groups"`
	Roles          []string `yaml:"roles"`
	Permissions    []string `yaml:"permissions"`
}

type SourceConfig struct {
	Type string `yaml:"type"` // file, database, api
	Path string `yaml:"path"`
	URL  string `yaml:"url"`
}

type HierarchyConfig struct {
	Providers       []HierarchyProviderConfig `yaml:"providers"`
	RefreshInterval int                       `yaml:"refreshInterval"` // seconds; cache.ttl when unset
}

type HierarchyProviderConfig struct {
	Type  string          `yaml:"type"` // database, api, static
	URL   string          `yaml:"url"`
	Nodes []HierarchyNode `yaml:"nodes"`
}

type AuditConfig struct {
	Enabled       bool              `yaml:"enabled"`
	SamplingRate  float64           `yaml:"samplingRate"` // default 1.0
	Buffered      bool              `yaml:"buffered"`
	BufferSize    int               `yaml:"bufferSize"`    // default 100
	FlushInterval int               `yaml:"flushInterval"` // seconds, default 10
	SensitiveKeys []string          `yaml:"sensitiveKeys"`
	Sinks         []AuditSinkConfig `yaml:"sinks"`
}

type AuditSinkConfig struct {
	Type  string `yaml:"type"` // file, database, syslog, search
	Path  string `yaml:"path"`
	URL   string `yaml:"url"`
	Index string `yaml:"index"`
	Tag   string `yaml:"tag"`
}

type LockConfig struct {
	Retries    int `yaml:"retries"`    // default 3
	RetryDelay int `yaml:"retryDelay"` // milliseconds, default 100
	TTL        int `yaml:"ttl"`        // milliseconds, default 30000
}

type RateLimitConfig struct {
	Requests int `yaml:"requests"` // default 100
	Window   int `yaml:"window"`   // seconds, default 60
}

// Config is the runtime configuration handed to services
type Config struct {
	DefaultEffect   string
	Strategy        string
	CachePrefix     string
	AllowUnverified bool

	CacheTTL        time.Duration
	AllowTTL        time.Duration
	DenyTTL         time.Duration
	RefreshInterval time.Duration

	Providers []ProviderConfig
	Mapping   MappingConfig
	Sources   []SourceConfig
	Hierarchy HierarchyConfig
	Audit     AuditConfig
	Lock      LockConfig
	RateLimit RateLimitConfig
}

var defaultSensitiveKeys = []string{"password", "secret", "token", "apiKey"}

// SetupConfig normalizes a ConfigInput into the runtime Config, filling in
// the documented defaults. The default effect is deny; fail-open is opt-in.
func SetupConfig(base ConfigInput) Config {
	effect := base.DefaultEffect
	if effect != EffectAllow {
		effect = EffectDeny
	}

	strategy := base.Strategy
	switch strategy {
	case StrategyPriority, StrategyFirstMatch, StrategyAllMatch:
	default:
		strategy = StrategyPriority
	}

	cacheTTL := base.Cache.TTL
	if cacheTTL <= 0 {
		cacheTTL = 300
	}
	allowTTL := base.Cache.AllowTTL
	if allowTTL <= 0 {
		allowTTL = DefaultAllowTTL
	}
	denyTTL := base.Cache.DenyTTL
	if denyTTL <= 0 {
		denyTTL = DefaultDenyTTL
	}

	refresh := base.Hierarchy.RefreshInterval
	if refresh <= 0 {
		refresh = cacheTTL
	}

	mapping := base.Mapping
	if len(mapping.ID) == 0 {
		mapping.ID = []string{"sub", "userId"}
	}
	if len(mapping.Type) == 0 {
		mapping.Type = []string{"type"}
	}
	if len(mapping.TenantID) == 0 {
		mapping.TenantID = []string{"tenant_id", "tenantId"}
	}
	if len(mapping.OrganizationID) == 0 {
		mapping.OrganizationID = []string{"organization_id", "org_id"}
	}
	if len(mapping.Teams) == 0 {
		mapping.Teams = []string{"teams"}
	}
	if len(mapping.Groups) == 0 {
		mapping.Groups = []string{"groups"}
	}
	if len(mapping.Roles) == 0 {
		mapping.Roles = []string{"roles"}
	}
	if len(mapping.Permissions) == 0 {
		mapping.Permissions = []string{"permissions"}
	}

	audit := base.Audit
	if audit.SamplingRate <= 0 || audit.SamplingRate > 1.0 {
		audit.SamplingRate = 1.0
	}
	if audit.BufferSize <= 0 {
		audit.BufferSize = 100
	}
	if audit.FlushInterval <= 0 {
		audit.FlushInterval = 10
	}
	if len(audit.SensitiveKeys) == 0 {
		audit.SensitiveKeys = defaultSensitiveKeys
	}

	lock := base.Lock
	if lock.Retries <= 0 {
		lock.Retries = 3
	}
	if lock.RetryDelay <= 0 {
		lock.RetryDelay = 100
	}
	if lock.TTL <= 0 {
		lock.TTL = 30000
	}

	rate := base.RateLimit
	if rate.Requests <= 0 {
		rate.Requests = 100
	}
	if rate.Window <= 0 {
		rate.Window = 60
	}

	return Config{
		DefaultEffect:   effect,
		Strategy:        strategy,
		CachePrefix:     base.CachePrefix,
		AllowUnverified: base.AllowUnverified,
		CacheTTL:        time.Duration(cacheTTL) * time.Second,
		AllowTTL:        time.Duration(allowTTL) * time.Second,
		DenyTTL:         time.Duration(denyTTL) * time.Second,
		RefreshInterval: time.Duration(refresh) * time.Second,
		Providers:       base.Providers,
		Mapping:         mapping,
		Sources:         base.Sources,
		Hierarchy:       base.Hierarchy,
		Audit:           audit,
		Lock:            lock,
		RateLimit:       rate,
	}
}
