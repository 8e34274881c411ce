//go:build wireinject

package zealauth

import (
	"github.com/bradfitz/gomemcache/memcache"
	"github.com/google/wire"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/offbit-ai/zeal-auth/core"

	"github.com/offbit-ai/zeal-auth/x/agent"
	"github.com/offbit-ai/zeal-auth/x/audit"
	"github.com/offbit-ai/zeal-auth/x/authz"
	"github.com/offbit-ai/zeal-auth/x/cache"
	"github.com/offbit-ai/zeal-auth/x/claims"
	"github.com/offbit-ai/zeal-auth/x/hierarchy"
	"github.com/offbit-ai/zeal-auth/x/lock"
	"github.com/offbit-ai/zeal-auth/x/policy"
	"github.com/offbit-ai/zeal-auth/x/ratelimit"
)

// Lv0
var claimsServiceProvider = wire.NewSet(claims.NewService)
var cacheServiceProvider = wire.NewSet(cache.NewService)
var lockServiceProvider = wire.NewSet(lock.NewService)
var rateLimitServiceProvider = wire.NewSet(ratelimit.NewService)

// Lv1
var policyServiceProvider = wire.NewSet(policy.NewService, policy.NewRepository, NewPolicySources)
var hierarchyServiceProvider = wire.NewSet(hierarchy.NewService, hierarchy.NewRepository, hierarchy.NewProviders)
var auditServiceProvider = wire.NewSet(audit.NewService, audit.NewProviders)

// Lv2
var authzServiceProvider = wire.NewSet(authz.NewService, claimsServiceProvider)

// -----------

func SetupCacheService(backend string, rdb *redis.Client, mc *memcache.Client, db *gorm.DB, config core.Config) (core.CacheService, error) {
	wire.Build(cacheServiceProvider)
	return nil, nil
}

func SetupClaimsService(config core.Config) core.ClaimsService {
	wire.Build(claimsServiceProvider)
	return nil
}

func SetupLockService(rdb *redis.Client, config core.Config) core.LockService {
	wire.Build(lockServiceProvider)
	return nil
}

func SetupRateLimitService(rdb *redis.Client, config core.Config) core.RateLimitService {
	wire.Build(rateLimitServiceProvider)
	return nil
}

func SetupPolicyService(db *gorm.DB, rdb *redis.Client, config core.Config) core.PolicyService {
	wire.Build(policyServiceProvider)
	return nil
}

func SetupHierarchyService(db *gorm.DB, cache core.CacheService, config core.Config) core.HierarchyService {
	wire.Build(hierarchyServiceProvider)
	return nil
}

func SetupAuditService(db *gorm.DB, config core.Config) core.AuditService {
	wire.Build(auditServiceProvider)
	return nil
}

func SetupAuthzService(policy core.PolicyService, hierarchy core.HierarchyService, audit core.AuditService, cache core.CacheService, config core.Config) authz.Service {
	wire.Build(authzServiceProvider)
	return nil
}

func SetupAuthzHandler(service authz.Service, audit core.AuditService) authz.Handler {
	wire.Build(authz.NewHandler)
	return nil
}

func SetupSocketHandler(service authz.Service, rdb *redis.Client, config core.Config) *authz.SocketHandler {
	wire.Build(newSocketHandler, rateLimitServiceProvider)
	return nil
}

func SetupAgent(policy core.PolicyService, hierarchy core.HierarchyService, rdb *redis.Client, config core.Config) core.AgentService {
	wire.Build(agent.NewAgent, lockServiceProvider)
	return nil
}

// newSocketHandler assembles the websocket pipeline: frames are rate limited
// per subject, then channel subscriptions are authorized.
func newSocketHandler(service authz.Service, limiter core.RateLimitService, rdb *redis.Client) *authz.SocketHandler {
	return authz.NewSocketHandler(service, rdb, authz.RateLimitHook(limiter), authz.ChannelAuthorizationHook(service))
}
