//go:generate go run go.uber.org/mock/mockgen -source=interfaces.go -destination=mock/services.go
package core

import (
	"context"
	"time"
)

type ClaimsService interface {
	// ExtractClaims accepts a bearer token string or a raw claims map
	ExtractClaims(ctx context.Context, tokenOrClaims any) (Claims, error)
	MapToSubject(ctx context.Context, claims Claims) (Subject, error)
	ValidateClaims(claims Claims) bool
	TransformClaims(providerID string, claims Claims) Claims
}

type PolicyService interface {
	Evaluate(ctx context.Context, authCtx AuthorizationContext) (AuthorizationResult, error)
	Load(ctx context.Context) error
	AddPolicy(ctx context.Context, policy Policy) error
	RemovePolicy(ctx context.Context, id string) error
	GetPolicy(ctx context.Context, id string) (Policy, error)
	ListPolicies(ctx context.Context) ([]Policy, error)
}

type HierarchyService interface {
	Resolve(ctx context.Context, subject Subject) ([]HierarchyPath, error)
	GetEffectivePermissions(ctx context.Context, subject Subject) ([]string, error)
	BelongsTo(ctx context.Context, subject Subject, entityID, entityType string) (bool, error)
	GetAncestors(ctx context.Context, nodeID string) ([]HierarchyNode, error)
	GetDescendants(ctx context.Context, nodeID string) ([]HierarchyNode, error)
	AddNode(ctx context.Context, node HierarchyNode) error
	RemoveNode(ctx context.Context, nodeID string) error
	Refresh(ctx context.Context) error
}

type AuditService interface {
	// Log never fails the decision path; sink errors are swallowed and logged
	Log(ctx context.Context, entry AuditEntry)
	Query(ctx context.Context, query AuditQuery) ([]AuditEntry, error)
	GenerateReport(ctx context.Context, start, end time.Time, groupBy string) (AuditReport, error)
	Close() error
}

type CacheService interface {
	Get(ctx context.Context, key string, dest any) error
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	MGet(ctx context.Context, keys []string) (map[string]string, error)
	MSet(ctx context.Context, entries map[string]any, ttl time.Duration) error
	Invalidate(ctx context.Context, key string) error
	InvalidatePrefix(ctx context.Context, prefix string) error
	Clear(ctx context.Context) error
	Close() error
}

type LockService interface {
	// Acquire returns the owner token; only the holder of the token can
	// release or extend
	Acquire(ctx context.Context, resource string, ttl time.Duration) (string, error)
	Release(ctx context.Context, resource, token string) (bool, error)
	Extend(ctx context.Context, resource, token string, ttl time.Duration) (bool, error)
}

type RateLimitService interface {
	IsAllowed(ctx context.Context, identifier string) (bool, error)
	Remaining(ctx context.Context, identifier string) (int, error)
	Reset(ctx context.Context, identifier string) error
}

type AuthzService interface {
	// Authorize accepts a Subject, a token string or a raw claims map as
	// subject, and a Resource or resource type string as resource
	Authorize(ctx context.Context, subject any, resource any, action any) (AuthorizationResult, error)
	ValidateToken(ctx context.Context, token string) (Claims, error)
	GetEffectivePermissions(ctx context.Context, subject Subject, resource *Resource) ([]string, error)
	ApplyConstraints(data any, constraints *Constraints) any
	InvalidateSubject(ctx context.Context, subjectID string) error
	GetMetrics() Metrics
}

type AgentService interface {
	Boot()
}
