// Package authz composes claims, policy, hierarchy, cache and audit into
// the authorization decision pipeline.
package authz

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"reflect"
	"strings"
	"sync/atomic"
	"time"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"

	"github.com/offbit-ai/zeal-auth/core"
)

var tracer = otel.Tracer("authz")

// Service extends the core decision contract with the transport adapters
// built on it
type Service interface {
	core.AuthzService

	// ResolveSubject turns a Subject, a token string or a raw claims map
	// into a mapped Subject
	ResolveSubject(ctx context.Context, principal any) (core.Subject, error)

	// Identify populates the request identity when a valid bearer token is
	// present and passes through otherwise
	Identify(next echo.HandlerFunc) echo.HandlerFunc

	// Require gates a route on an authorization requirement
	Require(requirement Requirement) echo.MiddlewareFunc
}

type service struct {
	config    core.Config
	claims    core.ClaimsService
	policy    core.PolicyService
	hierarchy core.HierarchyService
	audit     core.AuditService
	cache     core.CacheService

	decisionCount atomic.Int64
	allowCount    atomic.Int64
	denyCount     atomic.Int64
	cacheHits     atomic.Int64
	cacheMisses   atomic.Int64
	errorCount    atomic.Int64
}

// NewService seeds the bootstrap policies and returns the decision service.
// The built-ins are also republished through the policy source chain, so a
// reload keeps them unless an operator overrides one by id.
func NewService(
	config core.Config,
	claims core.ClaimsService,
	policy core.PolicyService,
	hierarchy core.HierarchyService,
	audit core.AuditService,
	cache core.CacheService,
) Service {
	for _, builtin := range BootstrapPolicies() {
		err := policy.AddPolicy(context.Background(), builtin)
		if err != nil {
			slog.Error("failed to seed bootstrap policy",
				slog.String("policy", builtin.ID),
				slog.String("error", err.Error()),
			)
		}
	}

	return &service{
		config:    config,
		claims:    claims,
		policy:    policy,
		hierarchy: hierarchy,
		audit:     audit,
		cache:     cache,
	}
}

// Authorize runs the full decision pipeline. A failed token verification
// comes back as a denial; the error return is reserved for unusable inputs.
func (s *service) Authorize(ctx context.Context, subject any, resource any, action any) (core.AuthorizationResult, error) {
	ctx, span := tracer.Start(ctx, "Authz.Service.Authorize")
	defer span.End()

	started := time.Now()

	res, err := resolveResource(resource)
	if err != nil {
		s.errorCount.Add(1)
		span.RecordError(err)
		return core.AuthorizationResult{}, err
	}
	act, err := resolveAction(action)
	if err != nil {
		s.errorCount.Add(1)
		span.RecordError(err)
		return core.AuthorizationResult{}, err
	}
	if !supportedPrincipal(subject) {
		err = fmt.Errorf("unsupported subject type: %T", subject)
		s.errorCount.Add(1)
		span.RecordError(err)
		return core.AuthorizationResult{}, err
	}

	s.decisionCount.Add(1)

	subj, err := s.ResolveSubject(ctx, subject)
	if err != nil {
		span.RecordError(err)
		result := core.AuthorizationResult{
			Allowed:   false,
			Reason:    core.ReasonTokenInvalid + ": " + err.Error(),
			Timestamp: time.Now(),
		}
		s.denyCount.Add(1)
		s.logDecision(ctx, core.AuthorizationContext{
			Resource:    res,
			Action:      act,
			Environment: EnvironmentFromContext(ctx),
		}, result, time.Since(started), false)
		return result, nil
	}

	authCtx := core.AuthorizationContext{
		Subject:     subj,
		Resource:    res,
		Action:      act,
		Environment: EnvironmentFromContext(ctx),
	}

	cacheKey := decisionCacheKey(authCtx)
	if s.cache != nil {
		var cached core.AuthorizationResult
		err = s.cache.Get(ctx, cacheKey, &cached)
		if err == nil {
			s.cacheHits.Add(1)
			s.tally(cached.Allowed)
			cached.FromCache = true
			s.logDecision(ctx, authCtx, cached, time.Since(started), true)
			return cached, nil
		}
		s.cacheMisses.Add(1)
	}

	authCtx.Subject = s.enrich(ctx, subj)

	result, err := s.policy.Evaluate(ctx, authCtx)
	if err != nil {
		s.errorCount.Add(1)
		span.RecordError(err)
		result = core.AuthorizationResult{
			Allowed:   s.config.DefaultEffect == core.EffectAllow,
			Reason:    "Evaluation failed: " + err.Error(),
			Timestamp: time.Now(),
		}
		s.tally(result.Allowed)
		s.logDecision(ctx, authCtx, result, time.Since(started), false)
		return result, nil
	}

	s.tally(result.Allowed)
	s.logDecision(ctx, authCtx, result, time.Since(started), false)

	if s.cache != nil && result.TTL > 0 {
		err = s.cache.Set(ctx, cacheKey, result, time.Duration(result.TTL)*time.Second)
		if err != nil {
			slog.Warn("failed to cache decision", slog.String("error", err.Error()))
		}
	}

	return result, nil
}

func (s *service) ResolveSubject(ctx context.Context, principal any) (core.Subject, error) {
	switch typed := principal.(type) {
	case core.Subject:
		return typed, nil
	case *core.Subject:
		if typed == nil {
			return core.Subject{}, fmt.Errorf("nil subject")
		}
		return *typed, nil
	}

	claims, err := s.claims.ExtractClaims(ctx, principal)
	if err != nil {
		return core.Subject{}, err
	}
	return s.claims.MapToSubject(ctx, claims)
}

// enrich resolves the subject's hierarchy and folds inherited permissions
// in. Resolution failures degrade to the bare subject.
func (s *service) enrich(ctx context.Context, subject core.Subject) core.Subject {
	if s.hierarchy == nil {
		return subject
	}

	paths, err := s.hierarchy.Resolve(ctx, subject)
	if err != nil {
		slog.Warn("hierarchy resolution failed",
			slog.String("subject", subject.ID),
			slog.String("error", err.Error()),
		)
		return subject
	}
	if len(paths) == 0 {
		return subject
	}

	subject.Hierarchy = paths
	perms := append([]string(nil), subject.Permissions...)
	seen := make(map[string]bool, len(perms))
	for _, perm := range perms {
		seen[perm] = true
	}
	for _, hop := range paths {
		for _, perm := range hop.Permissions {
			if seen[perm] {
				continue
			}
			seen[perm] = true
			perms = append(perms, perm)
		}
	}
	subject.Permissions = perms

	return subject
}

func (s *service) ValidateToken(ctx context.Context, token string) (core.Claims, error) {
	ctx, span := tracer.Start(ctx, "Authz.Service.ValidateToken")
	defer span.End()

	claims, err := s.claims.ExtractClaims(ctx, token)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if !s.claims.ValidateClaims(claims) {
		return nil, core.NewErrorClaimsInvalid()
	}
	return claims, nil
}

// GetEffectivePermissions unions the subject's direct permissions with the
// inherited ones, optionally narrowed to a resource type
func (s *service) GetEffectivePermissions(ctx context.Context, subject core.Subject, resource *core.Resource) ([]string, error) {
	ctx, span := tracer.Start(ctx, "Authz.Service.GetEffectivePermissions")
	defer span.End()

	perms := append([]string(nil), subject.Permissions...)
	seen := make(map[string]bool, len(perms))
	for _, perm := range perms {
		seen[perm] = true
	}

	if s.hierarchy != nil {
		inherited, err := s.hierarchy.GetEffectivePermissions(ctx, subject)
		if err != nil {
			span.RecordError(err)
			return nil, err
		}
		for _, perm := range inherited {
			if seen[perm] {
				continue
			}
			seen[perm] = true
			perms = append(perms, perm)
		}
	}

	if resource == nil {
		return perms, nil
	}

	out := make([]string, 0, len(perms))
	for _, perm := range perms {
		if permissionApplies(perm, resource.Type) {
			out = append(out, perm)
		}
	}
	return out, nil
}

// permissionApplies keeps wildcard grants and permissions scoped to the
// resource type under the dotted `<type>.<action>` convention
func permissionApplies(perm, resourceType string) bool {
	if perm == "*" || resourceType == "" {
		return true
	}
	if perm == resourceType {
		return true
	}
	return strings.HasPrefix(perm, resourceType+".")
}

// ApplyConstraints shapes response data to a decision's constraints: field
// allowlist projection, equality filters and a result cap. Slices are
// filtered element-wise; anything else passes through untouched.
func (s *service) ApplyConstraints(data any, constraints *core.Constraints) any {
	if constraints == nil || data == nil {
		return data
	}

	switch typed := data.(type) {
	case map[string]any:
		return projectFields(typed, constraints.Fields)
	case []map[string]any:
		items := make([]any, len(typed))
		for i, item := range typed {
			items[i] = item
		}
		return applySliceConstraints(items, constraints)
	case []any:
		return applySliceConstraints(typed, constraints)
	}
	return data
}

func applySliceConstraints(items []any, constraints *core.Constraints) []any {
	out := make([]any, 0, len(items))
	for _, item := range items {
		entry, ok := item.(map[string]any)
		if !ok {
			out = append(out, item)
			continue
		}
		if !matchesFilters(entry, constraints.Filters) {
			continue
		}
		out = append(out, projectFields(entry, constraints.Fields))
	}
	if constraints.MaxResults > 0 && len(out) > constraints.MaxResults {
		out = out[:constraints.MaxResults]
	}
	return out
}

func matchesFilters(entry map[string]any, filters map[string]any) bool {
	for key, expected := range filters {
		path, err := core.ParsePath(key)
		if err != nil {
			return false
		}
		actual, defined := path.Resolve(entry)
		if !defined || !reflect.DeepEqual(actual, expected) {
			return false
		}
	}
	return true
}

func projectFields(entry map[string]any, fields []string) map[string]any {
	if len(fields) == 0 {
		return entry
	}
	out := make(map[string]any, len(fields))
	for _, field := range fields {
		if value, ok := entry[field]; ok {
			out[field] = value
		}
	}
	return out
}

// InvalidateSubject drops the subject's cached decisions and resolved
// hierarchy, typically after a role change or revocation
func (s *service) InvalidateSubject(ctx context.Context, subjectID string) error {
	ctx, span := tracer.Start(ctx, "Authz.Service.InvalidateSubject")
	defer span.End()

	if s.cache == nil {
		return nil
	}

	err := s.cache.InvalidatePrefix(ctx, "decision:"+subjectID+":")
	if err != nil {
		span.RecordError(err)
		return err
	}
	err = s.cache.InvalidatePrefix(ctx, "hierarchy:"+subjectID+":")
	if err != nil {
		span.RecordError(err)
		return err
	}
	return nil
}

func (s *service) GetMetrics() core.Metrics {
	return core.Metrics{
		Decisions:   s.decisionCount.Load(),
		Allowed:     s.allowCount.Load(),
		Denied:      s.denyCount.Load(),
		CacheHits:   s.cacheHits.Load(),
		CacheMisses: s.cacheMisses.Load(),
		Errors:      s.errorCount.Load(),
	}
}

func (s *service) tally(allowed bool) {
	if allowed {
		s.allowCount.Add(1)
	} else {
		s.denyCount.Add(1)
	}
}

func (s *service) logDecision(ctx context.Context, authCtx core.AuthorizationContext, result core.AuthorizationResult, took time.Duration, fromCache bool) {
	if s.audit == nil {
		return
	}
	s.audit.Log(ctx, core.AuditEntry{
		Subject:     authCtx.Subject,
		Resource:    authCtx.Resource,
		Action:      authCtx.Action,
		Result:      result,
		Duration:    took,
		FromCache:   fromCache,
		Environment: authCtx.Environment,
	})
}

func supportedPrincipal(principal any) bool {
	switch principal.(type) {
	case core.Subject, *core.Subject, string, core.Claims, map[string]any:
		return true
	}
	return false
}

func resolveResource(resource any) (core.Resource, error) {
	var out core.Resource
	switch typed := resource.(type) {
	case core.Resource:
		out = typed
	case *core.Resource:
		if typed == nil {
			return core.Resource{}, fmt.Errorf("nil resource")
		}
		out = *typed
	case string:
		out = core.Resource{Type: typed}
	default:
		return core.Resource{}, fmt.Errorf("unsupported resource type: %T", resource)
	}

	if !core.IsValidResourceType(out.Type) {
		slog.Warn("unknown resource type", slog.String("type", out.Type))
		out.Type = core.ResourceUnknown
	}
	return out, nil
}

func resolveAction(action any) (core.Action, error) {
	switch typed := action.(type) {
	case core.Action:
		return typed, nil
	case *core.Action:
		if typed == nil {
			return core.Action{}, fmt.Errorf("nil action")
		}
		return *typed, nil
	case string:
		return core.Action{Name: typed}, nil
	}
	return core.Action{}, fmt.Errorf("unsupported action type: %T", action)
}

// decisionCacheKey hashes the evaluation input; the subject id and tenant
// stay in clear so whole-subject invalidation can work by prefix. The
// environment timestamp is dropped from the hash, it would make every key
// unique; time-window rules accept TTL staleness instead.
func decisionCacheKey(authCtx core.AuthorizationContext) string {
	authCtx.Subject.Hierarchy = nil
	if authCtx.Environment != nil {
		env := *authCtx.Environment
		env.Timestamp = time.Time{}
		authCtx.Environment = &env
	}
	payload, _ := json.Marshal(authCtx)
	sum := sha256.Sum256(payload)
	return fmt.Sprintf("decision:%s:%s:%s", authCtx.Subject.ID, authCtx.Subject.TenantID, hex.EncodeToString(sum[:8]))
}
