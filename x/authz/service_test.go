package authz

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"github.com/offbit-ai/zeal-auth/core"
	"github.com/offbit-ai/zeal-auth/core/mock"
	"github.com/offbit-ai/zeal-auth/x/claims"
	"github.com/offbit-ai/zeal-auth/x/policy"
)

const (
	testIssuer = "https://issuer.zeal.test"
	testSecret = "authz-test-secret"
)

func newTestEngine(t *testing.T, input core.ConfigInput, cache core.CacheService, hierarchy core.HierarchyService, extra ...core.Policy) Service {
	t.Helper()

	if len(input.Providers) == 0 {
		input.Providers = []core.ProviderConfig{
			{ID: "test-hs256", Issuer: testIssuer, Secret: testSecret},
		}
	}
	config := core.SetupConfig(input)

	sources := []policy.Source{policy.NewStaticSource(BootstrapPolicies())}
	if len(extra) > 0 {
		sources = append(sources, policy.NewStaticSource(extra))
	}
	policyService := policy.NewService(config, sources)
	err := policyService.Load(context.Background())
	assert.NoError(t, err)

	return NewService(config, claims.NewService(config), policyService, hierarchy, nil, cache)
}

func signToken(t *testing.T, payload jwt.MapClaims) string {
	t.Helper()
	if _, ok := payload["iss"]; !ok {
		payload["iss"] = testIssuer
	}
	if _, ok := payload["exp"]; !ok {
		payload["exp"] = time.Now().Add(time.Hour).Unix()
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, payload).SignedString([]byte(testSecret))
	assert.NoError(t, err)
	return token
}

func TestAuthorizeOwnerAllowed(t *testing.T) {
	ctx := context.Background()
	engine := newTestEngine(t, core.ConfigInput{}, nil, nil)

	subject := core.Subject{ID: "user1", TenantID: "tenant1"}
	resource := core.Resource{Type: core.ResourceWorkflow, ID: "wf1", OwnerID: "user1", TenantID: "tenant1"}

	result, err := engine.Authorize(ctx, subject, resource, core.Action{Name: core.ActionDelete})
	assert.NoError(t, err)
	assert.True(t, result.Allowed)
	assert.Equal(t, core.ReasonResourceOwner, result.Reason)
	assert.Equal(t, core.DefaultAllowTTL, result.TTL)
}

func TestAuthorizeCrossTenantDenied(t *testing.T) {
	ctx := context.Background()
	engine := newTestEngine(t, core.ConfigInput{}, nil, nil)

	// even the owner is denied once the resource belongs to another tenant
	subject := core.Subject{ID: "user1", TenantID: "tenant1"}
	resource := core.Resource{Type: core.ResourceWorkflow, ID: "wf1", OwnerID: "user1", TenantID: "tenant2"}

	result, err := engine.Authorize(ctx, subject, resource, core.Action{Name: core.ActionRead})
	assert.NoError(t, err)
	assert.False(t, result.Allowed)
	assert.Contains(t, result.Reason, "tenant")
	assert.Equal(t, core.DefaultDenyTTL, result.TTL)
}

func TestAuthorizeCrossTenantBypass(t *testing.T) {
	ctx := context.Background()
	engine := newTestEngine(t, core.ConfigInput{}, nil, nil)

	foreign := core.Resource{Type: core.ResourceWorkflow, ID: "wf1", OwnerID: "admin1", TenantID: "tenant2"}

	superadmin := core.Subject{ID: "admin1", TenantID: "tenant1", Roles: []string{"superadmin"}}
	result, err := engine.Authorize(ctx, superadmin, foreign, core.Action{Name: core.ActionRead})
	assert.NoError(t, err)
	assert.True(t, result.Allowed)

	// the cross-access permission only lifts the tenant wall; access still
	// needs a matching grant, ownership here
	courier := core.Subject{ID: "admin1", TenantID: "tenant1", Permissions: []string{"tenant.cross-access"}}
	result, err = engine.Authorize(ctx, courier, foreign, core.Action{Name: core.ActionRead})
	assert.NoError(t, err)
	assert.True(t, result.Allowed)
	assert.Equal(t, core.ReasonResourceOwner, result.Reason)

	stranger := core.Subject{ID: "user9", TenantID: "tenant1", Permissions: []string{"tenant.cross-access"}}
	result, err = engine.Authorize(ctx, stranger, foreign, core.Action{Name: core.ActionRead})
	assert.NoError(t, err)
	assert.False(t, result.Allowed)
	assert.Equal(t, core.ReasonNoMatch, result.Reason)
}

func TestAuthorizeSharedAndPublicReads(t *testing.T) {
	ctx := context.Background()
	engine := newTestEngine(t, core.ConfigInput{}, nil, nil)

	subject := core.Subject{ID: "user2", TenantID: "tenant1"}

	shared := core.Resource{Type: core.ResourceWorkflow, ID: "wf1", OwnerID: "user1", TenantID: "tenant1", SharedWith: []string{"user2"}}
	result, err := engine.Authorize(ctx, subject, shared, core.Action{Name: core.ActionExecute})
	assert.NoError(t, err)
	assert.True(t, result.Allowed)

	result, err = engine.Authorize(ctx, subject, shared, core.Action{Name: core.ActionDelete})
	assert.NoError(t, err)
	assert.False(t, result.Allowed)

	public := core.Resource{Type: core.ResourceTemplate, ID: "tpl1", OwnerID: "user1", TenantID: "tenant1", Visibility: "public"}
	result, err = engine.Authorize(ctx, subject, public, core.Action{Name: core.ActionRead})
	assert.NoError(t, err)
	assert.True(t, result.Allowed)

	result, err = engine.Authorize(ctx, subject, public, core.Action{Name: core.ActionUpdate})
	assert.NoError(t, err)
	assert.False(t, result.Allowed)
}

func TestAuthorizeWithToken(t *testing.T) {
	ctx := context.Background()
	engine := newTestEngine(t, core.ConfigInput{}, nil, nil)

	token := signToken(t, jwt.MapClaims{"sub": "user7", "tenant_id": "tenant1"})
	resource := core.Resource{Type: core.ResourceWorkflow, ID: "wf1", OwnerID: "user7", TenantID: "tenant1"}

	result, err := engine.Authorize(ctx, token, resource, core.ActionRead)
	assert.NoError(t, err)
	assert.True(t, result.Allowed)
	assert.Equal(t, core.ReasonResourceOwner, result.Reason)

	// a bad token is a denial, not an engine error
	result, err = engine.Authorize(ctx, "not-a-token", resource, core.ActionRead)
	assert.NoError(t, err)
	assert.False(t, result.Allowed)
	assert.Contains(t, result.Reason, core.ReasonTokenInvalid)
}

func TestAuthorizeResourceForms(t *testing.T) {
	ctx := context.Background()
	engine := newTestEngine(t, core.ConfigInput{}, nil, nil)

	subject := core.Subject{ID: "user1", TenantID: "tenant1"}

	result, err := engine.Authorize(ctx, subject, core.ResourceWorkflow, core.ActionRead)
	assert.NoError(t, err)
	assert.False(t, result.Allowed)
	assert.Equal(t, core.ReasonNoMatch, result.Reason)

	// unrecognized types fold to unknown instead of failing
	result, err = engine.Authorize(ctx, subject, "starship", core.ActionRead)
	assert.NoError(t, err)
	assert.False(t, result.Allowed)
}

func TestDecisionCacheTTLAsymmetry(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockCache := mock_core.NewMockCacheService(ctrl)
	mockCache.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any()).Return(fmt.Errorf("cache miss")).Times(2)
	mockCache.EXPECT().Set(gomock.Any(), gomock.Any(), gomock.Any(), time.Duration(core.DefaultAllowTTL)*time.Second).Return(nil)
	mockCache.EXPECT().Set(gomock.Any(), gomock.Any(), gomock.Any(), time.Duration(core.DefaultDenyTTL)*time.Second).Return(nil)

	engine := newTestEngine(t, core.ConfigInput{}, mockCache, nil)

	subject := core.Subject{ID: "user1", TenantID: "tenant1"}
	owned := core.Resource{Type: core.ResourceWorkflow, ID: "wf1", OwnerID: "user1", TenantID: "tenant1"}
	foreign := core.Resource{Type: core.ResourceWorkflow, ID: "wf2", OwnerID: "user9", TenantID: "tenant2"}

	allow, err := engine.Authorize(ctx, subject, owned, core.Action{Name: core.ActionRead})
	assert.NoError(t, err)
	assert.True(t, allow.Allowed)
	assert.Equal(t, core.DefaultAllowTTL, allow.TTL)

	deny, err := engine.Authorize(ctx, subject, foreign, core.Action{Name: core.ActionRead})
	assert.NoError(t, err)
	assert.False(t, deny.Allowed)
	assert.Equal(t, core.DefaultDenyTTL, deny.TTL)
}

func TestAuthorizeNoMatchNotCached(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	// no Set expected: an unmatched default deny carries no TTL
	mockCache := mock_core.NewMockCacheService(ctrl)
	mockCache.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any()).Return(fmt.Errorf("cache miss"))

	engine := newTestEngine(t, core.ConfigInput{}, mockCache, nil)

	subject := core.Subject{ID: "user1", TenantID: "tenant1"}
	resource := core.Resource{Type: core.ResourceWorkflow, ID: "wf9", OwnerID: "someone-else", TenantID: "tenant1"}

	result, err := engine.Authorize(context.Background(), subject, resource, core.Action{Name: core.ActionRead})
	assert.NoError(t, err)
	assert.False(t, result.Allowed)
	assert.Equal(t, core.ReasonNoMatch, result.Reason)
	assert.Zero(t, result.TTL)
}

func TestAuthorizeServesFromCache(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	stored := core.AuthorizationResult{Allowed: true, Reason: core.ReasonResourceOwner, TTL: core.DefaultAllowTTL}
	mockCache := mock_core.NewMockCacheService(ctrl)
	mockCache.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, key string, dest any) error {
			*dest.(*core.AuthorizationResult) = stored
			return nil
		},
	)

	engine := newTestEngine(t, core.ConfigInput{}, mockCache, nil)

	subject := core.Subject{ID: "user1", TenantID: "tenant1"}
	resource := core.Resource{Type: core.ResourceWorkflow, ID: "wf1", TenantID: "tenant1"}

	result, err := engine.Authorize(context.Background(), subject, resource, core.Action{Name: core.ActionRead})
	assert.NoError(t, err)
	assert.True(t, result.Allowed)
	assert.True(t, result.FromCache)

	metrics := engine.GetMetrics()
	assert.Equal(t, int64(1), metrics.CacheHits)
	assert.Equal(t, int64(0), metrics.CacheMisses)
}

func TestAuthorizeHierarchyEnrichment(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockHierarchy := mock_core.NewMockHierarchyService(ctrl)
	mockHierarchy.EXPECT().Resolve(gomock.Any(), gomock.Any()).Return([]core.HierarchyPath{
		{Type: core.NodeTypeTeam, ID: "team1", Name: "Platform", Level: 1, Permissions: []string{"workflow.read"}},
	}, nil)

	grant := core.Policy{
		ID:          "perm-read",
		Description: "Permission grant",
		Enabled:     true,
		Priority:    100,
		Effect:      core.EffectAllow,
		Conditions: []core.PolicyCondition{{
			Type: core.ConditionAll,
			Rules: []core.PolicyRule{
				{Attribute: "subject.permissions", Operator: "contains", Value: "workflow.read"},
				{Attribute: "action.name", Operator: "equals", Value: core.ActionRead},
			},
		}},
	}

	engine := newTestEngine(t, core.ConfigInput{}, nil, mockHierarchy, grant)

	// the subject has no direct permissions; the grant matches through the
	// permissions inherited from its team
	subject := core.Subject{ID: "user1", TenantID: "tenant1"}
	resource := core.Resource{Type: core.ResourceWorkflow, ID: "wf1", TenantID: "tenant1"}

	result, err := engine.Authorize(context.Background(), subject, resource, core.Action{Name: core.ActionRead})
	assert.NoError(t, err)
	assert.True(t, result.Allowed)
	assert.Equal(t, "Permission grant", result.Reason)
}

func TestAuthorizeDegradesWithoutHierarchy(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockHierarchy := mock_core.NewMockHierarchyService(ctrl)
	mockHierarchy.EXPECT().Resolve(gomock.Any(), gomock.Any()).Return(nil, fmt.Errorf("store down"))

	engine := newTestEngine(t, core.ConfigInput{}, nil, mockHierarchy)

	subject := core.Subject{ID: "user1", TenantID: "tenant1"}
	resource := core.Resource{Type: core.ResourceWorkflow, ID: "wf1", OwnerID: "user1", TenantID: "tenant1"}

	// resolution failure falls back to the bare subject, owner still wins
	result, err := engine.Authorize(context.Background(), subject, resource, core.Action{Name: core.ActionRead})
	assert.NoError(t, err)
	assert.True(t, result.Allowed)
	assert.Equal(t, core.ReasonResourceOwner, result.Reason)
}

func TestAuthorizeUsesContextEnvironment(t *testing.T) {
	office := core.Policy{
		ID:          "office-only",
		Description: "Office network",
		Enabled:     true,
		Priority:    50,
		Effect:      core.EffectAllow,
		Conditions: []core.PolicyCondition{{
			Type: core.ConditionAll,
			Rules: []core.PolicyRule{
				{Attribute: "environment.ip", Operator: "startsWith", Value: "10.1."},
			},
		}},
	}
	engine := newTestEngine(t, core.ConfigInput{}, nil, nil, office)

	subject := core.Subject{ID: "user1", TenantID: "tenant1"}
	resource := core.Resource{Type: core.ResourceWorkflow, ID: "wf1", TenantID: "tenant1"}

	ctx := WithEnvironment(context.Background(), core.Environment{IP: "10.1.2.3"})
	result, err := engine.Authorize(ctx, subject, resource, core.Action{Name: core.ActionRead})
	assert.NoError(t, err)
	assert.True(t, result.Allowed)
	assert.Equal(t, "Office network", result.Reason)

	result, err = engine.Authorize(context.Background(), subject, resource, core.Action{Name: core.ActionRead})
	assert.NoError(t, err)
	assert.False(t, result.Allowed)
}

func TestValidateToken(t *testing.T) {
	ctx := context.Background()
	engine := newTestEngine(t, core.ConfigInput{}, nil, nil)

	token := signToken(t, jwt.MapClaims{"sub": "user1", "tenant_id": "tenant1"})
	parsed, err := engine.ValidateToken(ctx, token)
	assert.NoError(t, err)
	assert.Equal(t, "user1", parsed.GetString("sub"))

	_, err = engine.ValidateToken(ctx, "garbage")
	assert.Error(t, err)
}

func TestGetEffectivePermissions(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockHierarchy := mock_core.NewMockHierarchyService(ctrl)
	mockHierarchy.EXPECT().GetEffectivePermissions(gomock.Any(), gomock.Any()).
		Return([]string{"workflow.write", "execution.read", "*"}, nil).Times(2)

	engine := newTestEngine(t, core.ConfigInput{}, nil, mockHierarchy)

	subject := core.Subject{ID: "user1", Permissions: []string{"workflow.read"}}

	all, err := engine.GetEffectivePermissions(context.Background(), subject, nil)
	assert.NoError(t, err)
	assert.ElementsMatch(t, []string{"workflow.read", "workflow.write", "execution.read", "*"}, all)

	scoped, err := engine.GetEffectivePermissions(context.Background(), subject, &core.Resource{Type: core.ResourceWorkflow})
	assert.NoError(t, err)
	assert.ElementsMatch(t, []string{"workflow.read", "workflow.write", "*"}, scoped)
}

func TestApplyConstraints(t *testing.T) {
	engine := newTestEngine(t, core.ConfigInput{}, nil, nil)

	rows := []any{
		map[string]any{"id": "wf1", "tenantId": "tenant1", "secret": "s3cr3t"},
		map[string]any{"id": "wf2", "tenantId": "tenant2", "secret": "hunter2"},
		map[string]any{"id": "wf3", "tenantId": "tenant1"},
	}

	shaped := engine.ApplyConstraints(rows, &core.Constraints{
		Fields:  []string{"id"},
		Filters: map[string]any{"tenantId": "tenant1"},
	})
	assert.Equal(t, []any{
		map[string]any{"id": "wf1"},
		map[string]any{"id": "wf3"},
	}, shaped)

	capped := engine.ApplyConstraints(rows, &core.Constraints{MaxResults: 1})
	assert.Len(t, capped, 1)

	single := engine.ApplyConstraints(map[string]any{"id": "wf1", "secret": "x"}, &core.Constraints{Fields: []string{"id"}})
	assert.Equal(t, map[string]any{"id": "wf1"}, single)

	assert.Equal(t, rows, engine.ApplyConstraints(rows, nil))
	assert.Equal(t, "scalar", engine.ApplyConstraints("scalar", &core.Constraints{Fields: []string{"id"}}))
}

func TestInvalidateSubject(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockCache := mock_core.NewMockCacheService(ctrl)
	mockCache.EXPECT().InvalidatePrefix(gomock.Any(), "decision:user1:").Return(nil)
	mockCache.EXPECT().InvalidatePrefix(gomock.Any(), "hierarchy:user1:").Return(nil)

	engine := newTestEngine(t, core.ConfigInput{}, mockCache, nil)

	err := engine.InvalidateSubject(context.Background(), "user1")
	assert.NoError(t, err)
}

func TestMetricsAndUnsupportedInputs(t *testing.T) {
	ctx := context.Background()
	engine := newTestEngine(t, core.ConfigInput{}, nil, nil)

	subject := core.Subject{ID: "user1", TenantID: "tenant1"}
	owned := core.Resource{Type: core.ResourceWorkflow, ID: "wf1", OwnerID: "user1", TenantID: "tenant1"}
	foreign := core.Resource{Type: core.ResourceWorkflow, ID: "wf2", OwnerID: "user9", TenantID: "tenant2"}

	_, err := engine.Authorize(ctx, subject, owned, core.Action{Name: core.ActionRead})
	assert.NoError(t, err)
	_, err = engine.Authorize(ctx, subject, foreign, core.Action{Name: core.ActionRead})
	assert.NoError(t, err)

	_, err = engine.Authorize(ctx, 42, owned, core.Action{Name: core.ActionRead})
	assert.Error(t, err)
	_, err = engine.Authorize(ctx, subject, 42, core.Action{Name: core.ActionRead})
	assert.Error(t, err)

	metrics := engine.GetMetrics()
	assert.Equal(t, int64(2), metrics.Decisions)
	assert.Equal(t, int64(1), metrics.Allowed)
	assert.Equal(t, int64(1), metrics.Denied)
	assert.Equal(t, int64(2), metrics.Errors)
}
