package authz

import (
	"github.com/offbit-ai/zeal-auth/core"
)

// built-in policy ids carry this prefix so user policies never collide by
// accident, while an operator can still override one deliberately
const bootstrapPrefix = "zeal.bootstrap."

// BootstrapPolicies returns the built-in rule set seeded into every engine:
// tenant isolation, the superadmin escape hatch, and owner/shared/public
// read access. Priorities put the cross-tenant deny above everything a user
// policy would normally claim.
func BootstrapPolicies() []core.Policy {
	return []core.Policy{
		{
			ID:          bootstrapPrefix + "cross-tenant-deny",
			Description: core.ReasonTenantMismatch,
			Enabled:     true,
			Priority:    1000,
			Effect:      core.EffectDeny,
			Conditions: []core.PolicyCondition{
				{
					Type: core.ConditionAll,
					Rules: []core.PolicyRule{
						{Attribute: "resource.tenantId", Operator: "exists"},
						{Attribute: "resource.tenantId", Operator: "notEquals", Value: ""},
						{Attribute: "resource.tenantId", Operator: "notEquals", Value: "{{subject.tenantId}}"},
						{Attribute: "subject.roles", Operator: "notContains", Value: "superadmin"},
						{Attribute: "subject.permissions", Operator: "notContains", Value: "tenant.cross-access"},
					},
				},
			},
			Obligations: []core.Obligation{{Type: core.ObligationAudit}},
		},
		{
			ID:          bootstrapPrefix + "superadmin-allow",
			Description: "Superadmin access",
			Enabled:     true,
			Priority:    900,
			Effect:      core.EffectAllow,
			Conditions: []core.PolicyCondition{
				{
					Type:  core.ConditionAny,
					Rules: []core.PolicyRule{{Attribute: "subject.roles", Operator: "contains", Value: "superadmin"}},
				},
			},
			Obligations: []core.Obligation{{Type: core.ObligationAudit}},
		},
		{
			ID:          bootstrapPrefix + "owner-allow",
			Description: core.ReasonResourceOwner,
			Enabled:     true,
			Priority:    500,
			Effect:      core.EffectAllow,
			Conditions: []core.PolicyCondition{
				{
					Type: core.ConditionAll,
					Rules: []core.PolicyRule{
						{Attribute: "resource.ownerId", Operator: "exists"},
						{Attribute: "resource.ownerId", Operator: "notEquals", Value: ""},
						{Attribute: "resource.ownerId", Operator: "equals", Value: "{{subject.id}}"},
					},
				},
			},
		},
		{
			ID:          bootstrapPrefix + "shared-read-allow",
			Description: "Resource shared with subject",
			Enabled:     true,
			Priority:    400,
			Effect:      core.EffectAllow,
			Conditions: []core.PolicyCondition{
				{
					Type: core.ConditionAll,
					Rules: []core.PolicyRule{
						{Attribute: "resource.sharedWith", Operator: "contains", Value: "{{subject.id}}"},
						{Attribute: "action.name", Operator: "in", Value: []any{core.ActionRead, core.ActionExecute}},
					},
				},
			},
		},
		{
			ID:          bootstrapPrefix + "public-read-allow",
			Description: "Public resource",
			Enabled:     true,
			Priority:    300,
			Effect:      core.EffectAllow,
			Conditions: []core.PolicyCondition{
				{
					Type: core.ConditionAll,
					Rules: []core.PolicyRule{
						{Attribute: "resource.visibility", Operator: "equals", Value: "public"},
						{Attribute: "action.name", Operator: "equals", Value: core.ActionRead},
					},
				},
			},
		},
	}
}
