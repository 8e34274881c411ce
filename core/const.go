package core

const (
	SubjectCtxKey  = "za-subject"
	ClaimsCtxKey   = "za-claims"
	DecisionCtxKey = "za-decision"
	TokenCtxKey    = "za-token"
)

const (
	SubjectIDHeader = "za-subject-id"
	TenantIDHeader  = "za-tenant-id"
)

// key namespaces inside the remote store; the configured cache prefix is
// prepended on top of these
const (
	CacheNamespace = "auth:"
	LockNamespace  = "auth:lock:"
	RateNamespace  = "auth:rate:"
)

const (
	EffectAllow = "allow"
	EffectDeny  = "deny"
)

const (
	StrategyPriority   = "priority"
	StrategyFirstMatch = "first-match"
	StrategyAllMatch   = "all-match"
)

const (
	ConditionAll  = "all"
	ConditionAny  = "any"
	ConditionNone = "none"
)

// decision cache TTLs in seconds. denies expire faster so revocations
// propagate before grants
const (
	DefaultAllowTTL = 600
	DefaultDenyTTL  = 60
)

const (
	ReasonNoMatch        = "No matching policies found"
	ReasonResourceOwner  = "Resource owner"
	ReasonTenantMismatch = "Cross-tenant access denied"
	ReasonTokenInvalid   = "Token verification failed"
)

const (
	SubjectTypeUser    = "user"
	SubjectTypeService = "service"
	SubjectTypeAPIKey  = "api_key"
)

const (
	ResourceWorkflow     = "workflow"
	ResourceNode         = "node"
	ResourceTemplate     = "template"
	ResourceExecution    = "execution"
	ResourceTenant       = "tenant"
	ResourceOrganization = "organization"
	ResourceTeam         = "team"
	ResourceAPIKey       = "api_key"
	ResourceWebhook      = "webhook"
	ResourceIntegration  = "integration"
	ResourceChannel      = "channel"
	ResourceMessage      = "message"
	ResourceWebsocket    = "websocket"
	ResourceEvent        = "event"
	ResourceUnknown      = "unknown"
)

var resourceTypes = map[string]bool{
	ResourceWorkflow:     true,
	ResourceNode:         true,
	ResourceTemplate:     true,
	ResourceExecution:    true,
	ResourceTenant:       true,
	ResourceOrganization: true,
	ResourceTeam:         true,
	ResourceAPIKey:       true,
	ResourceWebhook:      true,
	ResourceIntegration:  true,
	ResourceChannel:      true,
	ResourceMessage:      true,
	ResourceWebsocket:    true,
	ResourceEvent:        true,
	ResourceUnknown:      true,
}

func IsValidResourceType(t string) bool {
	return resourceTypes[t]
}

const (
	ActionCreate  = "create"
	ActionRead    = "read"
	ActionUpdate  = "update"
	ActionDelete  = "delete"
	ActionExecute = "execute"
	ActionShare   = "share"
	ActionPublish = "publish"
	ActionApprove = "approve"
	ActionExport  = "export"
	ActionImport  = "import"
)

const (
	NodeTypeOrganization = "organization"
	NodeTypeTeam         = "team"
	NodeTypeGroup        = "group"
	NodeTypeRole         = "role"
)

const (
	ObligationAudit = "audit"
)
