package core

import (
	"time"
)

// Subject is the authenticated principal under evaluation.
// Hierarchy is populated lazily by the hierarchy resolver, never by the
// claim mapper.
type Subject struct {
	ID             string          `json:"id" yaml:"id"`
	Type           string          `json:"type" yaml:"type"` // user, service, api_key
	TenantID       string          `json:"tenantId,omitempty" yaml:"tenantId"`
	OrganizationID string          `json:"organizationId,omitempty" yaml:"organizationId"`
	Teams          []string        `json:"teams,omitempty" yaml:"teams"`
	Groups         []string        `json:"groups,omitempty" yaml:"groups"`
	Roles          []string        `json:"roles,omitempty" yaml:"roles"`
	Permissions    []string        `json:"permissions,omitempty" yaml:"permissions"`
	Hierarchy      []HierarchyPath `json:"hierarchy,omitempty" yaml:"-"`
	Claims         Claims          `json:"claims,omitempty" yaml:"-"`
}

// Resource is the target of an action
type Resource struct {
	Type       string         `json:"type"`
	ID         string         `json:"id,omitempty"`
	OwnerID    string         `json:"ownerId,omitempty"`
	TenantID   string         `json:"tenantId,omitempty"`
	Visibility string         `json:"visibility,omitempty"` // private, team, organization, public
	SharedWith []string       `json:"sharedWith,omitempty"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

type Action struct {
	Name string `json:"name"`
	Type string `json:"type,omitempty"`
}

type Environment struct {
	Timestamp  time.Time      `json:"timestamp,omitempty"`
	IP         string         `json:"ip,omitempty"`
	UserAgent  string         `json:"userAgent,omitempty"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

type RequestInfo struct {
	ID     string         `json:"id,omitempty"`
	Method string         `json:"method,omitempty"`
	Path   string         `json:"path,omitempty"`
	Params map[string]any `json:"params,omitempty"`
}

// AuthorizationContext is the immutable evaluation input of a single decision
type AuthorizationContext struct {
	Subject     Subject      `json:"subject"`
	Resource    Resource     `json:"resource"`
	Action      Action       `json:"action"`
	Environment *Environment `json:"environment,omitempty"`
	Request     *RequestInfo `json:"request,omitempty"`
}

// ToMap renders the context as the attribute tree rule paths resolve
// against. Built once per decision.
func (c AuthorizationContext) ToMap() map[string]any {
	root := map[string]any{
		"subject":  c.Subject.toMap(),
		"resource": c.Resource.toMap(),
		"action": map[string]any{
			"name": c.Action.Name,
			"type": c.Action.Type,
		},
	}

	if c.Environment != nil {
		env := map[string]any{}
		for k, v := range c.Environment.Attributes {
			env[k] = v
		}
		// well-known fields win over attribute collisions
		if !c.Environment.Timestamp.IsZero() {
			env["timestamp"] = c.Environment.Timestamp.UTC().Format(time.RFC3339)
		}
		if c.Environment.IP != "" {
			env["ip"] = c.Environment.IP
		}
		if c.Environment.UserAgent != "" {
			env["userAgent"] = c.Environment.UserAgent
		}
		root["environment"] = env
	}

	if c.Request != nil {
		root["request"] = map[string]any{
			"id":     c.Request.ID,
			"method": c.Request.Method,
			"path":   c.Request.Path,
			"params": c.Request.Params,
		}
	}

	return root
}

func (s Subject) toMap() map[string]any {
	m := map[string]any{
		"id":             s.ID,
		"type":           s.Type,
		"tenantId":       s.TenantID,
		"organizationId": s.OrganizationID,
		"teams":          toAnySlice(s.Teams),
		"groups":         toAnySlice(s.Groups),
		"roles":          toAnySlice(s.Roles),
		"permissions":    toAnySlice(s.Permissions),
	}
	if len(s.Claims) > 0 {
		m["claims"] = map[string]any(s.Claims)
	}
	if len(s.Hierarchy) > 0 {
		paths := make([]any, 0, len(s.Hierarchy))
		for _, p := range s.Hierarchy {
			paths = append(paths, map[string]any{
				"type":        p.Type,
				"id":          p.ID,
				"name":        p.Name,
				"level":       float64(p.Level),
				"permissions": toAnySlice(p.Permissions),
			})
		}
		m["hierarchy"] = paths
	}
	return m
}

func (r Resource) toMap() map[string]any {
	m := map[string]any{
		"type":       r.Type,
		"id":         r.ID,
		"ownerId":    r.OwnerID,
		"tenantId":   r.TenantID,
		"visibility": r.Visibility,
		"sharedWith": toAnySlice(r.SharedWith),
	}
	if len(r.Attributes) > 0 {
		m["attributes"] = r.Attributes
	}
	return m
}

func toAnySlice(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

// Claims is a decoded token payload
type Claims map[string]any

func (c Claims) GetString(key string) string {
	if v, ok := c[key].(string); ok {
		return v
	}
	return ""
}

// Policy is a named, ordered authorization rule
type Policy struct {
	ID          string            `json:"id" yaml:"id"`
	Description string            `json:"description,omitempty" yaml:"description"`
	Enabled     bool              `json:"enabled" yaml:"enabled"`
	Priority    int               `json:"priority" yaml:"priority"`
	Effect      string            `json:"effect" yaml:"effect"` // allow or deny
	Conditions  []PolicyCondition `json:"conditions" yaml:"conditions"`
	Constraints *Constraints      `json:"constraints,omitempty" yaml:"constraints"`
	Obligations []Obligation      `json:"obligations,omitempty" yaml:"obligations"`
}

// PolicyCondition combines rules; a policy matches when any one of its
// conditions matches
type PolicyCondition struct {
	Type  string       `json:"type" yaml:"type"` // all, any, none
	Rules []PolicyRule `json:"rules" yaml:"rules"`
}

type PolicyRule struct {
	Attribute     string `json:"attribute" yaml:"attribute"`
	Operator      string `json:"operator" yaml:"operator"`
	Value         any    `json:"value,omitempty" yaml:"value"`
	CaseSensitive *bool  `json:"caseSensitive,omitempty" yaml:"caseSensitive"`
}

// Constraints shape the data a caller may return with an allow decision
type Constraints struct {
	Fields     []string       `json:"fields,omitempty" yaml:"fields"`
	Filters    map[string]any `json:"filters,omitempty" yaml:"filters"`
	MaxResults int            `json:"maxResults,omitempty" yaml:"maxResults"`
	TimeWindow *TimeWindow    `json:"timeWindow,omitempty" yaml:"timeWindow"`
	RateLimit  *RateLimit     `json:"rateLimit,omitempty" yaml:"rateLimit"`
}

type TimeWindow struct {
	Start time.Time `json:"start" yaml:"start"`
	End   time.Time `json:"end" yaml:"end"`
}

type RateLimit struct {
	Requests int `json:"requests" yaml:"requests"`
	Window   int `json:"window" yaml:"window"` // seconds
}

type Obligation struct {
	Type       string         `json:"type" yaml:"type"`
	Attributes map[string]any `json:"attributes,omitempty" yaml:"attributes"`
}

// AuthorizationResult is the decision. TTL is set only when a policy matched.
type AuthorizationResult struct {
	Allowed         bool         `json:"allowed"`
	Reason          string       `json:"reason"`
	MatchedPolicies []string     `json:"matchedPolicies,omitempty"`
	Constraints     *Constraints `json:"constraints,omitempty"`
	Obligations     []Obligation `json:"obligations,omitempty"`
	TTL             int          `json:"ttl,omitempty"` // seconds
	FromCache       bool         `json:"fromCache,omitempty"`
	Timestamp       time.Time    `json:"timestamp"`
}

// HierarchyNode is one entity in the organizational graph
type HierarchyNode struct {
	ID          string         `json:"id" yaml:"id"`
	Type        string         `json:"type" yaml:"type"` // organization, team, group, role
	Name        string         `json:"name" yaml:"name"`
	ParentID    string         `json:"parentId,omitempty" yaml:"parentId"`
	TenantID    string         `json:"tenantId,omitempty" yaml:"tenantId"`
	Permissions []string       `json:"permissions,omitempty" yaml:"permissions"`
	Metadata    map[string]any `json:"metadata,omitempty" yaml:"metadata"`
}

// HierarchyPath is one level of resolved ancestry, ordered root to leaf
type HierarchyPath struct {
	Type        string   `json:"type"`
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Level       int      `json:"level"` // 0 = root
	Permissions []string `json:"permissions,omitempty"`
}

// AuditEntry is a logged decision. Written once, never mutated.
type AuditEntry struct {
	ID          string              `json:"id"`
	Timestamp   time.Time           `json:"timestamp"`
	Subject     Subject             `json:"subject"`
	Resource    Resource            `json:"resource"`
	Action      Action              `json:"action"`
	Result      AuthorizationResult `json:"result"`
	Duration    time.Duration       `json:"duration,omitempty"`
	FromCache   bool                `json:"fromCache,omitempty"`
	Environment *Environment        `json:"environment,omitempty"`
	Metadata    map[string]any      `json:"metadata,omitempty"`
}

type AuditQuery struct {
	TenantID     string    `json:"tenantId,omitempty"`
	SubjectID    string    `json:"subjectId,omitempty"`
	ResourceType string    `json:"resourceType,omitempty"`
	ResourceID   string    `json:"resourceId,omitempty"`
	Action       string    `json:"action,omitempty"`
	Allowed      *bool     `json:"allowed,omitempty"`
	Since        time.Time `json:"since,omitempty"`
	Until        time.Time `json:"until,omitempty"`
	Limit        int       `json:"limit,omitempty"`
}

type ReasonCount struct {
	Reason string `json:"reason"`
	Count  int64  `json:"count"`
}

type ReportBucket struct {
	Total   int64 `json:"total"`
	Allowed int64 `json:"allowed"`
	Denied  int64 `json:"denied"`
}

type AuditReport struct {
	Start            time.Time               `json:"start"`
	End              time.Time               `json:"end"`
	Total            int64                   `json:"total"`
	Allowed          int64                   `json:"allowed"`
	Denied           int64                   `json:"denied"`
	AvgDuration      time.Duration           `json:"avgDuration"`
	CacheHitRate     float64                 `json:"cacheHitRate"`
	TopDenialReasons []ReasonCount           `json:"topDenialReasons"`
	Groups           map[string]ReportBucket `json:"groups,omitempty"` // key per groupBy dimension
}

type Metrics struct {
	Decisions   int64 `json:"decisions"`
	Allowed     int64 `json:"allowed"`
	Denied      int64 `json:"denied"`
	CacheHits   int64 `json:"cacheHits"`
	CacheMisses int64 `json:"cacheMisses"`
	Errors      int64 `json:"errors"`
}

type ResponseBase[T any] struct {
	Status  string `json:"status"`
	Content T      `json:"content"`
	Error   string `json:"error,omitempty"`
}
