// Package policy loads policy documents from pluggable sources and evaluates
// them against authorization contexts.
package policy

import (
	"context"
	"log/slog"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"

	"github.com/offbit-ai/zeal-auth/core"
)

var tracer = otel.Tracer("policy")

type service struct {
	config  core.Config
	sources []Source

	mutex    sync.Mutex // serializes Load and policy mutations
	snapshot atomic.Pointer[snapshot]
}

func NewService(config core.Config, sources []Source) core.PolicyService {
	s := &service{
		config:  config,
		sources: sources,
	}
	s.snapshot.Store(buildSnapshot(nil))
	return s
}

// Load reads every source and swaps in the merged set atomically. Policies
// merge by id, last loaded wins but keeps its original position. A failing
// source aborts the whole load and leaves the previous set serving.
func (s *service) Load(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "Policy.Service.Load")
	defer span.End()

	s.mutex.Lock()
	defer s.mutex.Unlock()

	var merged []core.Policy
	index := make(map[string]int)
	for _, source := range s.sources {
		policies, err := source.Load(ctx)
		if err != nil {
			span.RecordError(err)
			return errors.Wrap(err, "failed to load policy source")
		}
		for _, policy := range policies {
			if pos, ok := index[policy.ID]; ok {
				merged[pos] = policy
				continue
			}
			index[policy.ID] = len(merged)
			merged = append(merged, policy)
		}
	}

	s.snapshot.Store(buildSnapshot(merged))
	slog.Info("policies loaded", slog.Int("count", len(merged)))

	return nil
}

func (s *service) Evaluate(ctx context.Context, authCtx core.AuthorizationContext) (core.AuthorizationResult, error) {
	_, span := tracer.Start(ctx, "Policy.Service.Evaluate")
	defer span.End()

	snap := s.snapshot.Load()
	root := authCtx.ToMap()

	if s.config.Strategy == core.StrategyAllMatch {
		return s.evaluateAllMatch(snap, root), nil
	}

	list := snap.byPriority
	if s.config.Strategy == core.StrategyFirstMatch {
		list = snap.ordered
	}

	for _, policy := range list {
		if !policy.policy.Enabled {
			continue
		}
		if policy.matches(root) {
			return s.matchedResult(policy), nil
		}
	}

	return s.defaultResult(), nil
}

// evaluateAllMatch evaluates every enabled policy: any matching deny wins
// immediately, matching allows merge into one tightened result.
func (s *service) evaluateAllMatch(snap *snapshot, root map[string]any) core.AuthorizationResult {
	var matched []*compiledPolicy
	for _, policy := range snap.ordered {
		if !policy.policy.Enabled {
			continue
		}
		if !policy.matches(root) {
			continue
		}
		if policy.policy.Effect == core.EffectDeny {
			return s.matchedResult(policy)
		}
		matched = append(matched, policy)
	}

	if len(matched) == 0 {
		return s.defaultResult()
	}

	result := s.matchedResult(matched[0])
	for _, policy := range matched[1:] {
		result.MatchedPolicies = append(result.MatchedPolicies, policy.policy.ID)
		result.Constraints = mergeConstraints(result.Constraints, copyConstraints(policy.policy.Constraints))
		result.Obligations = append(result.Obligations, policy.policy.Obligations...)
	}
	if len(matched) > 1 {
		result.Reason = "Matched " + strconv.Itoa(len(matched)) + " policies"
	}
	return result
}

func (s *service) matchedResult(policy *compiledPolicy) core.AuthorizationResult {
	allowed := policy.policy.Effect == core.EffectAllow
	ttl := int(s.config.AllowTTL / time.Second)
	if !allowed {
		ttl = int(s.config.DenyTTL / time.Second)
	}

	reason := policy.policy.Description
	if reason == "" {
		reason = "Matched policy " + policy.policy.ID
	}

	return core.AuthorizationResult{
		Allowed:         allowed,
		Reason:          reason,
		MatchedPolicies: []string{policy.policy.ID},
		Constraints:     copyConstraints(policy.policy.Constraints),
		Obligations:     append([]core.Obligation(nil), policy.policy.Obligations...),
		TTL:             ttl,
		Timestamp:       time.Now(),
	}
}

func (s *service) defaultResult() core.AuthorizationResult {
	return core.AuthorizationResult{
		Allowed:   s.config.DefaultEffect == core.EffectAllow,
		Reason:    core.ReasonNoMatch,
		Timestamp: time.Now(),
	}
}

func (s *service) AddPolicy(ctx context.Context, policy core.Policy) error {
	_, span := tracer.Start(ctx, "Policy.Service.AddPolicy")
	defer span.End()

	_, err := compilePolicy(policy)
	if err != nil {
		span.RecordError(err)
		return err
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	current := s.snapshot.Load()
	next := make([]core.Policy, 0, len(current.ordered)+1)
	replaced := false
	for _, existing := range current.ordered {
		if existing.policy.ID == policy.ID {
			next = append(next, policy)
			replaced = true
			continue
		}
		next = append(next, existing.policy)
	}
	if !replaced {
		next = append(next, policy)
	}

	s.snapshot.Store(buildSnapshot(next))
	return nil
}

func (s *service) RemovePolicy(ctx context.Context, id string) error {
	_, span := tracer.Start(ctx, "Policy.Service.RemovePolicy")
	defer span.End()

	s.mutex.Lock()
	defer s.mutex.Unlock()

	current := s.snapshot.Load()
	if _, ok := current.byID[id]; !ok {
		return core.NewErrorNotFound()
	}

	next := make([]core.Policy, 0, len(current.ordered)-1)
	for _, existing := range current.ordered {
		if existing.policy.ID == id {
			continue
		}
		next = append(next, existing.policy)
	}

	s.snapshot.Store(buildSnapshot(next))
	return nil
}

func (s *service) GetPolicy(ctx context.Context, id string) (core.Policy, error) {
	_, span := tracer.Start(ctx, "Policy.Service.GetPolicy")
	defer span.End()

	if policy, ok := s.snapshot.Load().byID[id]; ok {
		return policy.policy, nil
	}
	return core.Policy{}, core.NewErrorNotFound()
}

func (s *service) ListPolicies(ctx context.Context) ([]core.Policy, error) {
	_, span := tracer.Start(ctx, "Policy.Service.ListPolicies")
	defer span.End()

	snap := s.snapshot.Load()
	out := make([]core.Policy, 0, len(snap.ordered))
	for _, policy := range snap.ordered {
		out = append(out, policy.policy)
	}
	return out, nil
}

func copyConstraints(c *core.Constraints) *core.Constraints {
	if c == nil {
		return nil
	}
	out := *c
	out.Fields = append([]string(nil), c.Fields...)
	if c.Filters != nil {
		out.Filters = make(map[string]any, len(c.Filters))
		for k, v := range c.Filters {
			out.Filters[k] = v
		}
	}
	if c.TimeWindow != nil {
		window := *c.TimeWindow
		out.TimeWindow = &window
	}
	if c.RateLimit != nil {
		limit := *c.RateLimit
		out.RateLimit = &limit
	}
	return &out
}

// mergeConstraints tightens two allow constraints: field intersection, filter
// union, minimum result cap, narrowed time window, stricter rate limit. An
// absent side imposes nothing.
func mergeConstraints(a, b *core.Constraints) *core.Constraints {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}

	out := &core.Constraints{}

	switch {
	case len(a.Fields) == 0:
		out.Fields = b.Fields
	case len(b.Fields) == 0:
		out.Fields = a.Fields
	default:
		allowed := make(map[string]bool, len(b.Fields))
		for _, field := range b.Fields {
			allowed[field] = true
		}
		for _, field := range a.Fields {
			if allowed[field] {
				out.Fields = append(out.Fields, field)
			}
		}
	}

	if a.Filters != nil || b.Filters != nil {
		out.Filters = make(map[string]any, len(a.Filters)+len(b.Filters))
		for k, v := range a.Filters {
			out.Filters[k] = v
		}
		for k, v := range b.Filters {
			out.Filters[k] = v
		}
	}

	out.MaxResults = a.MaxResults
	if b.MaxResults > 0 && (out.MaxResults == 0 || b.MaxResults < out.MaxResults) {
		out.MaxResults = b.MaxResults
	}

	out.TimeWindow = mergeWindows(a.TimeWindow, b.TimeWindow)
	out.RateLimit = mergeRates(a.RateLimit, b.RateLimit)

	return out
}

func mergeWindows(a, b *core.TimeWindow) *core.TimeWindow {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	out := &core.TimeWindow{Start: a.Start, End: a.End}
	if b.Start.After(out.Start) {
		out.Start = b.Start
	}
	if !b.End.IsZero() && (out.End.IsZero() || b.End.Before(out.End)) {
		out.End = b.End
	}
	return out
}

func mergeRates(a, b *core.RateLimit) *core.RateLimit {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	out := &core.RateLimit{Requests: a.Requests, Window: a.Window}
	if b.Requests < out.Requests {
		out.Requests = b.Requests
	}
	if b.Window > out.Window {
		out.Window = b.Window
	}
	return out
}
