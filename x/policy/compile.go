package policy

import (
	"log/slog"
	"regexp"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/offbit-ai/zeal-auth/core"
)

// compiledRule carries the parsed attribute path and, when the pattern is a
// plain literal, a precompiled regex for the matches operator
type compiledRule struct {
	rule  core.PolicyRule
	path  core.Path
	regex *regexp.Regexp
}

type compiledCondition struct {
	kind  string
	rules []compiledRule
}

type compiledPolicy struct {
	policy     core.Policy
	conditions []compiledCondition
}

// snapshot is an immutable view of the policy set, swapped in whole on every
// load or mutation so concurrent evaluations never see a partial update
type snapshot struct {
	policies   []compiledPolicy
	ordered    []*compiledPolicy // load order
	byPriority []*compiledPolicy // priority descending, stable
	byID       map[string]*compiledPolicy
}

func compileRule(rule core.PolicyRule) (compiledRule, error) {
	path, err := core.ParsePath(rule.Attribute)
	if err != nil {
		return compiledRule{}, errors.Wrap(err, "bad attribute path")
	}

	out := compiledRule{rule: rule, path: path}
	if rule.Operator == "matches" {
		if pattern, ok := rule.Value.(string); ok && !strings.Contains(pattern, "{{") {
			re, err := regexp.Compile(regexPattern(pattern, !isCaseSensitive(rule)))
			if err != nil {
				return compiledRule{}, errors.Wrap(err, "bad regex pattern")
			}
			out.regex = re
		}
	}
	return out, nil
}

func compilePolicy(policy core.Policy) (compiledPolicy, error) {
	out := compiledPolicy{policy: policy}
	for _, condition := range policy.Conditions {
		compiled := compiledCondition{kind: condition.Type}
		for _, rule := range condition.Rules {
			cr, err := compileRule(rule)
			if err != nil {
				return compiledPolicy{}, errors.Wrapf(err, "policy %s attribute %s", policy.ID, rule.Attribute)
			}
			compiled.rules = append(compiled.rules, cr)
		}
		out.conditions = append(out.conditions, compiled)
	}
	return out, nil
}

func buildSnapshot(policies []core.Policy) *snapshot {
	snap := &snapshot{byID: make(map[string]*compiledPolicy)}

	for _, policy := range policies {
		compiled, err := compilePolicy(policy)
		if err != nil {
			slog.Error("skipping uncompilable policy",
				slog.String("policy", policy.ID),
				slog.String("error", err.Error()),
			)
			continue
		}
		snap.policies = append(snap.policies, compiled)
	}

	for i := range snap.policies {
		snap.ordered = append(snap.ordered, &snap.policies[i])
		snap.byID[snap.policies[i].policy.ID] = &snap.policies[i]
	}

	snap.byPriority = make([]*compiledPolicy, len(snap.ordered))
	copy(snap.byPriority, snap.ordered)
	sort.SliceStable(snap.byPriority, func(i, j int) bool {
		return snap.byPriority[i].policy.Priority > snap.byPriority[j].policy.Priority
	})

	return snap
}

// matches reports whether any condition holds; a policy without conditions
// applies unconditionally
func (p *compiledPolicy) matches(root map[string]any) bool {
	if len(p.conditions) == 0 {
		return true
	}
	for i := range p.conditions {
		if p.conditions[i].matches(root) {
			return true
		}
	}
	return false
}

func (c *compiledCondition) matches(root map[string]any) bool {
	switch c.kind {
	case core.ConditionAny:
		for i := range c.rules {
			if evalRule(&c.rules[i], root) {
				return true
			}
		}
		return false
	case core.ConditionNone:
		for i := range c.rules {
			if evalRule(&c.rules[i], root) {
				return false
			}
		}
		return true
	default: // all
		for i := range c.rules {
			if !evalRule(&c.rules[i], root) {
				return false
			}
		}
		return true
	}
}
