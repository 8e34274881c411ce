package policy

import (
	"encoding/json"
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/offbit-ai/zeal-auth/core"
)

var templatePattern = regexp.MustCompile(`\{\{\s*([^{}]+?)\s*\}\}`)

// evalRule resolves the rule's attribute path against the context, fills the
// expected value's templates, and applies the operator. Undefined attributes
// only satisfy notExists; every other operator fails on them.
func evalRule(rule *compiledRule, root map[string]any) bool {
	actual, defined := rule.path.Resolve(root)

	switch rule.rule.Operator {
	case "exists":
		return defined && actual != nil
	case "notExists":
		return !defined || actual == nil
	}
	if !defined {
		return false
	}

	expected := interpolate(rule.rule.Value, root)
	sensitive := isCaseSensitive(rule.rule)

	switch rule.rule.Operator {
	case "equals":
		return looseEqual(actual, expected, sensitive)
	case "notEquals":
		return !looseEqual(actual, expected, sensitive)
	case "contains":
		return containsValue(actual, expected, sensitive)
	case "notContains":
		return !containsValue(actual, expected, sensitive)
	case "startsWith":
		a, e, ok := bothStrings(actual, expected, sensitive)
		return ok && strings.HasPrefix(a, e)
	case "endsWith":
		a, e, ok := bothStrings(actual, expected, sensitive)
		return ok && strings.HasSuffix(a, e)
	case "in":
		return memberOf(expected, actual, sensitive)
	case "notIn":
		if !isArray(expected) {
			return false
		}
		return !memberOf(expected, actual, sensitive)
	case "greaterThan":
		cmp, ok := compareValues(actual, expected, sensitive)
		return ok && cmp > 0
	case "greaterThanOrEqual":
		cmp, ok := compareValues(actual, expected, sensitive)
		return ok && cmp >= 0
	case "lessThan":
		cmp, ok := compareValues(actual, expected, sensitive)
		return ok && cmp < 0
	case "lessThanOrEqual":
		cmp, ok := compareValues(actual, expected, sensitive)
		return ok && cmp <= 0
	case "matches":
		return matchRegex(rule, actual, expected, sensitive)
	}

	return false
}

func isCaseSensitive(rule core.PolicyRule) bool {
	return rule.CaseSensitive != nil && *rule.CaseSensitive
}

// interpolate substitutes {{path}} templates from the context. A value that
// is exactly one template keeps the resolved value's type; templates embedded
// in a longer string render as strings, unresolved ones as empty.
func interpolate(value any, root map[string]any) any {
	switch v := value.(type) {
	case string:
		if !strings.Contains(v, "{{") {
			return v
		}
		if match := templatePattern.FindStringSubmatch(v); match != nil && match[0] == v {
			resolved, ok := resolveTemplate(match[1], root)
			if !ok {
				return nil
			}
			return resolved
		}
		return templatePattern.ReplaceAllStringFunc(v, func(m string) string {
			inner := templatePattern.FindStringSubmatch(m)[1]
			resolved, ok := resolveTemplate(inner, root)
			if !ok {
				return ""
			}
			return renderString(resolved)
		})
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = interpolate(item, root)
		}
		return out
	}
	return value
}

func resolveTemplate(raw string, root map[string]any) (any, bool) {
	path, err := core.ParsePath(strings.TrimSpace(raw))
	if err != nil {
		return nil, false
	}
	return path.Resolve(root)
}

func renderString(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case bool:
		return strconv.FormatBool(v)
	}
	return fmt.Sprintf("%v", value)
}

func looseEqual(a, b any, sensitive bool) bool {
	if as, aok := a.(string); aok {
		if bs, bok := b.(string); bok {
			if sensitive {
				return as == bs
			}
			return strings.EqualFold(as, bs)
		}
	}
	af, aok := asFloat(a)
	bf, bok := asFloat(b)
	if aok && bok {
		return af == bf
	}
	return reflect.DeepEqual(a, b)
}

// containsValue checks array membership when the attribute is an array,
// substring containment when both operands are strings
func containsValue(actual, expected any, sensitive bool) bool {
	switch arr := actual.(type) {
	case []any:
		for _, item := range arr {
			if looseEqual(item, expected, sensitive) {
				return true
			}
		}
		return false
	case []string:
		for _, item := range arr {
			if looseEqual(item, expected, sensitive) {
				return true
			}
		}
		return false
	}
	a, e, ok := bothStrings(actual, expected, sensitive)
	return ok && strings.Contains(a, e)
}

func memberOf(array any, needle any, sensitive bool) bool {
	switch arr := array.(type) {
	case []any:
		for _, item := range arr {
			if looseEqual(needle, item, sensitive) {
				return true
			}
		}
	case []string:
		for _, item := range arr {
			if looseEqual(needle, item, sensitive) {
				return true
			}
		}
	}
	return false
}

func isArray(value any) bool {
	switch value.(type) {
	case []any, []string:
		return true
	}
	return false
}

func bothStrings(a, b any, sensitive bool) (string, string, bool) {
	as, aok := a.(string)
	bs, bok := b.(string)
	if !aok || !bok {
		return "", "", false
	}
	if !sensitive {
		return strings.ToLower(as), strings.ToLower(bs), true
	}
	return as, bs, true
}

// compareValues orders numerically when both operands are numbers,
// lexicographically when both are strings
func compareValues(a, b any, sensitive bool) (int, bool) {
	af, aok := asFloat(a)
	bf, bok := asFloat(b)
	if aok && bok {
		switch {
		case af < bf:
			return -1, true
		case af > bf:
			return 1, true
		}
		return 0, true
	}
	as, bs, ok := bothStrings(a, b, sensitive)
	if ok {
		return strings.Compare(as, bs), true
	}
	return 0, false
}

func matchRegex(rule *compiledRule, actual, expected any, sensitive bool) bool {
	str, ok := actual.(string)
	if !ok {
		return false
	}
	if rule.regex != nil {
		return rule.regex.MatchString(str)
	}
	pattern, ok := expected.(string)
	if !ok {
		return false
	}
	re, err := regexp.Compile(regexPattern(pattern, !sensitive))
	if err != nil {
		return false
	}
	return re.MatchString(str)
}

func regexPattern(pattern string, insensitive bool) string {
	if insensitive {
		return "(?i)" + pattern
	}
	return pattern
}

func asFloat(value any) (float64, bool) {
	switch n := value.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		if err == nil {
			return f, true
		}
	}
	return 0, false
}
