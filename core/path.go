package core

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Path is a compiled attribute path such as subject.teams[0] or
// resource.attributes.shares[?userId=='u1'].permission. Policy loading
// compiles each rule attribute once; evaluation only walks segments.
type Path struct {
	raw      string
	segments []pathSegment
}

type segmentKind int

const (
	segmentField segmentKind = iota
	segmentIndex
	segmentFilter
)

type pathSegment struct {
	kind  segmentKind
	field string // segmentField, and the filter key for segmentFilter
	index int
	value any // filter literal
}

func ParsePath(raw string) (Path, error) {
	if raw == "" {
		return Path{}, fmt.Errorf("empty path")
	}

	var segments []pathSegment
	rest := raw
	for len(rest) > 0 {
		head := rest
		if i := strings.IndexAny(rest, ".["); i >= 0 {
			head = rest[:i]
		}

		if head != "" {
			segments = append(segments, pathSegment{kind: segmentField, field: head})
			rest = rest[len(head):]
		}

		if len(rest) == 0 {
			break
		}

		switch rest[0] {
		case '.':
			if len(rest) == 1 {
				return Path{}, fmt.Errorf("trailing dot in path %q", raw)
			}
			if head == "" && len(segments) == 0 {
				return Path{}, fmt.Errorf("leading dot in path %q", raw)
			}
			rest = rest[1:]
			if rest[0] == '.' || rest[0] == '[' {
				return Path{}, fmt.Errorf("empty segment in path %q", raw)
			}
		case '[':
			end := strings.IndexByte(rest, ']')
			if end < 0 {
				return Path{}, fmt.Errorf("unclosed bracket in path %q", raw)
			}
			inner := rest[1:end]
			seg, err := parseBracket(inner)
			if err != nil {
				return Path{}, fmt.Errorf("%s in path %q", err.Error(), raw)
			}
			segments = append(segments, seg)
			rest = rest[end+1:]
			if len(rest) > 0 && rest[0] == '.' {
				rest = rest[1:]
				if len(rest) == 0 {
					return Path{}, fmt.Errorf("trailing dot in path %q", raw)
				}
			}
		}
	}

	if len(segments) == 0 {
		return Path{}, fmt.Errorf("empty path %q", raw)
	}

	return Path{raw: raw, segments: segments}, nil
}

func parseBracket(inner string) (pathSegment, error) {
	if inner == "" {
		return pathSegment{}, fmt.Errorf("empty bracket")
	}

	if inner[0] == '?' {
		// filter: ?field=='value' or ?field==literal
		expr := inner[1:]
		eq := strings.Index(expr, "==")
		if eq <= 0 {
			return pathSegment{}, fmt.Errorf("malformed filter %q", inner)
		}
		field := strings.TrimSpace(expr[:eq])
		lit := strings.TrimSpace(expr[eq+2:])
		value, err := parseLiteral(lit)
		if err != nil {
			return pathSegment{}, err
		}
		return pathSegment{kind: segmentFilter, field: field, value: value}, nil
	}

	idx, err := strconv.Atoi(inner)
	if err != nil || idx < 0 {
		return pathSegment{}, fmt.Errorf("bad index %q", inner)
	}
	return pathSegment{kind: segmentIndex, index: idx}, nil
}

func parseLiteral(lit string) (any, error) {
	if len(lit) >= 2 && lit[0] == '\'' && lit[len(lit)-1] == '\'' {
		return lit[1 : len(lit)-1], nil
	}
	if lit == "true" {
		return true, nil
	}
	if lit == "false" {
		return false, nil
	}
	if f, err := strconv.ParseFloat(lit, 64); err == nil {
		return f, nil
	}
	return nil, fmt.Errorf("bad filter literal %q", lit)
}

func (p Path) String() string {
	return p.raw
}

func (p Path) IsZero() bool {
	return len(p.segments) == 0
}

// Resolve walks the compiled segments over a tree of maps and slices.
// The second return is false when any hop is undefined.
func (p Path) Resolve(root any) (any, bool) {
	current := root
	for _, seg := range p.segments {
		switch seg.kind {
		case segmentField:
			m, ok := asMap(current)
			if !ok {
				return nil, false
			}
			v, ok := m[seg.field]
			if !ok {
				return nil, false
			}
			current = v
		case segmentIndex:
			switch arr := current.(type) {
			case []any:
				if seg.index >= len(arr) {
					return nil, false
				}
				current = arr[seg.index]
			case []string:
				if seg.index >= len(arr) {
					return nil, false
				}
				current = arr[seg.index]
			default:
				return nil, false
			}
		case segmentFilter:
			arr, ok := current.([]any)
			if !ok {
				return nil, false
			}
			found := false
			for _, elem := range arr {
				m, ok := asMap(elem)
				if !ok {
					continue
				}
				if literalEquals(m[seg.field], seg.value) {
					current = elem
					found = true
					break
				}
			}
			if !found {
				return nil, false
			}
		}
	}
	return current, true
}

func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case Claims:
		return m, true
	}
	return nil, false
}

func literalEquals(actual, expected any) bool {
	if actual == nil {
		return expected == nil
	}
	switch e := expected.(type) {
	case string:
		a, ok := actual.(string)
		return ok && a == e
	case bool:
		a, ok := actual.(bool)
		return ok && a == e
	case float64:
		a, ok := toFloat(actual)
		return ok && a == e
	}
	return false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
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
	case uint:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}
