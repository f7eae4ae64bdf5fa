package llmjson

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Lookup returns the value of the first key in keys present in m.
func Lookup(m map[string]any, keys ...string) (any, bool) {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			return v, true
		}
	}
	return nil, false
}

// CoerceScore converts a model-reported score to an int. Integers pass
// through, floats are truncated, numeric strings are parsed, and objects of
// the form {"score": x} are unwrapped. Anything else yields 0.
func CoerceScore(v any) int {
	switch s := v.(type) {
	case int:
		return s
	case int32:
		return int(s)
	case int64:
		return int(s)
	case float32:
		return truncate(float64(s))
	case float64:
		return truncate(s)
	case json.Number:
		if n, err := s.Int64(); err == nil {
			return int(n)
		}
		if f, err := s.Float64(); err == nil {
			return truncate(f)
		}
		return 0
	case string:
		str := strings.TrimSpace(s)
		if n, err := strconv.Atoi(str); err == nil {
			return n
		}
		if f, err := strconv.ParseFloat(str, 64); err == nil {
			return truncate(f)
		}
		return 0
	case map[string]any:
		if inner, ok := s["score"]; ok {
			return CoerceScore(inner)
		}
		return 0
	default:
		return 0
	}
}

func truncate(f float64) int {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return int(f)
}

// Score looks up the first present key and coerces it. Missing keys score 0.
func Score(m map[string]any, keys ...string) int {
	v, ok := Lookup(m, keys...)
	if !ok {
		return 0
	}
	return CoerceScore(v)
}

// String returns the first present key rendered as trimmed text, or def.
func String(m map[string]any, def string, keys ...string) string {
	v, ok := Lookup(m, keys...)
	if !ok || v == nil {
		return def
	}
	var s string
	switch t := v.(type) {
	case string:
		s = t
	case map[string]any:
		// {"type": "technical", "description": "..."} style answers
		for _, k := range []string{"type", "value", "level", "name"} {
			if inner, ok := t[k].(string); ok {
				s = inner
				break
			}
		}
	default:
		s = fmt.Sprint(t)
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	return s
}

// StringList flattens a model-reported list into strings. A lone string
// becomes a one-element list, objects become "key: value" entries, and
// nested objects inside lists are rendered as compact JSON.
func StringList(v any) []string {
	switch t := v.(type) {
	case nil:
		return nil
	case string:
		if s := strings.TrimSpace(t); s != "" {
			return []string{s}
		}
		return nil
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			switch it := item.(type) {
			case string:
				if s := strings.TrimSpace(it); s != "" {
					out = append(out, s)
				}
			case nil:
			default:
				if b, err := json.Marshal(it); err == nil {
					out = append(out, string(b))
				}
			}
		}
		return out
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := make([]string, 0, len(keys))
		for _, k := range keys {
			switch val := t[k].(type) {
			case string:
				out = append(out, k+": "+val)
			default:
				b, _ := json.Marshal(val)
				out = append(out, k+": "+string(b))
			}
		}
		return out
	default:
		return []string{fmt.Sprint(t)}
	}
}

// HasContent reports whether v carries anything actionable: a non-blank
// string, a non-empty list or object, true, or any number.
func HasContent(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case string:
		return strings.TrimSpace(t) != ""
	case []any:
		return len(t) > 0
	case map[string]any:
		return len(t) > 0
	case bool:
		return t
	default:
		return true
	}
}
