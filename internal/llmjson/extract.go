// Package llmjson turns free-form model output into structured mappings.
//
// Models asked to "respond in JSON" answer in several shapes: a bare object,
// an object inside a ```json fence, an object inside an untagged fence, or an
// object buried in prose. Extract tries each shape in turn and never fails;
// when nothing parses it wraps the text under RawResponseKey so callers always
// receive a map.
package llmjson

import (
	"encoding/json"
	"regexp"
	"strings"
)

// RawResponseKey holds the unparsed model output when extraction degrades.
const RawResponseKey = "raw_response"

var (
	// (?is): case-insensitive tag, dot spans newlines
	jsonFenceRe    = regexp.MustCompile("(?is)```[ \t]*json[ \t]*\\r?\\n?(.*?)```")
	genericFenceRe = regexp.MustCompile("(?s)```[A-Za-z0-9_+-]*[ \t]*\\r?\\n?(.*?)```")
)

// Extract parses text into a mapping using, in order: the whole text, the
// first ```json fence, the first generic fence, and the span between the
// first '{' and the last '}'. If none of them is a JSON object the result is
// {"raw_response": text}.
func Extract(text string) map[string]any {
	if m, ok := parseObject(text); ok {
		return m
	}

	if sub := jsonFenceRe.FindStringSubmatch(text); len(sub) == 2 {
		if m, ok := parseObject(sub[1]); ok {
			return m
		}
	}

	if sub := genericFenceRe.FindStringSubmatch(text); len(sub) == 2 {
		if m, ok := parseObject(sub[1]); ok {
			return m
		}
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		if m, ok := parseObject(text[start : end+1]); ok {
			return m
		}
	}

	return map[string]any{RawResponseKey: text}
}

// IsDegraded reports whether m is the raw-text fallback produced by Extract.
func IsDegraded(m map[string]any) bool {
	if len(m) != 1 {
		return false
	}
	_, ok := m[RawResponseKey]
	return ok
}

func parseObject(s string) (map[string]any, bool) {
	s = strings.TrimSpace(s)
	if s == "" || s[0] != '{' {
		return nil, false
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(s), &m); err != nil || m == nil {
		return nil, false
	}
	return m, true
}
