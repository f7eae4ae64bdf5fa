package profile

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Target is a resolved target language.
type Target struct {
	// Name is the language as written in prompts, e.g. "Canadian French".
	Name string
	// Tag is the BCP 47 tag when one is known.
	Tag language.Tag
}

var namedTargets = map[string]language.Tag{
	"french":          language.French,
	"canadian french": language.CanadianFrench,
	"quebec french":   language.CanadianFrench,
	"english":         language.English,
	"spanish":         language.Spanish,
	"german":          language.German,
	"italian":         language.Italian,
	"portuguese":      language.Portuguese,
	"ukrainian":       language.Ukrainian,
}

// ResolveTarget accepts a language name ("French", "Quebec French") or a
// BCP 47 tag ("fr-CA") and returns the name used in prompts plus the tag.
// Unknown names pass through with an undetermined tag.
func ResolveTarget(s string) Target {
	s = strings.TrimSpace(s)
	if s == "" {
		return Target{Name: "French", Tag: language.French}
	}
	if tag, ok := namedTargets[strings.ToLower(s)]; ok {
		return Target{Name: s, Tag: tag}
	}
	if tag, err := language.Parse(s); err == nil && !tag.IsRoot() {
		if name := display.English.Tags().Name(tag); name != "" {
			return Target{Name: name, Tag: tag}
		}
		return Target{Name: s, Tag: tag}
	}
	return Target{Name: s, Tag: language.Und}
}

// Base is the two-letter ISO 639-1 code of the target, or "" when unknown.
func (t Target) Base() string {
	if t.Tag.IsRoot() {
		return ""
	}
	base, conf := t.Tag.Base()
	if conf == language.No {
		return ""
	}
	return base.String()
}

// ForTarget suggests a profile for a target: Canadian and Quebec French map
// to "quebec", everything else to "generic".
func ForTarget(t Target) string {
	if strings.Contains(strings.ToLower(t.Name), "quebec") || strings.Contains(strings.ToLower(t.Name), "québec") {
		return Quebec
	}
	if t.Tag.String() == language.CanadianFrench.String() {
		return Quebec
	}
	return Generic
}
