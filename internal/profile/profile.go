// Package profile holds the prompt variants the pipeline can run with.
//
// A Profile is pure data: system instructions, the numbered asks sent to
// the analysis and review stages, the extra JSON fields a variant expects
// back, and the quality gate expression. The pipeline itself is identical
// for every profile.
package profile

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
	"sync"
	"text/template"

	"github.com/Knetic/govaluate"
)

// DefaultThreshold is the overall quality score below which a translation is
// corrected.
const DefaultThreshold = 7

// Field is an extra key a profile asks the model to return.
type Field struct {
	Key         string
	Description string
	// List marks a list-of-strings field. Other fields are integer scores.
	List bool
}

// GlossaryPrompt asks the model for an English to target vocabulary map
// before translation.
type GlossaryPrompt struct {
	System string
	Prompt string
}

// Profile is one prompt variant. Text fields are text/template sources
// rendered with Vars.
type Profile struct {
	Name          string
	Description   string
	DefaultTarget string

	AnalysisSystem string
	AnalysisIntro  string
	AnalysisAsks   []string
	AnalysisFields []Field

	TranslationSystem string
	TranslationIntro  string
	TermsHeading      string
	NotesHeading      string
	TranslationCue    string
	ImageNote         string

	ReviewSystem string
	ReviewAsks   []string
	ReviewScores []Field
	ReviewFields []Field

	CorrectionIntro string
	IssuesKey       string
	IssuesLabel     string
	CorrectionCue   string

	EnhanceSystem string
	EnhanceIntro  string
	EnhanceSteps  []string
	EnhanceCue    string

	Glossary *GlossaryPrompt

	// GateExpr is evaluated with every review score and "threshold" bound
	// as numbers. A true result requests a correction, provided the review
	// suggested any.
	GateExpr string
}

// Vars are the values available to prompt templates.
type Vars struct {
	Target     string
	DocType    string
	Complexity string
}

var templates sync.Map

// Render executes a prompt template. A template that fails to parse or
// execute is returned unchanged.
func Render(src string, v Vars) string {
	if !strings.Contains(src, "{{") {
		return src
	}
	cached, ok := templates.Load(src)
	if !ok {
		t, err := template.New("prompt").Option("missingkey=zero").Parse(src)
		if err != nil {
			return src
		}
		cached, _ = templates.LoadOrStore(src, t)
	}
	var buf bytes.Buffer
	if err := cached.(*template.Template).Execute(&buf, v); err != nil {
		return src
	}
	return buf.String()
}

// ScoreKeys lists every integer score the profile reads from a review, the
// base scores first.
func (p *Profile) ScoreKeys() []string {
	keys := []string{"overall_quality", "accuracy", "fluency", "style_preservation"}
	for _, f := range p.ReviewScores {
		keys = append(keys, f.Key)
	}
	return keys
}

// NeedsCorrection evaluates the gate. Scores missing from the map count as 0.
func (p *Profile) NeedsCorrection(scores map[string]int, threshold int) (bool, error) {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	expr := p.GateExpr
	if expr == "" {
		expr = "overall_quality < threshold"
	}
	compiled, err := govaluate.NewEvaluableExpression(expr)
	if err != nil {
		return false, fmt.Errorf("profile %s: invalid gate %q: %w", p.Name, expr, err)
	}

	out, err := compiled.Eval(gateParams{scores: scores, threshold: threshold})
	if err != nil {
		return false, fmt.Errorf("profile %s: evaluate gate: %w", p.Name, err)
	}
	b, ok := out.(bool)
	if !ok {
		return false, fmt.Errorf("profile %s: gate %q is not boolean", p.Name, expr)
	}
	return b, nil
}

// gateParams resolves gate variables lazily so expressions may name any
// score the review returned.
type gateParams struct {
	scores    map[string]int
	threshold int
}

func (g gateParams) Get(name string) (interface{}, error) {
	if name == "threshold" {
		return float64(g.threshold), nil
	}
	return float64(g.scores[name]), nil
}

var (
	registryMu sync.RWMutex
	registry   = map[string]*Profile{}
)

// Register adds or replaces a profile.
func Register(p *Profile) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[p.Name] = p
}

// Lookup returns the named profile; an empty name selects "generic".
func Lookup(name string) (*Profile, error) {
	if name == "" {
		name = Generic
	}
	registryMu.RLock()
	defer registryMu.RUnlock()
	p, ok := registry[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("unknown profile %q (available: %s)", name, strings.Join(namesLocked(), ", "))
	}
	return p, nil
}

// Names lists the registered profiles alphabetically.
func Names() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return namesLocked()
}

func namesLocked() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
