package stage

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/valpere/peredoc/internal/excerpt"
	"github.com/valpere/peredoc/internal/generator"
	"github.com/valpere/peredoc/internal/llmjson"
	"github.com/valpere/peredoc/internal/postprocess"
	"github.com/valpere/peredoc/internal/profile"
)

// AnalysisResult is the structural analysis of a document. Absent keys fall
// back to defaults so later stages never see missing data.
type AnalysisResult struct {
	DocumentType string
	Complexity   string
	Sections     []string
	Formatting   []string
	Terms        []string
	// Notes holds profile-specific findings such as cultural references.
	Notes    []string
	Extras   map[string][]string
	Degraded bool
	Raw      map[string]any
}

// MarshalJSON emits the mapping returned by the model.
func (a *AnalysisResult) MarshalJSON() ([]byte, error) {
	if a == nil || a.Raw == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(a.Raw)
}

// DefaultAnalysis is what later stages use when no analysis is available.
func DefaultAnalysis() *AnalysisResult {
	return &AnalysisResult{DocumentType: "unknown", Complexity: "medium", Raw: map[string]any{}}
}

type AnalyzeInput struct {
	Text string
}

// Analyzer classifies the document: type, structure, terminology and
// translation complexity.
type Analyzer struct {
	Profile *profile.Profile
	// MaxChars bounds the text sent for analysis; 0 means
	// excerpt.DefaultPrefixChars.
	MaxChars int
}

func (a *Analyzer) Name() string { return Analysis }

func (a *Analyzer) Validate(in AnalyzeInput) error {
	return required("document text", in.Text)
}

func (a *Analyzer) Request(in AnalyzeInput) (generator.Request, error) {
	maxChars := a.MaxChars
	if maxChars <= 0 {
		maxChars = excerpt.DefaultPrefixChars
	}
	v := profile.Vars{Target: a.Profile.DefaultTarget}

	var sb strings.Builder
	sb.WriteString(profile.Render(a.Profile.AnalysisIntro, v))
	sb.WriteString("\n\n")
	sb.WriteString(excerpt.Prefix(in.Text, maxChars))
	sb.WriteString("\n\nProvide the following information:\n")
	writeNumbered(&sb, a.Profile.AnalysisAsks)
	sb.WriteString("\n")
	sb.WriteString(schemaInstruction(analysisShape{}, a.Profile.AnalysisFields))

	return generator.Request{
		Prompt:    sb.String(),
		System:    profile.Render(a.Profile.AnalysisSystem, v),
		MaxTokens: generator.DefaultMaxTokens,
	}, nil
}

func (a *Analyzer) Parse(_ AnalyzeInput, raw string) (*AnalysisResult, error) {
	m := llmjson.Extract(postprocess.StripThinking(raw))

	res := &AnalysisResult{
		DocumentType: llmjson.String(m, "unknown", "document_type", "documentType", "type"),
		Complexity:   normalizeComplexity(llmjson.String(m, "medium", "complexity_level", "complexity", "translation_complexity")),
		Degraded:     llmjson.IsDegraded(m),
		Raw:          m,
	}
	if v, ok := llmjson.Lookup(m, "content_sections", "sections"); ok {
		res.Sections = llmjson.StringList(v)
	}
	if v, ok := llmjson.Lookup(m, "formatting_elements", "special_formatting_elements", "special_formatting"); ok {
		res.Formatting = llmjson.StringList(v)
	}
	if v, ok := llmjson.Lookup(m, "technical_terminology", "technical_terms", "terminology"); ok {
		res.Terms = llmjson.StringList(v)
	}
	for i, f := range a.Profile.AnalysisFields {
		v, ok := m[f.Key]
		if !ok {
			continue
		}
		list := llmjson.StringList(v)
		if i == 0 {
			res.Notes = list
		}
		if res.Extras == nil {
			res.Extras = map[string][]string{}
		}
		res.Extras[f.Key] = list
	}
	return res, nil
}

func normalizeComplexity(s string) string {
	s = strings.ToLower(s)
	for _, level := range []string{"high", "medium", "low"} {
		if strings.Contains(s, level) {
			return level
		}
	}
	return "medium"
}

func writeNumbered(sb *strings.Builder, items []string) {
	for i, item := range items {
		fmt.Fprintf(sb, "%d. %s\n", i+1, item)
	}
}
