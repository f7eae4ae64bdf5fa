package stage

import (
	"encoding/json"
	"strings"

	"github.com/valpere/peredoc/internal/generator"
	"github.com/valpere/peredoc/internal/llmjson"
	"github.com/valpere/peredoc/internal/placeholder"
	"github.com/valpere/peredoc/internal/postprocess"
	"github.com/valpere/peredoc/internal/profile"
)

// TranslationResult is one complete translation of the document. A
// correction produces a new TranslationResult instead of editing this one.
type TranslationResult struct {
	OriginalText   string
	TranslatedText string
	TargetLanguage string
	// MissingMarkers lists protected spans the model dropped.
	MissingMarkers []int
}

type TranslateInput struct {
	Text           string
	TargetLanguage string
	Analysis       *AnalysisResult
	// CustomTerms are mandated renderings, source term to target term.
	CustomTerms map[string]string
	// Glossary is advisory vocabulary, e.g. from the dynamic glossary call.
	Glossary map[string]string
	Images   []generator.Image
}

// Translator renders the whole document into the target language. Its
// system instruction is built from the analysis.
type Translator struct {
	Profile *profile.Profile
}

func (t *Translator) Name() string { return Translation }

func (t *Translator) Validate(in TranslateInput) error {
	if err := required("document text", in.Text); err != nil {
		return err
	}
	return required("target language", in.TargetLanguage)
}

func (t *Translator) Request(in TranslateInput) (generator.Request, error) {
	analysis := in.Analysis
	if analysis == nil {
		analysis = DefaultAnalysis()
	}
	v := profile.Vars{Target: in.TargetLanguage, DocType: analysis.DocumentType, Complexity: analysis.Complexity}
	protected, markers := placeholder.Protect(in.Text)

	var sb strings.Builder
	sb.WriteString(profile.Render(t.Profile.TranslationIntro, v))
	sb.WriteString("\n")

	if len(analysis.Terms) > 0 && t.Profile.TermsHeading != "" {
		sb.WriteString("\n" + t.Profile.TermsHeading + "\n")
		sb.WriteString(strings.Join(analysis.Terms, "\n"))
		sb.WriteString("\n")
	}
	if len(analysis.Notes) > 0 && t.Profile.NotesHeading != "" {
		sb.WriteString("\n" + t.Profile.NotesHeading + "\n")
		sb.WriteString(strings.Join(analysis.Notes, "\n"))
		sb.WriteString("\n")
	}
	if len(in.CustomTerms) > 0 {
		sb.WriteString("\n" + TerminologyBlock(in.CustomTerms))
	}
	if len(in.Glossary) > 0 {
		b, _ := json.MarshalIndent(in.Glossary, "", "  ")
		sb.WriteString("\n" + in.TargetLanguage + " vocabulary guidelines:\n")
		sb.Write(b)
		sb.WriteString("\n")
	}
	if hint := markers.Hint(); hint != "" {
		sb.WriteString("\n" + hint + "\n")
	}

	sb.WriteString("\nTEXT TO TRANSLATE:\n")
	sb.WriteString(protected)
	sb.WriteString("\n\n")
	if len(in.Images) > 0 && t.Profile.ImageNote != "" {
		sb.WriteString(profile.Render(t.Profile.ImageNote, v))
		sb.WriteString("\n\n")
	}
	sb.WriteString(profile.Render(t.Profile.TranslationCue, v))

	return generator.Request{
		Prompt:    sb.String(),
		System:    profile.Render(t.Profile.TranslationSystem, v),
		MaxTokens: outputBudget(in.Text),
		Images:    in.Images,
	}, nil
}

func (t *Translator) Parse(in TranslateInput, raw string) (*TranslationResult, error) {
	text := postprocess.Clean(raw)
	if text == "" {
		return nil, ErrEmptyReply
	}
	// Protect is deterministic, so this yields the markers Request used.
	_, markers := placeholder.Protect(in.Text)
	return &TranslationResult{
		OriginalText:   in.Text,
		TranslatedText: markers.Restore(text),
		TargetLanguage: in.TargetLanguage,
		MissingMarkers: markers.Missing(text),
	}, nil
}

// TerminologyBlock renders mandated term renderings for a prompt.
func TerminologyBlock(terms map[string]string) string {
	if len(terms) == 0 {
		return ""
	}
	b, _ := json.MarshalIndent(terms, "", "  ")
	return "Terminology to use (always use these specific translations):\n" + string(b) + "\n"
}

type GlossaryInput struct {
	TargetLanguage string
}

// GlossaryBuilder asks the model for profile-specific vocabulary before
// translation. It only applies to profiles with a glossary prompt.
type GlossaryBuilder struct {
	Profile *profile.Profile
}

func (g *GlossaryBuilder) Name() string { return Glossary }

func (g *GlossaryBuilder) Validate(GlossaryInput) error {
	if g.Profile.Glossary == nil {
		return &ValidationError{Field: "glossary prompt"}
	}
	return nil
}

func (g *GlossaryBuilder) Request(in GlossaryInput) (generator.Request, error) {
	v := profile.Vars{Target: in.TargetLanguage}
	return generator.Request{
		Prompt:    profile.Render(g.Profile.Glossary.Prompt, v),
		System:    profile.Render(g.Profile.Glossary.System, v),
		MaxTokens: generator.DefaultMaxTokens,
	}, nil
}

// Parse keeps the string-valued entries. An unparsable reply yields an empty
// glossary rather than an error.
func (g *GlossaryBuilder) Parse(_ GlossaryInput, raw string) (map[string]string, error) {
	m := llmjson.Extract(postprocess.StripThinking(raw))
	out := map[string]string{}
	if llmjson.IsDegraded(m) {
		return out, nil
	}
	for k, v := range m {
		if s, ok := v.(string); ok && strings.TrimSpace(k) != "" && strings.TrimSpace(s) != "" {
			out[strings.TrimSpace(k)] = strings.TrimSpace(s)
		}
	}
	return out, nil
}
