package stage

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/valpere/peredoc/internal/excerpt"
	"github.com/valpere/peredoc/internal/generator"
	"github.com/valpere/peredoc/internal/llmjson"
	"github.com/valpere/peredoc/internal/postprocess"
	"github.com/valpere/peredoc/internal/profile"
)

// QualityReview is the model's assessment of a translation. Scores are
// coerced to integers; anything unparsable is 0.
type QualityReview struct {
	Overall     int
	Scores      map[string]int
	Issues      []string
	Corrections []string
	Extras      map[string][]string
	// Sampled is set when the review saw beginning/middle/end samples
	// instead of the full text.
	Sampled  bool
	Degraded bool
	Raw      map[string]any
}

// MarshalJSON emits the model's mapping with every profile score replaced
// by its coerced integer.
func (q *QualityReview) MarshalJSON() ([]byte, error) {
	if q == nil {
		return []byte("{}"), nil
	}
	out := make(map[string]any, len(q.Raw)+len(q.Scores))
	for k, v := range q.Raw {
		out[k] = v
	}
	for k, v := range q.Scores {
		if _, present := q.Raw[k]; present || k == "overall_quality" {
			out[k] = v
		}
	}
	return json.Marshal(out)
}

type ReviewInput struct {
	OriginalText   string
	TranslatedText string
	TargetLanguage string
	CustomTerms    map[string]string
}

// scoreAliases are alternative keys models use for the base scores.
var scoreAliases = map[string][]string{
	"overall_quality":    {"overall_quality", "overall_quality_assessment", "overall", "overall_score", "quality"},
	"accuracy":           {"accuracy", "accuracy_assessment", "accuracy_score"},
	"fluency":            {"fluency", "fluency_assessment", "fluency_score"},
	"style_preservation": {"style_preservation", "style_preservation_assessment", "style"},
}

// Scorer asks the model to grade a translation.
type Scorer struct {
	Profile *profile.Profile
}

func (s *Scorer) Name() string { return Review }

func (s *Scorer) Validate(in ReviewInput) error {
	if err := required("original text", in.OriginalText); err != nil {
		return err
	}
	return required("translated text", in.TranslatedText)
}

func (s *Scorer) Request(in ReviewInput) (generator.Request, error) {
	v := profile.Vars{Target: in.TargetLanguage}

	var sb strings.Builder
	sb.WriteString("Review the quality of this translation from English to " + in.TargetLanguage + ".\n\n")
	if excerpt.NeedsSampling(in.OriginalText) {
		orig := excerpt.Sample(in.OriginalText, excerpt.DefaultSampleChars)
		trans := excerpt.Sample(in.TranslatedText, excerpt.DefaultSampleChars)
		sb.WriteString("ORIGINAL TEXT (SAMPLES):\n")
		writeSamples(&sb, orig)
		sb.WriteString("TRANSLATION (CORRESPONDING SECTIONS):\n")
		writeSamples(&sb, trans)
	} else {
		sb.WriteString("ORIGINAL TEXT:\n" + in.OriginalText + "\n\n")
		sb.WriteString("TRANSLATION:\n" + in.TranslatedText + "\n\n")
	}
	if len(in.CustomTerms) > 0 {
		sb.WriteString(TerminologyBlock(in.CustomTerms) + "\n")
	}
	sb.WriteString("Please provide:\n")
	writeNumbered(&sb, s.Profile.ReviewAsks)
	sb.WriteString("\n")
	extra := append(append([]profile.Field{}, s.Profile.ReviewScores...), s.Profile.ReviewFields...)
	sb.WriteString(schemaInstruction(reviewShape{}, extra))

	return generator.Request{
		Prompt:    sb.String(),
		System:    profile.Render(s.Profile.ReviewSystem, v),
		MaxTokens: generator.DefaultMaxTokens,
	}, nil
}

func writeSamples(sb *strings.Builder, s excerpt.Samples) {
	sb.WriteString("Beginning: " + s.Beginning + "\n\n")
	sb.WriteString("Middle: " + s.Middle + "\n\n")
	sb.WriteString("End: " + s.End + "\n\n")
}

func (s *Scorer) Parse(in ReviewInput, raw string) (*QualityReview, error) {
	m := llmjson.Extract(postprocess.StripThinking(raw))

	q := &QualityReview{
		Scores:   map[string]int{},
		Sampled:  excerpt.NeedsSampling(in.OriginalText),
		Degraded: llmjson.IsDegraded(m),
		Raw:      m,
	}
	for _, key := range s.Profile.ScoreKeys() {
		aliases, ok := scoreAliases[key]
		if !ok {
			aliases = []string{key}
		}
		q.Scores[key] = llmjson.Score(m, aliases...)
	}
	q.Overall = q.Scores["overall_quality"]

	if v, ok := llmjson.Lookup(m, "specific_issues", "issues", "specific_issues_found"); ok {
		q.Issues = llmjson.StringList(v)
	}
	if v, ok := m["suggested_corrections"]; ok {
		q.Corrections = llmjson.StringList(v)
	}
	for _, f := range s.Profile.ReviewFields {
		if v, ok := m[f.Key]; ok {
			if q.Extras == nil {
				q.Extras = map[string][]string{}
			}
			q.Extras[f.Key] = llmjson.StringList(v)
		}
	}
	return q, nil
}

// hasCorrections reports whether the review carries a non-empty
// suggested_corrections field.
func (q *QualityReview) hasCorrections() bool {
	v, ok := q.Raw["suggested_corrections"]
	return ok && llmjson.HasContent(v)
}

type CorrectionInput struct {
	ReviewInput
	Review *QualityReview
}

// Corrector rewrites a translation to address a review.
type Corrector struct {
	Profile *profile.Profile
}

func (c *Corrector) Name() string { return Review }

func (c *Corrector) Validate(in CorrectionInput) error {
	if in.Review == nil {
		return &ValidationError{Field: "review"}
	}
	if err := required("original text", in.OriginalText); err != nil {
		return err
	}
	return required("translated text", in.TranslatedText)
}

func (c *Corrector) Request(in CorrectionInput) (generator.Request, error) {
	v := profile.Vars{Target: in.TargetLanguage}

	issues, ok := in.Review.Raw[c.Profile.IssuesKey]
	if !ok {
		issues = "No specific issues identified"
	}
	corrections, ok := in.Review.Raw["suggested_corrections"]
	if !ok {
		corrections = "No corrections suggested"
	}
	issuesJSON, _ := json.Marshal(issues)
	correctionsJSON, _ := json.Marshal(corrections)

	var sb strings.Builder
	sb.WriteString(profile.Render(c.Profile.CorrectionIntro, v) + "\n\n")
	sb.WriteString("ORIGINAL TEXT:\n" + in.OriginalText + "\n\n")
	sb.WriteString("CURRENT TRANSLATION:\n" + in.TranslatedText + "\n\n")
	sb.WriteString("ISSUES IDENTIFIED:\n" + c.Profile.IssuesLabel + string(issuesJSON) + "\n\n")
	sb.WriteString("SUGGESTED CORRECTIONS:\n" + string(correctionsJSON) + "\n\n")
	if len(in.CustomTerms) > 0 {
		sb.WriteString(TerminologyBlock(in.CustomTerms) + "\n")
	}
	sb.WriteString(profile.Render(c.Profile.CorrectionCue, v))

	return generator.Request{
		Prompt:    sb.String(),
		System:    profile.Render(c.Profile.ReviewSystem, v),
		MaxTokens: outputBudget(in.TranslatedText),
	}, nil
}

// Parse returns the corrected text, or the draft when the reply is empty.
func (c *Corrector) Parse(in CorrectionInput, raw string) (*TranslationResult, error) {
	text := postprocess.Clean(raw)
	if text == "" {
		text = in.TranslatedText
	}
	return &TranslationResult{
		OriginalText:   in.OriginalText,
		TranslatedText: text,
		TargetLanguage: in.TargetLanguage,
	}, nil
}

// ReviewOutcome is the final state of the review stage.
type ReviewOutcome struct {
	// Review is the assessment reported for the run: the original review,
	// or the re-score when Rescore is enabled and a correction ran.
	Review      *QualityReview
	Translation *TranslationResult
	Corrected   bool
	// Initial is the pre-correction review when a re-score replaced it.
	Initial *QualityReview
}

// Reviewer scores a translation and, when the profile's gate fires and the
// review suggested fixes, replaces it with a corrected one.
type Reviewer struct {
	Profile *profile.Profile
	// Threshold overrides profile.DefaultThreshold when positive.
	Threshold int
	// Rescore reviews the corrected translation once more.
	Rescore bool
	// OnCorrection is called before the correction call, if set.
	OnCorrection func(review *QualityReview)
}

func (r *Reviewer) Run(ctx context.Context, gen generator.Generator, draft *TranslationResult, terms map[string]string) (*ReviewOutcome, error) {
	if draft == nil {
		return nil, &Error{Stage: Review, Err: &ValidationError{Field: "translation"}}
	}
	in := ReviewInput{
		OriginalText:   draft.OriginalText,
		TranslatedText: draft.TranslatedText,
		TargetLanguage: draft.TargetLanguage,
		CustomTerms:    terms,
	}
	scorer := &Scorer{Profile: r.Profile}

	review, err := Invoke[ReviewInput, *QualityReview](ctx, gen, scorer, in)
	if err != nil {
		return nil, err
	}
	out := &ReviewOutcome{Review: review, Translation: draft}

	if !review.hasCorrections() {
		return out, nil
	}
	gate, err := r.Profile.NeedsCorrection(review.Scores, r.Threshold)
	if err != nil {
		return nil, &Error{Stage: Review, Err: err}
	}
	if !gate {
		return out, nil
	}

	if r.OnCorrection != nil {
		r.OnCorrection(review)
	}
	corrected, err := Invoke[CorrectionInput, *TranslationResult](ctx, gen, &Corrector{Profile: r.Profile}, CorrectionInput{ReviewInput: in, Review: review})
	if err != nil {
		return nil, err
	}
	out.Translation = corrected
	out.Corrected = corrected.TranslatedText != draft.TranslatedText

	if r.Rescore && out.Corrected {
		in.TranslatedText = corrected.TranslatedText
		rescored, err := Invoke[ReviewInput, *QualityReview](ctx, gen, scorer, in)
		if err != nil {
			return nil, err
		}
		out.Initial = review
		out.Review = rescored
	}
	return out, nil
}
