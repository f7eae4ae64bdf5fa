package pipeline

import (
	"github.com/valpere/peredoc/internal/generator"
	"github.com/valpere/peredoc/internal/stage"
	"github.com/valpere/peredoc/internal/validator"
)

// Input is one document to translate.
type Input struct {
	Text string `json:"text"`
	// TargetLanguage is a language name ("Quebec French") or a BCP 47 tag
	// ("fr-CA"). Empty means the profile's default target.
	TargetLanguage string `json:"target_language,omitempty"`
	// CustomTerms maps source terms to mandated target renderings.
	CustomTerms map[string]string `json:"custom_terms,omitempty"`
	Images      []generator.Image `json:"images,omitempty"`
}

// Result is the aggregate of a run. A failed run has Error and Stage set,
// keeps the outputs of the stages that completed and leaves TranslatedText
// empty.
type Result struct {
	OriginalText     string                `json:"original_text"`
	TranslatedText   string                `json:"translated_text"`
	DocumentAnalysis *stage.AnalysisResult `json:"document_analysis"`
	QualityReview    *stage.QualityReview  `json:"quality_review"`
	TargetLanguage   string                `json:"target_language"`
	Error            string                `json:"error,omitempty"`
	Stage            string                `json:"stage,omitempty"`
	Diagnostics      *Diagnostics          `json:"diagnostics,omitempty"`

	// Err is the typed failure behind Error.
	Err error `json:"-"`
}

// Failed reports whether the run stopped at a stage error.
func (r *Result) Failed() bool { return r.Err != nil || r.Error != "" }

// StageRecord is the trace of one stage.
type StageRecord struct {
	Name       string `json:"name"`
	Calls      int    `json:"calls"`
	DurationMS int64  `json:"duration_ms"`
	Error      string `json:"error,omitempty"`
}

// Diagnostics describes how a run went. None of it affects the translation.
type Diagnostics struct {
	RunID           string        `json:"run_id"`
	Profile         string        `json:"profile"`
	Backend         string        `json:"backend"`
	Stages          []StageRecord `json:"stages"`
	GenerationCalls int           `json:"generation_calls"`
	DurationMS      int64         `json:"duration_ms"`

	AnalysisDegraded bool `json:"analysis_degraded,omitempty"`
	ReviewDegraded   bool `json:"review_degraded,omitempty"`
	ReviewSampled    bool `json:"review_sampled,omitempty"`
	Corrected        bool `json:"corrected"`
	// InitialReview is the pre-correction review when the run re-scored.
	InitialReview *stage.QualityReview `json:"initial_review,omitempty"`

	GlossaryTerms  int                      `json:"glossary_terms,omitempty"`
	MissingMarkers []int                    `json:"missing_markers,omitempty"`
	MissingTerms   []string                 `json:"missing_terms,omitempty"`
	Language       *validator.LanguageCheck `json:"language_check,omitempty"`
}
