package internal

import "time"

// RunRecord is the audit entry of one pipeline run. It never carries
// document text, only a digest of the source.
type RunRecord struct {
	ID              string    `json:"id"`
	SourceName      string    `json:"source_name,omitempty"`
	SourceSHA256    string    `json:"source_sha256"`
	SourceChars     int       `json:"source_chars"`
	TranslatedChars int       `json:"translated_chars"`
	TargetLang      string    `json:"target_lang"`
	Profile         string    `json:"profile"`
	Backend         string    `json:"backend"`
	OverallQuality  int       `json:"overall_quality"`
	Corrected       bool      `json:"corrected"`
	Degraded        bool      `json:"degraded"`
	FailedStage     string    `json:"failed_stage,omitempty"`
	Error           string    `json:"error,omitempty"`
	GenerationCalls int       `json:"generation_calls"`
	DurationMS      int64     `json:"duration_ms"`
	Timestamp       time.Time `json:"timestamp"`
}

// Succeeded reports whether the run produced a translation.
func (r RunRecord) Succeeded() bool { return r.FailedStage == "" && r.Error == "" }
