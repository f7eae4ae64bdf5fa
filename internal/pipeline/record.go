package pipeline

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
	"unicode/utf8"

	"github.com/valpere/peredoc/internal"
)

// Record summarises res for the run history. sourceName is optional.
func Record(res *Result, sourceName string) internal.RunRecord {
	sum := sha256.Sum256([]byte(res.OriginalText))
	rec := internal.RunRecord{
		SourceName:      sourceName,
		SourceSHA256:    hex.EncodeToString(sum[:]),
		SourceChars:     utf8.RuneCountInString(res.OriginalText),
		TranslatedChars: utf8.RuneCountInString(res.TranslatedText),
		TargetLang:      res.TargetLanguage,
		FailedStage:     res.Stage,
		Error:           res.Error,
		Timestamp:       time.Now().UTC(),
	}
	if res.QualityReview != nil {
		rec.OverallQuality = res.QualityReview.Overall
	}
	if d := res.Diagnostics; d != nil {
		rec.ID = d.RunID
		rec.Profile = d.Profile
		rec.Backend = d.Backend
		rec.Corrected = d.Corrected
		rec.Degraded = d.AnalysisDegraded || d.ReviewDegraded
		rec.GenerationCalls = d.GenerationCalls
		rec.DurationMS = d.DurationMS
	}
	return rec
}
