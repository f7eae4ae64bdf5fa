// Package detector identifies the language of a translated text.
package detector

import (
	"strings"
	"sync"

	lingua "github.com/pemistahl/lingua-go"
)

// Detection is the detected language of a text.
type Detection struct {
	// ISO is the upper-case ISO 639-1 code, e.g. "FR".
	ISO        string
	Name       string
	Confidence float64
}

// Detector wraps a lingua detector. Building one loads every language
// model, so callers share the instance returned by Shared.
type Detector struct {
	detector lingua.LanguageDetector
}

func New() *Detector {
	detector := lingua.NewLanguageDetectorBuilder().
		FromAllLanguages().
		WithMinimumRelativeDistance(0.1).
		Build()

	return &Detector{detector: detector}
}

var (
	sharedOnce sync.Once
	shared     *Detector
)

// Shared returns a process-wide detector, built on first use.
func Shared() *Detector {
	sharedOnce.Do(func() { shared = New() })
	return shared
}

func (d *Detector) Detect(text string) (lingua.Language, bool) {
	if strings.TrimSpace(text) == "" {
		return lingua.Unknown, false
	}
	return d.detector.DetectLanguageOf(text)
}

func (d *Detector) DetectISO(text string) (string, bool) {
	lang, ok := d.Detect(text)
	if !ok {
		return "", false
	}
	return lang.IsoCode639_1().String(), true
}

// Inspect returns the detected language together with the detector's
// confidence in it.
func (d *Detector) Inspect(text string) (Detection, bool) {
	lang, ok := d.Detect(text)
	if !ok {
		return Detection{}, false
	}
	return Detection{
		ISO:        lang.IsoCode639_1().String(),
		Name:       lang.String(),
		Confidence: d.detector.ComputeLanguageConfidence(text, lang),
	}, true
}
