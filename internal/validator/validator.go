// Package validator runs post-translation checks that never change the
// translation: whether the output is in the expected language, and whether
// mandated term renderings made it into the text.
package validator

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/valpere/peredoc/internal/detector"
)

// minValidationLength is the minimum rune count required to attempt language detection.
// Shorter texts produce unreliable results and are accepted without validation.
const minValidationLength = 20

// LanguageCheck is the outcome of an output language check.
type LanguageCheck struct {
	Expected string `json:"expected"`
	Detected string `json:"detected,omitempty"`
	Match    bool   `json:"match"`
	// Skipped is set when the text was too short or ambiguous to judge, or
	// the target has no ISO code.
	Skipped bool   `json:"skipped,omitempty"`
	Reason  string `json:"reason,omitempty"`
}

// Validator checks translation output. The underlying language detector is
// expensive to build, so every Validator shares one.
type Validator struct {
	det *detector.Detector
}

func New() *Validator {
	return &Validator{det: detector.Shared()}
}

// IsValid returns true when translatedText appears to be written in targetLang
// (an ISO 639-1 code).
//
// Short texts (fewer than minValidationLength runes) and texts whose language
// cannot be determined pass without error. When the detected language differs
// from targetLang the returned error names both codes.
func (v *Validator) IsValid(translatedText, targetLang string) (bool, error) {
	if targetLang == "" {
		return true, nil
	}

	text := strings.TrimSpace(translatedText)
	if text == "" {
		return false, fmt.Errorf("translation is empty")
	}

	if len([]rune(text)) < minValidationLength {
		return true, nil
	}

	detected, ok := v.det.DetectISO(text)
	if !ok {
		return true, nil
	}

	if !strings.EqualFold(detected, targetLang) {
		return false, fmt.Errorf("expected %s but detected %s", targetLang, detected)
	}

	return true, nil
}

// CheckLanguage reports whether text is in the language with ISO code
// targetISO.
func (v *Validator) CheckLanguage(text, targetISO string) LanguageCheck {
	check := LanguageCheck{Expected: strings.ToUpper(targetISO)}
	if targetISO == "" {
		check.Skipped, check.Reason = true, "target has no ISO code"
		return check
	}
	if len([]rune(strings.TrimSpace(text))) < minValidationLength {
		check.Skipped, check.Reason = true, "text too short"
		return check
	}
	detected, ok := v.det.DetectISO(text)
	if !ok {
		check.Skipped, check.Reason = true, "language ambiguous"
		return check
	}
	check.Detected = detected
	ok, err := v.IsValid(text, targetISO)
	check.Match = ok
	if err != nil {
		check.Reason = err.Error()
	}
	return check
}

var fold = cases.Fold()

func canonical(s string) string {
	return fold.String(norm.NFC.String(strings.TrimSpace(s)))
}

// MissingTerms returns, sorted, the source terms whose mandated rendering
// does not occur in text. Matching ignores case and Unicode normalization
// form.
func MissingTerms(text string, terms map[string]string) []string {
	if len(terms) == 0 {
		return nil
	}
	haystack := canonical(text)
	var missing []string
	for src, dst := range terms {
		want := canonical(dst)
		if want == "" {
			continue
		}
		if !strings.Contains(haystack, want) {
			missing = append(missing, src)
		}
	}
	sort.Strings(missing)
	return missing
}
