// Package excerpt cuts bounded views out of a document for prompts that
// cannot carry the full text: the analysis prefix and the three-point review
// sample. All lengths are counted in unicode code points.
package excerpt

import (
	"strings"
	"unicode"
)

const (
	// DefaultPrefixChars bounds the text sent to the analysis stage.
	DefaultPrefixChars = 10000

	// SampleThreshold is the length above which review switches from the
	// full text to three samples.
	SampleThreshold = 3000

	// DefaultSampleChars is the size of each review sample.
	DefaultSampleChars = 1000
)

// Prefix returns at most maxChars runes from the start of text. When text is
// longer, the cut is moved back to the nearest paragraph break, sentence end
// or word boundary, provided that keeps at least 80% of the budget; otherwise
// the text is cut hard at maxChars. maxChars <= 0 disables truncation.
func Prefix(text string, maxChars int) string {
	if maxChars <= 0 || len([]rune(text)) <= maxChars {
		return text
	}
	split := findSplit(text, maxChars, maxChars*4/5)
	return strings.TrimRightFunc(text[:split], unicode.IsSpace)
}

// NeedsSampling reports whether text is long enough to be reviewed by samples.
func NeedsSampling(text string) bool {
	return len([]rune(text)) > SampleThreshold
}

// Samples is a beginning/middle/end view of a long text.
type Samples struct {
	Beginning string
	Middle    string
	End       string
}

// Sample takes three windows of up to size runes: the start, the window
// centred on the midpoint, and the tail. Windows are clamped to the text, so a
// short text yields overlapping samples rather than an error.
func Sample(text string, size int) Samples {
	if size <= 0 {
		size = DefaultSampleChars
	}
	runes := []rune(text)
	n := len(runes)

	head := clamp(size, 0, n)

	mid := n / 2
	midStart := clamp(mid-size/2, 0, n)
	midEnd := clamp(midStart+size, 0, n)

	tailStart := clamp(n-size, 0, n)

	return Samples{
		Beginning: string(runes[:head]),
		Middle:    string(runes[midStart:midEnd]),
		End:       string(runes[tailStart:]),
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// findSplit returns the byte index at which to cut text so that the head has
// at most maxChars runes. Boundaries that would keep fewer than minChars runes
// are ignored.
func findSplit(text string, maxChars, minChars int) int {
	runes := []rune(text)
	if len(runes) <= maxChars {
		return len(text)
	}
	candidate := runes[:maxChars]
	byteOffset := func(i int) int { return len(string(candidate[:i])) }

	// 1. Paragraph boundary.
	for i := len(candidate) - 1; i >= minChars && i > 0; i-- {
		if candidate[i] == '\n' && candidate[i-1] == '\n' {
			return byteOffset(i - 1)
		}
	}

	// 2. Sentence-ending punctuation followed by whitespace.
	for i := len(candidate) - 2; i >= minChars && i > 0; i-- {
		r := candidate[i]
		if (r == '.' || r == '!' || r == '?') && unicode.IsSpace(candidate[i+1]) {
			return byteOffset(i + 1)
		}
	}

	// 3. Word boundary.
	for i := len(candidate) - 1; i >= minChars && i > 0; i-- {
		if unicode.IsSpace(candidate[i]) {
			return byteOffset(i)
		}
	}

	// 4. Hard cut.
	return byteOffset(len(candidate))
}
