// Package postprocess removes common LLM artifacts from generated text.
//
// Text-producing stages (translation, correction, enhancement) pass the raw
// model reply through Clean before it becomes the document text. Stages that
// expect JSON only strip reasoning blocks with StripThinking, because braces
// inside a <think> block would otherwise confuse extraction.
package postprocess

import (
	"regexp"
	"strings"
)

// Clean strips reasoning blocks, leading echoes of the prompt's cue lines
// (such as "Improved Translation:"), a fence around the whole reply and a
// pair of outer quotes, then trims the result.
func Clean(text string) string {
	text = StripThinking(text)
	text = stripEcho(text)
	text = unfence(text)
	text = unquote(text)
	return strings.TrimSpace(text)
}

var (
	reasoningRe = regexp.MustCompile(
		`(?is)<(?:thinking|think|reasoning|reflection)>.*?</(?:thinking|think|reasoning|reflection)>`,
	)

	// A reasoning tag that was never closed runs to the end of the reply.
	openReasoningRe = regexp.MustCompile(`(?is)<(?:thinking|think|reasoning|reflection)>.*$`)
)

// StripThinking removes reasoning blocks only, leaving the rest of the reply
// untouched for structured parsing.
func StripThinking(text string) string {
	text = reasoningRe.ReplaceAllString(text, "")
	text = openReasoningRe.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

const (
	adjectives = `(?:refined |polished |translated |improved |corrected |enhanced |revised |final )?`
	languages  = `(?:quebec french |canadian french |french |english )?`
	qualifier  = `(?: \([^)\n]{0,60}\))?`
	herePrefix = `here(?:'s| is)(?: the| an| your)? `
	subject    = `(?:translation|text|version)`
)

// echoRes are anchored at the start of the reply and end with a colon.
var echoRes = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^(?:(?:certainly|sure|of course)[,.!]? )?` + herePrefix + adjectives + languages + subject + qualifier + `\s*:`),
	regexp.MustCompile(`(?i)^(?:the )?` + adjectives + languages + `(?:translation|translated text)` + qualifier + `\s*:`),
	regexp.MustCompile(`(?i)^voici (?:la |une |votre )?(?:traduction|version)[^:\n]{0,40}:`),
}

func stripEcho(text string) string {
	for _, re := range echoRes {
		if loc := re.FindStringIndex(text); loc != nil {
			text = strings.TrimSpace(text[loc[1]:])
		}
	}
	return text
}

var fenceRe = regexp.MustCompile("(?s)^```[A-Za-z0-9_+-]*[ \t]*\r?\n(.*?)\r?\n?```$")

func unfence(text string) string {
	if m := fenceRe.FindStringSubmatch(strings.TrimSpace(text)); m != nil {
		return strings.TrimSpace(m[1])
	}
	return text
}

var quotePairs = map[rune]rune{
	'"':  '"',
	'\'': '\'',
	'«':  '»',
	'“':  '”',
	'‘':  '’',
}

// unquote drops one pair of matching quotes wrapping the whole text.
func unquote(text string) string {
	r := []rune(text)
	if len(r) < 2 {
		return text
	}
	if closing, ok := quotePairs[r[0]]; ok && r[len(r)-1] == closing {
		return strings.TrimSpace(string(r[1 : len(r)-1]))
	}
	return text
}
