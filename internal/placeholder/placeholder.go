// Package placeholder shields markup that must survive translation
// unchanged (fenced code, inline code, HTML tags, URLs) by swapping it for
// numbered markers such as [PH0] before the text reaches the model, and
// swapping it back afterwards. When the text already contains "[PH", the
// markers use a longer tag ([PH1_0], [PH2_0], ...) that does not occur in it.
package placeholder

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	reFencedCode = regexp.MustCompile("(?s)```.*?```")
	reInlineCode = regexp.MustCompile("`[^`\n]+`")
	reHTMLTag    = regexp.MustCompile(`</?[A-Za-z][^<>]*>`)
	reURL        = regexp.MustCompile(`https?://[^\s<>()\[\]"'` + "`" + `]+[^\s<>()\[\]"'.,;:!?` + "`" + `]`)
)

const defaultTag = "PH"

// Markers holds the originals captured by Protect, indexed by marker number.
type Markers struct {
	tag       string
	re        *regexp.Regexp
	originals []string
}

// markerTag picks the first tag whose opening "[tag" is absent from text,
// so literal marker-like text in a document is never restored over.
func markerTag(text string) string {
	tag := defaultTag
	for n := 1; strings.Contains(text, "["+tag); n++ {
		tag = defaultTag + strconv.Itoa(n) + "_"
	}
	return tag
}

func (m *Markers) marker(i int) string {
	return "[" + m.tag + strconv.Itoa(i) + "]"
}

// Protect replaces protected spans with [PHn] markers in order of appearance.
// Fenced blocks are taken first so their contents are never matched as inline
// code or tags; URLs last so links inside captured tags stay inside them.
func Protect(text string) (string, *Markers) {
	tag := markerTag(text)
	m := &Markers{tag: tag, re: regexp.MustCompile(`\[` + regexp.QuoteMeta(tag) + `(\d+)\]`)}
	replace := func(match string) string {
		id := m.marker(len(m.originals))
		m.originals = append(m.originals, match)
		return id
	}

	for _, re := range []*regexp.Regexp{reFencedCode, reInlineCode, reHTMLTag, reURL} {
		text = re.ReplaceAllStringFunc(text, replace)
	}
	return text, m
}

// Len is the number of captured spans.
func (m *Markers) Len() int {
	if m == nil {
		return 0
	}
	return len(m.originals)
}

// Restore puts the originals back. Unknown indices are left as written by
// the model.
func (m *Markers) Restore(text string) string {
	if m.Len() == 0 {
		return text
	}
	return m.re.ReplaceAllStringFunc(text, func(match string) string {
		sub := m.re.FindStringSubmatch(match)
		idx, err := strconv.Atoi(sub[1])
		if err != nil || idx >= len(m.originals) {
			return match
		}
		return m.originals[idx]
	})
}

// Missing lists marker indices the model dropped from text.
func (m *Markers) Missing(text string) []int {
	var missing []int
	for i := 0; i < m.Len(); i++ {
		if !strings.Contains(text, m.marker(i)) {
			missing = append(missing, i)
		}
	}
	return missing
}

// Hint is the prompt line telling the model to keep markers intact. It is
// empty when nothing was protected.
func (m *Markers) Hint() string {
	if m.Len() == 0 {
		return ""
	}
	return fmt.Sprintf("Keep every [%sn] marker exactly as written. Do not translate, move or remove them.", m.tag)
}
