// Package report writes pipeline results in the output formats the CLI and
// HTTP service offer.
package report

import (
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"github.com/fumiama/go-docx"

	"github.com/valpere/peredoc/internal/markdown"
	"github.com/valpere/peredoc/internal/pipeline"
	"github.com/valpere/peredoc/internal/profile"
)

const (
	Text     = "txt"
	JSON     = "json"
	Markdown = "md"
	HTML     = "html"
	Docx     = "docx"
)

func Formats() []string {
	return []string{Text, JSON, Markdown, HTML, Docx}
}

// FormatFromPath picks the format from an output file extension, falling
// back to def.
func FormatFromPath(path, def string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	for _, f := range Formats() {
		if ext == f {
			return f
		}
	}
	if ext == "markdown" {
		return Markdown
	}
	return def
}

// CheckFormat reports whether format can be written. The empty format
// means Text.
func CheckFormat(format string) error {
	if format == "" || slices.Contains(Formats(), format) {
		return nil
	}
	return fmt.Errorf("unknown output format %q (supported: %s)", format, strings.Join(Formats(), ", "))
}

// Write renders res to w in format.
func Write(w io.Writer, res *pipeline.Result, format string) error {
	switch format {
	case "", Text:
		_, err := io.WriteString(w, res.TranslatedText+"\n")
		return err
	case JSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	case Markdown:
		_, err := io.WriteString(w, MarkdownReport(res))
		return err
	case HTML:
		return writeHTML(w, res)
	case Docx:
		return writeDocx(w, res)
	default:
		return CheckFormat(format)
	}
}

// MarkdownReport renders the translation with its analysis, review and
// diagnostics.
func MarkdownReport(res *pipeline.Result) string {
	var sb strings.Builder
	sb.WriteString("# Translation report\n\n")
	fmt.Fprintf(&sb, "- **Target language:** %s\n", res.TargetLanguage)
	if d := res.Diagnostics; d != nil {
		fmt.Fprintf(&sb, "- **Profile:** %s\n", d.Profile)
		fmt.Fprintf(&sb, "- **Backend:** %s\n", d.Backend)
		fmt.Fprintf(&sb, "- **Run:** `%s`\n", d.RunID)
	}
	if res.Failed() {
		fmt.Fprintf(&sb, "- **Failed at:** %s: %s\n", res.Stage, res.Error)
	}
	sb.WriteString("\n")

	if a := res.DocumentAnalysis; a != nil {
		sb.WriteString("## Document analysis\n\n")
		fmt.Fprintf(&sb, "- **Type:** %s\n", a.DocumentType)
		fmt.Fprintf(&sb, "- **Complexity:** %s\n", a.Complexity)
		if len(a.Terms) > 0 {
			fmt.Fprintf(&sb, "- **Terminology:** %s\n", strings.Join(a.Terms, ", "))
		}
		if a.Degraded {
			sb.WriteString("- _The analysis reply could not be parsed; defaults were used._\n")
		}
		sb.WriteString("\n")
	}

	if q := res.QualityReview; q != nil {
		sb.WriteString("## Quality review\n\n")
		sb.WriteString("| Score | Value |\n|---|---|\n")
		keys := make([]string, 0, len(q.Scores))
		for k := range q.Scores {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&sb, "| %s | %d |\n", k, q.Scores[k])
		}
		sb.WriteString("\n")
		writeList(&sb, "Issues", q.Issues)
		writeList(&sb, "Suggested corrections", q.Corrections)
		if res.Diagnostics != nil && res.Diagnostics.Corrected {
			sb.WriteString("_The translation was corrected after this review._\n\n")
		}
	}

	if d := res.Diagnostics; d != nil {
		writeList(&sb, "Terms missing from the output", d.MissingTerms)
		if d.Language != nil && !d.Language.Match && !d.Language.Skipped {
			fmt.Fprintf(&sb, "> Output language check: expected %s, detected %s.\n\n", d.Language.Expected, d.Language.Detected)
		}
	}

	if res.TranslatedText != "" {
		sb.WriteString("## Translation\n\n")
		sb.WriteString(res.TranslatedText)
		sb.WriteString("\n")
	}
	return sb.String()
}

func writeList(sb *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(sb, "### %s\n\n", title)
	for _, it := range items {
		fmt.Fprintf(sb, "- %s\n", it)
	}
	sb.WriteString("\n")
}

var page = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html lang="{{.Lang}}">
<head>
<meta charset="utf-8">
<title>Translation report</title>
</head>
<body>
{{.Body}}
</body>
</html>
`))

func writeHTML(w io.Writer, res *pipeline.Result) error {
	lang := "und"
	if tag := profile.ResolveTarget(res.TargetLanguage).Tag; !tag.IsRoot() {
		lang = tag.String()
	}
	return page.Execute(w, struct {
		Lang string
		Body template.HTML
	}{
		Lang: lang,
		Body: template.HTML(markdown.ToHTML([]byte(MarkdownReport(res)))),
	})
}

// writeDocx writes the translation, one paragraph per block of text.
func writeDocx(w io.Writer, res *pipeline.Result) error {
	doc := docx.New().WithDefaultTheme()
	for _, block := range strings.Split(res.TranslatedText, "\n\n") {
		if block = strings.TrimSpace(block); block != "" {
			doc.AddParagraph().AddText(block)
		}
	}
	_, err := doc.WriteTo(w)
	return err
}
