package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valpere/peredoc/internal/document"
	"github.com/valpere/peredoc/internal/pipeline"
	"github.com/valpere/peredoc/internal/stage"
)

func sampleResult() *pipeline.Result {
	return &pipeline.Result{
		OriginalText:   "Hello world.\n\nSee you soon.",
		TranslatedText: "Bonjour le monde.\n\nÀ bientôt.",
		TargetLanguage: "Quebec French",
		DocumentAnalysis: &stage.AnalysisResult{
			DocumentType: "informal", Complexity: "low", Terms: []string{"world"},
			Raw: map[string]any{"document_type": "informal"},
		},
		QualityReview: &stage.QualityReview{
			Overall:     6,
			Scores:      map[string]int{"overall_quality": 6, "fluency": 8},
			Corrections: []string{"use 'allô'"},
			Raw:         map[string]any{"overall_quality": "6", "fluency": 8},
		},
		Diagnostics: &pipeline.Diagnostics{
			RunID: "run-1", Profile: "quebec", Backend: "ollama", Corrected: true,
			MissingTerms: []string{"email"},
		},
	}
}

func TestWrite_Text(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sampleResult(), Text))
	assert.Equal(t, "Bonjour le monde.\n\nÀ bientôt.\n", buf.String())
}

func TestWrite_JSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sampleResult(), JSON))

	var out map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	assert.Equal(t, "Quebec French", out["target_language"])
	assert.Equal(t, float64(6), out["quality_review"].(map[string]any)["overall_quality"])
}

func TestMarkdownReport(t *testing.T) {
	md := MarkdownReport(sampleResult())

	assert.True(t, strings.HasPrefix(md, "# Translation report"))
	assert.Contains(t, md, "- **Profile:** quebec")
	assert.Contains(t, md, "| fluency | 8 |")
	assert.Contains(t, md, "| overall_quality | 6 |")
	assert.Contains(t, md, "### Suggested corrections\n\n- use 'allô'")
	assert.Contains(t, md, "corrected after this review")
	assert.Contains(t, md, "### Terms missing from the output\n\n- email")
	assert.True(t, strings.HasSuffix(md, "## Translation\n\nBonjour le monde.\n\nÀ bientôt.\n"))
}

func TestMarkdownReport_Failed(t *testing.T) {
	res := &pipeline.Result{OriginalText: "x", TargetLanguage: "French", Stage: stage.Translation, Error: "HTTP 503"}
	md := MarkdownReport(res)
	assert.Contains(t, md, "- **Failed at:** translation: HTTP 503")
	assert.NotContains(t, md, "## Translation\n")
}

func TestWrite_HTML(t *testing.T) {
	res := sampleResult()
	res.TranslatedText = "Bonjour <script>alert(1)</script> le monde."

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, res, HTML))

	out := buf.String()
	assert.Contains(t, out, `<html lang="fr-CA">`)
	assert.Contains(t, out, "<h1")
	assert.NotContains(t, out, "<script>")
}

func TestWrite_DocxRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sampleResult(), Docx))

	text, err := document.Extract(buf.Bytes(), "docx")
	require.NoError(t, err)
	assert.Equal(t, "Bonjour le monde.\n\nÀ bientôt.", text)
}

func TestWrite_UnknownFormat(t *testing.T) {
	err := Write(&bytes.Buffer{}, sampleResult(), "odt")
	assert.ErrorContains(t, err, "unknown output format")
}

func TestCheckFormat(t *testing.T) {
	for _, f := range append(Formats(), "") {
		assert.NoError(t, CheckFormat(f), f)
	}
	assert.ErrorContains(t, CheckFormat("odt"), `unknown output format "odt"`)
	assert.ErrorContains(t, CheckFormat("TXT"), "supported: txt, json, md, html, docx")
}

func TestFormatFromPath(t *testing.T) {
	tests := map[string]string{
		"out.json":     JSON,
		"out.MD":       Markdown,
		"out.markdown": Markdown,
		"report.html":  HTML,
		"letter.docx":  Docx,
		"plain":        Text,
		"archive.zip":  Text,
	}
	for path, want := range tests {
		assert.Equal(t, want, FormatFromPath(path, Text), path)
	}
}
