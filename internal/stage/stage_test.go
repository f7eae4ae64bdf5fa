package stage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valpere/peredoc/internal/generator"
	"github.com/valpere/peredoc/internal/profile"
)

type reply struct {
	text string
	err  error
}

// scriptedGen returns its replies in order and records every request.
type scriptedGen struct {
	mu       sync.Mutex
	replies  []reply
	requests []generator.Request
}

func script(replies ...string) *scriptedGen {
	g := &scriptedGen{}
	for _, r := range replies {
		g.replies = append(g.replies, reply{text: r})
	}
	return g
}

func (g *scriptedGen) Name() string { return "scripted" }

func (g *scriptedGen) Generate(_ context.Context, req generator.Request) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.requests = append(g.requests, req)
	i := len(g.requests) - 1
	if i >= len(g.replies) {
		return "", &generator.GenerationError{Backend: "scripted", Err: fmt.Errorf("unexpected call %d", i+1)}
	}
	return g.replies[i].text, g.replies[i].err
}

func (g *scriptedGen) calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.requests)
}

func mustProfile(t *testing.T, name string) *profile.Profile {
	t.Helper()
	p, err := profile.Lookup(name)
	require.NoError(t, err)
	return p
}

func TestInvoke_ValidationErrorMakesNoCall(t *testing.T) {
	gen := script("unused")
	_, err := Invoke[AnalyzeInput, *AnalysisResult](context.Background(), gen, &Analyzer{Profile: mustProfile(t, profile.Generic)}, AnalyzeInput{Text: "  \n"})

	var stageErr *Error
	require.True(t, errors.As(err, &stageErr))
	assert.Equal(t, Analysis, stageErr.Stage)

	var valErr *ValidationError
	assert.True(t, errors.As(err, &valErr))
	assert.Equal(t, 0, gen.calls())
}

func TestInvoke_GenerationErrorIsTagged(t *testing.T) {
	cause := &generator.GenerationError{Backend: "scripted", Err: errors.New("timeout")}
	gen := &scriptedGen{replies: []reply{{err: cause}}}

	_, err := Invoke[TranslateInput, *TranslationResult](context.Background(), gen, &Translator{Profile: mustProfile(t, profile.Generic)},
		TranslateInput{Text: "Hello", TargetLanguage: "French"})

	assert.Equal(t, Translation, StageOf(err))
	var genErr *generator.GenerationError
	assert.True(t, errors.As(err, &genErr))
}

func TestStageOf_Untagged(t *testing.T) {
	assert.Equal(t, "", StageOf(errors.New("plain")))
	assert.Equal(t, "", StageOf(nil))
}

func TestAnalyzer_PromptTruncatesToPrefix(t *testing.T) {
	text := strings.Repeat("word ", 4000) // 20000 runes
	a := &Analyzer{Profile: mustProfile(t, profile.Generic)}

	req, err := a.Request(AnalyzeInput{Text: text})
	require.NoError(t, err)

	assert.Less(t, len(req.Prompt), 10000+4000, "prompt must carry only the prefix")
	assert.Contains(t, req.Prompt, "5. Overall complexity level for translation (low, medium, high)")
	assert.Contains(t, req.Prompt, `"complexity_level"`)
	assert.Contains(t, req.System, "document analysis expert")
	assert.Equal(t, generator.DefaultMaxTokens, req.MaxTokens)
}

func TestAnalyzer_CustomPrefix(t *testing.T) {
	a := &Analyzer{Profile: mustProfile(t, profile.Generic), MaxChars: 20}
	req, _ := a.Request(AnalyzeInput{Text: "First sentence here. Second sentence that is cut."})
	assert.Contains(t, req.Prompt, "First sentence here.")
	assert.NotContains(t, req.Prompt, "Second sentence")
}

func TestAnalyzer_Parse(t *testing.T) {
	a := &Analyzer{Profile: mustProfile(t, profile.Quebec)}

	res, err := a.Parse(AnalyzeInput{}, "```json\n"+`{
		"document_type": "technical",
		"complexity_level": "High",
		"technical_terminology": ["API", "SDK"],
		"cultural_references": ["Thanksgiving"],
		"quebec_expressions": {"weekend": "fin de semaine"}
	}`+"\n```")
	require.NoError(t, err)

	assert.Equal(t, "technical", res.DocumentType)
	assert.Equal(t, "high", res.Complexity)
	assert.Equal(t, []string{"API", "SDK"}, res.Terms)
	assert.Equal(t, []string{"Thanksgiving"}, res.Notes)
	assert.Equal(t, []string{"weekend: fin de semaine"}, res.Extras["quebec_expressions"])
	assert.False(t, res.Degraded)
}

func TestAnalyzer_ParseDegraded(t *testing.T) {
	a := &Analyzer{Profile: mustProfile(t, profile.Generic)}

	res, err := a.Parse(AnalyzeInput{}, "The document is a memo.")
	require.NoError(t, err)

	assert.True(t, res.Degraded)
	assert.Equal(t, "unknown", res.DocumentType)
	assert.Equal(t, "medium", res.Complexity)
	assert.Empty(t, res.Terms)
	assert.Equal(t, map[string]any{"raw_response": "The document is a memo."}, res.Raw)
}

func TestAnalysisResult_MarshalJSON(t *testing.T) {
	res := &AnalysisResult{Raw: map[string]any{"document_type": "legal"}}
	b, err := res.MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{"document_type":"legal"}`, string(b))
}

func TestTranslator_RequestUsesAnalysis(t *testing.T) {
	tr := &Translator{Profile: mustProfile(t, profile.Generic)}
	analysis := &AnalysisResult{DocumentType: "legal", Complexity: "high", Terms: []string{"tort", "estoppel"}}

	req, err := tr.Request(TranslateInput{
		Text:           "The tort claim fails.",
		TargetLanguage: "German",
		Analysis:       analysis,
		CustomTerms:    map[string]string{"claim": "Anspruch"},
	})
	require.NoError(t, err)

	assert.Contains(t, req.System, "specialized in legal documents with high complexity")
	assert.Contains(t, req.Prompt, "from English to German")
	assert.Contains(t, req.Prompt, "Technical terms to preserve or handle with care:\ntort\nestoppel")
	assert.Contains(t, req.Prompt, "Terminology to use (always use these specific translations):\n{\n  \"claim\": \"Anspruch\"\n}")
	assert.True(t, strings.HasSuffix(req.Prompt, "Translation:"))
	assert.Equal(t, 1024, req.MaxTokens)
}

func TestTranslator_RequestWithoutAnalysisUsesDefaults(t *testing.T) {
	tr := &Translator{Profile: mustProfile(t, profile.Generic)}
	req, err := tr.Request(TranslateInput{Text: "Hi", TargetLanguage: "French"})
	require.NoError(t, err)
	assert.Contains(t, req.System, "unknown documents with medium complexity")
}

func TestTranslator_TokenBudgetScales(t *testing.T) {
	tr := &Translator{Profile: mustProfile(t, profile.Generic)}

	req, _ := tr.Request(TranslateInput{Text: strings.Repeat("a", 3000), TargetLanguage: "French"})
	assert.Equal(t, 6000, req.MaxTokens)

	req, _ = tr.Request(TranslateInput{Text: strings.Repeat("a", 60000), TargetLanguage: "French"})
	assert.Equal(t, generator.MaxTokensCeiling, req.MaxTokens)
}

func TestTranslator_ProtectsAndRestoresMarkup(t *testing.T) {
	tr := &Translator{Profile: mustProfile(t, profile.Generic)}
	in := TranslateInput{Text: "Run `make build` then open <b>docs</b>.", TargetLanguage: "French"}

	req, err := tr.Request(in)
	require.NoError(t, err)
	assert.NotContains(t, req.Prompt, "`make build`")
	assert.Contains(t, req.Prompt, "[PH0]")
	assert.Contains(t, req.Prompt, "Keep every [PHn] marker")

	res, err := tr.Parse(in, "Translation: Lancez [PH0] puis ouvrez [PH1]docs[PH2].")
	require.NoError(t, err)
	assert.Equal(t, "Lancez `make build` puis ouvrez <b>docs</b>.", res.TranslatedText)
	assert.Empty(t, res.MissingMarkers)

	res, err = tr.Parse(in, "Lancez [PH0] puis ouvrez docs.")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, res.MissingMarkers)
}

func TestTranslator_LiteralMarkerInSource(t *testing.T) {
	tr := &Translator{Profile: mustProfile(t, profile.Generic)}
	in := TranslateInput{Text: "Write [PH0] where the name goes, then <b>bold</b>.", TargetLanguage: "French"}

	req, err := tr.Request(in)
	require.NoError(t, err)
	assert.Contains(t, req.Prompt, "Write [PH0] where the name goes, then [PH1_0]bold[PH1_1].")

	res, err := tr.Parse(in, "Écrivez [PH0] où va le nom, puis [PH1_0]gras[PH1_1].")
	require.NoError(t, err)
	assert.Equal(t, "Écrivez [PH0] où va le nom, puis <b>gras</b>.", res.TranslatedText)
	assert.Empty(t, res.MissingMarkers)
}

func TestTranslator_EmptyReplyIsError(t *testing.T) {
	tr := &Translator{Profile: mustProfile(t, profile.Generic)}
	_, err := tr.Parse(TranslateInput{Text: "x", TargetLanguage: "French"}, "  <think>hmm</think> ")
	assert.ErrorIs(t, err, ErrEmptyReply)
}

func TestTranslator_ImagesAttached(t *testing.T) {
	tr := &Translator{Profile: mustProfile(t, profile.Business)}
	img := generator.Image{MediaType: "image/png", Data: []byte{1, 2}}

	req, err := tr.Request(TranslateInput{Text: "Q3 revenue: $4.2M", TargetLanguage: "Canadian French", Images: []generator.Image{img}})
	require.NoError(t, err)

	require.Len(t, req.Images, 1)
	assert.Contains(t, req.Prompt, "analyze each image and provide a description in Canadian French")
	assert.Contains(t, req.System, "business and financial documents")
}

func TestTranslator_QuebecGlossaryAndNotes(t *testing.T) {
	tr := &Translator{Profile: mustProfile(t, profile.Quebec)}
	req, err := tr.Request(TranslateInput{
		Text:           "See you this weekend.",
		TargetLanguage: "Quebec French",
		Analysis:       &AnalysisResult{DocumentType: "informal", Complexity: "low", Notes: []string{"Thanksgiving"}},
		Glossary:       map[string]string{"weekend": "fin de semaine"},
	})
	require.NoError(t, err)

	assert.Contains(t, req.Prompt, "Cultural references to adapt for Quebec audience:\nThanksgiving")
	assert.Contains(t, req.Prompt, "Quebec French vocabulary guidelines:")
	assert.Contains(t, req.Prompt, `"weekend": "fin de semaine"`)
	assert.True(t, strings.HasSuffix(req.Prompt, "Translation (in Quebec French):"))
}

func TestGlossaryBuilder(t *testing.T) {
	g := &GlossaryBuilder{Profile: mustProfile(t, profile.Quebec)}
	require.NoError(t, g.Validate(GlossaryInput{}))

	out, err := g.Parse(GlossaryInput{}, `Here: {"email": "courriel", "parking": "stationnement", "count": 3}`)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"email": "courriel", "parking": "stationnement"}, out)

	out, err = g.Parse(GlossaryInput{}, "no json")
	require.NoError(t, err)
	assert.Empty(t, out)

	generic := &GlossaryBuilder{Profile: mustProfile(t, profile.Generic)}
	assert.Error(t, generic.Validate(GlossaryInput{}))
}

func TestEnhancer(t *testing.T) {
	e := &Enhancer{Profile: mustProfile(t, profile.Quebec)}
	in := EnhanceInput{OriginalText: "Hello", TranslatedText: "Bonjour", TargetLanguage: "Quebec French"}

	req, err := e.Request(in)
	require.NoError(t, err)
	assert.Contains(t, req.Prompt, "CURRENT TRANSLATION:\nBonjour")
	assert.Contains(t, req.Prompt, "1. Replace any International French terms with Quebec French equivalents")

	out, err := e.Parse(in, "Improved Translation: Allô")
	require.NoError(t, err)
	assert.Equal(t, "Allô", out)

	out, err = e.Parse(in, "")
	require.NoError(t, err)
	assert.Equal(t, "Bonjour", out, "empty reply keeps the prior translation")
}

func TestEnhancer_ValidateRequiresTranslation(t *testing.T) {
	e := &Enhancer{Profile: mustProfile(t, profile.Generic)}
	var valErr *ValidationError
	assert.True(t, errors.As(e.Validate(EnhanceInput{OriginalText: "x"}), &valErr))
}

func TestAsker_WithDocument(t *testing.T) {
	gen := script("  It is a greeting.  ")
	in := AskInput{
		Question:       "What is this?",
		OriginalText:   "Hello world.",
		TranslatedText: "Bonjour le monde.",
		TargetLanguage: "French",
	}

	answer, err := Invoke[AskInput, string](context.Background(), gen, &Asker{}, in)
	require.NoError(t, err)
	assert.Equal(t, "It is a greeting.", answer)

	req := gen.requests[0]
	assert.Contains(t, req.Prompt, "translated from English to French")
	assert.Contains(t, req.Prompt, "ORIGINAL DOCUMENT:\nHello world.")
	assert.Contains(t, req.Prompt, "TRANSLATED DOCUMENT:\nBonjour le monde.")
	assert.Contains(t, req.Prompt, "QUESTION:\nWhat is this?")
	assert.Contains(t, req.System, "answers questions about translated documents")
	assert.Equal(t, 2000, req.MaxTokens)
}

func TestAsker_WithoutDocumentSendsQuestion(t *testing.T) {
	req, err := (&Asker{}).Request(AskInput{Question: "How do I say hello in French?"})
	require.NoError(t, err)
	assert.Equal(t, "How do I say hello in French?", req.Prompt)
	assert.Equal(t, 1000, req.MaxTokens)
}

func TestAsker_Errors(t *testing.T) {
	gen := script()
	_, err := Invoke[AskInput, string](context.Background(), gen, &Asker{}, AskInput{OriginalText: "x"})
	var valErr *ValidationError
	require.True(t, errors.As(err, &valErr))
	assert.Equal(t, "question", valErr.Field)
	assert.Equal(t, Chat, StageOf(err))
	assert.Zero(t, gen.calls())

	_, err = Invoke[AskInput, string](context.Background(), script(" "), &Asker{}, AskInput{Question: "Why?"})
	assert.ErrorIs(t, err, ErrEmptyReply)
}
