package stage

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valpere/peredoc/internal/profile"
)

func draftOf(original, translated string) *TranslationResult {
	return &TranslationResult{OriginalText: original, TranslatedText: translated, TargetLanguage: "French"}
}

func TestScorer_FullTextPrompt(t *testing.T) {
	s := &Scorer{Profile: mustProfile(t, profile.Generic)}
	req, err := s.Request(ReviewInput{OriginalText: "Hello world", TranslatedText: "Bonjour le monde", TargetLanguage: "French"})
	require.NoError(t, err)

	assert.Contains(t, req.Prompt, "ORIGINAL TEXT:\nHello world")
	assert.Contains(t, req.Prompt, "TRANSLATION:\nBonjour le monde")
	assert.NotContains(t, req.Prompt, "SAMPLES")
	assert.Contains(t, req.Prompt, "1. Overall quality assessment (1-10)")
	assert.Contains(t, req.Prompt, `"suggested_corrections"`)
}

func TestScorer_SampledPrompt(t *testing.T) {
	s := &Scorer{Profile: mustProfile(t, profile.Generic)}
	original := strings.Repeat("A", 1500) + strings.Repeat("B", 1500) + strings.Repeat("C", 1500)
	translated := strings.Repeat("x", 4500)

	req, err := s.Request(ReviewInput{OriginalText: original, TranslatedText: translated, TargetLanguage: "French"})
	require.NoError(t, err)

	assert.Contains(t, req.Prompt, "ORIGINAL TEXT (SAMPLES):")
	assert.Contains(t, req.Prompt, "TRANSLATION (CORRESPONDING SECTIONS):")
	assert.Contains(t, req.Prompt, "Beginning: "+strings.Repeat("A", 1000)+"\n")
	assert.Contains(t, req.Prompt, "Middle: "+strings.Repeat("B", 1000)+"\n")
	assert.Contains(t, req.Prompt, "End: "+strings.Repeat("C", 1000)+"\n")
	assert.NotContains(t, req.Prompt, strings.Repeat("A", 1001))
	assert.Equal(t, 2, strings.Count(req.Prompt, "Beginning: "))
}

func TestScorer_SamplingBoundary(t *testing.T) {
	s := &Scorer{Profile: mustProfile(t, profile.Generic)}

	req, _ := s.Request(ReviewInput{OriginalText: strings.Repeat("a", 3000), TranslatedText: "b", TargetLanguage: "French"})
	assert.NotContains(t, req.Prompt, "SAMPLES", "3000 characters is still reviewed in full")

	req, _ = s.Request(ReviewInput{OriginalText: strings.Repeat("a", 3001), TranslatedText: "b", TargetLanguage: "French"})
	assert.Contains(t, req.Prompt, "SAMPLES")
}

func TestScorer_QuebecSchemaCarriesAuthenticity(t *testing.T) {
	s := &Scorer{Profile: mustProfile(t, profile.Quebec)}
	req, err := s.Request(ReviewInput{OriginalText: "Hi", TranslatedText: "Salut", TargetLanguage: "Quebec French"})
	require.NoError(t, err)
	assert.Contains(t, req.Prompt, `"quebec_french_authenticity"`)
	assert.Contains(t, req.Prompt, `"international_french_terms"`)
	assert.Contains(t, req.System, "Quebec French reviewer")
}

func TestScorer_ParseCoercesScores(t *testing.T) {
	s := &Scorer{Profile: mustProfile(t, profile.Generic)}

	tests := []struct {
		name    string
		reply   string
		overall int
		fluency int
	}{
		{"integers", `{"overall_quality": 8, "fluency": 9}`, 8, 9},
		{"numeric strings", `{"overall_quality": "6", "fluency": " 7 "}`, 6, 7},
		{"floats truncate", `{"overall_quality": 7.9, "fluency": 6.2}`, 7, 6},
		{"unparsable", `{"overall_quality": "not a number"}`, 0, 0},
		{"alias key", `{"overall_quality_assessment": 5, "fluency_assessment": 4}`, 5, 4},
		{"no json", `Looks fine to me.`, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := s.Parse(ReviewInput{OriginalText: "x"}, tt.reply)
			require.NoError(t, err)
			assert.Equal(t, tt.overall, q.Overall)
			assert.Equal(t, tt.overall, q.Scores["overall_quality"])
			assert.Equal(t, tt.fluency, q.Scores["fluency"])
		})
	}
}

func TestQualityReview_MarshalJSON(t *testing.T) {
	s := &Scorer{Profile: mustProfile(t, profile.Generic)}
	q, err := s.Parse(ReviewInput{OriginalText: "x"}, `{"overall_quality": "6", "accuracy": 8, "notes": "ok"}`)
	require.NoError(t, err)

	b, err := json.Marshal(q)
	require.NoError(t, err)
	assert.JSONEq(t, `{"overall_quality": 6, "accuracy": 8, "notes": "ok"}`, string(b))

	q, _ = s.Parse(ReviewInput{OriginalText: "x"}, `garbage`)
	b, _ = json.Marshal(q)
	assert.JSONEq(t, `{"raw_response": "garbage", "overall_quality": 0}`, string(b))
}

func TestReviewer_CorrectionGate(t *testing.T) {
	tests := []struct {
		name      string
		review    string
		wantCalls int
		corrected bool
	}{
		{
			name:      "below threshold with corrections",
			review:    `{"overall_quality": 6, "suggested_corrections": ["use 'courriel'"]}`,
			wantCalls: 2,
			corrected: true,
		},
		{
			name:      "at threshold",
			review:    `{"overall_quality": 7, "suggested_corrections": ["use 'courriel'"]}`,
			wantCalls: 1,
		},
		{
			name:      "numeric string below threshold",
			review:    `{"overall_quality": "6", "suggested_corrections": "use 'courriel'"}`,
			wantCalls: 2,
			corrected: true,
		},
		{
			name:      "unparsable score counts as zero",
			review:    `{"overall_quality": "not a number", "suggested_corrections": ["fix it"]}`,
			wantCalls: 2,
			corrected: true,
		},
		{
			name:      "low score without corrections",
			review:    `{"overall_quality": 3, "suggested_corrections": []}`,
			wantCalls: 1,
		},
		{
			name:      "low score with blank corrections",
			review:    `{"overall_quality": 3, "suggested_corrections": "  "}`,
			wantCalls: 1,
		},
		{
			name:      "degraded review",
			review:    `I cannot score this.`,
			wantCalls: 1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := script(tt.review, "Le courriel est arrivé.")
			r := &Reviewer{Profile: mustProfile(t, profile.Generic)}

			out, err := r.Run(context.Background(), gen, draftOf("The email arrived.", "Le e-mail est arrivé."), nil)
			require.NoError(t, err)

			assert.Equal(t, tt.wantCalls, gen.calls())
			assert.Equal(t, tt.corrected, out.Corrected)
			if tt.corrected {
				assert.Equal(t, "Le courriel est arrivé.", out.Translation.TranslatedText)
			} else {
				assert.Equal(t, "Le e-mail est arrivé.", out.Translation.TranslatedText)
			}
			assert.Nil(t, out.Initial)
		})
	}
}

func TestReviewer_CustomThreshold(t *testing.T) {
	gen := script(`{"overall_quality": 8, "suggested_corrections": ["x"]}`, "better")
	r := &Reviewer{Profile: mustProfile(t, profile.Generic), Threshold: 9}

	out, err := r.Run(context.Background(), gen, draftOf("a", "b"), nil)
	require.NoError(t, err)
	assert.True(t, out.Corrected)
	assert.Equal(t, 2, gen.calls())
}

func TestReviewer_QuebecAuthenticityGate(t *testing.T) {
	gen := script(
		`{"overall_quality": 9, "quebec_french_authenticity": 5,
		  "international_french_terms": ["week-end"], "suggested_corrections": ["fin de semaine"]}`,
		"Bonne fin de semaine!",
	)
	var seen *QualityReview
	r := &Reviewer{Profile: mustProfile(t, profile.Quebec), OnCorrection: func(q *QualityReview) { seen = q }}

	out, err := r.Run(context.Background(), gen, draftOf("Have a nice weekend!", "Bon week-end!"), map[string]string{"weekend": "fin de semaine"})
	require.NoError(t, err)

	assert.True(t, out.Corrected)
	assert.Equal(t, "Bonne fin de semaine!", out.Translation.TranslatedText)
	require.NotNil(t, seen)
	assert.Equal(t, 5, seen.Scores["quebec_french_authenticity"])
	assert.Equal(t, []string{"week-end"}, seen.Extras["international_french_terms"])

	correction := gen.requests[1].Prompt
	assert.Contains(t, correction, "ISSUES IDENTIFIED:\nInternational French terms: [\"week-end\"]")
	assert.Contains(t, correction, "SUGGESTED CORRECTIONS:\n[\"fin de semaine\"]")
	assert.Contains(t, correction, `"weekend": "fin de semaine"`)
	assert.Contains(t, gen.requests[0].Prompt, `"weekend": "fin de semaine"`, "custom terms reach the review prompt")
}

func TestReviewer_QuebecAuthenticOnlyPasses(t *testing.T) {
	gen := script(`{"overall_quality": 9, "quebec_french_authenticity": 8, "suggested_corrections": ["minor"]}`)
	r := &Reviewer{Profile: mustProfile(t, profile.Quebec)}

	out, err := r.Run(context.Background(), gen, draftOf("a", "b"), nil)
	require.NoError(t, err)
	assert.False(t, out.Corrected)
	assert.Equal(t, 1, gen.calls())
}

func TestReviewer_EmptyCorrectionKeepsDraft(t *testing.T) {
	gen := script(`{"overall_quality": 2, "suggested_corrections": ["rewrite"]}`, "   ")
	r := &Reviewer{Profile: mustProfile(t, profile.Generic)}

	out, err := r.Run(context.Background(), gen, draftOf("Hello", "Salut"), nil)
	require.NoError(t, err)
	assert.Equal(t, 2, gen.calls())
	assert.False(t, out.Corrected)
	assert.Equal(t, "Salut", out.Translation.TranslatedText)
}

func TestReviewer_CorrectionMissingIssuesKey(t *testing.T) {
	gen := script(`{"overall_quality": 2, "suggested_corrections": ["rewrite"]}`, "Bonjour")
	r := &Reviewer{Profile: mustProfile(t, profile.Generic)}

	_, err := r.Run(context.Background(), gen, draftOf("Hello", "Salut"), nil)
	require.NoError(t, err)
	assert.Contains(t, gen.requests[1].Prompt, `ISSUES IDENTIFIED:`+"\n"+`"No specific issues identified"`)
}

func TestReviewer_Rescore(t *testing.T) {
	gen := script(
		`{"overall_quality": 4, "suggested_corrections": ["rewrite"]}`,
		"Bonjour",
		`{"overall_quality": 9}`,
	)
	r := &Reviewer{Profile: mustProfile(t, profile.Generic), Rescore: true}

	out, err := r.Run(context.Background(), gen, draftOf("Hello", "Salut"), nil)
	require.NoError(t, err)

	assert.Equal(t, 3, gen.calls())
	assert.Equal(t, 9, out.Review.Overall)
	require.NotNil(t, out.Initial)
	assert.Equal(t, 4, out.Initial.Overall)
	assert.Contains(t, gen.requests[2].Prompt, "TRANSLATION:\nBonjour")
}

func TestReviewer_RescoreSkippedWithoutCorrection(t *testing.T) {
	gen := script(`{"overall_quality": 9}`)
	r := &Reviewer{Profile: mustProfile(t, profile.Generic), Rescore: true}

	out, err := r.Run(context.Background(), gen, draftOf("Hello", "Bonjour"), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, gen.calls())
	assert.Nil(t, out.Initial)
}

func TestReviewer_CorrectionFailureIsTagged(t *testing.T) {
	gen := script(`{"overall_quality": 2, "suggested_corrections": ["x"]}`)
	r := &Reviewer{Profile: mustProfile(t, profile.Generic)}

	_, err := r.Run(context.Background(), gen, draftOf("Hello", "Salut"), nil)
	require.Error(t, err)
	assert.Equal(t, Review, StageOf(err))
}

func TestReviewer_NilDraft(t *testing.T) {
	r := &Reviewer{Profile: mustProfile(t, profile.Generic)}
	_, err := r.Run(context.Background(), script(), nil, nil)
	assert.Equal(t, Review, StageOf(err))
}
