package profile

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup(t *testing.T) {
	p, err := Lookup("")
	require.NoError(t, err)
	assert.Equal(t, Generic, p.Name)

	p, err = Lookup("Quebec")
	require.NoError(t, err)
	assert.Equal(t, Quebec, p.Name)

	_, err = Lookup("klingon")
	assert.ErrorContains(t, err, "available: business, generic, quebec")
}

func TestNames(t *testing.T) {
	assert.Equal(t, []string{Business, Generic, Quebec}, Names())
}

func TestBuiltinTemplatesRender(t *testing.T) {
	v := Vars{Target: "Quebec French", DocType: "technical", Complexity: "high"}
	for _, name := range Names() {
		p, err := Lookup(name)
		require.NoError(t, err)

		for _, src := range []string{
			p.AnalysisSystem, p.AnalysisIntro,
			p.TranslationSystem, p.TranslationIntro, p.TranslationCue, p.ImageNote,
			p.ReviewSystem, p.CorrectionIntro, p.CorrectionCue,
			p.EnhanceSystem, p.EnhanceIntro, p.EnhanceCue,
		} {
			out := Render(src, v)
			assert.NotContains(t, out, "{{", "profile %s: unrendered template %q", name, src)
		}
		assert.NotEmpty(t, p.AnalysisAsks, name)
		assert.NotEmpty(t, p.ReviewAsks, name)
		assert.NotEmpty(t, p.IssuesKey, name)
	}
}

func TestRender_SubstitutesVars(t *testing.T) {
	p, _ := Lookup(Generic)
	out := Render(p.TranslationSystem, Vars{DocType: "legal", Complexity: "low"})
	assert.True(t, strings.HasPrefix(out, "You are an expert translator specialized in legal documents with low complexity."))
}

func TestRender_BrokenTemplateReturnedAsIs(t *testing.T) {
	assert.Equal(t, "{{.Target", Render("{{.Target", Vars{Target: "x"}))
}

func TestNeedsCorrection_GenericThreshold(t *testing.T) {
	p, _ := Lookup(Generic)

	tests := []struct {
		overall int
		want    bool
	}{
		{0, true},
		{6, true},
		{7, false},
		{10, false},
	}
	for _, tt := range tests {
		got, err := p.NeedsCorrection(map[string]int{"overall_quality": tt.overall}, 0)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "overall=%d", tt.overall)
	}
}

func TestNeedsCorrection_CustomThreshold(t *testing.T) {
	p, _ := Lookup(Generic)

	got, err := p.NeedsCorrection(map[string]int{"overall_quality": 8}, 9)
	require.NoError(t, err)
	assert.True(t, got)
}

func TestNeedsCorrection_QuebecAuthenticity(t *testing.T) {
	p, _ := Lookup(Quebec)

	got, err := p.NeedsCorrection(map[string]int{"overall_quality": 9, "quebec_french_authenticity": 7}, 0)
	require.NoError(t, err)
	assert.True(t, got, "low authenticity must trigger correction")

	got, err = p.NeedsCorrection(map[string]int{"overall_quality": 9, "quebec_french_authenticity": 8}, 0)
	require.NoError(t, err)
	assert.False(t, got)
}

func TestNeedsCorrection_InvalidExpression(t *testing.T) {
	p := &Profile{Name: "broken", GateExpr: "overall_quality <"}
	_, err := p.NeedsCorrection(nil, 0)
	assert.Error(t, err)

	p = &Profile{Name: "numeric", GateExpr: "overall_quality + 1"}
	_, err = p.NeedsCorrection(nil, 0)
	assert.Error(t, err)
}

func TestScoreKeys(t *testing.T) {
	p, _ := Lookup(Quebec)
	assert.Equal(t, []string{"overall_quality", "accuracy", "fluency", "style_preservation", "quebec_french_authenticity"}, p.ScoreKeys())
}

func TestResolveTarget(t *testing.T) {
	tests := []struct {
		in       string
		wantName string
		wantBase string
		profile  string
	}{
		{"", "French", "fr", Generic},
		{"French", "French", "fr", Generic},
		{"Quebec French", "Quebec French", "fr", Quebec},
		{"fr-CA", "Canadian French", "fr", Quebec},
		{"de", "German", "de", Generic},
		{"Klingon", "Klingon", "", Generic},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			target := ResolveTarget(tt.in)
			assert.Equal(t, tt.wantName, target.Name)
			assert.Equal(t, tt.wantBase, target.Base())
			assert.Equal(t, tt.profile, ForTarget(target))
		})
	}
}
