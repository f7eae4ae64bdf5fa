package stage

import (
	"strings"

	"github.com/valpere/peredoc/internal/generator"
	"github.com/valpere/peredoc/internal/postprocess"
	"github.com/valpere/peredoc/internal/profile"
)

type EnhanceInput struct {
	OriginalText   string
	TranslatedText string
	TargetLanguage string
}

// Enhancer is the final stylistic pass over tone, register and regional fit.
type Enhancer struct {
	Profile *profile.Profile
}

func (e *Enhancer) Name() string { return Enhancement }

func (e *Enhancer) Validate(in EnhanceInput) error {
	if err := required("original text", in.OriginalText); err != nil {
		return err
	}
	return required("translated text", in.TranslatedText)
}

func (e *Enhancer) Request(in EnhanceInput) (generator.Request, error) {
	v := profile.Vars{Target: in.TargetLanguage}

	var sb strings.Builder
	sb.WriteString(profile.Render(e.Profile.EnhanceIntro, v) + "\n\n")
	sb.WriteString("ORIGINAL TEXT:\n" + in.OriginalText + "\n\n")
	sb.WriteString("CURRENT TRANSLATION:\n" + in.TranslatedText + "\n\n")
	if len(e.Profile.EnhanceSteps) > 0 {
		sb.WriteString("Make the following enhancements:\n")
		writeNumbered(&sb, e.Profile.EnhanceSteps)
		sb.WriteString("\n")
	}
	sb.WriteString(profile.Render(e.Profile.EnhanceCue, v))

	return generator.Request{
		Prompt:    sb.String(),
		System:    profile.Render(e.Profile.EnhanceSystem, v),
		MaxTokens: outputBudget(in.TranslatedText),
	}, nil
}

// Parse returns the enhanced text, keeping the input when the reply is empty.
func (e *Enhancer) Parse(in EnhanceInput, raw string) (string, error) {
	if text := postprocess.Clean(raw); text != "" {
		return text, nil
	}
	return in.TranslatedText, nil
}
