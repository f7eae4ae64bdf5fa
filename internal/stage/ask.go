package stage

import (
	"strings"

	"github.com/valpere/peredoc/internal/generator"
)

type AskInput struct {
	Question       string
	OriginalText   string
	TranslatedText string
	TargetLanguage string
}

// HasDocument reports whether the question comes with document context.
func (in AskInput) HasDocument() bool {
	return strings.TrimSpace(in.OriginalText) != "" || strings.TrimSpace(in.TranslatedText) != ""
}

// Asker answers a free-form question about a document and its
// translation. Without document context it answers the question alone.
type Asker struct{}

const askSystem = "You are a helpful assistant that answers questions about translated documents."

func (a *Asker) Name() string { return Chat }

func (a *Asker) Validate(in AskInput) error {
	return required("question", in.Question)
}

func (a *Asker) Request(in AskInput) (generator.Request, error) {
	if !in.HasDocument() {
		return generator.Request{
			Prompt:      in.Question,
			System:      askSystem,
			MaxTokens:   1000,
			Temperature: generator.Temp(generator.DefaultTemperature),
		}, nil
	}

	target := in.TargetLanguage
	if strings.TrimSpace(target) == "" {
		target = "the target language"
	}
	var sb strings.Builder
	sb.WriteString("The user is asking about a document that has been translated from English to " + target + ".\n\n")
	if in.OriginalText != "" {
		sb.WriteString("ORIGINAL DOCUMENT:\n" + in.OriginalText + "\n\n")
	}
	if in.TranslatedText != "" {
		sb.WriteString("TRANSLATED DOCUMENT:\n" + in.TranslatedText + "\n\n")
	}
	sb.WriteString("QUESTION:\n" + in.Question + "\n\n")
	sb.WriteString("Answer the question based on the document content.")

	return generator.Request{
		Prompt:      sb.String(),
		System:      askSystem,
		MaxTokens:   2000,
		Temperature: generator.Temp(generator.DefaultTemperature),
	}, nil
}

func (a *Asker) Parse(_ AskInput, raw string) (string, error) {
	answer := strings.TrimSpace(raw)
	if answer == "" {
		return "", ErrEmptyReply
	}
	return answer, nil
}
