// Package generatortest provides a canned Generator for tests of code that
// drives the full pipeline.
package generatortest

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/valpere/peredoc/internal/generator"
)

// Replies are the canned answers, one per pipeline step.
type Replies struct {
	Analysis    string
	Glossary    string
	Translation string
	Review      string
	Correction  string
	Enhancement string
	Answer      string
}

// Default replies describe a clean run: high review score, no correction.
func Default() Replies {
	return Replies{
		Analysis:    `{"document_type": "informal", "complexity_level": "low", "technical_terminology": []}`,
		Glossary:    `{"email": "courriel"}`,
		Translation: "Bonjour le monde.",
		Review:      `{"overall_quality": 9, "accuracy": 9, "fluency": 9, "style_preservation": 9, "suggested_corrections": []}`,
		Correction:  "Bonjour à tous.",
		Enhancement: "Bonjour tout le monde.",
		Answer:      "The document is a short greeting.",
	}
}

// Model answers each request according to the step that issued it,
// recognised from the prompt. It is safe for concurrent use.
type Model struct {
	Replies Replies
	// Err, when set, is returned for every call.
	Err error
	// Block, when set, holds every call until it is closed or the call's
	// context is done.
	Block chan struct{}

	calls    atomic.Int32
	canceled atomic.Int32
	mu      sync.Mutex
	prompts []string
}

func New() *Model {
	return &Model{Replies: Default()}
}

func (m *Model) Name() string { return "fake" }

func (m *Model) Generate(ctx context.Context, req generator.Request) (string, error) {
	m.calls.Add(1)
	m.mu.Lock()
	m.prompts = append(m.prompts, req.Prompt)
	m.mu.Unlock()
	if m.Err != nil {
		return "", m.Err
	}
	if m.Block != nil {
		select {
		case <-m.Block:
		case <-ctx.Done():
		}
	}
	if err := ctx.Err(); err != nil {
		m.canceled.Add(1)
		return "", err
	}
	p := req.Prompt
	switch {
	case strings.Contains(req.System, "answers questions about"):
		return m.Replies.Answer, nil
	case strings.Contains(p, "ISSUES IDENTIFIED:"):
		return m.Replies.Correction, nil
	case strings.Contains(p, "TEXT TO TRANSLATE:"):
		return m.Replies.Translation, nil
	case strings.Contains(p, "Review the quality"):
		return m.Replies.Review, nil
	case strings.Contains(p, "Enhance the following"):
		return m.Replies.Enhancement, nil
	case strings.Contains(p, "Create a glossary"):
		return m.Replies.Glossary, nil
	default:
		return m.Replies.Analysis, nil
	}
}

// Calls is the number of Generate calls so far.
func (m *Model) Calls() int { return int(m.calls.Load()) }

// Canceled is the number of calls that returned because their context
// was done.
func (m *Model) Canceled() int { return int(m.canceled.Load()) }

// Prompts returns every prompt received, in call order.
func (m *Model) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.prompts...)
}

// PromptContaining returns the first prompt that contains marker.
func (m *Model) PromptContaining(marker string) string {
	for _, p := range m.Prompts() {
		if strings.Contains(p, marker) {
			return p
		}
	}
	return ""
}
