// Package stage implements the steps of the translation pipeline.
//
// Each step is a Spec: it validates its input, builds a generation request
// from it without side effects, and parses the model reply into a typed
// result. Invoke runs one Spec against a Generator and tags every failure
// with the stage name, so the orchestrator can report where a run stopped.
package stage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/valpere/peredoc/internal/generator"
)

// Stage names as they appear in results and logs.
const (
	Analysis    = "document_analysis"
	Translation = "translation"
	Review      = "quality_check"
	Enhancement = "enhancement"
	Glossary    = "glossary"
	Chat        = "document_chat"
)

// Spec is one model-backed step from In to Out.
type Spec[In, Out any] interface {
	Name() string
	Validate(in In) error
	Request(in In) (generator.Request, error)
	Parse(in In, raw string) (Out, error)
}

// Invoke validates in, calls gen once and parses the reply. Any failure is
// returned as *Error carrying spec.Name().
func Invoke[In, Out any](ctx context.Context, gen generator.Generator, spec Spec[In, Out], in In) (Out, error) {
	var zero Out
	if err := spec.Validate(in); err != nil {
		return zero, &Error{Stage: spec.Name(), Err: err}
	}
	req, err := spec.Request(in)
	if err != nil {
		return zero, &Error{Stage: spec.Name(), Err: err}
	}
	raw, err := gen.Generate(ctx, req)
	if err != nil {
		return zero, &Error{Stage: spec.Name(), Err: err}
	}
	out, err := spec.Parse(in, raw)
	if err != nil {
		return zero, &Error{Stage: spec.Name(), Err: err}
	}
	return out, nil
}

// Error is a stage failure.
type Error struct {
	Stage string
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// StageOf returns the stage name carried by err, or "".
func StageOf(err error) string {
	var se *Error
	if errors.As(err, &se) {
		return se.Stage
	}
	return ""
}

// ValidationError reports a missing or empty required input. No model call
// is made when it is returned.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s is empty", e.Field)
}

// ErrEmptyReply is returned when a stage that must produce text got none.
var ErrEmptyReply = errors.New("model returned an empty reply")

func required(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return &ValidationError{Field: field}
	}
	return nil
}

// outputBudget scales the token budget with the text being rewritten.
func outputBudget(text string) int {
	n := utf8.RuneCountInString(text) * 2
	if n < 1024 {
		n = 1024
	}
	if n > generator.MaxTokensCeiling {
		n = generator.MaxTokensCeiling
	}
	return n
}
