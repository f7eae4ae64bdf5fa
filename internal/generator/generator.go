// Package generator is the narrow boundary to text-generation backends.
// Every backend takes the same Request and returns the model's text reply;
// transport, authentication and decoding failures come back as
// *GenerationError so callers can tell them apart from an empty reply.
package generator

import (
	"context"
	"errors"
	"fmt"
)

const (
	// DefaultMaxTokens applies when a request leaves MaxTokens unset.
	DefaultMaxTokens = 4000

	// MaxTokensCeiling is the largest budget any stage may ask for.
	MaxTokensCeiling = 100000

	// DefaultTemperature favours deterministic output for translation work.
	DefaultTemperature float32 = 0.3
)

// Image is a binary attachment sent alongside the prompt.
type Image struct {
	MediaType string `json:"media_type"`
	Data      []byte `json:"data"`
}

// Request is one generation call.
type Request struct {
	Prompt      string
	System      string
	MaxTokens   int
	Temperature *float32
	Images      []Image
}

// Temp returns a pointer to t, for building requests inline.
func Temp(t float32) *float32 { return &t }

// Normalize applies defaults and bounds. It fails only when the request can
// never be sent.
func (r Request) Normalize() (Request, error) {
	if r.Prompt == "" {
		return r, errors.New("prompt is empty")
	}
	switch {
	case r.MaxTokens <= 0:
		r.MaxTokens = DefaultMaxTokens
	case r.MaxTokens > MaxTokensCeiling:
		r.MaxTokens = MaxTokensCeiling
	}
	if r.Temperature == nil {
		r.Temperature = Temp(DefaultTemperature)
	} else if t := *r.Temperature; t < 0 || t > 1 {
		return r, fmt.Errorf("temperature %.2f outside [0, 1]", t)
	}
	r.Images = append([]Image(nil), r.Images...)
	for i, img := range r.Images {
		if len(img.Data) == 0 {
			return r, fmt.Errorf("image %d is empty", i)
		}
		if img.MediaType == "" {
			r.Images[i].MediaType = "image/png"
		}
	}
	return r, nil
}

// TemperatureValue is the effective temperature of a normalized request.
func (r Request) TemperatureValue() float32 {
	if r.Temperature == nil {
		return DefaultTemperature
	}
	return *r.Temperature
}

// Generator produces text for a request. Implementations are safe for
// concurrent use.
type Generator interface {
	Name() string
	Generate(ctx context.Context, req Request) (string, error)
}

// GenerationError reports a failed call to a backend.
type GenerationError struct {
	Backend string
	Err     error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("%s generation failed: %v", e.Backend, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

func fail(backend string, format string, args ...any) error {
	return &GenerationError{Backend: backend, Err: fmt.Errorf(format, args...)}
}

// Func adapts a plain function to Generator.
type Func func(ctx context.Context, req Request) (string, error)

func (f Func) Name() string { return "func" }

func (f Func) Generate(ctx context.Context, req Request) (string, error) {
	req, err := req.Normalize()
	if err != nil {
		return "", &GenerationError{Backend: "func", Err: err}
	}
	return f(ctx, req)
}

// WithTemperature returns g with t applied to requests that leave the
// temperature unset.
func WithTemperature(g Generator, t float32) Generator {
	return &tempered{Generator: g, temp: t}
}

type tempered struct {
	Generator
	temp float32
}

func (g *tempered) Generate(ctx context.Context, req Request) (string, error) {
	if req.Temperature == nil {
		req.Temperature = Temp(g.temp)
	}
	return g.Generator.Generate(ctx, req)
}
