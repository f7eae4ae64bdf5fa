package generator

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize_Defaults(t *testing.T) {
	req, err := Request{Prompt: "hi"}.Normalize()
	require.NoError(t, err)

	assert.Equal(t, DefaultMaxTokens, req.MaxTokens)
	require.NotNil(t, req.Temperature)
	assert.Equal(t, DefaultTemperature, *req.Temperature)
}

func TestNormalize_ClampsMaxTokens(t *testing.T) {
	req, err := Request{Prompt: "hi", MaxTokens: 250000}.Normalize()
	require.NoError(t, err)
	assert.Equal(t, MaxTokensCeiling, req.MaxTokens)

	req, err = Request{Prompt: "hi", MaxTokens: 2048}.Normalize()
	require.NoError(t, err)
	assert.Equal(t, 2048, req.MaxTokens)
}

func TestNormalize_Rejects(t *testing.T) {
	tests := []struct {
		name string
		req  Request
	}{
		{"empty prompt", Request{}},
		{"negative temperature", Request{Prompt: "x", Temperature: Temp(-0.1)}},
		{"temperature above one", Request{Prompt: "x", Temperature: Temp(1.5)}},
		{"empty image", Request{Prompt: "x", Images: []Image{{MediaType: "image/png"}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.req.Normalize()
			assert.Error(t, err)
		})
	}
}

func TestNormalize_ZeroTemperatureKept(t *testing.T) {
	req, err := Request{Prompt: "x", Temperature: Temp(0)}.Normalize()
	require.NoError(t, err)
	assert.Equal(t, float32(0), req.TemperatureValue())
}

func TestNormalize_ImageMediaTypeDefault(t *testing.T) {
	req, err := Request{Prompt: "x", Images: []Image{{Data: []byte{1}}}}.Normalize()
	require.NoError(t, err)
	assert.Equal(t, "image/png", req.Images[0].MediaType)
}

func TestGenerationError_Unwrap(t *testing.T) {
	cause := errors.New("connection refused")
	var err error = &GenerationError{Backend: "ollama", Err: cause}

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "ollama")

	var genErr *GenerationError
	assert.True(t, errors.As(err, &genErr))
}

func TestFunc_NormalizesBeforeCalling(t *testing.T) {
	var seen Request
	g := Func(func(_ context.Context, req Request) (string, error) {
		seen = req
		return "ok", nil
	})

	out, err := g.Generate(context.Background(), Request{Prompt: "p"})
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
	assert.Equal(t, DefaultMaxTokens, seen.MaxTokens)

	_, err = g.Generate(context.Background(), Request{})
	var genErr *GenerationError
	assert.True(t, errors.As(err, &genErr))
}

func TestNew_UnknownBackend(t *testing.T) {
	_, err := New(context.Background(), Config{Backend: "telepathy"})
	assert.Error(t, err)
}

func TestNew_OllamaDefault(t *testing.T) {
	g, err := New(context.Background(), Config{Model: "llama3.2"})
	require.NoError(t, err)
	assert.Equal(t, "ollama", g.Name())
}

func TestNew_OpenRouterNeedsKey(t *testing.T) {
	_, err := New(context.Background(), Config{Backend: "openrouter"})
	assert.Error(t, err)
}

func TestIsBackend(t *testing.T) {
	assert.True(t, IsBackend("Bedrock"))
	assert.True(t, IsBackend("deepseek"))
	assert.False(t, IsBackend("google"))
}

func TestWithTemperature(t *testing.T) {
	var seen []float32
	inner := Func(func(_ context.Context, req Request) (string, error) {
		seen = append(seen, *req.Temperature)
		return "ok", nil
	})
	g := WithTemperature(inner, 0.7)

	_, err := g.Generate(context.Background(), Request{Prompt: "a"})
	require.NoError(t, err)
	_, err = g.Generate(context.Background(), Request{Prompt: "b", Temperature: Temp(0)})
	require.NoError(t, err)

	assert.Equal(t, []float32{0.7, 0}, seen)
	assert.Equal(t, "func", g.Name())
}
