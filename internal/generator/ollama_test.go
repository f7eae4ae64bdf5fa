package generator

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestOllama_New_Defaults(t *testing.T) {
	o := NewOllama("", nil)

	if o.baseURL != "http://localhost:11434" {
		t.Errorf("expected default base URL, got %q", o.baseURL)
	}
	if len(o.models) != len(DefaultOllamaModels) {
		t.Errorf("expected default models, got %v", o.models)
	}
	if o.Name() != "ollama" {
		t.Errorf("expected 'ollama', got %q", o.Name())
	}
}

func TestOllama_Generate_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		var req ollamaRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Model != "llama3.2" {
			t.Errorf("expected model 'llama3.2', got %q", req.Model)
		}
		if req.Stream {
			t.Error("expected stream=false")
		}
		if req.System != "You are a translator." {
			t.Errorf("unexpected system %q", req.System)
		}
		if req.Options.NumPredict != 1234 {
			t.Errorf("expected num_predict 1234, got %d", req.Options.NumPredict)
		}
		if req.Options.Temperature != DefaultTemperature {
			t.Errorf("expected default temperature, got %v", req.Options.Temperature)
		}
		if len(req.Images) != 1 || req.Images[0] != base64.StdEncoding.EncodeToString([]byte("png")) {
			t.Errorf("expected one base64 image, got %v", req.Images)
		}
		json.NewEncoder(w).Encode(ollamaResponse{Response: "Bonjour le monde."})
	}))
	defer server.Close()

	o := NewOllama(server.URL, []string{"llama3.2"})
	out, err := o.Generate(context.Background(), Request{
		Prompt:    "Translate: Hello world.",
		System:    "You are a translator.",
		MaxTokens: 1234,
		Images:    []Image{{MediaType: "image/png", Data: []byte("png")}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "Bonjour le monde." {
		t.Errorf("unexpected output %q", out)
	}
}

func TestOllama_Generate_EmptyReplyIsNotAnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(ollamaResponse{Response: ""})
	}))
	defer server.Close()

	out, err := NewOllama(server.URL, []string{"m"}).Generate(context.Background(), Request{Prompt: "x"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "" {
		t.Errorf("expected empty output, got %q", out)
	}
}

func TestOllama_Generate_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(ollamaResponse{Error: "model 'nope' not found"})
	}))
	defer server.Close()

	_, err := NewOllama(server.URL, []string{"nope"}).Generate(context.Background(), Request{Prompt: "x"})
	var genErr *GenerationError
	if !errors.As(err, &genErr) {
		t.Fatalf("expected GenerationError, got %v", err)
	}
	if genErr.Backend != "ollama" {
		t.Errorf("expected backend 'ollama', got %q", genErr.Backend)
	}
}

func TestOllama_Generate_MalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer server.Close()

	_, err := NewOllama(server.URL, []string{"m"}).Generate(context.Background(), Request{Prompt: "x"})
	var genErr *GenerationError
	if !errors.As(err, &genErr) {
		t.Fatalf("expected GenerationError for malformed body, got %v", err)
	}
}

func TestOllama_Generate_EmptyPrompt(t *testing.T) {
	_, err := NewOllama("http://127.0.0.1:1", nil).Generate(context.Background(), Request{})
	var genErr *GenerationError
	if !errors.As(err, &genErr) {
		t.Fatalf("expected GenerationError, got %v", err)
	}
}

func TestOllama_Generate_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewOllama(server.URL, []string{"m"}).Generate(ctx, Request{Prompt: "x"})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestOllama_Ping(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tags" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte(`{"models":[]}`))
	}))
	defer server.Close()

	if err := NewOllama(server.URL, nil).Ping(context.Background()); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
