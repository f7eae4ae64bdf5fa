package generator

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestOpenRouter_Generate_NoAPIKey(t *testing.T) {
	_, err := NewOpenRouter("", "", "").Generate(context.Background(), Request{Prompt: "x"})
	var genErr *GenerationError
	if !errors.As(err, &genErr) {
		t.Fatalf("expected GenerationError, got %v", err)
	}
}

func TestOpenRouter_Generate_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("unexpected Authorization header %q", got)
		}

		var req struct {
			Model       string            `json:"model"`
			MaxTokens   int               `json:"max_tokens"`
			Temperature float32           `json:"temperature"`
			Messages    []json.RawMessage `json:"messages"`
		}
		json.NewDecoder(r.Body).Decode(&req)

		if req.Model != "test/model" {
			t.Errorf("expected model 'test/model', got %q", req.Model)
		}
		if req.Temperature != 0.1 {
			t.Errorf("expected temperature 0.1, got %v", req.Temperature)
		}
		if len(req.Messages) != 2 {
			t.Fatalf("expected system and user messages, got %d", len(req.Messages))
		}
		var user struct {
			Content string `json:"content"`
		}
		json.Unmarshal(req.Messages[1], &user)
		if user.Content != "Translate this" {
			t.Errorf("expected plain string content, got %q", user.Content)
		}

		w.Write([]byte(`{"choices":[{"message":{"content":"Traduisez ceci"}}]}`))
	}))
	defer server.Close()

	s := NewOpenRouter("test-key", server.URL, "test/model")
	out, err := s.Generate(context.Background(), Request{
		Prompt:      "Translate this",
		System:      "sys",
		Temperature: Temp(0.1),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "Traduisez ceci" {
		t.Errorf("unexpected output %q", out)
	}
}

func TestOpenRouter_Generate_ImageParts(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Messages []struct {
				Role    string     `json:"role"`
				Content []chatPart `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("expected list content: %v", err)
		}
		parts := req.Messages[0].Content
		if len(parts) != 2 {
			t.Fatalf("expected image and text parts, got %d", len(parts))
		}
		if parts[0].Type != "image_url" || !strings.HasPrefix(parts[0].ImageURL.URL, "data:image/jpeg;base64,") {
			t.Errorf("unexpected image part %+v", parts[0])
		}
		if parts[1].Type != "text" || parts[1].Text != "Describe" {
			t.Errorf("unexpected text part %+v", parts[1])
		}
		w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
	}))
	defer server.Close()

	_, err := NewOpenRouter("k", server.URL, "m").Generate(context.Background(), Request{
		Prompt: "Describe",
		Images: []Image{{MediaType: "image/jpeg", Data: []byte{0xff, 0xd8}}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestOpenRouter_Generate_NoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer server.Close()

	_, err := NewOpenRouter("k", server.URL, "m").Generate(context.Background(), Request{Prompt: "x"})
	if err == nil {
		t.Error("expected error for empty choices")
	}
}

func TestOpenRouter_Generate_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"invalid key"}}`))
	}))
	defer server.Close()

	_, err := NewOpenRouter("bad", server.URL, "m").Generate(context.Background(), Request{Prompt: "x"})
	if err == nil || !strings.Contains(err.Error(), "invalid key") {
		t.Errorf("expected backend message in error, got %v", err)
	}
}
