package generator

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const DefaultOpenRouterModel = "google/gemini-2.0-flash-exp:free"

// OpenRouter calls an OpenAI-compatible chat completions endpoint.
type OpenRouter struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
}

func NewOpenRouter(apiKey, baseURL, model string) *OpenRouter {
	if baseURL == "" {
		baseURL = "https://openrouter.ai/api/v1"
	}
	if model == "" {
		model = DefaultOpenRouterModel
	}
	return &OpenRouter{
		apiKey:  apiKey,
		baseURL: baseURL,
		model:   model,
		client:  &http.Client{Timeout: 10 * time.Minute},
	}
}

func (s *OpenRouter) Name() string {
	return "openrouter"
}

type chatPart struct {
	Type     string      `json:"type"`
	Text     string      `json:"text,omitempty"`
	ImageURL *chatImgURL `json:"image_url,omitempty"`
}

type chatImgURL struct {
	URL string `json:"url"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float32       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// userContent is a plain string unless images are attached, in which case
// it becomes a list of parts with data URIs.
func userContent(req Request) any {
	if len(req.Images) == 0 {
		return req.Prompt
	}
	parts := make([]chatPart, 0, len(req.Images)+1)
	for _, img := range req.Images {
		uri := fmt.Sprintf("data:%s;base64,%s", img.MediaType, base64.StdEncoding.EncodeToString(img.Data))
		parts = append(parts, chatPart{Type: "image_url", ImageURL: &chatImgURL{URL: uri}})
	}
	return append(parts, chatPart{Type: "text", Text: req.Prompt})
}

func (s *OpenRouter) Generate(ctx context.Context, req Request) (string, error) {
	if s.apiKey == "" {
		return "", fail(s.Name(), "API key required")
	}
	req, err := req.Normalize()
	if err != nil {
		return "", &GenerationError{Backend: s.Name(), Err: err}
	}

	body := chatRequest{
		Model:       s.model,
		MaxTokens:   req.MaxTokens,
		Temperature: req.TemperatureValue(),
	}
	if req.System != "" {
		body.Messages = append(body.Messages, chatMessage{Role: "system", Content: req.System})
	}
	body.Messages = append(body.Messages, chatMessage{Role: "user", Content: userContent(req)})

	jsonData, err := json.Marshal(body)
	if err != nil {
		return "", fail(s.Name(), "failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, fmt.Sprintf("%s/chat/completions", s.baseURL), bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fail(s.Name(), "failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", fmt.Sprintf("Bearer %s", s.apiKey))
	httpReq.Header.Set("HTTP-Referer", "https://peredoc.local")
	httpReq.Header.Set("X-Title", "PereDoc")

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return "", fail(s.Name(), "request failed: %w", err)
	}
	defer resp.Body.Close()

	var chatResp chatResponse
	decodeErr := json.NewDecoder(resp.Body).Decode(&chatResp)

	if resp.StatusCode != http.StatusOK {
		if chatResp.Error != nil && chatResp.Error.Message != "" {
			return "", fail(s.Name(), "API returned status %d: %s", resp.StatusCode, chatResp.Error.Message)
		}
		return "", fail(s.Name(), "API returned status %d", resp.StatusCode)
	}
	if decodeErr != nil {
		return "", fail(s.Name(), "failed to decode response: %w", decodeErr)
	}
	if len(chatResp.Choices) == 0 {
		return "", fail(s.Name(), "response has no choices")
	}
	return chatResp.Choices[0].Message.Content, nil
}
