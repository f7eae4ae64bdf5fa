package generator

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"time"
)

var DefaultOllamaModels = []string{
	"llama3.2",
	"gemma2:2b",
	"qwen2.5:3b",
	"mistral:7b",
	"phi4:14b",
}

// Ollama calls a local Ollama server through /api/generate.
type Ollama struct {
	baseURL string
	models  []string
	client  *http.Client
}

func NewOllama(baseURL string, models []string) *Ollama {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if len(models) == 0 {
		models = DefaultOllamaModels
	}
	return &Ollama{
		baseURL: baseURL,
		models:  models,
		client:  &http.Client{Timeout: 10 * time.Minute},
	}
}

func (o *Ollama) Name() string {
	return "ollama"
}

// model picks the configured model, or a random one when several are listed.
func (o *Ollama) model() string {
	if len(o.models) == 1 {
		return o.models[0]
	}
	return o.models[rand.Intn(len(o.models))]
}

type ollamaOptions struct {
	Temperature float32 `json:"temperature"`
	NumPredict  int     `json:"num_predict"`
}

type ollamaRequest struct {
	Model   string        `json:"model"`
	Prompt  string        `json:"prompt"`
	System  string        `json:"system,omitempty"`
	Images  []string      `json:"images,omitempty"`
	Stream  bool          `json:"stream"`
	Options ollamaOptions `json:"options"`
}

type ollamaResponse struct {
	Response string `json:"response"`
	Error    string `json:"error"`
}

func (o *Ollama) Generate(ctx context.Context, req Request) (string, error) {
	req, err := req.Normalize()
	if err != nil {
		return "", &GenerationError{Backend: o.Name(), Err: err}
	}

	body := ollamaRequest{
		Model:  o.model(),
		Prompt: req.Prompt,
		System: req.System,
		Stream: false,
		Options: ollamaOptions{
			Temperature: req.TemperatureValue(),
			NumPredict:  req.MaxTokens,
		},
	}
	for _, img := range req.Images {
		body.Images = append(body.Images, base64.StdEncoding.EncodeToString(img.Data))
	}

	jsonData, err := json.Marshal(body)
	if err != nil {
		return "", fail(o.Name(), "failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, fmt.Sprintf("%s/api/generate", o.baseURL), bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fail(o.Name(), "failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(httpReq)
	if err != nil {
		return "", fail(o.Name(), "request failed: %w", err)
	}
	defer resp.Body.Close()

	var ollamaResp ollamaResponse
	decodeErr := json.NewDecoder(resp.Body).Decode(&ollamaResp)

	if resp.StatusCode != http.StatusOK {
		if ollamaResp.Error != "" {
			return "", fail(o.Name(), "API returned status %d: %s", resp.StatusCode, ollamaResp.Error)
		}
		return "", fail(o.Name(), "API returned status %d", resp.StatusCode)
	}
	if decodeErr != nil {
		return "", fail(o.Name(), "failed to decode response: %w", decodeErr)
	}
	return ollamaResp.Response, nil
}

// Ping checks that the server is reachable.
func (o *Ollama) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/api/tags", o.baseURL), nil)
	if err != nil {
		return err
	}
	resp, err := o.client.Do(req)
	if err != nil {
		return fmt.Errorf("ollama not available: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ollama returned status %d", resp.StatusCode)
	}
	return nil
}
