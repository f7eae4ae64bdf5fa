package generator

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino-ext/components/model/claude"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino-ext/components/model/qwen"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

const (
	deepSeekBaseURL  = "https://api.deepseek.com"
	dashScopeBaseURL = "https://dashscope.aliyuncs.com/compatible-mode/v1"
)

// chatModel is the slice of eino's chat model interface used here.
type chatModel interface {
	Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error)
}

// Eino adapts an eino chat model (OpenAI, DeepSeek, Claude, Ark, Qwen) to
// Generator.
type Eino struct {
	provider string
	model    chatModel
}

// EinoConfig selects and configures an eino provider.
type EinoConfig struct {
	Provider string
	BaseURL  string
	APIKey   string
	Model    string
	Timeout  time.Duration
}

func NewEino(ctx context.Context, cfg EinoConfig) (*Eino, error) {
	if cfg.Model == "" {
		return nil, fmt.Errorf("%s: model name is required", cfg.Provider)
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Minute
	}
	temp := DefaultTemperature
	maxTokens := DefaultMaxTokens

	var (
		cm  chatModel
		err error
	)
	switch strings.ToLower(cfg.Provider) {
	case "openai":
		cm, err = openai.NewChatModel(ctx, &openai.ChatModelConfig{
			BaseURL:     cfg.BaseURL,
			APIKey:      cfg.APIKey,
			Model:       cfg.Model,
			Temperature: &temp,
			MaxTokens:   &maxTokens,
			Timeout:     cfg.Timeout,
		})
	case "deepseek":
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = deepSeekBaseURL
		}
		cm, err = openai.NewChatModel(ctx, &openai.ChatModelConfig{
			BaseURL:     baseURL,
			APIKey:      cfg.APIKey,
			Model:       cfg.Model,
			Temperature: &temp,
			MaxTokens:   &maxTokens,
			Timeout:     cfg.Timeout,
		})
	case "qwen", "dashscope":
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = dashScopeBaseURL
		}
		cm, err = qwen.NewChatModel(ctx, &qwen.ChatModelConfig{
			BaseURL:     baseURL,
			APIKey:      cfg.APIKey,
			Model:       cfg.Model,
			Temperature: &temp,
			MaxTokens:   &maxTokens,
			Timeout:     cfg.Timeout,
		})
	case "ark":
		cm, err = ark.NewChatModel(ctx, &ark.ChatModelConfig{
			BaseURL:     cfg.BaseURL,
			APIKey:      cfg.APIKey,
			Model:       cfg.Model,
			Temperature: &temp,
			MaxTokens:   &maxTokens,
		})
	case "claude", "anthropic":
		var baseURL *string
		if cfg.BaseURL != "" {
			baseURL = &cfg.BaseURL
		}
		cm, err = claude.NewChatModel(ctx, &claude.Config{
			BaseURL:     baseURL,
			APIKey:      cfg.APIKey,
			Model:       cfg.Model,
			Temperature: &temp,
			MaxTokens:   maxTokens,
		})
	default:
		return nil, fmt.Errorf("unsupported eino provider %q", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("create %s chat model: %w", cfg.Provider, err)
	}
	return &Eino{provider: strings.ToLower(cfg.Provider), model: cm}, nil
}

func (e *Eino) Name() string {
	return e.provider
}

func einoMessages(req Request) []*schema.Message {
	msgs := make([]*schema.Message, 0, 2)
	if req.System != "" {
		msgs = append(msgs, schema.SystemMessage(req.System))
	}
	if len(req.Images) == 0 {
		return append(msgs, schema.UserMessage(req.Prompt))
	}

	user := &schema.Message{Role: schema.User}
	for _, img := range req.Images {
		uri := fmt.Sprintf("data:%s;base64,%s", img.MediaType, base64.StdEncoding.EncodeToString(img.Data))
		user.MultiContent = append(user.MultiContent, schema.ChatMessagePart{
			Type:     schema.ChatMessagePartTypeImageURL,
			ImageURL: &schema.ChatMessageImageURL{URL: uri},
		})
	}
	user.MultiContent = append(user.MultiContent, schema.ChatMessagePart{
		Type: schema.ChatMessagePartTypeText,
		Text: req.Prompt,
	})
	return append(msgs, user)
}

func (e *Eino) Generate(ctx context.Context, req Request) (string, error) {
	req, err := req.Normalize()
	if err != nil {
		return "", &GenerationError{Backend: e.Name(), Err: err}
	}

	out, err := e.model.Generate(ctx, einoMessages(req),
		model.WithTemperature(req.TemperatureValue()),
		model.WithMaxTokens(req.MaxTokens),
	)
	if err != nil {
		return "", &GenerationError{Backend: e.Name(), Err: err}
	}
	if out == nil {
		return "", fail(e.Name(), "model returned no message")
	}
	return out.Content, nil
}
