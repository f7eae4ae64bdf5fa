package generator

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Backends lists every backend name accepted by New.
var Backends = []string{"ollama", "openrouter", "bedrock", "openai", "deepseek", "claude", "ark", "qwen"}

// Config describes which backend to build and how to reach it.
type Config struct {
	Backend string        `mapstructure:"backend" json:"backend"`
	Model   string        `mapstructure:"model" json:"model"`
	BaseURL string        `mapstructure:"base_url" json:"base_url"`
	APIKey  string        `mapstructure:"api_key" json:"-"`
	Region  string        `mapstructure:"region" json:"region"`
	Timeout time.Duration `mapstructure:"timeout" json:"timeout"`
}

// IsBackend reports whether name is a known backend.
func IsBackend(name string) bool {
	for _, b := range Backends {
		if strings.EqualFold(b, name) {
			return true
		}
	}
	return false
}

// New builds the backend named by cfg.Backend.
func New(ctx context.Context, cfg Config) (Generator, error) {
	switch strings.ToLower(cfg.Backend) {
	case "", "ollama":
		var models []string
		if cfg.Model != "" {
			models = strings.Split(cfg.Model, ",")
		}
		return NewOllama(cfg.BaseURL, models), nil
	case "openrouter":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("openrouter: api key required")
		}
		return NewOpenRouter(cfg.APIKey, cfg.BaseURL, cfg.Model), nil
	case "bedrock":
		return NewBedrock(ctx, cfg.Region, cfg.Model)
	case "openai", "deepseek", "claude", "anthropic", "ark", "qwen", "dashscope":
		return NewEino(ctx, EinoConfig{
			Provider: cfg.Backend,
			BaseURL:  cfg.BaseURL,
			APIKey:   cfg.APIKey,
			Model:    cfg.Model,
			Timeout:  cfg.Timeout,
		})
	default:
		return nil, fmt.Errorf("unknown backend %q (available: %s)", cfg.Backend, strings.Join(Backends, ", "))
	}
}
