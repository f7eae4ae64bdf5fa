// Package config loads peredoc settings from a config file, the environment
// and command-line flags, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/valpere/peredoc/internal/generator"
	"github.com/valpere/peredoc/internal/pipeline"
	"github.com/valpere/peredoc/internal/profile"
)

// EnvPrefix is prepended to every environment variable, e.g.
// PEREDOC_BACKEND.
const EnvPrefix = "PEREDOC"

type Config struct {
	Backend     string        `mapstructure:"backend"`
	Model       string        `mapstructure:"model"`
	BaseURL     string        `mapstructure:"base_url"`
	APIKey      string        `mapstructure:"api_key"`
	Region      string        `mapstructure:"region"`
	Temperature float64       `mapstructure:"temperature"`
	CallTimeout time.Duration `mapstructure:"call_timeout"`

	Profile          string `mapstructure:"profile"`
	TargetLanguage   string `mapstructure:"target_language"`
	QualityThreshold int    `mapstructure:"quality_threshold"`

	RescoreAfterCorrection bool `mapstructure:"rescore_after_correction"`
	VerifyTerminology      bool `mapstructure:"verify_terminology"`
	CheckLanguage          bool `mapstructure:"check_language"`
	DynamicGlossary        bool `mapstructure:"dynamic_glossary"`

	DBPath    string `mapstructure:"db_path"`
	Addr      string `mapstructure:"addr"`
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
}

// NewViper returns a viper instance with defaults, environment binding and
// the config search path set up.
func NewViper() *viper.Viper {
	v := viper.New()

	v.SetDefault("backend", "ollama")
	v.SetDefault("base_url", "")
	v.SetDefault("model", "")
	v.SetDefault("api_key", "")
	v.SetDefault("region", "")
	v.SetDefault("temperature", float64(generator.DefaultTemperature))
	v.SetDefault("call_timeout", pipeline.DefaultCallTimeout)
	v.SetDefault("profile", "")
	v.SetDefault("target_language", "")
	v.SetDefault("quality_threshold", profile.DefaultThreshold)
	v.SetDefault("rescore_after_correction", false)
	v.SetDefault("verify_terminology", false)
	v.SetDefault("check_language", false)
	v.SetDefault("dynamic_glossary", false)
	v.SetDefault("db_path", "./data/peredoc.db")
	v.SetDefault("addr", ":8080")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	v.SetConfigName("peredoc")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".config", "peredoc"))
	}
	return v
}

// Load reads .env (if present), then the config file, then decodes v.
// configFile overrides the search path when set. A missing config file in
// the search path is not an error.
func Load(v *viper.Viper, configFile string) (*Config, error) {
	_ = godotenv.Load()

	if configFile != "" {
		v.SetConfigFile(configFile)
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if !generator.IsBackend(c.Backend) {
		return fmt.Errorf("unknown backend %q (available: %s)", c.Backend, strings.Join(generator.Backends, ", "))
	}
	if c.Temperature < 0 || c.Temperature > 1 {
		return fmt.Errorf("temperature %.2f outside [0, 1]", c.Temperature)
	}
	if c.CallTimeout <= 0 {
		return fmt.Errorf("call_timeout must be positive")
	}
	if c.QualityThreshold < 1 || c.QualityThreshold > 10 {
		return fmt.Errorf("quality_threshold %d outside [1, 10]", c.QualityThreshold)
	}
	if c.Profile != "" {
		if _, err := profile.Lookup(c.Profile); err != nil {
			return err
		}
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}
	switch strings.ToLower(c.LogFormat) {
	case "", "text", "json":
	default:
		return fmt.Errorf("unknown log format %q (text, json)", c.LogFormat)
	}
	return nil
}

// GeneratorConfig is the backend part of c.
func (c *Config) GeneratorConfig() generator.Config {
	return generator.Config{
		Backend: c.Backend,
		Model:   c.Model,
		BaseURL: c.BaseURL,
		APIKey:  c.APIKey,
		Region:  c.Region,
		Timeout: c.CallTimeout,
	}
}

// ResolveProfile returns the configured profile, or the one suited to
// target when none is configured.
func (c *Config) ResolveProfile(target string) (*profile.Profile, error) {
	name := c.Profile
	if name == "" && target != "" {
		name = profile.ForTarget(profile.ResolveTarget(target))
	}
	return profile.Lookup(name)
}

// PipelineConfig is the orchestrator part of c.
func (c *Config) PipelineConfig(p *profile.Profile, logger *slog.Logger) pipeline.Config {
	return pipeline.Config{
		Profile:                p,
		CallTimeout:            c.CallTimeout,
		Threshold:              c.QualityThreshold,
		RescoreAfterCorrection: c.RescoreAfterCorrection,
		VerifyTerminology:      c.VerifyTerminology,
		CheckLanguage:          c.CheckLanguage,
		DynamicGlossary:        c.DynamicGlossary,
		Logger:                 logger,
	}
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if s == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("unknown log level %q", s)
	}
	return level, nil
}

// NewLogger builds the structured logger for the given level and format
// ("text" or "json").
func NewLogger(w io.Writer, level, format string) *slog.Logger {
	lvl, err := parseLevel(level)
	if err != nil {
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if strings.EqualFold(format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
