/*
Copyright © 2025 Valentyn Solomko <valentyn.solomko@gmail.com>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/valpere/peredoc/internal/config"
)

var version = "0.1.0"

var (
	configFile string
	v          = config.NewViper()
	cfg        *config.Config
	logger     = slog.New(slog.DiscardHandler)
)

var rootCmd = &cobra.Command{
	Use:   "peredoc",
	Short: "LLM document translator with quality review",
	Long: `A CLI application that translates documents with a large language model
in four stages: document analysis, translation, quality review with an
optional correction pass, and enhancement.

Supported backends: ollama, openrouter, bedrock, openai, deepseek, claude, ark, qwen
Supported profiles: generic, quebec, business

Settings come from peredoc.yaml (./ or ~/.config/peredoc/), PEREDOC_*
environment variables and flags, later sources winning.

Use "peredoc translate --help" for translation options.`,
	Version:      version,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(v, configFile)
		if err != nil {
			return err
		}
		cfg = loaded
		logger = config.NewLogger(os.Stderr, cfg.LogLevel, cfg.LogFormat)
		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configFile, "config", "", "Config file (default: ./peredoc.yaml or ~/.config/peredoc/peredoc.yaml)")
	pf.String("backend", "ollama", "Generation backend: ollama, openrouter, bedrock, openai, deepseek, claude, ark, qwen")
	pf.String("model", "", "Model name; comma-separated list rotates ollama models (backend default if empty)")
	pf.String("base-url", "", "Backend base URL")
	pf.String("api-key", "", "Backend API key")
	pf.String("region", "", "AWS region for bedrock")
	pf.Float64("temperature", 0.3, "Sampling temperature")
	pf.Duration("call-timeout", 0, "Timeout per model call (default 5m)")
	pf.StringP("profile", "p", "", "Translation profile: generic, quebec, business (default: chosen from the target)")
	pf.Int("threshold", 0, "Overall quality below which the review's corrections are applied (default 7)")
	pf.String("db", "", "SQLite database for glossary and run history (default ./data/peredoc.db)")
	pf.String("log-level", "", "Log level: debug, info, warn, error")
	pf.String("log-format", "", "Log format: text, json")
	pf.Bool("rescore", false, "Review the corrected translation again")
	pf.Bool("verify-terms", false, "Report mandated terms missing from the output")
	pf.Bool("check-language", false, "Check the output language with a language detector")
	pf.Bool("dynamic-glossary", false, "Ask the model for profile vocabulary before translating")

	bindFlags(rootCmd, map[string]string{
		"backend":      "backend",
		"model":        "model",
		"base-url":     "base_url",
		"api-key":      "api_key",
		"region":       "region",
		"temperature":  "temperature",
		"call-timeout": "call_timeout",
		"profile":      "profile",
		"threshold":    "quality_threshold",
		"db":           "db_path",
		"log-level":    "log_level",
		"log-format":   "log_format",

		"rescore":          "rescore_after_correction",
		"verify-terms":     "verify_terminology",
		"check-language":   "check_language",
		"dynamic-glossary": "dynamic_glossary",
	})
}

// bindFlags binds persistent flags of c to config keys. Only flags the
// user set override the file and environment.
func bindFlags(c *cobra.Command, keys map[string]string) {
	flags := c.PersistentFlags()
	for flag, key := range keys {
		if err := v.BindPFlag(key, flags.Lookup(flag)); err != nil {
			panic(err)
		}
	}
}

