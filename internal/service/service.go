// Package service is the application layer shared by the CLI, the HTTP
// server, the MCP server and the Lambda handler.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/valpere/peredoc/internal/config"
	"github.com/valpere/peredoc/internal/generator"
	"github.com/valpere/peredoc/internal/pipeline"
	"github.com/valpere/peredoc/internal/profile"
	"github.com/valpere/peredoc/internal/stage"
	"github.com/valpere/peredoc/internal/store"
)

// ErrStore marks failures of the glossary and history store, as opposed to
// problems with the request.
var ErrStore = errors.New("store unavailable")

// Request is a translation request as front-ends receive it.
type Request struct {
	pipeline.Input
	// Profile overrides the configured profile.
	Profile string `json:"profile,omitempty"`
	// SourceName labels the run in the history, e.g. a file name.
	SourceName string `json:"source_name,omitempty"`
}

type Service struct {
	gen    generator.Generator
	cfg    *config.Config
	store  *store.Store
	logger *slog.Logger
}

// New builds a Service. st may be nil, which disables stored glossaries
// and run history.
func New(gen generator.Generator, cfg *config.Config, st *store.Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{gen: gen, cfg: cfg, store: st, logger: logger}
}

// Backend returns the generation backend name.
func (s *Service) Backend() string { return s.gen.Name() }

// Translate runs one document through the pipeline. The error is non-nil
// non-nil when the request is unusable or the store cannot be read (see
// ErrStore); stage failures are reported in the Result.
func (s *Service) Translate(ctx context.Context, req Request, obs pipeline.Observer) (*pipeline.Result, error) {
	p, target, err := s.Resolve(req.Profile, req.TargetLanguage)
	if err != nil {
		return nil, err
	}

	in := req.Input
	in.TargetLanguage = target
	if s.store != nil {
		stored, err := s.store.GetGlossaryTerms(ctx, store.DefaultSourceLang, GlossaryKey(target))
		if err != nil {
			return nil, fmt.Errorf("failed to load glossary: %w: %w", ErrStore, err)
		}
		in.CustomTerms = store.MergeTerms(stored, in.CustomTerms)
	}

	o := pipeline.New(s.gen, s.cfg.PipelineConfig(p, s.logger))
	if obs != nil {
		o = o.WithObserver(obs)
	}
	res := o.Run(ctx, in)

	if s.store != nil {
		if err := s.store.SaveRun(ctx, pipeline.Record(res, req.SourceName)); err != nil {
			s.logger.Warn("failed to record run", "error", err)
		}
	}
	return res, nil
}

// AskRequest is a question about a document and its translation. Both
// texts are optional; without them the question is answered on its own.
type AskRequest struct {
	Question       string `json:"question"`
	OriginalText   string `json:"original_text,omitempty"`
	TranslatedText string `json:"translated_text,omitempty"`
	TargetLanguage string `json:"target_language,omitempty"`
}

// Ask answers a question about a document. Errors are *stage.Error values
// tagged stage.Chat; a *stage.ValidationError inside means the request was
// unusable.
func (s *Service) Ask(ctx context.Context, req AskRequest) (string, error) {
	_, target, err := s.Resolve("", req.TargetLanguage)
	if err != nil {
		return "", err
	}
	if s.cfg.CallTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.CallTimeout)
		defer cancel()
	}
	answer, err := stage.Invoke[stage.AskInput, string](ctx, s.gen, &stage.Asker{}, stage.AskInput{
		Question:       req.Question,
		OriginalText:   req.OriginalText,
		TranslatedText: req.TranslatedText,
		TargetLanguage: target,
	})
	if err != nil {
		s.logger.Warn("document chat failed", "error", err)
		return "", err
	}
	return answer, nil
}

// Resolve picks the profile and the effective target language for a
// request. An empty target falls back to the configured target and then
// to the profile default.
func (s *Service) Resolve(profileName, target string) (*profile.Profile, string, error) {
	if strings.TrimSpace(target) == "" {
		target = s.cfg.TargetLanguage
	}

	var (
		p   *profile.Profile
		err error
	)
	if profileName != "" {
		p, err = profile.Lookup(profileName)
	} else {
		p, err = s.cfg.ResolveProfile(target)
	}
	if err != nil {
		return nil, "", err
	}
	if strings.TrimSpace(target) == "" {
		target = p.DefaultTarget
	}
	return p, target, nil
}

// GlossaryKey is the glossary language key for a target, so "fr-CA" and
// "Canadian French" share entries.
func GlossaryKey(target string) string {
	return profile.ResolveTarget(target).Name
}
