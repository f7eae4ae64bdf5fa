// Package pipeline runs a document through analysis, translation, quality
// review and enhancement. Runs are strictly sequential and stop at the
// first stage that fails.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/valpere/peredoc/internal/generator"
	"github.com/valpere/peredoc/internal/profile"
	"github.com/valpere/peredoc/internal/stage"
	"github.com/valpere/peredoc/internal/validator"
)

const DefaultCallTimeout = 5 * time.Minute

type Config struct {
	Profile *profile.Profile
	// CallTimeout bounds each generation call; 0 means DefaultCallTimeout.
	CallTimeout time.Duration
	// Threshold is the overall quality below which corrections apply.
	Threshold int
	// RescoreAfterCorrection reviews the corrected text again so the
	// reported review matches the final translation.
	RescoreAfterCorrection bool
	// VerifyTerminology reports custom terms missing from the output.
	VerifyTerminology bool
	// CheckLanguage runs language detection on the output.
	CheckLanguage bool
	// AnalysisMaxChars bounds the analysis excerpt.
	AnalysisMaxChars int
	// DynamicGlossary asks the model for profile vocabulary before
	// translating, when the profile defines a glossary prompt.
	DynamicGlossary bool

	Logger   *slog.Logger
	Observer Observer
}

// Orchestrator holds immutable configuration and may serve concurrent runs.
type Orchestrator struct {
	gen       generator.Generator
	config    Config
	validator *validator.Validator
}

func New(gen generator.Generator, config Config) *Orchestrator {
	if config.Profile == nil {
		config.Profile, _ = profile.Lookup(profile.Generic)
	}
	if config.CallTimeout <= 0 {
		config.CallTimeout = DefaultCallTimeout
	}
	if config.Threshold <= 0 {
		config.Threshold = profile.DefaultThreshold
	}
	if config.Logger == nil {
		config.Logger = slog.New(slog.DiscardHandler)
	}

	o := &Orchestrator{gen: gen, config: config}
	if config.CheckLanguage {
		o.validator = validator.New()
	}
	return o
}

// WithObserver returns a copy of o that reports to obs.
func (o *Orchestrator) WithObserver(obs Observer) *Orchestrator {
	cp := *o
	cp.config.Observer = obs
	return &cp
}

func (o *Orchestrator) Profile() *profile.Profile { return o.config.Profile }

// run is the state of one Run call.
type run struct {
	o      *Orchestrator
	gen    *metered
	id     string
	log    *slog.Logger
	result *Result
	diag   *Diagnostics
}

// Run translates in. It never returns nil; failures are reported through
// Result.Error and Result.Stage.
func (o *Orchestrator) Run(ctx context.Context, in Input) *Result {
	started := time.Now()
	id := uuid.NewString()

	target := profile.ResolveTarget(in.TargetLanguage)
	if in.TargetLanguage == "" {
		target = profile.ResolveTarget(o.config.Profile.DefaultTarget)
	}

	r := &run{
		o:   o,
		gen: &metered{inner: o.gen, timeout: o.config.CallTimeout},
		id:  id,
		log: o.config.Logger.With("run_id", id, "profile", o.config.Profile.Name),
		diag: &Diagnostics{
			RunID:   id,
			Profile: o.config.Profile.Name,
			Backend: o.gen.Name(),
		},
	}
	r.result = &Result{
		OriginalText:   in.Text,
		TargetLanguage: target.Name,
		Diagnostics:    r.diag,
	}

	r.log.Info("run started", "target", target.Name, "chars", len([]rune(in.Text)))
	r.execute(ctx, in, target)

	r.diag.GenerationCalls = r.gen.count()
	r.diag.DurationMS = time.Since(started).Milliseconds()
	if r.result.Failed() {
		r.result.TranslatedText = ""
		r.log.Warn("run failed", "stage", r.result.Stage, "error", r.result.Error, "calls", r.diag.GenerationCalls)
	} else {
		r.log.Info("run finished", "calls", r.diag.GenerationCalls, "corrected", r.diag.Corrected, "duration", time.Since(started))
	}
	return r.result
}

func (r *run) execute(ctx context.Context, in Input, target profile.Target) {
	cfg := r.o.config
	p := cfg.Profile

	// Analysis
	var analysis *stage.AnalysisResult
	err := r.step(stage.Analysis, func() (err error) {
		analysis, err = stage.Invoke[stage.AnalyzeInput, *stage.AnalysisResult](ctx, r.gen,
			&stage.Analyzer{Profile: p, MaxChars: cfg.AnalysisMaxChars}, stage.AnalyzeInput{Text: in.Text})
		return err
	})
	if err != nil {
		return
	}
	r.result.DocumentAnalysis = analysis
	r.diag.AnalysisDegraded = analysis.Degraded

	// Optional vocabulary; a failure here only costs the glossary.
	var glossary map[string]string
	if cfg.DynamicGlossary && p.Glossary != nil {
		_ = r.step(stage.Glossary, func() (err error) {
			glossary, err = stage.Invoke[stage.GlossaryInput, map[string]string](ctx, r.gen,
				&stage.GlossaryBuilder{Profile: p}, stage.GlossaryInput{TargetLanguage: target.Name})
			return err
		}, optional)
		r.diag.GlossaryTerms = len(glossary)
	}

	// Translation
	var draft *stage.TranslationResult
	err = r.step(stage.Translation, func() (err error) {
		draft, err = stage.Invoke[stage.TranslateInput, *stage.TranslationResult](ctx, r.gen,
			&stage.Translator{Profile: p}, stage.TranslateInput{
				Text:           in.Text,
				TargetLanguage: target.Name,
				Analysis:       analysis,
				CustomTerms:    in.CustomTerms,
				Glossary:       glossary,
				Images:         in.Images,
			})
		return err
	})
	if err != nil {
		return
	}
	r.diag.MissingMarkers = draft.MissingMarkers

	// Quality review, with at most one correction
	var outcome *stage.ReviewOutcome
	reviewer := &stage.Reviewer{
		Profile:   p,
		Threshold: cfg.Threshold,
		Rescore:   cfg.RescoreAfterCorrection,
		OnCorrection: func(q *stage.QualityReview) {
			r.log.Info("correcting translation", "stage", stage.Review, "overall_quality", q.Overall)
			r.emit(Event{Stage: stage.Review, Kind: EventCorrected, Score: q.Overall})
		},
	}
	err = r.step(stage.Review, func() (err error) {
		outcome, err = reviewer.Run(ctx, r.gen, draft, in.CustomTerms)
		return err
	})
	if err != nil {
		return
	}
	r.result.QualityReview = outcome.Review
	r.diag.Corrected = outcome.Corrected
	r.diag.ReviewDegraded = outcome.Review.Degraded
	r.diag.ReviewSampled = outcome.Review.Sampled
	r.diag.InitialReview = outcome.Initial

	// Enhancement
	var final string
	err = r.step(stage.Enhancement, func() (err error) {
		final, err = stage.Invoke[stage.EnhanceInput, string](ctx, r.gen,
			&stage.Enhancer{Profile: p}, stage.EnhanceInput{
				OriginalText:   in.Text,
				TranslatedText: outcome.Translation.TranslatedText,
				TargetLanguage: target.Name,
			})
		return err
	})
	if err != nil {
		return
	}
	r.result.TranslatedText = final

	if cfg.VerifyTerminology {
		r.diag.MissingTerms = validator.MissingTerms(final, in.CustomTerms)
		if len(r.diag.MissingTerms) > 0 {
			r.log.Warn("mandated terms missing from output", "terms", r.diag.MissingTerms)
		}
	}
	if r.o.validator != nil {
		check := r.o.validator.CheckLanguage(final, target.Base())
		r.diag.Language = &check
		if !check.Match && !check.Skipped {
			r.log.Warn("output language mismatch", "expected", check.Expected, "detected", check.Detected)
		}
	}
}

type stepMode int

const (
	required stepMode = iota
	optional
)

// step runs fn as the named stage, records it in the diagnostics and
// notifies the observer. A failing required step ends the run.
func (r *run) step(name string, fn func() error, mode ...stepMode) error {
	before := r.gen.count()
	started := time.Now()
	r.emit(Event{Stage: name, Kind: EventStarted})
	r.log.Debug("stage started", "stage", name)

	err := fn()

	rec := StageRecord{
		Name:       name,
		Calls:      r.gen.count() - before,
		DurationMS: time.Since(started).Milliseconds(),
	}
	if err != nil {
		rec.Error = err.Error()
	}
	r.diag.Stages = append(r.diag.Stages, rec)

	if err == nil {
		r.emit(Event{Stage: name, Kind: EventFinished, Calls: rec.Calls, Elapsed: time.Since(started)})
		r.log.Info("stage finished", "stage", name, "calls", rec.Calls, "duration", time.Since(started))
		return nil
	}

	r.emit(Event{Stage: name, Kind: EventFailed, Calls: rec.Calls, Elapsed: time.Since(started), Error: err.Error()})
	if len(mode) > 0 && mode[0] == optional {
		r.log.Warn("optional stage failed", "stage", name, "error", err)
		return err
	}

	r.log.Error("stage failed", "stage", name, "error", err)
	r.result.Err = err
	r.result.Error = errorMessage(err)
	r.result.Stage = stage.StageOf(err)
	if r.result.Stage == "" {
		r.result.Stage = name
	}
	return err
}

func (r *run) emit(e Event) {
	if r.o.config.Observer == nil {
		return
	}
	e.RunID = r.id
	r.o.config.Observer.Observe(e)
}

// errorMessage drops the stage prefix that Result.Stage already carries.
func errorMessage(err error) string {
	var se *stage.Error
	if errors.As(err, &se) {
		return se.Err.Error()
	}
	return fmt.Sprint(err)
}
