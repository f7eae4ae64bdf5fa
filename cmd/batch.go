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
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/valpere/peredoc/internal/document"
	"github.com/valpere/peredoc/internal/pipeline"
	"github.com/valpere/peredoc/internal/report"
	"github.com/valpere/peredoc/internal/service"
)

var (
	batchOutputDir   string
	batchTarget      string
	batchFormat      string
	batchSummary     string
	batchConcurrency int
	batchTerms       []string
	batchNoHistory   bool
)

var batchCmd = &cobra.Command{
	Use:   "batch <file>...",
	Short: "Translate many documents concurrently",
	Long: `Translate several documents, each through the full pipeline, writing one
output per input into --output-dir.

A failed document does not stop the batch. The summary CSV lists every
input with its outcome; the command exits non-zero if any document failed.

Example:
  peredoc batch docs/*.md -o out/ -t fr-CA --concurrency 4 --summary out/summary.csv`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		termMap, err := parseTerms(batchTerms)
		if err != nil {
			return err
		}
		if err := validateBatch(args, batchFormat); err != nil {
			return err
		}
		if err := os.MkdirAll(batchOutputDir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}

		svc, closeSvc, err := buildService(cmd.Context(), batchNoHistory)
		if err != nil {
			return err
		}
		defer closeSvc()

		outcomes := runBatch(cmd.Context(), svc, args, batchJob{
			outputDir:   batchOutputDir,
			target:      batchTarget,
			format:      batchFormat,
			terms:       termMap,
			concurrency: batchConcurrency,
			progress:    cmd.ErrOrStderr(),
		})

		if batchSummary != "" {
			f, err := os.Create(batchSummary)
			if err != nil {
				return fmt.Errorf("failed to create summary: %w", err)
			}
			defer f.Close()
			if err := writeSummary(f, outcomes); err != nil {
				return fmt.Errorf("failed to write summary: %w", err)
			}
		}

		failed := 0
		for _, o := range outcomes {
			if o.err != "" {
				failed++
			}
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Translated %d/%d documents into %s\n", len(outcomes)-failed, len(outcomes), batchOutputDir)
		if failed > 0 {
			return fmt.Errorf("%d documents failed", failed)
		}
		return nil
	},
}

// validateBatch rejects the inputs and output format before any document
// is translated.
func validateBatch(inputs []string, format string) error {
	if err := report.CheckFormat(format); err != nil {
		return err
	}
	for _, path := range inputs {
		if !document.Supported(filepath.Ext(path)) {
			return &document.UnsupportedFormatError{Ext: document.NormalizeExt(filepath.Ext(path))}
		}
	}
	return nil
}

type batchJob struct {
	outputDir   string
	target      string
	format      string
	terms       map[string]string
	concurrency int
	progress    io.Writer
}

// outcome is one summary row.
type outcome struct {
	input   string
	output  string
	stage   string
	err     string
	quality int
	calls   int
	durMS   int64
	fixed   bool
}

// runBatch translates every input with at most job.concurrency runs in
// flight. Outcomes keep the order of inputs.
func runBatch(ctx context.Context, svc *service.Service, inputs []string, job batchJob) []outcome {
	format := job.format
	if format == "" {
		format = report.Text
	}
	outputs := outputPaths(inputs, job.outputDir, format)

	outcomes := make([]outcome, len(inputs))
	g, ctx := errgroup.WithContext(ctx)
	if job.concurrency > 0 {
		g.SetLimit(job.concurrency)
	}
	for i, path := range inputs {
		g.Go(func() error {
			outcomes[i] = translateOne(ctx, svc, path, outputs[i], format, job)
			fmt.Fprintf(job.progress, "%s: %s\n", path, outcomes[i].status())
			return nil
		})
	}
	_ = g.Wait()
	return outcomes
}

// outputPaths assigns every input its own file in dir. Inputs that share a
// base name are told apart by their extension ("report-md.txt"), then by a
// counter ("report-2.txt").
func outputPaths(inputs []string, dir, format string) []string {
	taken := make(map[string]bool, len(inputs))
	out := make([]string, len(inputs))
	for i, path := range inputs {
		base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		name := base
		if ext := document.NormalizeExt(filepath.Ext(path)); taken[name] && ext != "" {
			name = base + "-" + ext
		}
		for n := 2; taken[name]; n++ {
			name = base + "-" + strconv.Itoa(n)
		}
		taken[name] = true
		out[i] = filepath.Join(dir, name+"."+format)
	}
	return out
}

func translateOne(ctx context.Context, svc *service.Service, path, output, format string, job batchJob) outcome {
	o := outcome{input: path}
	text, err := document.ExtractFile(path)
	if err != nil {
		o.err = err.Error()
		return o
	}

	res, err := svc.Translate(ctx, service.Request{
		Input:      pipeline.Input{Text: text, TargetLanguage: job.target, CustomTerms: job.terms},
		SourceName: filepath.Base(path),
	}, nil)
	if err != nil {
		o.err = err.Error()
		return o
	}
	if d := res.Diagnostics; d != nil {
		o.calls, o.durMS, o.fixed = d.GenerationCalls, d.DurationMS, d.Corrected
	}
	if res.QualityReview != nil {
		o.quality = res.QualityReview.Overall
	}
	if res.Failed() {
		o.stage, o.err = res.Stage, res.Error
		return o
	}

	o.output = output
	f, err := os.Create(o.output)
	if err != nil {
		o.err = err.Error()
		return o
	}
	defer f.Close()
	if err := report.Write(f, res, format); err != nil {
		o.err = err.Error()
	}
	return o
}

func (o outcome) status() string {
	switch {
	case o.err != "" && o.stage != "":
		return "failed at " + o.stage + ": " + o.err
	case o.err != "":
		return "failed: " + o.err
	case o.fixed:
		return fmt.Sprintf("ok, quality %d, corrected", o.quality)
	default:
		return fmt.Sprintf("ok, quality %d", o.quality)
	}
}

func writeSummary(w io.Writer, outcomes []outcome) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"input", "output", "status", "failed_stage", "error", "overall_quality", "corrected", "generation_calls", "duration_ms"}); err != nil {
		return err
	}
	for _, o := range outcomes {
		status := "ok"
		if o.err != "" {
			status = "failed"
		}
		if err := cw.Write([]string{
			o.input, o.output, status, o.stage, o.err,
			strconv.Itoa(o.quality), strconv.FormatBool(o.fixed),
			strconv.Itoa(o.calls), strconv.FormatInt(o.durMS, 10),
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().StringVarP(&batchOutputDir, "output-dir", "o", "./translated", "Directory for translated documents")
	batchCmd.Flags().StringVarP(&batchTarget, "target", "t", "", "Target language name or tag (default: profile default)")
	batchCmd.Flags().StringVarP(&batchFormat, "format", "f", "", "Output format: txt, json, md, html, docx")
	batchCmd.Flags().StringVar(&batchSummary, "summary", "", "Write a CSV summary of the batch to this file")
	batchCmd.Flags().IntVarP(&batchConcurrency, "concurrency", "c", 2, "Documents translated at the same time")
	batchCmd.Flags().StringArrayVar(&batchTerms, "term", nil, "Mandated term as source=target (repeatable)")
	batchCmd.Flags().BoolVar(&batchNoHistory, "no-history", false, "Do not open the database: no stored glossary, no run history")
}
