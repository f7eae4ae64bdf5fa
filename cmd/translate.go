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
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/valpere/peredoc/internal/document"
	"github.com/valpere/peredoc/internal/pipeline"
	"github.com/valpere/peredoc/internal/report"
	"github.com/valpere/peredoc/internal/service"
)

var (
	inputFile    string
	outputFile   string
	targetLang   string
	outputFormat string
	terms        []string
	noHistory    bool
)

var translateCmd = &cobra.Command{
	Use:   "translate",
	Short: "Translate a document",
	Long: `Translate a txt, md, docx or pdf document from English.

The document goes through four stages:
  1. document analysis    type, style, terminology and complexity
  2. translation          guided by the analysis and mandated terms
  3. quality review       scores the draft; low scores trigger one correction
  4. enhancement          polishes tone and fluency

Mandated terms come from the glossary (see "peredoc glossary") and from
repeated --term source=target flags, which win over glossary entries.

Output formats: txt, json, md, html, docx (default: from the output file
extension, txt for stdout).

Example:
  peredoc translate -i letter.docx -o letter.fr.docx -t fr-CA
  peredoc translate -i notes.md -t German --term invoice=Rechnung -f md`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if outputFile != "" && filepath.Clean(inputFile) == filepath.Clean(outputFile) {
			return fmt.Errorf("input file and output file cannot be the same")
		}
		termMap, err := parseTerms(terms)
		if err != nil {
			return err
		}
		format := outputFormat
		if format == "" {
			format = report.FormatFromPath(outputFile, report.Text)
		}
		if err := report.CheckFormat(format); err != nil {
			return err
		}

		text, err := document.ExtractFile(inputFile)
		if err != nil {
			return err
		}
		warnIfNotEnglish(inputFile, text)

		ctx := cmd.Context()
		svc, closeSvc, err := buildService(ctx, noHistory)
		if err != nil {
			return err
		}
		defer closeSvc()

		res, err := svc.Translate(ctx, service.Request{
			Input: pipeline.Input{
				Text:           text,
				TargetLanguage: targetLang,
				CustomTerms:    termMap,
			},
			SourceName: filepath.Base(inputFile),
		}, progressPrinter(cmd.ErrOrStderr()))
		if err != nil {
			return err
		}

		if res.Failed() {
			if format == report.JSON {
				_ = writeOutput(cmd.OutOrStdout(), res, format)
			}
			return fmt.Errorf("translation failed at %s: %s", res.Stage, res.Error)
		}
		if err := writeOutput(cmd.OutOrStdout(), res, format); err != nil {
			return err
		}

		summarize(cmd.ErrOrStderr(), res)
		return nil
	},
}

// writeOutput writes res to outputFile, or to stdout when none is set.
func writeOutput(stdout io.Writer, res *pipeline.Result, format string) error {
	if outputFile == "" {
		return report.Write(stdout, res, format)
	}
	var buf bytes.Buffer
	if err := report.Write(&buf, res, format); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(outputFile), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(outputFile, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	return nil
}

// progressPrinter reports stage progress on w.
func progressPrinter(w io.Writer) pipeline.Observer {
	return pipeline.ObserverFunc(func(e pipeline.Event) {
		switch e.Kind {
		case pipeline.EventStarted:
			fmt.Fprintf(w, "%s...\n", e.Stage)
		case pipeline.EventCorrected:
			fmt.Fprintf(w, "  quality %d below threshold, applying corrections\n", e.Score)
		case pipeline.EventFailed:
			fmt.Fprintf(w, "  %s failed: %s\n", e.Stage, e.Error)
		}
	})
}

func summarize(w io.Writer, res *pipeline.Result) {
	d := res.Diagnostics
	fmt.Fprintf(w, "Translated to %s with profile %s (%d model calls)\n", res.TargetLanguage, d.Profile, d.GenerationCalls)
	if q := res.QualityReview; q != nil {
		fmt.Fprintf(w, "Overall quality: %d/10", q.Overall)
		if d.Corrected {
			fmt.Fprint(w, " (corrected)")
		}
		fmt.Fprintln(w)
	}
	if d.AnalysisDegraded || d.ReviewDegraded {
		fmt.Fprintln(w, "Warning: a model reply could not be parsed; defaults were used")
	}
	if len(d.MissingMarkers) > 0 {
		fmt.Fprintf(w, "Warning: %d protected segments were lost in translation\n", len(d.MissingMarkers))
	}
	if len(d.MissingTerms) > 0 {
		fmt.Fprintf(w, "Warning: mandated terms missing from output: %s\n", strings.Join(d.MissingTerms, ", "))
	}
	if lc := d.Language; lc != nil && !lc.Match && !lc.Skipped {
		fmt.Fprintf(w, "Warning: output looks like %s, expected %s\n", lc.Detected, lc.Expected)
	}
}

func init() {
	rootCmd.AddCommand(translateCmd)

	translateCmd.Flags().StringVarP(&inputFile, "input", "i", "", "Input document: txt, md, docx or pdf (required)")
	translateCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")
	translateCmd.Flags().StringVarP(&targetLang, "target", "t", "", `Target language name or tag, e.g. "Quebec French", fr-CA (default: profile default)`)
	translateCmd.Flags().StringVarP(&outputFormat, "format", "f", "", "Output format: txt, json, md, html, docx")
	translateCmd.Flags().StringArrayVar(&terms, "term", nil, "Mandated term as source=target (repeatable)")
	translateCmd.Flags().BoolVar(&noHistory, "no-history", false, "Do not open the database: no stored glossary, no run history")

	translateCmd.MarkFlagRequired("input")
}
