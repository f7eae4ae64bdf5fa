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
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/valpere/peredoc/internal/service"
	"github.com/valpere/peredoc/internal/store"
)

var glossaryCmd = &cobra.Command{
	Use:   "glossary",
	Short: "Manage the terminology glossary",
	Long: `Add, list, import and delete terminology glossary entries.

Glossary entries are mandated renderings: every translation into the
entry's target language is told to use them. Terms given with
"translate --term" win over glossary entries.

Target languages may be names or tags; "fr-CA" and "Canadian French"
address the same entries.`,
}

var (
	glossaryListTarget string
	glossaryAddTarget  string
	glossaryImpTarget  string
)

var glossaryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List glossary entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openStore()
		if err != nil {
			return err
		}
		defer db.Close()

		target := ""
		if glossaryListTarget != "" {
			target = service.GlossaryKey(glossaryListTarget)
		}
		entries, err := db.ListGlossaryTerms(cmd.Context(), store.DefaultSourceLang, target)
		if err != nil {
			return fmt.Errorf("failed to list glossary: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(entries) == 0 {
			fmt.Fprintln(out, "Glossary is empty.")
			return nil
		}

		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tTARGET LANG\tSOURCE TERM\tTARGET TERM")
		for _, e := range entries {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", e.ID, e.TargetLang, e.SourceTerm, e.TargetTerm)
		}
		return w.Flush()
	},
}

var glossaryAddCmd = &cobra.Command{
	Use:   "add <source-term> <target-term>",
	Short: "Add or update a glossary entry",
	Long: `Add a glossary entry mapping an English term to its mandated rendering.

Example:
  peredoc glossary add "email" "courriel" --target "Quebec French"`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openStore()
		if err != nil {
			return err
		}
		defer db.Close()

		key := service.GlossaryKey(glossaryAddTarget)
		if err := db.AddGlossaryTerm(cmd.Context(), store.DefaultSourceLang, key, args[0], args[1]); err != nil {
			return fmt.Errorf("failed to add glossary entry: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Added: [%s] %q → %q\n", key, args[0], args[1])
		return nil
	},
}

var glossaryImportCmd = &cobra.Command{
	Use:   "import <file.csv>",
	Short: "Import glossary entries from CSV",
	Long: `Import glossary entries from a CSV file with the columns
source_term,target_term[,target_language]. A header row naming
source_term is skipped. Rows without a target language use --target.

The import is all or nothing: one bad row rejects the whole file.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("failed to open glossary file: %w", err)
		}
		defer f.Close()

		entries, err := readGlossaryCSV(f, glossaryImpTarget)
		if err != nil {
			return err
		}

		db, err := openStore()
		if err != nil {
			return err
		}
		defer db.Close()

		n, err := db.ImportGlossary(cmd.Context(), entries)
		if err != nil {
			return fmt.Errorf("failed to import glossary: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Imported %d glossary entries\n", n)
		return nil
	},
}

// readGlossaryCSV parses glossary rows; defaultTarget fills rows with no
// target language column.
func readGlossaryCSV(r io.Reader, defaultTarget string) ([]store.GlossaryEntry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}

	var entries []store.GlossaryEntry
	for i, rec := range records {
		if i == 0 && len(rec) > 0 && strings.EqualFold(strings.TrimSpace(rec[0]), "source_term") {
			continue
		}
		if len(rec) < 2 {
			return nil, fmt.Errorf("line %d: want source_term,target_term[,target_language]", i+1)
		}
		target := defaultTarget
		if len(rec) > 2 && strings.TrimSpace(rec[2]) != "" {
			target = rec[2]
		}
		if strings.TrimSpace(target) == "" {
			return nil, fmt.Errorf("line %d: no target language and no --target", i+1)
		}
		entries = append(entries, store.GlossaryEntry{
			SourceLang: store.DefaultSourceLang,
			TargetLang: service.GlossaryKey(target),
			SourceTerm: rec[0],
			TargetTerm: rec[1],
		})
	}
	return entries, nil
}

var glossaryDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a glossary entry by ID",
	Long: `Delete a glossary entry by its ID (shown in "peredoc glossary list").

Example:
  peredoc glossary delete gl_4f1c2a7e-...`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openStore()
		if err != nil {
			return err
		}
		defer db.Close()

		if err := db.DeleteGlossaryTerm(cmd.Context(), args[0]); err != nil {
			return fmt.Errorf("failed to delete glossary entry: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted glossary entry: %s\n", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(glossaryCmd)

	glossaryListCmd.Flags().StringVarP(&glossaryListTarget, "target", "t", "", "Filter by target language")

	glossaryAddCmd.Flags().StringVarP(&glossaryAddTarget, "target", "t", "", `Target language, e.g. "Quebec French" or fr-CA (required)`)
	glossaryAddCmd.MarkFlagRequired("target")

	glossaryImportCmd.Flags().StringVarP(&glossaryImpTarget, "target", "t", "", "Target language for rows without one")

	glossaryCmd.AddCommand(glossaryListCmd)
	glossaryCmd.AddCommand(glossaryAddCmd)
	glossaryCmd.AddCommand(glossaryImportCmd)
	glossaryCmd.AddCommand(glossaryDeleteCmd)
}
