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
	"fmt"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var runsLimit int

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect the run history",
	Long: `List and summarise past pipeline runs. The history keeps metadata only:
a hash and the length of each source document, never its text.`,
}

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openStore()
		if err != nil {
			return err
		}
		defer db.Close()

		runs, err := db.ListRuns(cmd.Context(), runsLimit)
		if err != nil {
			return fmt.Errorf("failed to list runs: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(runs) == 0 {
			fmt.Fprintln(out, "No runs recorded.")
			return nil
		}

		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tWHEN\tSOURCE\tTARGET\tPROFILE\tQUALITY\tCORRECTED\tCALLS\tSTATUS")
		for _, r := range runs {
			status := "ok"
			if !r.Succeeded() {
				status = "failed at " + r.FailedStage
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\t%v\t%d\t%s\n",
				r.ID, r.Timestamp.Local().Format("2006-01-02 15:04"), r.SourceName, r.TargetLang,
				r.Profile, r.OverallQuality, r.Corrected, r.GenerationCalls, status)
		}
		return w.Flush()
	},
}

var runsStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show run history statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openStore()
		if err != nil {
			return err
		}
		defer db.Close()

		stats, err := db.Stats(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to get stats: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Total runs:       %d\n", stats.TotalRuns)
		fmt.Fprintf(out, "Failed runs:      %d\n", stats.FailedRuns)
		fmt.Fprintf(out, "Corrected runs:   %d\n", stats.CorrectedRuns)
		fmt.Fprintf(out, "Degraded runs:    %d\n", stats.DegradedRuns)
		fmt.Fprintf(out, "Average quality:  %.1f\n", stats.AverageQuality)
		fmt.Fprintf(out, "Model calls:      %d\n", stats.GenerationCalls)

		if len(stats.FailuresByStage) > 0 {
			stages := make([]string, 0, len(stats.FailuresByStage))
			for s := range stats.FailuresByStage {
				stages = append(stages, s)
			}
			sort.Strings(stages)
			fmt.Fprintln(out, "Failures by stage:")
			for _, s := range stages {
				fmt.Fprintf(out, "  %-18s %d\n", s, stats.FailuresByStage[s])
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runsCmd)

	runsListCmd.Flags().IntVarP(&runsLimit, "limit", "n", 20, "Number of runs to show")

	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsStatsCmd)
}
