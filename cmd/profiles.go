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
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/valpere/peredoc/internal/profile"
)

var profilesCmd = &cobra.Command{
	Use:   "profiles",
	Short: "List translation profiles",
	RunE: func(cmd *cobra.Command, args []string) error {
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tDEFAULT TARGET\tEXTRA SCORES\tDESCRIPTION")
		for _, name := range profile.Names() {
			p, err := profile.Lookup(name)
			if err != nil {
				return err
			}
			var extra []string
			for _, f := range p.ReviewScores {
				extra = append(extra, f.Key)
			}
			scores := strings.Join(extra, ", ")
			if scores == "" {
				scores = "-"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", p.Name, p.DefaultTarget, scores, p.Description)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(profilesCmd)
}
