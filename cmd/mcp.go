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
	"github.com/spf13/cobra"

	"github.com/valpere/peredoc/internal/mcpserver"
)

var mcpNoHistory bool

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run as an MCP server over stdio",
	Long: `Expose the pipeline to MCP clients over stdin/stdout.

Tools: translate_document, translate_file, ask_document, list_profiles.
Logs go to stderr; stdout carries the protocol.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, closeSvc, err := buildService(cmd.Context(), mcpNoHistory)
		if err != nil {
			return err
		}
		defer closeSvc()

		logger.Info("mcp server starting", "backend", svc.Backend())
		return mcpserver.Serve(mcpserver.New(svc, version))
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)

	mcpCmd.Flags().BoolVar(&mcpNoHistory, "no-history", false, "Do not open the database: no stored glossary, no run history")
}
