package main

import (
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/matthewbaird/leadpilot/internal/mcptools"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the decision tools over MCP stdio",
	Long: `Starts an MCP server on stdin/stdout exposing explain_message,
analyze_email, check_permission and scope_metric. Logs go to stderr.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		defer a.Close()

		// stdio server manages its own lifecycle
		return server.ServeStdio(mcptools.New(a.model, Version))
	},
}
