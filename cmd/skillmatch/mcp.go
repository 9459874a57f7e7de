package main

import (
	"github.com/spf13/cobra"

	"skillmatch/internal/app"
	"skillmatch/internal/domain/matching"
	"skillmatch/internal/infrastructure/fetcher"
	"skillmatch/internal/mcpserver"
)

var version = "dev"

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the resume_match tool over MCP stdio",
	Long:  "Run a Model Context Protocol server on stdin/stdout exposing the resume_match tool. Nothing else is written to stdout.",
	RunE:  runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	vocab, err := app.LoadVocabulary(cfg.Matching)
	if err != nil {
		return err
	}
	m, err := matching.NewMatcher(vocab, cfg.Matching.Mode, cfg.Matching.Weights)
	if err != nil {
		return err
	}

	tool := mcpserver.NewTool(m, fetcher.New(cfg.Fetch, nil))
	return mcpserver.Serve(cmd.Context(), mcpserver.New(tool, version))
}
