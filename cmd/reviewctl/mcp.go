package main

import (
	"os"

	"github.com/spf13/cobra"

	mcpadapter "github.com/kirillkom/compliance-reviewer/internal/adapters/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve classify, checklist and review tools over MCP stdio",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		p, err := openPipeline(cmd)
		if err != nil {
			return err
		}
		defer p.Close()

		server := mcpadapter.NewServer(version, mcpadapter.Dependencies{
			Extractor:  p.Extractor,
			Classifier: p.Classifier,
			Checklists: p.Checklists,
			Reviewer:   p.Reviewer,
		})
		return server.Serve(cmd.Context(), os.Stdin, os.Stdout)
	},
}
