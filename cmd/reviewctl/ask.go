package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kirillkom/compliance-reviewer/internal/core/ports"
)

var askLimit int

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Answer a question from the reference corpus",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := openPipeline(cmd)
		if err != nil {
			return err
		}
		defer p.Close()

		limit := askLimit
		if limit <= 0 {
			limit = cfg.RAGTopK
		}
		return askQuestion(cmd.Context(), cmd.OutOrStdout(), p.QA, strings.Join(args, " "), limit)
	},
}

func init() {
	askCmd.Flags().IntVar(&askLimit, "limit", 0, "reference passages to retrieve (defaults to RAG_TOP_K)")
}

func askQuestion(ctx context.Context, out io.Writer, qa ports.ReferenceQA, question string, limit int) error {
	answer, err := qa.Ask(ctx, question, limit)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, answer.Text)
	if len(answer.Sources) == 0 {
		return nil
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Sources:")
	for _, source := range answer.Sources {
		fmt.Fprintf(out, "- %s (%.3f)\n", source.Source, source.Score)
	}
	return nil
}
