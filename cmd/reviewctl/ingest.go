package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/kirillkom/compliance-reviewer/internal/core/ports"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <file>...",
	Short: "Index regulatory reference files for retrieval",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := openPipeline(cmd)
		if err != nil {
			return err
		}
		defer p.Close()
		return ingestFiles(cmd.Context(), cmd.OutOrStdout(), p.Reference, args)
	},
}

// ingestFiles stops at the first failure; files indexed before it stay
// indexed.
func ingestFiles(ctx context.Context, out io.Writer, ingestor ports.ReferenceIngestor, paths []string) error {
	total := 0
	for _, path := range paths {
		chunks, err := ingestor.Ingest(ctx, path)
		if err != nil {
			return fmt.Errorf("ingest %s: %w", path, err)
		}
		total += chunks
		fmt.Fprintf(out, "%s: %d chunks\n", path, chunks)
	}
	fmt.Fprintf(out, "indexed %d chunks from %d files\n", total, len(paths))
	return nil
}
