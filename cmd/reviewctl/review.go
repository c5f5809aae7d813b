package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/kirillkom/compliance-reviewer/internal/core/domain"
	"github.com/kirillkom/compliance-reviewer/internal/core/ports"
	"github.com/kirillkom/compliance-reviewer/internal/infrastructure/report/xlsx"
)

var (
	reviewOutDir string
	reviewReport string
)

var reviewCmd = &cobra.Command{
	Use:   "review <file>...",
	Short: "Review documents, write annotated copies and print the findings as JSON",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if reviewOutDir != "" {
			cfg.ReviewOutputDir = reviewOutDir
		}
		p, err := openPipeline(cmd)
		if err != nil {
			return err
		}
		defer p.Close()

		return reviewFiles(cmd.Context(), cmd.OutOrStdout(), p.Intake, p.Reviewer, xlsx.NewWriter(), reviewReport, args)
	},
}

func init() {
	reviewCmd.Flags().StringVar(&reviewOutDir, "out", "", "directory for annotated copies (defaults to REVIEW_OUTPUT_DIR)")
	reviewCmd.Flags().StringVar(&reviewReport, "report", "", "also write an XLSX report to this path")
}

type reviewOutput struct {
	Process domain.ProcessDetectionResult `json:"process"`
	Reviews []domain.ReviewResult         `json:"reviews"`
}

// reviewFiles classifies the set, reviews every document and reports
// per-document failures only after all documents were attempted.
func reviewFiles(
	ctx context.Context,
	out io.Writer,
	intake ports.DocumentIntake,
	reviewer ports.DocumentReviewer,
	reports ports.ReportWriter,
	reportPath string,
	paths []string,
) error {
	intakeReport := intake.Intake(ctx, documentsFromPaths(paths))
	results := reviewer.ReviewBatch(ctx, intakeReport.Documents)

	if reportPath != "" {
		if err := writeReportFile(reports, reportPath, &intakeReport.Process, results); err != nil {
			return err
		}
		slog.Info("report_written", "path", reportPath, "documents", len(results))
	}

	if err := writeJSON(out, reviewOutput{Process: intakeReport.Process, Reviews: results}); err != nil {
		return fmt.Errorf("write review output: %w", err)
	}

	failed := 0
	for _, result := range results {
		if result.Failed() {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d documents failed review", failed, len(results))
	}
	return nil
}

func writeReportFile(reports ports.ReportWriter, path string, process *domain.ProcessDetectionResult, results []domain.ReviewResult) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	if err := reports.WriteReport(f, process, results); err != nil {
		_ = f.Close()
		return fmt.Errorf("write report: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close report: %w", err)
	}
	return nil
}
