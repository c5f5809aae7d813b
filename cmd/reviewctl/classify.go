package main

import (
	"encoding/json"
	"io"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/kirillkom/compliance-reviewer/internal/core/domain"
)

var classifyCmd = &cobra.Command{
	Use:   "classify <file>...",
	Short: "Classify documents and report the checklist status",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := openPipeline(cmd)
		if err != nil {
			return err
		}
		defer p.Close()

		report := p.Intake.Intake(cmd.Context(), documentsFromPaths(args))
		return writeJSON(cmd.OutOrStdout(), intakeView(report))
	},
}

func documentsFromPaths(paths []string) []domain.Document {
	docs := make([]domain.Document, 0, len(paths))
	for _, path := range paths {
		docs = append(docs, domain.Document{ID: uuid.NewString(), Name: filepath.Base(path), Path: path})
	}
	return docs
}

type documentView struct {
	Name     string          `json:"name"`
	Category domain.Category `json:"category"`
	Error    string          `json:"error,omitempty"`
}

type intakeOutput struct {
	Documents []documentView               `json:"documents"`
	Process   domain.ProcessDetectionResult `json:"process"`
}

func intakeView(report *domain.IntakeReport) intakeOutput {
	out := intakeOutput{Documents: make([]documentView, 0, len(report.Documents)), Process: report.Process}
	for _, doc := range report.Documents {
		out.Documents = append(out.Documents, documentView{Name: doc.Name, Category: doc.Category, Error: doc.Error})
	}
	return out
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
