// Package xlsx renders a review session as a spreadsheet: checklist
// status, per-document summary and one row per issue.
package xlsx

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/kirillkom/compliance-reviewer/internal/core/domain"
)

const (
	checklistSheet = "Checklist"
	summarySheet   = "Documents"
	issuesSheet    = "Issues"
)

type Writer struct{}

func NewWriter() *Writer {
	return &Writer{}
}

func (w *Writer) WriteReport(out io.Writer, process *domain.ProcessDetectionResult, results []domain.ReviewResult) error {
	f := excelize.NewFile()
	defer func() {
		_ = f.Close()
	}()

	if err := f.SetSheetName("Sheet1", checklistSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	for _, name := range []string{summarySheet, issuesSheet} {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("create sheet %s: %w", name, err)
		}
	}

	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	if err := writeChecklist(f, header, process); err != nil {
		return err
	}
	if err := writeRows(f, header, summarySheet,
		[]any{"Document", "Category", "Issues", "Citations", "Annotated copy", "Error"},
		summaryRows(results)); err != nil {
		return err
	}
	if err := writeRows(f, header, issuesSheet,
		[]any{"Document", "Section", "Issue", "Severity", "Suggestion", "Matched text"},
		issueRows(results)); err != nil {
		return err
	}

	if err := f.Write(out); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeChecklist(f *excelize.File, header int, process *domain.ProcessDetectionResult) error {
	if process == nil {
		process = &domain.ProcessDetectionResult{}
	}
	status := "Complete"
	if !process.Complete() {
		status = "Incomplete"
	}
	rows := [][]any{
		{"Process", process.Process},
		{"Documents uploaded", process.DocumentsUploaded},
		{"Required documents", process.RequiredDocuments},
		{"Matched documents", process.MatchedDocuments},
		{"Status", status},
		{"Missing documents", joinCategories(process.MissingDocuments)},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(checklistSheet, cell, &row); err != nil {
			return fmt.Errorf("write checklist row: %w", err)
		}
	}
	if err := f.SetCellStyle(checklistSheet, "A1", fmt.Sprintf("A%d", len(rows)), header); err != nil {
		return fmt.Errorf("style checklist: %w", err)
	}
	return f.SetColWidth(checklistSheet, "A", "B", 28)
}

func writeRows(f *excelize.File, header int, sheet string, head []any, rows [][]any) error {
	if err := f.SetSheetRow(sheet, "A1", &head); err != nil {
		return fmt.Errorf("write %s header: %w", sheet, err)
	}
	last, err := excelize.CoordinatesToCellName(len(head), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last, header); err != nil {
		return fmt.Errorf("style %s header: %w", sheet, err)
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write %s row: %w", sheet, err)
		}
	}
	return nil
}

func summaryRows(results []domain.ReviewResult) [][]any {
	rows := make([][]any, 0, len(results))
	for _, r := range results {
		rows = append(rows, []any{
			r.DocumentName,
			string(r.Category),
			r.IssueCount,
			strings.Join(r.Citations, "; "),
			r.AnnotatedPath,
			r.Error,
		})
	}
	return rows
}

func issueRows(results []domain.ReviewResult) [][]any {
	var rows [][]any
	for _, r := range results {
		for _, issue := range r.Issues {
			rows = append(rows, []any{
				r.DocumentName,
				issue.Section,
				issue.Issue,
				string(issue.Severity),
				issue.Suggestion,
				issue.MatchText,
			})
		}
	}
	return rows
}

func joinCategories(categories []domain.Category) string {
	out := make([]string, 0, len(categories))
	for _, c := range categories {
		out = append(out, string(c))
	}
	return strings.Join(out, ", ")
}
