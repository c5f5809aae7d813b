package annotation

import (
	"context"
	"log/slog"

	"github.com/kirillkom/compliance-reviewer/internal/core/domain"
	"github.com/kirillkom/compliance-reviewer/internal/infrastructure/docx"
)

// DocxAnnotator appends a run with two breaks and the marker text to the end
// of every matching paragraph, table cells included.
type DocxAnnotator struct{}

func NewDocxAnnotator() *DocxAnnotator {
	return &DocxAnnotator{}
}

func (a *DocxAnnotator) Annotate(_ context.Context, sourcePath, outputPath string, issues []domain.Issue) (string, error) {
	doc, err := docx.Open(sourcePath)
	if err != nil {
		return "", domain.WrapError(domain.ErrExtraction, "open docx for annotation", err)
	}
	defer doc.Close()

	paragraphs := doc.Paragraphs()
	units := make([]string, len(paragraphs))
	for i, p := range paragraphs {
		units[i] = p.Text
	}
	placed := Place(units, issues)

	insertions := make([]docx.Insertion, 0, len(placed))
	for i, markers := range placed {
		if len(markers) > 0 {
			insertions = append(insertions, docx.Insertion{Index: i, Lines: markers})
		}
	}
	if err := doc.SaveWithInsertions(outputPath, insertions); err != nil {
		return "", err
	}

	slog.Info("document_annotated",
		"source", sourcePath,
		"output", outputPath,
		"issues", len(issues),
		"markers", countPlaced(placed),
	)
	return outputPath, nil
}
