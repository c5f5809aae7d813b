package annotation

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/kirillkom/compliance-reviewer/internal/core/domain"
	"github.com/kirillkom/compliance-reviewer/internal/core/ports"
)

// TextAnnotator treats each line as a unit and writes marker lines right
// after the matching line. With an extractor set, the source is converted
// to text first and the output gets a .txt extension.
type TextAnnotator struct {
	extractor ports.TextExtractor
}

func NewTextAnnotator() *TextAnnotator {
	return &TextAnnotator{}
}

// NewExtractedTextAnnotator annotates the extracted text of formats that
// cannot carry inline runs, such as PDF.
func NewExtractedTextAnnotator(extractor ports.TextExtractor) *TextAnnotator {
	return &TextAnnotator{extractor: extractor}
}

func (a *TextAnnotator) Annotate(ctx context.Context, sourcePath, outputPath string, issues []domain.Issue) (string, error) {
	text, err := a.read(ctx, sourcePath)
	if err != nil {
		return "", err
	}
	if a.extractor != nil {
		outputPath = strings.TrimSuffix(outputPath, filepath.Ext(outputPath)) + ".txt"
	}

	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	placed := Place(lines, issues)

	var b strings.Builder
	for i, line := range lines {
		b.WriteString(line)
		for _, marker := range placed[i] {
			b.WriteString("\n")
			b.WriteString(marker)
		}
		if i < len(lines)-1 {
			b.WriteString("\n")
		}
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	if err := os.WriteFile(outputPath, []byte(b.String()), 0o644); err != nil {
		return "", fmt.Errorf("write annotated text: %w", err)
	}

	slog.Info("document_annotated",
		"source", sourcePath,
		"output", outputPath,
		"issues", len(issues),
		"markers", countPlaced(placed),
	)
	return outputPath, nil
}

func (a *TextAnnotator) read(ctx context.Context, sourcePath string) (string, error) {
	if a.extractor != nil {
		text, err := a.extractor.Extract(ctx, sourcePath)
		if err != nil {
			return "", fmt.Errorf("extract text for annotation: %w", err)
		}
		return text, nil
	}
	raw, err := os.ReadFile(sourcePath)
	if err != nil {
		return "", domain.WrapError(domain.ErrExtraction, "read text for annotation", err)
	}
	return string(raw), nil
}
