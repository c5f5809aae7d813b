package docx

import (
	"context"
	"fmt"

	"github.com/kirillkom/compliance-reviewer/internal/core/domain"
	wordml "github.com/kirillkom/compliance-reviewer/internal/infrastructure/docx"
)

// Extractor returns paragraph text joined with newlines.
type Extractor struct{}

func NewExtractor() *Extractor {
	return &Extractor{}
}

func (e *Extractor) Extract(_ context.Context, path string) (string, error) {
	doc, err := wordml.Open(path)
	if err != nil {
		return "", domain.WrapError(domain.ErrExtraction, "extract docx", fmt.Errorf("%s: %w", path, err))
	}
	defer doc.Close()
	return doc.Text(), nil
}
