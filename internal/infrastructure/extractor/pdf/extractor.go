package pdf

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/kirillkom/compliance-reviewer/internal/core/domain"
)

// Extractor reads the text layer of a PDF. Scanned pages yield nothing.
type Extractor struct{}

func NewExtractor() *Extractor {
	return &Extractor{}
}

func (e *Extractor) Extract(_ context.Context, path string) (text string, err error) {
	defer func() {
		// the parser panics on some malformed cross-reference tables
		if r := recover(); r != nil {
			text = ""
			err = domain.WrapError(domain.ErrExtraction, "extract pdf", fmt.Errorf("%s: %v", path, r))
		}
	}()

	f, reader, err := pdf.Open(path)
	if err != nil {
		return "", domain.WrapError(domain.ErrExtraction, "extract pdf", fmt.Errorf("%s: %w", path, err))
	}
	defer f.Close()

	plain, err := reader.GetPlainText()
	if err != nil {
		return "", domain.WrapError(domain.ErrExtraction, "extract pdf", fmt.Errorf("%s: %w", path, err))
	}
	raw, err := io.ReadAll(plain)
	if err != nil {
		return "", domain.WrapError(domain.ErrExtraction, "extract pdf", fmt.Errorf("%s: %w", path, err))
	}
	return strings.TrimSpace(string(raw)), nil
}
