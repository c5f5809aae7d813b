package annotation

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/kirillkom/compliance-reviewer/internal/core/domain"
	"github.com/kirillkom/compliance-reviewer/internal/core/ports"
)

// Dispatcher routes by source extension. Unknown extensions fall back to
// annotating the extracted text.
type Dispatcher struct {
	byExt    map[string]ports.Annotator
	fallback ports.Annotator
}

func NewDispatcher(extractor ports.TextExtractor) *Dispatcher {
	text := NewTextAnnotator()
	return &Dispatcher{
		byExt: map[string]ports.Annotator{
			".docx": NewDocxAnnotator(),
			".txt":  text,
			".md":   text,
		},
		fallback: NewExtractedTextAnnotator(extractor),
	}
}

func (d *Dispatcher) Annotate(ctx context.Context, sourcePath, outputPath string, issues []domain.Issue) (string, error) {
	if a, ok := d.byExt[strings.ToLower(filepath.Ext(sourcePath))]; ok {
		return a.Annotate(ctx, sourcePath, outputPath, issues)
	}
	return d.fallback.Annotate(ctx, sourcePath, outputPath, issues)
}
