// Package extractor picks a format-specific text extractor by file extension.
package extractor

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/kirillkom/compliance-reviewer/internal/core/domain"
	"github.com/kirillkom/compliance-reviewer/internal/core/ports"
	"github.com/kirillkom/compliance-reviewer/internal/infrastructure/extractor/docx"
	"github.com/kirillkom/compliance-reviewer/internal/infrastructure/extractor/pdf"
	"github.com/kirillkom/compliance-reviewer/internal/infrastructure/extractor/plaintext"
)

type Registry struct {
	byExt map[string]ports.TextExtractor
}

func NewRegistry() *Registry {
	text := plaintext.NewExtractor()
	return &Registry{byExt: map[string]ports.TextExtractor{
		".docx": docx.NewExtractor(),
		".pdf":  pdf.NewExtractor(),
		".txt":  text,
		".md":   text,
	}}
}

func (r *Registry) Supports(path string) bool {
	_, ok := r.byExt[strings.ToLower(filepath.Ext(path))]
	return ok
}

func (r *Registry) Extract(ctx context.Context, path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	extractor, ok := r.byExt[ext]
	if !ok {
		return "", domain.WrapError(domain.ErrUnsupportedFormat, "extract text", fmt.Errorf("extension %q", ext))
	}
	return extractor.Extract(ctx, path)
}
