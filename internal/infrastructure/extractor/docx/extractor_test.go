package docx

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/kirillkom/compliance-reviewer/internal/core/domain"
	wordml "github.com/kirillkom/compliance-reviewer/internal/infrastructure/docx"
)

func TestExtractJoinsParagraphs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "aoa.docx")
	if err := wordml.Create(path, []string{"Articles of Association", "", "Share capital"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	text, err := NewExtractor().Extract(context.Background(), path)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if text != "Articles of Association\n\nShare capital" {
		t.Fatalf("unexpected text %q", text)
	}
}

func TestExtractCorruptArchive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.docx")
	if err := os.WriteFile(path, []byte("PK\x03\x04 broken"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	_, err := NewExtractor().Extract(context.Background(), path)
	if !errors.Is(err, domain.ErrExtraction) {
		t.Fatalf("expected ErrExtraction, got %v", err)
	}
}
