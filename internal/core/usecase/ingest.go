package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/kirillkom/compliance-reviewer/internal/core/domain"
	"github.com/kirillkom/compliance-reviewer/internal/core/ports"
)

// UploadUseCase stores incoming files under a fresh id so repeated names
// never collide.
type UploadUseCase struct {
	storage ports.ObjectStorage
}

func NewUploadUseCase(storage ports.ObjectStorage) *UploadUseCase {
	return &UploadUseCase{storage: storage}
}

// Store saves body as prefix/<id>/<sanitized name>. The returned document
// keeps the caller's base name and points at the stored file.
func (uc *UploadUseCase) Store(ctx context.Context, prefix, filename string, body io.Reader) (*domain.Document, error) {
	name := filepath.Base(strings.TrimSpace(filename))
	if name == "" || name == "." || name == string(filepath.Separator) {
		return nil, domain.WrapError(domain.ErrInvalidInput, "store upload", errors.New("file name is required"))
	}

	id := uuid.NewString()
	storageKey := path.Join(prefix, id, sanitizeFilename(name))
	if err := uc.storage.Save(ctx, storageKey, body); err != nil {
		return nil, fmt.Errorf("save to object storage: %w", err)
	}

	return &domain.Document{
		ID:   id,
		Name: name,
		Path: uc.storage.Path(storageKey),
	}, nil
}

func sanitizeFilename(name string) string {
	base := filepath.Base(name)
	base = strings.ReplaceAll(base, " ", "_")
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r
		case r >= 'A' && r <= 'Z':
			return r
		case r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
	if base == "" || strings.Trim(base, ".") == "" {
		return "document.bin"
	}
	return base
}
