package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/kirillkom/compliance-reviewer/internal/core/domain"
)

type DocumentRepository struct {
	db *sql.DB
}

func NewDocumentRepository(db *sql.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

func (r *DocumentRepository) Create(ctx context.Context, doc *domain.Document) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO documents (id, name, storage_path, category, error_message, created_at)
VALUES ($1,$2,$3,$4,$5,$6)
`,
		doc.ID, doc.Name, doc.Path, string(doc.Category), doc.Error, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

func (r *DocumentRepository) GetByID(ctx context.Context, id string) (*domain.Document, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, name, storage_path, category, error_message
FROM documents
WHERE id = $1
`, id)

	var doc domain.Document
	var category string
	err := row.Scan(&doc.ID, &doc.Name, &doc.Path, &category, &doc.Error)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrDocumentNotFound, "get document", fmt.Errorf("id=%s", id))
		}
		return nil, fmt.Errorf("scan document: %w", err)
	}
	doc.Category = domain.Category(category)
	return &doc, nil
}
