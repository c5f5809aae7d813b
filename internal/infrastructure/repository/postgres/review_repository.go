package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/kirillkom/compliance-reviewer/internal/core/domain"
)

type ReviewRepository struct {
	db *sql.DB
}

func NewReviewRepository(db *sql.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

// RecordReview upserts by review id so a redelivered job overwrites the
// earlier attempt.
func (r *ReviewRepository) RecordReview(ctx context.Context, result *domain.ReviewResult) error {
	issues := result.Issues
	if issues == nil {
		issues = []domain.Issue{}
	}
	issuesJSON, err := json.Marshal(issues)
	if err != nil {
		return fmt.Errorf("marshal issues: %w", err)
	}
	citations := result.Citations
	if citations == nil {
		citations = []string{}
	}
	citationsJSON, err := json.Marshal(citations)
	if err != nil {
		return fmt.Errorf("marshal citations: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
INSERT INTO reviews (
	id, document_id, document_name, category, issues, issue_count, citations, annotated_path, error_message, created_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
ON CONFLICT (id) DO UPDATE SET
	document_id = EXCLUDED.document_id,
	document_name = EXCLUDED.document_name,
	category = EXCLUDED.category,
	issues = EXCLUDED.issues,
	issue_count = EXCLUDED.issue_count,
	citations = EXCLUDED.citations,
	annotated_path = EXCLUDED.annotated_path,
	error_message = EXCLUDED.error_message,
	created_at = EXCLUDED.created_at
`,
		result.ID, result.DocumentID, result.DocumentName, string(result.Category), issuesJSON,
		len(issues), citationsJSON, result.AnnotatedPath, result.Error, result.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert review: %w", err)
	}
	return nil
}

func (r *ReviewRepository) GetByID(ctx context.Context, id string) (*domain.ReviewResult, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, document_id, document_name, category, issues, issue_count, citations, annotated_path, error_message, created_at
FROM reviews
WHERE id = $1
`, id)

	var (
		result       domain.ReviewResult
		category     string
		issuesRaw    []byte
		citationsRaw []byte
	)
	err := row.Scan(
		&result.ID, &result.DocumentID, &result.DocumentName, &category, &issuesRaw,
		&result.IssueCount, &citationsRaw, &result.AnnotatedPath, &result.Error, &result.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrReviewNotFound, "get review", fmt.Errorf("id=%s", id))
		}
		return nil, fmt.Errorf("scan review: %w", err)
	}

	if err := json.Unmarshal(issuesRaw, &result.Issues); err != nil {
		return nil, fmt.Errorf("unmarshal issues: %w", err)
	}
	if err := json.Unmarshal(citationsRaw, &result.Citations); err != nil {
		return nil, fmt.Errorf("unmarshal citations: %w", err)
	}
	result.Category = domain.Category(category)
	return &result, nil
}
