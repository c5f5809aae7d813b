package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/kirillkom/compliance-reviewer/internal/core/domain"
)

func TestReviewGetByIDReturnsDomainNotFound(t *testing.T) {
	db, mock, done := newDBWithMock(t)
	defer done()
	repo := NewReviewRepository(db)

	mock.ExpectQuery("SELECT id, document_id, document_name").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "missing")
	if !domain.IsKind(err, domain.ErrReviewNotFound) {
		t.Fatalf("expected ErrReviewNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestRecordReviewUpsertsWithJSONColumns(t *testing.T) {
	db, mock, done := newDBWithMock(t)
	defer done()
	repo := NewReviewRepository(db)

	created := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectExec("ON CONFLICT \\(id\\) DO UPDATE").
		WithArgs(
			"rev-1", "doc-1", "aoa.docx", string(domain.CategoryArticlesOfAssociation),
			[]byte(`[]`), 0, []byte(`[]`), "", "", created,
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.RecordReview(context.Background(), &domain.ReviewResult{
		ID:           "rev-1",
		DocumentID:   "doc-1",
		DocumentName: "aoa.docx",
		Category:     domain.CategoryArticlesOfAssociation,
		CreatedAt:    created,
	})
	if err != nil {
		t.Fatalf("RecordReview() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestReviewGetByIDDecodesIssues(t *testing.T) {
	db, mock, done := newDBWithMock(t)
	defer done()
	repo := NewReviewRepository(db)

	issues := `[{"section":"3","issue":"Wrong court","severity":"High","suggestion":"Use ADGM Courts","match_text":"UAE Federal Courts"}]`
	mock.ExpectQuery("SELECT id, document_id, document_name").
		WithArgs("rev-1").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "document_id", "document_name", "category", "issues", "issue_count",
			"citations", "annotated_path", "error_message", "created_at",
		}).AddRow(
			"rev-1", "doc-1", "aoa.docx", string(domain.CategoryArticlesOfAssociation), []byte(issues), 1,
			[]byte(`["ADGM Companies Regulations 2020, Art. 6"]`), "/out/reviewed_aoa.docx", "", time.Now().UTC(),
		))

	got, err := repo.GetByID(context.Background(), "rev-1")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.IssueCount != 1 || len(got.Issues) != 1 || got.Issues[0].Severity != domain.SeverityHigh {
		t.Fatalf("unexpected issues %+v", got.Issues)
	}
	if len(got.Citations) != 1 || got.AnnotatedPath != "/out/reviewed_aoa.docx" {
		t.Fatalf("unexpected review %+v", got)
	}
}
