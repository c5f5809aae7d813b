package postgres

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/kirillkom/compliance-reviewer/internal/core/domain"
)

func newDBWithMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	return db, mock, func() { _ = db.Close() }
}

func TestDocumentGetByIDReturnsDomainNotFound(t *testing.T) {
	db, mock, done := newDBWithMock(t)
	defer done()
	repo := NewDocumentRepository(db)

	mock.ExpectQuery("SELECT id, name, storage_path").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "missing")
	if !domain.IsKind(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected ErrDocumentNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestDocumentCreateAndGet(t *testing.T) {
	db, mock, done := newDBWithMock(t)
	defer done()
	repo := NewDocumentRepository(db)

	mock.ExpectExec("INSERT INTO documents").
		WithArgs("doc-1", "aoa.docx", "/data/doc-1/aoa.docx", string(domain.CategoryArticlesOfAssociation), "", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT id, name, storage_path").
		WithArgs("doc-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "storage_path", "category", "error_message"}).
			AddRow("doc-1", "aoa.docx", "/data/doc-1/aoa.docx", string(domain.CategoryArticlesOfAssociation), ""))

	err := repo.Create(context.Background(), &domain.Document{
		ID:       "doc-1",
		Name:     "aoa.docx",
		Path:     "/data/doc-1/aoa.docx",
		Category: domain.CategoryArticlesOfAssociation,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	doc, err := repo.GetByID(context.Background(), "doc-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if doc.Path != "/data/doc-1/aoa.docx" || doc.Category != domain.CategoryArticlesOfAssociation {
		t.Fatalf("unexpected document %+v", doc)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestEnsureSchemaTakesAdvisoryLock(t *testing.T) {
	db, mock, done := newDBWithMock(t)
	defer done()

	mock.ExpectBegin()
	mock.ExpectExec("SELECT pg_advisory_xact_lock").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS documents").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	if err := EnsureSchema(context.Background(), db); err != nil {
		t.Fatalf("EnsureSchema() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
