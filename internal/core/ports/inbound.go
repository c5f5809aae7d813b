package ports

import (
	"context"
	"io"

	"github.com/kirillkom/compliance-reviewer/internal/core/domain"
)

// DocumentUploader stores an incoming file and returns it as a document.
type DocumentUploader interface {
	Store(ctx context.Context, prefix, filename string, body io.Reader) (*domain.Document, error)
}

// DocumentIntake classifies uploaded documents and reports checklist status.
type DocumentIntake interface {
	Intake(ctx context.Context, docs []domain.Document) *domain.IntakeReport
}

// DocumentReviewer runs the retrieval-augmented review for documents.
type DocumentReviewer interface {
	Review(ctx context.Context, doc domain.Document) (*domain.ReviewResult, error)
	ReviewBatch(ctx context.Context, docs []domain.Document) []domain.ReviewResult
}

// ReviewJobRunner reviews a queued job and records the result.
type ReviewJobRunner interface {
	Run(ctx context.Context, job domain.ReviewJob) (*domain.ReviewResult, error)
}

// ReferenceIngestor loads regulatory reference text into the retrieval index.
type ReferenceIngestor interface {
	Ingest(ctx context.Context, path string) (int, error)
}

// ReferenceQA answers free-form questions from the reference corpus.
type ReferenceQA interface {
	Ask(ctx context.Context, question string, limit int) (*domain.Answer, error)
}

// ProcessDetector picks the checklist best matching the uploaded categories.
type ProcessDetector interface {
	DetectProcess(categories []domain.Category) domain.ProcessDetectionResult
}
