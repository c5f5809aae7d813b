package ports

import (
	"context"
	"io"

	"github.com/kirillkom/compliance-reviewer/internal/core/domain"
)

// TextExtractor converts a stored document into plain paragraph text.
type TextExtractor interface {
	Extract(ctx context.Context, path string) (string, error)
}

// FormatChecker reports whether a file name has a supported extension.
type FormatChecker interface {
	Supports(path string) bool
}

// DocumentClassifier maps raw text onto a checklist category.
type DocumentClassifier interface {
	Classify(text string) domain.Category
}

// Retriever returns the top-k reference passages for a query.
type Retriever interface {
	Retrieve(ctx context.Context, query string, k int) ([]domain.Passage, error)
}

// ReferenceIndexer stores reference passages for later retrieval.
type ReferenceIndexer interface {
	IndexPassages(ctx context.Context, source string, passages []string) error
}

// Completer is the language model collaborator. Output is untrusted text.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Embedder builds vectors for passages and query text.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Chunker splits text into retrievable passages.
type Chunker interface {
	Split(text string) []string
}

// Annotator writes a copy of sourcePath with inline review markers and
// returns the path actually written.
type Annotator interface {
	Annotate(ctx context.Context, sourcePath, outputPath string, issues []domain.Issue) (string, error)
}

// ObjectStorage stores uploaded documents.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Path(key string) string
}

// ReviewRecorder receives every finished review.
type ReviewRecorder interface {
	RecordReview(ctx context.Context, result *domain.ReviewResult) error
}

// ReviewRepository persists and reads review results.
type ReviewRepository interface {
	ReviewRecorder
	GetByID(ctx context.Context, id string) (*domain.ReviewResult, error)
}

// ReviewQueue publishes and consumes asynchronous review jobs.
type ReviewQueue interface {
	PublishReviewRequested(ctx context.Context, job domain.ReviewJob) error
	SubscribeReviewRequested(ctx context.Context, handler func(context.Context, domain.ReviewJob) error) error
}

// ReportWriter renders checklist status and review results.
type ReportWriter interface {
	WriteReport(w io.Writer, process *domain.ProcessDetectionResult, results []domain.ReviewResult) error
}

// DocumentRepository tracks uploaded documents between intake and review.
type DocumentRepository interface {
	Create(ctx context.Context, doc *domain.Document) error
	GetByID(ctx context.Context, id string) (*domain.Document, error)
}
