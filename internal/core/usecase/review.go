package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/kirillkom/compliance-reviewer/internal/core/domain"
	"github.com/kirillkom/compliance-reviewer/internal/core/ports"
)

type ReviewOptions struct {
	TopK        int
	QueryChars  int
	OutputDir   string
	Concurrency int
}

func (o ReviewOptions) normalize() ReviewOptions {
	out := o
	if out.TopK <= 0 {
		out.TopK = 3
	}
	if out.QueryChars <= 0 {
		out.QueryChars = 1000
	}
	if out.OutputDir == "" {
		out.OutputDir = "./data/reviewed"
	}
	if out.Concurrency <= 0 {
		out.Concurrency = 1
	}
	return out
}

type ReviewDocumentUseCase struct {
	extractor ports.TextExtractor
	retriever ports.Retriever
	completer ports.Completer
	annotator ports.Annotator
	opts      ReviewOptions
}

func NewReviewDocumentUseCase(
	extractor ports.TextExtractor,
	retriever ports.Retriever,
	completer ports.Completer,
	annotator ports.Annotator,
	opts ReviewOptions,
) *ReviewDocumentUseCase {
	return &ReviewDocumentUseCase{
		extractor: extractor,
		retriever: retriever,
		completer: completer,
		annotator: annotator,
		opts:      opts.normalize(),
	}
}

// Review runs one document through the pipeline. On extraction, retrieval,
// completion or annotation failure the returned result carries zero issues
// and a non-empty Error alongside the kinded error.
func (uc *ReviewDocumentUseCase) Review(ctx context.Context, doc domain.Document) (*domain.ReviewResult, error) {
	start := time.Now()
	name := documentName(doc)

	result, err := uc.reviewPipeline(ctx, doc, name)
	if err != nil {
		failed := domain.EmptyReview(name)
		failed.DocumentID = doc.ID
		failed.Category = doc.Category
		failed.Error = err.Error()
		failed.CreatedAt = time.Now().UTC()
		slog.Error("review_failed", "document", name, "error", err)
		return failed, err
	}

	slog.Info("review_completed",
		"document", name,
		"issues", result.IssueCount,
		"citations", len(result.Citations),
		"duration_ms", float64(time.Since(start).Microseconds())/1000.0,
	)
	return result, nil
}

// ReviewBatch isolates documents from each other's failures; results keep
// input order.
func (uc *ReviewDocumentUseCase) ReviewBatch(ctx context.Context, docs []domain.Document) []domain.ReviewResult {
	results := make([]domain.ReviewResult, len(docs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(uc.opts.Concurrency)
	for i, doc := range docs {
		g.Go(func() error {
			result, _ := uc.Review(gctx, doc)
			results[i] = *result
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (uc *ReviewDocumentUseCase) reviewPipeline(ctx context.Context, doc domain.Document, name string) (*domain.ReviewResult, error) {
	text, err := uc.extractText(ctx, doc)
	if err != nil {
		return nil, err
	}

	passages, err := uc.retrieve(ctx, text)
	if err != nil {
		return nil, err
	}

	raw, err := uc.complete(ctx, BuildReviewPrompt(text, passageTexts(passages)))
	if err != nil {
		return nil, err
	}

	result, err := ParseReviewOutput(raw)
	if err != nil {
		slog.Warn("review_output_unparseable", "document", name, "error", err)
		result = domain.EmptyReview(name)
	}
	if strings.TrimSpace(result.DocumentName) == "" {
		result.DocumentName = name
	}
	result.ID = uuid.NewString()
	result.DocumentID = doc.ID
	result.Category = doc.Category
	result.IssueCount = len(result.Issues)
	result.CreatedAt = time.Now().UTC()

	annotated, err := uc.annotate(ctx, doc.Path, result.ID, name, result.Issues)
	if err != nil {
		return nil, err
	}
	result.AnnotatedPath = annotated
	return result, nil
}

func (uc *ReviewDocumentUseCase) extractText(ctx context.Context, doc domain.Document) (string, error) {
	if doc.Text != "" {
		return doc.Text, nil
	}
	text, err := uc.extractor.Extract(ctx, doc.Path)
	if err != nil {
		return "", wrapKindOnce(domain.ErrExtraction, "extract text", err)
	}
	return text, nil
}

func (uc *ReviewDocumentUseCase) retrieve(ctx context.Context, text string) ([]domain.Passage, error) {
	passages, err := uc.retriever.Retrieve(ctx, truncateRunes(text, uc.opts.QueryChars), uc.opts.TopK)
	if err != nil {
		return nil, wrapKindOnce(domain.ErrRetrieval, "retrieve reference passages", err)
	}
	return passages, nil
}

func (uc *ReviewDocumentUseCase) complete(ctx context.Context, prompt string) (string, error) {
	raw, err := uc.completer.Complete(ctx, prompt)
	if err != nil {
		return "", wrapKindOnce(domain.ErrLLM, "complete review prompt", err)
	}
	return raw, nil
}

// annotate writes under OutputDir/<review id>/ so same-named documents
// never share an output file.
func (uc *ReviewDocumentUseCase) annotate(ctx context.Context, sourcePath, reviewID, name string, issues []domain.Issue) (string, error) {
	if sourcePath == "" {
		return "", nil
	}
	out := filepath.Join(uc.opts.OutputDir, reviewID, "reviewed_"+filepath.Base(name))
	written, err := uc.annotator.Annotate(ctx, sourcePath, out, issues)
	if err != nil {
		return "", fmt.Errorf("annotate document: %w", err)
	}
	return written, nil
}

func documentName(doc domain.Document) string {
	if doc.Name != "" {
		return doc.Name
	}
	if doc.Path != "" {
		return filepath.Base(doc.Path)
	}
	return doc.ID
}

func passageTexts(passages []domain.Passage) []string {
	out := make([]string, 0, len(passages))
	for _, p := range passages {
		out = append(out, p.Text)
	}
	return out
}

func wrapKindOnce(kind error, operation string, err error) error {
	if errors.Is(err, kind) {
		return fmt.Errorf("%s: %w", operation, err)
	}
	return domain.WrapError(kind, operation, err)
}
