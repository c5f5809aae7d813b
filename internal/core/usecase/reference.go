package usecase

import (
	"context"
	"errors"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/kirillkom/compliance-reviewer/internal/core/domain"
	"github.com/kirillkom/compliance-reviewer/internal/core/ports"
)

var blankLineRun = regexp.MustCompile(`\n{2,}`)

type IngestReferenceUseCase struct {
	extractor ports.TextExtractor
	chunker   ports.Chunker
	indexer   ports.ReferenceIndexer
}

func NewIngestReferenceUseCase(
	extractor ports.TextExtractor,
	chunker ports.Chunker,
	indexer ports.ReferenceIndexer,
) *IngestReferenceUseCase {
	return &IngestReferenceUseCase{
		extractor: extractor,
		chunker:   chunker,
		indexer:   indexer,
	}
}

// Ingest indexes one reference file and returns the number of passages.
func (uc *IngestReferenceUseCase) Ingest(ctx context.Context, path string) (int, error) {
	raw, err := uc.extractor.Extract(ctx, path)
	if err != nil {
		return 0, wrapKindOnce(domain.ErrExtraction, "extract reference", err)
	}
	text := strings.TrimSpace(blankLineRun.ReplaceAllString(raw, "\n\n"))
	if text == "" {
		return 0, domain.WrapError(domain.ErrInvalidInput, "extract reference", errors.New("empty reference text"))
	}

	passages := uc.chunker.Split(text)
	if len(passages) == 0 {
		return 0, domain.WrapError(domain.ErrInvalidInput, "chunk reference", errors.New("chunking produced zero passages"))
	}

	if err := uc.indexer.IndexPassages(ctx, filepath.Base(path), passages); err != nil {
		return 0, wrapKindOnce(domain.ErrRetrieval, "index reference passages", err)
	}
	return len(passages), nil
}

type AskUseCase struct {
	retriever ports.Retriever
	completer ports.Completer
}

func NewAskUseCase(retriever ports.Retriever, completer ports.Completer) *AskUseCase {
	return &AskUseCase{
		retriever: retriever,
		completer: completer,
	}
}

func (uc *AskUseCase) Ask(ctx context.Context, question string, limit int) (*domain.Answer, error) {
	if strings.TrimSpace(question) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "ask", errors.New("question is required"))
	}
	if limit <= 0 {
		limit = 5
	}

	passages, err := uc.retriever.Retrieve(ctx, question, limit)
	if err != nil {
		return nil, wrapKindOnce(domain.ErrRetrieval, "retrieve reference passages", err)
	}

	text, err := uc.completer.Complete(ctx, BuildAnswerPrompt(question, passages))
	if err != nil {
		return nil, wrapKindOnce(domain.ErrLLM, "complete answer prompt", err)
	}

	return &domain.Answer{
		Text:    strings.TrimSpace(text),
		Sources: passages,
	}, nil
}

