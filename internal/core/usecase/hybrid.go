package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/kirillkom/compliance-reviewer/internal/core/domain"
	"github.com/kirillkom/compliance-reviewer/internal/core/ports"
)

const hybridCandidateFactor = 3

// HybridRetriever fuses a vector and a keyword retriever. One failing side
// degrades to the other; both failing is an error.
type HybridRetriever struct {
	semantic ports.Retriever
	lexical  ports.Retriever
	rrfK     int
}

func NewHybridRetriever(semantic, lexical ports.Retriever) *HybridRetriever {
	return &HybridRetriever{semantic: semantic, lexical: lexical, rrfK: 60}
}

func (r *HybridRetriever) Retrieve(ctx context.Context, query string, k int) ([]domain.Passage, error) {
	if k <= 0 {
		k = 3
	}
	candidates := k * hybridCandidateFactor

	semantic, semErr := r.semantic.Retrieve(ctx, query, candidates)
	if semErr != nil {
		slog.Warn("hybrid_semantic_retrieval_failed", "error", semErr)
	}
	lexical, lexErr := r.lexical.Retrieve(ctx, query, candidates)
	if lexErr != nil {
		slog.Warn("hybrid_lexical_retrieval_failed", "error", lexErr)
	}
	if semErr != nil && lexErr != nil {
		return nil, fmt.Errorf("hybrid retrieval: %w", errors.Join(semErr, lexErr))
	}

	fused := fusePassagesRRF(semantic, lexical, r.rrfK)
	return trimPassages(rerankPassages(query, fused, candidates), k), nil
}

// FanoutIndexer writes every passage set to each indexer in order and stops
// at the first failure.
type FanoutIndexer []ports.ReferenceIndexer

func (f FanoutIndexer) IndexPassages(ctx context.Context, source string, passages []string) error {
	for _, indexer := range f {
		if err := indexer.IndexPassages(ctx, source, passages); err != nil {
			return err
		}
	}
	return nil
}
