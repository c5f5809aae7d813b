// Package bleve is the lexical retrieval backend. It needs no embedding
// model, so it backs the offline CLI and tests.
package bleve

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/blevesearch/bleve"

	"github.com/kirillkom/compliance-reviewer/internal/core/domain"
)

type passageDoc struct {
	Source     string `json:"source"`
	Text       string `json:"text"`
	ChunkIndex int    `json:"chunk_index"`
}

type Index struct {
	index bleve.Index
}

// Open opens the index at path, creating it when missing. An empty path
// keeps the index in memory.
func Open(path string) (*Index, error) {
	if path == "" {
		index, err := bleve.NewMemOnly(bleve.NewIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("create in-memory index: %w", err)
		}
		return &Index{index: index}, nil
	}

	index, err := bleve.Open(path)
	if errors.Is(err, bleve.ErrorIndexPathDoesNotExist) {
		index, err = bleve.New(path, bleve.NewIndexMapping())
	}
	if err != nil {
		return nil, fmt.Errorf("open index %s: %w", path, err)
	}
	return &Index{index: index}, nil
}

func (i *Index) Close() error {
	return i.index.Close()
}

func (i *Index) IndexPassages(_ context.Context, source string, passages []string) error {
	batch := i.index.NewBatch()
	for n, text := range passages {
		id := fmt.Sprintf("%s#%d", source, n)
		if err := batch.Index(id, passageDoc{Source: source, Text: text, ChunkIndex: n}); err != nil {
			return fmt.Errorf("batch passage %s: %w", id, err)
		}
	}
	if err := i.index.Batch(batch); err != nil {
		return fmt.Errorf("index passages for %s: %w", source, err)
	}
	return nil
}

func (i *Index) Retrieve(ctx context.Context, query string, k int) ([]domain.Passage, error) {
	if k <= 0 {
		k = 3
	}
	if strings.TrimSpace(query) == "" {
		return []domain.Passage{}, nil
	}

	match := bleve.NewMatchQuery(query)
	match.SetField("text")
	req := bleve.NewSearchRequestOptions(match, k, 0, false)
	req.Fields = []string{"text", "source"}

	res, err := i.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("search reference index: %w", err)
	}

	out := make([]domain.Passage, 0, len(res.Hits))
	for _, hit := range res.Hits {
		out = append(out, domain.Passage{
			Source: fieldString(hit.Fields, "source"),
			Text:   fieldString(hit.Fields, "text"),
			Score:  hit.Score,
		})
	}
	return out, nil
}

func fieldString(fields map[string]interface{}, key string) string {
	v, ok := fields[key]
	if !ok {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}
