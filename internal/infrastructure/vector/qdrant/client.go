package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/compliance-reviewer/internal/core/domain"
	"github.com/kirillkom/compliance-reviewer/internal/core/ports"
	"github.com/kirillkom/compliance-reviewer/internal/infrastructure/resilience"
)

const DefaultCollection = "adgm_reference"

type Options struct {
	Timeout            time.Duration
	ResilienceExecutor *resilience.Executor
}

// Store keeps reference passages as dense vectors in one collection.
type Store struct {
	baseURL    string
	collection string
	embedder   ports.Embedder
	httpClient *http.Client
	executor   *resilience.Executor

	ensureMu          sync.Mutex
	ensuredCollection bool
	ensuredVectorSize int
}

func New(baseURL, collection string, embedder ports.Embedder) *Store {
	return NewWithOptions(baseURL, collection, embedder, Options{})
}

func NewWithOptions(baseURL, collection string, embedder ports.Embedder, options Options) *Store {
	if collection == "" {
		collection = DefaultCollection
	}
	timeout := options.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Store{
		baseURL:    strings.TrimRight(baseURL, "/"),
		collection: collection,
		embedder:   embedder,
		httpClient: &http.Client{Timeout: timeout},
		executor:   options.ResilienceExecutor,
	}
}

func (s *Store) IndexPassages(ctx context.Context, source string, passages []string) error {
	if len(passages) == 0 {
		return nil
	}
	vectors, err := s.embedder.Embed(ctx, passages)
	if err != nil {
		return fmt.Errorf("embed reference passages: %w", err)
	}
	if len(vectors) != len(passages) {
		return fmt.Errorf("passages/vectors mismatch: %d != %d", len(passages), len(vectors))
	}

	if err := s.ensureCollection(ctx, len(vectors[0])); err != nil {
		return err
	}

	type point struct {
		ID      string         `json:"id"`
		Vector  []float32      `json:"vector"`
		Payload map[string]any `json:"payload"`
	}

	points := make([]point, 0, len(passages))
	for i := range passages {
		points = append(points, point{
			ID:     uuid.NewSHA1(uuid.NameSpaceURL, []byte(fmt.Sprintf("%s#%d", source, i))).String(),
			Vector: vectors[i],
			Payload: map[string]any{
				"source":      source,
				"chunk_index": i,
				"text":        passages[i],
			},
		})
	}

	path := fmt.Sprintf("/collections/%s/points?wait=true", s.collection)
	return s.call(ctx, "qdrant upsert", func(callCtx context.Context) error {
		return s.doJSON(callCtx, http.MethodPut, path, map[string]any{"points": points}, nil, "upsert")
	})
}

func (s *Store) Retrieve(ctx context.Context, query string, k int) ([]domain.Passage, error) {
	if k <= 0 {
		k = 3
	}
	vector, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed retrieval query: %w", err)
	}

	reqBody := map[string]any{
		"vector":       vector,
		"limit":        k,
		"with_payload": true,
	}

	var searchResp struct {
		Result []struct {
			Score   float64        `json:"score"`
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}
	path := fmt.Sprintf("/collections/%s/points/search", s.collection)
	err = s.call(ctx, "qdrant search", func(callCtx context.Context) error {
		return s.doJSON(callCtx, http.MethodPost, path, reqBody, &searchResp, "search")
	})
	if err != nil {
		return nil, err
	}

	out := make([]domain.Passage, 0, len(searchResp.Result))
	for _, r := range searchResp.Result {
		out = append(out, domain.Passage{
			Source: getStringPayload(r.Payload, "source"),
			Text:   getStringPayload(r.Payload, "text"),
			Score:  r.Score,
		})
	}
	return out, nil
}

func (s *Store) ensureCollection(ctx context.Context, vectorSize int) error {
	s.ensureMu.Lock()
	if s.ensuredCollection && s.ensuredVectorSize == vectorSize {
		s.ensureMu.Unlock()
		return nil
	}
	s.ensureMu.Unlock()

	reqBody := map[string]any{
		"vectors": map[string]any{
			"size":     vectorSize,
			"distance": "Cosine",
		},
	}

	err := s.call(ctx, "qdrant ensure collection", func(callCtx context.Context) error {
		err := s.doJSON(callCtx, http.MethodPut, "/collections/"+s.collection, reqBody, nil, "ensure collection")
		var statusErr *HTTPStatusError
		// 409 when the collection already exists.
		if asStatusError(err, &statusErr) && statusErr.StatusCode == http.StatusConflict {
			return nil
		}
		return err
	})
	if err != nil {
		return err
	}

	s.ensureMu.Lock()
	s.ensuredCollection = true
	s.ensuredVectorSize = vectorSize
	s.ensureMu.Unlock()
	return nil
}

func (s *Store) call(ctx context.Context, operation string, fn func(context.Context) error) error {
	var err error
	if s.executor != nil {
		err = s.executor.Execute(ctx, operation, fn, classifyQdrantError)
	} else {
		err = fn(ctx)
	}
	return wrapTemporaryIfNeeded(operation, err)
}

func (s *Store) doJSON(ctx context.Context, method, path string, payload any, out any, operation string) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s body: %w", operation, err)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create %s request: %w", operation, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("qdrant %s request: %w", operation, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return &HTTPStatusError{
			Operation:  operation,
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       strings.TrimSpace(string(raw)),
		}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", operation, err)
	}
	return nil
}

func getStringPayload(payload map[string]any, key string) string {
	v, ok := payload[key]
	if !ok {
		return ""
	}
	s, ok := v.(string)
	if ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}
