// Package neo4j records which regulations each review cited, so recurring
// citations across documents and categories can be queried in the graph.
package neo4j

import (
	"context"
	"fmt"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/kirillkom/compliance-reviewer/internal/core/domain"
)

const recordReviewQuery = `
MERGE (d:Document {id: $document_id})
SET d.name = $document_name, d.category = $category
MERGE (r:Review {id: $review_id})
SET r.issue_count = $issue_count, r.created_at = $created_at, r.failed = $failed
MERGE (d)-[:REVIEWED_IN]->(r)
WITH r
UNWIND $citations AS citation
MERGE (c:Citation {text: citation})
MERGE (r)-[:CITES]->(c)
`

type runFunc func(ctx context.Context, query string, params map[string]any) error

type CitationGraph struct {
	driver neo4j.DriverWithContext
	run    runFunc
}

// Connect opens a driver and verifies connectivity.
func Connect(ctx context.Context, uri, user, password string) (*CitationGraph, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(user, password, ""))
	if err != nil {
		return nil, fmt.Errorf("create neo4j driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("verify neo4j connectivity: %w", err)
	}

	g := &CitationGraph{driver: driver}
	g.run = func(ctx context.Context, query string, params map[string]any) error {
		_, err := neo4j.ExecuteQuery(ctx, driver, query, params, neo4j.EagerResultTransformer)
		return err
	}
	return g, nil
}

func (g *CitationGraph) Close(ctx context.Context) error {
	if g.driver == nil {
		return nil
	}
	return g.driver.Close(ctx)
}

func (g *CitationGraph) RecordReview(ctx context.Context, result *domain.ReviewResult) error {
	citations := make([]any, 0, len(result.Citations))
	seen := make(map[string]struct{}, len(result.Citations))
	for _, c := range result.Citations {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		citations = append(citations, c)
	}

	params := map[string]any{
		"document_id":   result.DocumentID,
		"document_name": result.DocumentName,
		"category":      string(result.Category),
		"review_id":     result.ID,
		"issue_count":   int64(result.IssueCount),
		"created_at":    result.CreatedAt,
		"failed":        result.Failed(),
		"citations":     citations,
	}
	if err := g.run(ctx, recordReviewQuery, params); err != nil {
		return fmt.Errorf("record review citations: %w", err)
	}
	return nil
}
