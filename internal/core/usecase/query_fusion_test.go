package usecase

import (
	"testing"

	"github.com/kirillkom/compliance-reviewer/internal/core/domain"
)

func TestFusePassagesRRFDeduplicatesBySourceAndText(t *testing.T) {
	semantic := []domain.Passage{
		{Source: "a.txt", Text: "a", Score: 0.9},
		{Source: "b.txt", Text: "b", Score: 0.8},
	}
	lexical := []domain.Passage{
		{Source: "b.txt", Text: "b", Score: 7.5},
		{Source: "c.txt", Text: "c", Score: 3.1},
	}

	fused := fusePassagesRRF(semantic, lexical, 60)
	if len(fused) != 3 {
		t.Fatalf("expected 3 fused passages, got %d", len(fused))
	}
	if fused[0].Source != "b.txt" {
		t.Fatalf("expected b.txt first after RRF fusion, got %s", fused[0].Source)
	}
}

func TestFusePassagesRRFTieBreakStable(t *testing.T) {
	semantic := []domain.Passage{{Source: "b.txt", Text: "b"}}
	lexical := []domain.Passage{{Source: "a.txt", Text: "a"}}

	fused := fusePassagesRRF(semantic, lexical, 1000)
	if len(fused) != 2 {
		t.Fatalf("expected 2 fused passages, got %d", len(fused))
	}
	if fused[0].Source != "a.txt" {
		t.Fatalf("expected tie-break by source, got first=%s", fused[0].Source)
	}
}

func TestTrimPassages(t *testing.T) {
	in := []domain.Passage{{Text: "1"}, {Text: "2"}, {Text: "3"}}
	if got := trimPassages(in, 2); len(got) != 2 {
		t.Fatalf("expected 2 passages, got %d", len(got))
	}
	if got := trimPassages(in, 0); len(got) != 3 {
		t.Fatalf("expected untrimmed passages for limit 0, got %d", len(got))
	}
}
