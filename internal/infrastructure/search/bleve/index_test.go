package bleve

import (
	"context"
	"path/filepath"
	"testing"
)

func TestRetrieveRanksMatchingPassage(t *testing.T) {
	idx, err := Open("")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer idx.Close()

	passages := []string{
		"Every company shall maintain a register of members.",
		"Disputes shall be referred to the ADGM Courts.",
		"Annual accounts must be filed within nine months.",
	}
	if err := idx.IndexPassages(context.Background(), "companies_regulations.pdf", passages); err != nil {
		t.Fatalf("index: %v", err)
	}

	got, err := idx.Retrieve(context.Background(), "which courts handle disputes", 2)
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	if len(got) == 0 {
		t.Fatalf("expected at least one passage")
	}
	if got[0].Text != passages[1] || got[0].Source != "companies_regulations.pdf" {
		t.Fatalf("unexpected top passage %+v", got[0])
	}
	if len(got) > 2 {
		t.Fatalf("expected at most 2 passages, got %d", len(got))
	}
}

func TestRetrieveEmptyQuery(t *testing.T) {
	idx, err := Open("")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer idx.Close()

	got, err := idx.Retrieve(context.Background(), "   ", 3)
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no passages, got %v", got)
	}
}

func TestOpenPersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reference.bleve")

	idx, err := Open(path)
	if err != nil {
		t.Fatalf("open new: %v", err)
	}
	if err := idx.IndexPassages(context.Background(), "guide.txt", []string{"beneficial ownership declaration"}); err != nil {
		t.Fatalf("index: %v", err)
	}
	if err := idx.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	got, err := reopened.Retrieve(context.Background(), "beneficial ownership", 3)
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected persisted passage, got %v", got)
	}
}
