package usecase

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/kirillkom/compliance-reviewer/internal/core/domain"
)

type extractorFake struct {
	texts map[string]string
	err   error
}

func (f *extractorFake) Extract(_ context.Context, path string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	text, ok := f.texts[path]
	if !ok {
		return "", errors.New("unreadable: " + path)
	}
	return text, nil
}

type retrieverFake struct {
	mu       sync.Mutex
	query    string
	k        int
	passages []domain.Passage
	err      error
}

func (f *retrieverFake) Retrieve(_ context.Context, query string, k int) ([]domain.Passage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.query = query
	f.k = k
	if f.err != nil {
		return nil, f.err
	}
	return f.passages, nil
}

type completerFake struct {
	mu      sync.Mutex
	prompts []string
	output  string
	err     error
}

func (f *completerFake) Complete(_ context.Context, prompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	return f.output, nil
}

type annotatorFake struct {
	mu      sync.Mutex
	sources []string
	outputs []string
	issues  [][]domain.Issue
	err     error
}

func (f *annotatorFake) Annotate(_ context.Context, sourcePath, outputPath string, issues []domain.Issue) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.sources = append(f.sources, sourcePath)
	f.outputs = append(f.outputs, outputPath)
	f.issues = append(f.issues, issues)
	return outputPath, nil
}

const reviewOutputWithIssue = `Here you go {"document_name":"aoa.docx","issues_found":[{"section":"Clause 3","issue":"Wrong court","severity":"High","suggestion":"Use ADGM courts","match_text":"UAE Federal Courts"}],"citations":["ADGM Companies Regulations 2020"]}`

func newReviewUseCaseForTest(ex *extractorFake, rt *retrieverFake, cp *completerFake, an *annotatorFake) *ReviewDocumentUseCase {
	return NewReviewDocumentUseCase(ex, rt, cp, an, ReviewOptions{OutputDir: "out"})
}

func TestReviewSuccess(t *testing.T) {
	ex := &extractorFake{texts: map[string]string{"in/aoa.docx": strings.Repeat("a", 1500)}}
	rt := &retrieverFake{passages: []domain.Passage{{Text: "ref one"}, {Text: "ref two"}}}
	cp := &completerFake{output: reviewOutputWithIssue}
	an := &annotatorFake{}
	uc := newReviewUseCaseForTest(ex, rt, cp, an)

	got, err := uc.Review(context.Background(), domain.Document{ID: "doc-1", Name: "aoa.docx", Path: "in/aoa.docx"})
	if err != nil {
		t.Fatalf("Review() error = %v", err)
	}
	if got.IssueCount != 1 || got.Issues[0].Severity != domain.SeverityHigh {
		t.Fatalf("unexpected issues: %+v", got.Issues)
	}
	if got.ID == "" || got.DocumentID != "doc-1" || got.Error != "" {
		t.Fatalf("unexpected identity fields: %+v", got)
	}
	if len(rt.query) != 1000 || rt.k != 3 {
		t.Fatalf("expected 1000-char query and k=3, got len=%d k=%d", len(rt.query), rt.k)
	}
	if !strings.Contains(cp.prompts[0], "ref one"+contextSeparator+"ref two") {
		t.Fatalf("expected retrieved passages in prompt")
	}
	if an.sources[0] != "in/aoa.docx" || !strings.HasSuffix(an.outputs[0], "reviewed_aoa.docx") {
		t.Fatalf("unexpected annotation paths: %v -> %v", an.sources, an.outputs)
	}
	if got.AnnotatedPath != an.outputs[0] {
		t.Fatalf("expected annotated path %q, got %q", an.outputs[0], got.AnnotatedPath)
	}
}

func TestReviewRecoversFromUnparseableOutput(t *testing.T) {
	ex := &extractorFake{texts: map[string]string{"in/mem.docx": "memorandum"}}
	an := &annotatorFake{}
	uc := newReviewUseCaseForTest(ex, &retrieverFake{}, &completerFake{output: "I cannot help with that."}, an)

	got, err := uc.Review(context.Background(), domain.Document{ID: "doc-2", Path: "in/mem.docx"})
	if err != nil {
		t.Fatalf("expected parse failure to be recovered, got %v", err)
	}
	if got.DocumentName != "mem.docx" || got.IssueCount != 0 || len(got.Citations) != 0 {
		t.Fatalf("expected empty default result, got %+v", got)
	}
	if got.Error != "" {
		t.Fatalf("parse failure must not surface as error, got %q", got.Error)
	}
	if len(an.sources) != 1 {
		t.Fatalf("expected annotated copy to still be produced")
	}
}

func TestReviewFailureKinds(t *testing.T) {
	cases := []struct {
		name string
		ex   *extractorFake
		rt   *retrieverFake
		cp   *completerFake
		kind error
	}{
		{"extraction", &extractorFake{err: errors.New("corrupt zip")}, &retrieverFake{}, &completerFake{}, domain.ErrExtraction},
		{"retrieval", &extractorFake{texts: map[string]string{"p": "t"}}, &retrieverFake{err: errors.New("index down")}, &completerFake{}, domain.ErrRetrieval},
		{"llm", &extractorFake{texts: map[string]string{"p": "t"}}, &retrieverFake{}, &completerFake{err: errors.New("timeout")}, domain.ErrLLM},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			an := &annotatorFake{}
			uc := newReviewUseCaseForTest(tc.ex, tc.rt, tc.cp, an)
			got, err := uc.Review(context.Background(), domain.Document{ID: "d", Name: "d.docx", Path: "p"})
			if !domain.IsKind(err, tc.kind) {
				t.Fatalf("expected kind %v, got %v", tc.kind, err)
			}
			if got == nil || got.IssueCount != 0 || got.Error == "" || got.DocumentName != "d.docx" {
				t.Fatalf("expected zero-issue result with error annotation, got %+v", got)
			}
			if len(an.sources) != 0 {
				t.Fatalf("expected no annotation on failed review")
			}
		})
	}
}

func TestReviewBatchIsolatesFailures(t *testing.T) {
	ex := &extractorFake{texts: map[string]string{"a": "article association", "c": "memorandum"}}
	uc := NewReviewDocumentUseCase(ex, &retrieverFake{}, &completerFake{output: reviewOutputWithIssue}, &annotatorFake{}, ReviewOptions{OutputDir: "out", Concurrency: 2})

	results := uc.ReviewBatch(context.Background(), []domain.Document{
		{ID: "1", Name: "a.docx", Path: "a"},
		{ID: "2", Name: "b.docx", Path: "b"},
		{ID: "3", Name: "c.docx", Path: "c"},
	})
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if results[0].DocumentID != "1" || results[1].DocumentID != "2" || results[2].DocumentID != "3" {
		t.Fatalf("expected input order, got %+v", results)
	}
	if results[0].Failed() || !results[1].Failed() || results[2].Failed() {
		t.Fatalf("expected only the second document to fail: %+v", results)
	}
	if results[2].IssueCount != 1 {
		t.Fatalf("expected later documents to be reviewed normally")
	}
}

func TestReviewBatchKeepsSameNamedOutputsApart(t *testing.T) {
	ex := &extractorFake{texts: map[string]string{
		"uploads/1/aoa.txt": "UAE Federal Courts shall have jurisdiction",
		"uploads/2/aoa.txt": "unrelated text",
	}}
	an := &annotatorFake{}
	uc := NewReviewDocumentUseCase(ex, &retrieverFake{}, &completerFake{output: reviewOutputWithIssue}, an, ReviewOptions{OutputDir: "out", Concurrency: 2})

	results := uc.ReviewBatch(context.Background(), []domain.Document{
		{ID: "1", Name: "aoa.txt", Path: "uploads/1/aoa.txt"},
		{ID: "2", Name: "aoa.txt", Path: "uploads/2/aoa.txt"},
	})
	if results[0].AnnotatedPath == "" || results[0].AnnotatedPath == results[1].AnnotatedPath {
		t.Fatalf("expected distinct annotated paths, got %q and %q", results[0].AnnotatedPath, results[1].AnnotatedPath)
	}
	for _, r := range results {
		want := filepath.Join("out", r.ID, "reviewed_aoa.txt")
		if r.AnnotatedPath != want {
			t.Fatalf("expected annotated copy under review id %q, got %q", want, r.AnnotatedPath)
		}
	}
	if len(an.outputs) != 2 || an.outputs[0] == an.outputs[1] {
		t.Fatalf("expected two distinct annotator targets, got %v", an.outputs)
	}
}
