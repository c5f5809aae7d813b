package usecase

import (
	"reflect"
	"testing"

	"github.com/kirillkom/compliance-reviewer/internal/core/domain"
)

func TestDetectProcessEmptyInput(t *testing.T) {
	engine := NewChecklistEngine(nil)
	got := engine.DetectProcess(nil)

	if got.Process != "Company Incorporation" {
		t.Fatalf("expected Company Incorporation, got %q", got.Process)
	}
	if got.DocumentsUploaded != 0 || got.MatchedDocuments != 0 {
		t.Fatalf("expected zero counts, got %+v", got)
	}
	want := domain.DefaultChecklists()[0].Required
	if !reflect.DeepEqual(got.MissingDocuments, want) {
		t.Fatalf("expected all required missing, got %v", got.MissingDocuments)
	}
	if got.RequiredDocuments != len(want) {
		t.Fatalf("expected required=%d, got %d", len(want), got.RequiredDocuments)
	}
}

func TestDetectProcessComplete(t *testing.T) {
	engine := NewChecklistEngine(nil)
	got := engine.DetectProcess([]domain.Category{
		domain.CategoryArticlesOfAssociation,
		domain.CategoryMemorandumOfAssociation,
		domain.CategoryBoardResolution,
		domain.CategoryUBODeclaration,
		domain.CategoryRegisterOfMembers,
	})
	if len(got.MissingDocuments) != 0 {
		t.Fatalf("expected no missing documents, got %v", got.MissingDocuments)
	}
	if !got.Complete() {
		t.Fatalf("expected complete result")
	}
	if got.DocumentsUploaded != 5 || got.MatchedDocuments != 5 {
		t.Fatalf("unexpected counts: %+v", got)
	}
}

func TestDetectProcessIgnoresDuplicatesAndUnknown(t *testing.T) {
	engine := NewChecklistEngine(nil)
	got := engine.DetectProcess([]domain.Category{
		domain.CategoryArticlesOfAssociation,
		domain.CategoryArticlesOfAssociation,
		domain.CategoryUnknown,
	})
	if got.DocumentsUploaded != 3 {
		t.Fatalf("expected 3 uploaded, got %d", got.DocumentsUploaded)
	}
	if got.MatchedDocuments != 1 {
		t.Fatalf("expected duplicates to count once, got %d", got.MatchedDocuments)
	}
	if len(got.MissingDocuments) != 4 {
		t.Fatalf("expected 4 missing, got %v", got.MissingDocuments)
	}
	if got.MissingDocuments[0] != domain.CategoryMemorandumOfAssociation {
		t.Fatalf("expected missing in required order, got %v", got.MissingDocuments)
	}
}

func TestDetectProcessPicksBestAndBreaksTiesByOrder(t *testing.T) {
	engine := NewChecklistEngine([]domain.ChecklistDefinition{
		{Process: "Alpha", Required: []domain.Category{domain.CategoryBoardResolution}},
		{Process: "Beta", Required: []domain.Category{domain.CategoryBoardResolution, domain.CategoryUBODeclaration}},
		{Process: "Gamma", Required: []domain.Category{domain.CategoryUBODeclaration, domain.CategoryBoardResolution}},
	})

	got := engine.DetectProcess([]domain.Category{domain.CategoryBoardResolution, domain.CategoryUBODeclaration})
	if got.Process != "Beta" {
		t.Fatalf("expected Beta (first with max count), got %q", got.Process)
	}

	got = engine.DetectProcess([]domain.Category{domain.CategoryBoardResolution})
	if got.Process != "Alpha" {
		t.Fatalf("expected Alpha on tie, got %q", got.Process)
	}

	got = engine.DetectProcess(nil)
	if got.Process != "Alpha" {
		t.Fatalf("expected first definition for empty input, got %q", got.Process)
	}
}

func TestDetectProcessWithoutDefinitions(t *testing.T) {
	engine := NewChecklistEngine([]domain.ChecklistDefinition{})
	got := engine.DetectProcess([]domain.Category{domain.CategoryBoardResolution})
	if got.Process != "" || got.DocumentsUploaded != 1 || len(got.MissingDocuments) != 0 {
		t.Fatalf("unexpected result without definitions: %+v", got)
	}
}
