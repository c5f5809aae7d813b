package usecase

import (
	"context"
	"log/slog"

	"github.com/kirillkom/compliance-reviewer/internal/core/domain"
	"github.com/kirillkom/compliance-reviewer/internal/core/ports"
)

type IntakeUseCase struct {
	extractor  ports.TextExtractor
	classifier ports.DocumentClassifier
	checklists *ChecklistEngine
}

func NewIntakeUseCase(
	extractor ports.TextExtractor,
	classifier ports.DocumentClassifier,
	checklists *ChecklistEngine,
) *IntakeUseCase {
	return &IntakeUseCase{
		extractor:  extractor,
		classifier: classifier,
		checklists: checklists,
	}
}

// Intake classifies each document independently. A document whose text
// cannot be extracted is reported as Unknown with its error attached.
func (uc *IntakeUseCase) Intake(ctx context.Context, docs []domain.Document) *domain.IntakeReport {
	out := make([]domain.Document, 0, len(docs))
	categories := make([]domain.Category, 0, len(docs))

	for _, doc := range docs {
		if doc.Text == "" && doc.Path != "" {
			text, err := uc.extractor.Extract(ctx, doc.Path)
			if err != nil {
				err = wrapKindOnce(domain.ErrExtraction, "extract text", err)
				slog.Warn("intake_extraction_failed", "document", documentName(doc), "error", err)
				doc.Error = err.Error()
			}
			doc.Text = text
		}
		doc.Category = uc.classifier.Classify(doc.Text)
		out = append(out, doc)
		categories = append(categories, doc.Category)
	}

	return &domain.IntakeReport{
		Documents: out,
		Process:   uc.checklists.DetectProcess(categories),
	}
}
