package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/kirillkom/compliance-reviewer/internal/core/domain"
	"github.com/kirillkom/compliance-reviewer/internal/core/ports"
)

type ReviewJobUseCase struct {
	reviewer   ports.DocumentReviewer
	classifier ports.DocumentClassifier
	extractor  ports.TextExtractor
	recorders  []ports.ReviewRecorder
}

func NewReviewJobUseCase(
	reviewer ports.DocumentReviewer,
	classifier ports.DocumentClassifier,
	extractor ports.TextExtractor,
	recorders ...ports.ReviewRecorder,
) *ReviewJobUseCase {
	return &ReviewJobUseCase{
		reviewer:   reviewer,
		classifier: classifier,
		extractor:  extractor,
		recorders:  recorders,
	}
}

// Run reviews the job's document and hands the result, failed or not, to
// every recorder. The review error is returned after recording.
func (uc *ReviewJobUseCase) Run(ctx context.Context, job domain.ReviewJob) (*domain.ReviewResult, error) {
	doc := domain.Document{
		ID:   job.DocumentID,
		Name: job.DocumentName,
		Path: job.Path,
	}
	if text, err := uc.extractor.Extract(ctx, job.Path); err == nil {
		doc.Text = text
		doc.Category = uc.classifier.Classify(text)
	}

	result, reviewErr := uc.reviewer.Review(ctx, doc)
	if job.ReviewID != "" {
		result.ID = job.ReviewID
	}

	var recordErrs []error
	for _, recorder := range uc.recorders {
		if err := recorder.RecordReview(ctx, result); err != nil {
			recordErrs = append(recordErrs, err)
		}
	}
	if err := errors.Join(recordErrs...); err != nil {
		recordErr := domain.WrapError(domain.ErrRecordReview, "record review", err)
		if reviewErr != nil {
			return result, fmt.Errorf("%w; %w", reviewErr, recordErr)
		}
		return result, recordErr
	}
	return result, reviewErr
}
