package domain

import (
	"errors"
	"fmt"
)

var (
	ErrExtraction        = errors.New("extraction failed")
	ErrRetrieval         = errors.New("retrieval failed")
	ErrLLM               = errors.New("llm completion failed")
	ErrParse             = errors.New("unparseable model output")
	ErrInvalidInput      = errors.New("invalid input")
	ErrUnsupportedFormat = errors.New("unsupported document format")
	ErrReviewNotFound    = errors.New("review not found")
	ErrDocumentNotFound  = errors.New("document not found")
	ErrTemporary         = errors.New("temporary failure")
	ErrRecordReview      = errors.New("review not recorded")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}
