package httpadapter

import (
	"errors"
	"net/http"
	"testing"

	"github.com/kirillkom/compliance-reviewer/internal/core/domain"
)

func TestMapErrorToHTTPStatus(t *testing.T) {
	cause := errors.New("boom")
	cases := []struct {
		kind error
		want int
	}{
		{domain.ErrInvalidInput, http.StatusBadRequest},
		{domain.ErrUnsupportedFormat, http.StatusBadRequest},
		{domain.ErrReviewNotFound, http.StatusNotFound},
		{domain.ErrDocumentNotFound, http.StatusNotFound},
		{domain.ErrExtraction, http.StatusUnprocessableEntity},
		{domain.ErrRetrieval, http.StatusServiceUnavailable},
		{domain.ErrLLM, http.StatusServiceUnavailable},
		{domain.ErrTemporary, http.StatusServiceUnavailable},
		{domain.ErrRecordReview, http.StatusServiceUnavailable},
	}
	for _, tc := range cases {
		if got := mapErrorToHTTPStatus(domain.WrapError(tc.kind, "op", cause)); got != tc.want {
			t.Fatalf("%v: expected %d, got %d", tc.kind, tc.want, got)
		}
	}
	if got := mapErrorToHTTPStatus(cause); got != http.StatusInternalServerError {
		t.Fatalf("expected 500 for unkinded error, got %d", got)
	}
}
