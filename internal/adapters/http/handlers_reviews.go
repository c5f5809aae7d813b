package httpadapter

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/compliance-reviewer/internal/core/domain"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type createReviewsRequest struct {
	DocumentIDs []string `json:"document_ids"`
	Async       bool     `json:"async"`
}

type queuedReview struct {
	ReviewID   string `json:"review_id"`
	DocumentID string `json:"document_id"`
}

// createReviews reviews stored documents one by one. A failed document
// yields a result with Error set and does not stop the others.
func (rt *Router) createReviews(w http.ResponseWriter, r *http.Request) {
	var req createReviewsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if len(req.DocumentIDs) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "document_ids is required"})
		return
	}

	jobs := make([]domain.ReviewJob, 0, len(req.DocumentIDs))
	for _, id := range req.DocumentIDs {
		doc, err := rt.deps.Documents.GetByID(r.Context(), id)
		if err != nil {
			writeError(w, err)
			return
		}
		jobs = append(jobs, domain.ReviewJob{
			ReviewID:     uuid.NewString(),
			DocumentID:   doc.ID,
			DocumentName: doc.Name,
			Path:         doc.Path,
			RequestedAt:  time.Now().UTC(),
		})
	}

	if req.Async {
		rt.enqueueReviews(w, r, jobs)
		return
	}

	start := time.Now()
	results := make([]domain.ReviewResult, 0, len(jobs))
	for _, job := range jobs {
		result, err := rt.deps.Jobs.Run(r.Context(), job)
		if result == nil {
			writeError(w, err)
			return
		}
		if domain.IsKind(err, domain.ErrRecordReview) {
			slog.Error("review_record_failed", "review_id", result.ID, "document_id", result.DocumentID, "error", err)
		}
		results = append(results, *result)
	}
	if rt.deps.Metrics != nil {
		rt.deps.Metrics.RecordReviews(serviceName, "sync", results, time.Since(start))
	}
	writeJSON(w, http.StatusOK, results)
}

func (rt *Router) enqueueReviews(w http.ResponseWriter, r *http.Request, jobs []domain.ReviewJob) {
	if rt.deps.Queue == nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "asynchronous reviews are not enabled"})
		return
	}

	queued := make([]queuedReview, 0, len(jobs))
	for _, job := range jobs {
		if err := rt.deps.Queue.PublishReviewRequested(r.Context(), job); err != nil {
			writeError(w, err)
			return
		}
		queued = append(queued, queuedReview{ReviewID: job.ReviewID, DocumentID: job.DocumentID})
	}
	if rt.deps.Metrics != nil {
		rt.deps.Metrics.RecordReviewQueued(serviceName, len(queued))
	}
	writeJSON(w, http.StatusAccepted, map[string]any{"queued": queued})
}

func (rt *Router) getReview(w http.ResponseWriter, r *http.Request) {
	result, err := rt.deps.Reviews.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (rt *Router) downloadAnnotated(w http.ResponseWriter, r *http.Request) {
	result, err := rt.deps.Reviews.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	if result.AnnotatedPath == "" {
		writeError(w, domain.WrapError(domain.ErrReviewNotFound, "download annotated", fmt.Errorf("review %s has no annotated copy", result.ID)))
		return
	}

	f, err := os.Open(result.AnnotatedPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			writeError(w, domain.WrapError(domain.ErrReviewNotFound, "download annotated", err))
			return
		}
		writeError(w, fmt.Errorf("open annotated copy: %w", err))
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		writeError(w, fmt.Errorf("stat annotated copy: %w", err))
		return
	}
	name := filepath.Base(result.AnnotatedPath)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	http.ServeContent(w, r, name, info.ModTime(), f)
}

func (rt *Router) createReport(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ReviewIDs []string `json:"review_ids"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if len(req.ReviewIDs) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "review_ids is required"})
		return
	}

	results := make([]domain.ReviewResult, 0, len(req.ReviewIDs))
	categories := make([]domain.Category, 0, len(req.ReviewIDs))
	for _, id := range req.ReviewIDs {
		result, err := rt.deps.Reviews.GetByID(r.Context(), id)
		if err != nil {
			writeError(w, err)
			return
		}
		results = append(results, *result)
		category := result.Category
		if category == "" {
			category = domain.CategoryUnknown
		}
		categories = append(categories, category)
	}
	process := rt.deps.Checklists.DetectProcess(categories)

	var buf bytes.Buffer
	if err := rt.deps.Reports.WriteReport(&buf, &process, results); err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="compliance_review.xlsx"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
