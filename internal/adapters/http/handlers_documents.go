package httpadapter

import (
	"fmt"
	"mime/multipart"
	"net/http"

	"github.com/kirillkom/compliance-reviewer/internal/core/domain"
)

// uploadDocuments stores every "file" part, classifies the set and
// returns checklist status. Documents are persisted for later review.
func (rt *Router) uploadDocuments(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "multipart form with 'file' parts is required"})
		return
	}
	defer func() {
		_ = r.MultipartForm.RemoveAll()
	}()

	files := r.MultipartForm.File["file"]
	if len(files) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "multipart field 'file' is required"})
		return
	}

	if err := rt.checkFormats(files); err != nil {
		writeError(w, err)
		return
	}

	docs := make([]domain.Document, 0, len(files))
	for _, fh := range files {
		doc, err := rt.storeUpload(r, "documents", fh)
		if err != nil {
			writeError(w, err)
			return
		}
		docs = append(docs, doc)
	}

	report := rt.deps.Intake.Intake(r.Context(), docs)
	for i := range report.Documents {
		if err := rt.deps.Documents.Create(r.Context(), &report.Documents[i]); err != nil {
			writeError(w, err)
			return
		}
	}
	if rt.deps.Metrics != nil {
		rt.deps.Metrics.RecordIntake(serviceName, report)
	}
	writeJSON(w, http.StatusOK, report)
}

// checkFormats rejects the whole request before anything is stored.
func (rt *Router) checkFormats(files []*multipart.FileHeader) error {
	if rt.deps.Formats == nil {
		return nil
	}
	for _, fh := range files {
		if !rt.deps.Formats.Supports(fh.Filename) {
			return domain.WrapError(domain.ErrUnsupportedFormat, "upload document", fmt.Errorf("unsupported file %q", fh.Filename))
		}
	}
	return nil
}

func (rt *Router) storeUpload(r *http.Request, prefix string, fh *multipart.FileHeader) (domain.Document, error) {
	file, err := fh.Open()
	if err != nil {
		return domain.Document{}, fmt.Errorf("open upload %s: %w", fh.Filename, err)
	}
	defer file.Close()

	doc, err := rt.deps.Uploads.Store(r.Context(), prefix, fh.Filename, file)
	if err != nil {
		return domain.Document{}, err
	}
	return *doc, nil
}

func (rt *Router) classifyText(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"category": string(rt.deps.Classifier.Classify(req.Text))})
}

// detectProcess maps unrecognised category names to Unknown, which counts
// toward no checklist.
func (rt *Router) detectProcess(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Categories []string `json:"categories"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	categories := make([]domain.Category, 0, len(req.Categories))
	for _, name := range req.Categories {
		category, _ := domain.ParseCategory(name)
		categories = append(categories, category)
	}
	writeJSON(w, http.StatusOK, rt.deps.Checklists.DetectProcess(categories))
}
