package httpadapter

import (
	"net/http"
	"strings"
)

func (rt *Router) ingestReference(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "multipart field 'file' is required"})
		return
	}
	defer func() {
		_ = r.MultipartForm.RemoveAll()
	}()

	files := r.MultipartForm.File["file"]
	if len(files) != 1 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "exactly one 'file' part is required"})
		return
	}

	if err := rt.checkFormats(files); err != nil {
		writeError(w, err)
		return
	}
	doc, err := rt.storeUpload(r, "reference", files[0])
	if err != nil {
		writeError(w, err)
		return
	}
	chunks, err := rt.deps.Reference.Ingest(r.Context(), doc.Path)
	if err != nil {
		writeError(w, err)
		return
	}
	if rt.deps.Metrics != nil {
		rt.deps.Metrics.RecordReferenceIngest(serviceName, chunks)
	}
	writeJSON(w, http.StatusOK, map[string]any{"source": doc.Name, "chunks": chunks})
}

func (rt *Router) queryReference(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Question string `json:"question"`
		Limit    int    `json:"limit"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "question is required"})
		return
	}
	if req.Limit <= 0 {
		req.Limit = rt.ragTopK
	}

	answer, err := rt.deps.QA.Ask(r.Context(), req.Question, req.Limit)
	if rt.deps.Metrics != nil {
		sources := 0
		if answer != nil {
			sources = len(answer.Sources)
		}
		rt.deps.Metrics.RecordReferenceQuestion(serviceName, sources, err)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, answer)
}
