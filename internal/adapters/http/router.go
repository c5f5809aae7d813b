package httpadapter

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/kirillkom/compliance-reviewer/internal/config"
	"github.com/kirillkom/compliance-reviewer/internal/core/ports"
	"github.com/kirillkom/compliance-reviewer/internal/observability/metrics"
)

const (
	serviceName         = "api"
	maxUploadBytes      = 32 << 20
	backpressureTimeout = 250 * time.Millisecond
)

// Dependencies are the use cases and stores behind the HTTP surface. Queue
// may be nil, in which case asynchronous reviews are rejected. A nil Formats
// accepts every upload.
type Dependencies struct {
	Formats    ports.FormatChecker
	Uploads    ports.DocumentUploader
	Documents  ports.DocumentRepository
	Reviews    ports.ReviewRepository
	Intake     ports.DocumentIntake
	Classifier ports.DocumentClassifier
	Checklists ports.ProcessDetector
	Jobs       ports.ReviewJobRunner
	Queue      ports.ReviewQueue
	Reports    ports.ReportWriter
	Reference  ports.ReferenceIngestor
	QA         ports.ReferenceQA
	Metrics    *metrics.HTTPServerMetrics
}

type Router struct {
	deps Dependencies

	apiKey         string
	ragTopK        int
	rateLimitRPS   float64
	rateLimitBurst int
	maxInFlight    int
}

func NewRouter(cfg config.Config, deps Dependencies) *Router {
	return &Router{
		deps:           deps,
		apiKey:         cfg.APIKey,
		ragTopK:        cfg.RAGTopK,
		rateLimitRPS:   cfg.APIRateLimitRPS,
		rateLimitBurst: cfg.APIRateLimitBurst,
		maxInFlight:    cfg.APIMaxInFlight,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", rt.healthz)
	if rt.deps.Metrics != nil {
		mux.Handle("GET /metrics", rt.deps.Metrics.Handler())
	}
	mux.HandleFunc("POST /v1/documents", rt.uploadDocuments)
	mux.HandleFunc("POST /v1/classify", rt.classifyText)
	mux.HandleFunc("POST /v1/checklist", rt.detectProcess)
	mux.HandleFunc("POST /v1/reviews", rt.createReviews)
	mux.HandleFunc("GET /v1/reviews/{id}", rt.getReview)
	mux.HandleFunc("GET /v1/reviews/{id}/annotated", rt.downloadAnnotated)
	mux.HandleFunc("POST /v1/reports", rt.createReport)
	mux.HandleFunc("POST /v1/reference", rt.ingestReference)
	mux.HandleFunc("POST /v1/reference/query", rt.queryReference)

	var handler http.Handler = mux
	if router, err := loadOpenAPIRouter(); err != nil {
		slog.Error("openapi_validation_disabled", "error", err)
	} else {
		handler = openAPIValidationMiddleware(handler, router)
	}
	handler = apiKeyMiddleware(handler, rt.apiKey)
	handler = backpressureMiddleware(handler, rt.maxInFlight, backpressureTimeout)
	handler = rateLimitMiddleware(handler, rt.rateLimitRPS, rt.rateLimitBurst)
	if rt.deps.Metrics != nil {
		handler = rt.deps.Metrics.Middleware(serviceName, handler)
	}
	handler = accessLogMiddleware(handler)
	return requestIDMiddleware(handler)
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<20))
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid json: %w", err)
	}
	return nil
}
