package metrics

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kirillkom/compliance-reviewer/internal/core/domain"
)

type HTTPServerMetrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	reviewsTotal       *prometheus.CounterVec
	reviewDuration     *prometheus.HistogramVec
	reviewIssuesTotal  *prometheus.CounterVec
	retrievedPassages  *prometheus.HistogramVec
	intakeDocuments    *prometheus.CounterVec
	checklistMissing   *prometheus.HistogramVec
	referenceChunks    *prometheus.CounterVec
	referenceQuestions *prometheus.CounterVec
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "crv",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "crv",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "crv",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	reviewsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "crv",
			Subsystem: "review",
			Name:      "documents_total",
			Help:      "Total reviewed documents by status.",
		},
		[]string{"service", "mode", "status"},
	)
	reviewDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "crv",
			Subsystem: "review",
			Name:      "duration_seconds",
			Help:      "Review request duration in seconds.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120, 300},
		},
		[]string{"service", "mode"},
	)
	reviewIssuesTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "crv",
			Subsystem: "review",
			Name:      "issues_total",
			Help:      "Total reported issues by severity.",
		},
		[]string{"service", "severity"},
	)
	retrievedPassages := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "crv",
			Subsystem: "rag",
			Name:      "retrieved_passages",
			Help:      "Distribution of reference passages returned per answered question.",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 13},
		},
		[]string{"service", "endpoint"},
	)
	intakeDocuments := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "crv",
			Subsystem: "intake",
			Name:      "documents_total",
			Help:      "Total uploaded documents by classified category.",
		},
		[]string{"service", "category"},
	)
	checklistMissing := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "crv",
			Subsystem: "intake",
			Name:      "missing_documents",
			Help:      "Distribution of missing required documents per intake.",
			Buckets:   []float64{0, 1, 2, 3, 4, 5, 8},
		},
		[]string{"service", "process"},
	)
	referenceChunks := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "crv",
			Subsystem: "reference",
			Name:      "chunks_indexed_total",
			Help:      "Total reference chunks indexed.",
		},
		[]string{"service"},
	)
	referenceQuestions := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "crv",
			Subsystem: "reference",
			Name:      "questions_total",
			Help:      "Total answered reference questions by status.",
		},
		[]string{"service", "status"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		reviewsTotal,
		reviewDuration,
		reviewIssuesTotal,
		retrievedPassages,
		intakeDocuments,
		checklistMissing,
		referenceChunks,
		referenceQuestions,
	)

	return &HTTPServerMetrics{
		registry:           registry,
		requestTotal:       requestTotal,
		requestDuration:    requestDuration,
		requestInFlight:    requestInFlight,
		reviewsTotal:       reviewsTotal,
		reviewDuration:     reviewDuration,
		reviewIssuesTotal:  reviewIssuesTotal,
		retrievedPassages:  retrievedPassages,
		intakeDocuments:    intakeDocuments,
		checklistMissing:   checklistMissing,
		referenceChunks:    referenceChunks,
		referenceQuestions: referenceQuestions,
	}
}

func (m *HTTPServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *HTTPServerMetrics) Middleware(service string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		path := normalizePath(r.URL.Path)
		recorder := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		next.ServeHTTP(recorder, r)

		m.requestTotal.WithLabelValues(
			service,
			r.Method,
			path,
			strconv.Itoa(recorder.statusCode),
		).Inc()
		m.requestDuration.WithLabelValues(service, r.Method, path).Observe(time.Since(start).Seconds())
	})
}

func normalizePath(path string) string {
	switch {
	case strings.HasPrefix(path, "/v1/reviews/") && strings.HasSuffix(path, "/annotated"):
		return "/v1/reviews/{review_id}/annotated"
	case strings.HasPrefix(path, "/v1/reviews/"):
		return "/v1/reviews/{review_id}"
	default:
		return path
	}
}

// RecordReviews counts each result by status and its issues by severity.
func (m *HTTPServerMetrics) RecordReviews(service, mode string, results []domain.ReviewResult, duration time.Duration) {
	for _, r := range results {
		status := "success"
		if r.Failed() {
			status = "error"
		}
		m.reviewsTotal.WithLabelValues(service, mode, status).Inc()
		for _, issue := range r.Issues {
			m.reviewIssuesTotal.WithLabelValues(service, string(issue.Severity)).Inc()
		}
	}
	m.reviewDuration.WithLabelValues(service, mode).Observe(duration.Seconds())
}

func (m *HTTPServerMetrics) RecordReviewQueued(service string, count int) {
	if count <= 0 {
		return
	}
	m.reviewsTotal.WithLabelValues(service, "async", "queued").Add(float64(count))
}

func (m *HTTPServerMetrics) RecordIntake(service string, report *domain.IntakeReport) {
	if report == nil {
		return
	}
	for _, doc := range report.Documents {
		m.intakeDocuments.WithLabelValues(service, string(doc.Category)).Inc()
	}
	process := report.Process.Process
	if process == "" {
		process = "none"
	}
	m.checklistMissing.WithLabelValues(service, process).Observe(float64(len(report.Process.MissingDocuments)))
}

func (m *HTTPServerMetrics) RecordReferenceIngest(service string, chunks int) {
	if chunks <= 0 {
		return
	}
	m.referenceChunks.WithLabelValues(service).Add(float64(chunks))
}

func (m *HTTPServerMetrics) RecordReferenceQuestion(service string, sourceCount int, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.referenceQuestions.WithLabelValues(service, status).Inc()
	if err == nil {
		m.retrievedPassages.WithLabelValues(service, "reference_query").Observe(float64(sourceCount))
	}
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *statusRecorder) Flush() {
	flusher, ok := w.ResponseWriter.(http.Flusher)
	if ok {
		flusher.Flush()
	}
}

func (w *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not implement http.Hijacker")
	}
	return hijacker.Hijack()
}

func (w *statusRecorder) Push(target string, opts *http.PushOptions) error {
	pusher, ok := w.ResponseWriter.(http.Pusher)
	if !ok {
		return http.ErrNotSupported
	}
	return pusher.Push(target, opts)
}
