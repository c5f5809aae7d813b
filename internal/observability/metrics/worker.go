package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kirillkom/compliance-reviewer/internal/core/domain"
)

type WorkerMetrics struct {
	registry *prometheus.Registry

	jobTotal    *prometheus.CounterVec
	jobDuration *prometheus.HistogramVec
	jobInFlight prometheus.Gauge
	jobIssues   *prometheus.CounterVec
	queueLag    *prometheus.HistogramVec
}

func NewWorkerMetrics(service string) *WorkerMetrics {
	registry := prometheus.NewRegistry()

	jobTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "crv",
			Subsystem: "worker",
			Name:      "review_jobs_total",
			Help:      "Total processed review jobs by status.",
		},
		[]string{"service", "status"},
	)
	jobDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "crv",
			Subsystem: "worker",
			Name:      "review_job_duration_seconds",
			Help:      "Review job duration in seconds by status.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120, 300},
		},
		[]string{"service", "status"},
	)
	jobInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "crv",
			Subsystem: "worker",
			Name:      "review_jobs_in_flight",
			Help:      "Number of in-flight review jobs.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	jobIssues := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "crv",
			Subsystem: "worker",
			Name:      "review_issues_total",
			Help:      "Total issues reported by worker reviews by severity.",
		},
		[]string{"service", "severity"},
	)
	queueLag := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "crv",
			Subsystem: "worker",
			Name:      "queue_lag_seconds",
			Help:      "Delay between review request and processing start.",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300, 600},
		},
		[]string{"service"},
	)

	registry.MustRegister(jobTotal, jobDuration, jobInFlight, jobIssues, queueLag)

	return &WorkerMetrics{
		registry:    registry,
		jobTotal:    jobTotal,
		jobDuration: jobDuration,
		jobInFlight: jobInFlight,
		jobIssues:   jobIssues,
		queueLag:    queueLag,
	}
}

func (m *WorkerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *WorkerMetrics) StartJob() {
	m.jobInFlight.Inc()
}

// FinishJob treats a result with a non-empty Error as failed even when the
// recorders succeeded.
func (m *WorkerMetrics) FinishJob(service string, duration time.Duration, result *domain.ReviewResult, err error) {
	m.jobInFlight.Dec()

	status := "success"
	if err != nil || result.Failed() {
		status = "error"
	}

	m.jobTotal.WithLabelValues(service, status).Inc()
	m.jobDuration.WithLabelValues(service, status).Observe(duration.Seconds())
	if result == nil {
		return
	}
	for _, issue := range result.Issues {
		m.jobIssues.WithLabelValues(service, string(issue.Severity)).Inc()
	}
}

func (m *WorkerMetrics) ObserveQueueLag(service string, lag time.Duration) {
	if lag < 0 {
		return
	}
	m.queueLag.WithLabelValues(service).Observe(lag.Seconds())
}
