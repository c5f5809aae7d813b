package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kirillkom/compliance-reviewer/internal/bootstrap"
	"github.com/kirillkom/compliance-reviewer/internal/config"
	"github.com/kirillkom/compliance-reviewer/internal/core/domain"
	"github.com/kirillkom/compliance-reviewer/internal/observability/logging"
	"github.com/kirillkom/compliance-reviewer/internal/observability/metrics"
)

const (
	serviceName   = "worker"
	reviewTimeout = 5 * time.Minute
)

func main() {
	cfg := config.Load()
	slog.SetDefault(logging.NewJSONLogger(serviceName, cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		slog.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	workerMetrics := metrics.NewWorkerMetrics(serviceName)
	metricsServer := &http.Server{
		Addr:              ":" + cfg.WorkerMetricsPort,
		Handler:           workerMetrics.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("worker_metrics_server_failed", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	slog.Info("worker_subscribed", "subject", cfg.NATSSubject, "metrics_port", cfg.WorkerMetricsPort)
	err = app.Queue.SubscribeReviewRequested(ctx, func(handlerCtx context.Context, job domain.ReviewJob) error {
		if !job.RequestedAt.IsZero() {
			workerMetrics.ObserveQueueLag(serviceName, time.Since(job.RequestedAt))
		}

		reviewCtx, cancel := context.WithTimeout(handlerCtx, reviewTimeout)
		defer cancel()

		start := time.Now()
		workerMetrics.StartJob()
		result, err := app.Jobs.Run(reviewCtx, job)
		workerMetrics.FinishJob(serviceName, time.Since(start), result, err)
		return err
	})
	if err != nil {
		slog.Error("worker_subscribe_failed", "error", err)
		os.Exit(1)
	}
}
