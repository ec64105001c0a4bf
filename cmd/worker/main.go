package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shahabnazari/blackqm-theme-engine/internal/bootstrap"
	"github.com/shahabnazari/blackqm-theme-engine/internal/config"
	"github.com/shahabnazari/blackqm-theme-engine/internal/observability/logging"
	"github.com/shahabnazari/blackqm-theme-engine/internal/observability/metrics"
)

const service = "worker"

func main() {
	cfg := config.Load()
	slog.SetDefault(logging.NewJSONLogger(service, cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	workerMetrics := metrics.NewWorkerMetrics(service)
	metricsServer := &http.Server{
		Addr:    ":" + cfg.WorkerMetricsPort,
		Handler: workerMetrics.Handler(),
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("worker_metrics_server_error", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	slog.Info("worker_subscribed", "subject", cfg.NATSRunSubject)
	err = app.Queue.SubscribeRunQueued(ctx, func(handlerCtx context.Context, runID string) error {
		processCtx, cancel := context.WithTimeout(handlerCtx, 30*time.Minute)
		defer cancel()

		if run, err := app.Repo.GetRun(processCtx, runID); err == nil {
			workerMetrics.ObserveQueueLag(service, time.Since(run.CreatedAt))
		}

		workerMetrics.StartRun()
		start := time.Now()
		processErr := app.ProcessUC.ProcessByID(processCtx, runID)
		workerMetrics.FinishRun(service, time.Since(start), processErr)

		if processErr == nil {
			if result, err := app.Repo.GetResult(processCtx, runID); err == nil {
				workerMetrics.RecordThemes(service, len(result.Themes))
				workerMetrics.RecordPipelineCounts(
					service,
					result.Stats.SourcesProcessed,
					result.Stats.SourcesFailed,
					result.Stats.CodesEmbedded,
					result.Stats.CodesSkipped,
				)
				workerMetrics.RecordCacheLookups(service, result.Stats.CacheHits, result.Stats.CacheMisses)
			}
		}
		return processErr
	})
	if err != nil {
		log.Fatalf("worker subscribe error: %v", err)
	}
}
