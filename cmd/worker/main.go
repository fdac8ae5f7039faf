package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/ramay1243/docscan/internal/bootstrap"
	"github.com/ramay1243/docscan/internal/config"
	"github.com/ramay1243/docscan/internal/observability/logging"
	"github.com/ramay1243/docscan/internal/observability/metrics"
)

const serviceName = "worker"

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config error", "error", err)
		os.Exit(1)
	}
	logger := logging.New(serviceName, cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("bootstrap error", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	workerMetrics := metrics.NewWorkerMetrics(serviceName)
	go serveMetrics(cfg.WorkerMetricsPort, workerMetrics, logger)

	concurrency := cfg.WorkerConcurrency
	if concurrency < 1 {
		concurrency = 1
	}
	taskTimeout := time.Duration(cfg.TaskTimeoutSeconds) * time.Second

	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup

	logger.Info("worker subscribed", "subject", cfg.NATSSubject, "concurrency", concurrency)
	err = app.Queue.SubscribeTaskCreated(ctx, func(handlerCtx context.Context, taskID string) error {
		select {
		case sem <- struct{}{}:
		case <-handlerCtx.Done():
			return handlerCtx.Err()
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			runTask(handlerCtx, app, workerMetrics, logger, taskID, taskTimeout)
		}()
		return nil
	})
	if err != nil {
		logger.Error("worker subscribe error", "error", err)
	}

	// Drain returned; wait for in-flight tasks before exiting.
	wg.Wait()
}

func runTask(ctx context.Context, app *bootstrap.App, m *metrics.WorkerMetrics, logger *slog.Logger, taskID string, timeout time.Duration) {
	taskCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if task, err := app.Repo.GetTask(taskCtx, taskID); err == nil {
		m.ObserveQueueLag(serviceName, time.Since(task.CreatedAt))
	}

	m.StartTask()
	start := time.Now()
	err := app.Process.ProcessTask(taskCtx, taskID)
	m.FinishTask(serviceName, time.Since(start), err)

	// Per-file counters come from the persisted progress, which is written
	// even for tasks that end in failure.
	if task, repoErr := app.Repo.GetTask(context.WithoutCancel(taskCtx), taskID); repoErr == nil {
		m.RecordFiles(serviceName, task.ProcessedFiles, task.FailedFiles)
	}

	if err != nil {
		logger.Error("task failed", "task_id", taskID, "error", err)
		return
	}
	logger.Info("task done", "task_id", taskID, "duration_ms", time.Since(start).Milliseconds())
}

func serveMetrics(port string, m *metrics.WorkerMetrics, logger *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	server := &http.Server{Addr: ":" + port, Handler: mux, ReadTimeout: 10 * time.Second}
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("metrics server error", "error", err)
	}
}
