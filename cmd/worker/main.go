// Worker runs the single-worker job execution loop described in
// internal/worker: it acquires one eligible job at a time directly
// against the store, executes it with a registered TaskHandler, and
// reports the outcome back. It also exposes its own /healthz and
// /metrics endpoints, separate from cmd/control-plane's job CRUD API.
//
// This binary is intended to be run as a standalone process.
package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vin-jex/job-orchestrator/internal/config"
	"github.com/vin-jex/job-orchestrator/internal/events"
	"github.com/vin-jex/job-orchestrator/internal/metrics"
	"github.com/vin-jex/job-orchestrator/internal/observability"
	"github.com/vin-jex/job-orchestrator/internal/store"
	"github.com/vin-jex/job-orchestrator/internal/tasks"
	"github.com/vin-jex/job-orchestrator/internal/worker"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Fatal("error loading .env file")
	}

	logger := observability.NewLogger("worker")

	cfg, err := config.LoadWorkerConfig()
	if err != nil {
		log.Fatalf("loading worker config: %v", err)
	}

	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer stop()

	storeLayer, err := store.NewStore(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal(err)
	}
	defer storeLayer.Close()

	bus := events.New(logger)
	registerEventLogging(bus, logger)

	metrics.Register(prometheus.DefaultRegisterer)
	metrics.Observe(bus)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	healthServer := &http.Server{Addr: cfg.HealthAddr, Handler: mux}
	go func() {
		if err := healthServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("health server stopped", "error", err)
		}
	}()

	w := worker.New(context.Background(), storeLayer, storeLayer.Pool(), tasks.DefaultRegistry(), bus, logger, worker.Options{
		WorkerID:               cfg.WorkerID,
		PollInterval:           cfg.PollInterval,
		MaxContiguousErrors:    cfg.MaxContiguousErrors,
		UseNodeTime:            cfg.UseNodeTime,
		MinResetLockedInterval: cfg.MinResetLockedInterval,
		MaxResetLockedInterval: cfg.MaxResetLockedInterval,
		Continuous:             true,
	})

	go runHeartbeat(ctx, storeLayer, w.ID(), logger)

	<-ctx.Done()
	logger.Info("shutdown signal received, releasing worker")

	releaseCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	select {
	case <-w.Release():
	case <-releaseCtx.Done():
		logger.Error("worker did not settle before shutdown timeout")
	}

	_ = healthServer.Shutdown(releaseCtx)

	if err := w.Err(); err != nil {
		logger.Error("worker stopped with an error", "error", err)
	}
}

func registerEventLogging(bus *events.Bus, logger *slog.Logger) {
	bus.On(events.WorkerCreate, func(ev events.Event) {
		logger.Info("worker started", "worker_id", ev.WorkerID)
	})
	bus.On(events.WorkerStop, func(ev events.Event) {
		logger.Info("worker stopped", "worker_id", ev.WorkerID)
	})
}

// runHeartbeat records operational liveness for workerID every 5 seconds
// until ctx is cancelled. Failures are logged, never fatal: the worker
// loop's correctness never depends on this table.
func runHeartbeat(ctx context.Context, storeLayer *store.Store, workerID string, logger *slog.Logger) {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := storeLayer.UpsertWorkerHeartbeat(ctx, workerID); err != nil {
				logger.Error("heartbeat failed", "worker_id", workerID, "error", err)
			}
		}
	}
}
