package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/syncodehq/syncode/internal/config"
	"github.com/syncodehq/syncode/internal/notifications"
	"github.com/syncodehq/syncode/internal/observability"
	"github.com/syncodehq/syncode/internal/queue"
	"github.com/syncodehq/syncode/internal/queue/redisclient"
	queueworker "github.com/syncodehq/syncode/internal/queue/worker"
	"github.com/syncodehq/syncode/internal/worker"
)

const healthAddr = ":8081"

func main() {
	cfg := config.Load()

	log := observability.NewLogger(cfg.Env)

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)

	defer stop()

	rdb := redisclient.New(redisclient.Config{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	defer rdb.Close()

	{
		pingCtx, cancel := config.WithTimeout(2 * time.Second)
		defer cancel()

		if err := rdb.Ping(pingCtx); err != nil {
			log.Error("redis connect failed", "err", err)
			os.Exit(1)
		}
	}

	notifier := notifications.NewProtectedNotifier(
		notifications.NewLogNotifier(log),
		notifications.ProtectedNotifierConfig{},
	)

	reg := prometheus.NewRegistry()
	metrics := observability.NewProm(reg)

	// health/readiness sidecar for the orchestrator probes
	var draining atomic.Bool

	mux := http.NewServeMux()
	mux.Handle("/healthz", worker.HealthHandler())
	mux.Handle("/readyz", worker.ReadyHandler(rdb, draining.Load))
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	healthSrv := &http.Server{
		Addr:              healthAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := healthSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("health server failed", "err", err)
		}
	}()

	host, _ := os.Hostname()
	workerID := host + "-" + strconv.Itoa(os.Getpid())

	w := queueworker.New(queueworker.Config{
		Queue:       queue.EmailQueue,
		PollTimeout: 2 * time.Second,
		WorkerID:    workerID,
	}, rdb, notifier, metrics, log)

	log.Info("worker has started", "worker_id", workerID)

	if err := w.Run(ctx); err != nil {
		log.Error("worker stopped with error", "err", err)
	}

	draining.Store(true)

	shutdownCtx, cancel := config.WithTimeout(5 * time.Second)
	defer cancel()

	if err := healthSrv.Shutdown(shutdownCtx); err != nil {
		log.Error("health server shutdown failed", "err", err)
	}

	log.Info("worker shutdown complete")
}
