package worker

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/syncodehq/syncode/internal/jobs"
	"github.com/syncodehq/syncode/internal/notifications"
	"github.com/syncodehq/syncode/internal/observability"
	"github.com/syncodehq/syncode/internal/queue/redisclient"
)

// Queue is what the worker needs from Redis.
type Queue interface {
	Enqueue(ctx context.Context, queue string, payload []byte) error
	Dequeue(ctx context.Context, queue string, timeout time.Duration) ([]byte, error)
}

type Config struct {
	Queue       string
	PollTimeout time.Duration
	WorkerID    string
}

// Worker drains the delivery queue: pop, decode, send through the
// protected notifier, re-enqueue with backoff on failure until the
// job's tries run out.
type Worker struct {
	cfg      Config
	queue    Queue
	notifier notifications.Notifier
	metrics  *observability.Prom
	log      *slog.Logger
}

func New(cfg Config, queue Queue, notifier notifications.Notifier, metrics *observability.Prom, log *slog.Logger) *Worker {
	if cfg.PollTimeout <= 0 {
		cfg.PollTimeout = 2 * time.Second
	}

	return &Worker{
		cfg:      cfg,
		queue:    queue,
		notifier: notifier,
		metrics:  metrics,
		log:      log,
	}
}

func (w *Worker) Run(ctx context.Context) error {
	w.log.Info("delivery worker started", "worker_id", w.cfg.WorkerID, "queue", w.cfg.Queue)

	for {
		if ctx.Err() != nil {
			w.log.Info("delivery worker received shutdown signal")
			return nil
		}

		b, err := w.queue.Dequeue(ctx, w.cfg.Queue, w.cfg.PollTimeout)

		if err != nil {
			if errors.Is(err, redisclient.ErrEmpty) {
				continue
			}

			if ctx.Err() != nil {
				return nil
			}

			w.log.Error("dequeue failed", "err", err)

			// brief pause so a down Redis doesn't spin the loop
			select {
			case <-time.After(time.Second):
			case <-ctx.Done():
				return nil
			}
			continue
		}

		j, err := jobs.DecodeJob(b)

		if err != nil {
			// Undecodable payloads can never succeed; drop them.
			w.log.Error("dropping undecodable job", "err", err)
			continue
		}

		w.processOne(ctx, j)
	}
}

func (w *Worker) processOne(ctx context.Context, j jobs.Job) {
	start := time.Now()

	err := w.execute(ctx, j)

	if err == nil {
		w.observe("done", time.Since(start))
		w.log.Info("job done", "job_id", j.ID, "type", j.Type, "attempts", j.Attempts)
		return
	}

	j.Attempts++
	msg := err.Error()
	j.LastError = &msg

	if j.Attempts >= j.MaxTries {
		w.observe("failed", time.Since(start))
		w.log.Error("job failed permanently", "job_id", j.ID, "type", j.Type, "attempts", j.Attempts, "err", err)
		return
	}

	w.observe("retry", time.Since(start))
	w.log.Warn("job failed, scheduling retry", "job_id", j.ID, "type", j.Type, "attempts", j.Attempts, "err", err)
	w.requeueAfter(ctx, j, ExponentialBackoff(j.Attempts))
}

func (w *Worker) execute(ctx context.Context, j jobs.Job) error {
	decoded, err := jobs.DecodePayload(j)

	if err != nil {
		return err
	}

	switch p := decoded.(type) {
	case jobs.SendPasswordResetPayload:
		return w.notifier.SendPasswordReset(ctx, notifications.SendPasswordResetInput{
			Email:    p.Email,
			Name:     p.Name,
			ResetURL: p.ResetURL,
		})
	default:
		return jobs.ErrInvalidJobType
	}
}

// requeueAfter pushes the job back on the queue once the backoff has
// elapsed. Runs inline: one stuck provider call at a time is exactly
// the throttle a retrying delivery queue wants.
func (w *Worker) requeueAfter(ctx context.Context, j jobs.Job, delay time.Duration) {
	select {
	case <-time.After(delay):
	case <-ctx.Done():
		// shutting down; push back immediately so the job survives
	}

	b, err := jobs.EncodeJob(j)

	if err != nil {
		w.log.Error("re-encode job failed", "job_id", j.ID, "err", err)
		return
	}

	// use a fresh context so shutdown doesn't lose the job
	enqCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := w.queue.Enqueue(enqCtx, w.cfg.Queue, b); err != nil {
		w.log.Error("requeue failed, job lost", "job_id", j.ID, "err", err)
	}
}

func (w *Worker) observe(result string, elapsed time.Duration) {
	if w.metrics == nil {
		return
	}

	w.metrics.DeliveryResults.WithLabelValues(result).Inc()
	w.metrics.DeliveryDuration.WithLabelValues(result).Observe(elapsed.Seconds())
}
