package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/flownco2789-ui/codeai/internal/models"
	"github.com/flownco2789-ui/codeai/pkg/jobs"
)

const drainJobType = "outbox.drain"

type outboxStore interface {
	ClaimNext(ctx context.Context, retryAfter func(attempts int) time.Duration, materialize func(models.OutboxEvent) ([]models.NotificationLogEntry, error)) (bool, error)
	CountPending(ctx context.Context) (int, error)
}

type entryResolver interface {
	EntriesFor(ctx context.Context, ev models.OutboxEvent) ([]models.NotificationLogEntry, error)
}

// Nudger is notified after a transaction commits outbox rows.
type Nudger interface {
	Nudge()
}

type noopNudger struct{}

func (noopNudger) Nudge() {}

// OutboxRelayConfig tunes the relay. Failed events are retried with
// exponential backoff from RetryDelay up to MaxBackoff and are never dropped;
// past MaxAttempts every further failure is logged as an error and counted as
// stalled.
type OutboxRelayConfig struct {
	Workers      int
	MaxAttempts  int
	RetryDelay   time.Duration
	MaxBackoff   time.Duration
	PollInterval time.Duration
	BatchSize    int
}

// OutboxRelay turns committed outbox rows into ledger entries. Drains run on
// a job queue, triggered by a ticker and by Nudge; row claiming skips locked
// rows so concurrent drains never dispatch the same event twice.
type OutboxRelay struct {
	store    outboxStore
	resolver entryResolver
	queue    *jobs.Queue
	cfg      OutboxRelayConfig
	metrics  *MetricsService
	logger   *zap.Logger

	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func NewOutboxRelay(store outboxStore, resolver entryResolver, cfg OutboxRelayConfig, metrics *MetricsService, logger *zap.Logger) *OutboxRelay {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 2 * time.Second
	}
	if cfg.MaxBackoff < cfg.RetryDelay {
		cfg.MaxBackoff = 10 * time.Minute
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 5 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &OutboxRelay{
		store:    store,
		resolver: resolver,
		cfg:      cfg,
		metrics:  metrics,
		logger:   logger.With(zap.String("component", "outbox_relay")),
		stop:     make(chan struct{}),
	}
	r.queue = jobs.NewQueue("notification-outbox", r.handle, jobs.QueueConfig{
		Workers:    cfg.Workers,
		BufferSize: cfg.Workers * 2,
		MaxRetries: cfg.MaxAttempts,
		RetryDelay: cfg.RetryDelay,
		Logger:     logger,
	})
	return r
}

// Start launches the workers and the poll ticker.
func (r *OutboxRelay) Start(ctx context.Context) {
	r.queue.Start(ctx)
	r.wg.Add(1)
	go r.poll(ctx)
	r.Nudge()
}

// Stop halts polling and waits for in-flight drains.
func (r *OutboxRelay) Stop() {
	r.stopOnce.Do(func() { close(r.stop) })
	r.wg.Wait()
	r.queue.Stop()
}

// Nudge schedules a drain. A full queue already holds one, so it is dropped.
func (r *OutboxRelay) Nudge() {
	if r == nil {
		return
	}
	err := r.queue.TryEnqueue(jobs.Job{ID: uuid.NewString(), Type: drainJobType})
	if err != nil && !errors.Is(err, jobs.ErrQueueFull) {
		r.logger.Debug("outbox nudge skipped", zap.Error(err))
	}
}

// Drain dispatches up to BatchSize events and stops at the first failure.
func (r *OutboxRelay) Drain(ctx context.Context) (int, error) {
	dispatched := 0
	defer r.refreshPending(ctx)
	for dispatched < r.cfg.BatchSize {
		if err := ctx.Err(); err != nil {
			return dispatched, err
		}
		found, err := r.store.ClaimNext(ctx, r.retryAfter, func(ev models.OutboxEvent) ([]models.NotificationLogEntry, error) {
			return r.materialize(ctx, ev)
		})
		if err != nil {
			r.metrics.RecordOutbox("failed")
			return dispatched, err
		}
		if !found {
			return dispatched, nil
		}
		dispatched++
		r.metrics.RecordOutbox("dispatched")
	}
	return dispatched, nil
}

func (r *OutboxRelay) materialize(ctx context.Context, ev models.OutboxEvent) ([]models.NotificationLogEntry, error) {
	entries, err := r.resolver.EntriesFor(ctx, ev)
	if err != nil && ev.Attempts+1 >= r.cfg.MaxAttempts {
		r.logger.Error("outbox event overdue",
			zap.String("event_id", ev.ID),
			zap.String("event_type", ev.EventType),
			zap.Int("attempts", ev.Attempts+1),
			zap.Error(err))
		r.metrics.RecordOutbox("stalled")
	}
	return entries, err
}

// retryAfter is the delay before attempt number attempts+1.
func (r *OutboxRelay) retryAfter(attempts int) time.Duration {
	d := r.cfg.RetryDelay
	for i := 1; i < attempts && d < r.cfg.MaxBackoff; i++ {
		d *= 2
	}
	if d > r.cfg.MaxBackoff {
		d = r.cfg.MaxBackoff
	}
	return d
}

func (r *OutboxRelay) handle(ctx context.Context, job jobs.Job) error {
	n, err := r.Drain(ctx)
	if err != nil {
		r.logger.Warn("outbox drain failed", zap.String("job_id", job.ID), zap.Int("dispatched", n), zap.Error(err))
		return err
	}
	if n > 0 {
		r.logger.Debug("outbox drained", zap.Int("dispatched", n))
	}
	if n == r.cfg.BatchSize {
		r.Nudge()
	}
	return nil
}

func (r *OutboxRelay) poll(ctx context.Context) {
	defer r.wg.Done()
	ticker := time.NewTicker(r.cfg.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-r.stop:
			return
		case <-ticker.C:
			r.Nudge()
		}
	}
}

func (r *OutboxRelay) refreshPending(ctx context.Context) {
	if r.metrics == nil {
		return
	}
	n, err := r.store.CountPending(ctx)
	if err != nil {
		return
	}
	r.metrics.SetOutboxPending(n)
}
