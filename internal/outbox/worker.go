package outbox

import (
	"context"
	"time"

	"go.uber.org/zap"

	"guardhouse/pkg/platform/tx"
	"guardhouse/pkg/requestcontext"
)

const (
	DefaultInterval    = time.Second
	DefaultBatchSize   = 50
	DefaultMaxAttempts = 5
)

// Worker relays pending entries on a ticker. Each batch is claimed, published
// and marked inside one transaction; entries that keep failing are parked
// once they reach the attempt limit.
type Worker struct {
	store       Store
	publisher   Publisher
	tx          tx.Runner
	logger      *zap.Logger
	metrics     *Metrics
	interval    time.Duration
	batchSize   int
	maxAttempts int
}

type WorkerOption func(*Worker)

func WithLogger(logger *zap.Logger) WorkerOption {
	return func(w *Worker) {
		if logger != nil {
			w.logger = logger
		}
	}
}

func WithMetrics(m *Metrics) WorkerOption {
	return func(w *Worker) {
		w.metrics = m
	}
}

func WithInterval(d time.Duration) WorkerOption {
	return func(w *Worker) {
		if d > 0 {
			w.interval = d
		}
	}
}

func WithBatchSize(n int) WorkerOption {
	return func(w *Worker) {
		if n > 0 {
			w.batchSize = n
		}
	}
}

func WithMaxAttempts(n int) WorkerOption {
	return func(w *Worker) {
		if n > 0 {
			w.maxAttempts = n
		}
	}
}

func NewWorker(store Store, publisher Publisher, runner tx.Runner, opts ...WorkerOption) *Worker {
	w := &Worker{
		store:       store,
		publisher:   publisher,
		tx:          runner,
		logger:      zap.NewNop(),
		interval:    DefaultInterval,
		batchSize:   DefaultBatchSize,
		maxAttempts: DefaultMaxAttempts,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run polls until ctx is cancelled. It returns nil on cancellation.
func (w *Worker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := w.ProcessBatch(ctx); err != nil {
				w.logger.Warn("outbox batch failed", zap.Error(err))
			}
		}
	}
}

// ProcessBatch relays one batch and reports how many entries were published.
func (w *Worker) ProcessBatch(ctx context.Context) (int, error) {
	published := 0
	err := w.tx.RunInTx(ctx, func(txCtx context.Context) error {
		published = 0
		entries, err := w.store.ClaimBatch(txCtx, w.batchSize, w.maxAttempts)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			return nil
		}
		if w.metrics != nil {
			w.metrics.Batches.Inc()
		}
		for _, e := range entries {
			if err := w.publisher.Publish(txCtx, e); err != nil {
				w.fail(txCtx, e, err)
				continue
			}
			if err := w.store.MarkProcessed(txCtx, e.ID, requestcontext.Now(txCtx)); err != nil {
				return err
			}
			published++
			if w.metrics != nil {
				w.metrics.Published.Inc()
			}
		}
		return nil
	})
	return published, err
}

func (w *Worker) fail(ctx context.Context, e *Entry, cause error) {
	if w.metrics != nil {
		w.metrics.Failed.Inc()
	}
	fields := []zap.Field{
		zap.Error(cause),
		zap.String("id", e.ID.String()),
		zap.String("event_type", e.EventType),
		zap.Int("attempt", e.Attempts+1),
	}
	if e.Attempts+1 >= w.maxAttempts {
		w.logger.Error("outbox entry parked after final attempt", fields...)
	} else {
		w.logger.Warn("outbox publish failed", fields...)
	}
	if err := w.store.MarkFailed(ctx, e.ID, cause.Error()); err != nil {
		w.logger.Error("failed to record outbox failure", zap.Error(err), zap.String("id", e.ID.String()))
	}
}
