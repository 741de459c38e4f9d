// Package dispatch delivers the side effects of committed writes: notification
// events for the owner and the administrators, and a best-effort push. Nothing
// here can fail the write that produced the intent.
package dispatch

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"guardhouse/internal/dispatch/push"
	"guardhouse/internal/notification/models"
)

const (
	DefaultTimeout     = 5 * time.Second
	DefaultMaxInFlight = 64
)

type Recorder interface {
	Record(ctx context.Context, scope models.Scope, eventType models.Type, message string) (*models.Event, error)
}

type Pusher interface {
	Send(ctx context.Context, msg push.Message) (*push.Receipt, error)
}

type Dispatcher struct {
	recorder Recorder
	pusher   Pusher
	logger   *zap.Logger
	metrics  *Metrics
	timeout  time.Duration
	sem      *semaphore.Weighted

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

type Option func(*Dispatcher)

func WithLogger(logger *zap.Logger) Option {
	return func(d *Dispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

func WithMetrics(m *Metrics) Option {
	return func(d *Dispatcher) {
		d.metrics = m
	}
}

// WithTimeout bounds one delivery, events and push together.
func WithTimeout(timeout time.Duration) Option {
	return func(d *Dispatcher) {
		if timeout > 0 {
			d.timeout = timeout
		}
	}
}

// WithMaxInFlight caps concurrent deliveries. Intents beyond the cap are dropped.
func WithMaxInFlight(n int64) Option {
	return func(d *Dispatcher) {
		if n > 0 {
			d.sem = semaphore.NewWeighted(n)
		}
	}
}

// New builds a dispatcher. pusher may be nil, in which case pushes are skipped.
func New(recorder Recorder, pusher Pusher, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		recorder: recorder,
		pusher:   pusher,
		logger:   zap.NewNop(),
		timeout:  DefaultTimeout,
		sem:      semaphore.NewWeighted(DefaultMaxInFlight),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch schedules delivery of intent and returns immediately. The caller's
// cancellation does not reach the delivery; its values (request id) do.
func (d *Dispatcher) Dispatch(ctx context.Context, intent Intent) {
	d.mu.Lock()
	if d.closed || !d.sem.TryAcquire(1) {
		closed := d.closed
		d.mu.Unlock()
		d.logger.Warn("dispatch intent dropped",
			zap.String("kind", string(intent.Kind)),
			zap.Int64("owner_id", int64(intent.OwnerID)),
			zap.Bool("closed", closed),
		)
		if d.metrics != nil {
			d.metrics.Dropped.Inc()
		}
		return
	}
	d.wg.Add(1)
	d.mu.Unlock()

	if d.metrics != nil {
		d.metrics.Intents.WithLabelValues(string(intent.Kind)).Inc()
	}
	go func() {
		defer d.wg.Done()
		defer d.sem.Release(1)
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout)
		defer cancel()
		d.Deliver(ctx, intent)
	}()
}

// Deliver performs the side effects of intent synchronously. Failures are
// logged and counted, never returned.
func (d *Dispatcher) Deliver(ctx context.Context, intent Intent) {
	notes, pn := plan(intent)
	if notes == nil && pn == nil {
		d.logger.Error("unknown dispatch kind", zap.String("kind", string(intent.Kind)))
		return
	}
	for _, n := range notes {
		if _, err := d.recorder.Record(ctx, n.scope, n.eventType, n.message); err != nil {
			d.logger.Error("failed to record notification",
				zap.Error(err),
				zap.String("kind", string(intent.Kind)),
				zap.String("scope", n.scope.String()),
			)
			d.countEvent("failed")
			continue
		}
		d.countEvent("recorded")
	}
	if pn != nil {
		d.push(ctx, intent, pn)
	}
}

func (d *Dispatcher) push(ctx context.Context, intent Intent, pn *pushNote) {
	if d.pusher == nil {
		d.countPush("skipped")
		return
	}
	receipt, err := d.pusher.Send(ctx, push.Message{
		Targets: []string{intent.PushAddress},
		Title:   pn.title,
		Body:    pn.body,
		Data: map[string]any{
			"kind":       string(intent.Kind),
			"guard_code": intent.DependentCode,
		},
	})
	switch {
	case errors.Is(err, push.ErrNotConfigured), errors.Is(err, push.ErrNoTargets):
		d.logger.Debug("push skipped", zap.String("kind", string(intent.Kind)), zap.String("reason", err.Error()))
		d.countPush("skipped")
	case err != nil:
		d.logger.Warn("push failed",
			zap.Error(err),
			zap.String("kind", string(intent.Kind)),
			zap.Int64("owner_id", int64(intent.OwnerID)),
		)
		d.countPush("failed")
	default:
		d.logger.Info("push sent",
			zap.String("kind", string(intent.Kind)),
			zap.String("push_id", receipt.ID),
			zap.Int("recipients", receipt.Recipients),
		)
		d.countPush("sent")
	}
}

// Close stops accepting intents and waits for in-flight deliveries or ctx.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Dispatcher) countEvent(result string) {
	if d.metrics != nil {
		d.metrics.Events.WithLabelValues(result).Inc()
	}
}

func (d *Dispatcher) countPush(result string) {
	if d.metrics != nil {
		d.metrics.Pushes.WithLabelValues(result).Inc()
	}
}
