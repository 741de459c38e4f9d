package outbox

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"guardhouse/pkg/platform/tx"
)

type recordingPublisher struct {
	mu        sync.Mutex
	published []string
	failFor   map[string]bool
}

func (p *recordingPublisher) Publish(_ context.Context, e *Entry) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failFor[e.EventType] {
		return errors.New("broker unavailable")
	}
	p.published = append(p.published, e.EventType)
	return nil
}

func appendEntry(t *testing.T, store *InMemory, eventType string, at time.Time) *Entry {
	t.Helper()
	e, err := NewEntry("dependent", "1", eventType, map[string]string{"code": "G001"}, at)
	require.NoError(t, err)
	require.NoError(t, store.Append(context.Background(), e))
	return e
}

func TestProcessBatchPublishesInOrder(t *testing.T) {
	store := NewInMemory()
	base := time.Now()
	appendEntry(t, store, "dependent.purged", base.Add(2*time.Second))
	appendEntry(t, store, "dependent.created", base)
	appendEntry(t, store, "dependent.updated", base.Add(time.Second))

	pub := &recordingPublisher{}
	m := NewMetrics(prometheus.NewRegistry())
	w := NewWorker(store, pub, tx.NewMemoryRunner(), WithMetrics(m))

	n, err := w.ProcessBatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, []string{"dependent.created", "dependent.updated", "dependent.purged"}, pub.published)
	assert.Empty(t, store.Pending())
	assert.Equal(t, float64(3), testutil.ToFloat64(m.Published))

	n, err = w.ProcessBatch(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestProcessBatchRespectsBatchSize(t *testing.T) {
	store := NewInMemory()
	for i := 0; i < 5; i++ {
		appendEntry(t, store, "dependent.created", time.Now().Add(time.Duration(i)*time.Millisecond))
	}
	w := NewWorker(store, &recordingPublisher{}, tx.NewMemoryRunner(), WithBatchSize(2))

	n, err := w.ProcessBatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Len(t, store.Pending(), 3)
}

func TestFailingEntryIsParkedAfterMaxAttempts(t *testing.T) {
	store := NewInMemory()
	appendEntry(t, store, "dependent.created", time.Now())
	bad := appendEntry(t, store, "dependent.broken", time.Now().Add(time.Millisecond))

	core, logs := observer.New(zapcore.WarnLevel)
	pub := &recordingPublisher{failFor: map[string]bool{"dependent.broken": true}}
	w := NewWorker(store, pub, tx.NewMemoryRunner(), WithMaxAttempts(2), WithLogger(zap.New(core)))

	n, err := w.ProcessBatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, logs.FilterMessage("outbox publish failed").Len())

	pending := store.Pending()
	require.Len(t, pending, 1)
	assert.Equal(t, bad.ID, pending[0].ID)
	assert.Equal(t, 1, pending[0].Attempts)
	assert.Equal(t, "broker unavailable", pending[0].LastError)

	_, err = w.ProcessBatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, logs.FilterMessage("outbox entry parked after final attempt").Len())

	claimed, err := store.ClaimBatch(context.Background(), 10, 2)
	require.NoError(t, err)
	assert.Empty(t, claimed, "parked entries are no longer claimed")
}

func TestAppendRollsBackWithTransaction(t *testing.T) {
	store := NewInMemory()
	runner := tx.NewMemoryRunner()
	boom := errors.New("boom")

	err := runner.RunInTx(context.Background(), func(ctx context.Context) error {
		e, err := NewEntry("dependent", "1", "dependent.created", nil, time.Now())
		require.NoError(t, err)
		require.NoError(t, store.Append(ctx, e))
		return boom
	})
	require.ErrorIs(t, err, boom)
	assert.Empty(t, store.Pending())
}

func TestRunStopsOnCancel(t *testing.T) {
	store := NewInMemory()
	appendEntry(t, store, "dependent.created", time.Now())
	pub := &recordingPublisher{}
	w := NewWorker(store, pub, tx.NewMemoryRunner(), WithInterval(5*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	require.Eventually(t, func() bool { return len(store.Pending()) == 0 }, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}
}
