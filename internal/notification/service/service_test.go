package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"

	"guardhouse/internal/notification/metrics"
	"guardhouse/internal/notification/models"
	"guardhouse/internal/notification/store"
	"guardhouse/internal/sequence"
	id "guardhouse/pkg/domain"
	dErrors "guardhouse/pkg/domain-errors"
	"guardhouse/pkg/platform/sentinel"
	"guardhouse/pkg/platform/tx"
)

type NotificationServiceSuite struct {
	suite.Suite
	ctx     context.Context
	store   *store.InMemory
	alloc   *sequence.InMemory
	metrics *metrics.Metrics
	service *Service
}

func TestNotificationServiceSuite(t *testing.T) {
	suite.Run(t, new(NotificationServiceSuite))
}

func (s *NotificationServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = store.NewInMemory()
	s.alloc = sequence.NewInMemory()
	s.metrics = metrics.New(prometheus.NewRegistry())
	s.service = New(s.store, s.alloc, tx.NewMemoryRunner(), WithMetrics(s.metrics))
}

func (s *NotificationServiceSuite) record(scope models.Scope, msg string) *models.Event {
	e, err := s.service.Record(s.ctx, scope, models.TypeDependentAdded, msg)
	s.Require().NoError(err)
	return e
}

func (s *NotificationServiceSuite) TestSequencesArePerScope() {
	o1, o2 := models.OwnerScope(1), models.OwnerScope(2)

	s.Equal(id.Sequence(1), s.record(o1, "first").Sequence)
	s.Equal(id.Sequence(2), s.record(o1, "second").Sequence)
	s.Equal(id.Sequence(1), s.record(o2, "other owner").Sequence)
	s.Equal(id.Sequence(1), s.record(models.AdminScope(), "broadcast").Sequence)
	s.Equal(id.Sequence(2), s.record(models.AdminScope(), "broadcast again").Sequence)

	s.Equal(float64(3), testutil.ToFloat64(s.metrics.Recorded.WithLabelValues("DEPENDENT_ADDED", "supervisor")))
	s.Equal(float64(2), testutil.ToFloat64(s.metrics.Recorded.WithLabelValues("DEPENDENT_ADDED", "admin")))
}

func (s *NotificationServiceSuite) TestSequencesNotReusedAfterDelete() {
	o1 := models.OwnerScope(1)
	s.record(o1, "one")
	s.record(o1, "two")
	s.Require().NoError(s.service.DeleteOne(s.ctx, o1, 2))

	s.Equal(id.Sequence(3), s.record(o1, "three").Sequence)
}

func (s *NotificationServiceSuite) TestMarkReadIsScoped() {
	o1, o2 := models.OwnerScope(1), models.OwnerScope(2)
	s.record(o1, "for o1")
	s.record(o2, "for o2")

	s.Require().NoError(s.service.MarkRead(s.ctx, o1, 1))

	n, err := s.service.UnreadCount(s.ctx, o1)
	s.Require().NoError(err)
	s.Equal(0, n)
	n, err = s.service.UnreadCount(s.ctx, o2)
	s.Require().NoError(err)
	s.Equal(1, n, "another owner's event with the same sequence stays unread")

	s.Run("idempotent", func() {
		s.NoError(s.service.MarkRead(s.ctx, o1, 1))
	})
	s.Run("missing in scope", func() {
		err := s.service.MarkRead(s.ctx, o1, 7)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
	s.Run("admin scope does not see owner events", func() {
		err := s.service.MarkRead(s.ctx, models.AdminScope(), 1)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *NotificationServiceSuite) TestListAndBulkOperations() {
	o1 := models.OwnerScope(1)
	for _, msg := range []string{"a", "b", "c"} {
		s.record(o1, msg)
	}
	s.record(models.OwnerScope(2), "elsewhere")
	s.Require().NoError(s.service.MarkRead(s.ctx, o1, 2))

	all, err := s.service.List(s.ctx, o1, false)
	s.Require().NoError(err)
	s.Require().Len(all, 3)
	s.Equal(id.Sequence(3), all[0].Sequence, "newest first")

	unread, err := s.service.List(s.ctx, o1, true)
	s.Require().NoError(err)
	s.Len(unread, 2)

	n, err := s.service.MarkAllRead(s.ctx, o1)
	s.Require().NoError(err)
	s.Equal(2, n)

	n, err = s.service.DeleteAll(s.ctx, o1)
	s.Require().NoError(err)
	s.Equal(3, n)

	empty, err := s.service.List(s.ctx, o1, false)
	s.Require().NoError(err)
	s.NotNil(empty)
	s.Empty(empty)

	left, err := s.service.List(s.ctx, models.OwnerScope(2), false)
	s.Require().NoError(err)
	s.Len(left, 1)
}

func (s *NotificationServiceSuite) TestDeleteOneMissing() {
	err := s.service.DeleteOne(s.ctx, models.OwnerScope(1), 1)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *NotificationServiceSuite) TestRecordValidation() {
	cases := []struct {
		name    string
		typ     models.Type
		message string
	}{
		{"unknown type", models.Type("BOGUS"), "hello"},
		{"blank message", models.TypeDependentAdded, "   "},
		{"message too long", models.TypeDependentAdded, strings.Repeat("x", 1001)},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			_, err := s.service.Record(s.ctx, models.OwnerScope(1), tc.typ, tc.message)
			s.True(dErrors.HasCode(err, dErrors.CodeValidation))
		})
	}
	s.Equal(id.Sequence(0), s.alloc.Last(1, sequence.KindEvent), "rejected records allocate nothing")
}

func (s *NotificationServiceSuite) TestConcurrentRecordsGetDistinctSequences() {
	const n = 30
	var wg sync.WaitGroup
	seqs := make(chan id.Sequence, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			e, err := s.service.Record(s.ctx, models.OwnerScope(5), models.TypeDependentUpdated, "changed")
			if err == nil {
				seqs <- e.Sequence
			}
		}()
	}
	wg.Wait()
	close(seqs)

	seen := map[id.Sequence]bool{}
	for seq := range seqs {
		s.False(seen[seq], "duplicate sequence %d", seq)
		seen[seq] = true
	}
	s.Len(seen, n)
	for i := 1; i <= n; i++ {
		s.True(seen[id.Sequence(i)])
	}
}

func TestRecordRetriesAllocationConflicts(t *testing.T) {
	st := &conflictingStore{InMemory: store.NewInMemory(), failures: 2}
	svc := New(st, sequence.NewInMemory(), tx.NewMemoryRunner(),
		WithRetryPolicy(sequence.Policy{MaxAttempts: 3, InitialInterval: time.Millisecond, MaxInterval: time.Millisecond}))

	e, err := svc.Record(context.Background(), models.OwnerScope(1), models.TypeDependentAdded, "hello")
	if err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if e.Sequence != 1 {
		t.Fatalf("expected rolled back allocations to be reused, got sequence %d", e.Sequence)
	}

	st.failures = 5
	_, err = svc.Record(context.Background(), models.OwnerScope(1), models.TypeDependentAdded, "again")
	if !dErrors.HasCode(err, dErrors.CodeConflict) {
		t.Fatalf("expected conflict after exhausting retries, got %v", err)
	}
}

// conflictingStore fails the first creates as if another writer took the sequence.
type conflictingStore struct {
	*store.InMemory
	failures int
}

func (c *conflictingStore) Create(ctx context.Context, e *models.Event) error {
	if c.failures > 0 {
		c.failures--
		return errors.Join(errors.New("duplicate key"), sentinel.ErrAllocationConflict)
	}
	return c.InMemory.Create(ctx, e)
}
