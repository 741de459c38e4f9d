package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"guardhouse/internal/notification/models"
	id "guardhouse/pkg/domain"
	"guardhouse/pkg/platform/sentinel"
	"guardhouse/pkg/platform/tx"
)

type EventStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
}

func TestEventStoreSuite(t *testing.T) {
	suite.Run(t, new(EventStoreSuite))
}

func (s *EventStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
}

func (s *EventStoreSuite) add(scope models.Scope, seq id.Sequence) {
	e := &models.Event{OwnerID: scope.Owner(), Sequence: seq, Type: models.TypeDependentAdded, Message: "m", CreatedAt: time.Now()}
	s.Require().NoError(s.store.Create(s.ctx, e))
}

func (s *EventStoreSuite) TestCreateRejectsTakenSequence() {
	s.add(models.OwnerScope(1), 1)
	s.add(models.OwnerScope(2), 1)
	s.add(models.AdminScope(), 1)

	err := s.store.Create(s.ctx, &models.Event{OwnerID: 1, Sequence: 1, Type: models.TypeDependentAdded, Message: "dup"})
	s.ErrorIs(err, sentinel.ErrAllocationConflict)
}

func (s *EventStoreSuite) TestScopeIsolation() {
	s.add(models.OwnerScope(1), 1)
	s.add(models.OwnerScope(2), 1)

	s.Require().NoError(s.store.MarkRead(s.ctx, models.OwnerScope(1), 1))
	n, err := s.store.CountUnread(s.ctx, models.OwnerScope(2))
	s.Require().NoError(err)
	s.Equal(1, n)

	s.ErrorIs(s.store.Delete(s.ctx, models.AdminScope(), 1), sentinel.ErrNotFound)
	n, err = s.store.DeleteAll(s.ctx, models.OwnerScope(2))
	s.Require().NoError(err)
	s.Equal(1, n)

	left, err := s.store.List(s.ctx, models.OwnerScope(1), false)
	s.Require().NoError(err)
	s.Len(left, 1)
}

func (s *EventStoreSuite) TestMutationsRollBack() {
	s.add(models.OwnerScope(1), 1)
	s.add(models.OwnerScope(1), 2)
	runner := tx.NewMemoryRunner()
	boom := errors.New("boom")

	err := runner.RunInTx(s.ctx, func(ctx context.Context) error {
		if _, err := s.store.MarkAllRead(ctx, models.OwnerScope(1)); err != nil {
			return err
		}
		if err := s.store.Delete(ctx, models.OwnerScope(1), 1); err != nil {
			return err
		}
		if err := s.store.Create(ctx, &models.Event{OwnerID: 1, Sequence: 3, Type: models.TypeDependentAdded, Message: "m"}); err != nil {
			return err
		}
		return boom
	})
	s.ErrorIs(err, boom)

	events, err := s.store.List(s.ctx, models.OwnerScope(1), true)
	s.Require().NoError(err)
	s.Require().Len(events, 2)
	s.Equal(id.Sequence(2), events[0].Sequence)
	s.Equal(id.Sequence(1), events[1].Sequence)
}
