package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"guardhouse/internal/notification/models"
	id "guardhouse/pkg/domain"
	"guardhouse/pkg/platform/sentinel"
	"guardhouse/pkg/platform/tx"
)

type eventKey struct {
	owner id.OwnerID
	seq   id.Sequence
}

// InMemory keeps events keyed by (scope, sequence).
type InMemory struct {
	mu     sync.RWMutex
	nextID int64
	events map[eventKey]*models.Event
}

func NewInMemory() *InMemory {
	return &InMemory{events: make(map[eventKey]*models.Event)}
}

func (s *InMemory) Create(ctx context.Context, e *models.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := eventKey{owner: e.OwnerID, seq: e.Sequence}
	if _, taken := s.events[key]; taken {
		return fmt.Errorf("notification %d in %s: %w", e.Sequence, e.Scope(), sentinel.ErrAllocationConflict)
	}
	s.nextID++
	e.ID = id.EventID(s.nextID)
	c := *e
	s.events[key] = &c
	tx.OnRollback(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.events, key)
	})
	return nil
}

func (s *InMemory) List(_ context.Context, scope models.Scope, unreadOnly bool) ([]*models.Event, error) {
	s.mu.RLock()
	var out []*models.Event
	for key, e := range s.events {
		if key.owner != scope.Owner() || (unreadOnly && e.IsRead) {
			continue
		}
		c := *e
		out = append(out, &c)
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Sequence > out[j].Sequence })
	return out, nil
}

func (s *InMemory) CountUnread(_ context.Context, scope models.Scope) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for key, e := range s.events {
		if key.owner == scope.Owner() && !e.IsRead {
			n++
		}
	}
	return n, nil
}

func (s *InMemory) MarkRead(ctx context.Context, scope models.Scope, seq id.Sequence) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.events[eventKey{owner: scope.Owner(), seq: seq}]
	if !ok {
		return sentinel.ErrNotFound
	}
	if !e.IsRead {
		e.IsRead = true
		s.undoRead(ctx, e)
	}
	return nil
}

func (s *InMemory) MarkAllRead(ctx context.Context, scope models.Scope) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for key, e := range s.events {
		if key.owner == scope.Owner() && !e.IsRead {
			e.IsRead = true
			s.undoRead(ctx, e)
			n++
		}
	}
	return n, nil
}

func (s *InMemory) Delete(ctx context.Context, scope models.Scope, seq id.Sequence) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := eventKey{owner: scope.Owner(), seq: seq}
	e, ok := s.events[key]
	if !ok {
		return sentinel.ErrNotFound
	}
	delete(s.events, key)
	s.restore(ctx, key, e)
	return nil
}

func (s *InMemory) DeleteAll(ctx context.Context, scope models.Scope) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for key, e := range s.events {
		if key.owner == scope.Owner() {
			delete(s.events, key)
			s.restore(ctx, key, e)
			n++
		}
	}
	return n, nil
}

func (s *InMemory) undoRead(ctx context.Context, e *models.Event) {
	tx.OnRollback(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		e.IsRead = false
	})
}

func (s *InMemory) restore(ctx context.Context, key eventKey, e *models.Event) {
	tx.OnRollback(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.events[key] = e
	})
}
