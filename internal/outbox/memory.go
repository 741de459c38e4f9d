package outbox

import (
	"context"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"guardhouse/pkg/platform/sentinel"
	"guardhouse/pkg/platform/tx"
)

type InMemory struct {
	mu      sync.Mutex
	entries map[uuid.UUID]*Entry
}

func NewInMemory() *InMemory {
	return &InMemory{entries: make(map[uuid.UUID]*Entry)}
}

func (s *InMemory) Append(ctx context.Context, e *Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *e
	s.entries[e.ID] = &c
	tx.OnRollback(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.entries, e.ID)
	})
	return nil
}

func (s *InMemory) ClaimBatch(_ context.Context, limit, maxAttempts int) ([]*Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*Entry
	for _, e := range s.entries {
		if e.ProcessedAt == nil && e.Attempts < maxAttempts {
			c := *e
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *InMemory) MarkProcessed(_ context.Context, entryID uuid.UUID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[entryID]
	if !ok {
		return sentinel.ErrNotFound
	}
	e.Attempts++
	e.ProcessedAt = &at
	return nil
}

func (s *InMemory) MarkFailed(_ context.Context, entryID uuid.UUID, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[entryID]
	if !ok {
		return sentinel.ErrNotFound
	}
	e.Attempts++
	e.LastError = reason
	return nil
}

// Pending returns unprocessed entries, oldest first.
func (s *InMemory) Pending() []*Entry {
	out, _ := s.ClaimBatch(context.Background(), 0, math.MaxInt)
	return out
}
