package sequence

import (
	"context"
	"sync"

	id "guardhouse/pkg/domain"
	dErrors "guardhouse/pkg/domain-errors"
	"guardhouse/pkg/platform/tx"
)

type counterKey struct {
	scope id.OwnerID
	kind  Kind
}

// InMemory keeps counters in a map. Allocations made inside a memory unit of
// work are undone when that unit of work fails.
type InMemory struct {
	mu       sync.Mutex
	counters map[counterKey]int64
}

func NewInMemory() *InMemory {
	return &InMemory{counters: make(map[counterKey]int64)}
}

func (m *InMemory) Next(ctx context.Context, scope id.OwnerID, kind Kind) (id.Sequence, error) {
	if !kind.IsValid() {
		return 0, errUnknownKind(kind)
	}
	if !tx.InUnitOfWork(ctx) {
		return 0, dErrors.New(dErrors.CodeInternal, "sequence allocation requires a unit of work")
	}

	key := counterKey{scope: scope, kind: kind}
	m.mu.Lock()
	prev := m.counters[key]
	next := prev + 1
	m.counters[key] = next
	m.mu.Unlock()

	tx.OnRollback(ctx, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if m.counters[key] == next {
			m.counters[key] = prev
		}
	})
	return id.Sequence(next), nil
}

func (m *InMemory) Forget(ctx context.Context, scope id.OwnerID) error {
	m.mu.Lock()
	removed := make(map[counterKey]int64)
	for key, v := range m.counters {
		if key.scope == scope {
			removed[key] = v
			delete(m.counters, key)
		}
	}
	m.mu.Unlock()

	tx.OnRollback(ctx, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		for key, v := range removed {
			m.counters[key] = v
		}
	})
	return nil
}

// Last reports the most recently issued value, zero if none.
func (m *InMemory) Last(scope id.OwnerID, kind Kind) id.Sequence {
	m.mu.Lock()
	defer m.mu.Unlock()
	return id.Sequence(m.counters[counterKey{scope: scope, kind: kind}])
}
