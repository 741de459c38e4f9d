package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"guardhouse/internal/dutytype/models"
	id "guardhouse/pkg/domain"
	"guardhouse/pkg/platform/sentinel"
	"guardhouse/pkg/platform/tx"
)

type InMemory struct {
	mu     sync.RWMutex
	nextID int64
	types  map[id.DutyTypeID]*models.DutyType
}

func NewInMemory() *InMemory {
	return &InMemory{types: make(map[id.DutyTypeID]*models.DutyType)}
}

func (s *InMemory) Create(ctx context.Context, dt *models.DutyType) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.types {
		if strings.EqualFold(existing.Name, dt.Name) {
			return fmt.Errorf("duty type %q: %w", dt.Name, sentinel.ErrAlreadyUsed)
		}
	}
	s.nextID++
	dt.ID = id.DutyTypeID(s.nextID)
	c := *dt
	s.types[dt.ID] = &c
	tx.OnRollback(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.types, c.ID)
	})
	return nil
}

func (s *InMemory) FindByID(_ context.Context, dutyTypeID id.DutyTypeID) (*models.DutyType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	dt, ok := s.types[dutyTypeID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	c := *dt
	return &c, nil
}

func (s *InMemory) Exists(_ context.Context, dutyTypeID id.DutyTypeID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.types[dutyTypeID]
	return ok, nil
}

// List returns duty types sorted by name.
func (s *InMemory) List(_ context.Context) ([]*models.DutyType, error) {
	s.mu.RLock()
	out := make([]*models.DutyType, 0, len(s.types))
	for _, dt := range s.types {
		c := *dt
		out = append(out, &c)
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name) })
	return out, nil
}

func (s *InMemory) Delete(ctx context.Context, dutyTypeID id.DutyTypeID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	dt, ok := s.types[dutyTypeID]
	if !ok {
		return sentinel.ErrNotFound
	}
	delete(s.types, dutyTypeID)
	tx.OnRollback(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.types[dutyTypeID] = dt
	})
	return nil
}
