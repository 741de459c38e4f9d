package owner

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"guardhouse/internal/roster/models"
	id "guardhouse/pkg/domain"
	"guardhouse/pkg/platform/sentinel"
	"guardhouse/pkg/platform/tx"
)

// InMemory stores owners in a map. Writes made inside a memory unit of work
// are reverted when it fails.
type InMemory struct {
	mu     sync.RWMutex
	nextID int64
	owners map[id.OwnerID]*models.Owner
}

func NewInMemory() *InMemory {
	return &InMemory{owners: make(map[id.OwnerID]*models.Owner)}
}

func (s *InMemory) Create(ctx context.Context, o *models.Owner) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkUnique(o); err != nil {
		return err
	}
	s.nextID++
	o.ID = id.OwnerID(s.nextID)
	s.owners[o.ID] = clone(o)

	ownerID := o.ID
	tx.OnRollback(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.owners, ownerID)
	})
	return nil
}

func (s *InMemory) FindByID(_ context.Context, ownerID id.OwnerID) (*models.Owner, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.owners[ownerID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return clone(o), nil
}

func (s *InMemory) List(_ context.Context) ([]*models.Owner, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Owner, 0, len(s.owners))
	for _, o := range s.owners {
		out = append(out, clone(o))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (s *InMemory) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.owners), nil
}

// FindByIDForShare is FindByID; the memory store has no row locks to take.
func (s *InMemory) FindByIDForShare(ctx context.Context, ownerID id.OwnerID) (*models.Owner, error) {
	return s.FindByID(ctx, ownerID)
}

// Execute validates and mutates an owner while holding the store lock.
func (s *InMemory) Execute(ctx context.Context, ownerID id.OwnerID, validate func(*models.Owner) error, mutate func(*models.Owner)) (*models.Owner, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, ok := s.owners[ownerID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	o := clone(prev)
	if err := validate(o); err != nil {
		return nil, err
	}
	mutate(o)
	if err := s.checkUnique(o); err != nil {
		return nil, err
	}
	s.owners[ownerID] = o
	s.restoreOnRollback(ctx, prev)
	return clone(o), nil
}

func (s *InMemory) Delete(ctx context.Context, ownerID id.OwnerID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, ok := s.owners[ownerID]
	if !ok {
		return sentinel.ErrNotFound
	}
	delete(s.owners, ownerID)
	s.restoreOnRollback(ctx, prev)
	return nil
}

func (s *InMemory) restoreOnRollback(ctx context.Context, prev *models.Owner) {
	tx.OnRollback(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.owners[prev.ID] = prev
	})
}

// checkUnique must be called with mu held.
func (s *InMemory) checkUnique(o *models.Owner) error {
	for _, existing := range s.owners {
		if existing.ID == o.ID {
			continue
		}
		if strings.EqualFold(existing.Email, o.Email) {
			return fmt.Errorf("email: %w", sentinel.ErrAlreadyUsed)
		}
		if existing.Phone == o.Phone {
			return fmt.Errorf("phone: %w", sentinel.ErrAlreadyUsed)
		}
	}
	return nil
}

func clone(o *models.Owner) *models.Owner {
	c := *o
	return &c
}
