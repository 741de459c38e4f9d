package dependent

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

type scopedKey struct {
	owner id.OwnerID
	seq   id.Sequence
}

// InMemory stores dependent aggregates in maps and enforces the same unique
// keys as the database: (owner, sequence) and phone.
type InMemory struct {
	mu            sync.RWMutex
	nextID        int64
	nextContactID int64
	nextDocID     int64
	byID          map[id.DependentID]*models.Dependent
	bySeq         map[scopedKey]id.DependentID
}

func NewInMemory() *InMemory {
	return &InMemory{
		byID:  make(map[id.DependentID]*models.Dependent),
		bySeq: make(map[scopedKey]id.DependentID),
	}
}

func (s *InMemory) Create(ctx context.Context, d *models.Dependent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := scopedKey{owner: d.OwnerID, seq: d.Sequence}
	if _, taken := s.bySeq[key]; taken {
		return fmt.Errorf("guard %d of supervisor %d: %w", d.Sequence, d.OwnerID, sentinel.ErrAllocationConflict)
	}
	if err := s.checkPhone(d.ID, d.Phone); err != nil {
		return err
	}

	s.nextID++
	d.ID = id.DependentID(s.nextID)
	for i := range d.Contacts {
		s.nextContactID++
		d.Contacts[i].ID = id.ContactID(s.nextContactID)
		d.Contacts[i].DependentID = d.ID
	}
	for i := range d.Documents {
		s.nextDocID++
		d.Documents[i].ID = id.DocumentID(s.nextDocID)
		d.Documents[i].DependentID = d.ID
	}
	s.byID[d.ID] = clone(d)
	s.bySeq[key] = d.ID

	dependentID := d.ID
	tx.OnRollback(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.byID, dependentID)
		delete(s.bySeq, key)
	})
	return nil
}

func (s *InMemory) FindByID(_ context.Context, dependentID id.DependentID) (*models.Dependent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.byID[dependentID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return clone(d), nil
}

func (s *InMemory) FindBySequence(_ context.Context, ownerID id.OwnerID, seq id.Sequence) (*models.Dependent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.lookup(ownerID, seq)
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return clone(d), nil
}

// Execute validates and mutates the dependent's own fields while holding the
// store lock. Contacts and documents are left as they are.
func (s *InMemory) Execute(ctx context.Context, ownerID id.OwnerID, seq id.Sequence, validate func(*models.Dependent) error, mutate func(*models.Dependent)) (*models.Dependent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, ok := s.lookup(ownerID, seq)
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	d := clone(prev)
	if err := validate(d); err != nil {
		return nil, err
	}
	mutate(d)
	if err := s.checkPhone(d.ID, d.Phone); err != nil {
		return nil, err
	}
	d.Contacts, d.Documents = prev.Contacts, prev.Documents
	s.byID[d.ID] = clone(d)
	s.restoreOnRollback(ctx, prev)
	return d, nil
}

func (s *InMemory) ReplaceContacts(ctx context.Context, dependentID id.DependentID, contacts []models.EmergencyContact) ([]models.EmergencyContact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, ok := s.byID[dependentID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	replaced := make([]models.EmergencyContact, len(contacts))
	for i, c := range contacts {
		s.nextContactID++
		c.ID = id.ContactID(s.nextContactID)
		c.DependentID = dependentID
		replaced[i] = c
	}
	d := clone(prev)
	d.Contacts = replaced
	s.byID[dependentID] = d
	s.restoreOnRollback(ctx, prev)
	return append([]models.EmergencyContact(nil), replaced...), nil
}

func (s *InMemory) AppendDocuments(ctx context.Context, dependentID id.DependentID, docs []models.Document) ([]models.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, ok := s.byID[dependentID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	added := make([]models.Document, len(docs))
	for i, doc := range docs {
		s.nextDocID++
		doc.ID = id.DocumentID(s.nextDocID)
		doc.DependentID = dependentID
		added[i] = doc
	}
	d := clone(prev)
	d.Documents = append(d.Documents, added...)
	s.byID[dependentID] = d
	s.restoreOnRollback(ctx, prev)
	return added, nil
}

// Delete removes the dependent with its contacts and documents and returns the
// removed documents so their stored files can be released.
func (s *InMemory) Delete(ctx context.Context, dependentID id.DependentID) ([]models.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, ok := s.byID[dependentID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	key := scopedKey{owner: prev.OwnerID, seq: prev.Sequence}
	delete(s.byID, dependentID)
	delete(s.bySeq, key)
	tx.OnRollback(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.byID[dependentID] = prev
		s.bySeq[key] = dependentID
	})
	return append([]models.Document(nil), prev.Documents...), nil
}

// DeleteByOwner removes every dependent of ownerID and returns their documents.
func (s *InMemory) DeleteByOwner(ctx context.Context, ownerID id.OwnerID) ([]models.Document, error) {
	s.mu.RLock()
	var ids []id.DependentID
	for depID, d := range s.byID {
		if d.OwnerID == ownerID {
			ids = append(ids, depID)
		}
	}
	s.mu.RUnlock()

	var docs []models.Document
	for _, depID := range ids {
		removed, err := s.Delete(ctx, depID)
		if err != nil {
			return nil, err
		}
		docs = append(docs, removed...)
	}
	return docs, nil
}

func (s *InMemory) ListByOwner(_ context.Context, ownerID id.OwnerID, search string) ([]*models.Dependent, error) {
	search = strings.ToLower(search)
	s.mu.RLock()
	var out []*models.Dependent
	for _, d := range s.byID {
		if d.OwnerID != ownerID {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(d.Name), search) {
			continue
		}
		out = append(out, summary(d))
	}
	s.mu.RUnlock()
	sortNewestFirst(out)
	return out, nil
}

func (s *InMemory) CountActiveByOwner(_ context.Context, ownerID id.OwnerID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, d := range s.byID {
		if d.OwnerID == ownerID && !d.IsTerminated() {
			n++
		}
	}
	return n, nil
}

func (s *InMemory) CountByDutyType(_ context.Context, dutyTypeID id.DutyTypeID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, d := range s.byID {
		if d.DutyTypeID == dutyTypeID {
			n++
		}
	}
	return n, nil
}

func (s *InMemory) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID), nil
}

func (s *InMemory) ListRecent(_ context.Context, limit int) ([]*models.Dependent, error) {
	s.mu.RLock()
	out := make([]*models.Dependent, 0, len(s.byID))
	for _, d := range s.byID {
		out = append(out, summary(d))
	}
	s.mu.RUnlock()
	sortNewestFirst(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// lookup must be called with mu held.
func (s *InMemory) lookup(ownerID id.OwnerID, seq id.Sequence) (*models.Dependent, bool) {
	depID, ok := s.bySeq[scopedKey{owner: ownerID, seq: seq}]
	if !ok {
		return nil, false
	}
	d, ok := s.byID[depID]
	return d, ok
}

// checkPhone must be called with mu held.
func (s *InMemory) checkPhone(self id.DependentID, phone string) error {
	for depID, d := range s.byID {
		if depID != self && d.Phone == phone {
			return fmt.Errorf("phone: %w", sentinel.ErrAlreadyUsed)
		}
	}
	return nil
}

func (s *InMemory) restoreOnRollback(ctx context.Context, prev *models.Dependent) {
	tx.OnRollback(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.byID[prev.ID] = prev
	})
}

func sortNewestFirst(out []*models.Dependent) {
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
}

func clone(d *models.Dependent) *models.Dependent {
	c := *d
	c.Contacts = append([]models.EmergencyContact(nil), d.Contacts...)
	c.Documents = append([]models.Document(nil), d.Documents...)
	return &c
}

// summary is the list view: the dependent without its children.
func summary(d *models.Dependent) *models.Dependent {
	c := *d
	c.Contacts = nil
	c.Documents = nil
	return &c
}
