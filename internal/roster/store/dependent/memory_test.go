package dependent

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"guardhouse/internal/roster/models"
	id "guardhouse/pkg/domain"
	"guardhouse/pkg/platform/sentinel"
	"guardhouse/pkg/platform/tx"
)

type DependentStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
	now   time.Time
}

func TestDependentStoreSuite(t *testing.T) {
	suite.Run(t, new(DependentStoreSuite))
}

func (s *DependentStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
	s.now = time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC)
}

func (s *DependentStoreSuite) newDependent(owner id.OwnerID, seq id.Sequence, name, phone string) *models.Dependent {
	s.now = s.now.Add(time.Minute)
	return &models.Dependent{
		OwnerID:    owner,
		Sequence:   seq,
		Name:       name,
		Phone:      phone,
		DutyTypeID: 1,
		Status:     models.StatusActive,
		Contacts:   []models.EmergencyContact{{Name: "Asha", Phone: "9123456780"}},
		Documents:  []models.Document{{Reference: "docs/" + name + ".pdf", OriginalName: name + ".pdf"}},
		CreatedAt:  s.now,
		UpdatedAt:  s.now,
	}
}

func (s *DependentStoreSuite) TestCreateAssignsIDs() {
	d := s.newDependent(1, 1, "Ravi", "9876543210")
	s.Require().NoError(s.store.Create(s.ctx, d))
	s.NotZero(d.ID)
	s.Equal(d.ID, d.Contacts[0].DependentID)
	s.NotZero(d.Documents[0].ID)

	found, err := s.store.FindBySequence(s.ctx, 1, 1)
	s.Require().NoError(err)
	s.Equal("Ravi", found.Name)
	s.Len(found.Contacts, 1)
	s.Len(found.Documents, 1)
}

func (s *DependentStoreSuite) TestUniqueKeys() {
	s.Require().NoError(s.store.Create(s.ctx, s.newDependent(1, 1, "Ravi", "9876543210")))

	s.Run("sequence taken within owner", func() {
		err := s.store.Create(s.ctx, s.newDependent(1, 1, "Other", "9876543211"))
		s.ErrorIs(err, sentinel.ErrAllocationConflict)
	})

	s.Run("same sequence for another owner", func() {
		s.NoError(s.store.Create(s.ctx, s.newDependent(2, 1, "Other", "9876543211")))
	})

	s.Run("phone taken across owners", func() {
		err := s.store.Create(s.ctx, s.newDependent(3, 1, "Clone", "9876543210"))
		s.ErrorIs(err, sentinel.ErrAlreadyUsed)
	})
}

func (s *DependentStoreSuite) TestScopedLookup() {
	s.Require().NoError(s.store.Create(s.ctx, s.newDependent(1, 1, "Ravi", "9876543210")))
	_, err := s.store.FindBySequence(s.ctx, 2, 1)
	s.ErrorIs(err, sentinel.ErrNotFound, "another owner's sequence is not visible")
}

func (s *DependentStoreSuite) TestExecuteKeepsChildren() {
	s.Require().NoError(s.store.Create(s.ctx, s.newDependent(1, 1, "Ravi", "9876543210")))
	s.Require().NoError(s.store.Create(s.ctx, s.newDependent(1, 2, "Meera", "9876543211")))

	updated, err := s.store.Execute(s.ctx, 1, 1,
		func(*models.Dependent) error { return nil },
		func(d *models.Dependent) { d.ApplyTermination("absent", s.now) })
	s.Require().NoError(err)
	s.Equal(models.StatusTerminated, updated.Status)
	s.Len(updated.Contacts, 1)

	_, err = s.store.Execute(s.ctx, 1, 2,
		func(*models.Dependent) error { return nil },
		func(d *models.Dependent) { d.Phone = "9876543210" })
	s.ErrorIs(err, sentinel.ErrAlreadyUsed)
	found, _ := s.store.FindBySequence(s.ctx, 1, 2)
	s.Equal("9876543211", found.Phone, "failed execute leaves the row unchanged")
}

func (s *DependentStoreSuite) TestReplaceContactsRollsBack() {
	d := s.newDependent(1, 1, "Ravi", "9876543210")
	s.Require().NoError(s.store.Create(s.ctx, d))

	err := tx.NewMemoryRunner().RunInTx(s.ctx, func(ctx context.Context) error {
		_, err := s.store.ReplaceContacts(ctx, d.ID, []models.EmergencyContact{{Name: "New", Phone: "9000000009"}})
		s.Require().NoError(err)
		return errors.New("abort")
	})
	s.Require().Error(err)

	found, _ := s.store.FindByID(s.ctx, d.ID)
	s.Require().Len(found.Contacts, 1)
	s.Equal("Asha", found.Contacts[0].Name)
}

func (s *DependentStoreSuite) TestDelete() {
	d := s.newDependent(1, 1, "Ravi", "9876543210")
	s.Require().NoError(s.store.Create(s.ctx, d))

	docs, err := s.store.Delete(s.ctx, d.ID)
	s.Require().NoError(err)
	s.Len(docs, 1)

	_, err = s.store.FindBySequence(s.ctx, 1, 1)
	s.ErrorIs(err, sentinel.ErrNotFound)
	_, err = s.store.Delete(s.ctx, d.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *DependentStoreSuite) TestDeleteByOwner() {
	s.Require().NoError(s.store.Create(s.ctx, s.newDependent(1, 1, "Ravi", "9876543210")))
	s.Require().NoError(s.store.Create(s.ctx, s.newDependent(1, 2, "Meera", "9876543211")))
	s.Require().NoError(s.store.Create(s.ctx, s.newDependent(2, 1, "Kiran", "9876543212")))

	docs, err := s.store.DeleteByOwner(s.ctx, 1)
	s.Require().NoError(err)
	s.Len(docs, 2)
	n, _ := s.store.Count(s.ctx)
	s.Equal(1, n)
}

func (s *DependentStoreSuite) TestListAndCounts() {
	s.Require().NoError(s.store.Create(s.ctx, s.newDependent(1, 1, "Ravi Kumar", "9876543210")))
	s.Require().NoError(s.store.Create(s.ctx, s.newDependent(1, 2, "Meera", "9876543211")))
	s.Require().NoError(s.store.Create(s.ctx, s.newDependent(2, 1, "Ravindra", "9876543212")))

	all, err := s.store.ListByOwner(s.ctx, 1, "")
	s.Require().NoError(err)
	s.Require().Len(all, 2)
	s.Equal("Meera", all[0].Name, "newest first")
	s.Nil(all[0].Contacts, "list view omits children")

	matched, _ := s.store.ListByOwner(s.ctx, 1, "ravi")
	s.Require().Len(matched, 1)
	s.Equal("Ravi Kumar", matched[0].Name)

	_, err = s.store.Execute(s.ctx, 1, 1, func(*models.Dependent) error { return nil },
		func(d *models.Dependent) { d.ApplyTermination("left", s.now) })
	s.Require().NoError(err)
	active, _ := s.store.CountActiveByOwner(s.ctx, 1)
	s.Equal(1, active)

	byDuty, _ := s.store.CountByDutyType(s.ctx, 1)
	s.Equal(3, byDuty)

	recent, _ := s.store.ListRecent(s.ctx, 2)
	s.Require().Len(recent, 2)
	s.Equal("Ravindra", recent[0].Name)
}
