package service

import (
	"context"
	"errors"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"guardhouse/internal/dispatch"
	"guardhouse/internal/roster/models"
	"guardhouse/internal/sequence"
	id "guardhouse/pkg/domain"
	dErrors "guardhouse/pkg/domain-errors"
	"guardhouse/pkg/platform/sentinel"
	"guardhouse/pkg/requestcontext"
)

const (
	aggregateDependent = "guard"

	eventDependentCreated    = "guard.created"
	eventDependentUpdated    = "guard.updated"
	eventDependentTerminated = "guard.terminated"
	eventDependentPurged     = "guard.purged"
)

const dependentNotFound = "guard not found"

// dependentChange is the outbox payload for guard writes.
type dependentChange struct {
	DependentID id.DependentID `json:"guard_id"`
	OwnerID     id.OwnerID     `json:"supervisor_id"`
	Sequence    id.Sequence    `json:"local_guard_id"`
	Code        string         `json:"code"`
	Status      models.Status  `json:"status,omitempty"`
	Reason      string         `json:"reason,omitempty"`
	At          time.Time      `json:"at"`
}

func changeOf(d *models.Dependent, now time.Time) dependentChange {
	return dependentChange{
		DependentID: d.ID,
		OwnerID:     d.OwnerID,
		Sequence:    d.Sequence,
		Code:        d.Code(),
		Status:      d.Status,
		Reason:      d.TerminationReason,
		At:          now,
	}
}

// CreateDependent registers a guard with its emergency contacts and documents
// under the next sequence of ownerID. Nothing is written unless every part is.
func (s *Service) CreateDependent(ctx context.Context, ownerID id.OwnerID, req *models.CreateDependentRequest) (_ *models.Dependent, err error) {
	ctx, done := s.start(ctx, "create_guard", ownerAttr(ownerID))
	defer done(&err)

	if req == nil {
		return nil, dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var (
		created *models.Dependent
		owner   *models.Owner
	)
	err = s.retry.Retry(ctx, func(ctx context.Context) error {
		return s.tx.RunInTx(ctx, func(txCtx context.Context) error {
			var err error
			owner, err = s.requireActiveOwner(txCtx, ownerID)
			if err != nil {
				return err
			}
			if err := s.requireDutyType(txCtx, req.DutyTypeID); err != nil {
				return err
			}

			now := requestcontext.Now(txCtx)
			d, err := models.NewDependent(ownerID, req, now)
			if err != nil {
				return err
			}
			if d.Sequence, err = s.alloc.Next(txCtx, ownerID, sequence.KindDependent); err != nil {
				return err
			}
			if err := s.dependents.Create(txCtx, d); err != nil {
				return err
			}
			if err := s.appendOutbox(txCtx, aggregateDependent, strconv.FormatInt(int64(d.ID), 10), eventDependentCreated, changeOf(d, now), now); err != nil {
				return err
			}
			created = d
			return nil
		})
	})
	if err != nil {
		return nil, wrapErr(err, dependentNotFound, "failed to create guard")
	}

	s.logger.Info("guard created",
		zap.Int64("supervisor_id", int64(ownerID)),
		zap.String("code", created.Code()),
		zap.Int64("guard_id", int64(created.ID)),
	)
	s.dispatcher.Dispatch(ctx, dispatch.Intent{
		Kind:          dispatch.DependentAdded,
		OwnerID:       ownerID,
		OwnerName:     owner.Name,
		DependentName: created.Name,
		DependentCode: created.Code(),
		PushAddress:   owner.PushAddress,
	})
	return created, nil
}

// EditDependent applies a partial update to the guard (ownerID, seq). A
// non-nil contact list replaces all existing contacts; documents are appended.
func (s *Service) EditDependent(ctx context.Context, ownerID id.OwnerID, seq id.Sequence, req *models.EditDependentRequest) (_ *models.Dependent, err error) {
	ctx, done := s.start(ctx, "edit_guard", ownerAttr(ownerID), seqAttr(seq))
	defer done(&err)

	if req == nil {
		return nil, dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if req.IsEmpty() {
		return nil, dErrors.New(dErrors.CodeValidation, "nothing to update")
	}

	var updated *models.Dependent
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if req.DutyTypeID != nil {
			if err := s.requireDutyType(txCtx, *req.DutyTypeID); err != nil {
				return err
			}
		}
		now := requestcontext.Now(txCtx)
		d, err := s.dependents.Execute(txCtx, ownerID, seq,
			func(d *models.Dependent) error { return d.CanEdit() },
			func(d *models.Dependent) { d.ApplyPatch(req, now) },
		)
		if err != nil {
			return err
		}
		if req.Contacts != nil {
			contacts := make([]models.EmergencyContact, 0, len(*req.Contacts))
			for _, c := range *req.Contacts {
				contacts = append(contacts, models.EmergencyContact{Name: c.Name, Phone: c.Phone})
			}
			if d.Contacts, err = s.dependents.ReplaceContacts(txCtx, d.ID, contacts); err != nil {
				return err
			}
		}
		if len(req.Documents) > 0 {
			docs := make([]models.Document, 0, len(req.Documents))
			for _, doc := range req.Documents {
				docs = append(docs, models.Document{Reference: doc.Reference, OriginalName: doc.OriginalName, CreatedAt: now})
			}
			added, err := s.dependents.AppendDocuments(txCtx, d.ID, docs)
			if err != nil {
				return err
			}
			d.Documents = append(d.Documents, added...)
		}
		if err := s.appendOutbox(txCtx, aggregateDependent, strconv.FormatInt(int64(d.ID), 10), eventDependentUpdated, changeOf(d, now), now); err != nil {
			return err
		}
		updated = d
		return nil
	})
	if err != nil {
		return nil, wrapErr(err, dependentNotFound, "failed to update guard")
	}

	s.logger.Info("guard updated", zap.Int64("supervisor_id", int64(ownerID)), zap.String("code", updated.Code()))
	s.dispatcher.Dispatch(ctx, dispatch.Intent{
		Kind:          dispatch.DependentUpdated,
		OwnerID:       ownerID,
		DependentName: updated.Name,
		DependentCode: updated.Code(),
	})
	return updated, nil
}

// TerminateDependent soft-deletes the guard. Terminating an already terminated
// guard succeeds and replaces the reason.
func (s *Service) TerminateDependent(ctx context.Context, ownerID id.OwnerID, seq id.Sequence, req *models.TerminateRequest) (_ *models.Dependent, err error) {
	ctx, done := s.start(ctx, "terminate_guard", ownerAttr(ownerID), seqAttr(seq))
	defer done(&err)

	if req == nil {
		return nil, dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var terminated *models.Dependent
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		now := requestcontext.Now(txCtx)
		d, err := s.dependents.Execute(txCtx, ownerID, seq,
			func(*models.Dependent) error { return nil },
			func(d *models.Dependent) { d.ApplyTermination(req.Reason, now) },
		)
		if err != nil {
			return err
		}
		terminated = d
		return s.appendOutbox(txCtx, aggregateDependent, strconv.FormatInt(int64(d.ID), 10), eventDependentTerminated, changeOf(d, now), now)
	})
	if err != nil {
		return nil, wrapErr(err, dependentNotFound, "failed to terminate guard")
	}

	s.logger.Info("guard terminated", zap.Int64("supervisor_id", int64(ownerID)), zap.String("code", terminated.Code()))
	s.dispatcher.Dispatch(ctx, dispatch.Intent{
		Kind:          dispatch.DependentTerminated,
		OwnerID:       ownerID,
		DependentName: terminated.Name,
		DependentCode: terminated.Code(),
		Reason:        req.Reason,
	})
	return terminated, nil
}

// PurgeDependent hard-deletes the guard (ownerID, seq): documents, then
// contacts, then the guard itself. The sequence is not handed out again.
func (s *Service) PurgeDependent(ctx context.Context, ownerID id.OwnerID, seq id.Sequence) (err error) {
	ctx, done := s.start(ctx, "purge_guard", ownerAttr(ownerID), seqAttr(seq))
	defer done(&err)

	return s.purge(ctx, func(txCtx context.Context) (*models.Dependent, error) {
		return s.dependents.FindBySequence(txCtx, ownerID, seq)
	})
}

// PurgeDependentByID is the administrative purge, addressed by global id.
func (s *Service) PurgeDependentByID(ctx context.Context, dependentID id.DependentID) (err error) {
	ctx, done := s.start(ctx, "purge_guard_admin", attribute.Int64("guard.id", int64(dependentID)))
	defer done(&err)

	return s.purge(ctx, func(txCtx context.Context) (*models.Dependent, error) {
		return s.dependents.FindByID(txCtx, dependentID)
	})
}

func (s *Service) purge(ctx context.Context, find func(context.Context) (*models.Dependent, error)) error {
	var (
		removed *models.Dependent
		owner   *models.Owner
		docs    []models.Document
	)
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		d, err := find(txCtx)
		if err != nil {
			return err
		}
		if docs, err = s.dependents.Delete(txCtx, d.ID); err != nil {
			return err
		}
		if owner, err = s.owners.FindByID(txCtx, d.OwnerID); err != nil {
			return err
		}
		now := requestcontext.Now(txCtx)
		if err := s.appendOutbox(txCtx, aggregateDependent, strconv.FormatInt(int64(d.ID), 10), eventDependentPurged, changeOf(d, now), now); err != nil {
			return err
		}
		removed = d
		return nil
	})
	if err != nil {
		return wrapErr(err, dependentNotFound, "failed to delete guard")
	}

	s.logger.Info("guard purged",
		zap.Int64("supervisor_id", int64(removed.OwnerID)),
		zap.String("code", removed.Code()),
		zap.Int("documents", len(docs)),
	)
	s.release(ctx, append(documentRefs(docs), removed.ProfilePhoto))
	s.dispatcher.Dispatch(ctx, dispatch.Intent{
		Kind:          dispatch.DependentDeleted,
		OwnerID:       removed.OwnerID,
		OwnerName:     owner.Name,
		DependentName: removed.Name,
		DependentCode: removed.Code(),
		PushAddress:   owner.PushAddress,
	})
	return nil
}

// GetDependent returns the guard with its contacts and documents.
func (s *Service) GetDependent(ctx context.Context, ownerID id.OwnerID, seq id.Sequence) (*models.Dependent, error) {
	d, err := s.dependents.FindBySequence(ctx, ownerID, seq)
	if err != nil {
		return nil, wrapErr(err, dependentNotFound, "failed to load guard")
	}
	return d, nil
}

// ListDependents returns the owner's guards, newest first, optionally
// filtered by a case-insensitive name fragment.
func (s *Service) ListDependents(ctx context.Context, ownerID id.OwnerID, search string) ([]*models.Dependent, error) {
	out, err := s.dependents.ListByOwner(ctx, ownerID, search)
	if err != nil {
		return nil, wrapErr(err, dependentNotFound, "failed to list guards")
	}
	if out == nil {
		out = []*models.Dependent{}
	}
	return out, nil
}

// requireActiveOwner loads the owner a new guard is registered under and holds
// a share lock on it, so the owner cannot be suspended or terminated before
// the guard is committed.
func (s *Service) requireActiveOwner(ctx context.Context, ownerID id.OwnerID) (*models.Owner, error) {
	owner, err := s.owners.FindByIDForShare(ctx, ownerID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeInvalidReference, "supervisor does not exist")
		}
		return nil, err
	}
	if !owner.IsActive() {
		return nil, dErrors.New(dErrors.CodeForbidden, "supervisor is not active")
	}
	return owner, nil
}

func (s *Service) requireDutyType(ctx context.Context, dutyTypeID id.DutyTypeID) error {
	ok, err := s.dutyTypes.Exists(ctx, dutyTypeID)
	if err != nil {
		return err
	}
	if !ok {
		return dErrors.New(dErrors.CodeInvalidReference, "duty type does not exist")
	}
	return nil
}
