package service

import (
	"context"
	"strconv"
	"time"

	"go.uber.org/zap"

	"guardhouse/internal/dispatch"
	notification "guardhouse/internal/notification/models"
	"guardhouse/internal/roster/models"
	id "guardhouse/pkg/domain"
	dErrors "guardhouse/pkg/domain-errors"
	"guardhouse/pkg/requestcontext"
)

const (
	aggregateOwner = "supervisor"

	eventOwnerCreated    = "supervisor.created"
	eventOwnerUpdated    = "supervisor.updated"
	eventOwnerTerminated = "supervisor.terminated"
	eventOwnerPurged     = "supervisor.purged"
)

const ownerNotFound = "supervisor not found"

type ownerChange struct {
	OwnerID id.OwnerID    `json:"supervisor_id"`
	Code    string        `json:"code"`
	Status  models.Status `json:"status"`
	Reason  string        `json:"reason,omitempty"`
	At      time.Time     `json:"at"`
}

func ownerChangeOf(o *models.Owner, now time.Time) ownerChange {
	return ownerChange{OwnerID: o.ID, Code: o.Code(), Status: o.Status, Reason: o.TerminationReason, At: now}
}

func ownerKey(ownerID id.OwnerID) string {
	return strconv.FormatInt(int64(ownerID), 10)
}

func (s *Service) CreateOwner(ctx context.Context, req *models.CreateOwnerRequest) (_ *models.Owner, err error) {
	ctx, done := s.start(ctx, "create_supervisor")
	defer done(&err)

	if req == nil {
		return nil, dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var created *models.Owner
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		now := requestcontext.Now(txCtx)
		o, err := models.NewOwner(req.Name, req.Email, req.Phone, now)
		if err != nil {
			return err
		}
		if err := s.owners.Create(txCtx, o); err != nil {
			return err
		}
		created = o
		return s.appendOutbox(txCtx, aggregateOwner, ownerKey(o.ID), eventOwnerCreated, ownerChangeOf(o, now), now)
	})
	if err != nil {
		return nil, wrapErr(err, ownerNotFound, "failed to create supervisor")
	}
	s.logger.Info("supervisor created", zap.String("code", created.Code()))
	return created, nil
}

func (s *Service) GetOwner(ctx context.Context, ownerID id.OwnerID) (*models.Owner, error) {
	o, err := s.owners.FindByID(ctx, ownerID)
	if err != nil {
		return nil, wrapErr(err, ownerNotFound, "failed to load supervisor")
	}
	return o, nil
}

func (s *Service) ListOwners(ctx context.Context) ([]*models.Owner, error) {
	out, err := s.owners.List(ctx)
	if err != nil {
		return nil, wrapErr(err, ownerNotFound, "failed to list supervisors")
	}
	if out == nil {
		out = []*models.Owner{}
	}
	return out, nil
}

// UpdateOwner changes contact details. Status has its own operations.
func (s *Service) UpdateOwner(ctx context.Context, ownerID id.OwnerID, req *models.UpdateOwnerRequest) (_ *models.Owner, err error) {
	ctx, done := s.start(ctx, "update_supervisor", ownerAttr(ownerID))
	defer done(&err)

	if req == nil {
		return nil, dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var updated *models.Owner
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		now := requestcontext.Now(txCtx)
		o, err := s.owners.Execute(txCtx, ownerID,
			func(o *models.Owner) error { return o.CanEdit() },
			func(o *models.Owner) { o.ApplyContact(req, now) },
		)
		if err != nil {
			return err
		}
		updated = o
		return s.appendOutbox(txCtx, aggregateOwner, ownerKey(o.ID), eventOwnerUpdated, ownerChangeOf(o, now), now)
	})
	if err != nil {
		return nil, wrapErr(err, ownerNotFound, "failed to update supervisor")
	}
	return updated, nil
}

// SetOwnerStatus moves a supervisor between Active and Suspended.
func (s *Service) SetOwnerStatus(ctx context.Context, ownerID id.OwnerID, status models.Status) (_ *models.Owner, err error) {
	ctx, done := s.start(ctx, "set_supervisor_status", ownerAttr(ownerID))
	defer done(&err)

	var updated *models.Owner
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		now := requestcontext.Now(txCtx)
		o, err := s.owners.Execute(txCtx, ownerID,
			func(o *models.Owner) error { return o.CanSetStatus(status) },
			func(o *models.Owner) { o.ApplyStatus(status, now) },
		)
		if err != nil {
			return err
		}
		updated = o
		return s.appendOutbox(txCtx, aggregateOwner, ownerKey(o.ID), eventOwnerUpdated, ownerChangeOf(o, now), now)
	})
	if err != nil {
		return nil, wrapErr(err, ownerNotFound, "failed to change supervisor status")
	}
	s.logger.Info("supervisor status changed", zap.String("code", updated.Code()), zap.String("status", updated.Status.String()))
	return updated, nil
}

// TerminateOwner soft-deletes a supervisor. Their guards are left as they are.
// Repeating it replaces the reason.
func (s *Service) TerminateOwner(ctx context.Context, ownerID id.OwnerID, req *models.TerminateRequest) (_ *models.Owner, err error) {
	ctx, done := s.start(ctx, "terminate_supervisor", ownerAttr(ownerID))
	defer done(&err)

	if req == nil {
		return nil, dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var terminated *models.Owner
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		now := requestcontext.Now(txCtx)
		o, err := s.owners.Execute(txCtx, ownerID,
			func(*models.Owner) error { return nil },
			func(o *models.Owner) { o.ApplyTermination(req.Reason, now) },
		)
		if err != nil {
			return err
		}
		terminated = o
		return s.appendOutbox(txCtx, aggregateOwner, ownerKey(o.ID), eventOwnerTerminated, ownerChangeOf(o, now), now)
	})
	if err != nil {
		return nil, wrapErr(err, ownerNotFound, "failed to terminate supervisor")
	}

	s.logger.Info("supervisor terminated", zap.String("code", terminated.Code()))
	s.dispatcher.Dispatch(ctx, dispatch.Intent{
		Kind:      dispatch.OwnerTerminated,
		OwnerID:   ownerID,
		OwnerName: terminated.Name,
		Reason:    req.Reason,
	})
	return terminated, nil
}

// PurgeOwner hard-deletes a supervisor. It is refused while the supervisor
// still has guards that are not terminated. Otherwise the terminated guards
// (children first), the supervisor's notifications and sequence counters and
// the supervisor row are removed in one unit of work.
func (s *Service) PurgeOwner(ctx context.Context, ownerID id.OwnerID) (err error) {
	ctx, done := s.start(ctx, "purge_supervisor", ownerAttr(ownerID))
	defer done(&err)

	var (
		docs   []models.Document
		events int
	)
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		o, err := s.owners.FindByID(txCtx, ownerID)
		if err != nil {
			return err
		}
		active, err := s.dependents.CountActiveByOwner(txCtx, ownerID)
		if err != nil {
			return err
		}
		if active > 0 {
			return dErrors.New(dErrors.CodeConflict, "supervisor still has guards that are not terminated")
		}
		if docs, err = s.dependents.DeleteByOwner(txCtx, ownerID); err != nil {
			return err
		}
		if events, err = s.events.DeleteAll(txCtx, notification.OwnerScope(ownerID)); err != nil {
			return err
		}
		if err := s.alloc.Forget(txCtx, ownerID); err != nil {
			return err
		}
		if err := s.owners.Delete(txCtx, ownerID); err != nil {
			return err
		}
		now := requestcontext.Now(txCtx)
		return s.appendOutbox(txCtx, aggregateOwner, ownerKey(ownerID), eventOwnerPurged, ownerChangeOf(o, now), now)
	})
	if err != nil {
		return wrapErr(err, ownerNotFound, "failed to delete supervisor")
	}

	s.logger.Info("supervisor purged",
		zap.Int64("supervisor_id", int64(ownerID)),
		zap.Int("documents", len(docs)),
		zap.Int("notifications", events),
	)
	s.release(ctx, documentRefs(docs))
	return nil
}

// RegisterDevice records the push address of the supervisor's device.
func (s *Service) RegisterDevice(ctx context.Context, ownerID id.OwnerID, req *models.RegisterDeviceRequest) (_ *models.Owner, err error) {
	ctx, done := s.start(ctx, "register_device", ownerAttr(ownerID))
	defer done(&err)

	if req == nil {
		return nil, dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var updated *models.Owner
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		now := requestcontext.Now(txCtx)
		o, err := s.owners.Execute(txCtx, ownerID,
			func(*models.Owner) error { return nil },
			func(o *models.Owner) { o.ApplyDevice(req.PlayerID, req.DeviceType, now) },
		)
		updated = o
		return err
	})
	if err != nil {
		return nil, wrapErr(err, ownerNotFound, "failed to register device")
	}
	s.logger.Debug("device registered", zap.String("code", updated.Code()), zap.String("device_type", updated.DeviceType))
	return updated, nil
}

// DashboardStats summarizes the whole roster for administrators.
func (s *Service) DashboardStats(ctx context.Context) (*models.DashboardStats, error) {
	owners, err := s.owners.Count(ctx)
	if err != nil {
		return nil, wrapErr(err, ownerNotFound, "failed to count supervisors")
	}
	dependents, err := s.dependents.Count(ctx)
	if err != nil {
		return nil, wrapErr(err, dependentNotFound, "failed to count guards")
	}
	recent, err := s.dependents.ListRecent(ctx, recentDependentsLimit)
	if err != nil {
		return nil, wrapErr(err, dependentNotFound, "failed to list recent guards")
	}
	if recent == nil {
		recent = []*models.Dependent{}
	}
	if s.metrics != nil {
		s.metrics.Guards.Set(float64(dependents))
	}
	return &models.DashboardStats{
		TotalOwners:      owners,
		TotalDependents:  dependents,
		RecentDependents: recent,
	}, nil
}
