package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"guardhouse/internal/dutytype/cache"
	"guardhouse/internal/dutytype/models"
	id "guardhouse/pkg/domain"
	dErrors "guardhouse/pkg/domain-errors"
	"guardhouse/pkg/platform/sentinel"
	"guardhouse/pkg/platform/tx"
	"guardhouse/pkg/requestcontext"
)

type Store interface {
	Create(ctx context.Context, dt *models.DutyType) error
	FindByID(ctx context.Context, dutyTypeID id.DutyTypeID) (*models.DutyType, error)
	Exists(ctx context.Context, dutyTypeID id.DutyTypeID) (bool, error)
	List(ctx context.Context) ([]*models.DutyType, error)
	Delete(ctx context.Context, dutyTypeID id.DutyTypeID) error
}

// UsageCounter reports how many guards reference a duty type.
type UsageCounter interface {
	CountByDutyType(ctx context.Context, dutyTypeID id.DutyTypeID) (int, error)
}

// Service is the duty-type directory.
type Service struct {
	store     Store
	usage     UsageCounter
	tx        tx.Runner
	directory cache.Directory
	cache     *cache.CachedDirectory
	logger    *zap.Logger
}

type Option func(*Service)

func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithCache routes existence checks through a Redis cache built on the store.
func WithCache(c *cache.CachedDirectory) Option {
	return func(s *Service) {
		if c != nil {
			s.cache = c
			s.directory = c
		}
	}
}

func New(store Store, usage UsageCounter, runner tx.Runner, opts ...Option) *Service {
	s := &Service{
		store:     store,
		usage:     usage,
		tx:        runner,
		directory: store,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Exists reports whether dutyTypeID names a duty type. It joins any
// transaction in ctx.
func (s *Service) Exists(ctx context.Context, dutyTypeID id.DutyTypeID) (bool, error) {
	ok, err := s.directory.Exists(ctx, dutyTypeID)
	if err != nil {
		return false, wrapErr(err, "failed to look up duty type")
	}
	return ok, nil
}

func (s *Service) List(ctx context.Context) ([]*models.DutyType, error) {
	types, err := s.store.List(ctx)
	if err != nil {
		return nil, wrapErr(err, "failed to list duty types")
	}
	if types == nil {
		types = []*models.DutyType{}
	}
	return types, nil
}

func (s *Service) Create(ctx context.Context, req *models.CreateRequest) (*models.DutyType, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	dt := &models.DutyType{Name: req.Name, CreatedAt: requestcontext.Now(ctx)}
	if err := s.store.Create(ctx, dt); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			return nil, dErrors.New(dErrors.CodeConflict, "duty type already exists")
		}
		return nil, wrapErr(err, "failed to create duty type")
	}
	s.logger.Info("duty type created", zap.Int64("duty_type_id", int64(dt.ID)), zap.String("name", dt.Name))
	return dt, nil
}

// Delete removes a duty type no guard references.
func (s *Service) Delete(ctx context.Context, dutyTypeID id.DutyTypeID) error {
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		n, err := s.usage.CountByDutyType(txCtx, dutyTypeID)
		if err != nil {
			return err
		}
		if n > 0 {
			return dErrors.New(dErrors.CodeConflict, "duty type is assigned to guards")
		}
		return s.store.Delete(txCtx, dutyTypeID)
	})
	if err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return dErrors.New(dErrors.CodeConflict, "duty type is assigned to guards")
		}
		return wrapErr(err, "failed to delete duty type")
	}
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, dutyTypeID); err != nil {
			s.logger.Warn("duty type cache invalidation failed", zap.Error(err))
		}
	}
	s.logger.Info("duty type deleted", zap.Int64("duty_type_id", int64(dutyTypeID)))
	return nil
}

func wrapErr(err error, msg string) error {
	var de *dErrors.Error
	switch {
	case errors.As(err, &de):
		return err
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "duty type not found")
	case errors.Is(err, sentinel.ErrUnavailable):
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "store temporarily unavailable")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, msg)
}
