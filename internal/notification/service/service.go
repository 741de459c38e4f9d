package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"guardhouse/internal/notification/metrics"
	"guardhouse/internal/notification/models"
	"guardhouse/internal/sequence"
	id "guardhouse/pkg/domain"
	dErrors "guardhouse/pkg/domain-errors"
	"guardhouse/pkg/platform/sentinel"
	"guardhouse/pkg/platform/tx"
	"guardhouse/pkg/requestcontext"
)

const maxMessageLength = 1000

type Store interface {
	Create(ctx context.Context, e *models.Event) error
	List(ctx context.Context, scope models.Scope, unreadOnly bool) ([]*models.Event, error)
	CountUnread(ctx context.Context, scope models.Scope) (int, error)
	MarkRead(ctx context.Context, scope models.Scope, seq id.Sequence) error
	MarkAllRead(ctx context.Context, scope models.Scope) (int, error)
	Delete(ctx context.Context, scope models.Scope, seq id.Sequence) error
	DeleteAll(ctx context.Context, scope models.Scope) (int, error)
}

// Service records notifications and runs their read/delete lifecycle. Every
// operation is confined to the scope it is given.
type Service struct {
	store   Store
	alloc   sequence.Allocator
	tx      tx.Runner
	retry   sequence.Policy
	logger  *zap.Logger
	metrics *metrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithRetryPolicy overrides sequence.DefaultPolicy.
func WithRetryPolicy(p sequence.Policy) Option {
	return func(s *Service) {
		s.retry = p
	}
}

func New(store Store, alloc sequence.Allocator, runner tx.Runner, opts ...Option) *Service {
	s := &Service{
		store:  store,
		alloc:  alloc,
		tx:     runner,
		retry:  sequence.DefaultPolicy,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Record stores a new event in scope under the next sequence of that scope.
func (s *Service) Record(ctx context.Context, scope models.Scope, eventType models.Type, message string) (*models.Event, error) {
	message = strings.TrimSpace(message)
	if !eventType.IsValid() {
		return nil, dErrors.New(dErrors.CodeValidation, "unknown notification type")
	}
	if message == "" || len(message) > maxMessageLength {
		return nil, dErrors.New(dErrors.CodeValidation, "message must be 1 to 1000 characters")
	}

	var event *models.Event
	err := s.retry.Retry(ctx, func(ctx context.Context) error {
		return s.tx.RunInTx(ctx, func(txCtx context.Context) error {
			seq, err := s.alloc.Next(txCtx, scope.Owner(), sequence.KindEvent)
			if err != nil {
				return err
			}
			e := &models.Event{
				OwnerID:   scope.Owner(),
				Sequence:  seq,
				Type:      eventType,
				Message:   message,
				CreatedAt: requestcontext.Now(txCtx),
			}
			if err := s.store.Create(txCtx, e); err != nil {
				if errors.Is(err, sentinel.ErrInvalidReference) {
					return dErrors.Wrap(err, dErrors.CodeInvalidReference, "supervisor does not exist")
				}
				return err
			}
			event = e
			return nil
		})
	})
	if err != nil {
		return nil, wrapErr(err, "failed to record notification")
	}

	if s.metrics != nil {
		s.metrics.IncRecorded(string(eventType), scope.IsAdmin())
	}
	s.logger.Debug("notification recorded",
		zap.String("scope", scope.String()),
		zap.Int64("sequence", int64(event.Sequence)),
		zap.String("type", string(eventType)),
	)
	return event, nil
}

func (s *Service) List(ctx context.Context, scope models.Scope, unreadOnly bool) ([]*models.Event, error) {
	events, err := s.store.List(ctx, scope, unreadOnly)
	if err != nil {
		return nil, wrapErr(err, "failed to list notifications")
	}
	if events == nil {
		events = []*models.Event{}
	}
	return events, nil
}

func (s *Service) UnreadCount(ctx context.Context, scope models.Scope) (int, error) {
	n, err := s.store.CountUnread(ctx, scope)
	if err != nil {
		return 0, wrapErr(err, "failed to count notifications")
	}
	return n, nil
}

// MarkRead marks one event read. Marking an already read event succeeds.
func (s *Service) MarkRead(ctx context.Context, scope models.Scope, seq id.Sequence) error {
	if err := s.store.MarkRead(ctx, scope, seq); err != nil {
		return wrapErr(err, "failed to mark notification read")
	}
	if s.metrics != nil {
		s.metrics.Read.Inc()
	}
	return nil
}

func (s *Service) MarkAllRead(ctx context.Context, scope models.Scope) (int, error) {
	n, err := s.store.MarkAllRead(ctx, scope)
	if err != nil {
		return 0, wrapErr(err, "failed to mark notifications read")
	}
	if s.metrics != nil {
		s.metrics.Read.Add(float64(n))
	}
	return n, nil
}

func (s *Service) DeleteOne(ctx context.Context, scope models.Scope, seq id.Sequence) error {
	if err := s.store.Delete(ctx, scope, seq); err != nil {
		return wrapErr(err, "failed to delete notification")
	}
	if s.metrics != nil {
		s.metrics.Deleted.Inc()
	}
	return nil
}

func (s *Service) DeleteAll(ctx context.Context, scope models.Scope) (int, error) {
	n, err := s.store.DeleteAll(ctx, scope)
	if err != nil {
		return 0, wrapErr(err, "failed to delete notifications")
	}
	if s.metrics != nil {
		s.metrics.Deleted.Add(float64(n))
	}
	return n, nil
}

// wrapErr translates store sentinels; errors that already carry a domain code pass through.
func wrapErr(err error, msg string) error {
	var de *dErrors.Error
	switch {
	case errors.As(err, &de):
		return err
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "notification not found")
	case errors.Is(err, sentinel.ErrUnavailable):
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "store temporarily unavailable")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, msg)
}
