// Package service is the roster's aggregate writer. Every write to a guard
// aggregate (the guard row with its emergency contacts and documents) or to a
// supervisor runs in one unit of work together with its outbox entry. Side
// effects owed to people (notifications, pushes) are handed to the dispatcher
// only after the unit of work has committed.
package service

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"guardhouse/internal/dispatch"
	notification "guardhouse/internal/notification/models"
	"guardhouse/internal/outbox"
	"guardhouse/internal/roster/metrics"
	"guardhouse/internal/roster/models"
	"guardhouse/internal/sequence"
	id "guardhouse/pkg/domain"
	dErrors "guardhouse/pkg/domain-errors"
	"guardhouse/pkg/platform/sentinel"
	"guardhouse/pkg/platform/tx"
)

const recentDependentsLimit = 5

type OwnerStore interface {
	Create(ctx context.Context, o *models.Owner) error
	FindByID(ctx context.Context, ownerID id.OwnerID) (*models.Owner, error)
	List(ctx context.Context) ([]*models.Owner, error)
	Count(ctx context.Context) (int, error)
	FindByIDForShare(ctx context.Context, ownerID id.OwnerID) (*models.Owner, error)
	Execute(ctx context.Context, ownerID id.OwnerID, validate func(*models.Owner) error, mutate func(*models.Owner)) (*models.Owner, error)
	Delete(ctx context.Context, ownerID id.OwnerID) error
}

type DependentStore interface {
	Create(ctx context.Context, d *models.Dependent) error
	FindByID(ctx context.Context, dependentID id.DependentID) (*models.Dependent, error)
	FindBySequence(ctx context.Context, ownerID id.OwnerID, seq id.Sequence) (*models.Dependent, error)
	Execute(ctx context.Context, ownerID id.OwnerID, seq id.Sequence, validate func(*models.Dependent) error, mutate func(*models.Dependent)) (*models.Dependent, error)
	ReplaceContacts(ctx context.Context, dependentID id.DependentID, contacts []models.EmergencyContact) ([]models.EmergencyContact, error)
	AppendDocuments(ctx context.Context, dependentID id.DependentID, docs []models.Document) ([]models.Document, error)
	Delete(ctx context.Context, dependentID id.DependentID) ([]models.Document, error)
	DeleteByOwner(ctx context.Context, ownerID id.OwnerID) ([]models.Document, error)
	ListByOwner(ctx context.Context, ownerID id.OwnerID, search string) ([]*models.Dependent, error)
	ListRecent(ctx context.Context, limit int) ([]*models.Dependent, error)
	CountActiveByOwner(ctx context.Context, ownerID id.OwnerID) (int, error)
	Count(ctx context.Context) (int, error)
}

// DutyTypeDirectory answers whether a duty type may be referenced.
type DutyTypeDirectory interface {
	Exists(ctx context.Context, dutyTypeID id.DutyTypeID) (bool, error)
}

type OutboxAppender interface {
	Append(ctx context.Context, e *outbox.Entry) error
}

// Dispatcher receives intents after commit. It must not block the caller.
type Dispatcher interface {
	Dispatch(ctx context.Context, intent dispatch.Intent)
}

// EventPurger removes a supervisor's notifications when the supervisor is purged.
type EventPurger interface {
	DeleteAll(ctx context.Context, scope notification.Scope) (int, error)
}

// ObjectRemover releases stored files once the rows pointing at them are gone.
type ObjectRemover interface {
	Delete(ctx context.Context, ref string) error
}

type Service struct {
	owners     OwnerStore
	dependents DependentStore
	dutyTypes  DutyTypeDirectory
	alloc      sequence.Allocator
	outbox     OutboxAppender
	events     EventPurger
	tx         tx.Runner
	retry      sequence.Policy
	dispatcher Dispatcher
	objects    ObjectRemover
	logger     *zap.Logger
	metrics    *metrics.Metrics
	tracer     trace.Tracer
}

// Deps groups the collaborators every Service needs.
type Deps struct {
	Owners     OwnerStore
	Dependents DependentStore
	DutyTypes  DutyTypeDirectory
	Allocator  sequence.Allocator
	Outbox     OutboxAppender
	Events     EventPurger
	Runner     tx.Runner
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

func WithDispatcher(d Dispatcher) Option {
	return func(s *Service) {
		if d != nil {
			s.dispatcher = d
		}
	}
}

// WithObjectStore lets purges release the files of removed documents.
func WithObjectStore(o ObjectRemover) Option {
	return func(s *Service) {
		s.objects = o
	}
}

// WithRetryPolicy overrides sequence.DefaultPolicy.
func WithRetryPolicy(p sequence.Policy) Option {
	return func(s *Service) {
		s.retry = p
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(s *Service) {
		if t != nil {
			s.tracer = t
		}
	}
}

func New(deps Deps, opts ...Option) *Service {
	s := &Service{
		owners:     deps.Owners,
		dependents: deps.Dependents,
		dutyTypes:  deps.DutyTypes,
		alloc:      deps.Allocator,
		outbox:     deps.Outbox,
		events:     deps.Events,
		tx:         deps.Runner,
		retry:      sequence.DefaultPolicy,
		dispatcher: noopDispatcher{},
		logger:     zap.NewNop(),
		tracer:     otel.Tracer("guardhouse/roster"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type noopDispatcher struct{}

func (noopDispatcher) Dispatch(context.Context, dispatch.Intent) {}

// start opens a span for operation and returns the function that closes it
// and records the outcome. Call it as `defer done(&err)`.
func (s *Service) start(ctx context.Context, operation string, attrs ...attribute.KeyValue) (context.Context, func(*error)) {
	ctx, span := s.tracer.Start(ctx, "roster."+operation, trace.WithAttributes(attrs...))
	started := time.Now()
	return ctx, func(errp *error) {
		var err error
		if errp != nil {
			err = *errp
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, string(dErrors.CodeOf(err)))
		}
		span.End()
		if s.metrics != nil {
			s.metrics.ObserveWrite(operation, started, err)
		}
	}
}

// appendOutbox writes an outbox entry inside the current unit of work.
func (s *Service) appendOutbox(ctx context.Context, aggregateType, aggregateID, eventType string, payload any, now time.Time) error {
	entry, err := outbox.NewEntry(aggregateType, aggregateID, eventType, payload, now)
	if err != nil {
		return err
	}
	return s.outbox.Append(ctx, entry)
}

// release deletes stored files best effort. The rows referencing them are
// already gone, so a failure only leaves an orphaned file behind.
func (s *Service) release(ctx context.Context, refs []string) {
	if s.objects == nil {
		return
	}
	for _, ref := range refs {
		if ref == "" {
			continue
		}
		result := "ok"
		if err := s.objects.Delete(ctx, ref); err != nil {
			result = "error"
			s.logger.Warn("failed to release stored file", zap.String("ref", ref), zap.Error(err))
		}
		if s.metrics != nil {
			s.metrics.ObjectsReleased.WithLabelValues(result).Inc()
		}
	}
}

func documentRefs(docs []models.Document) []string {
	refs := make([]string, 0, len(docs))
	for _, d := range docs {
		refs = append(refs, d.Reference)
	}
	return refs
}

func ownerAttr(ownerID id.OwnerID) attribute.KeyValue {
	return attribute.Int64("supervisor.id", int64(ownerID))
}

func seqAttr(seq id.Sequence) attribute.KeyValue {
	return attribute.Int64("guard.sequence", int64(seq))
}

// wrapErr translates store sentinels; errors that already carry a domain code
// pass through, except invariant violations, which surface as conflicts with
// the record's current state.
func wrapErr(err error, notFound, msg string) error {
	var de *dErrors.Error
	switch {
	case errors.As(err, &de):
		if de.Code == dErrors.CodeInvariantViolation {
			return dErrors.New(dErrors.CodeConflict, de.Message)
		}
		return err
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, notFound)
	case errors.Is(err, sentinel.ErrAlreadyUsed):
		return dErrors.Wrap(err, dErrors.CodeConflict, "phone or email is already registered")
	case errors.Is(err, sentinel.ErrInvalidReference):
		return dErrors.Wrap(err, dErrors.CodeInvalidReference, "referenced record does not exist")
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.Wrap(err, dErrors.CodeConflict, "record is still referenced")
	case errors.Is(err, sentinel.ErrUnavailable):
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "store temporarily unavailable")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, msg)
}
