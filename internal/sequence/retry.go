package sequence

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"

	dErrors "guardhouse/pkg/domain-errors"
	"guardhouse/pkg/platform/sentinel"
)

// Policy bounds how often a unit of work that allocates a sequence is re-run.
type Policy struct {
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultPolicy runs a unit of work at most three times.
var DefaultPolicy = Policy{
	MaxAttempts:     3,
	InitialInterval: 10 * time.Millisecond,
	MaxInterval:     100 * time.Millisecond,
}

// Retry runs fn under DefaultPolicy.
func Retry(ctx context.Context, fn func(ctx context.Context) error) error {
	return DefaultPolicy.Retry(ctx, fn)
}

// Retry runs fn, which must open its own unit of work, until it succeeds,
// fails with a non-retryable error, or the attempts run out. Allocation
// conflicts and transient store failures are retried. When attempts run out on
// either of them the error is reported as a conflict the caller may resubmit.
func (p Policy) Retry(ctx context.Context, fn func(ctx context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = p.InitialInterval
	expo.MaxInterval = p.MaxInterval
	expo.MaxElapsedTime = 0
	policy := backoff.WithContext(backoff.WithMaxRetries(expo, uint64(attempts-1)), ctx)

	err := backoff.Retry(func() error {
		err := fn(ctx)
		if err == nil || Retryable(err) {
			return err
		}
		return backoff.Permanent(err)
	}, policy)
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, sentinel.ErrAllocationConflict):
		return dErrors.Wrap(err, dErrors.CodeConflict, "sequence allocation kept conflicting, try again")
	case errors.Is(err, sentinel.ErrUnavailable):
		return dErrors.Wrap(err, dErrors.CodeConflict, "sequence allocation did not complete, try again")
	}
	return err
}

// Retryable reports whether re-running the unit of work may succeed.
func Retryable(err error) bool {
	return errors.Is(err, sentinel.ErrAllocationConflict) || errors.Is(err, sentinel.ErrUnavailable)
}
