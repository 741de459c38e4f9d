package sequence

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "guardhouse/pkg/domain-errors"
	"guardhouse/pkg/platform/sentinel"
)

var fastPolicy = Policy{MaxAttempts: 3, InitialInterval: time.Millisecond, MaxInterval: 2 * time.Millisecond}

func TestRetry_SucceedsAfterConflict(t *testing.T) {
	calls := 0
	err := fastPolicy.Retry(context.Background(), func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return fmt.Errorf("insert: %w", sentinel.ErrAllocationConflict)
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetry_ExhaustedConflictBecomesConflict(t *testing.T) {
	calls := 0
	err := fastPolicy.Retry(context.Background(), func(ctx context.Context) error {
		calls++
		return fmt.Errorf("insert: %w", sentinel.ErrAllocationConflict)
	})
	require.Error(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, dErrors.CodeConflict, dErrors.CodeOf(err))
}

func TestRetry_ExhaustedUnavailableBecomesConflict(t *testing.T) {
	calls := 0
	err := fastPolicy.Retry(context.Background(), func(ctx context.Context) error {
		calls++
		return fmt.Errorf("allocate: %w", sentinel.ErrUnavailable)
	})
	require.Error(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, dErrors.CodeConflict, dErrors.CodeOf(err))
	assert.ErrorIs(t, err, sentinel.ErrUnavailable)
}

func TestRetry_DoesNotRetryOtherErrors(t *testing.T) {
	calls := 0
	notFound := dErrors.New(dErrors.CodeNotFound, "owner not found")
	err := fastPolicy.Retry(context.Background(), func(ctx context.Context) error {
		calls++
		return notFound
	})
	assert.Equal(t, 1, calls)
	assert.True(t, errors.Is(err, notFound))
}

func TestRetry_ZeroAttemptsRunsOnce(t *testing.T) {
	calls := 0
	_ = Policy{}.Retry(context.Background(), func(ctx context.Context) error {
		calls++
		return sentinel.ErrAllocationConflict
	})
	assert.Equal(t, 1, calls)
}
