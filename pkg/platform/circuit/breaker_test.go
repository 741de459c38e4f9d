package circuit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// replay feeds outcomes ('F' failure, 'S' success) and returns the open state
// observed after each one.
func replay(b *Breaker, outcomes string) []bool {
	open := make([]bool, 0, len(outcomes))
	for _, o := range outcomes {
		if o == 'F' {
			b.RecordFailure()
		} else {
			b.RecordSuccess()
		}
		open = append(open, b.IsOpen())
	}
	return open
}

func TestBreakerTransitions(t *testing.T) {
	tests := []struct {
		name     string
		opts     []Option
		outcomes string
		open     []bool
	}{
		{
			name:     "opens on the threshold failure",
			opts:     []Option{WithFailureThreshold(3)},
			outcomes: "FFF",
			open:     []bool{false, false, true},
		},
		{
			name:     "success clears the failure streak",
			opts:     []Option{WithFailureThreshold(3)},
			outcomes: "FFSFFF",
			open:     []bool{false, false, false, false, false, true},
		},
		{
			name:     "closes after enough successes",
			opts:     []Option{WithFailureThreshold(1), WithSuccessThreshold(2)},
			outcomes: "FSS",
			open:     []bool{true, true, false},
		},
		{
			name:     "failure while open restarts the success streak",
			opts:     []Option{WithFailureThreshold(1), WithSuccessThreshold(3)},
			outcomes: "FSSFSSS",
			open:     []bool{true, true, true, true, true, true, false},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.open, replay(New("onesignal", tt.opts...), tt.outcomes))
		})
	}
}

func TestBreakerReportsChanges(t *testing.T) {
	b := New("onesignal", WithFailureThreshold(2))
	assert.Equal(t, "onesignal", b.Name())
	assert.Equal(t, StateClosed, b.State())

	fallback, change := b.RecordFailure()
	assert.False(t, fallback)
	assert.Equal(t, StateChange{}, change)

	fallback, change = b.RecordFailure()
	assert.True(t, fallback)
	assert.True(t, change.Opened)

	fallback, change = b.RecordFailure()
	assert.True(t, fallback)
	assert.False(t, change.Opened, "already open")

	primary, change := b.RecordSuccess()
	assert.True(t, primary)
	assert.True(t, change.Closed)
}

func TestBreakerReset(t *testing.T) {
	b := New("onesignal", WithFailureThreshold(1), WithSuccessThreshold(5))
	b.RecordFailure()
	require.True(t, b.IsOpen())

	b.Reset()
	assert.Equal(t, StateClosed, b.State())
	assert.Equal(t, []bool{false}, replay(b, "S"))
}

func TestBreakerAllowProbesOncePerCooldown(t *testing.T) {
	now := time.Date(2026, 5, 4, 8, 0, 0, 0, time.UTC)
	b := New("push", WithFailureThreshold(1), WithCooldown(time.Minute), WithClock(func() time.Time { return now }))

	assert.True(t, b.Allow())
	b.RecordFailure()
	assert.False(t, b.Allow(), "cooling down")

	now = now.Add(time.Minute)
	assert.True(t, b.Allow(), "probe")
	assert.False(t, b.Allow(), "only one probe per cooldown")

	now = now.Add(time.Minute)
	assert.True(t, b.Allow(), "next probe")

	b.RecordSuccess()
	assert.True(t, b.Allow())
	assert.Equal(t, "closed", b.State().String())
}
