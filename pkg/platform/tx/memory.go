package tx

import (
	"context"
	"sync"
	"time"

	dErrors "guardhouse/pkg/domain-errors"
)

type journalKey struct{}

type journal struct {
	undo []func()
}

// MemoryRunner is the in-memory unit of work used by the memory stores.
// It serializes units of work behind one lock and replays registered undo
// functions in reverse order when fn fails, so memory stores get the same
// all-or-nothing behavior as a database transaction.
type MemoryRunner struct {
	mu      sync.Mutex
	timeout time.Duration
}

func NewMemoryRunner() *MemoryRunner {
	return &MemoryRunner{timeout: DefaultTimeout}
}

func (r *MemoryRunner) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(journalKey{}).(*journal); ok {
		return fn(ctx)
	}
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	j := &journal{}
	if err := fn(context.WithValue(ctx, journalKey{}, j)); err != nil {
		for i := len(j.undo) - 1; i >= 0; i-- {
			j.undo[i]()
		}
		return err
	}
	return nil
}

// OnRollback registers undo to run if the enclosing memory unit of work fails.
// Outside a unit of work it does nothing.
func OnRollback(ctx context.Context, undo func()) {
	if j, ok := ctx.Value(journalKey{}).(*journal); ok {
		j.undo = append(j.undo, undo)
	}
}
