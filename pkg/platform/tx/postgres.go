package tx

import (
	"context"
	"database/sql"
	"time"

	dErrors "guardhouse/pkg/domain-errors"
)

// DefaultTimeout bounds a transaction whose context carries no deadline.
const DefaultTimeout = 5 * time.Second

// PostgresRunner opens a database/sql transaction per unit of work and makes it
// available to stores through the context.
type PostgresRunner struct {
	db        *sql.DB
	timeout   time.Duration
	opts      *sql.TxOptions
	mapCommit func(error) error
}

type PostgresOption func(*PostgresRunner)

// WithTimeout overrides DefaultTimeout.
func WithTimeout(d time.Duration) PostgresOption {
	return func(r *PostgresRunner) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithTxOptions sets the isolation level and read-only flag for every transaction.
func WithTxOptions(opts *sql.TxOptions) PostgresOption {
	return func(r *PostgresRunner) {
		r.opts = opts
	}
}

// WithErrorMapper translates begin and commit failures (for example SQLSTATE
// classification) before they are returned.
func WithErrorMapper(fn func(error) error) PostgresOption {
	return func(r *PostgresRunner) {
		r.mapCommit = fn
	}
}

func NewPostgresRunner(db *sql.DB, opts ...PostgresOption) *PostgresRunner {
	r := &PostgresRunner{db: db, timeout: DefaultTimeout}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *PostgresRunner) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := From(ctx); ok {
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

	sqlTx, err := r.db.BeginTx(ctx, r.opts)
	if err != nil {
		return r.mapErr(err)
	}
	defer func() {
		_ = sqlTx.Rollback()
	}()

	if err := fn(WithTx(ctx, sqlTx)); err != nil {
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		return r.mapErr(err)
	}
	return nil
}

func (r *PostgresRunner) mapErr(err error) error {
	if r.mapCommit != nil {
		return r.mapCommit(err)
	}
	return err
}
