// Package tx is the unit of work every aggregate write runs in. The open
// transaction travels in the context so stores never take it as a parameter.
package tx

import (
	"context"
	"database/sql"
)

// Runner commits when fn returns nil and rolls back otherwise. Called with a
// context that already carries a unit of work, it joins that one.
type Runner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type sqlTxKey struct{}

// WithTx attaches sqlTx to ctx. A nil sqlTx leaves ctx unchanged.
func WithTx(ctx context.Context, sqlTx *sql.Tx) context.Context {
	if sqlTx == nil {
		return ctx
	}
	return context.WithValue(ctx, sqlTxKey{}, sqlTx)
}

// From returns the SQL transaction opened by PostgresRunner, if any.
func From(ctx context.Context) (*sql.Tx, bool) {
	sqlTx, ok := ctx.Value(sqlTxKey{}).(*sql.Tx)
	return sqlTx, ok
}

// InUnitOfWork reports whether ctx carries either kind of unit of work.
func InUnitOfWork(ctx context.Context) bool {
	if _, ok := ctx.Value(journalKey{}).(*journal); ok {
		return true
	}
	_, ok := From(ctx)
	return ok
}
