package sequence

import (
	"context"
	"fmt"

	"guardhouse/internal/platform/database"
	id "guardhouse/pkg/domain"
	dErrors "guardhouse/pkg/domain-errors"
	"guardhouse/pkg/platform/tx"
)

// The first allocation for a scope is seeded from the rows already present so
// that data loaded before the counter existed is respected. Every later
// allocation only increments the counter, so purged rows never give their
// number back. The upsert row-locks (owner_id, kind) until the transaction ends.
const nextQueryTemplate = `
	INSERT INTO owner_sequences (owner_id, kind, last_value)
	VALUES ($1, $2, 1 + COALESCE((%s), 0))
	ON CONFLICT (owner_id, kind) DO UPDATE
		SET last_value = owner_sequences.last_value + 1
	RETURNING last_value`

var seedQueries = map[Kind]string{
	KindDependent: `SELECT MAX(local_guard_id) FROM guards WHERE supervisor_id = $1`,
	KindEvent:     `SELECT MAX(local_notification_id) FROM notifications WHERE COALESCE(supervisor_id, 0) = $1`,
}

// Postgres allocates from the owner_sequences counter table using the
// transaction carried by the context.
type Postgres struct {
	queries map[Kind]string
}

func NewPostgres() *Postgres {
	queries := make(map[Kind]string, len(seedQueries))
	for kind, seed := range seedQueries {
		queries[kind] = fmt.Sprintf(nextQueryTemplate, seed)
	}
	return &Postgres{queries: queries}
}

func (p *Postgres) Next(ctx context.Context, scope id.OwnerID, kind Kind) (id.Sequence, error) {
	query, ok := p.queries[kind]
	if !ok {
		return 0, errUnknownKind(kind)
	}
	sqlTx, ok := tx.From(ctx)
	if !ok {
		return 0, dErrors.New(dErrors.CodeInternal, "sequence allocation requires an active transaction")
	}

	var value int64
	if err := sqlTx.QueryRowContext(ctx, query, int64(scope), string(kind)).Scan(&value); err != nil {
		return 0, fmt.Errorf("allocate %s sequence for scope %d: %w", kind, scope, database.Classify(err))
	}
	return id.Sequence(value), nil
}

func (p *Postgres) Forget(ctx context.Context, scope id.OwnerID) error {
	sqlTx, ok := tx.From(ctx)
	if !ok {
		return dErrors.New(dErrors.CodeInternal, "sequence reset requires an active transaction")
	}
	if _, err := sqlTx.ExecContext(ctx, `DELETE FROM owner_sequences WHERE owner_id = $1`, int64(scope)); err != nil {
		return fmt.Errorf("forget sequences for scope %d: %w", scope, database.Classify(err))
	}
	return nil
}
