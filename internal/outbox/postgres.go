package outbox

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"guardhouse/internal/platform/database"
	"guardhouse/pkg/platform/sentinel"
	"guardhouse/pkg/platform/tx"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Append(ctx context.Context, e *Entry) error {
	_, err := database.Q(ctx, s.db).ExecContext(ctx, `
		INSERT INTO outbox (id, aggregate_type, aggregate_id, event_type, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		e.ID, e.AggregateType, e.AggregateID, e.EventType, []byte(e.Payload), e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert outbox entry: %w", database.Classify(err))
	}
	return nil
}

// ClaimBatch locks up to limit pending entries, skipping rows another relay
// already holds.
func (s *PostgresStore) ClaimBatch(ctx context.Context, limit, maxAttempts int) ([]*Entry, error) {
	sqlTx, ok := tx.From(ctx)
	if !ok {
		return nil, fmt.Errorf("claim outbox batch: no transaction in context")
	}
	rows, err := sqlTx.QueryContext(ctx, `
		SELECT id, aggregate_type, aggregate_id, event_type, payload, created_at, attempts, last_error
		FROM outbox
		WHERE processed_at IS NULL AND attempts < $2
		ORDER BY created_at
		LIMIT $1
		FOR UPDATE SKIP LOCKED`, limit, maxAttempts)
	if err != nil {
		return nil, fmt.Errorf("claim outbox batch: %w", database.Classify(err))
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		var (
			e         Entry
			payload   []byte
			lastError sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.AggregateType, &e.AggregateID, &e.EventType, &payload, &e.CreatedAt, &e.Attempts, &lastError); err != nil {
			return nil, fmt.Errorf("scan outbox entry: %w", err)
		}
		e.Payload = payload
		e.LastError = lastError.String
		entries = append(entries, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate outbox entries: %w", err)
	}
	return entries, nil
}

func (s *PostgresStore) MarkProcessed(ctx context.Context, entryID uuid.UUID, at time.Time) error {
	res, err := database.Q(ctx, s.db).ExecContext(ctx,
		`UPDATE outbox SET processed_at = $2, attempts = attempts + 1, last_error = NULL WHERE id = $1`, entryID, at)
	if err != nil {
		return fmt.Errorf("mark outbox entry processed: %w", database.Classify(err))
	}
	return requireRow(res)
}

func (s *PostgresStore) MarkFailed(ctx context.Context, entryID uuid.UUID, reason string) error {
	res, err := database.Q(ctx, s.db).ExecContext(ctx,
		`UPDATE outbox SET attempts = attempts + 1, last_error = $2 WHERE id = $1`, entryID, reason)
	if err != nil {
		return fmt.Errorf("mark outbox entry failed: %w", database.Classify(err))
	}
	return requireRow(res)
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}
