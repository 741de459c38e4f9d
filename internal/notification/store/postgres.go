package store

import (
	"context"
	"database/sql"
	"fmt"

	"guardhouse/internal/notification/models"
	"guardhouse/internal/platform/database"
	id "guardhouse/pkg/domain"
	"guardhouse/pkg/platform/sentinel"
)

// scopeFilter matches the owner's rows, or the rows without an owner for the
// administrative scope; $1 is the scope owner.
const scopeFilter = `COALESCE(supervisor_id, 0) = $1`

// PostgresStore persists events in the notifications table. A NULL
// supervisor_id marks an administrative event.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, e *models.Event) error {
	var owner sql.NullInt64
	if !e.Scope().IsAdmin() {
		owner = sql.NullInt64{Int64: int64(e.OwnerID), Valid: true}
	}
	var eventID int64
	err := database.Q(ctx, s.db).QueryRowContext(ctx, `
		INSERT INTO notifications (supervisor_id, local_notification_id, type, message, is_read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`,
		owner, int64(e.Sequence), string(e.Type), e.Message, e.IsRead, e.CreatedAt,
	).Scan(&eventID)
	if err != nil {
		return fmt.Errorf("insert notification: %w", database.Classify(err))
	}
	e.ID = id.EventID(eventID)
	return nil
}

func (s *PostgresStore) List(ctx context.Context, scope models.Scope, unreadOnly bool) ([]*models.Event, error) {
	query := `
		SELECT id, supervisor_id, local_notification_id, type, message, is_read, created_at
		FROM notifications
		WHERE ` + scopeFilter
	if unreadOnly {
		query += ` AND NOT is_read`
	}
	query += ` ORDER BY local_notification_id DESC`

	rows, err := database.Q(ctx, s.db).QueryContext(ctx, query, int64(scope.Owner()))
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", database.Classify(err))
	}
	defer rows.Close()

	var events []*models.Event
	for rows.Next() {
		var (
			e            models.Event
			eventID, seq int64
			owner        sql.NullInt64
			eventType    string
		)
		if err := rows.Scan(&eventID, &owner, &seq, &eventType, &e.Message, &e.IsRead, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		e.ID = id.EventID(eventID)
		e.OwnerID = id.OwnerID(owner.Int64)
		e.Sequence = id.Sequence(seq)
		e.Type = models.Type(eventType)
		events = append(events, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notifications: %w", err)
	}
	return events, nil
}

func (s *PostgresStore) CountUnread(ctx context.Context, scope models.Scope) (int, error) {
	var n int
	err := database.Q(ctx, s.db).QueryRowContext(ctx,
		`SELECT COUNT(*) FROM notifications WHERE `+scopeFilter+` AND NOT is_read`, int64(scope.Owner())).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count unread notifications: %w", database.Classify(err))
	}
	return n, nil
}

// MarkRead is idempotent: an already read event still counts as found.
func (s *PostgresStore) MarkRead(ctx context.Context, scope models.Scope, seq id.Sequence) error {
	res, err := database.Q(ctx, s.db).ExecContext(ctx,
		`UPDATE notifications SET is_read = TRUE WHERE `+scopeFilter+` AND local_notification_id = $2`,
		int64(scope.Owner()), int64(seq))
	if err != nil {
		return fmt.Errorf("mark notification read: %w", database.Classify(err))
	}
	return requireRow(res)
}

func (s *PostgresStore) MarkAllRead(ctx context.Context, scope models.Scope) (int, error) {
	res, err := database.Q(ctx, s.db).ExecContext(ctx,
		`UPDATE notifications SET is_read = TRUE WHERE `+scopeFilter+` AND NOT is_read`, int64(scope.Owner()))
	if err != nil {
		return 0, fmt.Errorf("mark all notifications read: %w", database.Classify(err))
	}
	return affected(res)
}

func (s *PostgresStore) Delete(ctx context.Context, scope models.Scope, seq id.Sequence) error {
	res, err := database.Q(ctx, s.db).ExecContext(ctx,
		`DELETE FROM notifications WHERE `+scopeFilter+` AND local_notification_id = $2`,
		int64(scope.Owner()), int64(seq))
	if err != nil {
		return fmt.Errorf("delete notification: %w", database.Classify(err))
	}
	return requireRow(res)
}

func (s *PostgresStore) DeleteAll(ctx context.Context, scope models.Scope) (int, error) {
	res, err := database.Q(ctx, s.db).ExecContext(ctx,
		`DELETE FROM notifications WHERE `+scopeFilter, int64(scope.Owner()))
	if err != nil {
		return 0, fmt.Errorf("delete notifications: %w", database.Classify(err))
	}
	return affected(res)
}

func affected(res sql.Result) (int, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return int(n), nil
}

func requireRow(res sql.Result) error {
	n, err := affected(res)
	if err != nil {
		return err
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}
