package outbox

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"guardhouse/pkg/platform/sentinel"
	"guardhouse/pkg/platform/tx"
)

func TestPostgresStore_Append(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	store := NewPostgres(db)

	e, err := NewEntry("dependent", "9", "dependent.created", map[string]int{"sequence": 1}, time.Now())
	require.NoError(t, err)
	mock.ExpectExec(`INSERT INTO outbox`).
		WithArgs(e.ID, "dependent", "9", "dependent.created", []byte(`{"sequence":1}`), e.CreatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, store.Append(context.Background(), e))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ClaimBatch(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	store := NewPostgres(db)

	_, err = store.ClaimBatch(context.Background(), 10, 5)
	require.Error(t, err, "claiming requires a transaction")

	entryID := uuid.New()
	now := time.Now()
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .* FROM outbox\s+WHERE processed_at IS NULL AND attempts < \$2\s+ORDER BY created_at\s+LIMIT \$1\s+FOR UPDATE SKIP LOCKED`).
		WithArgs(10, 5).
		WillReturnRows(sqlmock.NewRows([]string{"id", "aggregate_type", "aggregate_id", "event_type", "payload", "created_at", "attempts", "last_error"}).
			AddRow(entryID.String(), "dependent", "9", "dependent.created", []byte(`{}`), now, 2, "timeout"))
	mock.ExpectExec(`UPDATE outbox SET processed_at = \$2`).
		WithArgs(entryID, now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	sqlTx, err := db.Begin()
	require.NoError(t, err)
	ctx := tx.WithTx(context.Background(), sqlTx)

	entries, err := store.ClaimBatch(ctx, 10, 5)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, entryID, entries[0].ID)
	assert.Equal(t, 2, entries[0].Attempts)
	assert.Equal(t, "timeout", entries[0].LastError)

	require.NoError(t, store.MarkProcessed(ctx, entryID, now))
	require.NoError(t, sqlTx.Commit())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_MarkFailedMissing(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`UPDATE outbox SET attempts = attempts \+ 1, last_error = \$2 WHERE id = \$1`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = NewPostgres(db).MarkFailed(context.Background(), uuid.New(), "boom")
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}
