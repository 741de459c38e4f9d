package store

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"guardhouse/internal/dutytype/models"
	id "guardhouse/pkg/domain"
	"guardhouse/pkg/platform/sentinel"
)

func TestPostgresStore_CreateAndExists(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	store := NewPostgres(db)
	ctx := context.Background()
	now := time.Now()

	mock.ExpectQuery(`INSERT INTO duty_types`).
		WithArgs("Gate", now).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(5)))
	dt := &models.DutyType{Name: "Gate", CreatedAt: now}
	require.NoError(t, store.Create(ctx, dt))
	assert.Equal(t, id.DutyTypeID(5), dt.ID)

	mock.ExpectQuery(`INSERT INTO duty_types`).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "duty_types_name_key"})
	assert.ErrorIs(t, store.Create(ctx, &models.DutyType{Name: "gate"}), sentinel.ErrAlreadyUsed)

	mock.ExpectQuery(`SELECT 1 FROM duty_types WHERE id = \$1 FOR SHARE`).
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))
	ok, err := store.Exists(ctx, 5)
	require.NoError(t, err)
	assert.True(t, ok)

	mock.ExpectQuery(`SELECT 1 FROM duty_types`).
		WithArgs(int64(6)).
		WillReturnError(sql.ErrNoRows)
	ok, err = store.Exists(ctx, 6)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Delete(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	store := NewPostgres(db)
	ctx := context.Background()

	mock.ExpectExec(`DELETE FROM duty_types WHERE id = \$1`).
		WithArgs(int64(5)).
		WillReturnError(&pgconn.PgError{Code: "23503", ConstraintName: "guards_duty_type_id_fkey",
			Message: `update or delete on table "duty_types" violates foreign key constraint`})
	assert.ErrorIs(t, store.Delete(ctx, 5), sentinel.ErrConflict)

	mock.ExpectExec(`DELETE FROM duty_types`).
		WithArgs(int64(6)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, store.Delete(ctx, 6), sentinel.ErrNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}
