package dependent

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"guardhouse/internal/roster/models"
	id "guardhouse/pkg/domain"
	"guardhouse/pkg/platform/sentinel"
	"guardhouse/pkg/platform/tx"
)

var guardCols = []string{
	"id", "supervisor_id", "local_guard_id", "name", "phone", "email", "current_address", "permanent_address",
	"emergency_address", "duty_type_id", "duty_start_time", "duty_end_time", "working_location", "work_experience", "reference_by",
	"profile_photo", "status", "termination_reason", "created_at", "updated_at",
}

func newMock(t *testing.T) (*PostgresStore, sqlmock.Sqlmock, func(fn func(ctx context.Context) error) error) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	runner := tx.NewPostgresRunner(db)
	return NewPostgres(db), mock, func(fn func(ctx context.Context) error) error {
		return runner.RunInTx(context.Background(), fn)
	}
}

func TestPostgresStore_CreateWritesAggregate(t *testing.T) {
	store, mock, inTx := newMock(t)
	now := time.Now()
	d := &models.Dependent{
		OwnerID: 4, Sequence: 2, Name: "Ravi", Phone: "9876543210", DutyTypeID: 1,
		EmergencyAddress: "12 Lake Road",
		Status:           models.StatusActive,
		Contacts:         []models.EmergencyContact{{Name: "Asha", Phone: "9123456780"}},
		Documents:        []models.Document{{Reference: "k1", OriginalName: "id.pdf", CreatedAt: now}},
		CreatedAt:        now, UpdatedAt: now,
	}

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO guards`).
		WithArgs(int64(4), int64(2), "Ravi", "9876543210", nil, nil, nil, "12 Lake Road", int64(1),
			nil, nil, nil, nil, nil, nil, "Active", nil, now, now).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(40)))
	mock.ExpectQuery(`INSERT INTO emergency_contacts`).
		WithArgs(int64(40), "Asha", "9123456780").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(400)))
	mock.ExpectQuery(`INSERT INTO documents`).
		WithArgs(int64(40), "k1", "id.pdf", now).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(4000)))
	mock.ExpectCommit()

	require.NoError(t, inTx(func(ctx context.Context) error { return store.Create(ctx, d) }))
	assert.Equal(t, id.DependentID(40), d.ID)
	assert.Equal(t, id.ContactID(400), d.Contacts[0].ID)
	assert.Equal(t, id.DocumentID(4000), d.Documents[0].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_CreateClassifiesViolations(t *testing.T) {
	tests := []struct {
		name string
		err  *pgconn.PgError
		want error
	}{
		{"sequence backstop", &pgconn.PgError{Code: "23505", ConstraintName: "guards_supervisor_sequence_key"}, sentinel.ErrAllocationConflict},
		{"duplicate phone", &pgconn.PgError{Code: "23505", ConstraintName: "guards_phone_key"}, sentinel.ErrAlreadyUsed},
		{"unknown duty type", &pgconn.PgError{Code: "23503", ConstraintName: "guards_duty_type_id_fkey", Message: `insert or update on table "guards" violates foreign key constraint`}, sentinel.ErrInvalidReference},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, mock, inTx := newMock(t)
			mock.ExpectBegin()
			mock.ExpectQuery(`INSERT INTO guards`).WillReturnError(tt.err)
			mock.ExpectRollback()

			err := inTx(func(ctx context.Context) error {
				return store.Create(ctx, &models.Dependent{OwnerID: 1, Sequence: 1, Name: "x", Phone: "9876543210", Status: models.StatusActive})
			})
			assert.ErrorIs(t, err, tt.want)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestPostgresStore_DeleteChildrenFirst(t *testing.T) {
	store, mock, inTx := newMock(t)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id FROM guards WHERE id = \$1 FOR UPDATE`).WithArgs(int64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(9)))
	mock.ExpectQuery(`SELECT id, guard_id, file_path, original_name, created_at FROM documents WHERE guard_id = \$1`).
		WithArgs(int64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "guard_id", "file_path", "original_name", "created_at"}).
			AddRow(int64(1), int64(9), "k1", "id.pdf", now))
	mock.ExpectExec(`DELETE FROM documents WHERE guard_id = \$1`).WithArgs(int64(9)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM emergency_contacts WHERE guard_id = \$1`).WithArgs(int64(9)).WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(`DELETE FROM guards WHERE id = \$1`).WithArgs(int64(9)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	var docs []models.Document
	err := inTx(func(ctx context.Context) error {
		var err error
		docs, err = store.Delete(ctx, 9)
		return err
	})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "k1", docs[0].Reference)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_DeleteMissing(t *testing.T) {
	store, mock, _ := newMock(t)
	mock.ExpectQuery(`SELECT id FROM guards WHERE id = \$1 FOR UPDATE`).WithArgs(int64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := store.Delete(context.Background(), 9)
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet(), "nothing is deleted once the row is gone")
}

func TestPostgresStore_DeleteWaitsForRowLock(t *testing.T) {
	store, mock, inTx := newMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id FROM guards WHERE id = \$1 FOR UPDATE`).WithArgs(int64(9)).
		WillReturnError(&pgconn.PgError{Code: "55P03", Message: "could not obtain lock on row"})
	mock.ExpectRollback()

	err := inTx(func(ctx context.Context) error {
		_, err := store.Delete(ctx, 9)
		return err
	})
	assert.ErrorIs(t, err, sentinel.ErrUnavailable, "a lock timeout is retryable, children are untouched")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_DeleteByOwnerBatches(t *testing.T) {
	store, mock, inTx := newMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id FROM guards WHERE supervisor_id = \$1 FOR UPDATE`).WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)).AddRow(int64(8)))
	mock.ExpectQuery(`FROM documents WHERE guard_id = ANY\(\$1::bigint\[\]\)`).WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "guard_id", "file_path", "original_name", "created_at"}))
	mock.ExpectExec(`DELETE FROM documents WHERE guard_id = ANY`).WithArgs(sqlmock.AnyArg()).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`DELETE FROM emergency_contacts WHERE guard_id = ANY`).WithArgs(sqlmock.AnyArg()).WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(`DELETE FROM guards WHERE id = ANY`).WithArgs(sqlmock.AnyArg()).WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	err := inTx(func(ctx context.Context) error {
		_, err := store.DeleteByOwner(ctx, 3)
		return err
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListByOwnerSearch(t *testing.T) {
	store, mock, _ := newMock(t)
	mock.ExpectQuery(`FROM guards WHERE supervisor_id = \$1 AND name ILIKE \$2 ORDER BY created_at DESC`).
		WithArgs(int64(2), "%ravi%").
		WillReturnRows(sqlmock.NewRows(guardCols))

	out, err := store.ListByOwner(context.Background(), 2, "ravi")
	require.NoError(t, err)
	assert.Empty(t, out)
	require.NoError(t, mock.ExpectationsWereMet())
}
