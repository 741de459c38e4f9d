package sequence

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "guardhouse/pkg/domain"
	dErrors "guardhouse/pkg/domain-errors"
	"guardhouse/pkg/platform/sentinel"
	"guardhouse/pkg/platform/tx"
)

func TestPostgres_Next(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO owner_sequences .*FROM guards WHERE supervisor_id = \$1.*ON CONFLICT \(owner_id, kind\)`).
		WithArgs(int64(7), "dependent").
		WillReturnRows(sqlmock.NewRows([]string{"last_value"}).AddRow(int64(4)))
	mock.ExpectCommit()

	var seq id.Sequence
	err = tx.NewPostgresRunner(db).RunInTx(context.Background(), func(ctx context.Context) error {
		var err error
		seq, err = NewPostgres().Next(ctx, 7, KindDependent)
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, id.Sequence(4), seq)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_EventScopeCoversAdministrativeRows(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM notifications WHERE COALESCE\(supervisor_id, 0\) = \$1`).
		WithArgs(int64(0), "event").
		WillReturnRows(sqlmock.NewRows([]string{"last_value"}).AddRow(int64(1)))
	mock.ExpectCommit()

	err = tx.NewPostgresRunner(db).RunInTx(context.Background(), func(ctx context.Context) error {
		_, err := NewPostgres().Next(ctx, id.AdminScope, KindEvent)
		return err
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_ClassifiesLockFailures(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO owner_sequences`).
		WillReturnError(&pgconn.PgError{Code: "40P01", Message: "deadlock detected"})
	mock.ExpectRollback()

	err = tx.NewPostgresRunner(db).RunInTx(context.Background(), func(ctx context.Context) error {
		_, err := NewPostgres().Next(ctx, 7, KindDependent)
		return err
	})
	require.ErrorIs(t, err, sentinel.ErrUnavailable)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_RequiresTransaction(t *testing.T) {
	_, err := NewPostgres().Next(context.Background(), 7, KindDependent)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInternal))

	err = NewPostgres().Forget(context.Background(), 7)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInternal))
}

func TestPostgres_Forget(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM owner_sequences WHERE owner_id = \$1`).
		WithArgs(int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	err = tx.NewPostgresRunner(db).RunInTx(context.Background(), func(ctx context.Context) error {
		return NewPostgres().Forget(ctx, 7)
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
