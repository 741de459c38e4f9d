package tx

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "guardhouse/pkg/domain-errors"
)

func TestMemoryRunner_RollsBackInReverseOrder(t *testing.T) {
	runner := NewMemoryRunner()
	var order []string
	boom := errors.New("boom")

	err := runner.RunInTx(context.Background(), func(ctx context.Context) error {
		assert.True(t, InUnitOfWork(ctx))
		OnRollback(ctx, func() { order = append(order, "first") })
		OnRollback(ctx, func() { order = append(order, "second") })
		return boom
	})

	require.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"second", "first"}, order)
}

func TestMemoryRunner_CommitDiscardsUndo(t *testing.T) {
	runner := NewMemoryRunner()
	called := false

	err := runner.RunInTx(context.Background(), func(ctx context.Context) error {
		OnRollback(ctx, func() { called = true })
		return nil
	})

	require.NoError(t, err)
	assert.False(t, called)
}

func TestMemoryRunner_NestedJoinsOuter(t *testing.T) {
	runner := NewMemoryRunner()
	undone := 0

	err := runner.RunInTx(context.Background(), func(ctx context.Context) error {
		inner := runner.RunInTx(ctx, func(ctx context.Context) error {
			OnRollback(ctx, func() { undone++ })
			return nil
		})
		require.NoError(t, inner)
		return errors.New("outer failed")
	})

	require.Error(t, err)
	assert.Equal(t, 1, undone, "inner work belongs to the outer unit of work")
}

func TestMemoryRunner_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewMemoryRunner().RunInTx(ctx, func(context.Context) error {
		t.Fatal("fn must not run")
		return nil
	})
	assert.True(t, dErrors.HasCode(err, dErrors.CodeTimeout))
}

func TestOnRollbackOutsideUnitOfWork(t *testing.T) {
	assert.NotPanics(t, func() {
		OnRollback(context.Background(), func() {})
	})
	assert.False(t, InUnitOfWork(context.Background()))
}

func TestPostgresRunner_CommitsOnSuccess(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO duty_types`).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	runner := NewPostgresRunner(db)
	err = runner.RunInTx(context.Background(), func(ctx context.Context) error {
		sqlTx, ok := From(ctx)
		require.True(t, ok)
		_, err := sqlTx.ExecContext(ctx, `INSERT INTO duty_types (name) VALUES ($1)`, "Night")
		return err
	})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRunner_RollsBackOnError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectRollback()

	boom := errors.New("boom")
	err = NewPostgresRunner(db).RunInTx(context.Background(), func(ctx context.Context) error {
		return boom
	})

	require.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRunner_MapsCommitError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	commitErr := errors.New("could not serialize access")
	mapped := errors.New("mapped")
	mock.ExpectBegin()
	mock.ExpectCommit().WillReturnError(commitErr)

	runner := NewPostgresRunner(db, WithErrorMapper(func(err error) error {
		assert.ErrorIs(t, err, commitErr)
		return mapped
	}))
	err = runner.RunInTx(context.Background(), func(context.Context) error { return nil })

	require.ErrorIs(t, err, mapped)
	assert.NoError(t, mock.ExpectationsWereMet())
}
