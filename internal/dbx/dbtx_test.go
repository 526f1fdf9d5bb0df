package dbx

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func insertProfile(ctx context.Context, tx DBTX) error {
	_, err := tx.ExecContext(ctx, "INSERT INTO profiles (id) VALUES ($1)", "u1")
	return err
}

func TestWithTx_Commits(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO profiles").WithArgs("u1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, WithTx(context.Background(), db, insertProfile))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTx_RollsBackOnError(t *testing.T) {
	db, mock := newMock(t)
	boom := errors.New("duplicate key")
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO profiles").WillReturnError(boom)
	mock.ExpectRollback()

	err := WithTx(context.Background(), db, insertProfile)

	assert.ErrorIs(t, err, boom)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTx_JoinsRollbackFailure(t *testing.T) {
	db, mock := newMock(t)
	boom := errors.New("boom")
	rbErr := errors.New("connection reset")
	mock.ExpectBegin()
	mock.ExpectRollback().WillReturnError(rbErr)

	err := WithTx(context.Background(), db, func(context.Context, DBTX) error { return boom })

	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, err, rbErr)
}

func TestWithTx_CommitFailure(t *testing.T) {
	db, mock := newMock(t)
	cErr := errors.New("serialization failure")
	mock.ExpectBegin()
	mock.ExpectCommit().WillReturnError(cErr)

	err := WithTx(context.Background(), db, func(context.Context, DBTX) error { return nil })

	assert.ErrorIs(t, err, cErr)
}

func TestWithTx_RollsBackAndRepanics(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectRollback()

	assert.PanicsWithValue(t, "kaput", func() {
		_ = WithTx(context.Background(), db, func(context.Context, DBTX) error { panic("kaput") })
	})
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTx_BeginFailure(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectBegin().WillReturnError(sql.ErrConnDone)

	called := false
	err := WithTx(context.Background(), db, func(context.Context, DBTX) error {
		called = true
		return nil
	})

	assert.ErrorIs(t, err, sql.ErrConnDone)
	assert.False(t, called)
}
