package repomanager

import (
	"context"
	"database/sql"
	"errors"
	"io/fs"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/homeshare/internal/server/migrations"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDB(t *testing.T) *sql.DB {
	t.Helper()
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func stubGooseUp(t *testing.T, fn func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error) {
	t.Helper()
	orig := gooseUpContext
	gooseUpContext = fn
	t.Cleanup(func() { gooseUpContext = orig })
}

func TestManager_VendsRepositoriesPerHandle(t *testing.T) {
	db := newDB(t)
	m, err := NewPostgresRepositoryManager(db)
	require.NoError(t, err)

	assert.NotNil(t, m.Users(db))
	assert.NotNil(t, m.RefreshTokens(db))
	assert.NotNil(t, m.PasswordResets(db))
	assert.NotNil(t, m.Profiles(db))
	assert.NotNil(t, m.Rows(db))
}

func TestRunMigrations(t *testing.T) {
	db := newDB(t)
	var dir string
	stubGooseUp(t, func(_ context.Context, got *sql.DB, d string, _ ...goose.OptionsFunc) error {
		assert.Same(t, db, got)
		dir = d
		return nil
	})

	require.NoError(t, (&PostgresRepositoryManager{}).RunMigrations(context.Background(), db))
	assert.Equal(t, ".", dir)
}

func TestRunMigrations_Error(t *testing.T) {
	db := newDB(t)
	boom := errors.New("relation already exists")
	stubGooseUp(t, func(context.Context, *sql.DB, string, ...goose.OptionsFunc) error { return boom })

	err := (&PostgresRepositoryManager{}).RunMigrations(context.Background(), db)

	assert.ErrorIs(t, err, boom)
}

func TestEmbeddedSchema_CreatesEveryTable(t *testing.T) {
	b, err := fs.ReadFile(migrations.Migrations, "00001_init.sql")
	require.NoError(t, err)
	schema := string(b)

	assert.True(t, strings.HasPrefix(schema, "-- +goose Up"))
	for _, table := range []string{
		"users", "refresh_tokens", "password_resets", "profiles",
		"properties", "bookings", "invitations", "notifications",
	} {
		assert.Contains(t, schema, "CREATE TABLE "+table+" ", table)
	}
}
