package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"sync"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/homeshare/internal/common"
	"github.com/dmitrijs2005/homeshare/internal/dbx"
	"github.com/dmitrijs2005/homeshare/internal/logging"
	"github.com/dmitrijs2005/homeshare/internal/server/models"
	"github.com/dmitrijs2005/homeshare/internal/server/repositories/passwordresets"
	"github.com/dmitrijs2005/homeshare/internal/server/repositories/profiles"
	"github.com/dmitrijs2005/homeshare/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/homeshare/internal/server/repositories/rows"
	"github.com/dmitrijs2005/homeshare/internal/server/repositories/users"
)

type nopLogger struct{}

func (nopLogger) Debug(context.Context, string, ...any) {}
func (nopLogger) Info(context.Context, string, ...any)  {}
func (nopLogger) Warn(context.Context, string, ...any)  {}
func (nopLogger) Error(context.Context, string, ...any) {}
func (n nopLogger) With(...any) logging.Logger          { return n }

type errBoom struct{}

func (errBoom) Error() string { return "boom" }

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

type fakeUsersRepo struct {
	byEmail map[string]*models.User
	byID    map[string]*models.User

	createErr error
	getErr    error
	updateErr error

	created   []*models.User
	passwords map[string]string
}

func newFakeUsers(us ...*models.User) *fakeUsersRepo {
	f := &fakeUsersRepo{byEmail: map[string]*models.User{}, byID: map[string]*models.User{}, passwords: map[string]string{}}
	for _, u := range us {
		f.byEmail[u.Email] = u
		f.byID[u.ID] = u
	}
	return f
}

func (f *fakeUsersRepo) Create(_ context.Context, u *models.User) (*models.User, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	if _, ok := f.byEmail[u.Email]; ok {
		return nil, common.ErrorAlreadyExists
	}
	f.created = append(f.created, u)
	f.byEmail[u.Email] = u
	f.byID[u.ID] = u
	return u, nil
}

func (f *fakeUsersRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	u, ok := f.byEmail[email]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return u, nil
}

func (f *fakeUsersRepo) GetByID(_ context.Context, id string) (*models.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	u, ok := f.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return u, nil
}

func (f *fakeUsersRepo) UpdatePassword(_ context.Context, id, hash string) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.passwords[id] = hash
	return nil
}

type fakeRefreshRepo struct {
	tokens map[string]*models.RefreshToken

	findErr   error
	delErr    error
	createErr error

	deletedUsers []string
}

func newFakeRefresh(ts ...*models.RefreshToken) *fakeRefreshRepo {
	f := &fakeRefreshRepo{tokens: map[string]*models.RefreshToken{}}
	for _, t := range ts {
		f.tokens[t.Token] = t
	}
	return f
}

func (f *fakeRefreshRepo) Create(_ context.Context, t *models.RefreshToken) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.tokens[t.Token] = t
	return nil
}

func (f *fakeRefreshRepo) Find(_ context.Context, token string) (*models.RefreshToken, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	t, ok := f.tokens[token]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return t, nil
}

func (f *fakeRefreshRepo) Delete(_ context.Context, token string) error {
	if f.delErr != nil {
		return f.delErr
	}
	delete(f.tokens, token)
	return nil
}

func (f *fakeRefreshRepo) DeleteByUser(_ context.Context, userID string) error {
	if f.delErr != nil {
		return f.delErr
	}
	f.deletedUsers = append(f.deletedUsers, userID)
	for k, t := range f.tokens {
		if t.UserID == userID {
			delete(f.tokens, k)
		}
	}
	return nil
}

type fakeResetRepo struct {
	resets    map[string]*models.PasswordReset
	createErr error
}

func (f *fakeResetRepo) Create(_ context.Context, r *models.PasswordReset) error {
	if f.createErr != nil {
		return f.createErr
	}
	if f.resets == nil {
		f.resets = map[string]*models.PasswordReset{}
	}
	f.resets[r.Token] = r
	return nil
}

func (f *fakeResetRepo) Take(_ context.Context, token string) (*models.PasswordReset, error) {
	r, ok := f.resets[token]
	if !ok {
		return nil, common.ErrorNotFound
	}
	delete(f.resets, token)
	return r, nil
}

func (f *fakeResetRepo) DeleteByUser(_ context.Context, userID string) error {
	for k, r := range f.resets {
		if r.UserID == userID {
			delete(f.resets, k)
		}
	}
	return nil
}

type fakeProfilesRepo struct {
	created [][3]string
	err     error
}

func (f *fakeProfilesRepo) Create(_ context.Context, id, first, last string) error {
	if f.err != nil {
		return f.err
	}
	f.created = append(f.created, [3]string{id, first, last})
	return nil
}

type fakeRowsRepo struct {
	mu sync.Mutex

	selects []rows.SelectQuery
	updates []rows.UpdateQuery
	inserts []rows.InsertQuery

	selectOut []json.RawMessage
	insertOut []json.RawMessage
	affected  int64
	err       error
}

func (f *fakeRowsRepo) Select(_ context.Context, q rows.SelectQuery) ([]json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.selects = append(f.selects, q)
	return f.selectOut, f.err
}

func (f *fakeRowsRepo) Update(_ context.Context, q rows.UpdateQuery) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, q)
	return f.affected, f.err
}

func (f *fakeRowsRepo) Insert(_ context.Context, q rows.InsertQuery) ([]json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inserts = append(f.inserts, q)
	return f.insertOut, f.err
}

type fakeRepoManager struct {
	u  *fakeUsersRepo
	r  *fakeRefreshRepo
	pr *fakeResetRepo
	p  *fakeProfilesRepo
	rw *fakeRowsRepo
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error        { return nil }
func (m *fakeRepoManager) Users(dbx.DBTX) users.Repository                     { return m.u }
func (m *fakeRepoManager) RefreshTokens(dbx.DBTX) refreshtokens.Repository     { return m.r }
func (m *fakeRepoManager) PasswordResets(dbx.DBTX) passwordresets.Repository   { return m.pr }
func (m *fakeRepoManager) Profiles(dbx.DBTX) profiles.Repository               { return m.p }
func (m *fakeRepoManager) Rows(dbx.DBTX) rows.Repository                       { return m.rw }

type fakeMailer struct {
	to, link string
	err      error
	calls    int
}

func (f *fakeMailer) SendPasswordReset(_ context.Context, to, link string) error {
	f.calls++
	f.to, f.link = to, link
	return f.err
}
