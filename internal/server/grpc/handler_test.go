package grpc

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/homeshare/internal/api"
	"github.com/dmitrijs2005/homeshare/internal/common"
	"github.com/dmitrijs2005/homeshare/internal/logging"
	"github.com/dmitrijs2005/homeshare/internal/server/models"
	"github.com/dmitrijs2005/homeshare/internal/server/ratelimit"
	"github.com/dmitrijs2005/homeshare/internal/server/services"
	"github.com/dmitrijs2005/homeshare/internal/validation"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type nopLogger struct{}

func (n nopLogger) Debug(context.Context, string, ...any) {}
func (n nopLogger) Info(context.Context, string, ...any)  {}
func (n nopLogger) Warn(context.Context, string, ...any)  {}
func (n nopLogger) Error(context.Context, string, ...any) {}
func (n nopLogger) With(...any) logging.Logger            { return n }

// ---- fakes ----

type fakeUser struct {
	signUpResp *models.User
	signUpErr  error

	session    *services.Session
	signInErr  error
	refreshErr error

	signOutErr error
	signOutArg [2]string

	user    *models.User
	userErr error

	resetErr    error
	completeErr error
}

func (f *fakeUser) SignUp(ctx context.Context, email, password, firstName, lastName string) (*models.User, error) {
	return f.signUpResp, f.signUpErr
}
func (f *fakeUser) SignIn(ctx context.Context, email, password string) (*services.Session, error) {
	return f.session, f.signInErr
}
func (f *fakeUser) SignOut(ctx context.Context, userID, refreshToken string) error {
	f.signOutArg = [2]string{userID, refreshToken}
	return f.signOutErr
}
func (f *fakeUser) RefreshToken(ctx context.Context, refreshToken string) (*services.Session, error) {
	return f.session, f.refreshErr
}
func (f *fakeUser) GetUser(ctx context.Context, userID string) (*models.User, error) {
	return f.user, f.userErr
}
func (f *fakeUser) SendPasswordReset(ctx context.Context, email, redirectURL string) error {
	return f.resetErr
}
func (f *fakeUser) CompletePasswordReset(ctx context.Context, token, newPassword string) error {
	return f.completeErr
}

type fakeRows struct {
	lastUser   string
	lastSelect services.SelectParams
	lastPatch  map[string]any
	lastFilter []services.Filter
	out        []json.RawMessage
	affected   int64
	err        error
}

func (f *fakeRows) Select(ctx context.Context, userID string, p services.SelectParams) ([]json.RawMessage, error) {
	f.lastUser, f.lastSelect = userID, p
	return f.out, f.err
}
func (f *fakeRows) Update(ctx context.Context, userID, table string, patch map[string]any, filters []services.Filter) (int64, error) {
	f.lastUser, f.lastPatch, f.lastFilter = userID, patch, filters
	return f.affected, f.err
}
func (f *fakeRows) Insert(ctx context.Context, userID, table string, records []map[string]any) ([]json.RawMessage, error) {
	f.lastUser = userID
	return f.out, f.err
}

type fakeStorage struct {
	url       string
	err       error
	lastOwner string
}

func (f *fakeStorage) CreateBucket(ctx context.Context, name string, public bool) error { return f.err }
func (f *fakeStorage) CreateUploadURL(ctx context.Context, userID, bucket, path, contentType string) (string, error) {
	f.lastOwner = userID
	return f.url, f.err
}
func (f *fakeStorage) GetPublicURL(bucket, path string) (string, error) { return f.url, f.err }

// ---- helpers ----

func newServer(t *testing.T, u userSvc, r rowSvc, st storageSvc) *GRPCServer {
	t.Helper()
	l := ratelimit.New(0, 1)
	t.Cleanup(l.Stop)
	return &GRPCServer{
		address:   "127.0.0.1:0",
		users:     u,
		rows:      r,
		storage:   st,
		logger:    nopLogger{},
		jwtSecret: []byte("k"),
		limiter:   l,
		validator: validation.New(),
	}
}

func authed(userID string) context.Context {
	return context.WithValue(context.Background(), UserIDKey, userID)
}

func assertCode(t *testing.T, err error, want codes.Code, msg string) {
	t.Helper()
	require.Error(t, err)
	st, ok := status.FromError(err)
	require.True(t, ok, "not a status error: %v", err)
	assert.Equal(t, want, st.Code())
	if msg != "" {
		assert.Equal(t, msg, st.Message())
	}
}

// ---- tests ----

func TestPing_OK(t *testing.T) {
	s := newServer(t, &fakeUser{}, &fakeRows{}, &fakeStorage{})
	resp, err := s.Ping(context.Background(), &api.Empty{})
	require.NoError(t, err)
	assert.Equal(t, "OK", resp.Status)
}

func TestSignUp(t *testing.T) {
	created := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	u := &fakeUser{signUpResp: &models.User{ID: "u1", Email: "a@b.c", CreatedAt: created}}
	s := newServer(t, u, &fakeRows{}, &fakeStorage{})

	req := &api.SignUpRequest{Email: "a@b.c", Password: "secret1", FirstName: "Ann", LastName: "Lee"}
	resp, err := s.SignUp(context.Background(), req)
	require.NoError(t, err)
	if diff := cmp.Diff(api.User{ID: "u1", Email: "a@b.c", CreatedAt: created}, resp.User); diff != "" {
		t.Errorf("user mismatch (-want +got):\n%s", diff)
	}

	u.signUpErr = common.ErrorAlreadyExists
	_, err = s.SignUp(context.Background(), req)
	assertCode(t, err, codes.AlreadyExists, "user already registered")

	u.signUpErr = errors.New("db down")
	_, err = s.SignUp(context.Background(), req)
	assertCode(t, err, codes.Internal, "internal error")
}

func TestSignUp_Validation(t *testing.T) {
	s := newServer(t, &fakeUser{}, &fakeRows{}, &fakeStorage{})

	_, err := s.SignUp(context.Background(), &api.SignUpRequest{Email: "nope", Password: "123", FirstName: "A", LastName: "B"})
	assertCode(t, err, codes.InvalidArgument, "")
	msg := status.Convert(err).Message()
	assert.Contains(t, msg, "email")
	assert.Contains(t, msg, "password")
}

func TestSignIn(t *testing.T) {
	exp := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	u := &fakeUser{session: &services.Session{
		AccessToken: "A", RefreshToken: "R", ExpiresAt: exp,
		User: &models.User{ID: "u1", Email: "a@b.c"},
	}}
	s := newServer(t, u, &fakeRows{}, &fakeStorage{})

	resp, err := s.SignIn(context.Background(), &api.SignInRequest{Email: "a@b.c", Password: "x"})
	require.NoError(t, err)
	want := &api.Session{AccessToken: "A", RefreshToken: "R", ExpiresAt: exp, User: api.User{ID: "u1", Email: "a@b.c"}}
	if diff := cmp.Diff(want, resp); diff != "" {
		t.Errorf("session mismatch (-want +got):\n%s", diff)
	}

	u.signInErr = common.ErrorUnauthorized
	_, err = s.SignIn(context.Background(), &api.SignInRequest{Email: "a@b.c", Password: "x"})
	assertCode(t, err, codes.Unauthenticated, "invalid login credentials")

	u.signInErr = errors.New("boom")
	_, err = s.SignIn(context.Background(), &api.SignInRequest{Email: "a@b.c", Password: "x"})
	assertCode(t, err, codes.Internal, "")
}

func TestRefreshToken(t *testing.T) {
	u := &fakeUser{session: &services.Session{AccessToken: "a", RefreshToken: "r", User: &models.User{ID: "u1"}}}
	s := newServer(t, u, &fakeRows{}, &fakeStorage{})

	resp, err := s.RefreshToken(context.Background(), &api.RefreshTokenRequest{RefreshToken: "r0"})
	require.NoError(t, err)
	assert.Equal(t, "a", resp.AccessToken)
	assert.Equal(t, "r", resp.RefreshToken)

	u.refreshErr = common.ErrRefreshTokenExpired
	_, err = s.RefreshToken(context.Background(), &api.RefreshTokenRequest{RefreshToken: "r0"})
	assertCode(t, err, codes.Unauthenticated, "refresh token expired")

	u.refreshErr = common.ErrInvalidToken
	_, err = s.RefreshToken(context.Background(), &api.RefreshTokenRequest{RefreshToken: "r0"})
	assertCode(t, err, codes.Unauthenticated, "invalid token")

	_, err = s.RefreshToken(context.Background(), &api.RefreshTokenRequest{})
	assertCode(t, err, codes.InvalidArgument, "")
}

func TestSignOut(t *testing.T) {
	u := &fakeUser{}
	s := newServer(t, u, &fakeRows{}, &fakeStorage{})

	_, err := s.SignOut(authed("u1"), &api.SignOutRequest{RefreshToken: "r"})
	require.NoError(t, err)
	assert.Equal(t, [2]string{"u1", "r"}, u.signOutArg)

	u.signOutErr = common.ErrorForbidden
	_, err = s.SignOut(authed("u1"), &api.SignOutRequest{RefreshToken: "r"})
	assertCode(t, err, codes.PermissionDenied, "")

	_, err = s.SignOut(context.Background(), &api.SignOutRequest{})
	assertCode(t, err, codes.Internal, "")
}

func TestGetUser(t *testing.T) {
	u := &fakeUser{user: &models.User{ID: "u1", Email: "a@b.c"}}
	s := newServer(t, u, &fakeRows{}, &fakeStorage{})

	resp, err := s.GetUser(authed("u1"), &api.Empty{})
	require.NoError(t, err)
	assert.Equal(t, "a@b.c", resp.User.Email)

	u.userErr = common.ErrorNotFound
	_, err = s.GetUser(authed("u1"), &api.Empty{})
	assertCode(t, err, codes.NotFound, "")
}

func TestPasswordReset(t *testing.T) {
	u := &fakeUser{}
	s := newServer(t, u, &fakeRows{}, &fakeStorage{})
	ctx := context.Background()

	_, err := s.SendPasswordReset(ctx, &api.SendPasswordResetRequest{Email: "a@b.c", RedirectURL: "http://app/reset"})
	require.NoError(t, err)

	_, err = s.SendPasswordReset(ctx, &api.SendPasswordResetRequest{Email: "a@b.c", RedirectURL: "not a url"})
	assertCode(t, err, codes.InvalidArgument, "")

	_, err = s.CompletePasswordReset(ctx, &api.CompletePasswordResetRequest{Token: "t", NewPassword: "newpass"})
	require.NoError(t, err)

	u.completeErr = services.ErrResetLinkExpired
	_, err = s.CompletePasswordReset(ctx, &api.CompletePasswordResetRequest{Token: "t", NewPassword: "newpass"})
	assertCode(t, err, codes.InvalidArgument, services.ErrResetLinkExpired.Error())
}

func TestSelect(t *testing.T) {
	r := &fakeRows{out: []json.RawMessage{json.RawMessage(`{"id":"p1"}`)}}
	s := newServer(t, &fakeUser{}, r, &fakeStorage{})

	resp, err := s.Select(authed("u1"), &api.SelectRequest{
		Table:   "properties",
		Filters: []api.Filter{{Column: "id", Op: api.OpEq, Value: "p1"}},
		Order:   &api.Order{Column: "created_at"},
		Limit:   10,
	})
	require.NoError(t, err)
	require.Len(t, resp.Rows, 1)
	assert.Equal(t, "u1", r.lastUser)
	assert.Equal(t, "properties", r.lastSelect.Table)
	require.NotNil(t, r.lastSelect.Order)
	assert.Equal(t, "created_at", r.lastSelect.Order.Column)
	assert.False(t, r.lastSelect.Order.Ascending)
	assert.Equal(t, []services.Filter{{Column: "id", Op: "eq", Value: "p1"}}, r.lastSelect.Filters)

	_, err = s.Select(authed("u1"), &api.SelectRequest{Table: "properties", Filters: []api.Filter{{Column: "id", Op: "like"}}})
	assertCode(t, err, codes.InvalidArgument, "")

	r.err = common.ErrorForbidden
	_, err = s.Select(authed("u1"), &api.SelectRequest{Table: "secrets"})
	assertCode(t, err, codes.PermissionDenied, "")
}

func TestUpdateAndInsert(t *testing.T) {
	r := &fakeRows{affected: 2, out: []json.RawMessage{json.RawMessage(`{}`)}}
	s := newServer(t, &fakeUser{}, r, &fakeStorage{})

	upd, err := s.Update(authed("u1"), &api.UpdateRequest{
		Table: "notifications", Patch: map[string]any{"is_read": true},
		Filters: []api.Filter{{Column: "is_read", Op: api.OpEq, Value: false}},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), upd.Affected)
	assert.Equal(t, map[string]any{"is_read": true}, r.lastPatch)

	ins, err := s.Insert(authed("u1"), &api.InsertRequest{Table: "notifications", Records: []map[string]any{{"type": "system"}}})
	require.NoError(t, err)
	assert.Len(t, ins.Rows, 1)

	_, err = s.Insert(authed("u1"), &api.InsertRequest{Table: "notifications"})
	assertCode(t, err, codes.InvalidArgument, "")
}

func TestStorageHandlers(t *testing.T) {
	st := &fakeStorage{url: "http://signed"}
	s := newServer(t, &fakeUser{}, &fakeRows{}, st)

	_, err := s.CreateBucket(authed("u1"), &api.CreateBucketRequest{Name: "avatars", Public: true})
	require.NoError(t, err)

	up, err := s.CreateUploadURL(authed("u1"), &api.CreateUploadURLRequest{Bucket: "avatars", Path: "u1-a.png"})
	require.NoError(t, err)
	assert.Equal(t, "http://signed", up.URL)
	assert.Equal(t, "u1", st.lastOwner)

	pub, err := s.GetPublicURL(context.Background(), &api.GetPublicURLRequest{Bucket: "avatars", Path: "u1-a.png"})
	require.NoError(t, err)
	assert.Equal(t, "http://signed", pub.URL)

	st.err = common.ErrorAlreadyExists
	_, err = s.CreateBucket(authed("u1"), &api.CreateBucketRequest{Name: "avatars"})
	assertCode(t, err, codes.AlreadyExists, "")
}

func TestToStatus(t *testing.T) {
	cases := []struct {
		err  error
		code codes.Code
		msg  string
	}{
		{common.ErrTokenExpired, codes.Unauthenticated, "token expired"},
		{common.ErrorUnauthorized, codes.Unauthenticated, "unauthorized"},
		{common.ErrorNotFound, codes.NotFound, "not found"},
		{errors.New("db error: connection refused"), codes.Internal, "internal error"},
	}
	for _, c := range cases {
		st := status.Convert(toStatus(c.err))
		assert.Equal(t, c.code, st.Code(), c.err.Error())
		assert.Equal(t, c.msg, st.Message())
	}
	assert.NoError(t, toStatus(nil))
}
