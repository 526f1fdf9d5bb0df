package services

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/homeshare/internal/api"
	"github.com/dmitrijs2005/homeshare/internal/client/client"
	"github.com/dmitrijs2005/homeshare/internal/common"
	"github.com/dmitrijs2005/homeshare/internal/logging"
)

type nopLogger struct{}

func (n nopLogger) Debug(context.Context, string, ...any) {}
func (n nopLogger) Info(context.Context, string, ...any)  {}
func (n nopLogger) Warn(context.Context, string, ...any)  {}
func (n nopLogger) Error(context.Context, string, ...any) {}
func (n nopLogger) With(...any) logging.Logger            { return n }

// fakeClient implements client.Client. Methods not overridden panic through
// the nil embedded interface.
type fakeClient struct {
	client.Client

	session   *api.Session
	onRefresh func(*api.Session)

	signInResp *api.Session
	signInErr  error
	signOutErr error

	refreshResp  *api.Session
	refreshErr   error
	refreshCalls int

	user    *api.User
	userErr error

	bucketErr  error
	uploadURL  string
	uploadErr  error
	publicURL  string
	lastBucket string
	lastPath   string
	lastCT     string
}

func (f *fakeClient) Session() *api.Session {
	if f.session == nil {
		return nil
	}
	cp := *f.session
	return &cp
}
func (f *fakeClient) SetSession(s *api.Session)              { f.session = s }
func (f *fakeClient) OnSessionRefresh(fn func(*api.Session)) { f.onRefresh = fn }
func (f *fakeClient) Close() error                           { return nil }
func (f *fakeClient) Ping(context.Context) error             { return nil }

func (f *fakeClient) SignUp(ctx context.Context, email, password, firstName, lastName string) (*api.User, error) {
	return &api.User{ID: "u1", Email: email}, nil
}
func (f *fakeClient) SignIn(ctx context.Context, email, password string) (*api.Session, error) {
	if f.signInErr != nil {
		return nil, f.signInErr
	}
	f.session = f.signInResp
	return f.signInResp, nil
}
func (f *fakeClient) SignOut(ctx context.Context) error { return f.signOutErr }
func (f *fakeClient) RefreshSession(ctx context.Context) (*api.Session, error) {
	f.refreshCalls++
	if f.refreshErr != nil {
		return nil, f.refreshErr
	}
	f.session = f.refreshResp
	if f.onRefresh != nil {
		f.onRefresh(f.refreshResp)
	}
	return f.refreshResp, nil
}
func (f *fakeClient) GetUser(ctx context.Context) (*api.User, error) { return f.user, f.userErr }
func (f *fakeClient) SendPasswordReset(ctx context.Context, email, redirectURL string) error {
	return nil
}
func (f *fakeClient) CompletePasswordReset(ctx context.Context, token, newPassword string) error {
	return nil
}
func (f *fakeClient) CreateBucket(ctx context.Context, name string, public bool) error {
	f.lastBucket = name
	return f.bucketErr
}
func (f *fakeClient) CreateUploadURL(ctx context.Context, bucket, path, contentType string) (string, error) {
	f.lastBucket, f.lastPath, f.lastCT = bucket, path, contentType
	return f.uploadURL, f.uploadErr
}
func (f *fakeClient) GetPublicURL(ctx context.Context, bucket, path string) (string, error) {
	return f.publicURL, nil
}

type memStore struct {
	mu sync.Mutex
	m  map[string][]byte
}

func newMemStore() *memStore { return &memStore{m: map[string][]byte{}} }

func (s *memStore) Get(ctx context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.m[key]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return v, nil
}
func (s *memStore) Set(ctx context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[key] = value
	return nil
}
func (s *memStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, key)
	return nil
}
