package client

import (
	"context"
	"encoding/json"

	"github.com/dmitrijs2005/homeshare/internal/api"
)

// Client is the backend as seen by the application: authentication, row
// storage and file storage. Implementations hold the current session and
// attach its access token to every call.
type Client interface {
	Close() error
	Ping(ctx context.Context) error

	SignUp(ctx context.Context, email, password, firstName, lastName string) (*api.User, error)
	SignIn(ctx context.Context, email, password string) (*api.Session, error)
	SignOut(ctx context.Context) error
	RefreshSession(ctx context.Context) (*api.Session, error)
	GetUser(ctx context.Context) (*api.User, error)
	SendPasswordReset(ctx context.Context, email, redirectURL string) error
	CompletePasswordReset(ctx context.Context, token, newPassword string) error

	Session() *api.Session
	SetSession(s *api.Session)
	OnSessionRefresh(fn func(*api.Session))

	Select(ctx context.Context, req *api.SelectRequest) ([]json.RawMessage, error)
	Update(ctx context.Context, req *api.UpdateRequest) (int64, error)
	Insert(ctx context.Context, req *api.InsertRequest) ([]json.RawMessage, error)

	CreateBucket(ctx context.Context, name string, public bool) error
	CreateUploadURL(ctx context.Context, bucket, path, contentType string) (string, error)
	GetPublicURL(ctx context.Context, bucket, path string) (string, error)
}
