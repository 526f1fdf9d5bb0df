package client

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/dmitrijs2005/homeshare/internal/api"
	"github.com/dmitrijs2005/homeshare/internal/common"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type GRPCClient struct {
	endpointURL string
	conn        *grpc.ClientConn
	client      api.BackendClient

	mu        sync.Mutex
	session   *api.Session
	onRefresh func(*api.Session)

	// refreshMu serialises refreshes so concurrent expired calls rotate once.
	refreshMu sync.Mutex
}

func withAccessToken(ctx context.Context, token string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Delete(common.AccessTokenHeaderName)
	if token != "" {
		md.Set(common.AccessTokenHeaderName, token)
	}

	return metadata.NewOutgoingContext(ctx, md)
}

func isTokenExpired(err error) bool {
	st, ok := status.FromError(err)
	return ok && st.Code() == codes.Unauthenticated && st.Message() == common.ErrTokenExpired.Error()
}

func (s *GRPCClient) tokens() (access, refresh string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil {
		return "", ""
	}
	return s.session.AccessToken, s.session.RefreshToken
}

func (s *GRPCClient) accessTokenInterceptor(
	ctx context.Context,
	method string,
	req, reply interface{},
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {
	access, _ := s.tokens()

	err := invoker(withAccessToken(ctx, access), method, req, reply, cc, opts...)
	if err == nil || !isTokenExpired(err) || method == api.FullMethod(api.MethodRefreshToken) {
		return err
	}

	session, rerr := s.refreshAfter(ctx, access)
	if rerr != nil {
		return err
	}
	s.notifyRefresh(session)

	access, _ = s.tokens()
	return invoker(withAccessToken(ctx, access), method, req, reply, cc, opts...)
}

// refreshAfter rotates the session unless another call already did so
// since stale was sent. A nil session means nothing was rotated here.
func (s *GRPCClient) refreshAfter(ctx context.Context, stale string) (*api.Session, error) {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	access, refresh := s.tokens()
	if access != stale {
		return nil, nil
	}
	if refresh == "" {
		return nil, ErrNoSession
	}

	return s.refresh(ctx, refresh)
}

func (s *GRPCClient) refresh(ctx context.Context, refreshToken string) (*api.Session, error) {
	session, err := s.client.RefreshToken(ctx, &api.RefreshTokenRequest{RefreshToken: refreshToken})
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.session = session
	s.mu.Unlock()

	return session, nil
}

// notifyRefresh runs the OnSessionRefresh callback. It is called with no
// locks held so the callback may issue calls of its own.
func (s *GRPCClient) notifyRefresh(session *api.Session) {
	if session == nil {
		return
	}
	s.mu.Lock()
	fn := s.onRefresh
	s.mu.Unlock()

	if fn != nil {
		cp := *session
		fn(&cp)
	}
}

func NewGRPCClient(endpointURL string) (*GRPCClient, error) {
	c := &GRPCClient{endpointURL: endpointURL}
	if err := c.InitGRPCClient(); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *GRPCClient) InitGRPCClient(opts ...grpc.DialOption) error {
	opts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(s.accessTokenInterceptor),
	}, opts...)

	conn, err := grpc.NewClient(s.endpointURL, opts...)
	if err != nil {
		return err
	}
	s.conn = conn
	s.client = api.NewBackendClient(conn)
	return nil
}

func (s *GRPCClient) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}

// Session returns a copy of the current session or nil.
func (s *GRPCClient) Session() *api.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil {
		return nil
	}
	cp := *s.session
	return &cp
}

func (s *GRPCClient) SetSession(session *api.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if session == nil {
		s.session = nil
		return
	}
	cp := *session
	s.session = &cp
}

// OnSessionRefresh registers fn to run after every transparent refresh.
func (s *GRPCClient) OnSessionRefresh(fn func(*api.Session)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onRefresh = fn
}

func (s *GRPCClient) Ping(ctx context.Context) error {
	resp, err := s.client.Ping(ctx, &api.Empty{})
	if err != nil {
		return mapError(err)
	}
	if resp.Status != "OK" {
		return ErrUnavailable
	}
	return nil
}

func (s *GRPCClient) SignUp(ctx context.Context, email, password, firstName, lastName string) (*api.User, error) {
	resp, err := s.client.SignUp(ctx, &api.SignUpRequest{
		Email: email, Password: password, FirstName: firstName, LastName: lastName,
	})
	if err != nil {
		return nil, mapError(err)
	}
	return &resp.User, nil
}

func (s *GRPCClient) SignIn(ctx context.Context, email, password string) (*api.Session, error) {
	session, err := s.client.SignIn(ctx, &api.SignInRequest{Email: email, Password: password})
	if err != nil {
		return nil, mapError(err)
	}
	s.SetSession(session)
	return session, nil
}

// SignOut revokes the session on the server. The local session is left for
// the caller to clear.
func (s *GRPCClient) SignOut(ctx context.Context) error {
	_, refresh := s.tokens()
	if refresh == "" {
		return ErrNoSession
	}
	if _, err := s.client.SignOut(ctx, &api.SignOutRequest{RefreshToken: refresh}); err != nil {
		return mapError(err)
	}
	return nil
}

// RefreshSession rotates the current session explicitly.
func (s *GRPCClient) RefreshSession(ctx context.Context) (*api.Session, error) {
	s.refreshMu.Lock()
	_, refresh := s.tokens()
	if refresh == "" {
		s.refreshMu.Unlock()
		return nil, ErrNoSession
	}
	session, err := s.refresh(ctx, refresh)
	s.refreshMu.Unlock()
	if err != nil {
		return nil, mapError(err)
	}

	s.notifyRefresh(session)
	return session, nil
}

func (s *GRPCClient) GetUser(ctx context.Context) (*api.User, error) {
	resp, err := s.client.GetUser(ctx, &api.Empty{})
	if err != nil {
		return nil, mapError(err)
	}
	return &resp.User, nil
}

func (s *GRPCClient) SendPasswordReset(ctx context.Context, email, redirectURL string) error {
	_, err := s.client.SendPasswordReset(ctx, &api.SendPasswordResetRequest{Email: email, RedirectURL: redirectURL})
	return mapError(err)
}

func (s *GRPCClient) CompletePasswordReset(ctx context.Context, token, newPassword string) error {
	_, err := s.client.CompletePasswordReset(ctx, &api.CompletePasswordResetRequest{Token: token, NewPassword: newPassword})
	return mapError(err)
}

func (s *GRPCClient) Select(ctx context.Context, req *api.SelectRequest) ([]json.RawMessage, error) {
	resp, err := s.client.Select(ctx, req)
	if err != nil {
		return nil, mapError(err)
	}
	return resp.Rows, nil
}

func (s *GRPCClient) Update(ctx context.Context, req *api.UpdateRequest) (int64, error) {
	resp, err := s.client.Update(ctx, req)
	if err != nil {
		return 0, mapError(err)
	}
	return resp.Affected, nil
}

func (s *GRPCClient) Insert(ctx context.Context, req *api.InsertRequest) ([]json.RawMessage, error) {
	resp, err := s.client.Insert(ctx, req)
	if err != nil {
		return nil, mapError(err)
	}
	return resp.Rows, nil
}

func (s *GRPCClient) CreateBucket(ctx context.Context, name string, public bool) error {
	_, err := s.client.CreateBucket(ctx, &api.CreateBucketRequest{Name: name, Public: public})
	return mapError(err)
}

func (s *GRPCClient) CreateUploadURL(ctx context.Context, bucket, path, contentType string) (string, error) {
	resp, err := s.client.CreateUploadURL(ctx, &api.CreateUploadURLRequest{Bucket: bucket, Path: path, ContentType: contentType})
	if err != nil {
		return "", mapError(err)
	}
	return resp.URL, nil
}

func (s *GRPCClient) GetPublicURL(ctx context.Context, bucket, path string) (string, error) {
	resp, err := s.client.GetPublicURL(ctx, &api.GetPublicURLRequest{Bucket: bucket, Path: path})
	if err != nil {
		return "", mapError(err)
	}
	return resp.URL, nil
}
