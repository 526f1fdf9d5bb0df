package api

import (
	"context"

	"github.com/dmitrijs2005/homeshare/internal/common"
	"google.golang.org/grpc"
)

// BackendClient is the client API for homeshare.v1.Backend.
type BackendClient interface {
	SignUp(ctx context.Context, in *SignUpRequest, opts ...grpc.CallOption) (*SignUpResponse, error)
	SignIn(ctx context.Context, in *SignInRequest, opts ...grpc.CallOption) (*Session, error)
	SignOut(ctx context.Context, in *SignOutRequest, opts ...grpc.CallOption) (*Empty, error)
	RefreshToken(ctx context.Context, in *RefreshTokenRequest, opts ...grpc.CallOption) (*Session, error)
	GetUser(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*GetUserResponse, error)
	SendPasswordReset(ctx context.Context, in *SendPasswordResetRequest, opts ...grpc.CallOption) (*Empty, error)
	CompletePasswordReset(ctx context.Context, in *CompletePasswordResetRequest, opts ...grpc.CallOption) (*Empty, error)
	Select(ctx context.Context, in *SelectRequest, opts ...grpc.CallOption) (*SelectResponse, error)
	Update(ctx context.Context, in *UpdateRequest, opts ...grpc.CallOption) (*UpdateResponse, error)
	Insert(ctx context.Context, in *InsertRequest, opts ...grpc.CallOption) (*InsertResponse, error)
	CreateBucket(ctx context.Context, in *CreateBucketRequest, opts ...grpc.CallOption) (*Empty, error)
	CreateUploadURL(ctx context.Context, in *CreateUploadURLRequest, opts ...grpc.CallOption) (*URLResponse, error)
	GetPublicURL(ctx context.Context, in *GetPublicURLRequest, opts ...grpc.CallOption) (*URLResponse, error)
	Ping(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*PingResponse, error)
}

type backendClient struct {
	cc grpc.ClientConnInterface
}

// NewBackendClient returns a stub that sends every call with the JSON
// content-subtype.
func NewBackendClient(cc grpc.ClientConnInterface) BackendClient {
	return &backendClient{cc: cc}
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	callOpts := append([]grpc.CallOption{grpc.CallContentSubtype(common.ContentSubtype)}, opts...)
	if err := cc.Invoke(ctx, FullMethod(method), in, out, callOpts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *backendClient) SignUp(ctx context.Context, in *SignUpRequest, opts ...grpc.CallOption) (*SignUpResponse, error) {
	return invoke[SignUpResponse](ctx, c.cc, MethodSignUp, in, opts)
}

func (c *backendClient) SignIn(ctx context.Context, in *SignInRequest, opts ...grpc.CallOption) (*Session, error) {
	return invoke[Session](ctx, c.cc, MethodSignIn, in, opts)
}

func (c *backendClient) SignOut(ctx context.Context, in *SignOutRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty](ctx, c.cc, MethodSignOut, in, opts)
}

func (c *backendClient) RefreshToken(ctx context.Context, in *RefreshTokenRequest, opts ...grpc.CallOption) (*Session, error) {
	return invoke[Session](ctx, c.cc, MethodRefreshToken, in, opts)
}

func (c *backendClient) GetUser(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*GetUserResponse, error) {
	return invoke[GetUserResponse](ctx, c.cc, MethodGetUser, in, opts)
}

func (c *backendClient) SendPasswordReset(ctx context.Context, in *SendPasswordResetRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty](ctx, c.cc, MethodSendPasswordReset, in, opts)
}

func (c *backendClient) CompletePasswordReset(ctx context.Context, in *CompletePasswordResetRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty](ctx, c.cc, MethodCompletePasswordReset, in, opts)
}

func (c *backendClient) Select(ctx context.Context, in *SelectRequest, opts ...grpc.CallOption) (*SelectResponse, error) {
	return invoke[SelectResponse](ctx, c.cc, MethodSelect, in, opts)
}

func (c *backendClient) Update(ctx context.Context, in *UpdateRequest, opts ...grpc.CallOption) (*UpdateResponse, error) {
	return invoke[UpdateResponse](ctx, c.cc, MethodUpdate, in, opts)
}

func (c *backendClient) Insert(ctx context.Context, in *InsertRequest, opts ...grpc.CallOption) (*InsertResponse, error) {
	return invoke[InsertResponse](ctx, c.cc, MethodInsert, in, opts)
}

func (c *backendClient) CreateBucket(ctx context.Context, in *CreateBucketRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty](ctx, c.cc, MethodCreateBucket, in, opts)
}

func (c *backendClient) CreateUploadURL(ctx context.Context, in *CreateUploadURLRequest, opts ...grpc.CallOption) (*URLResponse, error) {
	return invoke[URLResponse](ctx, c.cc, MethodCreateUploadURL, in, opts)
}

func (c *backendClient) GetPublicURL(ctx context.Context, in *GetPublicURLRequest, opts ...grpc.CallOption) (*URLResponse, error) {
	return invoke[URLResponse](ctx, c.cc, MethodGetPublicURL, in, opts)
}

func (c *backendClient) Ping(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*PingResponse, error) {
	return invoke[PingResponse](ctx, c.cc, MethodPing, in, opts)
}
