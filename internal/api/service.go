package api

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ServiceName is the fully-qualified gRPC service name.
const ServiceName = "homeshare.v1.Backend"

// Method names.
const (
	MethodSignUp                = "SignUp"
	MethodSignIn                = "SignIn"
	MethodSignOut               = "SignOut"
	MethodRefreshToken          = "RefreshToken"
	MethodGetUser               = "GetUser"
	MethodSendPasswordReset     = "SendPasswordReset"
	MethodCompletePasswordReset = "CompletePasswordReset"
	MethodSelect                = "Select"
	MethodUpdate                = "Update"
	MethodInsert                = "Insert"
	MethodCreateBucket          = "CreateBucket"
	MethodCreateUploadURL       = "CreateUploadURL"
	MethodGetPublicURL          = "GetPublicURL"
	MethodPing                  = "Ping"
)

// FullMethod returns "/homeshare.v1.Backend/<method>", the form seen by
// interceptors in grpc.UnaryServerInfo.FullMethod.
func FullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

// BackendServer is implemented by the server's gRPC handler.
type BackendServer interface {
	SignUp(context.Context, *SignUpRequest) (*SignUpResponse, error)
	SignIn(context.Context, *SignInRequest) (*Session, error)
	SignOut(context.Context, *SignOutRequest) (*Empty, error)
	RefreshToken(context.Context, *RefreshTokenRequest) (*Session, error)
	GetUser(context.Context, *Empty) (*GetUserResponse, error)
	SendPasswordReset(context.Context, *SendPasswordResetRequest) (*Empty, error)
	CompletePasswordReset(context.Context, *CompletePasswordResetRequest) (*Empty, error)
	Select(context.Context, *SelectRequest) (*SelectResponse, error)
	Update(context.Context, *UpdateRequest) (*UpdateResponse, error)
	Insert(context.Context, *InsertRequest) (*InsertResponse, error)
	CreateBucket(context.Context, *CreateBucketRequest) (*Empty, error)
	CreateUploadURL(context.Context, *CreateUploadURLRequest) (*URLResponse, error)
	GetPublicURL(context.Context, *GetPublicURLRequest) (*URLResponse, error)
	Ping(context.Context, *Empty) (*PingResponse, error)
}

// UnimplementedBackendServer answers every method with codes.Unimplemented.
// Embed it to stay forward compatible when methods are added.
type UnimplementedBackendServer struct{}

func unimplemented(method string) error {
	return status.Errorf(codes.Unimplemented, "method %s not implemented", method)
}

func (UnimplementedBackendServer) SignUp(context.Context, *SignUpRequest) (*SignUpResponse, error) {
	return nil, unimplemented(MethodSignUp)
}
func (UnimplementedBackendServer) SignIn(context.Context, *SignInRequest) (*Session, error) {
	return nil, unimplemented(MethodSignIn)
}
func (UnimplementedBackendServer) SignOut(context.Context, *SignOutRequest) (*Empty, error) {
	return nil, unimplemented(MethodSignOut)
}
func (UnimplementedBackendServer) RefreshToken(context.Context, *RefreshTokenRequest) (*Session, error) {
	return nil, unimplemented(MethodRefreshToken)
}
func (UnimplementedBackendServer) GetUser(context.Context, *Empty) (*GetUserResponse, error) {
	return nil, unimplemented(MethodGetUser)
}
func (UnimplementedBackendServer) SendPasswordReset(context.Context, *SendPasswordResetRequest) (*Empty, error) {
	return nil, unimplemented(MethodSendPasswordReset)
}
func (UnimplementedBackendServer) CompletePasswordReset(context.Context, *CompletePasswordResetRequest) (*Empty, error) {
	return nil, unimplemented(MethodCompletePasswordReset)
}
func (UnimplementedBackendServer) Select(context.Context, *SelectRequest) (*SelectResponse, error) {
	return nil, unimplemented(MethodSelect)
}
func (UnimplementedBackendServer) Update(context.Context, *UpdateRequest) (*UpdateResponse, error) {
	return nil, unimplemented(MethodUpdate)
}
func (UnimplementedBackendServer) Insert(context.Context, *InsertRequest) (*InsertResponse, error) {
	return nil, unimplemented(MethodInsert)
}
func (UnimplementedBackendServer) CreateBucket(context.Context, *CreateBucketRequest) (*Empty, error) {
	return nil, unimplemented(MethodCreateBucket)
}
func (UnimplementedBackendServer) CreateUploadURL(context.Context, *CreateUploadURLRequest) (*URLResponse, error) {
	return nil, unimplemented(MethodCreateUploadURL)
}
func (UnimplementedBackendServer) GetPublicURL(context.Context, *GetPublicURLRequest) (*URLResponse, error) {
	return nil, unimplemented(MethodGetPublicURL)
}
func (UnimplementedBackendServer) Ping(context.Context, *Empty) (*PingResponse, error) {
	return nil, unimplemented(MethodPing)
}

// unaryHandler adapts a typed BackendServer method to grpc.MethodHandler,
// running it through the server's interceptor chain when one is installed.
func unaryHandler[Req, Resp any](method string, call func(BackendServer, context.Context, *Req) (*Resp, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(BackendServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: FullMethod(method),
		}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(BackendServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// BackendServiceDesc describes homeshare.v1.Backend for grpc.Server.
var BackendServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*BackendServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: MethodSignUp, Handler: unaryHandler(MethodSignUp, BackendServer.SignUp)},
		{MethodName: MethodSignIn, Handler: unaryHandler(MethodSignIn, BackendServer.SignIn)},
		{MethodName: MethodSignOut, Handler: unaryHandler(MethodSignOut, BackendServer.SignOut)},
		{MethodName: MethodRefreshToken, Handler: unaryHandler(MethodRefreshToken, BackendServer.RefreshToken)},
		{MethodName: MethodGetUser, Handler: unaryHandler(MethodGetUser, BackendServer.GetUser)},
		{MethodName: MethodSendPasswordReset, Handler: unaryHandler(MethodSendPasswordReset, BackendServer.SendPasswordReset)},
		{MethodName: MethodCompletePasswordReset, Handler: unaryHandler(MethodCompletePasswordReset, BackendServer.CompletePasswordReset)},
		{MethodName: MethodSelect, Handler: unaryHandler(MethodSelect, BackendServer.Select)},
		{MethodName: MethodUpdate, Handler: unaryHandler(MethodUpdate, BackendServer.Update)},
		{MethodName: MethodInsert, Handler: unaryHandler(MethodInsert, BackendServer.Insert)},
		{MethodName: MethodCreateBucket, Handler: unaryHandler(MethodCreateBucket, BackendServer.CreateBucket)},
		{MethodName: MethodCreateUploadURL, Handler: unaryHandler(MethodCreateUploadURL, BackendServer.CreateUploadURL)},
		{MethodName: MethodGetPublicURL, Handler: unaryHandler(MethodGetPublicURL, BackendServer.GetPublicURL)},
		{MethodName: MethodPing, Handler: unaryHandler(MethodPing, BackendServer.Ping)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "homeshare/v1/backend",
}

// RegisterBackendServer registers srv on s.
func RegisterBackendServer(s grpc.ServiceRegistrar, srv BackendServer) {
	s.RegisterService(&BackendServiceDesc, srv)
}
