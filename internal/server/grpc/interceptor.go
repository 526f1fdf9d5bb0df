package grpc

import (
	"context"
	"net"

	"github.com/dmitrijs2005/homeshare/internal/api"
	"github.com/dmitrijs2005/homeshare/internal/common"
	"github.com/dmitrijs2005/homeshare/internal/server/auth"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
)

type ctxKey string

// UserIDKey holds the authenticated user id in a handler's context.
const UserIDKey ctxKey = "userID"

var publicMethods = map[string]bool{
	api.FullMethod(api.MethodSignUp):                true,
	api.FullMethod(api.MethodSignIn):                true,
	api.FullMethod(api.MethodRefreshToken):          true,
	api.FullMethod(api.MethodSendPasswordReset):     true,
	api.FullMethod(api.MethodCompletePasswordReset): true,
	api.FullMethod(api.MethodGetPublicURL):          true,
	api.FullMethod(api.MethodPing):                  true,
}

var limitedMethods = map[string]bool{
	api.FullMethod(api.MethodSignUp):            true,
	api.FullMethod(api.MethodSignIn):            true,
	api.FullMethod(api.MethodSendPasswordReset): true,
}

func peerKey(ctx context.Context) string {
	p, ok := peer.FromContext(ctx)
	if !ok || p.Addr == nil {
		return "unknown"
	}
	addr := p.Addr.String()
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}

func (s *GRPCServer) rateLimitInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
	if limitedMethods[info.FullMethod] {
		key := peerKey(ctx)
		if !s.limiter.Allow(key) {
			s.logger.Warn(ctx, "rate limit exceeded", "peer", key, "method", info.FullMethod)
			return nil, status.Error(codes.ResourceExhausted, "too many requests")
		}
	}
	return handler(ctx, req)
}

func (s *GRPCServer) accessTokenInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
	if publicMethods[info.FullMethod] {
		return handler(ctx, req)
	}

	var accessToken string
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		values := md.Get(common.AccessTokenHeaderName)
		if len(values) > 0 {
			accessToken = values[0]
		}
	}
	if len(accessToken) == 0 {
		return nil, status.Error(codes.Unauthenticated, "missing token")
	}

	userID, err := auth.GetUserIDFromToken(accessToken, s.jwtSecret)
	if err != nil {
		return nil, toStatus(err)
	}

	return handler(context.WithValue(ctx, UserIDKey, userID), req)
}

func userIDFromContext(ctx context.Context) (string, error) {
	userID, ok := ctx.Value(UserIDKey).(string)
	if !ok || userID == "" {
		return "", status.Error(codes.Internal, "user id missing in context")
	}
	return userID, nil
}
