package grpc

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/homeshare/internal/api"
	"github.com/dmitrijs2005/homeshare/internal/common"
	"github.com/dmitrijs2005/homeshare/internal/server/models"
	"github.com/dmitrijs2005/homeshare/internal/server/repositories/rows"
	"github.com/dmitrijs2005/homeshare/internal/server/services"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func toAPIUser(u *models.User) api.User {
	if u == nil {
		return api.User{}
	}
	return api.User{ID: u.ID, Email: u.Email, CreatedAt: u.CreatedAt}
}

func toAPISession(s *services.Session) *api.Session {
	return &api.Session{
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
		ExpiresAt:    s.ExpiresAt,
		User:         toAPIUser(s.User),
	}
}

func toFilters(in []api.Filter) []services.Filter {
	out := make([]services.Filter, 0, len(in))
	for _, f := range in {
		out = append(out, services.Filter{Column: f.Column, Op: f.Op, Value: f.Value})
	}
	return out
}

// fail logs unexpected errors and converts err to a status.
func (s *GRPCServer) fail(ctx context.Context, method string, err error) error {
	st := toStatus(err)
	if status.Code(st) == codes.Internal {
		s.logger.Error(ctx, "request failed", "method", method, "error", err.Error())
	}
	return st
}

func (s *GRPCServer) validate(req any) error {
	if err := s.validator.Validate(req); err != nil {
		return toStatus(err)
	}
	return nil
}

func (s *GRPCServer) SignUp(ctx context.Context, req *api.SignUpRequest) (*api.SignUpResponse, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}

	user, err := s.users.SignUp(ctx, req.Email, req.Password, req.FirstName, req.LastName)
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, status.Error(codes.AlreadyExists, "user already registered")
		}
		return nil, s.fail(ctx, api.MethodSignUp, err)
	}

	s.logger.Info(ctx, "Registered", "user_id", user.ID)
	return &api.SignUpResponse{User: toAPIUser(user)}, nil
}

func (s *GRPCServer) SignIn(ctx context.Context, req *api.SignInRequest) (*api.Session, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}

	session, err := s.users.SignIn(ctx, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, common.ErrorUnauthorized) {
			return nil, status.Error(codes.Unauthenticated, "invalid login credentials")
		}
		return nil, s.fail(ctx, api.MethodSignIn, err)
	}

	return toAPISession(session), nil
}

func (s *GRPCServer) SignOut(ctx context.Context, req *api.SignOutRequest) (*api.Empty, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.users.SignOut(ctx, userID, req.RefreshToken); err != nil {
		return nil, s.fail(ctx, api.MethodSignOut, err)
	}
	return &api.Empty{}, nil
}

func (s *GRPCServer) RefreshToken(ctx context.Context, req *api.RefreshTokenRequest) (*api.Session, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}

	session, err := s.users.RefreshToken(ctx, req.RefreshToken)
	if err != nil {
		return nil, s.fail(ctx, api.MethodRefreshToken, err)
	}
	return toAPISession(session), nil
}

func (s *GRPCServer) GetUser(ctx context.Context, _ *api.Empty) (*api.GetUserResponse, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return nil, s.fail(ctx, api.MethodGetUser, err)
	}
	return &api.GetUserResponse{User: toAPIUser(user)}, nil
}

func (s *GRPCServer) SendPasswordReset(ctx context.Context, req *api.SendPasswordResetRequest) (*api.Empty, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}

	if err := s.users.SendPasswordReset(ctx, req.Email, req.RedirectURL); err != nil {
		return nil, s.fail(ctx, api.MethodSendPasswordReset, err)
	}
	return &api.Empty{}, nil
}

func (s *GRPCServer) CompletePasswordReset(ctx context.Context, req *api.CompletePasswordResetRequest) (*api.Empty, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}

	if err := s.users.CompletePasswordReset(ctx, req.Token, req.NewPassword); err != nil {
		return nil, s.fail(ctx, api.MethodCompletePasswordReset, err)
	}
	return &api.Empty{}, nil
}

func (s *GRPCServer) Select(ctx context.Context, req *api.SelectRequest) (*api.SelectResponse, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.validate(req); err != nil {
		return nil, err
	}

	p := services.SelectParams{
		Table:   req.Table,
		Filters: toFilters(req.Filters),
		Limit:   req.Limit,
		Single:  req.Single,
	}
	if req.Order != nil {
		p.Order = &rows.Order{Column: req.Order.Column, Ascending: req.Order.Ascending}
	}

	result, err := s.rows.Select(ctx, userID, p)
	if err != nil {
		return nil, s.fail(ctx, api.MethodSelect, err)
	}
	return &api.SelectResponse{Rows: result}, nil
}

func (s *GRPCServer) Update(ctx context.Context, req *api.UpdateRequest) (*api.UpdateResponse, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.validate(req); err != nil {
		return nil, err
	}

	n, err := s.rows.Update(ctx, userID, req.Table, req.Patch, toFilters(req.Filters))
	if err != nil {
		return nil, s.fail(ctx, api.MethodUpdate, err)
	}
	return &api.UpdateResponse{Affected: n}, nil
}

func (s *GRPCServer) Insert(ctx context.Context, req *api.InsertRequest) (*api.InsertResponse, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.validate(req); err != nil {
		return nil, err
	}

	result, err := s.rows.Insert(ctx, userID, req.Table, req.Records)
	if err != nil {
		return nil, s.fail(ctx, api.MethodInsert, err)
	}
	return &api.InsertResponse{Rows: result}, nil
}

func (s *GRPCServer) CreateBucket(ctx context.Context, req *api.CreateBucketRequest) (*api.Empty, error) {
	if _, err := userIDFromContext(ctx); err != nil {
		return nil, err
	}
	if err := s.validate(req); err != nil {
		return nil, err
	}

	if err := s.storage.CreateBucket(ctx, req.Name, req.Public); err != nil {
		return nil, s.fail(ctx, api.MethodCreateBucket, err)
	}
	return &api.Empty{}, nil
}

func (s *GRPCServer) CreateUploadURL(ctx context.Context, req *api.CreateUploadURLRequest) (*api.URLResponse, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.validate(req); err != nil {
		return nil, err
	}

	url, err := s.storage.CreateUploadURL(ctx, userID, req.Bucket, req.Path, req.ContentType)
	if err != nil {
		return nil, s.fail(ctx, api.MethodCreateUploadURL, err)
	}
	return &api.URLResponse{URL: url}, nil
}

func (s *GRPCServer) GetPublicURL(ctx context.Context, req *api.GetPublicURLRequest) (*api.URLResponse, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}

	url, err := s.storage.GetPublicURL(req.Bucket, req.Path)
	if err != nil {
		return nil, s.fail(ctx, api.MethodGetPublicURL, err)
	}
	return &api.URLResponse{URL: url}, nil
}

func (s *GRPCServer) Ping(ctx context.Context, _ *api.Empty) (*api.PingResponse, error) {
	return &api.PingResponse{Status: "OK"}, nil
}
