package grpc

import (
	"context"
	"encoding/json"
	"net"

	"github.com/dmitrijs2005/homeshare/internal/api"
	"github.com/dmitrijs2005/homeshare/internal/logging"
	"github.com/dmitrijs2005/homeshare/internal/server/config"
	"github.com/dmitrijs2005/homeshare/internal/server/models"
	"github.com/dmitrijs2005/homeshare/internal/server/ratelimit"
	"github.com/dmitrijs2005/homeshare/internal/server/services"
	"github.com/dmitrijs2005/homeshare/internal/validation"
	"google.golang.org/grpc"
)

type userSvc interface {
	SignUp(ctx context.Context, email, password, firstName, lastName string) (*models.User, error)
	SignIn(ctx context.Context, email, password string) (*services.Session, error)
	SignOut(ctx context.Context, userID, refreshToken string) error
	RefreshToken(ctx context.Context, refreshToken string) (*services.Session, error)
	GetUser(ctx context.Context, userID string) (*models.User, error)
	SendPasswordReset(ctx context.Context, email, redirectURL string) error
	CompletePasswordReset(ctx context.Context, token, newPassword string) error
}

type rowSvc interface {
	Select(ctx context.Context, userID string, p services.SelectParams) ([]json.RawMessage, error)
	Update(ctx context.Context, userID, table string, patch map[string]any, filters []services.Filter) (int64, error)
	Insert(ctx context.Context, userID, table string, records []map[string]any) ([]json.RawMessage, error)
}

type storageSvc interface {
	CreateBucket(ctx context.Context, name string, public bool) error
	CreateUploadURL(ctx context.Context, userID, bucket, path, contentType string) (string, error)
	GetPublicURL(bucket, path string) (string, error)
}

type GRPCServer struct {
	api.UnimplementedBackendServer
	address   string
	users     userSvc
	rows      rowSvc
	storage   storageSvc
	logger    logging.Logger
	jwtSecret []byte
	limiter   *ratelimit.KeyedRateLimiter
	maxMsg    int
	validator *validation.Validator
}

func NewGRPCServer(c *config.Config, l logging.Logger, us userSvc, rs rowSvc, ss storageSvc) *GRPCServer {
	return &GRPCServer{
		address:   c.EndpointAddrGRPC,
		logger:    l.With("module", "grpc_server"),
		users:     us,
		rows:      rs,
		storage:   ss,
		jwtSecret: []byte(c.SecretKey),
		limiter:   ratelimit.New(c.AuthRateLimitRPS, c.AuthRateLimitBurst),
		maxMsg:    c.MaxMessageSize,
		validator: validation.New(),
	}
}

func (s *GRPCServer) newGRPCServer() *grpc.Server {
	opts := []grpc.ServerOption{
		grpc.ChainUnaryInterceptor(s.rateLimitInterceptor, s.accessTokenInterceptor),
	}
	if s.maxMsg > 0 {
		opts = append(opts, grpc.MaxRecvMsgSize(s.maxMsg), grpc.MaxSendMsgSize(s.maxMsg))
	}

	srv := grpc.NewServer(opts...)
	api.RegisterBackendServer(srv, s)
	return srv
}

// Serve accepts connections on lis until ctx is cancelled.
func (s *GRPCServer) Serve(ctx context.Context, lis net.Listener) error {
	srv := s.newGRPCServer()

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		srv.GracefulStop()
		s.limiter.Stop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", lis.Addr().String())

	return srv.Serve(lis)
}

func (s *GRPCServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		s.limiter.Stop()
		return err
	}

	return s.Serve(ctx, listen)
}
