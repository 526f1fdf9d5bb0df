// Package server wires configuration, storage, services and the gRPC endpoint
// into a runnable backend and handles graceful shutdown.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/homeshare/internal/logging"
	"github.com/dmitrijs2005/homeshare/internal/server/config"
	"github.com/dmitrijs2005/homeshare/internal/server/mailer"
	"github.com/dmitrijs2005/homeshare/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/homeshare/internal/server/services"

	gs "github.com/dmitrijs2005/homeshare/internal/server/grpc"
)

type App struct {
	config         *config.Config
	logger         logging.Logger
	db             *sql.DB
	repoManager    repomanager.RepositoryManager
	userService    *services.UserService
	rowService     *services.RowService
	storageService *services.StorageService
}

func NewApp(c *config.Config) (*App, error) {
	logger := logging.NewJSONLogger(os.Stdout, slog.LevelInfo)

	db, err := sql.Open("pgx", c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm, err := repomanager.NewPostgresRepositoryManager(db)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db init error: %w", err)
	}

	ml := mailer.New(mailer.SMTPConfig{
		Host:     c.SMTPHost,
		Port:     c.SMTPPort,
		User:     c.SMTPUser,
		Password: c.SMTPPassword,
		From:     c.SMTPFrom,
	}, logger)

	return &App{
		config:         c,
		logger:         logger,
		db:             db,
		repoManager:    rm,
		userService:    services.NewUserService(db, rm, ml, logger, c),
		rowService:     services.NewRowService(db, rm, logger),
		storageService: services.NewStorageService(c, logger),
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := gs.NewGRPCServer(app.config, app.logger, app.userService, app.rowService, app.storageService)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()
	defer app.db.Close()

	app.logger.Info(ctx, "Starting app...")

	if err := app.repoManager.RunMigrations(ctx, app.db); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()

	wg.Wait()
	app.logger.Info(ctx, "App stopped")

	return nil
}
