package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"os"
	"sync"
	"time"

	"github.com/dmitrijs2005/homeshare/internal/client/client"
	"github.com/dmitrijs2005/homeshare/internal/client/config"
	"github.com/dmitrijs2005/homeshare/internal/client/dashboard"
	"github.com/dmitrijs2005/homeshare/internal/client/notifications"
	"github.com/dmitrijs2005/homeshare/internal/client/services"
	"github.com/dmitrijs2005/homeshare/internal/client/session"
	"github.com/dmitrijs2005/homeshare/internal/filex"
	"github.com/dmitrijs2005/homeshare/internal/logging"
	"github.com/dmitrijs2005/homeshare/internal/validation"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

// rowStore is the row access the view layer needs besides what the core
// modules already hold.
type rowStore interface {
	session.Rows
	notifications.Inserter
}

type pinger interface {
	Ping(ctx context.Context) error
}

type App struct {
	config    *config.Config
	logger    logging.Logger
	pinger    pinger
	rows      rowStore
	files     session.FileStorage
	validator *validation.Validator

	session       *session.Store
	dashboard     *dashboard.Loader
	notifications *notifications.Feed

	reader *bufio.Reader
	out    io.Writer
	now    func() time.Time
	rnd    notifications.Rand

	closers []func() error
	unsub   func()

	ctx       context.Context
	mu        sync.Mutex
	mode      Mode
	path      string
	loadedFor string
}

// NewApp opens the local database and the server connection and wires the
// session store, dashboard loader and notification feed on top of them.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logOut := io.Writer(os.Stderr)
	var closers []func() error
	if c.LogFile != "" {
		f, err := filex.OpenAppend(c.LogFile)
		if err != nil {
			return nil, fmt.Errorf("error opening log file: %w", err)
		}
		logOut = f
		closers = append(closers, f.Close)
	}
	logger := logging.NewTextLogger(logOut, slog.LevelInfo)

	if _, err := filex.EnsureParentDir(c.DatabasePath); err != nil {
		return nil, err
	}
	db, err := client.InitDatabase(ctx, c.DatabasePath)
	if err != nil {
		logger.Error(ctx, "error initializing database", "error", err.Error())
		return nil, err
	}
	closers = append(closers, db.Close)

	apiClient, err := client.NewGRPCClient(c.ServerEndpointAddr)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	closers = append(closers, apiClient.Close)

	repos := client.NewRepositories(db)
	auth := services.NewAuthService(apiClient, repos.Metadata, logger)
	storage := services.NewStorageService(apiClient, logger)

	a := newApp(c, logger, deps{
		auth:    auth,
		pinger:  auth,
		rows:    apiClient,
		files:   storage,
		in:      os.Stdin,
		out:     os.Stdout,
		closers: closers,
	})
	return a, nil
}

// deps are the collaborators newApp wires together.
type deps struct {
	auth    session.AuthProvider
	pinger  pinger
	rows    rowStore
	files   session.FileStorage
	in      io.Reader
	out     io.Writer
	closers []func() error
}

func newApp(c *config.Config, logger logging.Logger, d deps) *App {
	a := &App{
		config:        c,
		logger:        logger.With("module", "cli"),
		pinger:        d.pinger,
		rows:          d.rows,
		files:         d.files,
		validator:     validation.New(),
		session:       session.New(d.auth, d.rows, logger, session.WithResetRedirectURL(c.ResetRedirectURL)),
		dashboard:     dashboard.New(d.rows, logger),
		notifications: notifications.New(d.rows, logger),
		reader:        bufio.NewReader(d.in),
		out:           d.out,
		now:           time.Now,
		rnd:           rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0)),
		closers:       d.closers,
		ctx:           context.Background(),
		path:          "/",
	}
	a.unsub = a.session.Subscribe(a.onSessionChange)
	return a
}

// onSessionChange loads the dashboard and notifications whenever the
// signed-in identity changes, including to nobody.
func (a *App) onSessionChange(st session.State) {
	id := ""
	if st.Identity != nil {
		id = st.Identity.ID
	}

	a.mu.Lock()
	if id == a.loadedFor {
		a.mu.Unlock()
		return
	}
	a.loadedFor = id
	ctx := a.ctx
	a.mu.Unlock()

	a.loadUserData(ctx, id)
}

func (a *App) loadUserData(ctx context.Context, userID string) {
	var wg sync.WaitGroup
	var dashErr, feedErr error
	wg.Add(2)
	go func() {
		defer wg.Done()
		dashErr = a.dashboard.Load(ctx, userID)
	}()
	go func() {
		defer wg.Done()
		feedErr = a.notifications.Load(ctx, userID)
	}()
	wg.Wait()

	printNotices(a.out, errorNotices(errors.Join(dashErr, feedErr))...)
}

func (a *App) setMode(mode Mode) {
	a.mu.Lock()
	changed := a.mode != mode
	a.mode = mode
	a.mu.Unlock()

	if changed {
		a.logger.Info(context.Background(), "connectivity changed", "mode", string(mode))
	}
}

func (a *App) Mode() Mode {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.mode
}

func (a *App) checkOnline(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	if err := a.pinger.Ping(ctx); err != nil {
		a.setMode(ModeOffline)
		return
	}
	a.setMode(ModeOnline)
}

// StartOnlineStatusWatcher pings the server every interval until ctx is done.
func (a *App) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			a.checkOnline(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (a *App) isLoggedIn() bool {
	return a.session.State().Identity != nil
}

func (a *App) getStatus() string {
	who := "guest"
	if id := a.session.State().Identity; id != nil {
		who = id.Email
	}
	return fmt.Sprintf("%s (%s)", who, a.Mode())
}

// Run restores the previous session, starts the connectivity watcher and
// serves the REPL until the user exits or input ends.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer a.Close()

	a.mu.Lock()
	a.ctx = ctx
	a.mu.Unlock()

	printlnFn("Welcome to Homeshare CLI (type 'help' for commands)")

	a.checkOnline(ctx)
	go a.StartOnlineStatusWatcher(ctx, a.config.OnlineCheckInterval)

	a.session.Start(ctx)
	if a.isLoggedIn() {
		_ = a.Open(ctx, "/dashboard")
	} else {
		_ = a.Open(ctx, "/")
	}

	runREPL(ctx, a, a.getStatus, a.reader)
	return nil
}

// Close tears down the core modules and releases the database and the
// server connection.
func (a *App) Close() {
	if a.unsub != nil {
		a.unsub()
	}
	a.session.Close()
	a.dashboard.Close()
	a.notifications.Close()

	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn(context.Background(), "close failed", "error", err.Error())
		}
	}
	a.closers = nil
}
