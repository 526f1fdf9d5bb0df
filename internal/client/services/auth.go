// Package services contains the client's application services: the auth
// provider that owns the persisted session and the storage helper.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/homeshare/internal/api"
	"github.com/dmitrijs2005/homeshare/internal/client/client"
	"github.com/dmitrijs2005/homeshare/internal/client/observe"
	"github.com/dmitrijs2005/homeshare/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/homeshare/internal/common"
	"github.com/dmitrijs2005/homeshare/internal/logging"
)

// AuthEvent names a session transition reported to OnAuthStateChange listeners.
type AuthEvent string

const (
	EventSignedIn       AuthEvent = "SIGNED_IN"
	EventSignedOut      AuthEvent = "SIGNED_OUT"
	EventTokenRefreshed AuthEvent = "TOKEN_REFRESHED"
	EventUserUpdated    AuthEvent = "USER_UPDATED"
)

// AuthListener receives the event and the session after it. The session is
// nil for EventSignedOut.
type AuthListener func(event AuthEvent, session *api.Session)

// sessionKey is the metadata key the session is persisted under.
const sessionKey = "session"

// AuthService signs users in and out, keeps the session in the local
// metadata store across restarts and notifies listeners about changes.
type AuthService struct {
	client client.Client
	store  metadata.Repository
	logger logging.Logger
	now    func() time.Time

	listeners observe.List[authChange]
}

type authChange struct {
	event   AuthEvent
	session *api.Session
}

// NewAuthService binds the service to c. Sessions rotated transparently by c
// are persisted and announced as EventTokenRefreshed.
func NewAuthService(c client.Client, store metadata.Repository, logger logging.Logger) *AuthService {
	a := &AuthService{
		client: c,
		store:  store,
		logger: logger.With("module", "auth_service"),
		now:    time.Now,
	}
	c.OnSessionRefresh(a.handleRefresh)
	return a
}

// OnAuthStateChange registers fn. Listeners run synchronously in registration
// order, outside the service's locks. The returned func unsubscribes.
func (a *AuthService) OnAuthStateChange(fn AuthListener) func() {
	return a.listeners.Add(func(c authChange) { fn(c.event, c.session) })
}

func (a *AuthService) emit(event AuthEvent, session *api.Session) {
	a.listeners.Notify(authChange{event: event, session: session})
}

func (a *AuthService) persist(ctx context.Context, session *api.Session) {
	if err := metadata.SetJSON(ctx, a.store, sessionKey, session); err != nil {
		a.logger.Error(ctx, "failed to persist session", "error", err.Error())
	}
}

func (a *AuthService) clearLocal(ctx context.Context) {
	a.client.SetSession(nil)
	if err := a.store.Delete(ctx, sessionKey); err != nil {
		a.logger.Error(ctx, "failed to clear session", "error", err.Error())
	}
}

func (a *AuthService) handleRefresh(session *api.Session) {
	ctx := context.Background()
	a.persist(ctx, session)
	a.emit(EventTokenRefreshed, session)
}

// SignUp registers an account. No session is issued.
func (a *AuthService) SignUp(ctx context.Context, email, password, firstName, lastName string) (*api.User, error) {
	return a.client.SignUp(ctx, email, password, firstName, lastName)
}

func (a *AuthService) SignInWithPassword(ctx context.Context, email, password string) (*api.Session, error) {
	session, err := a.client.SignIn(ctx, email, password)
	if err != nil {
		return nil, err
	}

	a.persist(ctx, session)
	a.emit(EventSignedIn, session)
	return session, nil
}

// SignOut revokes the session. When the server no longer knows the session
// the local copy is cleared anyway; a transport failure leaves it intact.
func (a *AuthService) SignOut(ctx context.Context) error {
	err := a.client.SignOut(ctx)
	if err != nil &&
		!errors.Is(err, client.ErrNotFound) &&
		!errors.Is(err, client.ErrUnauthorized) &&
		!errors.Is(err, client.ErrNoSession) {
		return err
	}

	a.clearLocal(ctx)
	a.emit(EventSignedOut, nil)
	return nil
}

func (a *AuthService) ResetPasswordForEmail(ctx context.Context, email, redirectURL string) error {
	return a.client.SendPasswordReset(ctx, email, redirectURL)
}

func (a *AuthService) CompletePasswordReset(ctx context.Context, token, newPassword string) error {
	return a.client.CompletePasswordReset(ctx, token, newPassword)
}

// GetSession returns the current session, loading it from the local store
// after a restart and refreshing it when the access token has expired. A
// session the server rejects is cleared and (nil, nil) is returned.
func (a *AuthService) GetSession(ctx context.Context) (*api.Session, error) {
	session := a.client.Session()
	if session == nil {
		var stored api.Session
		err := metadata.GetJSON(ctx, a.store, sessionKey, &stored)
		if errors.Is(err, common.ErrorNotFound) {
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("load session: %w", err)
		}
		session = &stored
		a.client.SetSession(session)
	}

	if !session.Expired(a.now()) {
		return session, nil
	}

	refreshed, err := a.client.RefreshSession(ctx)
	if err != nil {
		if errors.Is(err, client.ErrUnauthorized) || errors.Is(err, client.ErrNoSession) {
			a.logger.Info(ctx, "stored session rejected, signing out", "error", err.Error())
			a.clearLocal(ctx)
			return nil, nil
		}
		return nil, err
	}
	return refreshed, nil
}

// RefreshUser re-reads the signed-in user from the server and announces it
// as EventUserUpdated.
func (a *AuthService) RefreshUser(ctx context.Context) (*api.User, error) {
	user, err := a.client.GetUser(ctx)
	if err != nil {
		return nil, err
	}

	cur := a.client.Session()
	if cur == nil {
		return user, nil
	}
	updated := *cur
	updated.User = *user
	a.client.SetSession(&updated)
	a.persist(ctx, &updated)
	a.emit(EventUserUpdated, &updated)
	return user, nil
}

func (a *AuthService) Ping(ctx context.Context) error {
	return a.client.Ping(ctx)
}

func (a *AuthService) Close() error {
	return a.client.Close()
}
