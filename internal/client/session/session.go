// Package session holds the signed-in identity and its profile for the
// lifetime of the client application.
//
// A Store is built once at startup, started, and closed on shutdown.
// Consumers read State snapshots and Subscribe to changes; mutations
// return nil or a *failure.Error and never print anything themselves.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/homeshare/internal/api"
	"github.com/dmitrijs2005/homeshare/internal/client/client"
	"github.com/dmitrijs2005/homeshare/internal/client/failure"
	"github.com/dmitrijs2005/homeshare/internal/client/models"
	"github.com/dmitrijs2005/homeshare/internal/client/observe"
	"github.com/dmitrijs2005/homeshare/internal/client/services"
	"github.com/dmitrijs2005/homeshare/internal/logging"
)

const (
	profilesTable = "profiles"
	avatarsBucket = "avatars"
)

// AuthProvider is the part of services.AuthService the store drives.
type AuthProvider interface {
	OnAuthStateChange(fn services.AuthListener) func()
	GetSession(ctx context.Context) (*api.Session, error)
	SignUp(ctx context.Context, email, password, firstName, lastName string) (*api.User, error)
	SignInWithPassword(ctx context.Context, email, password string) (*api.Session, error)
	SignOut(ctx context.Context) error
	ResetPasswordForEmail(ctx context.Context, email, redirectURL string) error
	CompletePasswordReset(ctx context.Context, token, newPassword string) error
	RefreshUser(ctx context.Context) (*api.User, error)
}

type Selecter interface {
	Select(ctx context.Context, req *api.SelectRequest) ([]json.RawMessage, error)
}

type Updater interface {
	Update(ctx context.Context, req *api.UpdateRequest) (int64, error)
}

// Rows reads and writes the profile record.
type Rows interface {
	Selecter
	Updater
}

// FileStorage uploads the avatar image.
type FileStorage interface {
	CreateBucket(ctx context.Context, name string, public bool) error
	Upload(ctx context.Context, bucket, path string, data []byte, contentType string) error
	GetPublicURL(ctx context.Context, bucket, path string) (string, error)
}

// State is a snapshot of the store. Identity and Session are nil when
// nobody is signed in; Profile is nil until fetched or when the fetch failed.
type State struct {
	Identity *api.User
	Session  *api.Session
	Profile  *models.Profile
	Loading  bool
}

// Store is the single owner of identity and profile.
type Store struct {
	auth   AuthProvider
	rows   Rows
	logger logging.Logger

	resetRedirectURL string
	now              func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
	unsub  func()

	subs observe.List[State]

	mu     sync.Mutex
	state  State
	issued uint64
	// applied orders identity transitions; profileApplied orders profile
	// reads. A transition that keeps the profile does not advance
	// profileApplied, so it never supersedes a fresher re-read.
	applied        uint64
	profileApplied uint64
	closed         bool
}

type Option func(*Store)

// WithResetRedirectURL sets the page the password-reset e-mail links to.
func WithResetRedirectURL(u string) Option {
	return func(s *Store) { s.resetRedirectURL = u }
}

// WithClock replaces time.Now, used for avatar file names.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func New(auth AuthProvider, rows Rows, logger logging.Logger, opts ...Option) *Store {
	s := &Store{
		auth:   auth,
		rows:   rows,
		logger: logger.With("module", "session"),
		now:    time.Now,
		ctx:    context.Background(),
		cancel: func() {},
		state:  State{Loading: true},
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Start registers the auth listener and then applies the current session.
// It returns once the initial snapshot has been applied or superseded.
func (s *Store) Start(ctx context.Context) {
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.unsub = s.auth.OnAuthStateChange(s.onAuthEvent)

	gen := s.nextGeneration()
	session, err := s.auth.GetSession(s.ctx)
	if err != nil {
		s.logger.Error(s.ctx, "error getting session", "error", err.Error())
		session = nil
	}
	s.transition(gen, session, false)
}

// Close unsubscribes from the auth provider. Results that arrive later are
// discarded.
func (s *Store) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	s.cancel()
	if s.unsub != nil {
		s.unsub()
	}
}

func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Subscribe calls fn with the new state after every change, in
// registration order. The returned func unsubscribes.
func (s *Store) Subscribe(fn func(State)) func() {
	return s.subs.Add(fn)
}

// update mutates the state under the lock and notifies subscribers after
// releasing it. fn returns false to leave the state untouched.
func (s *Store) update(fn func(st *State) bool) {
	s.mu.Lock()
	if s.closed || !fn(&s.state) {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	s.subs.Publish(s.State)
}

func (s *Store) nextGeneration() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.issued++
	return s.issued
}

func (s *Store) onAuthEvent(event services.AuthEvent, session *api.Session) {
	gen := s.nextGeneration()
	keepProfile := event == services.EventTokenRefreshed || event == services.EventUserUpdated
	s.transition(gen, session, keepProfile)
}

// transition applies session as generation gen. The profile is fetched
// before the transition is applied; a transition older than the applied
// one is dropped.
func (s *Store) transition(gen uint64, session *api.Session, keepProfile bool) {
	var profile *models.Profile
	fetched := false
	if session != nil {
		cur := s.State()
		if !keepProfile || cur.Profile == nil || cur.Profile.ID != session.User.ID {
			profile = s.fetchProfile(s.ctx, session.User.ID)
			fetched = true
		}
	}

	s.update(func(st *State) bool {
		if gen < s.applied {
			s.logger.Debug(s.ctx, "stale session transition dropped", "generation", gen, "applied", s.applied)
			return false
		}
		s.applied = gen
		st.Session = session
		st.Identity = nil
		st.Loading = false
		if session == nil {
			st.Profile = nil
			return true
		}
		u := session.User
		st.Identity = &u

		sameUser := st.Profile != nil && st.Profile.ID == u.ID
		switch {
		case !fetched && sameUser:
			// keep whatever profile is current now
		case fetched && sameUser && gen < s.profileApplied:
			// a newer re-read of this profile already landed
		default:
			st.Profile = profile
			if fetched {
				s.profileApplied = gen
			}
		}
		return true
	})
}

// fetchProfile returns nil when the profile cannot be read.
func (s *Store) fetchProfile(ctx context.Context, userID string) *models.Profile {
	rows, err := s.rows.Select(ctx, &api.SelectRequest{
		Table:   profilesTable,
		Filters: []api.Filter{{Column: "id", Op: api.OpEq, Value: userID}},
		Single:  true,
	})
	if err == nil && len(rows) == 0 {
		err = client.ErrNotFound
	}
	if err != nil {
		s.logger.Error(ctx, "error fetching profile", "user_id", userID, "error", err.Error())
		return nil
	}

	var p models.Profile
	if err := json.Unmarshal(rows[0], &p); err != nil {
		s.logger.Error(ctx, "error decoding profile", "user_id", userID, "error", err.Error())
		return nil
	}
	if p.ID != userID {
		s.logger.Error(ctx, "profile does not belong to user", "user_id", userID, "profile_id", p.ID)
		return nil
	}
	return &p
}

func (s *Store) setLoading(v bool) {
	s.update(func(st *State) bool {
		st.Loading = v
		return true
	})
}

// run marks the store loading for the duration of fn and converts its error.
func (s *Store) run(ctx context.Context, wrap func(op string, err error) *failure.Error, op string, fn func() error) error {
	s.setLoading(true)
	defer s.setLoading(false)

	if err := fn(); err != nil {
		s.logger.Error(ctx, "error "+op, "error", err.Error())
		return wrap(op, err)
	}
	return nil
}

// SignUp registers an account. No session is established.
func (s *Store) SignUp(ctx context.Context, email, password, firstName, lastName string) error {
	return s.run(ctx, failure.Auth, "signing up", func() error {
		_, err := s.auth.SignUp(ctx, email, password, firstName, lastName)
		return err
	})
}

// SignIn authenticates. Identity and profile are populated by the auth
// listener before SignIn returns.
func (s *Store) SignIn(ctx context.Context, email, password string) error {
	return s.run(ctx, failure.Auth, "signing in", func() error {
		_, err := s.auth.SignInWithPassword(ctx, email, password)
		return err
	})
}

// SignOut ends the session. Local state is cleared by the auth listener.
func (s *Store) SignOut(ctx context.Context) error {
	return s.run(ctx, failure.Auth, "signing out", func() error {
		return s.auth.SignOut(ctx)
	})
}

func (s *Store) ResetPassword(ctx context.Context, email string) error {
	return s.run(ctx, failure.Auth, "resetting password", func() error {
		return s.auth.ResetPasswordForEmail(ctx, email, s.resetRedirectURL)
	})
}

func (s *Store) CompletePasswordReset(ctx context.Context, token, newPassword string) error {
	return s.run(ctx, failure.Auth, "completing password reset", func() error {
		return s.auth.CompletePasswordReset(ctx, token, newPassword)
	})
}

// RefreshIdentity re-reads the signed-in user from the server. The new
// identity arrives through the auth listener and the profile is kept.
func (s *Store) RefreshIdentity(ctx context.Context) error {
	return s.run(ctx, failure.Fetch, "refreshing user", func() error {
		if s.State().Identity == nil {
			return failure.ErrNotAuthenticated
		}
		_, err := s.auth.RefreshUser(ctx)
		return err
	})
}

// UpdateProfile writes patch to the signed-in user's profile and then
// re-reads the whole profile. An empty patch only re-reads.
func (s *Store) UpdateProfile(ctx context.Context, patch models.ProfilePatch) error {
	return s.run(ctx, failure.Auth, "updating profile", func() error {
		return s.updateProfile(ctx, patch)
	})
}

func (s *Store) updateProfile(ctx context.Context, patch models.ProfilePatch) error {
	cur := s.State()
	if cur.Identity == nil {
		return failure.ErrNotAuthenticated
	}
	userID := cur.Identity.ID

	if !patch.IsEmpty() {
		values, err := patchValues(patch)
		if err != nil {
			return err
		}
		if _, err := s.rows.Update(ctx, &api.UpdateRequest{
			Table:   profilesTable,
			Patch:   values,
			Filters: []api.Filter{{Column: "id", Op: api.OpEq, Value: userID}},
		}); err != nil {
			return err
		}
	}

	gen := s.nextGeneration()
	profile := s.fetchProfile(ctx, userID)
	s.update(func(st *State) bool {
		if gen < s.profileApplied || st.Identity == nil || st.Identity.ID != userID {
			return false
		}
		s.profileApplied = gen
		st.Profile = profile
		return true
	})
	return nil
}

func patchValues(patch models.ProfilePatch) (map[string]any, error) {
	b, err := json.Marshal(patch)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	return m, nil
}

// AvatarPath is the object name of an avatar uploaded at t.
func AvatarPath(userID, fileName string, t time.Time) string {
	p := fmt.Sprintf("%s-avatar-%d", userID, t.UnixMilli())
	if ext := strings.TrimPrefix(filepath.Ext(fileName), "."); ext != "" {
		p += "." + ext
	}
	return p
}

// UploadAvatar stores data in the public avatars bucket and points the
// profile's avatar_url at it.
func (s *Store) UploadAvatar(ctx context.Context, files FileStorage, fileName string, data []byte) error {
	return s.run(ctx, failure.Mutation, "uploading avatar", func() error {
		cur := s.State()
		if cur.Identity == nil {
			return failure.ErrNotAuthenticated
		}

		if err := files.CreateBucket(ctx, avatarsBucket, true); err != nil && !errors.Is(err, client.ErrAlreadyExists) {
			s.logger.Warn(ctx, "error creating avatars bucket", "error", err.Error())
		}

		path := AvatarPath(cur.Identity.ID, fileName, s.now())
		if err := files.Upload(ctx, avatarsBucket, path, data, http.DetectContentType(data)); err != nil {
			return err
		}

		url, err := files.GetPublicURL(ctx, avatarsBucket, path)
		if err != nil {
			return err
		}

		return s.updateProfile(ctx, models.ProfilePatch{AvatarURL: &url})
	})
}
