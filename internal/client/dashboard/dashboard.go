// Package dashboard loads the signed-in user's properties, bookings and
// invitations. The three collections are fetched concurrently and tracked
// independently, so one failing resource does not hold back the others.
package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/dmitrijs2005/homeshare/internal/api"
	"github.com/dmitrijs2005/homeshare/internal/client/failure"
	"github.com/dmitrijs2005/homeshare/internal/client/models"
	"github.com/dmitrijs2005/homeshare/internal/client/observe"
	"github.com/dmitrijs2005/homeshare/internal/logging"
)

// Limit is the number of records fetched per resource.
const Limit = 5

const (
	ResourceProperties  = "properties"
	ResourceBookings    = "bookings"
	ResourceInvitations = "invitations"
)

type Selecter interface {
	Select(ctx context.Context, req *api.SelectRequest) ([]json.RawMessage, error)
}

// Flags holds one loading flag per resource.
type Flags struct {
	Properties  bool
	Bookings    bool
	Invitations bool
}

// Errors holds one human-readable error per resource; "" means none.
type Errors struct {
	Properties  string
	Bookings    string
	Invitations string
}

// State is a snapshot. Collections are replaced, never modified in place,
// so a snapshot may be read without further locking.
type State struct {
	UserID      string
	Properties  []models.Property
	Bookings    []models.Booking
	Invitations []models.Invitation
	Loading     Flags
	Errors      Errors
}

// ErrorText is the message recorded for a resource that failed to load.
func ErrorText(resource string) string {
	return "Failed to load " + resource
}

type Loader struct {
	rows   Selecter
	logger logging.Logger
	subs   observe.List[State]

	mu     sync.Mutex
	state  State
	closed bool
}

func New(rows Selecter, logger logging.Logger) *Loader {
	return &Loader{
		rows:   rows,
		logger: logger.With("module", "dashboard"),
		state:  State{Loading: Flags{Properties: true, Bookings: true, Invitations: true}},
	}
}

func (l *Loader) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

func (l *Loader) Subscribe(fn func(State)) func() {
	return l.subs.Add(fn)
}

// Close stops the loader. Fetches still in flight are not aborted but their
// results are discarded.
func (l *Loader) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
}

// update applies fn unless the loader is closed or fn declines.
func (l *Loader) update(fn func(st *State) bool) bool {
	l.mu.Lock()
	if l.closed || !fn(&l.state) {
		l.mu.Unlock()
		return false
	}
	l.mu.Unlock()

	l.subs.Publish(l.State)
	return true
}

// Load fetches all three resources for userID and returns when every fetch
// has finished. The error joins one *failure.Error per failed resource.
// An empty userID clears the state without contacting the server.
func (l *Loader) Load(ctx context.Context, userID string) error {
	if userID == "" {
		l.update(func(st *State) bool {
			*st = State{}
			return true
		})
		return nil
	}

	l.update(func(st *State) bool {
		if st.UserID != userID {
			*st = State{UserID: userID}
		}
		st.Loading = Flags{Properties: true, Bookings: true, Invitations: true}
		st.Errors = Errors{}
		return true
	})

	var wg sync.WaitGroup
	errs := make([]error, 3)
	wg.Add(3)
	go func() {
		defer wg.Done()
		errs[0] = l.loadProperties(ctx, userID)
	}()
	go func() {
		defer wg.Done()
		errs[1] = l.loadBookings(ctx, userID)
	}()
	go func() {
		defer wg.Done()
		errs[2] = l.loadInvitations(ctx, userID)
	}()
	wg.Wait()

	return errors.Join(errs...)
}

// Refetch reloads the current user's resources. Calls are not debounced;
// when two overlap, whichever finishes last determines the state.
func (l *Loader) Refetch(ctx context.Context) error {
	return l.Load(ctx, l.State().UserID)
}

func (l *Loader) loadProperties(ctx context.Context, userID string) error {
	items, err := fetch[models.Property](ctx, l, ResourceProperties, &api.SelectRequest{
		Table:   ResourceProperties,
		Filters: []api.Filter{{Column: "owner_id", Op: api.OpEq, Value: userID}},
		Limit:   Limit,
	})
	return l.finish(ctx, userID, ResourceProperties, err, func(st *State) {
		st.Loading.Properties = false
		if err != nil {
			st.Errors.Properties = ErrorText(ResourceProperties)
			return
		}
		st.Properties = items
		st.Errors.Properties = ""
	})
}

func (l *Loader) loadBookings(ctx context.Context, userID string) error {
	items, err := fetch[models.Booking](ctx, l, ResourceBookings, &api.SelectRequest{
		Table:   ResourceBookings,
		Filters: []api.Filter{{Column: "guest_id", Op: api.OpEq, Value: userID}},
		Order:   &api.Order{Column: "start_date", Ascending: true},
		Limit:   Limit,
	})
	return l.finish(ctx, userID, ResourceBookings, err, func(st *State) {
		st.Loading.Bookings = false
		if err != nil {
			st.Errors.Bookings = ErrorText(ResourceBookings)
			return
		}
		st.Bookings = items
		st.Errors.Bookings = ""
	})
}

func (l *Loader) loadInvitations(ctx context.Context, userID string) error {
	items, err := fetch[models.Invitation](ctx, l, ResourceInvitations, &api.SelectRequest{
		Table:   ResourceInvitations,
		Filters: []api.Filter{{Column: "sender_id", Op: api.OpEq, Value: userID}},
		Limit:   Limit,
	})
	return l.finish(ctx, userID, ResourceInvitations, err, func(st *State) {
		st.Loading.Invitations = false
		if err != nil {
			st.Errors.Invitations = ErrorText(ResourceInvitations)
			return
		}
		st.Invitations = items
		st.Errors.Invitations = ""
	})
}

// finish applies a fetch result unless it is stale: the loader was closed,
// ctx was cancelled or the loader moved on to another user.
func (l *Loader) finish(ctx context.Context, userID, resource string, err error, apply func(st *State)) error {
	applied := l.update(func(st *State) bool {
		if ctx.Err() != nil || st.UserID != userID {
			return false
		}
		apply(st)
		return true
	})
	if !applied {
		l.logger.Debug(ctx, "discarded stale result", "resource", resource, "user_id", userID)
		return nil
	}
	if err != nil {
		return failure.Fetch(resource, err)
	}
	return nil
}

// fetch selects rows and decodes them. Rows whose status is outside its
// enum are dropped and logged.
func fetch[T any](ctx context.Context, l *Loader, resource string, req *api.SelectRequest) ([]T, error) {
	rows, err := l.rows.Select(ctx, req)
	if err != nil {
		l.logger.Error(ctx, "error fetching dashboard data", "resource", resource, "error", err.Error())
		return nil, err
	}

	items := make([]T, 0, len(rows))
	for _, raw := range rows {
		var item T
		if err := json.Unmarshal(raw, &item); err != nil {
			if errors.Is(err, models.ErrUnknownStatus) {
				l.logger.Warn(ctx, "dropping record with unknown status", "resource", resource, "error", err.Error())
				continue
			}
			l.logger.Error(ctx, "error decoding dashboard data", "resource", resource, "error", err.Error())
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}
