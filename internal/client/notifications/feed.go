// Package notifications keeps the signed-in user's recent notifications and
// their unread count.
package notifications

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/dmitrijs2005/homeshare/internal/api"
	"github.com/dmitrijs2005/homeshare/internal/client/failure"
	"github.com/dmitrijs2005/homeshare/internal/client/models"
	"github.com/dmitrijs2005/homeshare/internal/client/observe"
	"github.com/dmitrijs2005/homeshare/internal/logging"
)

const (
	table = "notifications"

	// Limit is how many of the newest notifications are loaded.
	Limit = 20

	// LoadErrorText is recorded in State.Err when loading fails.
	LoadErrorText = "Failed to load notifications"
)

type Selecter interface {
	Select(ctx context.Context, req *api.SelectRequest) ([]json.RawMessage, error)
}

type Updater interface {
	Update(ctx context.Context, req *api.UpdateRequest) (int64, error)
}

type Inserter interface {
	Insert(ctx context.Context, req *api.InsertRequest) ([]json.RawMessage, error)
}

type Rows interface {
	Selecter
	Updater
}

type State struct {
	UserID  string
	Items   []models.Notification
	Loading bool
	Err     string
	Unread  int
}

// Feed is safe for concurrent use. Local records change only after the
// server confirmed the write.
type Feed struct {
	rows   Rows
	logger logging.Logger
	subs   observe.List[State]

	mu     sync.Mutex
	state  State
	closed bool
}

func New(rows Rows, logger logging.Logger) *Feed {
	return &Feed{
		rows:   rows,
		logger: logger.With("module", "notifications"),
		state:  State{Loading: true},
	}
}

func (f *Feed) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *Feed) Subscribe(fn func(State)) func() {
	return f.subs.Add(fn)
}

func (f *Feed) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
}

func (f *Feed) update(fn func(st *State) bool) bool {
	f.mu.Lock()
	if f.closed || !fn(&f.state) {
		f.mu.Unlock()
		return false
	}
	f.mu.Unlock()

	f.subs.Publish(f.State)
	return true
}

// Load replaces the feed with userID's newest notifications. On failure the
// previous items and unread count are kept. An empty userID clears the feed.
func (f *Feed) Load(ctx context.Context, userID string) error {
	if userID == "" {
		f.update(func(st *State) bool {
			*st = State{}
			return true
		})
		return nil
	}

	f.update(func(st *State) bool {
		if st.UserID != userID {
			*st = State{UserID: userID}
		}
		st.Loading = true
		return true
	})

	rows, err := f.rows.Select(ctx, &api.SelectRequest{
		Table:   table,
		Filters: []api.Filter{{Column: "user_id", Op: api.OpEq, Value: userID}},
		Order:   &api.Order{Column: "created_at", Ascending: false},
		Limit:   Limit,
	})
	var items []models.Notification
	if err == nil {
		items, err = decode(rows)
	}
	if err != nil {
		f.logger.Error(ctx, "error fetching notifications", "error", err.Error())
	}

	applied := f.update(func(st *State) bool {
		if ctx.Err() != nil || st.UserID != userID {
			return false
		}
		st.Loading = false
		if err != nil {
			st.Err = LoadErrorText
			return true
		}
		st.Items = items
		st.Unread = models.CountUnread(items)
		st.Err = ""
		return true
	})
	if applied && err != nil {
		return failure.Fetch(table, err)
	}
	return nil
}

func decode(rows []json.RawMessage) ([]models.Notification, error) {
	items := make([]models.Notification, 0, len(rows))
	for _, raw := range rows {
		var n models.Notification
		if err := json.Unmarshal(raw, &n); err != nil {
			return nil, err
		}
		items = append(items, n)
	}
	return items, nil
}

// MarkAsRead marks one notification read on the server and then locally.
// Marking an already read notification is harmless.
func (f *Feed) MarkAsRead(ctx context.Context, id string) error {
	_, err := f.rows.Update(ctx, &api.UpdateRequest{
		Table:   table,
		Patch:   map[string]any{"is_read": true},
		Filters: []api.Filter{{Column: "id", Op: api.OpEq, Value: id}},
	})
	if err != nil {
		f.logger.Error(ctx, "error marking notification as read", "id", id, "error", err.Error())
		return failure.Mutation("mark as read", err)
	}

	f.update(func(st *State) bool {
		if ctx.Err() != nil {
			return false
		}
		items := make([]models.Notification, len(st.Items))
		copy(items, st.Items)
		for i := range items {
			if items[i].ID == id {
				items[i].IsRead = true
			}
		}
		st.Items = items
		st.Unread = models.CountUnread(items)
		return true
	})
	return nil
}

// MarkAllAsRead marks every unread notification of the loaded user read.
// With no user or an empty feed it does nothing.
func (f *Feed) MarkAllAsRead(ctx context.Context) error {
	cur := f.State()
	if cur.UserID == "" || len(cur.Items) == 0 {
		return nil
	}

	_, err := f.rows.Update(ctx, &api.UpdateRequest{
		Table: table,
		Patch: map[string]any{"is_read": true},
		Filters: []api.Filter{
			{Column: "user_id", Op: api.OpEq, Value: cur.UserID},
			{Column: "is_read", Op: api.OpEq, Value: false},
		},
	})
	if err != nil {
		f.logger.Error(ctx, "error marking all notifications as read", "error", err.Error())
		return failure.Mutation("mark all as read", err)
	}

	f.update(func(st *State) bool {
		if ctx.Err() != nil || st.UserID != cur.UserID {
			return false
		}
		items := make([]models.Notification, len(st.Items))
		for i, n := range st.Items {
			n.IsRead = true
			items[i] = n
		}
		st.Items = items
		st.Unread = 0
		return true
	})
	return nil
}
