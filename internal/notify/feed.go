// Package notify holds the notification feed and its unread counter.
//
// Mutations go to the server first. Only after the server accepts one is
// the local page patched in place; the page is never refetched to reflect
// a mutation. The unread counter is kept in step incrementally; marking
// read a notification that is not on the loaded page refetches it.
package notify

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/abelbrown/harbor/internal/api"
	"github.com/abelbrown/harbor/internal/logging"
	"github.com/abelbrown/harbor/internal/model"
	"github.com/abelbrown/harbor/internal/otel"
	"github.com/abelbrown/harbor/internal/route"
	"github.com/abelbrown/harbor/internal/state"
)

// ErrNotFound wraps a 404 from a notification mutation.
var ErrNotFound = errors.New("notify: notification not found")

// Gateway is the part of the API the feed calls.
type Gateway interface {
	Notifications(ctx context.Context, page, limit int) (*api.NotificationPage, error)
	UnreadCount(ctx context.Context) (int, error)
	MarkNotificationRead(ctx context.Context, id int64) error
	MarkAllNotificationsRead(ctx context.Context) error
	DeleteNotification(ctx context.Context, id int64) error
}

// State is the notification store's value.
type State struct {
	List      state.Resource[api.NotificationPage]
	Unread    state.Resource[int]
	Mutation  state.Resource[struct{}]
	PanelOpen bool
}

// Items returns the notifications on the loaded page.
func (s State) Items() []model.Notification {
	return s.List.Data.Notifications
}

// UnreadCount returns the current unread counter.
func (s State) UnreadCount() int {
	return s.Unread.Data
}

// Feed is the notification feed unit.
type Feed struct {
	store  *state.Store[State]
	api    Gateway
	events *otel.Logger
}

// NewFeed creates an empty feed.
func NewFeed(gw Gateway, events *otel.Logger) *Feed {
	return &Feed{
		store:  state.NewStore(func() State { return State{} }, nil),
		api:    gw,
		events: events,
	}
}

// Store exposes the feed store for subscribers.
func (f *Feed) Store() *state.Store[State] {
	return f.store
}

// Snapshot returns the current feed state.
func (f *Feed) Snapshot() State {
	return f.store.Snapshot()
}

func list(s *State) *state.Resource[api.NotificationPage] { return &s.List }
func unread(s *State) *state.Resource[int]                 { return &s.Unread }
func mutation(s *State) *state.Resource[struct{}]          { return &s.Mutation }

// FetchUnreadCount loads the server's unread counter.
func (f *Feed) FetchUnreadCount(ctx context.Context) error {
	_, err := state.Load(ctx, f.store, unread, state.LastResolved, f.api.UnreadCount)
	return err
}

// FetchNotifications loads one page of the feed.
func (f *Feed) FetchNotifications(ctx context.Context, page, limit int) error {
	_, err := state.Load(ctx, f.store, list, state.LastResolved, func(ctx context.Context) (api.NotificationPage, error) {
		p, err := f.api.Notifications(ctx, page, limit)
		if err != nil {
			return api.NotificationPage{}, err
		}
		return *p, nil
	})
	return err
}

// mutate runs call through the mutation lifecycle and, on success,
// applies patch to the store.
func (f *Feed) mutate(ctx context.Context, id int64, call func(context.Context) error, patch func(State) State) error {
	_, err := state.Load(ctx, f.store, mutation, state.LastResolved, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, call(ctx)
	})
	if err != nil {
		if api.IsNotFound(err) {
			return fmt.Errorf("%w: id %d: %w", ErrNotFound, id, err)
		}
		return err
	}
	f.store.Update(patch)
	return nil
}

// MarkAsRead marks one notification read. The counter drops only if the
// notification was unread on the loaded page. For an id off the loaded page
// the local state cannot tell, so the counter is refetched instead.
func (f *Feed) MarkAsRead(ctx context.Context, id int64) error {
	var offPage bool
	err := f.mutate(ctx, id,
		func(ctx context.Context) error { return f.api.MarkNotificationRead(ctx, id) },
		func(s State) State {
			items := s.List.Data.Notifications
			i := slices.IndexFunc(items, func(n model.Notification) bool { return n.ID == id })
			offPage = i < 0
			if i < 0 || items[i].IsRead {
				return s
			}
			items = slices.Clone(items)
			items[i].IsRead = true
			s.List.Data.Notifications = items
			s.Unread.Data = max(0, s.Unread.Data-1)
			return s
		})
	f.emit(otel.KindNotifyRead, id, err)
	if err == nil && offPage {
		if cerr := f.FetchUnreadCount(ctx); cerr != nil {
			logging.Warn("Unread count refresh failed", "id", id, "error", cerr)
		}
	}
	return err
}

// MarkAllAsRead marks every notification read and zeroes the counter.
func (f *Feed) MarkAllAsRead(ctx context.Context) error {
	err := f.mutate(ctx, 0, f.api.MarkAllNotificationsRead, func(s State) State {
		items := slices.Clone(s.List.Data.Notifications)
		for i := range items {
			items[i].IsRead = true
		}
		s.List.Data.Notifications = items
		s.Unread.Data = 0
		return s
	})
	f.emit(otel.KindNotifyRead, 0, err)
	return err
}

// Delete removes one notification. The counter drops if it was unread.
func (f *Feed) Delete(ctx context.Context, id int64) error {
	err := f.mutate(ctx, id,
		func(ctx context.Context) error { return f.api.DeleteNotification(ctx, id) },
		func(s State) State {
			items := s.List.Data.Notifications
			i := slices.IndexFunc(items, func(n model.Notification) bool { return n.ID == id })
			if i < 0 {
				return s
			}
			if !items[i].IsRead {
				s.Unread.Data = max(0, s.Unread.Data-1)
			}
			s.List.Data.Notifications = slices.Delete(slices.Clone(items), i, i+1)
			if s.List.Data.Total > 0 {
				s.List.Data.Total--
			}
			return s
		})
	f.emit(otel.KindNotifyDelete, id, err)
	return err
}

func (f *Feed) emit(kind otel.EventKind, id int64, err error) {
	e := otel.Event{Level: otel.LevelInfo, Kind: kind, Comp: "notify"}
	if id != 0 {
		e.Extra = map[string]any{"id": id}
	}
	if err != nil {
		e.Level = otel.LevelWarn
		e.Err = err.Error()
	}
	f.events.Emit(e)
}

// Open handles a click on a notification: mark it read if it is unread,
// resolve where it points, and close the panel. A failed read mutation is
// recorded in the store and does not block navigation. ok is false when
// the entity type is unknown.
func (f *Feed) Open(ctx context.Context, n model.Notification) (path string, ok bool) {
	if !n.IsRead {
		if err := f.MarkAsRead(ctx, n.ID); err != nil {
			logging.Warn("Mark notification read failed", "id", n.ID, "error", err)
		}
	}
	path, ok = route.ForNotification(n)
	f.ClosePanel()
	return path, ok
}

// OpenPanel shows the notification panel.
func (f *Feed) OpenPanel() { f.setPanel(true) }

// ClosePanel hides the notification panel.
func (f *Feed) ClosePanel() { f.setPanel(false) }

// TogglePanel flips the panel and returns the new state.
func (f *Feed) TogglePanel() bool {
	return f.store.Update(func(s State) State {
		s.PanelOpen = !s.PanelOpen
		return s
	}).PanelOpen
}

func (f *Feed) setPanel(open bool) {
	f.store.Update(func(s State) State {
		s.PanelOpen = open
		return s
	})
}

// Reset drops everything, used at logout.
func (f *Feed) Reset() {
	f.store.Reset()
}
