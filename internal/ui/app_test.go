package ui

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/abelbrown/harbor/internal/api"
	"github.com/abelbrown/harbor/internal/engage"
	"github.com/abelbrown/harbor/internal/model"
	"github.com/abelbrown/harbor/internal/notify"
	"github.com/abelbrown/harbor/internal/suggest"
)

// manualClock queues timers until flush is called.
type manualClock struct {
	mu      sync.Mutex
	pending []*manualTimer
}

type manualTimer struct {
	f       func()
	stopped bool
}

func (t *manualTimer) Stop() bool {
	was := !t.stopped
	t.stopped = true
	return was
}

func (c *manualClock) AfterFunc(d time.Duration, f func()) suggest.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &manualTimer{f: f}
	c.pending = append(c.pending, t)
	return t
}

func (c *manualClock) flush() {
	c.mu.Lock()
	due := c.pending
	c.pending = nil
	c.mu.Unlock()
	for _, t := range due {
		if !t.stopped {
			t.stopped = true
			t.f()
		}
	}
}

type staticSuggester struct{}

func (staticSuggester) Suggest(ctx context.Context, prefix string, limit int) ([]model.SuggestionItem, error) {
	return []model.SuggestionItem{
		{ID: 1, Type: model.EntityThread, Title: "Boats and tides", Slug: "boats-and-tides"},
		{ID: 2, Type: model.EntityBlog, Title: "Boat building", Slug: "boat-building"},
	}, nil
}

type fakeFeedAPI struct {
	mu      sync.Mutex
	items   []model.Notification
	deleted []int64
}

func (f *fakeFeedAPI) Notifications(ctx context.Context, page, limit int) (*api.NotificationPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	items := append([]model.Notification(nil), f.items...)
	return &api.NotificationPage{Notifications: items, Page: page, Limit: limit, Total: len(items)}, nil
}

func (f *fakeFeedAPI) UnreadCount(ctx context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, it := range f.items {
		if !it.IsRead {
			n++
		}
	}
	return n, nil
}

func (f *fakeFeedAPI) MarkNotificationRead(ctx context.Context, id int64) error { return nil }
func (f *fakeFeedAPI) MarkAllNotificationsRead(ctx context.Context) error      { return nil }

func (f *fakeFeedAPI) DeleteNotification(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, id)
	return nil
}

type viewRecorder struct {
	mu    sync.Mutex
	views []string
}

func (v *viewRecorder) ToggleLike(ctx context.Context, ref model.EntityRef) (api.ToggleResult, error) {
	return api.ToggleResult{}, nil
}
func (v *viewRecorder) LikeStatus(ctx context.Context, ref model.EntityRef) (bool, error) {
	return false, nil
}
func (v *viewRecorder) LikeCount(ctx context.Context, ref model.EntityRef) (int, error) {
	return 0, nil
}
func (v *viewRecorder) IncrementView(ctx context.Context, ref model.EntityRef) (int, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.views = append(v.views, ref.Key())
	return len(v.views), nil
}

type harness struct {
	app   App
	clock *manualClock
	feed  *fakeFeedAPI
	views *viewRecorder
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		clock: &manualClock{},
		feed: &fakeFeedAPI{items: []model.Notification{
			{ID: 1, Title: "New reply", EntityType: "thread", EntityID: 10},
			{ID: 2, Title: "Liked your post", EntityType: "blog", EntityID: 20},
			{ID: 3, Title: "Welcome", IsRead: true, EntityType: "badge"},
		}},
		views: &viewRecorder{},
	}
	authed := func() bool { return true }
	engine := suggest.New(staticSuggester{}, suggest.Options{Clock: h.clock})
	h.app = NewApp(Deps{
		Engine: engine,
		Feed:   notify.NewFeed(h.feed, nil),
		Engage: engage.New(h.views, authed),
		Authed: authed,
		User:   "ada",
	})
	t.Cleanup(func() {
		h.app.Shutdown()
		engine.Close()
	})
	return h
}

func (h *harness) send(msg tea.Msg) tea.Cmd {
	m, cmd := h.app.Update(msg)
	h.app = m.(App)
	return cmd
}

func (h *harness) typeText(s string) {
	for _, r := range s {
		h.send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

// run executes cmd and feeds every resulting message back into the app.
func (h *harness) run(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, h.run(c)...)
		}
		return out
	}
	return append([]tea.Msg{msg}, h.run(h.send(msg))...)
}

func TestAppTypeaheadNavigates(t *testing.T) {
	h := newHarness(t)

	h.typeText("boa")
	h.clock.flush()
	h.app.search.SetSnapshot(h.app.engine.Snapshot())

	if got := h.app.engine.Snapshot().Phase; got != suggest.Showing {
		t.Fatalf("expected Showing, got %v", got)
	}
	if !strings.Contains(h.app.View(), "Boat building") {
		t.Error("suggestions not rendered")
	}

	h.send(tea.KeyMsg{Type: tea.KeyDown})
	h.send(tea.KeyMsg{Type: tea.KeyDown})
	cmd := h.send(tea.KeyMsg{Type: tea.KeyEnter})
	h.run(cmd)

	if got := h.app.Location(); got != "/blogs/boat-building" {
		t.Errorf("expected /blogs/boat-building, got %q", got)
	}
	h.views.mu.Lock()
	views := append([]string(nil), h.views.views...)
	h.views.mu.Unlock()
	if len(views) != 1 || views[0] != "blog-2" {
		t.Errorf("expected one view of blog-2, got %v", views)
	}
	if h.app.search.Focused() {
		t.Error("input should blur after navigating")
	}
}

func TestAppSelectionKeys(t *testing.T) {
	h := newHarness(t)
	h.typeText("boa")
	h.clock.flush()
	h.app.search.SetSnapshot(h.app.engine.Snapshot())

	steps := []struct {
		key  tea.KeyType
		want int
	}{
		{tea.KeyDown, 0},
		{tea.KeyDown, 1},
		{tea.KeyUp, 0},
		// Only the arrows move the selection.
		{tea.KeyCtrlP, 0},
		{tea.KeyUp, -1},
	}
	for _, st := range steps {
		h.send(tea.KeyMsg{Type: st.key})
		if got := h.app.engine.Snapshot().Selected; got != st.want {
			t.Errorf("after %v: Selected = %d, want %d", st.key, got, st.want)
		}
	}
}

func TestAppEnterWithoutSelectionSearches(t *testing.T) {
	h := newHarness(t)
	h.typeText("boats")

	h.run(h.send(tea.KeyMsg{Type: tea.KeyEnter}))

	if got := h.app.Location(); got != "/search?query=boats" {
		t.Errorf("expected search route, got %q", got)
	}
	if h.views.views != nil {
		t.Error("search must not record a view")
	}
}

func TestAppEscapeBlursAndQuits(t *testing.T) {
	h := newHarness(t)
	h.typeText("bo")
	h.send(tea.KeyMsg{Type: tea.KeyEsc})

	if h.app.search.Focused() {
		t.Fatal("esc should blur the input")
	}
	if h.app.engine.Snapshot().Query != "bo" {
		t.Error("esc should keep the typed text")
	}

	// Unfocused, "/" refocuses and "q" quits.
	h.send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("/")})
	if !h.app.search.Focused() {
		t.Fatal("/ should focus the input")
	}
	h.send(tea.KeyMsg{Type: tea.KeyEsc})
	cmd := h.send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}
}

func TestAppCtrlCQuits(t *testing.T) {
	h := newHarness(t)
	cmd := h.send(tea.KeyMsg{Type: tea.KeyCtrlC})
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}
}

func TestAppNotificationPanel(t *testing.T) {
	h := newHarness(t)

	h.run(h.send(tea.KeyMsg{Type: tea.KeyCtrlN}))
	if !h.app.feedState.PanelOpen {
		t.Fatal("ctrl+n should open the panel")
	}
	if n := len(h.app.feedState.Items()); n != 3 {
		t.Fatalf("expected 3 notifications, got %d", n)
	}
	if !strings.Contains(h.app.View(), "New reply") {
		t.Error("panel not rendered")
	}

	// Delete the second one.
	h.send(tea.KeyMsg{Type: tea.KeyDown})
	h.run(h.send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("d")}))
	if len(h.feed.deleted) != 1 || h.feed.deleted[0] != 2 {
		t.Errorf("expected delete of 2, got %v", h.feed.deleted)
	}
	if n := len(h.app.feedState.Items()); n != 2 {
		t.Errorf("expected 2 notifications left, got %d", n)
	}

	// Open the first: navigates and closes the panel.
	h.send(tea.KeyMsg{Type: tea.KeyUp})
	h.run(h.send(tea.KeyMsg{Type: tea.KeyEnter}))
	if h.app.feedState.PanelOpen {
		t.Error("opening a notification should close the panel")
	}
	if got := h.app.Location(); got != "/threads/10" {
		t.Errorf("expected /threads/10, got %q", got)
	}

	h.run(h.send(tea.KeyMsg{Type: tea.KeyCtrlN}))
	h.send(tea.KeyMsg{Type: tea.KeyEsc})
	if h.app.feedState.PanelOpen {
		t.Error("esc should close the panel")
	}
}

func TestAppStatusBarUnreadBadge(t *testing.T) {
	h := newHarness(t)
	if err := h.app.feed.FetchUnreadCount(context.Background()); err != nil {
		t.Fatal(err)
	}
	h.send(feedMsg(h.app.feed.Snapshot()))

	view := h.app.View()
	if !strings.Contains(view, "ada") {
		t.Error("status bar should show the user")
	}
	if !strings.Contains(view, "2") {
		t.Error("status bar should show the unread count")
	}
}

func TestAppWindowSize(t *testing.T) {
	h := newHarness(t)
	h.send(tea.WindowSizeMsg{Width: 100, Height: 40})
	if h.app.width != 100 || h.app.height != 40 {
		t.Errorf("expected 100x40, got %dx%d", h.app.width, h.app.height)
	}
}

func TestAppGuestStatus(t *testing.T) {
	engine := suggest.New(staticSuggester{}, suggest.Options{Clock: &manualClock{}})
	app := NewApp(Deps{Engine: engine, Feed: notify.NewFeed(&fakeFeedAPI{}, nil)})
	defer app.Shutdown()

	if !strings.Contains(app.View(), "guest") {
		t.Error("expected guest status")
	}
	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyCtrlN})
	if cmd == nil {
		t.Fatal("expected a status command")
	}
	done, ok := cmd().(actionDoneMsg)
	if !ok || done.Status == "" {
		t.Errorf("expected sign-in hint, got %#v", done)
	}
}
