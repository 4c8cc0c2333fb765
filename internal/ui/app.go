package ui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/abelbrown/harbor/internal/engage"
	"github.com/abelbrown/harbor/internal/model"
	"github.com/abelbrown/harbor/internal/notify"
	"github.com/abelbrown/harbor/internal/suggest"
)

// Deps are the units the TUI drives.
type Deps struct {
	Engine   *suggest.Engine
	Feed     *notify.Feed
	Engage   *engage.Unit // optional; enables view tracking on navigation
	Authed   func() bool
	User     string
	Theme    string
	PageSize int
}

// App is the root Bubble Tea model.
// It holds no data of its own: suggestions and notifications arrive as
// store snapshots over subscription channels.
type App struct {
	engine   *suggest.Engine
	feed     *notify.Feed
	engage   *engage.Unit
	authed   func() bool
	user     string
	pageSize int
	styles   Styles

	search    SearchBox
	feedState notify.State
	cursor    int

	suggestCh <-chan suggest.Snapshot
	feedCh    <-chan notify.State
	unsubs    []func()

	location string
	status   string
	err      error
	width    int
	height   int

	ctx    context.Context
	cancel context.CancelFunc
}

// NewApp creates the root model and subscribes to the engine and feed.
func NewApp(d Deps) App {
	if d.Authed == nil {
		d.Authed = func() bool { return false }
	}
	if d.PageSize <= 0 {
		d.PageSize = 20
	}
	styles := ThemeStyles(d.Theme)
	ctx, cancel := context.WithCancel(context.Background())

	suggestCh, unsubSuggest := d.Engine.Store().Subscribe()
	feedCh, unsubFeed := d.Feed.Store().Subscribe()

	return App{
		engine:    d.Engine,
		feed:      d.Feed,
		engage:    d.Engage,
		authed:    d.Authed,
		user:      d.User,
		pageSize:  d.PageSize,
		styles:    styles,
		search:    NewSearchBox(d.Engine, styles),
		feedState: d.Feed.Snapshot(),
		suggestCh: suggestCh,
		feedCh:    feedCh,
		unsubs:    []func(){unsubSuggest, unsubFeed},
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Init implements tea.Model.
func (a App) Init() tea.Cmd {
	cmds := []tea.Cmd{a.listenForSuggestions(), a.listenForFeed()}
	if a.authed() {
		cmds = append(cmds, a.fetchUnreadCount())
	}
	return tea.Batch(cmds...)
}

// Shutdown cancels pending commands and drops subscriptions.
func (a App) Shutdown() {
	a.cancel()
	for _, unsub := range a.unsubs {
		unsub()
	}
}

// Location returns the last path navigated to.
func (a App) Location() string {
	return a.location
}

// Update implements tea.Model.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return a.handleKeyMsg(msg)

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.search.SetWidth(msg.Width)
		return a, nil

	case suggestionsMsg:
		a.search.SetSnapshot(suggest.Snapshot(msg))
		return a, a.listenForSuggestions()

	case feedMsg:
		a.feedState = notify.State(msg)
		a.clampCursor()
		return a, a.listenForFeed()

	case UnreadCountMsg:
		// The feed store already holds the count; its subscription redraws.
		return a, nil

	case NavigateMsg:
		a.feedState = a.feed.Snapshot()
		a.location = msg.Path
		a.status = "→ " + msg.Path
		return a, nil

	case actionDoneMsg:
		a.feedState = a.feed.Snapshot()
		a.clampCursor()
		a.err = msg.Err
		if msg.Status != "" {
			a.status = msg.Status
		}
		return a, nil

	case listenClosedMsg:
		return a, nil
	}

	var cmd tea.Cmd
	a.search, cmd, _ = a.search.Update(msg)
	return a, cmd
}

func (a App) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		a.Shutdown()
		return a, tea.Quit

	case "ctrl+n":
		open := a.feed.TogglePanel()
		a.feedState = a.feed.Snapshot()
		if open {
			a.cursor = 0
			return a, a.fetchNotifications()
		}
		return a, nil
	}

	if a.feedState.PanelOpen {
		return a.handlePanelKey(msg)
	}

	if !a.search.Focused() {
		switch msg.String() {
		case "/", "i":
			return a, a.search.Focus()
		case "q":
			a.Shutdown()
			return a, tea.Quit
		}
		return a, nil
	}

	// Remember the selection: Enter resets the engine.
	selected, hasSelection := a.engine.Snapshot().Selection()

	var (
		cmd tea.Cmd
		act suggest.Action
	)
	a.search, cmd, act = a.search.Update(msg)
	a.search.SetSnapshot(a.engine.Snapshot())

	switch act.Kind {
	case suggest.ActionDetail:
		var ref *model.EntityRef
		if hasSelection {
			r := model.Ref(selected.Type, selected.ID)
			ref = &r
		}
		return a, tea.Batch(cmd, a.navigate(act.Path, ref))
	case suggest.ActionSearch:
		return a, tea.Batch(cmd, a.navigate(act.Path, nil))
	}
	return a, cmd
}

func (a *App) clampCursor() {
	if n := len(a.feedState.Items()); a.cursor >= n {
		a.cursor = max(0, n-1)
	}
}

func (a App) handlePanelKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	items := a.feedState.Items()
	switch msg.String() {
	case "esc":
		a.feed.ClosePanel()
		a.feedState = a.feed.Snapshot()
		return a, nil
	case "up", "k":
		if a.cursor > 0 {
			a.cursor--
		}
	case "down", "j":
		if a.cursor < len(items)-1 {
			a.cursor++
		}
	case "enter":
		if a.cursor < len(items) {
			return a, a.openNotification(items[a.cursor])
		}
	case "d":
		if a.cursor < len(items) {
			return a, a.deleteNotification(items[a.cursor].ID)
		}
	case "a":
		return a, a.markAllRead()
	}
	return a, nil
}

// View implements tea.Model.
func (a App) View() string {
	var b strings.Builder
	if a.feedState.PanelOpen {
		b.WriteString(a.renderPanel())
	} else {
		b.WriteString(a.search.View())
	}
	b.WriteString("\n")
	b.WriteString(a.renderStatusBar())
	return b.String()
}

func (a App) renderPanel() string {
	var b strings.Builder
	b.WriteString(a.styles.PanelTitle.Render("Notifications"))
	b.WriteString("\n")

	list := a.feedState.List
	switch {
	case list.Loading && len(list.Data.Notifications) == 0:
		b.WriteString(a.styles.Muted.Render("Loading..."))
	case list.Error != "":
		b.WriteString(a.styles.Error.Render(list.Error))
	case len(list.Data.Notifications) == 0:
		b.WriteString(a.styles.Muted.Render("No notifications"))
	}
	for i, n := range list.Data.Notifications {
		style := a.styles.NormalItem
		if n.IsRead {
			style = a.styles.ReadItem
		}
		if i == a.cursor {
			style = a.styles.SelectedItem
		}
		marker := "  "
		if !n.IsRead {
			marker = "● "
		}
		b.WriteString(style.Render(marker + n.Title + "  " + a.styles.Muted.Render(n.Message)))
		b.WriteString("\n")
	}
	if e := a.feedState.Mutation.Error; e != "" {
		b.WriteString(a.styles.Error.Render(e))
		b.WriteString("\n")
	}
	b.WriteString(a.styles.Muted.Render("↑↓ navigate  enter open  d delete  a mark all read  esc close"))

	w := a.width - 2
	if w < 20 {
		return a.styles.Panel.Render(b.String())
	}
	return a.styles.Panel.Width(w).Render(b.String())
}

func (a App) renderStatusBar() string {
	var parts []string
	if a.authed() {
		user := a.user
		if user == "" {
			user = "signed in"
		}
		parts = append(parts, a.styles.StatusBarText.Render(user))
		if n := a.feedState.UnreadCount(); n > 0 {
			parts = append(parts, a.styles.UnreadBadge.Render(fmt.Sprintf("%d", n)))
		}
	} else {
		parts = append(parts, a.styles.StatusBarText.Render("guest"))
	}
	if a.err != nil {
		parts = append(parts, a.styles.Error.Render(a.err.Error()))
	} else if a.status != "" {
		parts = append(parts, a.styles.StatusBarText.Render(a.status))
	}
	parts = append(parts,
		a.styles.StatusBarKey.Render("ctrl+n")+a.styles.StatusBarText.Render(" notifications"),
		a.styles.StatusBarKey.Render("ctrl+c")+a.styles.StatusBarText.Render(" quit"),
	)
	return a.styles.StatusBar.Render(strings.Join(parts, "  "))
}

func (a App) listenForSuggestions() tea.Cmd {
	return func() tea.Msg {
		select {
		case snap, ok := <-a.suggestCh:
			if !ok {
				return listenClosedMsg{}
			}
			return suggestionsMsg(snap)
		case <-a.ctx.Done():
			return listenClosedMsg{}
		}
	}
}

func (a App) listenForFeed() tea.Cmd {
	return func() tea.Msg {
		select {
		case s, ok := <-a.feedCh:
			if !ok {
				return listenClosedMsg{}
			}
			return feedMsg(s)
		case <-a.ctx.Done():
			return listenClosedMsg{}
		}
	}
}

func (a App) fetchUnreadCount() tea.Cmd {
	return func() tea.Msg {
		return actionDoneMsg{Err: a.feed.FetchUnreadCount(a.ctx)}
	}
}

func (a App) fetchNotifications() tea.Cmd {
	if !a.authed() {
		return func() tea.Msg {
			return actionDoneMsg{Status: "Sign in to see notifications"}
		}
	}
	return func() tea.Msg {
		return actionDoneMsg{Err: a.feed.FetchNotifications(a.ctx, 1, a.pageSize)}
	}
}

func (a App) openNotification(n model.Notification) tea.Cmd {
	return func() tea.Msg {
		path, ok := a.feed.Open(a.ctx, n)
		if !ok {
			return actionDoneMsg{Status: "Nothing to open for this notification"}
		}
		if a.engage != nil {
			if ref, ok := n.Ref(); ok {
				a.engage.MarkEntityAsViewed(a.ctx, ref.Type, ref.ID)
			}
		}
		return NavigateMsg{Path: path}
	}
}

func (a App) deleteNotification(id int64) tea.Cmd {
	return func() tea.Msg {
		if err := a.feed.Delete(a.ctx, id); err != nil {
			return actionDoneMsg{Err: err}
		}
		return actionDoneMsg{Status: "Notification deleted"}
	}
}

func (a App) markAllRead() tea.Cmd {
	return func() tea.Msg {
		if err := a.feed.MarkAllAsRead(a.ctx); err != nil {
			return actionDoneMsg{Err: err}
		}
		return actionDoneMsg{Status: "All notifications read"}
	}
}

// navigate records a view for entity destinations and reports the path.
func (a App) navigate(path string, ref *model.EntityRef) tea.Cmd {
	return func() tea.Msg {
		if ref != nil && a.engage != nil {
			a.engage.MarkEntityAsViewed(a.ctx, ref.Type, ref.ID)
		}
		return NavigateMsg{Path: path}
	}
}
