// Package portal wires harbor's units into one application context.
//
// Every unit is built here and handed its dependencies explicitly; there
// are no package-level singletons. Front ends (the TUI and the CLI
// subcommands) hold an *App and call into its units.
package portal

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"golang.org/x/sync/errgroup"

	"github.com/abelbrown/harbor/internal/api"
	"github.com/abelbrown/harbor/internal/config"
	"github.com/abelbrown/harbor/internal/engage"
	"github.com/abelbrown/harbor/internal/logging"
	"github.com/abelbrown/harbor/internal/model"
	"github.com/abelbrown/harbor/internal/notify"
	"github.com/abelbrown/harbor/internal/otel"
	"github.com/abelbrown/harbor/internal/session"
	"github.com/abelbrown/harbor/internal/state"
	"github.com/abelbrown/harbor/internal/suggest"
)

// Deps are the resources an App borrows. The caller owns and closes them.
type Deps struct {
	Session    *session.Store
	Events     *otel.Logger
	HTTPClient *http.Client          // optional
	Clock      suggest.Clock         // optional, for tests
	AuthPrompt func(model.EntityRef) // optional
}

// App is the application context.
type App struct {
	cfg     *config.Config
	session *session.Store
	events  *otel.Logger

	API        *api.Client
	Auth       *state.Store[state.AuthState]
	Engage     *engage.Unit
	Suggest    *suggest.Engine
	Notify     *notify.Feed
	Profile    *state.Profile
	Search     *state.Search
	Categories *state.Categories
	Threads    *state.Content[model.Thread]
	Blogs      *state.Content[model.Blog]
	Articles   *state.Content[model.Article]
	Products   *state.Content[model.Product]
}

// New builds every unit from cfg.
func New(cfg *config.Config, deps Deps) (*App, error) {
	if deps.Session == nil {
		return nil, errors.New("portal: session store required")
	}
	a := &App{
		cfg:     cfg,
		session: deps.Session,
		events:  deps.Events,
		Auth:    state.NewAuthStore(),
	}

	opts := []api.Option{
		api.WithTokenSource(api.TokenFunc(a.token)),
		api.WithRateLimit(cfg.API.RateLimit),
		api.WithEvents(deps.Events),
	}
	if deps.HTTPClient != nil {
		opts = append(opts, api.WithHTTPClient(deps.HTTPClient))
	}
	client, err := api.NewClient(cfg.API.BaseURL, cfg.API.Timeout, opts...)
	if err != nil {
		return nil, fmt.Errorf("portal: %w", err)
	}
	a.API = client

	engageOpts := []engage.Option{engage.WithEvents(deps.Events)}
	if deps.AuthPrompt != nil {
		engageOpts = append(engageOpts, engage.WithAuthPrompt(deps.AuthPrompt))
	}
	a.Engage = engage.New(client, a.IsAuthenticated, engageOpts...)

	a.Suggest = suggest.New(client, suggest.Options{
		Debounce:    cfg.Search.Debounce,
		MinQueryLen: cfg.Search.MinQueryLen,
		Limit:       cfg.Search.SuggestLimit,
		Clock:       deps.Clock,
		Events:      deps.Events,
	})

	a.Notify = notify.NewFeed(client, deps.Events)
	a.Profile = state.NewProfile(client)
	a.Search = state.NewSearch(client, state.LatestIssued)
	a.Categories = state.NewCategories(client, state.LastResolved)
	a.Threads = state.NewContent(state.ContentFetcher[model.Thread]{List: client.Threads, Get: client.Thread}, state.LastResolved)
	a.Blogs = state.NewContent(state.ContentFetcher[model.Blog]{List: client.Blogs, Get: client.Blog}, state.LastResolved)
	a.Articles = state.NewContent(state.ContentFetcher[model.Article]{List: client.Articles, Get: client.Article}, state.LastResolved)
	a.Products = state.NewContent(state.ContentFetcher[model.Product]{List: client.Products, Get: client.Product}, state.LastResolved)
	return a, nil
}

// Config returns the configuration the app was built with.
func (a *App) Config() *config.Config {
	return a.cfg
}

func (a *App) token() string {
	return a.Auth.Snapshot().Token
}

// IsAuthenticated reports whether a session token is held.
func (a *App) IsAuthenticated() bool {
	return a.Auth.Snapshot().IsAuthenticated()
}

// User returns the signed-in user, or nil.
func (a *App) User() *model.User {
	return a.Auth.Snapshot().User
}

// Bootstrap restores the stored session and warms the signed-in caches.
// A token the server rejects ends the session. Other warm-up failures are
// logged; they live in the stores' error fields.
func (a *App) Bootstrap(ctx context.Context) error {
	a.Engage.ResetSession()

	sess, err := a.session.Load()
	switch {
	case errors.Is(err, session.ErrNoSession):
		return nil
	case err != nil:
		return fmt.Errorf("portal: load session: %w", err)
	}
	a.Auth.Dispatch(state.SessionStarted{Token: sess.Token, User: sess.User})

	// No shared cancellation: one fetch failing must not hide a 401 from
	// the other.
	var countErr, profileErr error
	var g errgroup.Group
	g.Go(func() error {
		countErr = a.Notify.FetchUnreadCount(ctx)
		return countErr
	})
	g.Go(func() error {
		profileErr = a.Profile.Fetch(ctx)
		return profileErr
	})
	g.Wait()
	if api.IsUnauthorized(countErr) || api.IsUnauthorized(profileErr) {
		logging.Info("Stored session rejected by server")
		return a.Logout()
	}
	if err := errors.Join(countErr, profileErr); err != nil {
		logging.Warn("Bootstrap warm-up failed", "error", err)
		return nil
	}
	if p := a.Profile.Snapshot().Profile.Data; p.ID != 0 {
		u := p.User
		a.Auth.Dispatch(state.UserChanged{User: &u})
		if err := a.session.SaveUser(&u); err != nil {
			logging.Warn("Persist user failed", "error", err)
		}
	}
	return nil
}

// Login signs in and persists the session.
func (a *App) Login(ctx context.Context, cred api.Credentials) (*model.User, error) {
	return a.signIn(ctx, func(ctx context.Context) (*api.AuthResponse, error) {
		return a.API.Login(ctx, cred)
	})
}

// Register creates an account and signs in with it.
func (a *App) Register(ctx context.Context, reg api.Registration) (*model.User, error) {
	return a.signIn(ctx, func(ctx context.Context) (*api.AuthResponse, error) {
		return a.API.Register(ctx, reg)
	})
}

func (a *App) signIn(ctx context.Context, call func(context.Context) (*api.AuthResponse, error)) (*model.User, error) {
	var resp *api.AuthResponse
	_, err := state.Load(ctx, a.Auth, state.AuthRequest, state.LastResolved, func(ctx context.Context) (struct{}, error) {
		var err error
		resp, err = call(ctx)
		return struct{}{}, err
	})
	if err != nil {
		a.events.Emit(otel.Event{Level: otel.LevelWarn, Kind: otel.KindLogin, Comp: "portal", Err: err.Error()})
		return nil, err
	}

	u := resp.User
	a.Auth.Dispatch(state.SessionStarted{Token: resp.Token, User: &u})
	if err := a.session.SaveAuth(resp.Token, &u); err != nil {
		return nil, fmt.Errorf("portal: save session: %w", err)
	}
	a.Engage.ResetSession()
	a.events.Emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindLogin, Comp: "portal", Msg: u.Username})
	logging.Info("Signed in", "user", u.Username)
	return &u, nil
}

// Logout forgets the session everywhere: storage, auth store, like
// statuses, the notification feed and the viewed set. The theme survives.
func (a *App) Logout() error {
	err := a.session.Clear()
	a.Auth.Dispatch(state.SessionEnded{})
	a.Engage.ResetSession()
	a.Notify.Reset()
	a.Profile.Reset()
	a.events.Info(otel.KindLogout, "portal", "")
	if err != nil {
		return fmt.Errorf("portal: clear session: %w", err)
	}
	return nil
}

// EndSession is called when the front end goes away for the session
// (terminal closed or suspended). The viewed set starts over.
func (a *App) EndSession() {
	a.Engage.ResetSession()
}

// Theme returns the stored theme preference, falling back to config.
func (a *App) Theme() string {
	if t, err := a.session.Theme(); err == nil && t != "" {
		return t
	}
	return a.cfg.UI.Theme
}

// SetTheme persists a theme preference.
func (a *App) SetTheme(theme string) error {
	if theme != "dark" && theme != "light" {
		return fmt.Errorf("portal: unknown theme %q", theme)
	}
	return a.session.SetTheme(theme)
}

// StartPolling keeps the unread counter fresh until ctx is done. It
// returns nil when polling is disabled in config.
func (a *App) StartPolling(ctx context.Context, onCount func(int)) *notify.Poller {
	if a.cfg.Notifications.PollInterval <= 0 {
		return nil
	}
	p := notify.NewPoller(a.Notify, a.cfg.Notifications.PollInterval, a.IsAuthenticated, onCount)
	p.Start(ctx)
	return p
}

// Close stops background work owned by the app.
func (a *App) Close() {
	a.Suggest.Close()
}
