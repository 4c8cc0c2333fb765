// Package engage keeps per-entity like and view state in step with the
// server.
//
// Like state is confirmed-only: nothing changes locally until the server
// answers, and then the server's status and count replace ours. Views are
// counted at most once per entity per session.
package engage

import (
	"context"
	"errors"
	"maps"
	"time"

	cmap "github.com/orcaman/concurrent-map/v2"
	"github.com/sourcegraph/conc/pool"

	"github.com/abelbrown/harbor/internal/api"
	"github.com/abelbrown/harbor/internal/logging"
	"github.com/abelbrown/harbor/internal/model"
	"github.com/abelbrown/harbor/internal/otel"
	"github.com/abelbrown/harbor/internal/state"
)

// ErrAuthRequired is returned when a like toggle is attempted logged out.
var ErrAuthRequired = errors.New("engage: sign in required")

// prefetchWorkers bounds PrefetchCounts fan-out.
const prefetchWorkers = 4

// Gateway is the part of the API the unit calls.
type Gateway interface {
	ToggleLike(ctx context.Context, ref model.EntityRef) (api.ToggleResult, error)
	LikeStatus(ctx context.Context, ref model.EntityRef) (bool, error)
	LikeCount(ctx context.Context, ref model.EntityRef) (int, error)
	IncrementView(ctx context.Context, ref model.EntityRef) (int, error)
}

// State is the engagement store's value.
type State struct {
	Likes map[string]model.LikeState
	Views map[string]int

	// Request tracks the most recent like call.
	Request state.Resource[struct{}]

	// session counts ResetSession calls. Writes carry the session they
	// started in and are dropped once it has moved on.
	session uint64
}

func emptyState() State {
	return State{Likes: map[string]model.LikeState{}, Views: map[string]int{}}
}

// Unit is the like/view synchronization unit.
type Unit struct {
	store  *state.Store[State]
	api    Gateway
	authed func() bool
	prompt func(model.EntityRef)
	events *otel.Logger

	viewed cmap.ConcurrentMap[string, struct{}]
}

// Option configures a Unit.
type Option func(*Unit)

// WithAuthPrompt sets the hook run when a logged-out user tries to like.
func WithAuthPrompt(fn func(model.EntityRef)) Option {
	return func(u *Unit) { u.prompt = fn }
}

// WithEvents attaches an event log.
func WithEvents(l *otel.Logger) Option {
	return func(u *Unit) { u.events = l }
}

// New creates a Unit. authed reports whether a session token is held.
func New(gw Gateway, authed func() bool, opts ...Option) *Unit {
	u := &Unit{
		store:  state.NewStore(emptyState, nil),
		api:    gw,
		authed: authed,
		viewed: cmap.New[struct{}](),
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Store exposes the engagement store for subscribers.
func (u *Unit) Store() *state.Store[State] {
	return u.store
}

func request(s *State) *state.Resource[struct{}] { return &s.Request }

// session returns the current session number.
func (u *Unit) session() uint64 {
	return u.store.Snapshot().session
}

// setLike writes one entry into a fresh copy of the likes map, unless the
// session has been reset since sess.
func (u *Unit) setLike(sess uint64, key string, fn func(model.LikeState) model.LikeState) {
	u.store.Update(func(s State) State {
		if s.session != sess {
			return s
		}
		likes := maps.Clone(s.Likes)
		likes[key] = fn(likes[key])
		s.Likes = likes
		return s
	})
}

// GetLikeCount fetches the public like count of an entity.
func (u *Unit) GetLikeCount(ctx context.Context, t model.EntityType, id int64) error {
	ref := model.Ref(t, id)
	sess := u.session()
	n, err := u.api.LikeCount(ctx, ref)
	if err != nil {
		return err
	}
	u.setLike(sess, ref.Key(), func(ls model.LikeState) model.LikeState {
		ls.Count = n
		return ls
	})
	return nil
}

// GetLikeStatus fetches whether the user likes an entity. Logged out it
// does nothing.
func (u *Unit) GetLikeStatus(ctx context.Context, t model.EntityType, id int64) error {
	if !u.authed() {
		return nil
	}
	ref := model.Ref(t, id)
	sess := u.session()
	liked, err := u.api.LikeStatus(ctx, ref)
	if err != nil {
		return err
	}
	u.setLike(sess, ref.Key(), func(ls model.LikeState) model.LikeState {
		ls.IsLiked = liked
		return ls
	})
	return nil
}

// ToggleLike flips the user's like and adopts the server's answer.
func (u *Unit) ToggleLike(ctx context.Context, t model.EntityType, id int64) error {
	ref := model.Ref(t, id)
	if !u.authed() {
		u.events.Emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindAuthPrompt, Comp: "engage", Entity: ref.Key()})
		if u.prompt != nil {
			u.prompt(ref)
		}
		return ErrAuthRequired
	}

	start := time.Now()
	sess := u.session()
	sameSession := func(s State) bool { return s.session == sess }
	_, err := state.LoadWhere(ctx, u.store, request, state.LastResolved, sameSession, func(ctx context.Context) (struct{}, error) {
		res, err := u.api.ToggleLike(ctx, ref)
		if err != nil {
			return struct{}{}, err
		}
		u.setLike(sess, ref.Key(), func(model.LikeState) model.LikeState {
			return model.LikeState{IsLiked: res.LikeStatus, Count: res.LikeCount}
		})
		return struct{}{}, nil
	})
	if err != nil {
		logging.Warn("Like toggle failed", "entity", ref.Key(), "error", err)
		u.events.Emit(otel.Event{Level: otel.LevelWarn, Kind: otel.KindLikeToggle, Comp: "engage", Entity: ref.Key(), Err: err.Error(), Dur: time.Since(start)})
		return err
	}
	u.events.Emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindLikeToggle, Comp: "engage", Entity: ref.Key(), Dur: time.Since(start)})
	return nil
}

// MarkEntityAsViewed records a view the first time an entity is seen this
// session. Later calls, including concurrent ones, do nothing. A failed
// increment is logged and the entity stays marked.
func (u *Unit) MarkEntityAsViewed(ctx context.Context, t model.EntityType, id int64) {
	ref := model.Ref(t, id)
	key := ref.Key()
	if !u.viewed.SetIfAbsent(key, struct{}{}) {
		return
	}
	sess := u.session()

	views, err := u.api.IncrementView(ctx, ref)
	if err != nil {
		logging.Warn("View increment failed", "entity", key, "error", err)
		u.events.Emit(otel.Event{Level: otel.LevelWarn, Kind: otel.KindViewError, Comp: "engage", Entity: key, Err: err.Error()})
		return
	}
	u.store.Update(func(s State) State {
		if s.session != sess {
			return s
		}
		v := maps.Clone(s.Views)
		v[key] = views
		s.Views = v
		return s
	})
	u.events.Emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindViewRecorded, Comp: "engage", Entity: key, Count: views})
}

// HasBeenViewed reports whether the entity was marked this session.
func (u *Unit) HasBeenViewed(t model.EntityType, id int64) bool {
	return u.viewed.Has(model.Ref(t, id).Key())
}

// ResetSession forgets viewed entities and cached like state. Calls still
// in flight from before the reset do not write their results.
func (u *Unit) ResetSession() {
	u.viewed.Clear()
	u.store.Update(func(s State) State {
		next := emptyState()
		next.session = s.session + 1
		return next
	})
}

// LikeState returns the cached like state for a "<type>-<id>" key.
func (u *Unit) LikeState(key string) (model.LikeState, bool) {
	ls, ok := u.store.Snapshot().Likes[key]
	return ls, ok
}

// Views returns the last server view count for a key.
func (u *Unit) Views(key string) (int, bool) {
	n, ok := u.store.Snapshot().Views[key]
	return n, ok
}

// PrefetchCounts fetches like counts (and, when signed in, statuses) for
// a listing page. Failures are joined and returned once every fetch ends.
func (u *Unit) PrefetchCounts(ctx context.Context, refs []model.EntityRef) error {
	p := pool.New().WithMaxGoroutines(prefetchWorkers).WithContext(ctx)
	for _, ref := range refs {
		p.Go(func(ctx context.Context) error {
			if err := u.GetLikeCount(ctx, ref.Type, ref.ID); err != nil {
				return err
			}
			return u.GetLikeStatus(ctx, ref.Type, ref.ID)
		})
	}
	return p.Wait()
}
