// Package suggest is the search-as-you-type engine.
//
// Keystrokes feed Input. After a quiet period the engine fetches
// suggestions for the trimmed query. A newer keystroke, Clear, Escape or
// Blur cancels the fetch in flight, and every fetch is stamped with a
// sequence number so a late response can never replace a newer one.
//
// The engine owns no UI. It publishes Snapshot values through a state
// store; front ends subscribe and render.
package suggest

import (
	"context"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/abelbrown/harbor/internal/logging"
	"github.com/abelbrown/harbor/internal/model"
	"github.com/abelbrown/harbor/internal/otel"
	"github.com/abelbrown/harbor/internal/route"
	"github.com/abelbrown/harbor/internal/state"
)

// Phase is the engine's position in the typeahead state machine.
type Phase int

const (
	Idle Phase = iota
	Debouncing
	Fetching
	Showing
	Empty
	Failed
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Debouncing:
		return "debouncing"
	case Fetching:
		return "fetching"
	case Showing:
		return "showing"
	case Empty:
		return "empty"
	case Failed:
		return "error"
	}
	return "unknown"
}

// Defaults used when Options leaves a field zero.
const (
	DefaultDebounce    = 300 * time.Millisecond
	DefaultMinQueryLen = 2
	DefaultLimit       = 8
)

// Suggester fetches typeahead hits.
type Suggester interface {
	Suggest(ctx context.Context, prefix string, limit int) ([]model.SuggestionItem, error)
}

// Snapshot is what a front end renders.
type Snapshot struct {
	Phase    Phase
	Query    string
	Items    []model.SuggestionItem
	Selected int // -1 when nothing is selected
	Err      string
	Focused  bool
}

// Selection returns the selected item, if any.
func (s Snapshot) Selection() (model.SuggestionItem, bool) {
	if s.Selected < 0 || s.Selected >= len(s.Items) {
		return model.SuggestionItem{}, false
	}
	return s.Items[s.Selected], true
}

// ActionKind says what the front end should do after Enter.
type ActionKind int

const (
	ActionNone ActionKind = iota
	ActionDetail
	ActionSearch
)

// Action is a navigation request.
type Action struct {
	Kind ActionKind
	Path string
}

// Options tunes an Engine.
type Options struct {
	Debounce    time.Duration
	MinQueryLen int
	Limit       int
	Clock       Clock
	Events      *otel.Logger
}

// Engine is one typeahead input session.
type Engine struct {
	api      Suggester
	clock    Clock
	debounce time.Duration
	minLen   int
	limit    int
	events   *otel.Logger

	store *state.Store[Snapshot]

	mu     sync.Mutex
	snap   Snapshot
	timer  Timer
	cancel context.CancelFunc
	seq    uint64
}

// New creates an idle engine.
func New(api Suggester, opts Options) *Engine {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.MinQueryLen <= 0 {
		opts.MinQueryLen = DefaultMinQueryLen
	}
	if opts.Limit <= 0 {
		opts.Limit = DefaultLimit
	}
	if opts.Clock == nil {
		opts.Clock = realClock{}
	}
	idle := Snapshot{Phase: Idle, Selected: -1}
	return &Engine{
		api:      api,
		clock:    opts.Clock,
		debounce: opts.Debounce,
		minLen:   opts.MinQueryLen,
		limit:    opts.Limit,
		events:   opts.Events,
		store:    state.NewStore(func() Snapshot { return idle }, nil),
		snap:     idle,
	}
}

// Store exposes the snapshot store for subscribers.
func (e *Engine) Store() *state.Store[Snapshot] {
	return e.store
}

// Snapshot returns the current state.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snap
}

// publishLocked pushes e.snap to subscribers. Caller holds e.mu.
func (e *Engine) publishLocked() {
	snap := e.snap
	e.store.Update(func(Snapshot) Snapshot { return snap })
}

// abortLocked stops the pending timer and cancels any fetch in flight.
// Caller holds e.mu.
func (e *Engine) abortLocked() {
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
	if e.cancel != nil {
		e.cancel()
		e.cancel = nil
		e.events.Emit(otel.Event{Level: otel.LevelDebug, Kind: otel.KindSuggestCancel, Comp: "suggest", Query: e.snap.Query})
	}
	e.seq++
}

func (e *Engine) tooShort(q string) bool {
	return utf8.RuneCountInString(strings.TrimSpace(q)) < e.minLen
}

// Input handles a keystroke: q is the full input text.
func (e *Engine) Input(q string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.abortLocked()
	e.snap.Query = q
	e.snap.Focused = true
	e.snap.Selected = -1
	e.snap.Err = ""

	if e.tooShort(q) {
		e.snap.Phase = Idle
		e.snap.Items = nil
		e.publishLocked()
		return
	}

	e.snap.Phase = Debouncing
	seq := e.seq
	e.timer = e.clock.AfterFunc(e.debounce, func() { e.fire(seq) })
	e.publishLocked()
}

// fire runs when the debounce timer for seq expires.
func (e *Engine) fire(seq uint64) {
	e.mu.Lock()
	if seq != e.seq {
		e.mu.Unlock()
		return
	}
	e.timer = nil
	ctx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel
	query := strings.TrimSpace(e.snap.Query)
	e.snap.Phase = Fetching
	e.publishLocked()
	e.mu.Unlock()

	e.events.Emit(otel.Event{Level: otel.LevelDebug, Kind: otel.KindSuggestFetch, Comp: "suggest", Query: query})
	start := time.Now()
	items, err := e.api.Suggest(ctx, query, e.limit)
	cancel()

	e.mu.Lock()
	defer e.mu.Unlock()
	if seq != e.seq {
		e.events.Emit(otel.Event{Level: otel.LevelDebug, Kind: otel.KindSuggestStale, Comp: "suggest", Query: query})
		return
	}
	e.cancel = nil
	switch {
	case err != nil:
		logging.Debug("Suggestion fetch failed", "query", query, "error", err)
		e.snap.Phase = Failed
		e.snap.Err = err.Error()
		e.snap.Items = nil
	case len(items) == 0:
		e.snap.Phase = Empty
		e.snap.Items = nil
	default:
		e.snap.Phase = Showing
		e.snap.Items = items
	}
	e.snap.Selected = -1
	e.events.Emit(otel.Event{Level: otel.LevelDebug, Kind: otel.KindSuggestComplete, Comp: "suggest", Query: query, Count: len(items), Dur: time.Since(start)})
	e.publishLocked()
}

// MoveDown advances the selection, stopping at the last item.
func (e *Engine) MoveDown() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.snap.Phase != Showing || e.snap.Selected >= len(e.snap.Items)-1 {
		return
	}
	e.snap.Selected++
	e.publishLocked()
}

// MoveUp moves the selection back, stopping at -1 (no selection).
func (e *Engine) MoveUp() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.snap.Phase != Showing || e.snap.Selected <= -1 {
		return
	}
	e.snap.Selected--
	e.publishLocked()
}

// Enter resolves the navigation for the current state. A selected item
// opens its detail page; otherwise a long enough query runs a full-text
// search. Either way the dropdown resets.
func (e *Engine) Enter() Action {
	e.mu.Lock()
	defer e.mu.Unlock()

	var act Action
	if it, ok := e.snap.Selection(); ok && e.snap.Phase == Showing {
		if path, ok := route.ForSuggestion(it); ok {
			act = Action{Kind: ActionDetail, Path: path}
		}
	}
	if act.Kind == ActionNone && !e.tooShort(e.snap.Query) {
		act = Action{Kind: ActionSearch, Path: route.Search(strings.TrimSpace(e.snap.Query))}
	}
	if act.Kind != ActionNone {
		e.resetLocked(false)
	}
	return act
}

// SearchAnyway is the fallback offered in the Empty phase.
func (e *Engine) SearchAnyway() Action {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.tooShort(e.snap.Query) {
		return Action{}
	}
	act := Action{Kind: ActionSearch, Path: route.Search(strings.TrimSpace(e.snap.Query))}
	e.resetLocked(false)
	return act
}

// Clear empties the input and returns to Idle. Focus is kept.
func (e *Engine) Clear() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.snap.Query = ""
	e.resetLocked(true)
}

// Escape returns to Idle and blurs the input. The typed text stays.
func (e *Engine) Escape() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.resetLocked(false)
}

// Blur handles focus leaving the input (outside click).
func (e *Engine) Blur() {
	e.Escape()
}

// Focus marks the input focused without changing the phase.
func (e *Engine) Focus() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.snap.Focused {
		return
	}
	e.snap.Focused = true
	e.publishLocked()
}

// Close stops timers and cancels in-flight work.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.abortLocked()
}

func (e *Engine) resetLocked(focused bool) {
	e.abortLocked()
	e.snap.Phase = Idle
	e.snap.Items = nil
	e.snap.Selected = -1
	e.snap.Err = ""
	e.snap.Focused = focused
	e.publishLocked()
}
