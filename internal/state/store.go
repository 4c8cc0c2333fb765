// Package state provides harbor's entity state stores.
//
// A Store is an owned, explicitly constructed state container. All writes
// go through Dispatch (typed actions fed to the store's reducer) or Update
// (an inline reducer); either way one write is applied atomically under the
// store mutex and then published to subscribers.
//
// # Copy on write
//
// Snapshot returns the state value. Maps and slices inside it are shared
// with the store, so reducers must replace them instead of mutating in
// place. Every reducer in this repository follows that rule.
package state

import "sync"

// Action is any typed event a reducer understands.
type Action any

// Reducer computes the next state from the current one and an action.
type Reducer[S any] func(S, Action) S

// Store holds one state value of type S.
type Store[S any] struct {
	mu      sync.Mutex
	state   S
	initial func() S
	reduce  Reducer[S]

	subs    map[int]chan S
	nextSub int
}

// NewStore creates a store. initial builds the pristine state and is
// called again by Reset. reduce may be nil when only Update is used.
func NewStore[S any](initial func() S, reduce Reducer[S]) *Store[S] {
	return &Store[S]{
		state:   initial(),
		initial: initial,
		reduce:  reduce,
		subs:    make(map[int]chan S),
	}
}

// Snapshot returns the current state.
func (s *Store[S]) Snapshot() S {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Dispatch runs the store's reducer on a.
func (s *Store[S]) Dispatch(a Action) S {
	if s.reduce == nil {
		return s.Snapshot()
	}
	return s.Update(func(cur S) S { return s.reduce(cur, a) })
}

// Update applies fn atomically and publishes the result.
func (s *Store[S]) Update(fn func(S) S) S {
	s.mu.Lock()
	s.state = fn(s.state)
	next := s.state
	s.publishLocked(next)
	s.mu.Unlock()
	return next
}

// Reset restores the initial shape.
func (s *Store[S]) Reset() {
	s.Update(func(S) S { return s.initial() })
}

// Subscribe returns a channel receiving the state after every write.
// The channel holds only the latest state: a slow reader sees the newest
// value, never a backlog. Call the returned func to unsubscribe.
func (s *Store[S]) Subscribe() (<-chan S, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSub
	s.nextSub++
	ch := make(chan S, 1)
	s.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.subs, id)
			close(ch)
		})
	}
}

func (s *Store[S]) publishLocked(v S) {
	for _, ch := range s.subs {
		select {
		case ch <- v:
		default:
			// Replace the stale value.
			select {
			case <-ch:
			default:
			}
			ch <- v
		}
	}
}
