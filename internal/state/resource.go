package state

import (
	"context"
	"sync/atomic"
)

// Resource is server-fetched data plus its request status.
//
//	pending:   Loading=true,  Error=""
//	fulfilled: Loading=false, Data replaced
//	rejected:  Loading=false, Error=message, Data kept
type Resource[T any] struct {
	Data    T
	Loading bool
	Error   string

	// issued is the generation of the latest pending phase; used by
	// LatestIssued.
	issued uint64
}

// generations is shared by every resource so a generation is never reused,
// not even after a Reset zeroes a resource.
var generations atomic.Uint64

// Policy decides which completion of concurrent loads is committed.
type Policy int

const (
	// LastResolved commits every completion in the order they resolve, so a
	// slow earlier request can overwrite a faster later one.
	LastResolved Policy = iota

	// LatestIssued tags each pending phase with a generation and drops
	// completions from superseded generations.
	LatestIssued
)

// Lens points at one Resource inside a state value.
type Lens[S, T any] func(*S) *Resource[T]

// Load runs fetch through the three-phase lifecycle on the resource
// selected by lens. It returns fetch's own result regardless of whether the
// store committed it.
func Load[S, T any](ctx context.Context, st *Store[S], lens Lens[S, T], policy Policy, fetch func(context.Context) (T, error)) (T, error) {
	return LoadWhere(ctx, st, lens, policy, nil, fetch)
}

// LoadWhere is Load with a commit guard: the completion is dropped unless
// current reports true for the state at commit time. A nil guard always
// commits.
func LoadWhere[S, T any](ctx context.Context, st *Store[S], lens Lens[S, T], policy Policy, current func(S) bool, fetch func(context.Context) (T, error)) (T, error) {
	var gen uint64
	st.Update(func(s S) S {
		r := lens(&s)
		gen = generations.Add(1)
		r.issued = gen
		r.Loading = true
		r.Error = ""
		return s
	})

	data, err := fetch(ctx)

	st.Update(func(s S) S {
		if current != nil && !current(s) {
			return s
		}
		r := lens(&s)
		if policy == LatestIssued && r.issued != gen {
			return s
		}
		r.Loading = false
		if err != nil {
			r.Error = err.Error()
		} else {
			r.Data = data
			r.Error = ""
		}
		return s
	})
	return data, err
}

// Fail marks the resource rejected without a fetch, e.g. for client-side
// validation errors.
func Fail[S, T any](st *Store[S], lens Lens[S, T], err error) {
	st.Update(func(s S) S {
		r := lens(&s)
		r.Loading = false
		r.Error = err.Error()
		return s
	})
}
