package state

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/abelbrown/harbor/internal/api"
	"github.com/abelbrown/harbor/internal/model"
)

type counter struct {
	N    int
	Tags []string
}

type (
	incr   struct{}
	tagged struct{ tag string }
)

func reduceCounter(s counter, a Action) counter {
	switch a := a.(type) {
	case incr:
		s.N++
	case tagged:
		s.Tags = append(append([]string(nil), s.Tags...), a.tag)
	}
	return s
}

func newCounter() *Store[counter] {
	return NewStore(func() counter { return counter{} }, reduceCounter)
}

func TestDispatchAppliesReducer(t *testing.T) {
	st := newCounter()
	st.Dispatch(incr{})
	got := st.Dispatch(incr{})
	if got.N != 2 {
		t.Errorf("expected N=2, got %d", got.N)
	}
	if st.Snapshot().N != 2 {
		t.Errorf("snapshot disagrees with dispatch result")
	}
}

func TestDispatchUnknownActionIsNoop(t *testing.T) {
	st := newCounter()
	st.Dispatch(incr{})
	got := st.Dispatch("something else")
	if got.N != 1 {
		t.Errorf("expected unchanged state, got N=%d", got.N)
	}
}

func TestSnapshotIsNotMutatedByLaterWrites(t *testing.T) {
	st := newCounter()
	st.Dispatch(tagged{"a"})
	before := st.Snapshot()
	st.Dispatch(tagged{"b"})

	if len(before.Tags) != 1 || before.Tags[0] != "a" {
		t.Errorf("earlier snapshot changed: %v", before.Tags)
	}
}

func TestResetRestoresInitialShape(t *testing.T) {
	st := newCounter()
	st.Dispatch(incr{})
	st.Dispatch(tagged{"x"})
	st.Reset()

	got := st.Snapshot()
	if got.N != 0 || got.Tags != nil {
		t.Errorf("expected initial state after Reset, got %+v", got)
	}
}

func TestSubscribeDeliversLatest(t *testing.T) {
	st := newCounter()
	ch, unsub := st.Subscribe()
	defer unsub()

	// Nobody reads while three writes happen.
	st.Dispatch(incr{})
	st.Dispatch(incr{})
	st.Dispatch(incr{})

	select {
	case got := <-ch:
		if got.N != 3 {
			t.Errorf("expected latest state N=3, got %d", got.N)
		}
	case <-time.After(time.Second):
		t.Fatal("no state delivered")
	}

	select {
	case got := <-ch:
		t.Errorf("expected no backlog, got %+v", got)
	default:
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	st := newCounter()
	ch, unsub := st.Subscribe()
	unsub()
	unsub() // second call is harmless

	if _, ok := <-ch; ok {
		t.Error("expected closed channel")
	}
	st.Dispatch(incr{}) // must not panic on a closed channel
}

func TestConcurrentDispatch(t *testing.T) {
	st := newCounter()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			st.Dispatch(incr{})
		}()
	}
	wg.Wait()
	if got := st.Snapshot().N; got != 50 {
		t.Errorf("expected 50, got %d", got)
	}
}

func TestAuthReducer(t *testing.T) {
	st := NewAuthStore()
	if st.Snapshot().IsAuthenticated() {
		t.Fatal("new store should be logged out")
	}

	u := &model.User{ID: 1, Username: "ada"}
	st.Dispatch(SessionStarted{Token: "tok", User: u})
	s := st.Snapshot()
	if !s.IsAuthenticated() || s.User.Username != "ada" {
		t.Errorf("expected logged in as ada, got %+v", s)
	}

	st.Dispatch(UserChanged{User: &model.User{ID: 1, Username: "ada2"}})
	if st.Snapshot().User.Username != "ada2" {
		t.Error("UserChanged not applied")
	}

	st.Dispatch(SessionEnded{})
	if st.Snapshot().IsAuthenticated() || st.Snapshot().User != nil {
		t.Error("expected logged out after SessionEnded")
	}

	// A user update without a session is ignored.
	st.Dispatch(UserChanged{User: u})
	if st.Snapshot().User != nil {
		t.Error("UserChanged should not log anyone in")
	}
}

type mockSearcher struct {
	mu   sync.Mutex
	seen []string
}

func (m *mockSearcher) Search(ctx context.Context, q api.SearchQuery) (*api.SearchResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seen = append(m.seen, q.Encode())
	if q.Query == "fail" {
		return nil, errors.New("boom")
	}
	return &api.SearchResponse{Total: 1}, nil
}

func TestSearchFiltersAndClear(t *testing.T) {
	m := &mockSearcher{}
	s := NewSearch(m, LastResolved)
	s.SetFilter("type", "thread")
	s.SetFilter("tag", "go")
	s.SetFilter("tag", "")

	if err := s.Run(context.Background(), "boats", 1, 10); err != nil {
		t.Fatalf("Run: %v", err)
	}
	got := s.Snapshot()
	if got.Query != "boats" || got.Results.Data.Total != 1 {
		t.Errorf("unexpected state %+v", got)
	}
	if len(got.Filters) != 1 || got.Filters["type"] != "thread" {
		t.Errorf("unexpected filters %v", got.Filters)
	}
	if want := "filters%5Btype%5D=thread&limit=10&page=1&query=boats"; m.seen[0] != want {
		t.Errorf("query %q, want %q", m.seen[0], want)
	}

	if err := s.Run(context.Background(), "fail", 1, 10); err == nil {
		t.Error("expected error")
	}
	got = s.Snapshot()
	if got.Results.Error != "boom" || got.Results.Data.Total != 1 {
		t.Errorf("rejected search should keep data and record error, got %+v", got.Results)
	}

	s.Clear()
	got = s.Snapshot()
	if got.Query != "" || got.Filters != nil || got.Results.Error != "" {
		t.Errorf("expected empty state after Clear, got %+v", got)
	}
}
