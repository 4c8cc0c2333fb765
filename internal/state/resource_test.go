package state

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/abelbrown/harbor/internal/model"
)

type box struct {
	Item Resource[string]
}

func boxItem(s *box) *Resource[string] { return &s.Item }

func newBox() *Store[box] {
	return NewStore(func() box { return box{} }, nil)
}

// gatedLoad starts a Load whose fetch blocks until release is closed. It
// returns once the pending phase is committed.
func gatedLoad(t *testing.T, st *Store[box], policy Policy, value string, release <-chan struct{}) <-chan error {
	t.Helper()
	entered := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		_, err := Load(context.Background(), st, boxItem, policy, func(ctx context.Context) (string, error) {
			close(entered)
			<-release
			return value, nil
		})
		done <- err
	}()
	select {
	case <-entered:
	case <-time.After(time.Second):
		t.Fatal("fetch never started")
	}
	return done
}

func TestLoadLifecycle(t *testing.T) {
	st := newBox()
	ch, unsub := st.Subscribe()
	defer unsub()

	release := make(chan struct{})
	done := gatedLoad(t, st, LastResolved, "hello", release)

	pending := <-ch
	if !pending.Item.Loading || pending.Item.Error != "" {
		t.Errorf("expected pending state, got %+v", pending.Item)
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("Load: %v", err)
	}
	got := st.Snapshot().Item
	if got.Loading || got.Data != "hello" || got.Error != "" {
		t.Errorf("expected fulfilled state, got %+v", got)
	}
}

func TestLoadRejectedKeepsData(t *testing.T) {
	st := newBox()
	st.Update(func(b box) box { b.Item.Data = "old"; return b })

	_, err := Load(context.Background(), st, boxItem, LastResolved, func(ctx context.Context) (string, error) {
		return "", errors.New("Not found")
	})
	if err == nil {
		t.Fatal("expected error")
	}
	got := st.Snapshot().Item
	if got.Loading || got.Error != "Not found" || got.Data != "old" {
		t.Errorf("expected rejected state with old data, got %+v", got)
	}
}

func TestLoadPendingClearsError(t *testing.T) {
	st := newBox()
	Fail(st, boxItem, errors.New("bad input"))
	if st.Snapshot().Item.Error != "bad input" {
		t.Fatal("Fail did not record error")
	}

	release := make(chan struct{})
	done := gatedLoad(t, st, LastResolved, "ok", release)
	if got := st.Snapshot().Item; got.Error != "" || !got.Loading {
		t.Errorf("pending phase should clear the error, got %+v", got)
	}
	close(release)
	<-done
}

func TestConcurrentLoads(t *testing.T) {
	tests := []struct {
		name   string
		policy Policy
		want   string
	}{
		// The slow first request resolves last and wins.
		{"last resolved", LastResolved, "first"},
		// The second request was issued last and wins.
		{"latest issued", LatestIssued, "second"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := newBox()
			releaseFirst := make(chan struct{})
			releaseSecond := make(chan struct{})

			first := gatedLoad(t, st, tt.policy, "first", releaseFirst)
			second := gatedLoad(t, st, tt.policy, "second", releaseSecond)

			close(releaseSecond)
			<-second
			if got := st.Snapshot().Item; got.Data != "second" {
				t.Fatalf("expected second after it resolved, got %q", got.Data)
			}

			close(releaseFirst)
			<-first
			got := st.Snapshot().Item
			if got.Data != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got.Data)
			}
			if got.Loading {
				t.Error("expected Loading=false after both resolved")
			}
		})
	}
}

func TestResetDropsLatestIssuedCompletion(t *testing.T) {
	st := newBox()
	release := make(chan struct{})
	done := gatedLoad(t, st, LatestIssued, "late", release)

	st.Reset()
	close(release)
	<-done

	if got := st.Snapshot().Item; got.Data != "" || got.Loading {
		t.Errorf("completion after Reset should be dropped, got %+v", got)
	}
}

func TestStaleLoadAfterResetLosesToNewLoad(t *testing.T) {
	st := newBox()
	oldRelease := make(chan struct{})
	oldDone := gatedLoad(t, st, LatestIssued, "stale", oldRelease)

	st.Reset()
	newRelease := make(chan struct{})
	newDone := gatedLoad(t, st, LatestIssued, "fresh", newRelease)

	close(newRelease)
	<-newDone
	close(oldRelease)
	<-oldDone

	if got := st.Snapshot().Item.Data; got != "fresh" {
		t.Errorf("expected fresh, got %q", got)
	}
}

func TestContentClearCurrent(t *testing.T) {
	c := NewContent(ContentFetcher[model.Thread]{
		List: func(ctx context.Context, page, limit int) (*model.Page[model.Thread], error) {
			return &model.Page[model.Thread]{Items: []model.Thread{{ID: 1}}, Page: page, Limit: limit, Total: 1}, nil
		},
		Get: func(ctx context.Context, idOrSlug string) (*model.Thread, error) {
			return &model.Thread{ID: 7, Slug: idOrSlug}, nil
		},
	}, LastResolved)

	if err := c.FetchPage(context.Background(), 1, 20); err != nil {
		t.Fatalf("FetchPage: %v", err)
	}
	if err := c.FetchOne(context.Background(), "hello"); err != nil {
		t.Fatalf("FetchOne: %v", err)
	}
	s := c.Snapshot()
	if len(s.List.Data.Items) != 1 || s.Current.Data.Slug != "hello" {
		t.Fatalf("unexpected state %+v", s)
	}

	c.ClearCurrent()
	s = c.Snapshot()
	if s.Current.Data.ID != 0 {
		t.Error("ClearCurrent kept the detail entity")
	}
	if len(s.List.Data.Items) != 1 {
		t.Error("ClearCurrent dropped the listing")
	}
}

type fakeCategories struct{}

func (fakeCategories) CategoryInfo(ctx context.Context, slug string) (*model.CategoryInfo, error) {
	return &model.CategoryInfo{Slug: slug, Name: "Boats"}, nil
}

func (fakeCategories) CategoryItems(ctx context.Context, slug string, page, limit int) (*model.Page[model.CategoryItem], error) {
	return &model.Page[model.CategoryItem]{Items: []model.CategoryItem{{ID: 1}}, Page: page}, nil
}

func TestCategorySwitchDropsOldSlug(t *testing.T) {
	c := NewCategories(fakeCategories{}, LastResolved)
	ctx := context.Background()
	if err := c.FetchInfo(ctx, "boats"); err != nil {
		t.Fatal(err)
	}
	if err := c.FetchItems(ctx, "boats", 1, 10); err != nil {
		t.Fatal(err)
	}
	if s := c.Snapshot(); s.Info.Data.Name != "Boats" || len(s.Items.Data.Items) != 1 {
		t.Fatalf("unexpected state %+v", s)
	}

	if err := c.FetchInfo(ctx, "cars"); err != nil {
		t.Fatal(err)
	}
	s := c.Snapshot()
	if s.Slug != "cars" || len(s.Items.Data.Items) != 0 {
		t.Errorf("switching slug should drop the old listing, got %+v", s)
	}

	c.ClearCategory()
	if c.Snapshot().Slug != "" {
		t.Error("ClearCategory did not reset")
	}
}

// gatedCategories blocks CategoryInfo for one slug until release closes.
type gatedCategories struct {
	fakeCategories
	slow    string
	entered chan struct{}
	release chan struct{}
}

func (g gatedCategories) CategoryInfo(ctx context.Context, slug string) (*model.CategoryInfo, error) {
	if slug == g.slow {
		close(g.entered)
		<-g.release
	}
	return &model.CategoryInfo{Slug: slug, Name: slug}, nil
}

func TestCategoryLateResponseForOldSlugDropped(t *testing.T) {
	for _, policy := range []Policy{LastResolved, LatestIssued} {
		g := gatedCategories{slow: "boats", entered: make(chan struct{}), release: make(chan struct{})}
		c := NewCategories(g, policy)
		ctx := context.Background()

		done := make(chan error, 1)
		go func() { done <- c.FetchInfo(ctx, "boats") }()
		select {
		case <-g.entered:
		case <-time.After(time.Second):
			t.Fatal("boats fetch never started")
		}

		if err := c.FetchInfo(ctx, "cars"); err != nil {
			t.Fatal(err)
		}
		close(g.release)
		if err := <-done; err != nil {
			t.Fatal(err)
		}

		s := c.Snapshot()
		if s.Slug != "cars" || s.Info.Data.Slug != "cars" {
			t.Errorf("policy %d: late boats response leaked into cars: slug=%s info=%s", policy, s.Slug, s.Info.Data.Slug)
		}
		if s.Info.Loading {
			t.Errorf("policy %d: expected Loading=false", policy)
		}
	}
}
