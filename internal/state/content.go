package state

import (
	"context"

	"github.com/abelbrown/harbor/internal/model"
)

// ContentState caches one content type: the current listing page and the
// entity open in a detail view.
type ContentState[T any] struct {
	List    Resource[model.Page[T]]
	Current Resource[T]
}

// ContentFetcher is the pair of endpoints a content store loads from.
type ContentFetcher[T any] struct {
	List func(ctx context.Context, page, limit int) (*model.Page[T], error)
	Get  func(ctx context.Context, idOrSlug string) (*T, error)
}

// Content is the store for threads, blogs, articles or products.
type Content[T any] struct {
	*Store[ContentState[T]]
	fetch  ContentFetcher[T]
	policy Policy
}

// NewContent creates a content store. The zero Policy is LastResolved.
func NewContent[T any](fetch ContentFetcher[T], policy Policy) *Content[T] {
	return &Content[T]{
		Store:  NewStore(func() ContentState[T] { return ContentState[T]{} }, nil),
		fetch:  fetch,
		policy: policy,
	}
}

func contentList[T any](s *ContentState[T]) *Resource[model.Page[T]] { return &s.List }
func contentCurrent[T any](s *ContentState[T]) *Resource[T]          { return &s.Current }

// FetchPage loads one listing page.
func (c *Content[T]) FetchPage(ctx context.Context, page, limit int) error {
	_, err := Load(ctx, c.Store, contentList[T], c.policy, func(ctx context.Context) (model.Page[T], error) {
		p, err := c.fetch.List(ctx, page, limit)
		if err != nil {
			return model.Page[T]{}, err
		}
		return *p, nil
	})
	return err
}

// FetchOne loads the entity for a detail view.
func (c *Content[T]) FetchOne(ctx context.Context, idOrSlug string) error {
	_, err := Load(ctx, c.Store, contentCurrent[T], c.policy, func(ctx context.Context) (T, error) {
		v, err := c.fetch.Get(ctx, idOrSlug)
		if err != nil {
			var zero T
			return zero, err
		}
		return *v, nil
	})
	return err
}

// ClearCurrent drops the detail entity, used when a detail view tears down.
func (c *Content[T]) ClearCurrent() {
	c.Update(func(s ContentState[T]) ContentState[T] {
		s.Current = Resource[T]{}
		return s
	})
}
