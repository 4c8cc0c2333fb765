package state

import (
	"context"

	"github.com/abelbrown/harbor/internal/model"
)

// CategoryAPI is the part of the gateway the category store needs.
type CategoryAPI interface {
	CategoryInfo(ctx context.Context, slug string) (*model.CategoryInfo, error)
	CategoryItems(ctx context.Context, slug string, page, limit int) (*model.Page[model.CategoryItem], error)
}

// CategoryState backs a category landing view.
type CategoryState struct {
	Slug  string
	Info  Resource[model.CategoryInfo]
	Items Resource[model.Page[model.CategoryItem]]
}

// Categories loads category metadata and listings.
type Categories struct {
	*Store[CategoryState]
	api    CategoryAPI
	policy Policy
}

// categorySelected switches the store to a new slug.
type categorySelected struct{ slug string }

func reduceCategory(s CategoryState, a Action) CategoryState {
	if a, ok := a.(categorySelected); ok && a.slug != s.Slug {
		return CategoryState{Slug: a.slug}
	}
	return s
}

// NewCategories creates an empty category store.
func NewCategories(api CategoryAPI, policy Policy) *Categories {
	return &Categories{
		Store:  NewStore(func() CategoryState { return CategoryState{} }, reduceCategory),
		api:    api,
		policy: policy,
	}
}

// forSlug guards a completion so it only lands while slug is selected.
func forSlug(slug string) func(CategoryState) bool {
	return func(s CategoryState) bool { return s.Slug == slug }
}

func categoryInfo(s *CategoryState) *Resource[model.CategoryInfo]             { return &s.Info }
func categoryItems(s *CategoryState) *Resource[model.Page[model.CategoryItem]] { return &s.Items }

// FetchInfo loads the landing metadata for slug.
func (c *Categories) FetchInfo(ctx context.Context, slug string) error {
	c.Dispatch(categorySelected{slug: slug})
	_, err := LoadWhere(ctx, c.Store, categoryInfo, c.policy, forSlug(slug), func(ctx context.Context) (model.CategoryInfo, error) {
		info, err := c.api.CategoryInfo(ctx, slug)
		if err != nil {
			return model.CategoryInfo{}, err
		}
		return *info, nil
	})
	return err
}

// FetchItems loads one page of the listing for slug.
func (c *Categories) FetchItems(ctx context.Context, slug string, page, limit int) error {
	c.Dispatch(categorySelected{slug: slug})
	_, err := LoadWhere(ctx, c.Store, categoryItems, c.policy, forSlug(slug), func(ctx context.Context) (model.Page[model.CategoryItem], error) {
		p, err := c.api.CategoryItems(ctx, slug, page, limit)
		if err != nil {
			return model.Page[model.CategoryItem]{}, err
		}
		return *p, nil
	})
	return err
}

// ClearCategory resets the store, used when a category view tears down.
func (c *Categories) ClearCategory() {
	c.Reset()
}
