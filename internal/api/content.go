package api

import (
	"context"
	"fmt"
	"net/url"

	"github.com/abelbrown/harbor/internal/model"
)

// collection maps an entity type to its REST collection path.
func collection(t model.EntityType) string {
	return "/" + string(t) + "s"
}

func getOne[T any](ctx context.Context, c *Client, t model.EntityType, idOrSlug string) (*T, error) {
	var out T
	if err := c.Get(ctx, collection(t)+"/"+url.PathEscape(idOrSlug), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func list[T any](ctx context.Context, c *Client, t model.EntityType, page, limit int) (*model.Page[T], error) {
	var out model.Page[T]
	if err := c.Get(ctx, fmt.Sprintf("%s?page=%d&limit=%d", collection(t), page, limit), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Thread fetches a thread by id or slug.
func (c *Client) Thread(ctx context.Context, idOrSlug string) (*model.Thread, error) {
	return getOne[model.Thread](ctx, c, model.EntityThread, idOrSlug)
}

// Threads lists threads.
func (c *Client) Threads(ctx context.Context, page, limit int) (*model.Page[model.Thread], error) {
	return list[model.Thread](ctx, c, model.EntityThread, page, limit)
}

// Blog fetches a blog post by id or slug.
func (c *Client) Blog(ctx context.Context, idOrSlug string) (*model.Blog, error) {
	return getOne[model.Blog](ctx, c, model.EntityBlog, idOrSlug)
}

// Blogs lists blog posts.
func (c *Client) Blogs(ctx context.Context, page, limit int) (*model.Page[model.Blog], error) {
	return list[model.Blog](ctx, c, model.EntityBlog, page, limit)
}

// Article fetches an article by id or slug.
func (c *Client) Article(ctx context.Context, idOrSlug string) (*model.Article, error) {
	return getOne[model.Article](ctx, c, model.EntityArticle, idOrSlug)
}

// Articles lists articles.
func (c *Client) Articles(ctx context.Context, page, limit int) (*model.Page[model.Article], error) {
	return list[model.Article](ctx, c, model.EntityArticle, page, limit)
}

// Product fetches a catalog product by id or slug.
func (c *Client) Product(ctx context.Context, idOrSlug string) (*model.Product, error) {
	return getOne[model.Product](ctx, c, model.EntityProduct, idOrSlug)
}

// Products lists catalog products.
func (c *Client) Products(ctx context.Context, page, limit int) (*model.Page[model.Product], error) {
	return list[model.Product](ctx, c, model.EntityProduct, page, limit)
}
