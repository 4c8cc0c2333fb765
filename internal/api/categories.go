package api

import (
	"context"
	"fmt"
	"net/url"

	"github.com/abelbrown/harbor/internal/model"
)

// CategoryInfo fetches the landing metadata of a category.
func (c *Client) CategoryInfo(ctx context.Context, slug string) (*model.CategoryInfo, error) {
	var out model.CategoryInfo
	if err := c.Get(ctx, "/categories/"+url.PathEscape(slug)+"/info", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CategoryItems fetches one page of a category listing.
func (c *Client) CategoryItems(ctx context.Context, slug string, page, limit int) (*model.Page[model.CategoryItem], error) {
	var out model.Page[model.CategoryItem]
	endpoint := fmt.Sprintf("/categories/%s?page=%d&limit=%d", url.PathEscape(slug), page, limit)
	if err := c.Get(ctx, endpoint, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
