package api

import (
	"context"

	"github.com/abelbrown/harbor/internal/model"
)

type viewsResponse struct {
	Views int `json:"views"`
}

// IncrementView bumps the view counter of ref and returns the new total.
func (c *Client) IncrementView(ctx context.Context, ref model.EntityRef) (int, error) {
	var out viewsResponse
	err := c.Post(ctx, entityPath("/views/increment", ref), nil, &out)
	return out.Views, err
}
