package api

import (
	"context"
	"fmt"

	"github.com/abelbrown/harbor/internal/model"
)

type roleRequest struct {
	Role string `json:"role" validate:"oneof=user moderator admin"`
}

// AdminUsers lists accounts. Requires an admin token.
func (c *Client) AdminUsers(ctx context.Context, page, limit int) (*model.Page[model.User], error) {
	var out model.Page[model.User]
	if err := c.Get(ctx, fmt.Sprintf("/admin/users?page=%d&limit=%d", page, limit), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SetUserRole changes an account's role.
func (c *Client) SetUserRole(ctx context.Context, userID int64, role string) error {
	req := roleRequest{Role: role}
	if err := validate.Struct(req); err != nil {
		return fmt.Errorf("api: invalid role %q: %w", role, err)
	}
	return c.Put(ctx, fmt.Sprintf("/admin/users/%d/role", userID), req, nil)
}

// DeleteContent removes any entity as an administrator.
func (c *Client) DeleteContent(ctx context.Context, ref model.EntityRef) error {
	return c.Delete(ctx, fmt.Sprintf("/admin/%s/%d", ref.Type, ref.ID), nil)
}
