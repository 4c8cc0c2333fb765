package api

import (
	"context"

	"github.com/abelbrown/harbor/internal/model"
)

// ProfileUpdate carries the editable profile fields. Empty fields are omitted.
type ProfileUpdate struct {
	Bio      string `json:"bio,omitempty" validate:"max=500"`
	Location string `json:"location,omitempty" validate:"max=100"`
	Avatar   string `json:"avatar,omitempty" validate:"omitempty,url"`
}

// Profile fetches the current user's profile.
func (c *Client) Profile(ctx context.Context) (*model.Profile, error) {
	var out model.Profile
	if err := c.Get(ctx, "/profile", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateProfile saves profile changes and returns the stored profile.
func (c *Client) UpdateProfile(ctx context.Context, upd ProfileUpdate) (*model.Profile, error) {
	if err := validate.Struct(upd); err != nil {
		return nil, err
	}
	var out model.Profile
	if err := c.Put(ctx, "/profile", upd, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
