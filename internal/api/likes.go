package api

import (
	"context"
	"fmt"

	"github.com/abelbrown/harbor/internal/model"
)

// ToggleResult is the server-confirmed outcome of a like toggle.
type ToggleResult struct {
	LikeStatus bool `json:"likeStatus"`
	LikeCount  int  `json:"likeCount"`
}

type likeStatusResponse struct {
	LikeStatus bool `json:"likeStatus"`
}

type likeCountResponse struct {
	LikeCount int `json:"likeCount"`
}

func entityPath(prefix string, ref model.EntityRef) string {
	return fmt.Sprintf("%s/%s/%d", prefix, ref.Type, ref.ID)
}

// ToggleLike flips the caller's like on ref.
func (c *Client) ToggleLike(ctx context.Context, ref model.EntityRef) (ToggleResult, error) {
	var out ToggleResult
	err := c.Post(ctx, "/likes/toggle", ref, &out)
	return out, err
}

// LikeStatus reports whether the caller likes ref. Requires a token.
func (c *Client) LikeStatus(ctx context.Context, ref model.EntityRef) (bool, error) {
	var out likeStatusResponse
	err := c.Get(ctx, entityPath("/likes/status", ref), &out)
	return out.LikeStatus, err
}

// LikeCount returns the public like count of ref.
func (c *Client) LikeCount(ctx context.Context, ref model.EntityRef) (int, error) {
	var out likeCountResponse
	err := c.Get(ctx, entityPath("/likes/count", ref), &out)
	return out.LikeCount, err
}
