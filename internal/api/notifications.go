package api

import (
	"context"
	"fmt"

	"github.com/abelbrown/harbor/internal/model"
)

// NotificationPage is one page of the notification feed.
type NotificationPage struct {
	Notifications []model.Notification `json:"notifications"`
	Page          int                  `json:"page"`
	Limit         int                  `json:"limit"`
	Total         int                  `json:"total"`
}

type unreadCountResponse struct {
	Count int `json:"count"`
}

// Notifications fetches one page of the feed.
func (c *Client) Notifications(ctx context.Context, page, limit int) (*NotificationPage, error) {
	var out NotificationPage
	if err := c.Get(ctx, fmt.Sprintf("/notifications?page=%d&limit=%d", page, limit), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UnreadCount returns the server's unread notification count.
func (c *Client) UnreadCount(ctx context.Context) (int, error) {
	var out unreadCountResponse
	err := c.Get(ctx, "/notifications/unread-count", &out)
	return out.Count, err
}

// MarkNotificationRead marks one notification read.
func (c *Client) MarkNotificationRead(ctx context.Context, id int64) error {
	return c.Put(ctx, fmt.Sprintf("/notifications/%d/read", id), nil, nil)
}

// MarkAllNotificationsRead marks the whole feed read.
func (c *Client) MarkAllNotificationsRead(ctx context.Context) error {
	return c.Put(ctx, "/notifications/mark-all-read", nil, nil)
}

// DeleteNotification removes one notification.
func (c *Client) DeleteNotification(ctx context.Context, id int64) error {
	return c.Delete(ctx, fmt.Sprintf("/notifications/%d", id), nil)
}
