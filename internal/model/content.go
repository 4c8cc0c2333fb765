package model

import "time"

// User is the authenticated account as returned by the auth endpoints.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role,omitempty"`
	Avatar   string `json:"avatar,omitempty"`
}

// IsAdmin reports whether the user may call admin endpoints.
func (u User) IsAdmin() bool {
	return u.Role == "admin"
}

// Author is the embedded author summary on content entities.
type Author struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

// Thread is a forum discussion thread.
type Thread struct {
	ID         int64     `json:"id"`
	Title      string    `json:"title"`
	Slug       string    `json:"slug"`
	Content    string    `json:"content"`
	Author     Author    `json:"author"`
	Category   string    `json:"category,omitempty"`
	Views      int       `json:"views"`
	LikeCount  int       `json:"likeCount"`
	ReplyCount int       `json:"replyCount"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Blog is a user blog post.
type Blog struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Slug      string    `json:"slug"`
	Content   string    `json:"content"`
	Author    Author    `json:"author"`
	Tags      []string  `json:"tags,omitempty"`
	Views     int       `json:"views"`
	LikeCount int       `json:"likeCount"`
	CreatedAt time.Time `json:"createdAt"`
}

// Article is an editorial article.
type Article struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Slug      string    `json:"slug"`
	Summary   string    `json:"summary"`
	Content   string    `json:"content"`
	Author    Author    `json:"author"`
	Category  string    `json:"category,omitempty"`
	Views     int       `json:"views"`
	LikeCount int       `json:"likeCount"`
	CreatedAt time.Time `json:"createdAt"`
}

// Product is a marine-product catalog entry.
type Product struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	Slug        string   `json:"slug"`
	Description string   `json:"description"`
	Category    string   `json:"category,omitempty"`
	Price       float64  `json:"price"`
	Currency    string   `json:"currency,omitempty"`
	Images      []string `json:"images,omitempty"`
	Views       int      `json:"views"`
}

// CategoryInfo describes a category landing page.
type CategoryInfo struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
	ItemCount   int    `json:"itemCount"`
}

// CategoryItem is one entry in a category listing; any content type.
type CategoryItem struct {
	ID     int64      `json:"id"`
	Type   EntityType `json:"type"`
	Title  string     `json:"title"`
	Slug   string     `json:"slug"`
	Author Author     `json:"author"`
}

// Profile is the current user's editable profile.
type Profile struct {
	User
	Bio         string    `json:"bio,omitempty"`
	Location    string    `json:"location,omitempty"`
	ThreadCount int       `json:"threadCount"`
	BlogCount   int       `json:"blogCount"`
	JoinedAt    time.Time `json:"joinedAt"`
}

// SuggestionItem is a typeahead hit. Ephemeral: regenerated per query.
type SuggestionItem struct {
	ID               int64      `json:"id"`
	Type             EntityType `json:"type"`
	Title            string     `json:"title"`
	Slug             string     `json:"slug"`
	AuthorName       string     `json:"authorName"`
	HighlightedTitle string     `json:"highlightedTitle,omitempty"`
}

// SearchResult is one full-text search hit.
type SearchResult struct {
	ID      int64      `json:"id"`
	Type    EntityType `json:"type"`
	Title   string     `json:"title"`
	Slug    string     `json:"slug"`
	Snippet string     `json:"snippet"`
	Score   float64    `json:"score"`
}

// Page is a paged listing.
type Page[T any] struct {
	Items []T `json:"items"`
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
}

// HasMore reports whether another page exists after this one.
func (p Page[T]) HasMore() bool {
	return p.Page*p.Limit < p.Total
}
