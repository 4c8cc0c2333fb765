package api

import (
	"context"
	"net/url"
	"sort"
	"strconv"

	"github.com/abelbrown/harbor/internal/model"
)

// SearchQuery is a full-text search request. Filters are sent as
// filters[<key>]=<value> query parameters.
type SearchQuery struct {
	Query   string
	Filters map[string]string
	Page    int
	Limit   int
}

// SearchResponse is a page of full-text results.
type SearchResponse struct {
	Results []model.SearchResult `json:"results"`
	Total   int                  `json:"total"`
	Page    int                  `json:"page"`
}

type suggestResponse struct {
	Suggestions []model.SuggestionItem `json:"suggestions"`
}

type similarResponse struct {
	Results []model.SearchResult `json:"results"`
}

// Encode renders the query string.
func (q SearchQuery) Encode() string {
	v := url.Values{}
	v.Set("query", q.Query)
	keys := make([]string, 0, len(q.Filters))
	for k := range q.Filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if q.Filters[k] != "" {
			v.Set("filters["+k+"]", q.Filters[k])
		}
	}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	return v.Encode()
}

// Search runs a full-text search.
func (c *Client) Search(ctx context.Context, q SearchQuery) (*SearchResponse, error) {
	var out SearchResponse
	if err := c.Get(ctx, "/search?"+q.Encode(), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Suggest returns up to limit typeahead suggestions for prefix.
func (c *Client) Suggest(ctx context.Context, prefix string, limit int) ([]model.SuggestionItem, error) {
	v := url.Values{}
	v.Set("prefix", prefix)
	v.Set("limit", strconv.Itoa(limit))
	var out suggestResponse
	if err := c.Get(ctx, "/search/suggest?"+v.Encode(), &out); err != nil {
		return nil, err
	}
	return out.Suggestions, nil
}

// Similar returns content related to the entity with the given id.
func (c *Client) Similar(ctx context.Context, id int64, limit int) ([]model.SearchResult, error) {
	v := url.Values{}
	v.Set("limit", strconv.Itoa(limit))
	var out similarResponse
	if err := c.Get(ctx, "/search/similar/"+strconv.FormatInt(id, 10)+"?"+v.Encode(), &out); err != nil {
		return nil, err
	}
	return out.Results, nil
}
