package state

import (
	"context"
	"maps"

	"github.com/abelbrown/harbor/internal/api"
)

// Searcher runs full-text searches.
type Searcher interface {
	Search(ctx context.Context, q api.SearchQuery) (*api.SearchResponse, error)
}

// SearchState backs the full-text results view.
type SearchState struct {
	Query   string
	Filters map[string]string
	Results Resource[api.SearchResponse]
}

// Search actions.
type (
	FilterSet struct {
		Key, Value string
	}
	FiltersCleared struct{}
	querySubmitted struct{ query string }
)

func reduceSearch(s SearchState, a Action) SearchState {
	switch a := a.(type) {
	case FilterSet:
		next := maps.Clone(s.Filters)
		if next == nil {
			next = make(map[string]string)
		}
		if a.Value == "" {
			delete(next, a.Key)
		} else {
			next[a.Key] = a.Value
		}
		s.Filters = next
	case FiltersCleared:
		s.Filters = nil
	case querySubmitted:
		s.Query = a.query
	}
	return s
}

// Search is the full-text search store.
type Search struct {
	*Store[SearchState]
	api    Searcher
	policy Policy
}

// NewSearch creates an empty search store.
func NewSearch(api Searcher, policy Policy) *Search {
	return &Search{
		Store:  NewStore(func() SearchState { return SearchState{} }, reduceSearch),
		api:    api,
		policy: policy,
	}
}

func searchResults(s *SearchState) *Resource[api.SearchResponse] { return &s.Results }

// Run searches for query with the current filters.
func (s *Search) Run(ctx context.Context, query string, page, limit int) error {
	cur := s.Dispatch(querySubmitted{query: query})
	q := api.SearchQuery{Query: query, Filters: cur.Filters, Page: page, Limit: limit}
	_, err := Load(ctx, s.Store, searchResults, s.policy, func(ctx context.Context) (api.SearchResponse, error) {
		res, err := s.api.Search(ctx, q)
		if err != nil {
			return api.SearchResponse{}, err
		}
		return *res, nil
	})
	return err
}

// SetFilter sets or (with an empty value) removes one filter.
func (s *Search) SetFilter(key, value string) {
	s.Dispatch(FilterSet{Key: key, Value: value})
}

// Clear resets query, filters and results.
func (s *Search) Clear() {
	s.Reset()
}
