// Package route maps entities to the portal's detail and search paths.
package route

import (
	"net/url"
	"strconv"

	"github.com/abelbrown/harbor/internal/model"
)

var collections = map[model.EntityType]string{
	model.EntityThread:  "/threads/",
	model.EntityBlog:    "/blogs/",
	model.EntityArticle: "/articles/",
	model.EntityProduct: "/products/",
}

// Detail returns the detail path of an entity, preferring slug over id.
// Unknown types report false.
func Detail(t model.EntityType, id int64, slug string) (string, bool) {
	prefix, ok := collections[t]
	if !ok {
		return "", false
	}
	if slug != "" {
		return prefix + url.PathEscape(slug), true
	}
	return prefix + strconv.FormatInt(id, 10), true
}

// ForSuggestion is Detail for a typeahead hit.
func ForSuggestion(s model.SuggestionItem) (string, bool) {
	return Detail(s.Type, s.ID, s.Slug)
}

// ForNotification resolves the entity a notification points at.
// Notifications carry no slug, so the id form is used.
func ForNotification(n model.Notification) (string, bool) {
	ref, ok := n.Ref()
	if !ok {
		return "", false
	}
	return Detail(ref.Type, ref.ID, "")
}

// Search returns the full-text results path for query.
func Search(query string) string {
	return "/search?" + url.Values{"query": {query}}.Encode()
}
