// Package model defines the data shapes shared by every harbor unit.
//
// Types here mirror the JSON contract of the portal REST API. They carry no
// behavior beyond key derivation and small predicates.
package model

import (
	"fmt"
	"strconv"
	"strings"
)

// EntityType identifies which kind of content an entity reference points at.
type EntityType string

const (
	EntityThread  EntityType = "thread"
	EntityBlog    EntityType = "blog"
	EntityArticle EntityType = "article"
	EntityProduct EntityType = "product"
)

// ParseEntityType accepts singular or plural spellings ("threads") in any case.
func ParseEntityType(s string) (EntityType, error) {
	t := EntityType(strings.TrimSuffix(strings.ToLower(strings.TrimSpace(s)), "s"))
	if !t.Valid() {
		return "", fmt.Errorf("model: unknown entity type %q", s)
	}
	return t, nil
}

// Valid reports whether t is one of the known entity types.
func (t EntityType) Valid() bool {
	switch t {
	case EntityThread, EntityBlog, EntityArticle, EntityProduct:
		return true
	}
	return false
}

// EntityRef is the composite key of a likeable/viewable entity.
// Immutable once created.
type EntityRef struct {
	Type EntityType `json:"entityType"`
	ID   int64      `json:"entityId"`
}

// Ref builds an EntityRef.
func Ref(t EntityType, id int64) EntityRef {
	return EntityRef{Type: t, ID: id}
}

// Key returns the "<type>-<id>" form used to index per-entity state.
func (r EntityRef) Key() string {
	return string(r.Type) + "-" + strconv.FormatInt(r.ID, 10)
}

func (r EntityRef) String() string {
	return r.Key()
}

// LikeState is the confirmed like status and count of one entity.
type LikeState struct {
	IsLiked bool `json:"isLiked"`
	Count   int  `json:"count"`
}
