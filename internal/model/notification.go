package model

import "time"

// Notification is one entry of the user's notification feed.
// EntityType is kept as a raw string so types the client does not know
// about still decode; routing treats them as unresolvable.
type Notification struct {
	ID         int64     `json:"id"`
	Title      string    `json:"title"`
	Message    string    `json:"message"`
	IsRead     bool      `json:"isRead"`
	EntityType string    `json:"entityType"`
	EntityID   int64     `json:"entityId"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Ref returns the referenced entity and whether its type is known.
func (n Notification) Ref() (EntityRef, bool) {
	t := EntityType(n.EntityType)
	if !t.Valid() {
		return EntityRef{}, false
	}
	return Ref(t, n.EntityID), true
}
