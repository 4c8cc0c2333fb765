// Package otel records structured client events for harbor.
//
// Events are typed structs written as JSONL lines by an async Logger. The
// API client, the engagement unit, the suggestion engine and the
// notification feed all emit here when a Logger is attached.
package otel

import (
	"encoding/json"
	"time"
)

// Level defines event severity for filtering.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// EventKind identifies the category of an event.
// Dot-delimited: "<subsystem>.<action>".
type EventKind string

const (
	// API gateway
	KindRequestStart    EventKind = "api.request_start"
	KindRequestComplete EventKind = "api.request_complete"
	KindRequestError    EventKind = "api.request_error"

	// Engagement
	KindLikeToggle   EventKind = "engage.like_toggle"
	KindAuthPrompt   EventKind = "engage.auth_prompt"
	KindViewRecorded EventKind = "engage.view"
	KindViewError    EventKind = "engage.view_error"

	// Suggestions
	KindSuggestFetch    EventKind = "suggest.fetch"
	KindSuggestComplete EventKind = "suggest.complete"
	KindSuggestCancel   EventKind = "suggest.cancel"
	KindSuggestStale    EventKind = "suggest.stale"

	// Notifications
	KindNotifyRead   EventKind = "notify.read"
	KindNotifyDelete EventKind = "notify.delete"
	KindNotifyPoll   EventKind = "notify.poll"

	// Session
	KindLogin  EventKind = "session.login"
	KindLogout EventKind = "session.logout"

	// System
	KindStartup  EventKind = "sys.startup"
	KindShutdown EventKind = "sys.shutdown"
	KindError    EventKind = "sys.error"
)

// Event is the universal record. Every field except Kind and Time is optional.
type Event struct {
	Time      time.Time      `json:"t"`
	Level     Level          `json:"level,omitempty"`
	Kind      EventKind      `json:"kind"`
	Comp      string         `json:"comp,omitempty"` // "api", "engage", "suggest", "notify", "portal"
	SessionID string         `json:"session_id,omitempty"`
	RequestID string         `json:"rid,omitempty"`
	Method    string         `json:"method,omitempty"`
	Path      string         `json:"path,omitempty"`
	Status    int            `json:"status,omitempty"`
	Entity    string         `json:"entity,omitempty"` // entity key, "thread-42"
	Query     string         `json:"query,omitempty"`
	Count     int            `json:"count,omitempty"`
	Dur       time.Duration  `json:"-"`
	DurMs     float64        `json:"dur_ms,omitempty"`
	Err       string         `json:"err,omitempty"`
	Msg       string         `json:"msg,omitempty"`
	Extra     map[string]any `json:"extra,omitempty"`
}

// MarshalJSON converts Dur to DurMs.
func (e Event) MarshalJSON() ([]byte, error) {
	type alias Event
	a := alias(e)
	if e.Dur > 0 {
		a.DurMs = float64(e.Dur) / float64(time.Millisecond)
	}
	return json.Marshal(a)
}
