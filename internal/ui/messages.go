// Package ui provides the Bubble Tea TUI for harbor.
package ui

import (
	"github.com/abelbrown/harbor/internal/notify"
	"github.com/abelbrown/harbor/internal/suggest"
)

// suggestionsMsg carries a new engine snapshot.
type suggestionsMsg suggest.Snapshot

// feedMsg carries a new notification store value.
type feedMsg notify.State

// NavigateMsg is sent when the user picks a destination.
type NavigateMsg struct {
	Path string
}

// UnreadCountMsg is sent by the background poller.
type UnreadCountMsg struct {
	Count int
}

// actionDoneMsg reports the outcome of a background action.
type actionDoneMsg struct {
	Status string
	Err    error
}

// listenClosedMsg is sent when a store subscription ends.
type listenClosedMsg struct{}
