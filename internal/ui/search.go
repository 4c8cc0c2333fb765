package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/abelbrown/harbor/internal/model"
	"github.com/abelbrown/harbor/internal/suggest"
)

// maxVisible is how many suggestions are drawn at once.
const maxVisible = 8

// SearchBox is the typeahead input. It forwards keystrokes to the engine
// and renders whatever snapshot it was last given.
type SearchBox struct {
	input  textinput.Model
	engine *suggest.Engine
	snap   suggest.Snapshot
	styles Styles
	width  int
}

// NewSearchBox creates a focused search box driving engine.
func NewSearchBox(engine *suggest.Engine, styles Styles) SearchBox {
	ti := textinput.New()
	ti.Placeholder = "Search threads, blogs, articles, products..."
	ti.Prompt = "/ "
	ti.PromptStyle = styles.Prompt
	ti.TextStyle = styles.Input
	ti.CharLimit = 120
	ti.Focus()
	engine.Focus()

	return SearchBox{
		input:  ti,
		engine: engine,
		snap:   engine.Snapshot(),
		styles: styles,
	}
}

// SetWidth sets the render width.
func (s *SearchBox) SetWidth(w int) {
	s.width = w
	s.input.Width = max(10, w-6)
}

// Focused reports whether the input has focus.
func (s SearchBox) Focused() bool {
	return s.input.Focused()
}

// Focus gives the input focus.
func (s *SearchBox) Focus() tea.Cmd {
	s.engine.Focus()
	return s.input.Focus()
}

// SetSnapshot installs a new engine snapshot.
func (s *SearchBox) SetSnapshot(snap suggest.Snapshot) {
	s.snap = snap
	if !snap.Focused && s.input.Focused() {
		s.input.Blur()
	}
}

// Update handles a key. It returns a navigation action when Enter (or
// the search-anyway key) resolves to one.
func (s SearchBox) Update(msg tea.Msg) (SearchBox, tea.Cmd, suggest.Action) {
	if !s.input.Focused() {
		return s, nil, suggest.Action{}
	}

	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "esc":
			s.engine.Escape()
			s.input.Blur()
			return s, nil, suggest.Action{}

		case "enter":
			return s, nil, s.engine.Enter()

		case "ctrl+s":
			return s, nil, s.engine.SearchAnyway()

		case "up":
			s.engine.MoveUp()
			return s, nil, suggest.Action{}

		case "down":
			s.engine.MoveDown()
			return s, nil, suggest.Action{}

		case "ctrl+u":
			s.input.SetValue("")
			s.engine.Clear()
			return s, nil, suggest.Action{}
		}
	}

	oldValue := s.input.Value()

	var cmd tea.Cmd
	s.input, cmd = s.input.Update(msg)

	// Only feed the engine when the text actually changes.
	if v := s.input.Value(); v != oldValue {
		s.engine.Input(v)
	}
	return s, cmd, suggest.Action{}
}

// View renders the input and the dropdown.
func (s SearchBox) View() string {
	var b strings.Builder
	b.WriteString(s.input.View())
	b.WriteString("\n")

	snap := s.snap
	switch snap.Phase {
	case suggest.Debouncing, suggest.Fetching:
		if len(snap.Items) == 0 {
			b.WriteString(s.styles.Muted.Render("  searching..."))
			b.WriteString("\n")
			return b.String()
		}
	case suggest.Empty:
		b.WriteString(s.styles.Muted.Render("  No suggestions. ctrl+s to search anyway"))
		b.WriteString("\n")
		return b.String()
	case suggest.Failed:
		b.WriteString(s.styles.Error.Render("  " + snap.Err))
		b.WriteString("\n")
		return b.String()
	case suggest.Idle:
		return b.String()
	}

	end := min(maxVisible, len(snap.Items))
	start := 0
	if snap.Selected >= end {
		start = snap.Selected - end + 1
		end = snap.Selected + 1
	}
	for i := start; i < end; i++ {
		b.WriteString(s.renderItem(snap.Items[i], i == snap.Selected))
		b.WriteString("\n")
	}
	if end < len(snap.Items) {
		b.WriteString(s.styles.Muted.Render("  ↓ more below"))
		b.WriteString("\n")
	}
	return b.String()
}

func (s SearchBox) renderItem(it model.SuggestionItem, selected bool) string {
	var title strings.Builder
	for _, seg := range suggest.ItemSegments(it, s.snap.Query) {
		if seg.Match {
			title.WriteString(s.styles.Match.Render(seg.Text))
		} else {
			title.WriteString(seg.Text)
		}
	}

	badge := s.styles.Badge.Render(string(it.Type))
	line := badge + title.String()
	if it.AuthorName != "" {
		line += s.styles.Muted.Render("  by " + it.AuthorName)
	}
	if selected {
		return s.styles.SelectedItem.Render("› " + line)
	}
	return s.styles.NormalItem.Render("  " + line)
}
