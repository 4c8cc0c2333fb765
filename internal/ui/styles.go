package ui

import "github.com/charmbracelet/lipgloss"

// Styles is the resolved look for one theme.
type Styles struct {
	Prompt        lipgloss.Style
	Input         lipgloss.Style
	SelectedItem  lipgloss.Style
	NormalItem    lipgloss.Style
	ReadItem      lipgloss.Style
	Match         lipgloss.Style
	Badge         lipgloss.Style
	Muted         lipgloss.Style
	Panel         lipgloss.Style
	PanelTitle    lipgloss.Style
	StatusBar     lipgloss.Style
	StatusBarKey  lipgloss.Style
	StatusBarText lipgloss.Style
	UnreadBadge   lipgloss.Style
	Error         lipgloss.Style
}

type palette struct {
	fg, bg, primary, secondary, muted, highlight, border, errColor lipgloss.Color
}

var palettes = map[string]palette{
	"dark": {
		fg:        lipgloss.Color("255"),
		bg:        lipgloss.Color("236"),
		primary:   lipgloss.Color("62"),  // Purple
		secondary: lipgloss.Color("241"), // Gray
		muted:     lipgloss.Color("240"),
		highlight: lipgloss.Color("212"), // Pink
		border:    lipgloss.Color("#30363d"),
		errColor:  lipgloss.Color("196"),
	},
	"light": {
		fg:        lipgloss.Color("235"),
		bg:        lipgloss.Color("254"),
		primary:   lipgloss.Color("25"),
		secondary: lipgloss.Color("244"),
		muted:     lipgloss.Color("247"),
		highlight: lipgloss.Color("161"),
		border:    lipgloss.Color("250"),
		errColor:  lipgloss.Color("160"),
	},
}

// ThemeStyles builds the styles for theme, defaulting to dark.
func ThemeStyles(theme string) Styles {
	p, ok := palettes[theme]
	if !ok {
		p = palettes["dark"]
	}
	return Styles{
		Prompt:        lipgloss.NewStyle().Foreground(p.primary).Bold(true),
		Input:         lipgloss.NewStyle().Foreground(p.fg),
		SelectedItem:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("255")).Background(p.primary).Padding(0, 1),
		NormalItem:    lipgloss.NewStyle().Foreground(p.fg).Padding(0, 1),
		ReadItem:      lipgloss.NewStyle().Foreground(p.secondary).Padding(0, 1),
		Match:         lipgloss.NewStyle().Foreground(p.highlight).Bold(true).Underline(true),
		Badge:         lipgloss.NewStyle().Foreground(p.primary).Background(p.bg).Padding(0, 1).MarginRight(1),
		Muted:         lipgloss.NewStyle().Foreground(p.muted),
		Panel:         lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(p.border).Padding(0, 1),
		PanelTitle:    lipgloss.NewStyle().Foreground(p.highlight).Bold(true),
		StatusBar:     lipgloss.NewStyle().Foreground(p.fg).Background(p.bg).Padding(0, 1),
		StatusBarKey:  lipgloss.NewStyle().Foreground(p.highlight).Bold(true),
		StatusBarText: lipgloss.NewStyle().Foreground(p.secondary),
		UnreadBadge:   lipgloss.NewStyle().Foreground(lipgloss.Color("255")).Background(p.errColor).Bold(true).Padding(0, 1),
		Error:         lipgloss.NewStyle().Foreground(p.errColor).Bold(true),
	}
}
