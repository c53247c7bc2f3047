package tui

import "github.com/charmbracelet/lipgloss"

// styles holds the lipgloss styles of the mood picker.
type styles struct {
	Title      lipgloss.Style
	Button     lipgloss.Style
	Active     lipgloss.Style
	Cursor     lipgloss.Style
	Loading    lipgloss.Style
	Error      lipgloss.Style
	Card       lipgloss.Style
	TrackName  lipgloss.Style
	Artist     lipgloss.Style
	Faint      lipgloss.Style
	NoPreview  lipgloss.Style
	PreviewURL lipgloss.Style
}

func defaultStyles() styles {
	button := lipgloss.NewStyle().
		Padding(0, 2).
		MarginRight(1).
		Foreground(lipgloss.Color("#FFFFFF")).
		Background(lipgloss.Color("#3B82F6"))

	return styles{
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			MarginBottom(1),
		Button: button,
		Active: button.
			Bold(true).
			Background(lipgloss.Color("#1D4ED8")),
		Cursor: lipgloss.NewStyle().Underline(true),
		Loading: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#93C5FD")),
		Error: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#EF4444")),
		Card: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#1E3A8A")).
			Padding(0, 1).
			Width(36),
		TrackName: lipgloss.NewStyle().Bold(true),
		Artist:    lipgloss.NewStyle().Foreground(lipgloss.Color("#D1D5DB")),
		Faint:     lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280")),
		NoPreview: lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("#9CA3AF")),
		PreviewURL: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#34D399")),
	}
}
