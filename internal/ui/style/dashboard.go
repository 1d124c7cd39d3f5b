package style

import (
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
)

var palette = DefaultPalette()

var (
	HeaderStyle = lipgloss.NewStyle().
			Foreground(palette.Accent).
			Bold(true).
			Padding(0, 1)

	StatStyle = lipgloss.NewStyle().
			Foreground(palette.Subtle).
			Padding(0, 1)

	PanelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(palette.Muted).
			Padding(0, 1)

	PanelTitleStyle = lipgloss.NewStyle().
			Foreground(palette.Title).
			Bold(true)

	MutedStyle = lipgloss.NewStyle().Foreground(palette.Muted)

	GainStyle = lipgloss.NewStyle().Foreground(palette.Gain).Bold(true)
	LossStyle = lipgloss.NewStyle().Foreground(palette.Loss).Bold(true)
	WarnStyle = lipgloss.NewStyle().Foreground(palette.Warn)
)

// TableStyles returns the positions table styling.
func TableStyles() table.Styles {
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(palette.Muted).
		BorderBottom(true).
		Foreground(palette.Title).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(palette.Surface).
		Background(palette.Accent).
		Bold(false)
	return s
}
