package style

import "github.com/charmbracelet/lipgloss"

// Palette names colours by the role they play on the dashboard. Each role
// carries a light and a dark variant so the terminal background decides.
type Palette struct {
	Accent lipgloss.AdaptiveColor // headers, selection
	Title  lipgloss.AdaptiveColor // panel titles
	Gain   lipgloss.AdaptiveColor
	Loss   lipgloss.AdaptiveColor
	Warn   lipgloss.AdaptiveColor

	Surface lipgloss.AdaptiveColor
	Text    lipgloss.AdaptiveColor
	Subtle  lipgloss.AdaptiveColor
	Muted   lipgloss.AdaptiveColor
}

// DefaultPalette is the neon-on-charcoal scheme.
func DefaultPalette() Palette {
	return Palette{
		Accent: lipgloss.AdaptiveColor{Light: "#0097A7", Dark: "#00E5FF"},
		Title:  lipgloss.AdaptiveColor{Light: "#C2185B", Dark: "#FF1B6B"},
		Gain:   lipgloss.AdaptiveColor{Light: "#00897B", Dark: "#2AFFAA"},
		Loss:   lipgloss.AdaptiveColor{Light: "#D32F2F", Dark: "#FF5555"},
		Warn:   lipgloss.AdaptiveColor{Light: "#EF6C00", Dark: "#FFB500"},

		Surface: lipgloss.AdaptiveColor{Light: "#FAFAFA", Dark: "#1B1D23"},
		Text:    lipgloss.AdaptiveColor{Light: "#1B1D23", Dark: "#ECEFF4"},
		Subtle:  lipgloss.AdaptiveColor{Light: "#4C5260", Dark: "#B4BCC8"},
		Muted:   lipgloss.AdaptiveColor{Light: "#8A909C", Dark: "#6C7280"},
	}
}
