package ui

import "github.com/charmbracelet/lipgloss"

// ANSI 256 palette. One accent color; everything else is gray.
const (
	ColorAccent   = "39"  // headers, active stage, progress fill
	ColorAccentLo = "31"  // completed stages
	ColorGray     = "245" // labels
	ColorDarkGray = "238" // borders, pending stages
	ColorRed      = "196"
	ColorYellow   = "220"
	ColorGreen    = "78"
)

// Styles holds the lipgloss styles shared by the TUI and status output.
type Styles struct {
	Header  lipgloss.Style
	Active  lipgloss.Style
	Done    lipgloss.Style
	Dim     lipgloss.Style
	Label   lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Panel   lipgloss.Style
}

// DefaultStyles returns the colored styles.
func DefaultStyles() Styles {
	return Styles{
		Header:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(ColorAccent)),
		Active:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(ColorAccent)),
		Done:    lipgloss.NewStyle().Foreground(lipgloss.Color(ColorAccentLo)),
		Dim:     lipgloss.NewStyle().Foreground(lipgloss.Color(ColorDarkGray)),
		Label:   lipgloss.NewStyle().Foreground(lipgloss.Color(ColorGray)),
		Success: lipgloss.NewStyle().Foreground(lipgloss.Color(ColorGreen)),
		Warning: lipgloss.NewStyle().Foreground(lipgloss.Color(ColorYellow)),
		Error:   lipgloss.NewStyle().Foreground(lipgloss.Color(ColorRed)),
		Panel: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(ColorDarkGray)).
			Padding(0, 1),
	}
}

// NoColorStyles returns styles that render text unchanged, apart from
// the panel border.
func NoColorStyles() Styles {
	plain := lipgloss.NewStyle()
	return Styles{
		Header:  plain,
		Active:  plain,
		Done:    plain,
		Dim:     plain,
		Label:   plain,
		Success: plain,
		Warning: plain,
		Error:   plain,
		Panel:   lipgloss.NewStyle().Border(lipgloss.NormalBorder()).Padding(0, 1),
	}
}

// GetStyles picks DefaultStyles or NoColorStyles.
func GetStyles(noColor bool) Styles {
	if noColor {
		return NoColorStyles()
	}
	return DefaultStyles()
}
