package manager

import (
	"github.com/charmbracelet/lipgloss"
)

// Styles is the lipgloss style set used by the TUI. Role names follow the
// usual split: header, tabs, selection, dim annotations, status levels.
type Styles struct {
	Header    lipgloss.Style
	Tab       lipgloss.Style
	TabActive lipgloss.Style

	Selected  lipgloss.Style
	Separator lipgloss.Style
	Dim       lipgloss.Style
	Modified  lipgloss.Style

	ZoneBox       lipgloss.Style
	ZoneBoxActive lipgloss.Style
	ZoneTitle     lipgloss.Style

	Error   lipgloss.Style
	Success lipgloss.Style
	Warn    lipgloss.Style
	Help    lipgloss.Style
}

// DefaultStyles returns the default palette.
func DefaultStyles() Styles {
	return Styles{
		Header:    lipgloss.NewStyle().Bold(true),
		Tab:       lipgloss.NewStyle().Faint(true).Padding(0, 1),
		TabActive: lipgloss.NewStyle().Bold(true).Underline(true).Padding(0, 1),

		Selected:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("215")),
		Separator: lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
		Dim:       lipgloss.NewStyle().Faint(true),
		Modified:  lipgloss.NewStyle().Foreground(lipgloss.Color("221")),

		ZoneBox: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1),
		ZoneBoxActive: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("215")).
			Padding(0, 1),
		ZoneTitle: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("147")),

		Error:   lipgloss.NewStyle().Foreground(lipgloss.Color("203")),
		Success: lipgloss.NewStyle().Foreground(lipgloss.Color("114")),
		Warn:    lipgloss.NewStyle().Foreground(lipgloss.Color("215")),
		Help:    lipgloss.NewStyle().Faint(true),
	}
}

// Swatch renders a two-cell color swatch for hex values; non-hex colors
// (css functions) get no swatch.
func (s Styles) Swatch(colorText string) string {
	hex := SwatchHex(colorText)
	if hex == "" {
		return ""
	}
	return lipgloss.NewStyle().Background(lipgloss.Color(hex)).Render("  ")
}
