package tui

import (
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Colors adapt to light and dark terminal backgrounds. Faint text is only used
// on dark backgrounds; on light terminals it is often illegible.

func ac(light, dark string) lipgloss.AdaptiveColor {
	return lipgloss.AdaptiveColor{Light: light, Dark: dark}
}

func faintIfDark(st lipgloss.Style) lipgloss.Style {
	if lipgloss.HasDarkBackground() {
		return st.Faint(true)
	}
	return st
}

var (
	colorMuted       lipgloss.TerminalColor = ac("240", "243")
	colorSelectedBg  lipgloss.TerminalColor = ac("#e9e9e9", "#262626")
	colorSelectedFg  lipgloss.TerminalColor = ac("235", "255")
	colorBorder      lipgloss.TerminalColor = ac("250", "243")
	colorBorderFocus lipgloss.TerminalColor = ac("232", "255")
	colorAccent      lipgloss.TerminalColor = ac("27", "62")
	colorWarn        lipgloss.TerminalColor = ac("160", "203")
)

var (
	styleTitle    = lipgloss.NewStyle().Bold(true)
	styleMuted    = faintIfDark(lipgloss.NewStyle().Foreground(colorMuted))
	styleCursor   = lipgloss.NewStyle().Background(colorSelectedBg).Foreground(colorSelectedFg).Bold(true)
	styleDragging = lipgloss.NewStyle().Foreground(colorAccent).Bold(true)
	styleWarn     = lipgloss.NewStyle().Foreground(colorWarn)
	stylePane     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorBorder).Padding(0, 1)
	stylePaneOn   = stylePane.BorderForeground(colorBorderFocus)
)

// applyColorProfile honours NO_COLOR before the program starts.
func applyColorProfile() {
	if strings.TrimSpace(os.Getenv("NO_COLOR")) != "" {
		lipgloss.SetColorProfile(termenv.Ascii)
	}
}
