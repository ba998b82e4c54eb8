// Package ui renders hints and session notices to the terminal.
package ui

import "github.com/charmbracelet/lipgloss"

var (
	ColorPrimary   = lipgloss.Color("205")
	ColorSecondary = lipgloss.Color("241")
	ColorSuccess   = lipgloss.Color("42")
	ColorError     = lipgloss.Color("160")
	ColorWarning   = lipgloss.Color("214")
	ColorText      = lipgloss.Color("252")
	ColorCyan      = lipgloss.Color("87")

	StyleTitle   = lipgloss.NewStyle().Foreground(ColorPrimary).Bold(true)
	StyleSubtle  = lipgloss.NewStyle().Foreground(ColorSecondary)
	StyleText    = lipgloss.NewStyle().Foreground(ColorText)
	StyleSuccess = lipgloss.NewStyle().Foreground(ColorSuccess).Bold(true)
	StyleError   = lipgloss.NewStyle().Foreground(ColorError)
	StyleWarning = lipgloss.NewStyle().Foreground(ColorWarning)
	StyleTip     = lipgloss.NewStyle().Foreground(ColorCyan).Bold(true)

	StyleHintBox = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(ColorPrimary).
			Padding(0, 1)

	StyleDoneBox = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(ColorSuccess).
			Padding(0, 1)
)

// levelStyle colors the level badge from calm to urgent.
func levelStyle(level int) lipgloss.Style {
	switch level {
	case 1:
		return lipgloss.NewStyle().Foreground(ColorSuccess).Bold(true)
	case 2:
		return lipgloss.NewStyle().Foreground(ColorCyan).Bold(true)
	case 3:
		return lipgloss.NewStyle().Foreground(ColorWarning).Bold(true)
	default:
		return lipgloss.NewStyle().Foreground(ColorError).Bold(true)
	}
}
