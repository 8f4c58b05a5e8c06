package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/geodati/catasto2gpkg/pkg/catasto"
)

// Color palette - keeping it minimal and accessible.
var (
	ColorPrimary   = lipgloss.Color("39")  // Blue
	ColorSecondary = lipgloss.Color("245") // Gray
	ColorSuccess   = lipgloss.Color("34")  // Green
	ColorWarning   = lipgloss.Color("214") // Orange
	ColorError     = lipgloss.Color("196") // Red
	ColorMuted     = lipgloss.Color("240") // Dark gray
)

// Styles for TUI components.
var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary).
			MarginBottom(1)

	SubtitleStyle = lipgloss.NewStyle().
			Foreground(ColorSecondary)

	// Box style for the run summary
	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorSecondary).
			Padding(0, 1)

	LabelStyle = lipgloss.NewStyle().
			Foreground(ColorSecondary).
			Width(10)

	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorSecondary)

	// Status styles
	SuccessStyle = lipgloss.NewStyle().
			Foreground(ColorSuccess)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ColorError)

	WarningStyle = lipgloss.NewStyle().
			Foreground(ColorWarning)

	MutedStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)

	// Help text style
	HelpStyle = lipgloss.NewStyle().
			Foreground(ColorMuted).
			MarginTop(1)
)

// Symbols for visual feedback.
const (
	SymbolCheck      = "✓"
	SymbolCross      = "✗"
	SymbolSkip       = "–"
	SymbolArrowRight = "→"
	SymbolBullet     = "•"
	SymbolSpinner    = "◐"
)

// StatusSymbol returns the symbol shown next to a unit of work.
func StatusSymbol(s catasto.Status) string {
	switch s {
	case catasto.StatusSucceeded:
		return SymbolCheck
	case catasto.StatusFailed:
		return SymbolCross
	default:
		return SymbolSkip
	}
}

// StatusStyle returns the style used for a status.
func StatusStyle(s catasto.Status) lipgloss.Style {
	switch s {
	case catasto.StatusSucceeded:
		return SuccessStyle
	case catasto.StatusFailed:
		return ErrorStyle
	default:
		return WarningStyle
	}
}
