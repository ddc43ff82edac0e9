// Package ui holds the CLI's terminal styling helpers.
package ui

import "github.com/charmbracelet/lipgloss"

// Color palette using ANSI color codes for terminal compatibility.

// Semantic colors for status indication
const (
	ColorSuccess lipgloss.Color = "2" // Green
	ColorError   lipgloss.Color = "1" // Red
	ColorWarning lipgloss.Color = "3" // Yellow
	ColorInfo    lipgloss.Color = "6" // Cyan
)

// Text colors for content hierarchy
const (
	ColorPrimary   lipgloss.Color = "7" // White/default
	ColorSecondary lipgloss.Color = "4" // Blue
	ColorMuted     lipgloss.Color = "8" // Gray (bright black)
)

// StateColor maps an instance state name to its display color.
func StateColor(state string) lipgloss.Color {
	switch state {
	case "running":
		return ColorSuccess
	case "refreshing":
		return ColorInfo
	case "error":
		return ColorError
	case "stopped":
		return ColorMuted
	default:
		return ColorWarning
	}
}
