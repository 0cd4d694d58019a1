package ui

import "github.com/charmbracelet/lipgloss"

// ANSI palette so the operator's terminal theme decides the exact shades.
var (
	ColorMuted  = lipgloss.Color("8")
	ColorWarn   = lipgloss.Color("3")
	ColorPass   = lipgloss.Color("2")
	ColorFail   = lipgloss.Color("1")
	ColorAccent = lipgloss.Color("4")
)

// statusColors colours issue rows by workflow state.
var statusColors = map[string]lipgloss.TerminalColor{
	"To Do":       ColorMuted,
	"In Progress": ColorWarn,
	"In Review":   ColorPass,
}

// StatusColor returns the row colour for an issue status, or nil when the
// status has none.
func StatusColor(status string) lipgloss.TerminalColor {
	return statusColors[status]
}

// StatusStyle returns a style coloured for status.
func (c *Console) StatusStyle(status string) lipgloss.Style {
	style := c.Style()
	if color := StatusColor(status); color != nil {
		style = style.Foreground(color)
	}
	return style
}
