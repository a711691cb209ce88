package tui

import "github.com/charmbracelet/lipgloss"

var (
	colorAccent = lipgloss.Color("#25A065")
	colorText   = lipgloss.Color("#FFFDF5")
	colorDim    = lipgloss.ANSIColor(8)
	colorCursor = lipgloss.ANSIColor(11)
	colorAlert  = lipgloss.ANSIColor(9)

	titleStyle = lipgloss.NewStyle().
			Foreground(colorText).
			Background(colorAccent).
			Padding(0, 1).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(colorText)

	highlightStyle = lipgloss.NewStyle().
			Foreground(colorAccent).
			Bold(true)

	dimStyle    = lipgloss.NewStyle().Foreground(colorDim)
	cursorStyle = lipgloss.NewStyle().Foreground(colorCursor).Bold(true)
	barStyle    = lipgloss.NewStyle().Foreground(colorAccent)
	alertStyle  = lipgloss.NewStyle().Foreground(colorAlert).Bold(true)

	headerStyle = lipgloss.NewStyle().Foreground(colorAccent).Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

// Title renders s as a section heading.
func Title(s string) string { return titleStyle.Render(s) }

// Alert renders s as a warning line.
func Alert(s string) string { return alertStyle.Render(s) }

// Dim renders secondary text.
func Dim(s string) string { return dimStyle.Render(s) }
