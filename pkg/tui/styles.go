package tui

import "github.com/charmbracelet/lipgloss"

// Palette for the wallet screens.
const (
	colorAccent   = lipgloss.Color("#3C8DFF")
	colorBorder   = lipgloss.Color("#5A6B8C")
	colorMuted    = lipgloss.Color("245")
	colorPositive = lipgloss.Color("#2FBF71")
	colorWarning  = lipgloss.Color("#E8A33D")
	colorNegative = lipgloss.Color("#E5484D")
	colorText     = lipgloss.Color("#F2F4F8")
)

var (
	subtleStyle = lipgloss.NewStyle().Foreground(colorMuted)
	titleStyle  = lipgloss.NewStyle().
			Foreground(colorText).
			Background(colorAccent).
			Padding(0, 1).
			Bold(true)
	infoStyle = lipgloss.NewStyle().Foreground(colorPositive)
	warnStyle = lipgloss.NewStyle().Foreground(colorWarning)
	errStyle  = lipgloss.NewStyle().Foreground(colorNegative).Bold(true)
	boxStyle  = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(colorBorder).
			Padding(0, 2)
	tableHeaderStyle = lipgloss.NewStyle().
				Foreground(colorAccent).
				Underline(true).
				Bold(true)
	balanceStyle = lipgloss.NewStyle().
			Foreground(colorPositive).
			Bold(true).
			Align(lipgloss.Center)
)
