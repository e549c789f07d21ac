package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/kingrea/fetchcards/internal/logbook"
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF6B6B"))

	subtitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#AAAAAA"))

	panelHeadStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#5B8DEF"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888"))

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#E0E0E0"))

	codeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFD166"))

	spinnerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#5B8DEF"))

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444444")).
			Padding(0, 1)
)

var logLevelStyles = map[logbook.Level]lipgloss.Style{
	logbook.LevelInfo:  lipgloss.NewStyle().Foreground(lipgloss.Color("#AAAAAA")),
	logbook.LevelWarn:  lipgloss.NewStyle().Foreground(lipgloss.Color("#FFD166")),
	logbook.LevelError: lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Bold(true),
}

func logLevelStyle(level logbook.Level) lipgloss.Style {
	if s, ok := logLevelStyles[level]; ok {
		return s
	}
	return labelStyle
}
