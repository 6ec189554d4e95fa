package output

import "github.com/charmbracelet/lipgloss"

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7D56F4")).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	contextStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#A8A8A8"))

	busyStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#00BFFF"))
	successStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#04B575"))
	errorStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF4672"))
	idleStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#767676"))

	progressStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFB86C"))
	highlightStyle = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("#F1FA8C"))

	summaryStyle = lipgloss.NewStyle().
			Border(lipgloss.DoubleBorder()).
			Padding(0, 1)
)
