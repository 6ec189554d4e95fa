package tui

import (
	"github.com/charmbracelet/lipgloss"

	"adkplatform/internal/status"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	tabStyle       = lipgloss.NewStyle().Padding(0, 1).Foreground(lipgloss.Color("#A8A8A8"))
	activeTabStyle = tabStyle.Bold(true).Foreground(lipgloss.Color("#FAFAFA")).Underline(true)
	highlightTabBg = lipgloss.Color("#5A4A00")

	contextLineStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#767676"))
	progressStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFB86C"))
	dataStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("#8BE9FD"))
	failureStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF4672"))

	statusStyles = map[status.Kind]lipgloss.Style{
		status.KindIdle:    lipgloss.NewStyle().Foreground(lipgloss.Color("#767676")),
		status.KindBusy:    lipgloss.NewStyle().Foreground(lipgloss.Color("#00BFFF")),
		status.KindSuccess: lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575")),
		status.KindError:   lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4672")),
	}

	toastStyle = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("#F1FA8C"))
)
