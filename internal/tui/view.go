package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"adkplatform/internal/config"
	"adkplatform/internal/lifecycle"
	"adkplatform/internal/output"
	"adkplatform/internal/status"
)

// chromeHeight is the number of lines around the viewport: title, context,
// status, toast or input, and the short help line.
const chromeHeight = 5

// markdown renders finished panel output, rebuilding the renderer when the
// terminal width changes.
type markdown struct {
	cfg      config.MarkdownConfig
	width    int
	renderer *glamour.TermRenderer
}

func newMarkdown(cfg config.MarkdownConfig) *markdown {
	return &markdown{cfg: cfg}
}

func (md *markdown) render(content string, width int) string {
	if !md.cfg.Enabled || strings.TrimSpace(content) == "" {
		return content
	}
	if md.renderer == nil || md.width != width {
		wrap := md.cfg.WordWrap
		if width > 4 && (wrap <= 0 || wrap > width-4) {
			wrap = width - 4
		}
		style := md.cfg.Style
		if style == "" {
			style = "dark"
		}
		opts := []glamour.TermRendererOption{glamour.WithStandardStyle(style), glamour.WithWordWrap(wrap)}
		if md.cfg.Emoji {
			opts = append(opts, glamour.WithEmoji())
		}
		r, err := glamour.NewTermRenderer(opts...)
		if err != nil {
			return content
		}
		md.renderer, md.width = r, width
	}
	out, err := md.renderer.Render(content)
	if err != nil {
		return content
	}
	return out
}

func (m *Model) layout() {
	m.help.Width = m.width
	height := m.height - chromeHeight
	if m.help.ShowAll {
		height -= 3
	}
	m.viewport.Width = m.width
	m.viewport.Height = max(height, 1)
	m.input.Width = max(m.width-4, 10)
}

// refresh rebuilds the viewport content for the selected panel.
func (m *Model) refresh() {
	if !m.ready {
		return
	}
	st := m.states[m.current()]
	if st == nil {
		m.viewport.SetContent("")
		return
	}

	var b strings.Builder
	if st.progress.Step != "" {
		b.WriteString(progressStyle.Render(fmt.Sprintf("[%3d%%] %s", st.progress.Percent, st.progress.Step)))
		b.WriteString("\n")
	}
	if len(st.data) > 0 && st.running {
		b.WriteString(dataStyle.Render(output.FormatData(st.data)))
		b.WriteString("\n")
	}

	// Streaming output is shown raw; finished output is rendered once.
	if st.running {
		b.WriteString(st.body.String())
	} else {
		if st.rendered == "" {
			st.rendered = m.markdown.render(st.body.String(), m.width)
		}
		b.WriteString(st.rendered)
	}
	if st.image != "" {
		b.WriteString("\n" + st.image)
	}
	if st.failure != "" {
		b.WriteString("\n" + failureStyle.Render("x "+st.failure))
	}

	m.viewport.SetContent(b.String())
	if st.running {
		m.viewport.GotoBottom()
	}
}

// View implements [tea.Model].
func (m *Model) View() string {
	if !m.ready {
		return "Loading dashboard..."
	}
	snap := m.loop.Snapshot()

	sections := []string{
		m.tabs(snap),
		m.contextLine(snap),
		m.viewport.View(),
		m.statusLine(snap),
	}
	switch {
	case m.inputMode:
		sections = append(sections, m.input.View())
	case m.toast != "":
		sections = append(sections, toastStyle.Render(m.toast))
	default:
		sections = append(sections, "")
	}
	sections = append(sections, m.help.View(m.keys))
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m *Model) tabs(snap lifecycle.Snapshot) string {
	parts := []string{titleStyle.Render("ADK Platform")}
	for i, id := range m.panels {
		label := fmt.Sprintf("%d %s", i+1, id)
		if snap.Running && snap.Current == id {
			label += " *"
		}
		style := tabStyle
		if i == m.selected {
			style = activeTabStyle
		}
		if m.highlighted[string(id)] {
			style = style.Background(highlightTabBg)
		}
		parts = append(parts, style.Render(label))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m *Model) contextLine(snap lifecycle.Snapshot) string {
	c := m.contextFn()
	mode := "manual"
	if snap.Continuous {
		mode = "autonomous"
	}
	line := fmt.Sprintf("%s | %d users | %s | %s | %s", c.Feature, c.UserCount, c.Infrastructure, mode, snap.State)
	if snap.Next != "" {
		line += fmt.Sprintf(" | next: %s", snap.Next)
	}
	return contextLineStyle.Render(line)
}

func (m *Model) statusLine(snap lifecycle.Snapshot) string {
	style, ok := statusStyles[m.status.Kind]
	if !ok {
		style = statusStyles[status.KindIdle]
	}
	prefix := ""
	if snap.Running {
		prefix = m.spinner.View() + " "
	}
	return prefix + style.Render(m.status.Message)
}
