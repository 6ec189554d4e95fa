package output

import (
	"sync"

	"github.com/charmbracelet/glamour"

	"adkplatform/internal/config"
)

// markdownRenderer lazily builds one glamour renderer and reuses it.
type markdownRenderer struct {
	cfg config.MarkdownConfig

	once     sync.Once
	renderer *glamour.TermRenderer
	err      error
}

func newMarkdownRenderer(cfg config.MarkdownConfig) *markdownRenderer {
	return &markdownRenderer{cfg: cfg}
}

// Render returns content rendered for the terminal. Rendering failures fall
// back to the raw markdown.
func (m *markdownRenderer) Render(content string) string {
	if !m.cfg.Enabled || content == "" {
		return content
	}
	m.once.Do(m.build)
	if m.err != nil {
		return content
	}
	out, err := m.renderer.Render(content)
	if err != nil {
		return content
	}
	return out
}

func (m *markdownRenderer) build() {
	style := m.cfg.Style
	if style == "" {
		style = "dark"
	}
	opts := []glamour.TermRendererOption{
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(max(m.cfg.WordWrap, 0)),
	}
	if m.cfg.Emoji {
		opts = append(opts, glamour.WithEmoji())
	}
	m.renderer, m.err = glamour.NewTermRenderer(opts...)
}
