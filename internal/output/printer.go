// Package output renders loop activity for the command-line front end.
//
// A [Printer] subscribes to the event bus and turns rendering events into
// terminal output: streamed chunks are written as they arrive, progress and
// highlight updates become short annotated lines, and each finished task is
// closed with its rendered markdown and a status line.
package output

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"adkplatform/internal/config"
	"adkplatform/internal/event"
	"adkplatform/internal/lifecycle"
	"adkplatform/internal/panel"
	"adkplatform/internal/platform"
	"adkplatform/internal/status"
)

// Printer writes loop activity to a terminal.
type Printer struct {
	out      io.Writer
	md       *markdownRenderer
	truncate int

	mu       sync.Mutex
	streamed map[panel.ID]bool
	context  func() platform.Context
}

// NewPrinter creates a [Printer] writing to stdout.
func NewPrinter(cfg config.OutputConfig) *Printer {
	return NewPrinterWithWriter(os.Stdout, cfg)
}

// NewPrinterWithWriter creates a [Printer] writing to w.
func NewPrinterWithWriter(w io.Writer, cfg config.OutputConfig) *Printer {
	return &Printer{
		out:      w,
		md:       newMarkdownRenderer(cfg.Markdown),
		truncate: cfg.TruncateLength,
		streamed: make(map[panel.ID]bool),
	}
}

// SetContextSource sets where panel headers read the shared context from.
func (p *Printer) SetContextSource(fn func() platform.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.context = fn
}

// Attach subscribes the printer to every event on bus and returns the
// subscription ID.
func (p *Printer) Attach(bus *event.Bus) string {
	return bus.SubscribeAll(p.Handle)
}

// Handle renders a single event.
func (p *Printer) Handle(e event.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch payload := e.Payload.(type) {
	case event.Append:
		p.streamed[e.Panel] = true
		fmt.Fprint(p.out, payload.Chunk)
	case event.Replace:
		if line := FormatData(payload.Content.Data); line != "" {
			fmt.Fprintf(p.out, "%s\n", contextStyle.Render(line))
		}
	case event.Progress:
		fmt.Fprintf(p.out, "%s\n", progressStyle.Render(fmt.Sprintf("  [%3d%%] %s", payload.Percent, payload.Step)))
	case event.Highlight:
		fmt.Fprintf(p.out, "%s\n", highlightStyle.Render("  >> "+strings.Join(payload.Targets, ", ")))
	case event.Status:
		// Success and error lines are printed by Outcome with the final content.
		switch payload.Kind {
		case status.KindBusy:
			var c platform.Context
			if p.context != nil {
				c = p.context()
			}
			p.header(e.Panel, c)
		case status.KindIdle:
			if payload.Message != "" {
				fmt.Fprintf(p.out, "%s\n", idleStyle.Render(p.clip("-> "+payload.Message)))
			}
		}
	}
}

// PanelHeader prints the banner shown before a panel runs.
func (p *Printer) PanelHeader(id panel.ID, c platform.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.header(id, c)
}

func (p *Printer) header(id panel.ID, c platform.Context) {
	delete(p.streamed, id)

	fmt.Fprintf(p.out, "\n%s\n", headerStyle.Render(strings.ToUpper(string(id))))
	fmt.Fprintf(p.out, "%s\n\n", contextStyle.Render(
		fmt.Sprintf("%s | %d users | %s", c.Feature, c.UserCount, c.Infrastructure)))
}

// Outcome prints the result of a finished task. Content that was already
// streamed is not repeated.
func (p *Printer) Outcome(out lifecycle.Outcome) {
	p.mu.Lock()
	defer p.mu.Unlock()

	streamed := p.streamed[out.Panel]
	delete(p.streamed, out.Panel)
	if streamed {
		fmt.Fprintln(p.out)
	}

	if !out.Succeeded() {
		fmt.Fprintf(p.out, "%s\n", errorStyle.Render(p.clip(fmt.Sprintf("x %s failed: %v", out.Panel, out.Err))))
		return
	}

	if !streamed && out.Output.Markdown != "" {
		fmt.Fprintln(p.out, p.md.Render(out.Output.Markdown))
	}
	if img := out.Output.Image; img != nil {
		fmt.Fprintf(p.out, "%s\n", contextStyle.Render(fmt.Sprintf("[image %s, %d bytes]", img.MIMEType, len(img.Data))))
	}

	summary := out.Output.Summary
	if summary == "" {
		summary = fmt.Sprintf("%s complete", out.Panel)
	}
	fmt.Fprintf(p.out, "%s %s\n", successStyle.Render(p.clip("v "+summary)),
		busyStyle.Render(out.Duration.Round(time.Millisecond).String()))
}

// CycleSummary prints a table of every outcome in a finished rotation.
func (p *Printer) CycleSummary(outcomes []lifecycle.Outcome, total time.Duration, final platform.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()

	var b strings.Builder
	failed := 0
	for i, out := range outcomes {
		mark := "v"
		if !out.Succeeded() {
			mark = "x"
			failed++
		}
		fmt.Fprintf(&b, "%s [%d] %-10s %s\n", mark, i+1, out.Panel, out.Duration.Round(time.Millisecond))
	}
	fmt.Fprintf(&b, "Steps: %d | Failed: %d | Total: %s\n", len(outcomes), failed, total.Round(time.Millisecond))
	fmt.Fprintf(&b, "Context: %s | %d users | %s", final.Feature, final.UserCount, final.Infrastructure)

	fmt.Fprintf(p.out, "\n%s\n", summaryStyle.Render(b.String()))
}

// Text prints a plain line.
func (p *Printer) Text(format string, args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.out, format+"\n", args...)
}

func (p *Printer) clip(s string) string {
	if p.truncate <= 3 || len(s) <= p.truncate {
		return s
	}
	return s[:p.truncate-3] + "..."
}

// FormatData renders structured panel data as sorted "key=value" pairs.
func FormatData(data map[string]any) string {
	if len(data) == 0 {
		return ""
	}
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%+v", k, data[k]))
	}
	return strings.Join(parts, " ")
}
