package output

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adkplatform/internal/action"
	"adkplatform/internal/config"
	"adkplatform/internal/event"
	"adkplatform/internal/lifecycle"
	"adkplatform/internal/panel"
	"adkplatform/internal/platform"
	"adkplatform/internal/status"
)

func plainConfig() config.OutputConfig {
	return config.OutputConfig{TruncateLength: 100}
}

func newTestPrinter() (*Printer, *bytes.Buffer) {
	var buf bytes.Buffer
	return NewPrinterWithWriter(&buf, plainConfig()), &buf
}

func TestPrinter_StreamedChunksAreWrittenInOrder(t *testing.T) {
	p, buf := newTestPrinter()

	p.Handle(event.NewAppend(panel.Terminal, "INFO one\n"))
	p.Handle(event.NewAppend(panel.Terminal, "INFO two\n"))

	assert.Equal(t, "INFO one\nINFO two\n", buf.String())
}

func TestPrinter_StreamedContentIsNotRepeated(t *testing.T) {
	p, buf := newTestPrinter()

	p.Handle(event.NewAppend(panel.Marketing, "# Launch"))
	p.Outcome(lifecycle.Outcome{
		Panel:  panel.Marketing,
		Output: panel.Output{Content: panel.Content{Markdown: "# Launch"}, Summary: "Campaign ready"},
	})

	assert.Equal(t, 1, strings.Count(buf.String(), "# Launch"))
	assert.Contains(t, buf.String(), "v Campaign ready")
}

func TestPrinter_NonStreamedMarkdownIsPrintedOnOutcome(t *testing.T) {
	p, buf := newTestPrinter()

	p.Outcome(lifecycle.Outcome{
		Panel:    panel.Deploy,
		Output:   panel.Output{Content: panel.Content{Markdown: "Release v2"}},
		Duration: 1500 * time.Millisecond,
	})

	out := buf.String()
	assert.Contains(t, out, "Release v2")
	assert.Contains(t, out, "deploy complete")
	assert.Contains(t, out, "1.5s")
}

func TestPrinter_RendersMarkdownWhenEnabled(t *testing.T) {
	var buf bytes.Buffer
	cfg := config.DefaultConfig().Output
	cfg.Markdown.Style = "notty"
	p := NewPrinterWithWriter(&buf, cfg)

	p.Outcome(lifecycle.Outcome{
		Panel:  panel.Deploy,
		Output: panel.Output{Content: panel.Content{Markdown: "# Release\n\nAll **green**."}},
	})

	assert.Contains(t, buf.String(), "Release")
	assert.Contains(t, buf.String(), "green")
}

func TestPrinter_FailureOutcome(t *testing.T) {
	p, buf := newTestPrinter()

	p.Outcome(lifecycle.Outcome{
		Panel: panel.CRM,
		Err:   action.NewFailure(action.KindRateLimited, action.CapabilityStructuredText, nil),
	})

	assert.Contains(t, buf.String(), "x crm failed: structuredText: rate limited")
}

func TestPrinter_ImageOutcome(t *testing.T) {
	p, buf := newTestPrinter()

	p.Outcome(lifecycle.Outcome{
		Panel: panel.Image,
		Output: panel.Output{
			Content: panel.Content{Image: &action.Attachment{Data: []byte{1, 2, 3}, MIMEType: "image/png"}},
			Summary: "Generated visual",
		},
	})

	assert.Contains(t, buf.String(), "[image image/png, 3 bytes]")
}

func TestPrinter_ProgressHighlightAndData(t *testing.T) {
	p, buf := newTestPrinter()

	p.Handle(event.NewProgress(panel.Deploy, "Canary", 60))
	p.Handle(event.NewHighlight(panel.Terminal, []string{"crm", "deploy"}))
	p.Handle(event.NewReplace(panel.CRM, panel.Content{Data: map[string]any{"leads": 100, "customers": 20}}))

	out := buf.String()
	assert.Contains(t, out, "[ 60%] Canary")
	assert.Contains(t, out, ">> crm, deploy")
	assert.Contains(t, out, "customers=20 leads=100")
}

func TestPrinter_BusyStatusPrintsHeaderWithContext(t *testing.T) {
	p, buf := newTestPrinter()
	p.SetContextSource(func() platform.Context {
		return platform.Context{Feature: "Green Bonds", UserCount: 1200, Infrastructure: "Kubernetes"}
	})

	p.Handle(event.NewStatus(panel.IDE, status.KindBusy, "Running ide"))
	p.Handle(event.NewStatus(panel.IDE, status.KindSuccess, "done"))
	p.Handle(event.NewStatus(panel.Deploy, status.KindIdle, "Shipping it"))

	out := buf.String()
	assert.Contains(t, out, "IDE")
	assert.Contains(t, out, "Green Bonds | 1200 users | Kubernetes")
	assert.NotContains(t, out, "done")
	assert.Contains(t, out, "-> Shipping it")
}

func TestPrinter_AttachReceivesBusEvents(t *testing.T) {
	log, _ := test.NewNullLogger()
	bus := event.NewBus(log)
	p, buf := newTestPrinter()

	id := p.Attach(bus)
	bus.Publish(event.NewAppend(panel.Terminal, "hello"))
	require.True(t, bus.Unsubscribe(id))
	bus.Publish(event.NewAppend(panel.Terminal, "ignored"))

	assert.Equal(t, "hello", buf.String())
}

func TestPrinter_CycleSummary(t *testing.T) {
	p, buf := newTestPrinter()

	p.CycleSummary([]lifecycle.Outcome{
		{Panel: panel.IDE, Duration: time.Second},
		{Panel: panel.Deploy, Err: errors.New("boom")},
	}, 3*time.Second, platform.Context{Feature: "X", UserCount: 1010, Infrastructure: "VM"})

	out := buf.String()
	assert.Contains(t, out, "v [1] ide")
	assert.Contains(t, out, "x [2] deploy")
	assert.Contains(t, out, "Steps: 2 | Failed: 1 | Total: 3s")
	assert.Contains(t, out, "X | 1010 users | VM")
}

func TestPrinter_Clip(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinterWithWriter(&buf, config.OutputConfig{TruncateLength: 10})

	assert.Equal(t, "short", p.clip("short"))
	assert.Equal(t, "abcdefg...", p.clip("abcdefghijklmnop"))
}
