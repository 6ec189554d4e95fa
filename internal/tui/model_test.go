package tui

import (
	"context"
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adkplatform/internal/action"
	"adkplatform/internal/config"
	"adkplatform/internal/event"
	"adkplatform/internal/lifecycle"
	"adkplatform/internal/panel"
	"adkplatform/internal/platform"
	"adkplatform/internal/router"
)

type harness struct {
	model  *Model
	loop   *lifecycle.Loop
	bus    *event.Bus
	inputs chan string
	copied []string
}

func newHarness(t *testing.T, ideTask panel.Task) *harness {
	t.Helper()
	log, _ := test.NewNullLogger()

	h := &harness{inputs: make(chan string, 10)}
	if ideTask == nil {
		ideTask = panel.TaskFunc(func(ctx context.Context, env panel.Env) (panel.Output, error) {
			h.inputs <- env.Input
			env.Updates.Append("generating...")
			return panel.Output{Content: panel.Content{Markdown: "# Done"}, Summary: "IDE finished"}, nil
		})
	}

	reg := panel.NewRegistry()
	require.NoError(t, reg.Register(panel.IDE, ideTask))
	require.NoError(t, reg.Register(panel.CRM, panel.TaskFunc(func(ctx context.Context, env panel.Env) (panel.Output, error) {
		return panel.Output{Summary: "CRM finished"}, nil
	})))

	rt, err := router.New([]router.Transition{
		{Panel: panel.IDE, Next: panel.CRM, Message: "Selling it"},
		{Panel: panel.CRM, Next: panel.IDE, Message: "Building it"},
	})
	require.NoError(t, err)

	h.bus = event.NewBus(log)
	store := platform.NewStore(platform.Context{Feature: "Tokenized Real Estate", UserCount: 1000, Infrastructure: "Single VM"})
	h.loop, err = lifecycle.New(lifecycle.Config{
		Registry: reg,
		Router:   rt,
		Store:    store,
		Executor: &action.MockExecutor{},
		Bus:      h.bus,
		Delay:    time.Hour,
		Log:      log,
	})
	require.NoError(t, err)

	h.model = New(context.Background(), Options{
		Loop:     h.loop,
		Bus:      h.bus,
		Panels:   reg.IDs(),
		Context:  store.Get,
		Markdown: config.MarkdownConfig{},
		Copy: func(s string) error {
			h.copied = append(h.copied, s)
			return nil
		},
	})
	t.Cleanup(h.model.Close)

	h.model.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return h
}

func keyPress(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// press sends a key and runs the resulting command synchronously, feeding
// its message back into the model.
func (h *harness) press(s string) tea.Cmd {
	_, cmd := h.model.Update(keyPress(s))
	if cmd == nil || (s == "i" && h.model.inputMode) {
		// Focusing the input returns a cursor blink command; nothing to run.
		return cmd
	}
	if msg, ok := cmd().(commandDoneMsg); ok {
		h.model.Update(msg)
	}
	return cmd
}

// drain delivers every forwarded bus event and outcome to the model.
func (h *harness) drain() {
	for {
		select {
		case msg := <-h.model.msgs:
			h.model.Update(msg)
		default:
			return
		}
	}
}

func TestModel_ViewBeforeWindowSize(t *testing.T) {
	log, _ := test.NewNullLogger()
	h := newHarness(t, nil)
	m := New(context.Background(), Options{Loop: h.loop, Bus: event.NewBus(log), Panels: []panel.ID{panel.IDE}})
	defer m.Close()

	assert.Equal(t, "Loading dashboard...", m.View())
}

func TestModel_SelectKey(t *testing.T) {
	h := newHarness(t, nil)

	h.press("2")

	assert.Equal(t, panel.CRM, h.model.current())
	assert.Equal(t, panel.CRM, h.loop.Current())
	assert.Contains(t, h.model.View(), "2 crm")

	h.press("9")
	assert.Equal(t, panel.CRM, h.model.current(), "out of range selections are ignored")

	h.press("l")
	assert.Equal(t, panel.IDE, h.model.current())
}

func TestModel_RunShowsFinalOutput(t *testing.T) {
	h := newHarness(t, nil)

	h.press("enter")
	h.drain()

	st := h.model.states[panel.IDE]
	assert.False(t, st.running)
	assert.Equal(t, "# Done", st.body.String())
	assert.Equal(t, "IDE finished", h.model.status.Message)

	view := h.model.View()
	assert.Contains(t, view, "# Done")
	assert.Contains(t, view, "Tokenized Real Estate | 1000 users | Single VM | manual | idle")
}

func TestModel_InputModePassesInput(t *testing.T) {
	h := newHarness(t, nil)

	h.press("i")
	require.True(t, h.model.inputMode)
	for _, r := range "make it blue" {
		h.model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	h.press("enter")

	assert.False(t, h.model.inputMode)
	assert.Equal(t, "make it blue", <-h.inputs)
}

func TestModel_InputModeEscCancels(t *testing.T) {
	h := newHarness(t, nil)

	h.press("i")
	h.model.Update(keyPress("x"))
	h.press("esc")

	assert.False(t, h.model.inputMode)
	assert.Empty(t, h.model.input.Value())
	assert.Empty(t, h.inputs)
}

func TestModel_Copy(t *testing.T) {
	h := newHarness(t, nil)

	h.press("y")
	assert.Equal(t, "Nothing to copy yet", h.model.toast)

	h.press("enter")
	h.drain()
	h.press("y")

	assert.Equal(t, []string{"# Done"}, h.copied)
	assert.Equal(t, "Copied ide output to clipboard", h.model.toast)

	h.model.copy = func(string) error { return errors.New("no display") }
	h.press("y")
	assert.Equal(t, "Clipboard unavailable", h.model.toast)
}

func TestModel_AutonomousToggle(t *testing.T) {
	h := newHarness(t, nil)

	h.press("a")
	h.drain()

	snap := h.loop.Snapshot()
	assert.True(t, snap.Continuous)
	assert.Equal(t, lifecycle.StateAwaitingTransition, snap.State)
	assert.Equal(t, panel.CRM, snap.Next)
	assert.Equal(t, "Selling it", h.model.status.Message)
	assert.Contains(t, h.model.View(), "autonomous")

	h.press("a")

	snap = h.loop.Snapshot()
	assert.False(t, snap.Continuous)
	assert.Equal(t, lifecycle.StateIdle, snap.State)
	assert.Equal(t, "Autonomous mode off", h.model.toast)
}

func TestModel_StopKey(t *testing.T) {
	h := newHarness(t, nil)

	h.press("a")
	h.press("s")
	h.drain()

	assert.Equal(t, lifecycle.StateStopped, h.loop.State())
	assert.Equal(t, "Stopped", h.model.status.Message)
}

func TestModel_HighlightMarksTabs(t *testing.T) {
	h := newHarness(t, nil)

	h.bus.Publish(event.NewHighlight(panel.Terminal, []string{"crm"}))
	h.drain()
	assert.True(t, h.model.highlighted["crm"])

	h.press("enter")
	h.drain()
	assert.Empty(t, h.model.highlighted, "highlights reset when the next task starts")
}

func TestModel_FailureIsShown(t *testing.T) {
	h := newHarness(t, panel.TaskFunc(func(ctx context.Context, env panel.Env) (panel.Output, error) {
		env.Updates.Append("partial")
		return panel.Output{}, action.NewFailure(action.KindRateLimited, action.CapabilityText, nil)
	}))

	h.press("enter")
	h.drain()

	st := h.model.states[panel.IDE]
	assert.Equal(t, "partial", st.body.String())
	assert.Contains(t, st.failure, "rate limited")
	assert.Contains(t, h.model.View(), "x text: rate limited")
}

func TestModel_SelectWhileBusy(t *testing.T) {
	release := make(chan struct{})
	h := newHarness(t, panel.TaskFunc(func(ctx context.Context, env panel.Env) (panel.Output, error) {
		<-release
		return panel.Output{}, nil
	}))

	_, cmd := h.model.Update(keyPress("enter"))
	done := make(chan tea.Msg, 1)
	go func() { done <- cmd() }()
	require.Eventually(t, func() bool { return h.loop.Snapshot().Running }, time.Second, 5*time.Millisecond)

	h.press("2")
	assert.Equal(t, lifecycle.ErrBusy.Error(), h.model.toast)
	assert.Equal(t, panel.IDE, h.model.current())

	h.press("enter")
	assert.Contains(t, h.model.toast, "already running")

	close(release)
	msg := <-done
	assert.True(t, msg.(commandDoneMsg).started)
}

func TestModel_QuitClosesEverything(t *testing.T) {
	h := newHarness(t, nil)
	require.Equal(t, 1, h.bus.SubscriptionCount())

	_, cmd := h.model.Update(keyPress("q"))

	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.True(t, h.model.closed)
	assert.Equal(t, 0, h.bus.SubscriptionCount())
	assert.Equal(t, lifecycle.StateStopped, h.loop.State())

	// Events after close are dropped, not blocked on.
	h.bus.Publish(event.NewAppend(panel.IDE, "late"))
}

func TestModel_HelpToggle(t *testing.T) {
	h := newHarness(t, nil)
	before := h.model.viewport.Height

	h.press("?")

	assert.True(t, h.model.help.ShowAll)
	assert.Less(t, h.model.viewport.Height, before)
}
