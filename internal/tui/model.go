// Package tui is the interactive dashboard front end.
//
// The dashboard shows one tab per panel, the shared context, the selected
// panel's output and the status line. It never drives tasks itself: every
// key press becomes a command on the [Controller], and everything it draws
// comes from bus events and task outcomes forwarded into the bubbletea
// message loop.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"adkplatform/internal/config"
	"adkplatform/internal/event"
	"adkplatform/internal/lifecycle"
	"adkplatform/internal/panel"
	"adkplatform/internal/platform"
	"adkplatform/internal/status"
)

// Controller is the interface for the loop commands the dashboard issues.
//
// [lifecycle.Loop] implements this interface.
type Controller interface {
	StartManual(ctx context.Context, id panel.ID, input string) (lifecycle.Outcome, bool, error)
	StartContinuous(ctx context.Context, from panel.ID) (lifecycle.Outcome, bool, error)
	SetContinuousMode(on bool)
	Select(id panel.ID) error
	Stop()
	Snapshot() lifecycle.Snapshot
	OnOutcome(cb lifecycle.OutcomeCallback)
}

// Options configure [New].
type Options struct {
	Loop   Controller
	Bus    *event.Bus
	Panels []panel.ID

	// Context returns the current shared context for the header line.
	Context func() platform.Context

	Markdown config.MarkdownConfig

	// Copy writes to the system clipboard. Defaults to clipboard.WriteAll.
	Copy func(string) error
}

type eventMsg struct{ event event.Event }

type outcomeMsg struct{ outcome lifecycle.Outcome }

type commandDoneMsg struct {
	panel   panel.ID
	started bool
	err     error
}

// panelState is what the dashboard knows about one panel.
type panelState struct {
	body     strings.Builder
	rendered string
	data     map[string]any
	progress event.Progress
	failure  string
	running  bool
	image    string
}

// Model is the bubbletea model of the dashboard.
type Model struct {
	ctx    context.Context
	cancel context.CancelFunc

	loop      Controller
	bus       *event.Bus
	subID     string
	msgs      chan tea.Msg
	done      chan struct{}
	contextFn func() platform.Context
	copy      func(string) error
	markdown  *markdown

	keys     keyMap
	help     help.Model
	spinner  spinner.Model
	viewport viewport.Model
	input    textinput.Model

	panels      []panel.ID
	selected    int
	states      map[panel.ID]*panelState
	highlighted map[string]bool
	status      event.Status
	toast       string
	inputMode   bool
	closed      bool

	width  int
	height int
	ready  bool
}

// New creates the dashboard model and subscribes it to the bus and the
// loop's outcomes.
func New(ctx context.Context, opts Options) *Model {
	ctx, cancel := context.WithCancel(ctx)

	sp := spinner.New(spinner.WithSpinner(spinner.Dot))
	ti := textinput.New()
	ti.Placeholder = "input for the selected panel"
	ti.CharLimit = 500

	m := &Model{
		ctx:         ctx,
		cancel:      cancel,
		loop:        opts.Loop,
		bus:         opts.Bus,
		msgs:        make(chan tea.Msg, 1024),
		done:        make(chan struct{}),
		contextFn:   opts.Context,
		copy:        opts.Copy,
		markdown:    newMarkdown(opts.Markdown),
		keys:        newKeyMap(),
		help:        help.New(),
		spinner:     sp,
		viewport:    viewport.New(0, 0),
		input:       ti,
		panels:      opts.Panels,
		states:      make(map[panel.ID]*panelState),
		highlighted: make(map[string]bool),
		status:      event.Status{Kind: status.KindIdle, Message: "Ready"},
	}
	if m.copy == nil {
		m.copy = clipboard.WriteAll
	}
	if m.contextFn == nil {
		m.contextFn = func() platform.Context { return platform.Context{} }
	}
	for _, id := range m.panels {
		m.states[id] = &panelState{}
	}
	if idx := m.indexOf(m.loop.Snapshot().Current); idx >= 0 {
		m.selected = idx
	}

	if m.bus != nil {
		m.subID = m.bus.SubscribeAll(func(e event.Event) { m.forward(eventMsg{event: e}) })
	}
	m.loop.OnOutcome(func(out lifecycle.Outcome) { m.forward(outcomeMsg{outcome: out}) })
	return m
}

// forward hands a message to the bubbletea loop. Once the dashboard is
// closed, messages are dropped instead of blocking the task goroutine.
func (m *Model) forward(msg tea.Msg) {
	select {
	case m.msgs <- msg:
	case <-m.done:
	}
}

func (m *Model) waitForMsg() tea.Cmd {
	return func() tea.Msg {
		select {
		case msg := <-m.msgs:
			return msg
		case <-m.done:
			return nil
		}
	}
}

// Init implements [tea.Model].
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.waitForMsg())
}

// Update implements [tea.Model].
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.layout()
		m.ready = true
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		if m.inputMode {
			return m, m.handleInputKey(msg)
		}
		return m, m.handleKey(msg)

	case eventMsg:
		m.apply(msg.event)
		m.refresh()
		return m, m.waitForMsg()

	case outcomeMsg:
		m.applyOutcome(msg.outcome)
		m.refresh()
		return m, m.waitForMsg()

	case commandDoneMsg:
		switch {
		case msg.err != nil:
			m.toast = msg.err.Error()
		case !msg.started:
			m.toast = fmt.Sprintf("A task is already running; %s was not started", msg.panel)
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	m.toast = ""

	switch {
	case key.Matches(msg, m.keys.quit):
		m.Close()
		return tea.Quit

	case key.Matches(msg, m.keys.selectPanel):
		idx := int(msg.Runes[0] - '1')
		if idx >= 0 && idx < len(m.panels) {
			m.selectIndex(idx)
		}

	case key.Matches(msg, m.keys.nextPanel):
		if len(m.panels) > 0 {
			m.selectIndex((m.selected + 1) % len(m.panels))
		}

	case key.Matches(msg, m.keys.prevPanel):
		if len(m.panels) > 0 {
			m.selectIndex((m.selected + len(m.panels) - 1) % len(m.panels))
		}

	case key.Matches(msg, m.keys.run):
		return m.runCmd(m.current(), "")

	case key.Matches(msg, m.keys.input):
		m.inputMode = true
		return m.input.Focus()

	case key.Matches(msg, m.keys.autonomous):
		if m.loop.Snapshot().Continuous {
			m.loop.SetContinuousMode(false)
			m.toast = "Autonomous mode off"
			return nil
		}
		m.toast = "Autonomous mode on"
		id := m.current()
		return func() tea.Msg {
			// A busy loop still picks up continuous mode when its task finishes.
			_, _, err := m.loop.StartContinuous(m.ctx, id)
			return commandDoneMsg{panel: id, started: true, err: err}
		}

	case key.Matches(msg, m.keys.stop):
		m.loop.Stop()
		m.toast = "Stopped"

	case key.Matches(msg, m.keys.copy):
		m.copyCurrent()

	case key.Matches(msg, m.keys.help):
		m.help.ShowAll = !m.help.ShowAll
		m.layout()
		m.refresh()

	default:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return cmd
	}
	return nil
}

func (m *Model) handleInputKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyEsc:
		m.inputMode = false
		m.input.Blur()
		m.input.Reset()
		return nil
	case tea.KeyEnter:
		value := strings.TrimSpace(m.input.Value())
		m.inputMode = false
		m.input.Blur()
		m.input.Reset()
		return m.runCmd(m.current(), value)
	case tea.KeyCtrlC:
		m.Close()
		return tea.Quit
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return cmd
}

func (m *Model) runCmd(id panel.ID, input string) tea.Cmd {
	if id == "" {
		return nil
	}
	return func() tea.Msg {
		_, started, err := m.loop.StartManual(m.ctx, id, input)
		return commandDoneMsg{panel: id, started: started, err: err}
	}
}

func (m *Model) selectIndex(idx int) {
	id := m.panels[idx]
	if err := m.loop.Select(id); err != nil {
		m.toast = err.Error()
		return
	}
	m.selected = idx
	m.refresh()
}

func (m *Model) copyCurrent() {
	st := m.states[m.current()]
	if st == nil || strings.TrimSpace(st.body.String()) == "" {
		m.toast = "Nothing to copy yet"
		return
	}
	if err := m.copy(st.body.String()); err != nil {
		m.toast = "Clipboard unavailable"
		return
	}
	m.toast = fmt.Sprintf("Copied %s output to clipboard", m.current())
}

// apply folds a bus event into the panel states.
func (m *Model) apply(e event.Event) {
	st := m.state(e.Panel)

	switch payload := e.Payload.(type) {
	case event.Status:
		m.status = payload
		if payload.Kind == status.KindBusy {
			*st = panelState{running: true}
			clear(m.highlighted)
			if idx := m.indexOf(e.Panel); idx >= 0 {
				m.selected = idx
			}
		}
	case event.Append:
		st.body.WriteString(payload.Chunk)
		st.rendered = ""
	case event.Replace:
		st.body.Reset()
		st.body.WriteString(payload.Content.Markdown)
		st.rendered = ""
		if payload.Content.Data != nil {
			st.data = payload.Content.Data
		}
	case event.Progress:
		st.progress = payload
	case event.Highlight:
		for _, t := range payload.Targets {
			m.highlighted[t] = true
		}
	case event.Failure:
		st.failure = payload.Message
	}
}

// applyOutcome replaces streamed content with the task's final output.
func (m *Model) applyOutcome(out lifecycle.Outcome) {
	st := m.state(out.Panel)
	st.running = false
	if !out.Succeeded() {
		st.failure = out.Err.Error()
		return
	}
	if out.Output.Markdown != "" {
		st.body.Reset()
		st.body.WriteString(out.Output.Markdown)
		st.rendered = ""
	}
	if img := out.Output.Image; img != nil {
		st.image = fmt.Sprintf("[image %s, %d bytes]", img.MIMEType, len(img.Data))
	}
}

func (m *Model) state(id panel.ID) *panelState {
	st, ok := m.states[id]
	if !ok {
		st = &panelState{}
		m.states[id] = st
	}
	return st
}

func (m *Model) current() panel.ID {
	if m.selected < 0 || m.selected >= len(m.panels) {
		return ""
	}
	return m.panels[m.selected]
}

func (m *Model) indexOf(id panel.ID) int {
	for i, p := range m.panels {
		if p == id {
			return i
		}
	}
	return -1
}

// Close stops the loop and detaches the dashboard. Safe to call twice.
func (m *Model) Close() {
	if m.closed {
		return
	}
	m.closed = true
	m.loop.Stop()
	m.cancel()
	close(m.done)
	if m.bus != nil && m.subID != "" {
		m.bus.Unsubscribe(m.subID)
	}
}

// Run starts the dashboard and blocks until the user quits.
func Run(ctx context.Context, opts Options) error {
	m := New(ctx, opts)
	defer m.Close()

	_, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	return err
}
