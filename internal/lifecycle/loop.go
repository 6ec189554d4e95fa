// Package lifecycle drives panel tasks, one at a time, either on demand or in
// an unattended rotation.
//
// The [Loop] owns the run state: whether a task is in flight, whether
// continuous mode is on, the current panel, and the pending transition
// timer. Front ends only talk to it through its command methods
// ([Loop.StartManual], [Loop.StartContinuous], [Loop.SetContinuousMode],
// [Loop.Select], [Loop.Stop]) and observe it through the event bus, the
// status reporter and [Loop.Snapshot].
//
// Key concepts:
//   - At most one task runs at a time. A start request while a task is
//     running is ignored.
//   - A task's context mutation is applied only if the task succeeds.
//   - In continuous mode, a finished task (successful or not) schedules the
//     next panel from the [router.Router] after a fixed delay. Continuous
//     mode is re-checked when the timer fires, so disabling it in the
//     meantime cancels the rotation.
//   - Stop does not abort a task already in flight. The task finishes and
//     reports its outcome, but no further transition is scheduled.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"adkplatform/internal/action"
	"adkplatform/internal/event"
	"adkplatform/internal/panel"
	"adkplatform/internal/platform"
	"adkplatform/internal/router"
	"adkplatform/internal/status"
)

// ErrBusy is returned by commands that cannot be applied while a task runs.
var ErrBusy = errors.New("a panel task is already running")

// State is the externally visible state of the [Loop].
type State string

// Loop states.
const (
	StateIdle               State = "idle"
	StateRunning            State = "running"
	StateAwaitingTransition State = "awaiting_transition"
	StateStopped            State = "stopped"
)

// DefaultDelay is the pause between rotation steps when none is configured.
const DefaultDelay = 5 * time.Second

// StatusReporter is the interface for publishing the user-visible status.
//
// [status.Reporter] implements this interface.
type StatusReporter interface {
	Report(r status.Report)
}

// OutcomeCallback is invoked after every task finishes, once the loop has
// decided what happens next. It runs on the goroutine that ran the task and
// may call back into the loop.
type OutcomeCallback func(Outcome)

// Outcome is the result of one task run.
type Outcome struct {
	Panel    panel.ID
	Output   panel.Output
	Err      error
	Duration time.Duration
}

// Succeeded returns true if the task completed without error.
func (o Outcome) Succeeded() bool {
	return o.Err == nil
}

// Snapshot is a point-in-time copy of the run state.
type Snapshot struct {
	State      State
	Current    panel.ID
	Next       panel.ID
	Running    bool
	Continuous bool
	Delay      time.Duration
}

// Config holds the dependencies of a [Loop]. Registry, Router, Store and
// Executor are required.
type Config struct {
	Registry *panel.Registry
	Router   *router.Router
	Store    *platform.Store
	Executor action.Executor

	// Status defaults to a fresh [status.Reporter].
	Status StatusReporter

	// Bus defaults to a bus with no subscribers.
	Bus *event.Bus

	// Start is the initially selected panel. Defaults to the first
	// registered panel.
	Start panel.ID

	// Delay is the pause before each rotation step. Zero means
	// [DefaultDelay]; use a negative value for no delay.
	Delay time.Duration

	// Rand drives growth mutations. Defaults to math/rand/v2.
	Rand router.Rand

	Log logrus.FieldLogger
}

// Loop is the orchestration state machine.
type Loop struct {
	registry *panel.Registry
	router   *router.Router
	store    *platform.Store
	executor action.Executor
	status   StatusReporter
	bus      *event.Bus
	rng      router.Rand
	delay    time.Duration
	log      logrus.FieldLogger

	mu         sync.Mutex
	state      State
	current    panel.ID
	next       panel.ID
	running    bool
	continuous bool
	timer      *time.Timer
	pending    uint64 // token of the armed timer, 0 when none
	seq        uint64
	epoch      uint64 // incremented by Stop
	baseCtx    context.Context
	callbacks  []OutcomeCallback
	active     sync.WaitGroup // one count per claimed run, released after callbacks
}

type globalRand struct{}

func (globalRand) IntN(n int) int { return rand.IntN(n) }

// New creates a [Loop] and validates the rotation against the registry.
func New(cfg Config) (*Loop, error) {
	if cfg.Registry == nil || cfg.Router == nil || cfg.Store == nil || cfg.Executor == nil {
		return nil, errors.New("lifecycle: registry, router, store and executor are required")
	}

	l := &Loop{
		registry: cfg.Registry,
		router:   cfg.Router,
		store:    cfg.Store,
		executor: cfg.Executor,
		status:   cfg.Status,
		bus:      cfg.Bus,
		rng:      cfg.Rand,
		delay:    cfg.Delay,
		log:      cfg.Log,
		state:    StateIdle,
		current:  cfg.Start,
		baseCtx:  context.Background(),
	}
	if l.log == nil {
		l.log = logrus.StandardLogger()
	}
	if l.status == nil {
		l.status = status.NewReporter()
	}
	if l.bus == nil {
		l.bus = event.NewBus(l.log)
	}
	if l.rng == nil {
		l.rng = globalRand{}
	}
	switch {
	case l.delay == 0:
		l.delay = DefaultDelay
	case l.delay < 0:
		l.delay = 0
	}
	if l.current == "" {
		ids := l.registry.IDs()
		if len(ids) == 0 {
			return nil, errors.New("lifecycle: no panels registered")
		}
		l.current = ids[0]
	}

	if err := l.router.Validate(l.registry, l.current); err != nil {
		return nil, fmt.Errorf("invalid rotation: %w", err)
	}
	return l, nil
}

// Bus returns the event bus the loop publishes to.
func (l *Loop) Bus() *event.Bus {
	return l.bus
}

// Store returns the shared context store.
func (l *Loop) Store() *platform.Store {
	return l.store
}

// OnOutcome registers cb to be called after every task run.
func (l *Loop) OnOutcome(cb OutcomeCallback) {
	if cb == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.callbacks = append(l.callbacks, cb)
}

// Snapshot returns a copy of the current run state.
func (l *Loop) Snapshot() Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	return Snapshot{
		State:      l.state,
		Current:    l.current,
		Next:       l.next,
		Running:    l.running,
		Continuous: l.continuous,
		Delay:      l.delay,
	}
}

// State returns the current loop state.
func (l *Loop) State() State {
	return l.Snapshot().State
}

// Current returns the currently selected panel.
func (l *Loop) Current() panel.ID {
	return l.Snapshot().Current
}

// Select makes id the current panel without running it.
//
// Returns [panel.ErrUnknownPanel] for unregistered panels and [ErrBusy]
// while a task is running.
func (l *Loop) Select(id panel.ID) error {
	if !l.registry.Has(id) {
		return fmt.Errorf("%w: %s", panel.ErrUnknownPanel, id)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.running {
		return ErrBusy
	}
	l.current = id
	return nil
}

// StartManual runs the task for id once and returns its outcome.
//
// If a task is already running the call is a no-op and started is false.
// A pending rotation step is cancelled and replaced by this run; if
// continuous mode is on, the rotation resumes from id once it finishes.
// Returns [panel.ErrUnknownPanel] if id is not registered.
func (l *Loop) StartManual(ctx context.Context, id panel.ID, input string) (out Outcome, started bool, err error) {
	task, err := l.registry.Resolve(id)
	if err != nil {
		return Outcome{}, false, err
	}

	l.mu.Lock()
	if l.baseCtx.Err() != nil {
		l.baseCtx = ctx
	}
	epoch, ok := l.beginLocked(id)
	l.mu.Unlock()
	if !ok {
		l.log.WithField("panel", id).Debug("start ignored: task already running")
		return Outcome{}, false, nil
	}

	out = l.run(ctx, id, task, input)
	l.finish(out, epoch)
	return out, true, nil
}

// StartContinuous enables continuous mode and runs from, or the current
// panel when from is empty. ctx bounds the whole rotation: once it is done
// no further steps are scheduled. The first step runs synchronously.
func (l *Loop) StartContinuous(ctx context.Context, from panel.ID) (Outcome, bool, error) {
	if from == "" {
		from = l.Current()
	}
	if !l.registry.Has(from) {
		return Outcome{}, false, fmt.Errorf("%w: %s", panel.ErrUnknownPanel, from)
	}

	l.mu.Lock()
	l.continuous = true
	l.baseCtx = ctx
	l.mu.Unlock()

	return l.StartManual(ctx, from, "")
}

// SetContinuousMode turns the rotation on or off.
//
// Turning it on takes effect when the current or next task finishes.
// Turning it off cancels a pending rotation step.
func (l *Loop) SetContinuousMode(on bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.continuous = on
	l.log.WithField("continuous", on).Debug("continuous mode changed")
	if on {
		return
	}
	if l.cancelTimerLocked() {
		l.state = StateIdle
		l.next = ""
	}
}

// Stop disables continuous mode and cancels any pending rotation step.
//
// A task already in flight is not interrupted; it runs to completion and
// reports its outcome, after which the loop stays stopped. The stop is
// published on the bus only, so the reporter keeps the outcome of the last
// task. A later start binds the rotation to its own context.
func (l *Loop) Stop() {
	l.mu.Lock()
	l.continuous = false
	l.epoch++
	l.cancelTimerLocked()
	l.next = ""
	if !l.running {
		l.state = StateStopped
	}
	l.baseCtx = context.Background()
	current := l.current
	l.mu.Unlock()

	l.log.WithField("panel", current).Debug("loop stopped")
	l.bus.Publish(event.NewStatus(current, status.KindIdle, "Stopped"))
}

// Wait blocks until the task in flight, if any, has finished and its outcome
// callbacks have returned. Call it after [Loop.Stop] to be sure nothing else
// is reported. It must not be called from an outcome callback.
func (l *Loop) Wait() {
	l.active.Wait()
}

// beginLocked claims the single run slot for id. l.mu must be held.
func (l *Loop) beginLocked(id panel.ID) (epoch uint64, ok bool) {
	if l.running {
		return 0, false
	}
	l.cancelTimerLocked()
	l.active.Add(1)
	l.running = true
	l.current = id
	l.next = ""
	l.state = StateRunning
	l.log.WithFields(logrus.Fields{"panel": id, "state": l.state}).Debug("state changed")
	return l.epoch, true
}

// cancelTimerLocked disarms the pending rotation step, if any.
func (l *Loop) cancelTimerLocked() bool {
	if l.pending == 0 {
		return false
	}
	if l.timer != nil {
		l.timer.Stop()
	}
	l.timer = nil
	l.pending = 0
	return true
}

// run executes one task and normalizes its result. Panics become failures.
func (l *Loop) run(ctx context.Context, id panel.ID, task panel.Task, input string) (out Outcome) {
	start := time.Now()
	out.Panel = id
	l.report(id, status.KindBusy, fmt.Sprintf("Running %s", id))

	defer func() {
		if r := recover(); r != nil {
			out.Err = fmt.Errorf("panel %s panicked: %v", id, r)
		}
		out.Duration = time.Since(start)
	}()

	env := panel.Env{
		Panel:    id,
		Context:  l.store.Get(),
		Input:    input,
		Executor: l.executor,
		Updates:  event.Sink{Bus: l.bus, Panel: id},
	}
	output, err := task.Run(ctx, env)
	if err != nil {
		out.Err = err
		return out
	}
	out.Output = output

	if err := l.store.Update(output.Mutation); err != nil {
		out.Err = err
	}
	return out
}

// finish reports the outcome and, in continuous mode, schedules the next step.
func (l *Loop) finish(out Outcome, epoch uint64) {
	defer l.active.Done()

	fields := logrus.Fields{"panel": out.Panel, "duration": out.Duration}
	if out.Err != nil {
		reason := "task_failed"
		if kind, ok := action.KindOf(out.Err); ok {
			reason = string(kind)
		}
		l.log.WithFields(fields).WithField("kind", reason).Warnf("panel task failed: %v", out.Err)
		l.bus.Publish(event.NewFailure(out.Panel, reason, out.Err))
		l.report(out.Panel, status.KindError, out.Err.Error())
	} else {
		l.log.WithFields(fields).Info("panel task completed")
		msg := out.Output.Summary
		if msg == "" {
			msg = fmt.Sprintf("%s complete", out.Panel)
		}
		l.report(out.Panel, status.KindSuccess, msg)
	}

	l.mu.Lock()
	l.running = false
	transition, scheduled := l.scheduleLocked(out, epoch)
	callbacks := append([]OutcomeCallback(nil), l.callbacks...)
	l.mu.Unlock()

	if scheduled {
		l.bus.Publish(event.NewStatus(transition.Next, status.KindIdle, transition.Message))
	}
	for _, cb := range callbacks {
		cb(out)
	}
}

// scheduleLocked moves to AwaitingTransition when the rotation continues,
// or to Idle/Stopped otherwise. l.mu must be held.
func (l *Loop) scheduleLocked(out Outcome, epoch uint64) (router.Transition, bool) {
	switch {
	case epoch != l.epoch:
		l.state = StateStopped
		return router.Transition{}, false
	case !l.continuous:
		l.state = StateIdle
		return router.Transition{}, false
	case l.baseCtx.Err() != nil:
		l.continuous = false
		l.state = StateIdle
		return router.Transition{}, false
	}

	t, err := l.router.Next(out.Panel)
	if err != nil {
		l.log.WithField("panel", out.Panel).Errorf("rotation halted: %v", err)
		l.continuous = false
		l.state = StateIdle
		return router.Transition{}, false
	}

	// A failed task leaves the context untouched but the rotation still advances.
	if out.Err == nil {
		if err := l.store.Update(t.Mutation.Bind(l.rng)); err != nil {
			l.log.WithField("panel", out.Panel).Warnf("transition mutation rejected: %v", err)
		}
	}

	l.seq++
	token := l.seq
	l.pending = token
	l.next = t.Next
	l.state = StateAwaitingTransition
	l.timer = time.AfterFunc(l.delay, func() { l.fire(token) })

	l.log.WithFields(logrus.Fields{
		"panel":    out.Panel,
		"next":     t.Next,
		"mutation": t.Mutation.String(),
		"delay":    l.delay,
		"state":    l.state,
	}).Debug("state changed")
	return t, true
}

// fire runs the scheduled step unless it was cancelled in the meantime.
func (l *Loop) fire(token uint64) {
	l.mu.Lock()
	if l.pending != token || !l.continuous || l.state != StateAwaitingTransition {
		l.mu.Unlock()
		return
	}
	l.pending = 0
	l.timer = nil
	ctx := l.baseCtx
	next := l.next

	if ctx.Err() != nil {
		l.continuous = false
		l.state = StateIdle
		l.next = ""
		l.mu.Unlock()
		return
	}

	task, err := l.registry.Resolve(next)
	if err != nil {
		l.continuous = false
		l.state = StateIdle
		l.mu.Unlock()
		l.log.WithField("panel", next).Errorf("rotation halted: %v", err)
		return
	}
	epoch, ok := l.beginLocked(next)
	l.mu.Unlock()
	if !ok {
		return
	}

	out := l.run(ctx, next, task, "")
	l.finish(out, epoch)
}

func (l *Loop) report(p panel.ID, kind status.Kind, msg string) {
	l.status.Report(status.Report{Kind: kind, Message: msg, Panel: p})
	l.bus.Publish(event.NewStatus(p, kind, msg))
}
