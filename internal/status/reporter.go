// Package status tracks the single user-visible status line of the platform.
//
// The [Reporter] holds the most recent [Report] and a bounded history.
// The orchestration loop reports Busy when a task starts and Success or Error
// when it finishes, so [Reporter.Current] always reflects the true outcome of
// the last task. Idle is the state on startup.
package status

import (
	"slices"
	"sync"
	"time"

	"adkplatform/internal/panel"
)

// Kind classifies a status report.
type Kind string

// Status kinds.
const (
	KindIdle    Kind = "idle"
	KindBusy    Kind = "busy"
	KindSuccess Kind = "success"
	KindError   Kind = "error"
)

// IsValid returns true if k is one of the defined kinds.
func (k Kind) IsValid() bool {
	switch k {
	case KindIdle, KindBusy, KindSuccess, KindError:
		return true
	default:
		return false
	}
}

// Report is a single status update.
type Report struct {
	Kind    Kind
	Message string

	// Panel is the panel the report refers to. Empty for global reports.
	Panel panel.ID

	// At is filled in by the reporter when zero.
	At time.Time
}

// DefaultHistoryLimit is the number of reports kept by [NewReporter].
const DefaultHistoryLimit = 50

// Reporter records status reports and notifies listeners.
//
// Reporter is safe for concurrent use. Listeners run synchronously on the
// reporting goroutine, after the reporter's lock has been released.
type Reporter struct {
	mu        sync.Mutex
	current   Report
	history   []Report
	limit     int
	listeners []func(Report)
	now       func() time.Time
}

// Option configures a [Reporter].
type Option func(*Reporter)

// WithHistoryLimit sets how many past reports are retained.
// Zero disables history.
func WithHistoryLimit(n int) Option {
	return func(r *Reporter) {
		if n >= 0 {
			r.limit = n
		}
	}
}

// WithClock overrides the time source used to stamp reports.
func WithClock(now func() time.Time) Option {
	return func(r *Reporter) {
		r.now = now
	}
}

// NewReporter creates a [Reporter] whose current status is Idle.
func NewReporter(opts ...Option) *Reporter {
	r := &Reporter{
		limit: DefaultHistoryLimit,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.current = Report{Kind: KindIdle, Message: "Ready", At: r.now()}
	return r
}

// Report replaces the current status and notifies listeners.
// Reports with an invalid kind are recorded as errors.
func (r *Reporter) Report(rep Report) {
	if !rep.Kind.IsValid() {
		rep.Kind = KindError
	}

	r.mu.Lock()
	if rep.At.IsZero() {
		rep.At = r.now()
	}
	r.current = rep
	if r.limit > 0 {
		r.history = append(r.history, rep)
		if over := len(r.history) - r.limit; over > 0 {
			r.history = append(r.history[:0:0], r.history[over:]...)
		}
	}
	listeners := slices.Clone(r.listeners)
	r.mu.Unlock()

	for _, fn := range listeners {
		fn(rep)
	}
}

// Current returns the most recent report.
func (r *Reporter) Current() Report {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// History returns retained reports, oldest first.
func (r *Reporter) History() []Report {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Report(nil), r.history...)
}

// OnReport registers fn to be called for every subsequent report.
func (r *Reporter) OnReport(fn func(Report)) {
	if fn == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listeners = append(r.listeners, fn)
}
