package event

import (
	"time"

	"adkplatform/internal/panel"
	"adkplatform/internal/status"
)

// Kind identifies the category of an [Event].
type Kind string

// Event kinds.
const (
	ContentUpdate Kind = "content"
	StatusUpdate  Kind = "status"
	Error         Kind = "error"
)

// Event is a single rendering event for one panel.
type Event struct {
	Panel   panel.ID
	Kind    Kind
	Payload any
	At      time.Time
}

// Append adds a chunk to the end of the panel's streaming output.
type Append struct {
	Chunk string
}

// Replace sets the panel's whole content.
type Replace struct {
	Content panel.Content
}

// Progress reports a named step and overall completion percentage.
type Progress struct {
	Step    string
	Percent int
}

// Highlight asks the front end to emphasize the named UI targets.
type Highlight struct {
	Targets []string
}

// Status mirrors a status line change.
type Status struct {
	Kind    status.Kind
	Message string
}

// Failure describes a failed task.
type Failure struct {
	// Reason is the failure kind when known (e.g. "rate_limited").
	Reason  string
	Message string
	Err     error
}

func newEvent(p panel.ID, kind Kind, payload any) Event {
	return Event{Panel: p, Kind: kind, Payload: payload, At: time.Now()}
}

// NewAppend creates a ContentUpdate carrying an [Append].
func NewAppend(p panel.ID, chunk string) Event {
	return newEvent(p, ContentUpdate, Append{Chunk: chunk})
}

// NewReplace creates a ContentUpdate carrying a [Replace].
func NewReplace(p panel.ID, c panel.Content) Event {
	return newEvent(p, ContentUpdate, Replace{Content: c})
}

// NewProgress creates a ContentUpdate carrying a [Progress].
func NewProgress(p panel.ID, step string, percent int) Event {
	return newEvent(p, ContentUpdate, Progress{Step: step, Percent: percent})
}

// NewHighlight creates a ContentUpdate carrying a [Highlight].
func NewHighlight(p panel.ID, targets []string) Event {
	return newEvent(p, ContentUpdate, Highlight{Targets: targets})
}

// NewStatus creates a StatusUpdate.
func NewStatus(p panel.ID, kind status.Kind, message string) Event {
	return newEvent(p, StatusUpdate, Status{Kind: kind, Message: message})
}

// NewFailure creates an Error event.
func NewFailure(p panel.ID, reason string, err error) Event {
	f := Failure{Reason: reason, Err: err}
	if err != nil {
		f.Message = err.Error()
	}
	return newEvent(p, Error, f)
}

// Sink adapts a [Bus] to [panel.Updates] for a single panel, so a task's
// incremental output becomes ContentUpdate events.
type Sink struct {
	Bus   *Bus
	Panel panel.ID
}

var _ panel.Updates = Sink{}

// Append publishes an [Append].
func (s Sink) Append(chunk string) {
	s.Bus.Publish(NewAppend(s.Panel, chunk))
}

// Replace publishes a [Replace].
func (s Sink) Replace(c panel.Content) {
	s.Bus.Publish(NewReplace(s.Panel, c))
}

// Progress publishes a [Progress].
func (s Sink) Progress(step string, percent int) {
	s.Bus.Publish(NewProgress(s.Panel, step, percent))
}

// Highlight publishes a [Highlight]. Empty target lists are dropped.
func (s Sink) Highlight(targets []string) {
	if len(targets) == 0 {
		return
	}
	s.Bus.Publish(NewHighlight(s.Panel, targets))
}
