// Package panel defines panel tasks and the registry that resolves them.
//
// A panel is one selectable simulated business tool (terminal, CRM, IDE,
// deploy, marketing, image studio). Each panel is backed by a [Task] that
// receives a snapshot of the shared context and the action executor, emits
// incremental output through [Updates], and returns an [Output].
//
// Key types:
//   - [ID] - Panel identifier
//   - [Task] - Asynchronous unit of work bound to a panel
//   - [Env] - Everything a task may touch while it runs
//   - [Output] - Final content plus the context mutation to commit on success
//   - [Registry] - Maps panel IDs to tasks; fails fast on unknown IDs
package panel

import (
	"context"

	"adkplatform/internal/action"
	"adkplatform/internal/platform"
)

// ID identifies a panel.
type ID string

// Built-in panel identifiers.
const (
	Terminal  ID = "terminal"
	CRM       ID = "crm"
	IDE       ID = "ide"
	Deploy    ID = "deploy"
	Marketing ID = "marketing"
	Image     ID = "image"
)

// Builtin lists the built-in panels in their default rotation order.
var Builtin = []ID{Terminal, IDE, Deploy, Marketing, Image, CRM}

// Content is renderable panel output. The front end decides how to draw it.
type Content struct {
	// Markdown is the primary text output.
	Markdown string `json:"markdown,omitempty" yaml:"markdown,omitempty"`

	// Data carries structured values (counts, cards, stage list).
	Data map[string]any `json:"data,omitempty" yaml:"data,omitempty"`

	// Image is set by image-producing panels.
	Image *action.Attachment `json:"-" yaml:"-"`
}

// Output is the result of a successful task run.
type Output struct {
	Content

	// Summary is a one-line status message.
	Summary string

	// Mutation, if non-nil, is applied to the shared context after the task
	// succeeds. Failed runs never apply it, so the context is either fully
	// updated or untouched.
	Mutation platform.Mutator
}

// Updates receives incremental output while a task runs.
//
// Calls are delivered to the front end in the order they are made.
type Updates interface {
	// Append adds a streamed chunk to the panel's content.
	Append(chunk string)

	// Replace sets the panel's full content.
	Replace(content Content)

	// Progress reports a named step and overall completion percentage.
	Progress(step string, percent int)

	// Highlight marks front-end targets (for example agent cards) as active.
	Highlight(targets []string)
}

// Env is the environment passed to [Task.Run].
type Env struct {
	// Panel is the ID the task was resolved under.
	Panel ID

	// Context is a snapshot of the shared context taken when the run started.
	Context platform.Context

	// Input is optional user input for manual runs (for example an edit
	// instruction for the image studio). Empty for rotation runs.
	Input string

	// Executor performs remote generation and simulated steps.
	Executor action.Executor

	// Updates receives incremental output. Never nil.
	Updates Updates
}

// Task is the unit of work bound to a panel.
type Task interface {
	Run(ctx context.Context, env Env) (Output, error)
}

// TaskFunc adapts a function to [Task].
type TaskFunc func(ctx context.Context, env Env) (Output, error)

// Run calls f(ctx, env).
func (f TaskFunc) Run(ctx context.Context, env Env) (Output, error) {
	return f(ctx, env)
}

// DiscardUpdates is an [Updates] that drops everything.
type DiscardUpdates struct{}

func (DiscardUpdates) Append(string)        {}
func (DiscardUpdates) Replace(Content)      {}
func (DiscardUpdates) Progress(string, int) {}
func (DiscardUpdates) Highlight([]string)   {}
