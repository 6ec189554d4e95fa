// Package action abstracts the remote generation capability that panel tasks
// depend on.
//
// An [Executor] performs one unit of externally visible work (a text or image
// generation call, or a simulated timed step) and returns a [Result] or a
// structured [Failure]. Executors carry no retry policy; retries are the
// caller's responsibility.
//
// Key types:
//   - [Request] - Prompt, capability, optional attachment and options
//   - [Result] - Text, image and grounding sources returned by a call
//   - [Failure] - Classified failure (rate limited, unauthorized, empty, transport, ...)
//   - [GenAIExecutor] - Production executor backed by the Gemini API
//   - [SimulatedExecutor] - Timed, offline executor with canned output
//   - [Gated] - Decorator enforcing the privileged-capability precondition
//   - [Logged] - Decorator logging every dispatch
//   - [MockExecutor] - Test executor recording requests
package action

import (
	"context"
)

// Capability names the kind of generation a [Request] asks for.
type Capability string

const (
	// CapabilityText is a single markdown (or plain) text generation.
	CapabilityText Capability = "text"

	// CapabilityStructuredText is a text generation constrained to JSON output.
	CapabilityStructuredText Capability = "structuredText"

	// CapabilityStreamingText delivers text incrementally through [Request.OnChunk].
	CapabilityStreamingText Capability = "streamingText"

	// CapabilityImage generates a new image from the prompt.
	CapabilityImage Capability = "image"

	// CapabilityImageEdit modifies [Request.Attachment] according to the prompt.
	CapabilityImageEdit Capability = "imageEdit"
)

// IsValid reports whether c is a known capability.
func (c Capability) IsValid() bool {
	switch c {
	case CapabilityText, CapabilityStructuredText, CapabilityStreamingText, CapabilityImage, CapabilityImageEdit:
		return true
	}
	return false
}

// ResponseFormat selects how text output is shaped.
type ResponseFormat string

const (
	FormatMarkdown ResponseFormat = "markdown"
	FormatJSON     ResponseFormat = "json"
)

// Attachment is binary input or output, such as an image.
type Attachment struct {
	Data     []byte
	MIMEType string
}

// Options tune a single request.
type Options struct {
	// SearchGrounding lets the model consult web search.
	SearchGrounding bool

	// ResponseFormat is markdown unless set to [FormatJSON].
	ResponseFormat ResponseFormat

	// AspectRatio for image capabilities, e.g. "16:9". Empty means model default.
	AspectRatio string

	// Size for image capabilities, e.g. "1K" or "2K". Empty means model default.
	Size string
}

// ChunkHandler receives streamed text in the order it was produced.
type ChunkHandler func(chunk string)

// Request describes one unit of work for an [Executor].
type Request struct {
	// Prompt is the natural-language instruction.
	Prompt string

	// Capability selects the kind of generation.
	Capability Capability

	// Model overrides the executor's default model for the capability.
	Model string

	// Attachment is optional binary input (required for [CapabilityImageEdit]).
	Attachment *Attachment

	// Options tune the request.
	Options Options

	// Privileged marks requests that need the premium capability to be
	// selected before dispatch. See [Gated].
	Privileged bool

	// OnChunk is called for each streamed chunk when Capability is
	// [CapabilityStreamingText]. May be nil.
	OnChunk ChunkHandler
}

// Result is the payload of a successful (or partially successful) call.
type Result struct {
	// Text is the complete text output. For interrupted streams this holds
	// the chunks received before the interruption.
	Text string

	// Image is set for image capabilities.
	Image *Attachment

	// Sources lists grounding URLs when search grounding was used.
	Sources []string
}

// Executor performs one externally visible action.
//
// Execute may block for the duration of a remote call. Failures are
// returned as [*Failure] values so callers can branch with errors.Is on the
// package sentinels.
type Executor interface {
	Execute(ctx context.Context, req Request) (*Result, error)
}

// ExecutorFunc adapts a function to [Executor].
type ExecutorFunc func(ctx context.Context, req Request) (*Result, error)

// Execute calls f(ctx, req).
func (f ExecutorFunc) Execute(ctx context.Context, req Request) (*Result, error) {
	return f(ctx, req)
}
