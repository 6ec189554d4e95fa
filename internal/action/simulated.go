package action

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// placeholderPNG is a 1x1 transparent PNG returned for image capabilities.
var placeholderPNG = []byte{
	0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a, 0x00, 0x00, 0x00, 0x0d,
	0x49, 0x48, 0x44, 0x52, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x06, 0x00, 0x00, 0x00, 0x1f, 0x15, 0xc4, 0x89, 0x00, 0x00, 0x00,
	0x0d, 0x49, 0x44, 0x41, 0x54, 0x78, 0x9c, 0x63, 0x00, 0x01, 0x00, 0x00,
	0x05, 0x00, 0x01, 0x0d, 0x0a, 0x2d, 0xb4, 0x00, 0x00, 0x00, 0x00, 0x49,
	0x45, 0x4e, 0x44, 0xae, 0x42, 0x60, 0x82,
}

// SimulatedExecutor performs timed steps that return canned output. It backs
// offline mode and the deploy panel's rollout stages.
type SimulatedExecutor struct {
	// StepDuration is how long each call takes.
	StepDuration time.Duration

	// Canned overrides the text returned per capability.
	Canned map[Capability]string
}

// NewSimulatedExecutor creates a [SimulatedExecutor] with the given step duration.
func NewSimulatedExecutor(step time.Duration) *SimulatedExecutor {
	return &SimulatedExecutor{StepDuration: step}
}

// Execute waits StepDuration (honouring ctx) and returns canned output.
func (s *SimulatedExecutor) Execute(ctx context.Context, req Request) (*Result, error) {
	if s.StepDuration > 0 {
		timer := time.NewTimer(s.StepDuration)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, NewFailure(KindTransport, req.Capability, ctx.Err())
		case <-timer.C:
		}
	}

	switch req.Capability {
	case CapabilityImage, CapabilityImageEdit:
		return &Result{
			Text:  "simulated image",
			Image: &Attachment{Data: placeholderPNG, MIMEType: "image/png"},
		}, nil
	case CapabilityStreamingText:
		text := s.cannedText(req)
		if req.OnChunk != nil {
			for _, word := range strings.SplitAfter(text, " ") {
				req.OnChunk(word)
			}
		}
		return &Result{Text: text}, nil
	default:
		return &Result{Text: s.cannedText(req)}, nil
	}
}

func (s *SimulatedExecutor) cannedText(req Request) string {
	if text, ok := s.Canned[req.Capability]; ok {
		return text
	}
	if req.Capability == CapabilityStructuredText || req.Options.ResponseFormat == FormatJSON {
		return "[]"
	}
	return fmt.Sprintf("Simulated %s output for: %s", req.Capability, truncate(req.Prompt, 80))
}

// truncate shortens s to at most maxLen runes, marking the cut with "...".
func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen-3]) + "..."
}
