package action

import (
	"fmt"
	"strings"
	"sync"
)

// InterruptedMarker prefixes the trailing line appended to interrupted streams.
const InterruptedMarker = "[stream interrupted"

// StreamBuffer accumulates streamed chunks append-only, in arrival order.
//
// Create one per streamed call, pass [StreamBuffer.Append] as the
// [Request.OnChunk] handler (optionally chaining a renderer through
// onAppend), and call [StreamBuffer.Interrupt] if the stream fails.
type StreamBuffer struct {
	mu          sync.Mutex
	b           strings.Builder
	chunks      int
	interrupted bool
	onAppend    func(chunk string)
}

// NewStreamBuffer creates a buffer. onAppend, if non-nil, is invoked with
// every chunk after it has been appended.
func NewStreamBuffer(onAppend func(chunk string)) *StreamBuffer {
	return &StreamBuffer{onAppend: onAppend}
}

// Append adds a chunk. Empty chunks and chunks after an interruption are
// dropped.
func (s *StreamBuffer) Append(chunk string) {
	if chunk == "" {
		return
	}
	s.mu.Lock()
	if s.interrupted {
		s.mu.Unlock()
		return
	}
	s.b.WriteString(chunk)
	s.chunks++
	s.mu.Unlock()

	if s.onAppend != nil {
		s.onAppend(chunk)
	}
}

// Interrupt seals the buffer, appending a trailing error marker, and returns
// the marker chunk that was appended.
func (s *StreamBuffer) Interrupt(cause error) string {
	marker := fmt.Sprintf("\n\n%s: %v]", InterruptedMarker, cause)

	s.mu.Lock()
	if s.interrupted {
		s.mu.Unlock()
		return ""
	}
	s.b.WriteString(marker)
	s.interrupted = true
	s.mu.Unlock()

	if s.onAppend != nil {
		s.onAppend(marker)
	}
	return marker
}

// String returns everything appended so far.
func (s *StreamBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.String()
}

// Chunks returns the number of non-empty chunks received.
func (s *StreamBuffer) Chunks() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.chunks
}

// Interrupted reports whether [StreamBuffer.Interrupt] was called.
func (s *StreamBuffer) Interrupted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.interrupted
}
