package action

import (
	"context"
	"sync"
	"time"
)

// MockResponse is one scripted reply of a [MockExecutor].
type MockResponse struct {
	// Result is returned on success. A nil Result with a nil Err yields a
	// default text result.
	Result *Result

	// Err is returned as the failure. Result is still returned alongside
	// it, which models partial output of interrupted streams.
	Err error

	// Chunks are delivered to Request.OnChunk, in order, before returning.
	Chunks []string
}

// MockExecutor implements [Executor] for testing.
//
// Scripted Responses are consumed in order; once exhausted, Default is used.
// Hook, when set, takes precedence over both.
//
//	mock := &MockExecutor{
//	    Responses: []MockResponse{
//	        {Result: &Result{Text: "func main() {}"}},
//	        {Err: NewFailure(KindRateLimited, CapabilityText, nil)},
//	    },
//	}
type MockExecutor struct {
	mu sync.Mutex

	// Responses are consumed one per call.
	Responses []MockResponse

	// Default is used when Responses is exhausted.
	Default MockResponse

	// Hook computes the reply from the request when set.
	Hook func(ctx context.Context, req Request) (*Result, error)

	// Delay simulates call latency. Cancelling ctx ends the wait with a
	// transport failure.
	Delay time.Duration

	// Requests records every call in order.
	Requests []Request
}

// Execute records the request and returns the next scripted reply.
func (m *MockExecutor) Execute(ctx context.Context, req Request) (*Result, error) {
	m.mu.Lock()
	m.Requests = append(m.Requests, req)
	resp := m.Default
	if len(m.Responses) > 0 {
		resp = m.Responses[0]
		m.Responses = m.Responses[1:]
	}
	hook := m.Hook
	delay := m.Delay
	m.mu.Unlock()

	if delay > 0 {
		select {
		case <-ctx.Done():
			return nil, NewFailure(KindTransport, req.Capability, ctx.Err())
		case <-time.After(delay):
		}
	}

	if hook != nil {
		return hook(ctx, req)
	}

	if req.OnChunk != nil {
		for _, c := range resp.Chunks {
			req.OnChunk(c)
		}
	}

	if resp.Err != nil {
		return resp.Result, resp.Err
	}
	if resp.Result == nil {
		return &Result{Text: "mock response"}, nil
	}
	return resp.Result, nil
}

// Calls returns the number of recorded calls.
func (m *MockExecutor) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Requests)
}

// Prompts returns the prompts of all recorded calls in order.
func (m *MockExecutor) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	prompts := make([]string, len(m.Requests))
	for i, r := range m.Requests {
		prompts[i] = r.Prompt
	}
	return prompts
}
