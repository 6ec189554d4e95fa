package action

import (
	"context"
	"time"
)

// Timeout bounds every dispatch with a per-call deadline.
type Timeout struct {
	next    Executor
	timeout time.Duration
}

// NewTimeout wraps next. A non-positive d returns next unchanged.
func NewTimeout(next Executor, d time.Duration) Executor {
	if d <= 0 {
		return next
	}
	return &Timeout{next: next, timeout: d}
}

// Execute delegates with a derived context that expires after the timeout.
func (t *Timeout) Execute(ctx context.Context, req Request) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.next.Execute(ctx, req)
}
