package action

import (
	"context"

	"adkplatform/internal/credential"
)

// Gated enforces the privileged-capability precondition before dispatch.
//
// Privileged requests are refused with a [KindUnauthorized] failure when the
// gate reports the capability is missing. Gated never prompts; the caller
// decides whether to call [credential.Gate.RequestPrivilegedCapability] and
// retry.
type Gated struct {
	next Executor
	gate credential.Gate
}

// NewGated wraps next with the given gate.
func NewGated(next Executor, gate credential.Gate) *Gated {
	return &Gated{next: next, gate: gate}
}

// Execute checks the gate for privileged requests, then delegates.
func (g *Gated) Execute(ctx context.Context, req Request) (*Result, error) {
	if req.Privileged && (g.gate == nil || !g.gate.HasPrivilegedCapability()) {
		return nil, NewFailure(KindUnauthorized, req.Capability, credential.ErrPrivilegeRequired)
	}
	return g.next.Execute(ctx, req)
}
