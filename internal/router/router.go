// Package router holds the rotation table that drives continuous mode.
//
// Each registered panel has exactly one [Transition]: the panel that runs
// next, the [Mutation] applied to the shared context on the way, and the
// status message shown while the rotation delay is pending. The table can be
// built from hardcoded defaults ([NewRouter]) or from a rotation manifest
// ([NewRouterFromManifest]).
//
// Key types:
//   - [Router] - Lookup table from panel to transition
//   - [Transition] - One edge of the rotation
//   - [Mutation] - Pure context update applied when a transition fires
package router

import (
	"errors"
	"fmt"
	"strings"

	"adkplatform/internal/manifest"
	"adkplatform/internal/panel"
)

// Sentinel errors for rotation routing.
var (
	// ErrNoTransition indicates a panel has no outgoing transition. A
	// validated router never returns it for a registered panel.
	ErrNoTransition = errors.New("no transition defined for panel")

	// ErrUnreachablePanel indicates a registered panel can never be reached
	// by the rotation from the start panel.
	ErrUnreachablePanel = errors.New("panel unreachable from start panel")
)

// Transition is the rule applied when Panel completes in continuous mode.
type Transition struct {
	// Panel is the panel whose completion fires this transition.
	Panel panel.ID

	// Next is the panel that runs after the rotation delay.
	Next panel.ID

	// Mutation is applied to the shared context when the task succeeded.
	Mutation Mutation

	// Message is the status message reported while waiting for Next.
	Message string
}

// Default mutation parameters for the built-in rotation.
const (
	DefaultGrowMin        = 50
	DefaultGrowMax        = 500
	DefaultUpgradeFeature = "Fractional Ownership Marketplace"
	DefaultUpgradeInfra   = "Multi-region Kubernetes with global CDN"
)

// DefaultTransitions returns the built-in six panel rotation:
// terminal → ide → deploy → marketing → image → crm → terminal.
//
// Completing crm grows the user base; completing terminal upgrades the
// feature and infrastructure.
func DefaultTransitions() []Transition {
	return []Transition{
		{
			Panel: panel.Terminal, Next: panel.IDE, Message: "Infrastructure upgraded. Building the next feature",
			Mutation: Mutation{Kind: MutationUpgrade, Feature: DefaultUpgradeFeature, Infrastructure: DefaultUpgradeInfra},
		},
		{Panel: panel.IDE, Next: panel.Deploy, Message: "Code audited. Handing off to deploy"},
		{Panel: panel.Deploy, Next: panel.Marketing, Message: "Release live. Preparing the launch campaign"},
		{Panel: panel.Marketing, Next: panel.Image, Message: "Campaign drafted. Generating visuals"},
		{Panel: panel.Image, Next: panel.CRM, Message: "Visuals ready. Updating the sales pipeline"},
		{
			Panel: panel.CRM, Next: panel.Terminal, Message: "New users onboarded. Watching the logs",
			Mutation: Mutation{Kind: MutationGrow, Min: DefaultGrowMin, Max: DefaultGrowMax},
		},
	}
}

// Router maps each panel to its outgoing transition.
type Router struct {
	order []panel.ID
	table map[panel.ID]Transition
}

// NewRouter creates a [Router] with the default rotation.
func NewRouter() *Router {
	r, err := New(DefaultTransitions())
	if err != nil {
		panic(fmt.Sprintf("default transitions are invalid: %v", err))
	}
	return r
}

// New creates a [Router] from an explicit transition list.
//
// Each panel may appear at most once, every transition needs a target, and
// every mutation must be well formed. Totality against a registry is
// checked separately by [Router.Validate].
func New(transitions []Transition) (*Router, error) {
	r := &Router{table: make(map[panel.ID]Transition, len(transitions))}
	for _, t := range transitions {
		if t.Panel == "" || t.Next == "" {
			return nil, fmt.Errorf("transition %q -> %q: both panels are required", t.Panel, t.Next)
		}
		if _, dup := r.table[t.Panel]; dup {
			return nil, fmt.Errorf("duplicate transition for panel %q", t.Panel)
		}
		if err := t.Mutation.Validate(); err != nil {
			return nil, fmt.Errorf("transition from %q: %w", t.Panel, err)
		}
		if t.Mutation.Kind == "" {
			t.Mutation.Kind = MutationNone
		}
		r.table[t.Panel] = t
		r.order = append(r.order, t.Panel)
	}
	return r, nil
}

// NewRouterFromManifest creates a [Router] from a rotation manifest.
//
// Manifest rows name their mutation; mutations resolves those names to
// parameters. The names "none" and "" always resolve to [MutationNone].
// Unknown names are an error.
func NewRouterFromManifest(m *manifest.Manifest, mutations map[string]Mutation) (*Router, error) {
	transitions := make([]Transition, 0, len(m.Entries))
	for _, entry := range m.Entries {
		mut := Mutation{Kind: MutationNone}
		name := strings.ToLower(entry.Mutation)
		if name != "" && name != string(MutationNone) {
			var ok bool
			mut, ok = mutations[name]
			if !ok {
				return nil, fmt.Errorf("panel %q: unknown mutation %q", entry.Panel, entry.Mutation)
			}
		}
		transitions = append(transitions, Transition{
			Panel:    panel.ID(entry.Panel),
			Next:     panel.ID(entry.Next),
			Mutation: mut,
			Message:  entry.Message,
		})
	}
	return New(transitions)
}

// Next returns the transition that fires when p completes.
//
// Returns [ErrNoTransition] if p has no outgoing transition.
func (r *Router) Next(p panel.ID) (Transition, error) {
	t, ok := r.table[p]
	if !ok {
		return Transition{}, fmt.Errorf("%w: %s", ErrNoTransition, p)
	}
	return t, nil
}

// Transitions returns all transitions in definition order.
func (r *Router) Transitions() []Transition {
	out := make([]Transition, 0, len(r.order))
	for _, p := range r.order {
		out = append(out, r.table[p])
	}
	return out
}

// Cycle returns the panels visited from start until the rotation first
// revisits a panel. The result begins with start.
func (r *Router) Cycle(start panel.ID) ([]panel.ID, error) {
	var path []panel.ID
	seen := make(map[panel.ID]bool)
	for p := start; !seen[p]; {
		seen[p] = true
		path = append(path, p)
		t, err := r.Next(p)
		if err != nil {
			return path, err
		}
		p = t.Next
	}
	return path, nil
}

// Validate checks the rotation against the registered panels.
//
// It reports every problem found, joined:
//   - a registered panel without a transition ([ErrNoTransition])
//   - a transition to or from an unregistered panel ([panel.ErrUnknownPanel])
//   - a registered panel never reached from start ([ErrUnreachablePanel])
func (r *Router) Validate(reg *panel.Registry, start panel.ID) error {
	var errs []error

	if !reg.Has(start) {
		errs = append(errs, fmt.Errorf("start panel: %w: %s", panel.ErrUnknownPanel, start))
	}

	for _, id := range reg.IDs() {
		if _, ok := r.table[id]; !ok {
			errs = append(errs, fmt.Errorf("%w: %s", ErrNoTransition, id))
		}
	}

	for _, p := range r.order {
		t := r.table[p]
		if !reg.Has(t.Panel) {
			errs = append(errs, fmt.Errorf("transition from %s: %w: %s", t.Panel, panel.ErrUnknownPanel, t.Panel))
		}
		if !reg.Has(t.Next) {
			errs = append(errs, fmt.Errorf("transition from %s: %w: %s", t.Panel, panel.ErrUnknownPanel, t.Next))
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	cycle, _ := r.Cycle(start)
	reached := make(map[panel.ID]bool, len(cycle))
	for _, p := range cycle {
		reached[p] = true
	}
	for _, id := range reg.IDs() {
		if !reached[id] {
			errs = append(errs, fmt.Errorf("%w: %s (start %s)", ErrUnreachablePanel, id, start))
		}
	}
	return errors.Join(errs...)
}
