package router

import (
	"fmt"

	"adkplatform/internal/platform"
)

// MutationKind names a context mutation applied between rotation steps.
type MutationKind string

// Supported mutation kinds.
const (
	// MutationNone leaves the context unchanged.
	MutationNone MutationKind = "none"

	// MutationGrow adds a random amount in [Min, Max] to the user count.
	MutationGrow MutationKind = "grow"

	// MutationUpgrade overwrites feature and infrastructure with fixed strings.
	MutationUpgrade MutationKind = "upgrade"
)

// Rand is the source of randomness for growth mutations.
// *rand.Rand from math/rand/v2 satisfies it.
type Rand interface {
	IntN(n int) int
}

// Mutation describes how the shared context changes when a transition fires.
type Mutation struct {
	Kind MutationKind

	// Min and Max bound the user count increase for MutationGrow (inclusive).
	Min int
	Max int

	// Feature and Infrastructure are the replacement values for
	// MutationUpgrade. An empty string keeps the current value.
	Feature        string
	Infrastructure string
}

// Validate checks that the mutation is well formed.
func (m Mutation) Validate() error {
	switch m.Kind {
	case "", MutationNone:
		return nil
	case MutationGrow:
		if m.Min < 0 || m.Max < m.Min {
			return fmt.Errorf("grow bounds must satisfy 0 <= min <= max, got [%d, %d]", m.Min, m.Max)
		}
		return nil
	case MutationUpgrade:
		if m.Feature == "" && m.Infrastructure == "" {
			return fmt.Errorf("upgrade mutation sets neither feature nor infrastructure")
		}
		return nil
	default:
		return fmt.Errorf("unknown mutation kind %q", m.Kind)
	}
}

// Apply returns the context that results from applying m to c.
//
// Apply never modifies c. For MutationGrow the increase is drawn from rng;
// every other kind is deterministic and ignores rng.
func (m Mutation) Apply(c platform.Context, rng Rand) platform.Context {
	switch m.Kind {
	case MutationGrow:
		delta := m.Min
		if span := m.Max - m.Min; span > 0 && rng != nil {
			delta += rng.IntN(span + 1)
		}
		c.UserCount += delta
	case MutationUpgrade:
		if m.Feature != "" {
			c.Feature = m.Feature
		}
		if m.Infrastructure != "" {
			c.Infrastructure = m.Infrastructure
		}
	}
	return c
}

// Bind returns m as a [platform.Mutator] drawing randomness from rng.
// It returns nil for mutations that leave the context unchanged.
func (m Mutation) Bind(rng Rand) platform.Mutator {
	if m.Kind == "" || m.Kind == MutationNone {
		return nil
	}
	return func(c platform.Context) platform.Context {
		return m.Apply(c, rng)
	}
}

// String returns a short human readable description of the mutation.
func (m Mutation) String() string {
	switch m.Kind {
	case MutationGrow:
		return fmt.Sprintf("grow users by %d-%d", m.Min, m.Max)
	case MutationUpgrade:
		return fmt.Sprintf("upgrade to %q on %q", m.Feature, m.Infrastructure)
	default:
		return string(MutationNone)
	}
}
