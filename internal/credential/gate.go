// Package credential models the privileged-capability boundary: whether a
// premium key (or equivalent selection) is available before an upgraded model
// is invoked, and how the user is asked to provide one.
package credential

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
)

// ErrPrivilegeRequired is returned when a privileged capability is needed but
// no way to obtain it is configured, or the user declined to provide it.
var ErrPrivilegeRequired = errors.New("privileged capability not selected")

// Gate answers whether the privileged capability is available and can ask
// the user to make it available.
type Gate interface {
	// HasPrivilegedCapability reports whether privileged requests may be dispatched.
	HasPrivilegedCapability() bool

	// RequestPrivilegedCapability asks for the capability. On success a
	// subsequent HasPrivilegedCapability returns true.
	RequestPrivilegedCapability(ctx context.Context) error
}

// Prompter obtains a key from the user.
type Prompter func(ctx context.Context) (string, error)

// KeyGate is a [Gate] backed by a premium API key.
//
// The key may be configured up front or supplied later through the prompter.
type KeyGate struct {
	mu       sync.RWMutex
	key      string
	prompter Prompter
}

// NewKeyGate creates a [KeyGate]. Either argument may be empty/nil.
func NewKeyGate(key string, prompter Prompter) *KeyGate {
	return &KeyGate{key: strings.TrimSpace(key), prompter: prompter}
}

// HasPrivilegedCapability reports whether a key is present.
func (g *KeyGate) HasPrivilegedCapability() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.key != ""
}

// Key returns the current premium key, or "" if none has been selected.
func (g *KeyGate) Key() string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.key
}

// RequestPrivilegedCapability runs the prompter and stores the key it returns.
func (g *KeyGate) RequestPrivilegedCapability(ctx context.Context) error {
	if g.HasPrivilegedCapability() {
		return nil
	}
	if g.prompter == nil {
		return fmt.Errorf("%w: set api.premium_key or ADKPLATFORM_API_PREMIUM_KEY", ErrPrivilegeRequired)
	}

	key, err := g.prompter(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPrivilegeRequired, err)
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("%w: no key entered", ErrPrivilegeRequired)
	}

	g.mu.Lock()
	g.key = key
	g.mu.Unlock()
	return nil
}

// LinePrompter returns a [Prompter] that writes a message to out and reads a
// single line from in.
func LinePrompter(in io.Reader, out io.Writer) Prompter {
	reader := bufio.NewReader(in)
	return func(ctx context.Context) (string, error) {
		fmt.Fprint(out, "This action needs a premium API key. Paste it and press enter: ")

		type line struct {
			text string
			err  error
		}
		ch := make(chan line, 1)
		go func() {
			text, err := reader.ReadString('\n')
			if err == io.EOF && text != "" {
				err = nil
			}
			ch <- line{text: text, err: err}
		}()

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case l := <-ch:
			return l.text, l.err
		}
	}
}

// StaticGate is a fixed [Gate] for tests and offline runs.
type StaticGate struct {
	mu      sync.Mutex
	Allowed bool

	// GrantOnRequest makes RequestPrivilegedCapability flip Allowed to true.
	GrantOnRequest bool

	// Requests counts RequestPrivilegedCapability calls.
	Requests int
}

// HasPrivilegedCapability returns Allowed.
func (g *StaticGate) HasPrivilegedCapability() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.Allowed
}

// RequestPrivilegedCapability grants the capability if GrantOnRequest is set.
func (g *StaticGate) RequestPrivilegedCapability(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Requests++
	if g.GrantOnRequest {
		g.Allowed = true
		return nil
	}
	return ErrPrivilegeRequired
}
