package credential

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyGate_ConfiguredKey(t *testing.T) {
	g := NewKeyGate("  premium-123 ", nil)

	assert.True(t, g.HasPrivilegedCapability())
	assert.Equal(t, "premium-123", g.Key())
	assert.NoError(t, g.RequestPrivilegedCapability(context.Background()))
}

func TestKeyGate_RequestWithoutPrompter(t *testing.T) {
	g := NewKeyGate("", nil)

	err := g.RequestPrivilegedCapability(context.Background())

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrPrivilegeRequired))
	assert.False(t, g.HasPrivilegedCapability())
}

func TestKeyGate_RequestUsesPrompter(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantKey string
		wantErr bool
	}{
		{name: "key entered", input: "abc-key\n", wantKey: "abc-key"},
		{name: "key without newline", input: "xyz", wantKey: "xyz"},
		{name: "blank line", input: "\n", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := &bytes.Buffer{}
			g := NewKeyGate("", LinePrompter(strings.NewReader(tt.input), out))

			err := g.RequestPrivilegedCapability(context.Background())

			assert.Contains(t, out.String(), "premium API key")
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrPrivilegeRequired)
				assert.False(t, g.HasPrivilegedCapability())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantKey, g.Key())
		})
	}
}

func TestStaticGate(t *testing.T) {
	g := &StaticGate{GrantOnRequest: true}
	require.False(t, g.HasPrivilegedCapability())

	require.NoError(t, g.RequestPrivilegedCapability(context.Background()))
	assert.True(t, g.HasPrivilegedCapability())
	assert.Equal(t, 1, g.Requests)

	denied := &StaticGate{}
	assert.ErrorIs(t, denied.RequestPrivilegedCapability(context.Background()), ErrPrivilegeRequired)
}
