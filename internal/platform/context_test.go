package platform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_GetReturnsSnapshot(t *testing.T) {
	s := NewStore(Context{Feature: "Tokenized Real Estate", UserCount: 1000, Infrastructure: "Single VM"})

	snap := s.Get()
	snap.UserCount = 5

	assert.Equal(t, 1000, s.Get().UserCount, "modifying a snapshot must not touch the store")
}

func TestStore_Update(t *testing.T) {
	tests := []struct {
		name    string
		mutator Mutator
		want    Context
		wantErr bool
	}{
		{
			name: "replaces whole record",
			mutator: func(c Context) Context {
				c.Feature = "Fractional Art"
				c.UserCount += 250
				return c
			},
			want: Context{Feature: "Fractional Art", UserCount: 1250, Infrastructure: "Single VM"},
		},
		{
			name:    "nil mutator is a no-op",
			mutator: nil,
			want:    Context{Feature: "Tokenized Real Estate", UserCount: 1000, Infrastructure: "Single VM"},
		},
		{
			name: "negative user count is rejected and state kept",
			mutator: func(c Context) Context {
				c.Feature = "half applied"
				c.UserCount = -1
				return c
			},
			want:    Context{Feature: "Tokenized Real Estate", UserCount: 1000, Infrastructure: "Single VM"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewStore(Context{Feature: "Tokenized Real Estate", UserCount: 1000, Infrastructure: "Single VM"})

			err := s.Update(tt.mutator)
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.want, s.Get())
		})
	}
}
