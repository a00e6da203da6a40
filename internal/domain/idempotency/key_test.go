package idempotency

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKey(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{name: "valid", raw: "checkout-2024-07-01"},
		{name: "empty rejected", raw: "", wantErr: true},
		{name: "at the length boundary is rejected", raw: strings.Repeat("a", maxKeyLength), wantErr: true},
		{name: "just under the boundary is accepted", raw: strings.Repeat("a", maxKeyLength-1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, err := ParseKey(tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.raw, key.String())
		})
	}
}
