package probe

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClassifyBands(t *testing.T) {
	cases := []struct {
		value        uint16
		wantOK       bool
		multiplierOn bool
	}{
		{0x19C, true, false},  // inside [0x171, 0x1C1) -> 0-10V, multiplier off
		{0xC8, true, false},   // inside [0xB8, 0xE0) -> 0-5V, multiplier off
		{0xF00, true, true},   // inside (0xE66, 0xFFF] -> 0-10V, multiplier on
		{0x800, true, true},   // inside (0x737, 0x8C7) -> 0-5V, multiplier on
		{0x500, false, false}, // no band matches -> not ready
	}
	for _, c := range cases {
		_, multiplierOn, ok := classify(c.value)
		require.Equal(t, c.wantOK, ok, "value 0x%x", c.value)
		if ok {
			require.Equal(t, c.multiplierOn, multiplierOn, "value 0x%x", c.value)
		}
	}
}

func TestTwoChannelModelsGate(t *testing.T) {
	require.True(t, twoChannelModels[470])
	require.True(t, twoChannelModels[8227])
	require.False(t, twoChannelModels[256])
}
