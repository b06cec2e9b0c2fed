package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weisyn/ledger-sdk-go/types"
)

func TestUnixTimeToSlot(t *testing.T) {
	tests := []struct {
		name    string
		network types.Network
		time    int64
		want    uint64
	}{
		{"mainnet zero", types.NetworkMainnet, 1596059091000, 4492800},
		{"mainnet +1h", types.NetworkMainnet, 1596059091000 + 3_600_000, 4492800 + 3600},
		{"mainnet sub-second truncates", types.NetworkMainnet, 1596059091999, 4492800},
		{"preview", types.NetworkPreview, 1666656000000 + 10_000, 10},
		{"preprod", types.NetworkPreprod, 1655769600000, 86400},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := SlotConfigFor(tt.network)
			require.NoError(t, err)
			got, err := cfg.UnixTimeToSlot(tt.time)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.LessOrEqual(t, cfg.SlotToUnixTime(got), tt.time)
		})
	}
}

func TestUnixTimeToSlot_Errors(t *testing.T) {
	cfg := SlotConfigNetwork[types.NetworkMainnet]
	_, err := cfg.UnixTimeToSlot(0)
	assert.Equal(t, types.ErrCodeInvalidParams, types.CodeOf(err))

	_, err = SlotConfig{}.UnixTimeToSlot(1)
	assert.Error(t, err)

	_, err = SlotConfigFor(types.NetworkCustom)
	assert.Error(t, err)
}
