package utils

import (
	"fmt"

	"github.com/weisyn/ledger-sdk-go/types"
)

// SlotConfig slot 与 Unix 时间（毫秒）的换算参数
type SlotConfig struct {
	ZeroTime   int64  `json:"zeroTime" yaml:"zeroTime"`     // slot ZeroSlot 对应的 Unix 毫秒
	ZeroSlot   uint64 `json:"zeroSlot" yaml:"zeroSlot"`     // Shelley 起始 slot
	SlotLength int64  `json:"slotLength" yaml:"slotLength"` // 毫秒
}

// SlotConfigNetwork 已知网络的换算参数
var SlotConfigNetwork = map[types.Network]SlotConfig{
	types.NetworkMainnet: {ZeroTime: 1596059091000, ZeroSlot: 4492800, SlotLength: 1000},
	types.NetworkPreview: {ZeroTime: 1666656000000, ZeroSlot: 0, SlotLength: 1000},
	types.NetworkPreprod: {ZeroTime: 1654041600000 + 1728000000, ZeroSlot: 86400, SlotLength: 1000},
}

// UnixTimeToSlot Unix 毫秒转 slot；早于 ZeroTime 的时间返回错误
func (c SlotConfig) UnixTimeToSlot(unixTime int64) (uint64, error) {
	if c.SlotLength <= 0 {
		return 0, types.Errorf(types.ErrCodeInvalidParams, "slot length must be positive, got %d", c.SlotLength)
	}
	if unixTime < c.ZeroTime {
		return 0, types.Errorf(types.ErrCodeInvalidParams, "time %d is before the network start %d", unixTime, c.ZeroTime)
	}
	return c.ZeroSlot + uint64((unixTime-c.ZeroTime)/c.SlotLength), nil
}

// SlotToUnixTime slot 转 Unix 毫秒
func (c SlotConfig) SlotToUnixTime(slot uint64) int64 {
	if slot < c.ZeroSlot {
		return c.ZeroTime - int64(c.ZeroSlot-slot)*c.SlotLength
	}
	return c.ZeroTime + int64(slot-c.ZeroSlot)*c.SlotLength
}

// SlotConfigFor 返回网络的换算参数；Custom 网络需由调用方提供
func SlotConfigFor(network types.Network) (SlotConfig, error) {
	cfg, ok := SlotConfigNetwork[network]
	if !ok {
		return SlotConfig{}, fmt.Errorf("no slot config for network %q", network)
	}
	return cfg, nil
}
