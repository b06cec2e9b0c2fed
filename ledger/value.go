package ledger

import (
	"bytes"
	"encoding/hex"
	"sort"

	"github.com/ethereum/go-ethereum/common/math"

	"github.com/weisyn/ledger-sdk-go/types"
)

// AssetName 资产名（原始字节，以 string 承载以便作为 map key）
type AssetName string

// Hex 资产名的 hex 表示
func (n AssetName) Hex() string { return hex.EncodeToString([]byte(n)) }

// MultiAsset 非原生资产
type MultiAsset map[ScriptHash]map[AssetName]uint64

// MintAssets 单个 policy 下的铸造数量（负数表示销毁）
type MintAssets map[AssetName]int64

// Value 价值：lovelace + 多资产
type Value struct {
	Coin   uint64
	Assets MultiAsset
}

// NewValue 仅含 lovelace 的价值
func NewValue(coin uint64) Value {
	return Value{Coin: coin}
}

// Clone 深拷贝
func (v Value) Clone() Value {
	out := Value{Coin: v.Coin}
	if len(v.Assets) > 0 {
		out.Assets = make(MultiAsset, len(v.Assets))
		for p, names := range v.Assets {
			inner := make(map[AssetName]uint64, len(names))
			for n, q := range names {
				inner[n] = q
			}
			out.Assets[p] = inner
		}
	}
	return out
}

// HasAssets 是否含非零多资产
func (v Value) HasAssets() bool {
	for _, names := range v.Assets {
		for _, q := range names {
			if q > 0 {
				return true
			}
		}
	}
	return false
}

// IsZero 是否为空价值
func (v Value) IsZero() bool {
	return v.Coin == 0 && !v.HasAssets()
}

// Quantity 返回指定资产数量
func (v Value) Quantity(policy ScriptHash, name AssetName) uint64 {
	if v.Assets == nil {
		return 0
	}
	return v.Assets[policy][name]
}

// AddAsset 原地增加资产
func (v *Value) AddAsset(policy ScriptHash, name AssetName, qty uint64) error {
	if qty == 0 {
		return nil
	}
	if v.Assets == nil {
		v.Assets = make(MultiAsset)
	}
	if v.Assets[policy] == nil {
		v.Assets[policy] = make(map[AssetName]uint64)
	}
	sum, overflow := math.SafeAdd(v.Assets[policy][name], qty)
	if overflow {
		return types.Errorf(types.ErrCodeInvalidParams, "asset quantity overflow").
			WithDetail("unit", policy.String()+name.Hex())
	}
	v.Assets[policy][name] = sum
	return nil
}

// Add 返回 v + o
func (v Value) Add(o Value) (Value, error) {
	out := v.Clone()
	coin, overflow := math.SafeAdd(out.Coin, o.Coin)
	if overflow {
		return Value{}, types.NewError(types.ErrCodeInvalidParams, "lovelace overflow")
	}
	out.Coin = coin
	for p, names := range o.Assets {
		for n, q := range names {
			if err := out.AddAsset(p, n, q); err != nil {
				return Value{}, err
			}
		}
	}
	return out, nil
}

// Missing 返回 need 中 v 不足的部分（逐分量取正差）
func (v Value) Missing(need Value) Value {
	var out Value
	if need.Coin > v.Coin {
		out.Coin = need.Coin - v.Coin
	}
	for p, names := range need.Assets {
		for n, q := range names {
			have := v.Quantity(p, n)
			if q > have {
				_ = out.AddAsset(p, n, q-have)
			}
		}
	}
	return out
}

// Sub 返回 v - o；任一分量不足时返回 INSUFFICIENT_FUNDS，Details 中给出缺口
func (v Value) Sub(o Value) (Value, error) {
	if missing := v.Missing(o); !missing.IsZero() {
		return Value{}, insufficient(missing)
	}
	out := v.Clone()
	out.Coin, _ = math.SafeSub(out.Coin, o.Coin)
	for p, names := range o.Assets {
		for n, q := range names {
			rest := out.Assets[p][n] - q
			if rest == 0 {
				delete(out.Assets[p], n)
				if len(out.Assets[p]) == 0 {
					delete(out.Assets, p)
				}
				continue
			}
			out.Assets[p][n] = rest
		}
	}
	return out, nil
}

// Covers v 是否在每个分量上都不小于 need
func (v Value) Covers(need Value) bool {
	return v.Missing(need).IsZero()
}

// Policies 按字节序返回全部 policy
func (v Value) Policies() []ScriptHash {
	out := make([]ScriptHash, 0, len(v.Assets))
	for p := range v.Assets {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return bytes.Compare(out[i][:], out[j][:]) < 0 })
	return out
}

// Units 以领域 unit 形式列出（用于错误上下文与日志）
func (v Value) Units() types.Assets {
	out := types.Assets{}
	if v.Coin > 0 {
		out[types.Lovelace] = int64(v.Coin)
	}
	for p, names := range v.Assets {
		for n, q := range names {
			out[p.String()+n.Hex()] = int64(q)
		}
	}
	return out
}

func insufficient(missing Value) error {
	return types.NewError(types.ErrCodeInsufficientFunds, "inputs do not cover outputs, deposits and fee").
		WithDetail("missing", missing.Units())
}

func sortedNames(names map[AssetName]uint64) []AssetName {
	out := make([]AssetName, 0, len(names))
	for n := range names {
		out = append(out, n)
	}
	sortAssetNames(out)
	return out
}

// 规范 CBOR 键序：先长度，后字节序
func sortAssetNames(names []AssetName) {
	sort.Slice(names, func(i, j int) bool {
		if len(names[i]) != len(names[j]) {
			return len(names[i]) < len(names[j])
		}
		return names[i] < names[j]
	})
}
