// Package provider 链后端协作方：UTxO 查询、datum 查询与矿池元数据获取
package provider

import (
	"context"

	"github.com/weisyn/ledger-sdk-go/types"
)

// UTxOProvider UTxO 查询接口
type UTxOProvider interface {
	// GetUtxos 查询地址上的全部 UTxO；结果顺序与后端一致
	GetUtxos(ctx context.Context, addresses []string) ([]types.UTxO, error)
}

// Static 固定 UTxO 集合的提供方（离线构建与测试）
type Static struct {
	utxos []types.UTxO
}

// NewStatic 创建固定集合提供方
func NewStatic(utxos ...types.UTxO) *Static {
	return &Static{utxos: append([]types.UTxO(nil), utxos...)}
}

// GetUtxos 按地址过滤
func (s *Static) GetUtxos(_ context.Context, addresses []string) ([]types.UTxO, error) {
	want := make(map[string]bool, len(addresses))
	for _, a := range addresses {
		want[a] = true
	}
	out := make([]types.UTxO, 0, len(s.utxos))
	for _, u := range s.utxos {
		if want[u.Address] {
			out = append(out, u)
		}
	}
	return out, nil
}

// LookupDatum 在固定集合中按 datum hash 查找已知正文
func (s *Static) LookupDatum(_ context.Context, utxo types.UTxO) (types.Datum, error) {
	for _, u := range s.utxos {
		if u.DatumHash == utxo.DatumHash && u.Datum != "" {
			return u.Datum, nil
		}
	}
	return "", datumNotFound(utxo)
}

func datumNotFound(utxo types.UTxO) error {
	return types.NewError(types.ErrCodeDatumNotFound, "datum not found").
		WithDetail("datumHash", utxo.DatumHash).
		WithDetail("outRef", utxo.OutRef().String())
}

// dedupeAddresses 去重并保持顺序
func dedupeAddresses(addresses []string) []string {
	seen := make(map[string]bool, len(addresses))
	out := make([]string, 0, len(addresses))
	for _, a := range addresses {
		if !seen[a] {
			seen[a] = true
			out = append(out, a)
		}
	}
	return out
}

// flatten 合并分批结果
func flatten(chunks [][]types.UTxO) []types.UTxO {
	n := 0
	for _, c := range chunks {
		n += len(c)
	}
	out := make([]types.UTxO, 0, n)
	for _, c := range chunks {
		out = append(out, c...)
	}
	return out
}
