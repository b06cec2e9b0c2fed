package token

import (
	"context"

	"github.com/weisyn/ledger-sdk-go/types"
)

// getBalance 查询余额实现：汇总地址上全部 UTxO 中该 unit 的数量
func (s *tokenService) getBalance(ctx context.Context, address string, unit string) (int64, error) {
	// 1. 参数验证
	if address == "" {
		return 0, types.NewError(types.ErrCodeInvalidParams, "address is required")
	}
	if unit == "" {
		unit = types.Lovelace
	}
	if s.provider == nil {
		return 0, types.NewError(types.ErrCodeInvalidParams, "no utxo provider configured")
	}

	// 2. 查询 UTxO
	utxos, err := s.provider.GetUtxos(ctx, []string{address})
	if err != nil {
		return 0, types.WrapError(types.ErrCodeProvider, "query utxos", err)
	}

	// 3. 汇总
	var total int64
	for _, u := range utxos {
		total += u.Assets[unit]
	}
	return total, nil
}
