package staking

import (
	"context"

	"github.com/weisyn/ledger-sdk-go/types"
)

// registerPool 矿池注册 / 更新实现
//
// 每个 owner 都必须签名；owner 解析与元数据哈希在 Complete 中完成。
func (s *stakingService) registerPool(ctx context.Context, req *RegisterPoolRequest) (*Result, error) {
	if req == nil || req.Params.PoolID == "" {
		return nil, types.NewError(types.ErrCodeInvalidParams, "pool id is required")
	}

	tx := s.builder.NewTx()
	if req.Update {
		tx.UpdatePool(req.Params)
	} else {
		tx.RegisterPool(req.Params)
	}
	return complete(ctx, tx)
}

// retirePool 矿池退役实现
func (s *stakingService) retirePool(ctx context.Context, req *RetirePoolRequest) (*Result, error) {
	if req == nil || req.PoolID == "" {
		return nil, types.NewError(types.ErrCodeInvalidParams, "pool id is required")
	}
	if req.Epoch == 0 {
		return nil, types.NewError(types.ErrCodeInvalidParams, "retirement epoch must be greater than 0")
	}
	return complete(ctx, s.builder.NewTx().RetirePool(req.PoolID, req.Epoch))
}
