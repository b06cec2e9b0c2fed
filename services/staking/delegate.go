package staking

import (
	"context"

	"github.com/weisyn/ledger-sdk-go/txbuilder"
	"github.com/weisyn/ledger-sdk-go/types"
)

// delegate 委托实现
//
// **流程**：
// 1. 解析奖励地址（请求或钱包）
// 2. 需要时先注册质押凭证（收取押金）
// 3. 添加委托证书
// 4. 添加奖励地址的签名要求，交由 Complete 平衡
func (s *stakingService) delegate(ctx context.Context, req *DelegateRequest) (*Result, error) {
	// 1. 参数验证
	if req == nil || req.PoolID == "" {
		return nil, types.NewError(types.ErrCodeInvalidParams, "pool id is required")
	}
	reward, err := s.rewardAddress(ctx, req.RewardAddress)
	if err != nil {
		return nil, err
	}

	// 2. 构建证书
	tx := s.builder.NewTx()
	if req.Register {
		tx.RegisterStake(reward)
	}
	tx.DelegateTo(reward, req.PoolID, redeemers(req.Redeemer)...)

	// 3. 脚本凭证由 redeemer 授权，不需要 key 签名
	tx.ApplyIf(req.Redeemer == "", func(tx *txbuilder.Tx) { tx.AddSigner(reward) })
	return complete(ctx, tx)
}

// undelegate 注销实现：可选先提取剩余奖励
func (s *stakingService) undelegate(ctx context.Context, req *UndelegateRequest) (*Result, error) {
	if req == nil {
		req = &UndelegateRequest{}
	}
	reward, err := s.rewardAddress(ctx, req.RewardAddress)
	if err != nil {
		return nil, err
	}

	tx := s.builder.NewTx()
	if req.Withdraw > 0 {
		tx.Withdraw(reward, req.Withdraw, redeemers(req.Redeemer)...)
	}
	tx.DeregisterStake(reward, redeemers(req.Redeemer)...)
	tx.ApplyIf(req.Redeemer == "", func(tx *txbuilder.Tx) { tx.AddSigner(reward) })
	return complete(ctx, tx)
}

// claimReward 提取奖励实现
func (s *stakingService) claimReward(ctx context.Context, req *ClaimRewardRequest) (*Result, error) {
	if req == nil || req.Amount == 0 {
		return nil, types.NewError(types.ErrCodeInvalidParams, "reward amount must be greater than 0")
	}
	reward, err := s.rewardAddress(ctx, req.RewardAddress)
	if err != nil {
		return nil, err
	}

	tx := s.builder.NewTx().Withdraw(reward, req.Amount, redeemers(req.Redeemer)...)
	tx.ApplyIf(req.Redeemer == "", func(tx *txbuilder.Tx) { tx.AddSigner(reward) })
	return complete(ctx, tx)
}
