package token

import (
	"context"

	"github.com/weisyn/ledger-sdk-go/txbuilder"
	"github.com/weisyn/ledger-sdk-go/types"
	"github.com/weisyn/ledger-sdk-go/utils"
)

// mint 资产铸造实现
//
// **流程**：
// 1. 由策略脚本计算 policy id，得到 unit
// 2. 附加策略脚本并铸造
// 3. 铸造出的资产支付到接收地址（未指定时留在找零中）
func (s *tokenService) mint(ctx context.Context, req *MintRequest) (*MintResult, error) {
	// 1. 参数验证
	if req == nil || req.Amount <= 0 {
		return nil, types.NewError(types.ErrCodeInvalidParams, "mint amount must be greater than 0")
	}
	unit, err := unitOf(req.Policy, req.AssetName)
	if err != nil {
		return nil, err
	}

	// 2. 铸造
	tx := s.builder.NewTx().
		AttachMintingPolicy(req.Policy).
		MintAssets(types.Assets{unit: req.Amount}, redeemers(req.Redeemer)...)

	// 3. 支付
	if req.To != "" {
		tx.PayToAddress(req.To, types.Assets{unit: req.Amount})
	}
	return completeMint(ctx, tx, unit)
}

// burn 资产销毁实现：铸造负数量，被销毁的资产由钱包选币提供
func (s *tokenService) burn(ctx context.Context, req *BurnRequest) (*MintResult, error) {
	if req == nil || req.Amount <= 0 {
		return nil, types.NewError(types.ErrCodeInvalidParams, "burn amount must be greater than 0")
	}
	unit, err := unitOf(req.Policy, req.AssetName)
	if err != nil {
		return nil, err
	}

	tx := s.builder.NewTx().
		AttachMintingPolicy(req.Policy).
		MintAssets(types.Assets{unit: -req.Amount}, redeemers(req.Redeemer)...)
	return completeMint(ctx, tx, unit)
}

func completeMint(ctx context.Context, tx *txbuilder.Tx, unit string) (*MintResult, error) {
	signable, err := tx.Complete(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &MintResult{
		TxHash: signable.ID(),
		Fee:    signable.Fee(),
		Unit:   unit,
		Tx:     signable,
	}, nil
}

// unitOf policy id（策略脚本哈希）拼接资产名
func unitOf(policy types.MintingPolicy, assetName string) (string, error) {
	script, err := utils.ScriptFromType(policy)
	if err != nil {
		return "", err
	}
	if _, err := utils.FromHex("asset name", assetName); err != nil {
		return "", err
	}
	return script.Hash().String() + assetName, nil
}

func redeemers(r types.Redeemer) []types.Redeemer {
	if r == "" {
		return nil
	}
	return []types.Redeemer{r}
}
