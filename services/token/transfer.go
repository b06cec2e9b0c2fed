package token

import (
	"context"

	"github.com/weisyn/ledger-sdk-go/txbuilder"
	"github.com/weisyn/ledger-sdk-go/types"
)

// memoLabel 交易附言的元数据 label
const memoLabel = 674

// transfer 单笔转账实现
//
// **流程**：
// 1. 参数验证
// 2. 添加支付输出（可选附言）
// 3. Complete：钱包选币、找零、计算手续费
func (s *tokenService) transfer(ctx context.Context, req *TransferRequest) (*TransferResult, error) {
	// 1. 参数验证
	if req == nil || req.To == "" {
		return nil, types.NewError(types.ErrCodeInvalidParams, "recipient address is required")
	}
	if err := validateAssets(req.Assets); err != nil {
		return nil, err
	}

	// 2. 构建输出
	tx := s.builder.NewTx().PayToAddress(req.To, req.Assets)
	if len(req.Metadata) > 0 {
		msg := make([]interface{}, len(req.Metadata))
		for i, m := range req.Metadata {
			msg[i] = m
		}
		tx.AttachMetadata(memoLabel, map[string]interface{}{"msg": msg})
	}

	// 3. 最终化
	return complete(ctx, tx, req.ChangeAddress)
}

// batchTransfer 批量转账实现
func (s *tokenService) batchTransfer(ctx context.Context, req *BatchTransferRequest) (*TransferResult, error) {
	if req == nil || len(req.Transfers) == 0 {
		return nil, types.NewError(types.ErrCodeInvalidParams, "transfers cannot be empty")
	}

	tx := s.builder.NewTx()
	for i, item := range req.Transfers {
		if item.To == "" {
			return nil, types.Errorf(types.ErrCodeInvalidParams, "transfer %d: recipient address is required", i)
		}
		if err := validateAssets(item.Assets); err != nil {
			return nil, err
		}
		tx.PayToAddress(item.To, item.Assets)
	}
	return complete(ctx, tx, req.ChangeAddress)
}

func complete(ctx context.Context, tx *txbuilder.Tx, changeAddress string) (*TransferResult, error) {
	signable, err := tx.Complete(ctx, &txbuilder.CompleteOptions{
		Change: txbuilder.ChangeOptions{Address: changeAddress},
	})
	if err != nil {
		return nil, err
	}
	return &TransferResult{
		TxHash: signable.ID(),
		Fee:    signable.Fee(),
		Tx:     signable,
	}, nil
}

// validateAssets 转账金额必须为正
func validateAssets(assets types.Assets) error {
	if len(assets) == 0 {
		return types.NewError(types.ErrCodeInvalidParams, "assets cannot be empty")
	}
	for unit, qty := range assets {
		if qty <= 0 {
			return types.Errorf(types.ErrCodeInvalidParams, "amount must be greater than 0").
				WithDetail("unit", unit)
		}
	}
	return nil
}
