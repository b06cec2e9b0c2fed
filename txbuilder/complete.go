package txbuilder

import (
	"context"
	"time"

	"github.com/weisyn/ledger-sdk-go/ledger"
	"github.com/weisyn/ledger-sdk-go/types"
	"github.com/weisyn/ledger-sdk-go/utils"
)

// ChangeOptions 找零选项
type ChangeOptions struct {
	// Address 找零地址；为空时使用钱包地址
	Address string
	// OutputData 找零输出的 datum（Hash / AsHash / Inline 至多一个）
	OutputData types.OutputData
}

// CompleteOptions 最终化选项
//
// CoinSelection 与 EvaluateScripts 为三态：nil 表示默认开启，只有显式设为 false 才关闭。
type CompleteOptions struct {
	Change          ChangeOptions
	CoinSelection   *bool
	EvaluateScripts *bool
}

// Bool 返回 b 的指针，便于设置三态选项
func Bool(b bool) *bool {
	return &b
}

func enabled(opt *bool) bool {
	return opt == nil || *opt
}

// Complete 最终化交易
//
// **流程**：
//  1. 找零 datum 冲突时立即返回 CONFLICTING_DATUM，不执行任何任务
//  2. 按入队顺序执行全部延迟任务
//  3. 获取钱包 UTxO 与找零地址
//  4. 除非显式关闭，自动选择输入
//  5. 以找零地址（及可选 datum）平衡
//  6. 找零 datum 以 AsHash 给出时，正文加入见证集
//  7. 由账本引擎构造交易
//
// 任何失败都终止本次构建；Tx 之后不可再用。
func (t *Tx) Complete(ctx context.Context, opts *CompleteOptions) (*TxComplete, error) {
	if opts == nil {
		opts = &CompleteOptions{}
	}
	switch t.state {
	case stateDone:
		if t.err != nil {
			return nil, t.err
		}
		return nil, types.NewError(types.ErrCodeInvalidParams, "transaction can only be completed once")
	case stateDraining:
		return nil, types.NewError(types.ErrCodeInvalidParams, "complete called while the task queue is draining")
	}
	if t.err != nil {
		return nil, t.fail(t.err)
	}
	if err := checkDatumConflict(opts.Change.Address, opts.Change.OutputData); err != nil {
		return nil, t.fail(err)
	}
	if opts.Change.OutputData.ScriptRef != nil {
		return nil, t.fail(types.NewError(types.ErrCodeInvalidParams, "change output cannot carry a script reference"))
	}

	t.state = stateDraining
	start := time.Now()
	n, err := t.queue.Drain(ctx, t)
	t.b.cfg.Metrics.QueueDrained(n, time.Since(start))
	t.logger.Debug("Drained task queue", "tasks", n, "elapsed", time.Since(start))
	if err != nil {
		return nil, t.fail(err)
	}
	if t.err != nil {
		return nil, t.fail(t.err)
	}

	tx, err := t.finalize(ctx, opts)
	if err != nil {
		return nil, t.fail(err)
	}
	t.state = stateDone

	artifact := newTxComplete(t.id, tx)
	t.b.cfg.Metrics.BuildCompleted()
	t.logger.Info("Transaction built",
		"txId", artifact.ID(),
		"fee", artifact.Fee(),
		"inputs", len(tx.Inputs),
		"outputs", len(tx.Outputs),
		"bytes", len(tx.CBOR),
	)
	return artifact, nil
}

func (t *Tx) finalize(ctx context.Context, opts *CompleteOptions) (*ledger.Transaction, error) {
	if t.b.wallet == nil {
		return nil, types.NewError(types.ErrCodeInvalidParams, "no wallet configured")
	}
	walletUtxos, err := t.b.wallet.GetUtxos(ctx)
	if err != nil {
		return nil, types.WrapError(types.ErrCodeProvider, "query wallet utxos", err)
	}
	available, err := utils.UtxosFromDomain(walletUtxos)
	if err != nil {
		return nil, err
	}

	changeAddress := opts.Change.Address
	if changeAddress == "" {
		if changeAddress, err = t.b.wallet.Address(ctx); err != nil {
			return nil, types.WrapError(types.ErrCodeProvider, "query wallet address", err)
		}
	}
	change, err := utils.AddressFromWithNetworkCheck(changeAddress, t.network)
	if err != nil {
		return nil, err
	}

	if enabled(opts.CoinSelection) {
		if err := t.engine.AddInputsFrom(available, change); err != nil {
			return nil, err
		}
	}

	changeDatum, witnessData, err := changeDatumOf(opts.Change.OutputData)
	if err != nil {
		return nil, err
	}
	if err := t.engine.Balance(change, changeDatum); err != nil {
		return nil, err
	}
	if witnessData != nil {
		if err := t.engine.AddPlutusData(witnessData); err != nil {
			return nil, err
		}
	}

	return t.engine.Construct(available, change, ledger.ConstructOptions{
		EvaluateScripts: enabled(opts.EvaluateScripts),
	})
}

// changeDatumOf 找零 datum；AsHash 时同时返回需加入见证集的正文
func changeDatumOf(data types.OutputData) (*ledger.Datum, ledger.PlutusData, error) {
	switch {
	case data.Hash != "":
		h, err := utils.DataHashFromHex(data.Hash)
		if err != nil {
			return nil, nil, err
		}
		return ledger.DatumFromHash(h), nil, nil
	case data.AsHash != "":
		d, err := utils.PlutusDataFromHex("change datum", data.AsHash)
		if err != nil {
			return nil, nil, err
		}
		return ledger.DatumFromHash(d.Hash()), d, nil
	case data.Inline != "":
		d, err := utils.PlutusDataFromHex("change datum", data.Inline)
		if err != nil {
			return nil, nil, err
		}
		return ledger.InlineDatum(d), nil, nil
	}
	return nil, nil, nil
}

// fail 结束构建并记录失败
func (t *Tx) fail(err error) error {
	if t.err == nil {
		t.err = err
	}
	t.state = stateDone
	code := types.CodeOf(err)
	t.b.cfg.Metrics.BuildFailed(string(code))
	t.logger.Warn("Transaction build failed", "code", code, "error", err)
	return err
}
