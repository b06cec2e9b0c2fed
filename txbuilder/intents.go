package txbuilder

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/weisyn/ledger-sdk-go/ledger"
	"github.com/weisyn/ledger-sdk-go/types"
	"github.com/weisyn/ledger-sdk-go/utils"
)

// redeemerWitness 解析可选 redeemer；未提供时返回 nil 见证
func redeemerWitness(redeemer []types.Redeemer) (*ledger.ScriptWitness, error) {
	if len(redeemer) > 1 {
		return nil, types.Errorf(types.ErrCodeInvalidParams, "at most one redeemer expected, got %d", len(redeemer))
	}
	if len(redeemer) == 0 || redeemer[0] == "" {
		return nil, nil
	}
	data, err := utils.PlutusDataFromHex("redeemer", redeemer[0])
	if err != nil {
		return nil, err
	}
	return &ledger.ScriptWitness{Redeemer: data}, nil
}

// ReadFrom 添加引用输入
//
// 缺少 datum 正文的 UTxO 在 Complete 时通过 DatumLookup 解析；
// 按哈希引用的 datum 正文加入见证集，供脚本解引用。
func (t *Tx) ReadFrom(utxos []types.UTxO) *Tx {
	return t.enqueue("readFrom", func() (Task[*Tx], error) {
		converted, err := utils.UtxosFromDomain(utxos)
		if err != nil {
			return nil, err
		}
		return &inputsTask{utxos: utxos, converted: converted, reference: true}, nil
	})
}

// CollectFrom 花费 UTxO
//
// 提供 redeemer 时为每个输入附加脚本见证（redeemer 以及按哈希引用的 datum 正文）。
func (t *Tx) CollectFrom(utxos []types.UTxO, redeemer ...types.Redeemer) *Tx {
	return t.enqueue("collectFrom", func() (Task[*Tx], error) {
		witness, err := redeemerWitness(redeemer)
		if err != nil {
			return nil, err
		}
		converted, err := utils.UtxosFromDomain(utxos)
		if err != nil {
			return nil, err
		}
		return &inputsTask{utxos: utxos, converted: converted, witness: witness}, nil
	})
}

// MintAssets 铸造（数量为负时销毁）
//
// 所有 unit 必须属于同一个 policy id，否则立即返回 MIXED_POLICY。
func (t *Tx) MintAssets(assets types.Assets, redeemer ...types.Redeemer) *Tx {
	return t.apply("mintAssets", func() error {
		policy, mint, err := utils.MintFromAssets(assets)
		if err != nil {
			return err
		}
		witness, err := redeemerWitness(redeemer)
		if err != nil {
			return err
		}
		return t.engine.AddMint(policy, mint, witness)
	})
}

// PayToAddress 普通支付输出
func (t *Tx) PayToAddress(address string, assets types.Assets) *Tx {
	return t.apply("payToAddress", func() error {
		out, err := t.output(address, assets)
		if err != nil {
			return err
		}
		return t.engine.AddOutput(out)
	})
}

// PayToAddressWithData 带 datum 和/或引用脚本的支付输出
//
// AsHash：输出记录 datum hash，正文加入见证集；Inline：datum 内联在输出中；
// Hash：仅记录调用方给出的 datum hash。三者至多设置一个，否则返回 CONFLICTING_DATUM。
func (t *Tx) PayToAddressWithData(address string, data types.OutputData, assets types.Assets) *Tx {
	return t.apply("payToAddressWithData", func() error {
		return t.payWithData(address, data, assets)
	})
}

// PayToContract 支付到脚本地址；必须携带 datum，否则输出永远无法花费
func (t *Tx) PayToContract(address string, data types.OutputData, assets types.Assets) *Tx {
	return t.apply("payToContract", func() error {
		if data.AsHash == "" && data.Inline == "" && data.Hash == "" {
			return types.NewError(types.ErrCodeUnspendableOutput, "no datum set for script output").
				WithDetail("address", address)
		}
		return t.payWithData(address, data, assets)
	})
}

func (t *Tx) payWithData(address string, data types.OutputData, assets types.Assets) error {
	if err := checkDatumConflict(address, data); err != nil {
		return err
	}
	out, err := t.output(address, assets)
	if err != nil {
		return err
	}

	var witnessData ledger.PlutusData
	switch {
	case data.Hash != "":
		h, err := utils.DataHashFromHex(data.Hash)
		if err != nil {
			return err
		}
		out.Datum = ledger.DatumFromHash(h)
	case data.AsHash != "":
		d, err := utils.PlutusDataFromHex("datum", data.AsHash)
		if err != nil {
			return err
		}
		out.Datum = ledger.DatumFromHash(d.Hash())
		witnessData = d
	case data.Inline != "":
		d, err := utils.PlutusDataFromHex("inline datum", data.Inline)
		if err != nil {
			return err
		}
		out.Datum = ledger.InlineDatum(d)
	}

	if data.ScriptRef != nil {
		s, err := utils.ScriptFromType(*data.ScriptRef)
		if err != nil {
			return err
		}
		out.ScriptRef = &s
	}

	if err := t.engine.AddOutput(out); err != nil {
		return err
	}
	if witnessData != nil {
		return t.engine.AddPlutusData(witnessData)
	}
	return nil
}

// checkDatumConflict datum hash 与 inline datum 互斥
func checkDatumConflict(address string, data types.OutputData) error {
	set := 0
	for _, v := range []string{data.Hash, data.AsHash, data.Inline} {
		if v != "" {
			set++
		}
	}
	if set <= 1 {
		return nil
	}
	err := types.NewError(types.ErrCodeConflictingDatum, "datum hash and inline datum are mutually exclusive")
	if address != "" {
		err.WithDetail("address", address)
	}
	if data.Hash != "" {
		err.WithDetail("hash", data.Hash)
	}
	if data.AsHash != "" {
		err.WithDetail("asHash", data.AsHash)
	}
	if data.Inline != "" {
		err.WithDetail("inline", data.Inline)
	}
	return err
}

func (t *Tx) output(address string, assets types.Assets) (ledger.TransactionOutput, error) {
	addr, err := utils.AddressFromWithNetworkCheck(address, t.network)
	if err != nil {
		return ledger.TransactionOutput{}, err
	}
	value, err := utils.ValueFromAssets(assets)
	if err != nil {
		return ledger.TransactionOutput{}, err
	}
	return ledger.TransactionOutput{Address: addr, Amount: value}, nil
}

// DelegateTo 委托到矿池
func (t *Tx) DelegateTo(rewardAddress string, poolID string, redeemer ...types.Redeemer) *Tx {
	return t.apply("delegateTo", func() error {
		_, cred, err := utils.RewardAddressFrom(rewardAddress, t.network)
		if err != nil {
			return err
		}
		pool, err := utils.PoolIDToKeyHash(poolID)
		if err != nil {
			return err
		}
		witness, err := redeemerWitness(redeemer)
		if err != nil {
			return err
		}
		return t.engine.AddCertificate(ledger.StakeDelegation{Credential: cred, Pool: pool}, witness)
	})
}

// RegisterStake 注册质押凭证（不接受 redeemer）
func (t *Tx) RegisterStake(rewardAddress string) *Tx {
	return t.apply("registerStake", func() error {
		_, cred, err := utils.RewardAddressFrom(rewardAddress, t.network)
		if err != nil {
			return err
		}
		return t.engine.AddCertificate(ledger.StakeRegistration{Credential: cred}, nil)
	})
}

// DeregisterStake 注销质押凭证
func (t *Tx) DeregisterStake(rewardAddress string, redeemer ...types.Redeemer) *Tx {
	return t.apply("deregisterStake", func() error {
		_, cred, err := utils.RewardAddressFrom(rewardAddress, t.network)
		if err != nil {
			return err
		}
		witness, err := redeemerWitness(redeemer)
		if err != nil {
			return err
		}
		return t.engine.AddCertificate(ledger.StakeDeregistration{Credential: cred}, witness)
	})
}

// Withdraw 提取奖励
func (t *Tx) Withdraw(rewardAddress string, amount uint64, redeemer ...types.Redeemer) *Tx {
	return t.apply("withdraw", func() error {
		account, _, err := utils.RewardAddressFrom(rewardAddress, t.network)
		if err != nil {
			return err
		}
		witness, err := redeemerWitness(redeemer)
		if err != nil {
			return err
		}
		return t.engine.AddWithdrawal(account, amount, witness)
	})
}

// RegisterPool 注册矿池
//
// owner 解析、元数据获取与哈希在 Complete 时执行。
func (t *Tx) RegisterPool(params types.PoolParams) *Tx {
	return t.enqueue("registerPool", func() (Task[*Tx], error) {
		return &poolTask{params: params}, nil
	})
}

// UpdatePool 更新矿池参数（不收取押金）
func (t *Tx) UpdatePool(params types.PoolParams) *Tx {
	return t.enqueue("updatePool", func() (Task[*Tx], error) {
		return &poolTask{params: params, update: true}, nil
	})
}

// RetirePool 矿池在 epoch 退役
func (t *Tx) RetirePool(poolID string, epoch uint64) *Tx {
	return t.apply("retirePool", func() error {
		pool, err := utils.PoolIDToKeyHash(poolID)
		if err != nil {
			return err
		}
		return t.engine.AddCertificate(ledger.PoolRetirement{Pool: pool, Epoch: epoch}, nil)
	})
}

// AddSigner 添加必需签名者
//
// 奖励地址取 stake 凭证，其他地址取支付凭证；脚本凭证返回 UNSUPPORTED_CREDENTIAL_TYPE。
func (t *Tx) AddSigner(address string) *Tx {
	return t.apply("addSigner", func() error {
		kh, err := utils.SignerKeyHash(address, t.network)
		if err != nil {
			return err
		}
		return t.engine.AddRequiredSigner(kh)
	})
}

// AddSignerKey 按 key hash（hex）添加必需签名者
func (t *Tx) AddSignerKey(keyHash string) *Tx {
	return t.apply("addSignerKey", func() error {
		kh, err := utils.KeyHashFromHex(keyHash)
		if err != nil {
			return err
		}
		return t.engine.AddRequiredSigner(kh)
	})
}

// ValidFrom 有效期下界（Unix 毫秒）
func (t *Tx) ValidFrom(unixTime int64) *Tx {
	return t.apply("validFrom", func() error {
		slot, err := t.toSlot(unixTime)
		if err != nil {
			return err
		}
		t.engine.SetValidityStart(slot)
		return nil
	})
}

// ValidTo 有效期上界（Unix 毫秒）
func (t *Tx) ValidTo(unixTime int64) *Tx {
	return t.apply("validTo", func() error {
		slot, err := t.toSlot(unixTime)
		if err != nil {
			return err
		}
		t.engine.SetTTL(slot)
		return nil
	})
}

func (t *Tx) toSlot(unixTime int64) (uint64, error) {
	if t.b.slots == nil {
		return 0, types.Errorf(types.ErrCodeInvalidParams, "no slot converter for network %s", t.network)
	}
	return t.b.slots.UnixTimeToSlot(unixTime)
}

// AttachMetadata 附加元数据
func (t *Tx) AttachMetadata(label uint64, metadata interface{}) *Tx {
	return t.apply("attachMetadata", func() error {
		return t.attachMetadata(label, metadata, false)
	})
}

// AttachMetadataWithConversion 附加元数据；"0x" 开头的字符串按字节串处理
func (t *Tx) AttachMetadataWithConversion(label uint64, metadata interface{}) *Tx {
	return t.apply("attachMetadataWithConversion", func() error {
		return t.attachMetadata(label, metadata, true)
	})
}

func (t *Tx) attachMetadata(label uint64, metadata interface{}, convert bool) error {
	m, err := utils.MetadatumFromJSON(metadata, convert)
	if err != nil {
		var txErr *types.TxError
		if errors.As(err, &txErr) {
			txErr.WithDetail("label", label)
		}
		return err
	}
	return t.engine.AddMetadatum(label, m)
}

// AttachSpendingValidator 附加花费脚本
func (t *Tx) AttachSpendingValidator(script types.SpendingValidator) *Tx {
	return t.apply("attachSpendingValidator", func() error { return t.attachScript(script) })
}

// AttachMintingPolicy 附加铸造策略
func (t *Tx) AttachMintingPolicy(script types.MintingPolicy) *Tx {
	return t.apply("attachMintingPolicy", func() error { return t.attachScript(script) })
}

// AttachCertificateValidator 附加证书脚本
func (t *Tx) AttachCertificateValidator(script types.CertificateValidator) *Tx {
	return t.apply("attachCertificateValidator", func() error { return t.attachScript(script) })
}

// AttachWithdrawalValidator 附加提取脚本
func (t *Tx) AttachWithdrawalValidator(script types.WithdrawalValidator) *Tx {
	return t.apply("attachWithdrawalValidator", func() error { return t.attachScript(script) })
}

func (t *Tx) attachScript(script types.Script) error {
	s, err := utils.ScriptFromType(script)
	if err != nil {
		return err
	}
	return t.engine.AddScript(s)
}

// ApplyIf 条件成立时登记回调，回调在 Complete 中按入队顺序对本构建执行
func (t *Tx) ApplyIf(condition bool, callback func(tx *Tx)) *Tx {
	if !condition {
		return t
	}
	return t.enqueue("applyIf", func() (Task[*Tx], error) {
		if callback == nil {
			return nil, types.NewError(types.ErrCodeInvalidParams, "applyIf callback is nil")
		}
		return &applyTask{fn: callback}, nil
	})
}

// inputsTask 解析缺失的 datum 正文并添加（引用）输入
type inputsTask struct {
	utxos     []types.UTxO
	converted []ledger.Utxo
	witness   *ledger.ScriptWitness
	reference bool
}

func (k *inputsTask) Name() string {
	if k.reference {
		return "readFrom"
	}
	return "collectFrom"
}

func (k *inputsTask) Run(ctx context.Context, t *Tx) error {
	for i, u := range k.utxos {
		body, err := t.datumBody(ctx, u)
		if err != nil {
			return err
		}
		if k.reference {
			if err := t.engine.AddReferenceInput(k.converted[i]); err != nil {
				return err
			}
			if body != nil {
				if err := t.engine.AddPlutusData(body); err != nil {
					return err
				}
			}
			continue
		}

		var witness *ledger.ScriptWitness
		if k.witness != nil {
			witness = &ledger.ScriptWitness{Redeemer: k.witness.Redeemer, Datum: body}
		}
		if err := t.engine.AddInput(k.converted[i], witness); err != nil {
			return err
		}
	}
	return nil
}

// datumBody 按哈希引用的 datum 正文；内联或无 datum 时返回 nil
func (t *Tx) datumBody(ctx context.Context, u types.UTxO) (ledger.PlutusData, error) {
	if u.DatumHash == "" {
		return nil, nil
	}
	datum := u.Datum
	if u.NeedsDatum() {
		if t.b.datums == nil {
			return nil, types.NewError(types.ErrCodeDatumNotFound, "no datum lookup configured").
				WithDetail("datumHash", u.DatumHash).
				WithDetail("outRef", u.OutRef().String())
		}
		d, err := t.b.datums.LookupDatum(ctx, u)
		if err != nil {
			return nil, types.WrapError(types.ErrCodeDatumNotFound, "lookup datum", err)
		}
		datum = d
		t.logger.Debug("Resolved datum", "outRef", u.OutRef().String())
	}

	body, err := utils.PlutusDataFromHex("datum", datum)
	if err != nil {
		return nil, err
	}
	if got := body.Hash().String(); !strings.EqualFold(got, strings.TrimPrefix(u.DatumHash, "0x")) {
		return nil, types.MalformedEncoding("datum", fmt.Errorf("body hashes to %s", got)).
			WithDetail("datumHash", u.DatumHash).
			WithDetail("outRef", u.OutRef().String())
	}
	return body, nil
}

// applyTask ApplyIf 登记的回调
type applyTask struct {
	fn func(tx *Tx)
}

func (applyTask) Name() string { return "applyIf" }

func (k *applyTask) Run(_ context.Context, t *Tx) error {
	k.fn(t)
	return t.err
}
