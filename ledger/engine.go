package ledger

import (
	"encoding/hex"

	"github.com/shopspring/decimal"
)

// Engine 账本序列化引擎
//
// 接收规范原语并负责二进制编码、输入选择、费用计算与平衡。
// 与目标链编码的逐位兼容完全由实现方负责；txbuilder 只驱动调用顺序。
type Engine interface {
	AddInput(utxo Utxo, witness *ScriptWitness) error
	AddReferenceInput(utxo Utxo) error
	AddOutput(out TransactionOutput) error
	AddMint(policy ScriptHash, assets MintAssets, witness *ScriptWitness) error
	AddCertificate(cert Certificate, witness *ScriptWitness) error
	AddWithdrawal(account Address, amount uint64, witness *ScriptWitness) error
	AddRequiredSigner(keyHash KeyHash) error
	SetValidityStart(slot uint64)
	SetTTL(slot uint64)
	AddMetadatum(label uint64, value Metadatum) error
	AddScript(script Script) error
	AddPlutusData(data PlutusData) error

	// AddInputsFrom 从可用 UTxO 中自动选择输入
	AddInputsFrom(available []Utxo, change Address) error
	// Balance 计算找零并确定手续费；不足时返回 INSUFFICIENT_FUNDS
	Balance(change Address, changeDatum *Datum) error
	// Construct 产出不可变的交易
	Construct(available []Utxo, change Address, opts ConstructOptions) (*Transaction, error)
}

// ConstructOptions 构造选项
type ConstructOptions struct {
	// EvaluateScripts 为 true 且引擎配置了 ScriptEvaluator 时，用评估结果替换默认执行预算
	EvaluateScripts bool
}

// ScriptEvaluator 脚本执行预算评估器（外部协作方）
type ScriptEvaluator interface {
	Evaluate(txCBOR []byte, resolved []Utxo) ([]Redeemer, error)
}

// ProtocolParams 费用与押金相关的协议参数
type ProtocolParams struct {
	MinFeeA           uint64          `yaml:"minFeeA"`
	MinFeeB           uint64          `yaml:"minFeeB"`
	CoinsPerUTxOByte  uint64          `yaml:"coinsPerUtxoByte"`
	KeyDeposit        uint64          `yaml:"keyDeposit"`
	PoolDeposit       uint64          `yaml:"poolDeposit"`
	MaxTxSize         uint64          `yaml:"maxTxSize"`
	CollateralPercent uint64          `yaml:"collateralPercent"`
	PriceMem          decimal.Decimal `yaml:"priceMem"`
	PriceStep         decimal.Decimal `yaml:"priceStep"`
	DefaultExUnits    ExUnits         `yaml:"defaultExUnits"`

	// CostModels 按脚本语言给出成本模型，参与 script data hash 的 language views
	CostModels map[ScriptLanguage][]int64 `yaml:"costModels"`
}

// DefaultProtocolParams 主网当前参数
func DefaultProtocolParams() ProtocolParams {
	return ProtocolParams{
		MinFeeA:           44,
		MinFeeB:           155381,
		CoinsPerUTxOByte:  4310,
		KeyDeposit:        2_000_000,
		PoolDeposit:       500_000_000,
		MaxTxSize:         16384,
		CollateralPercent: 150,
		PriceMem:          decimal.RequireFromString("0.0577"),
		PriceStep:         decimal.RequireFromString("0.0000721"),
		DefaultExUnits:    ExUnits{Mem: 7_000_000, Steps: 3_000_000_000},
	}
}

// Transaction 已平衡、未签名的交易
type Transaction struct {
	ID         TxID
	Fee        uint64
	Inputs     []TransactionInput
	Outputs    []TransactionOutput
	Collateral []TransactionInput
	Redeemers  []Redeemer
	BodyCBOR   []byte
	CBOR       []byte
}

// Hex 完整交易 CBOR 的 hex
func (t *Transaction) Hex() string {
	return hex.EncodeToString(t.CBOR)
}
