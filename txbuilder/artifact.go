package txbuilder

import (
	"encoding/hex"

	"github.com/weisyn/ledger-sdk-go/ledger"
)

// TxComplete 已平衡、未签名的交易
//
// 不可变：所有访问器返回副本。
type TxComplete struct {
	buildID string
	tx      ledger.Transaction
}

func newTxComplete(buildID string, tx *ledger.Transaction) *TxComplete {
	return &TxComplete{buildID: buildID, tx: *tx}
}

// BuildID 产生该交易的构建标识
func (c *TxComplete) BuildID() string { return c.buildID }

// ID 交易哈希（hex）
func (c *TxComplete) ID() string { return c.tx.ID.String() }

// Fee 手续费（lovelace）
func (c *TxComplete) Fee() uint64 { return c.tx.Fee }

// CBOR 完整交易的 CBOR 编码
func (c *TxComplete) CBOR() []byte { return append([]byte(nil), c.tx.CBOR...) }

// ToHex 完整交易 CBOR 的 hex
func (c *TxComplete) ToHex() string { return hex.EncodeToString(c.tx.CBOR) }

// Body 交易体的 CBOR 编码（签名对象为其 blake2b-256）
func (c *TxComplete) Body() []byte { return append([]byte(nil), c.tx.BodyCBOR...) }

// Inputs 花费的输入（已排序）
func (c *TxComplete) Inputs() []ledger.TransactionInput {
	return append([]ledger.TransactionInput(nil), c.tx.Inputs...)
}

// Outputs 全部输出，找零在最后
func (c *TxComplete) Outputs() []ledger.TransactionOutput {
	return append([]ledger.TransactionOutput(nil), c.tx.Outputs...)
}

// Collateral 抵押品输入
func (c *TxComplete) Collateral() []ledger.TransactionInput {
	return append([]ledger.TransactionInput(nil), c.tx.Collateral...)
}

// Redeemers 带执行预算的 redeemer
func (c *TxComplete) Redeemers() []ledger.Redeemer {
	return append([]ledger.Redeemer(nil), c.tx.Redeemers...)
}
