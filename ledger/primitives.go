// Package ledger 定义账本规范原语（凭证、价值、脚本、datum、证书）以及
// 交易序列化引擎的接口约定。
//
// 领域对象（bech32 地址、资产映射、hex 载荷）由 utils 包解析为本包的原语后，
// 交给 Engine 完成输入选择、平衡与构造。
package ledger

import (
	"encoding/hex"

	"golang.org/x/crypto/blake2b"
)

// 哈希长度
const (
	Hash28Size = 28
	Hash32Size = 32
)

// KeyHash 公钥哈希（blake2b-224）
type KeyHash [Hash28Size]byte

func (h KeyHash) String() string { return hex.EncodeToString(h[:]) }

// ScriptHash 脚本哈希（blake2b-224），同时用作 policy id
type ScriptHash [Hash28Size]byte

func (h ScriptHash) String() string { return hex.EncodeToString(h[:]) }

// Hash32 32 字节哈希（datum hash、交易 ID、VRF key hash、元数据哈希）
type Hash32 [Hash32Size]byte

func (h Hash32) String() string { return hex.EncodeToString(h[:]) }

type (
	DataHash   = Hash32
	TxID       = Hash32
	VRFKeyHash = Hash32
)

// Blake2b224 计算 28 字节哈希
func Blake2b224(data []byte) [Hash28Size]byte {
	h, _ := blake2b.New(Hash28Size, nil)
	h.Write(data)
	var out [Hash28Size]byte
	copy(out[:], h.Sum(nil))
	return out
}

// Blake2b256 计算 32 字节哈希
func Blake2b256(data []byte) Hash32 {
	return blake2b.Sum256(data)
}

// CredentialType 凭证类型
type CredentialType uint8

const (
	CredentialKey    CredentialType = 0
	CredentialScript CredentialType = 1
)

func (t CredentialType) String() string {
	if t == CredentialScript {
		return "Script"
	}
	return "Key"
}

// Credential 凭证：key hash 或 script hash
type Credential struct {
	Type CredentialType
	Hash [Hash28Size]byte
}

// KeyCredential 由 key hash 构造凭证
func KeyCredential(h KeyHash) Credential {
	return Credential{Type: CredentialKey, Hash: h}
}

// ScriptCredential 由 script hash 构造凭证
func ScriptCredential(h ScriptHash) Credential {
	return Credential{Type: CredentialScript, Hash: h}
}

// IsKey 是否可签名
func (c Credential) IsKey() bool { return c.Type == CredentialKey }

// KeyHash 以 key hash 形式返回
func (c Credential) KeyHash() KeyHash { return KeyHash(c.Hash) }

// HashHex 哈希的 hex 表示
func (c Credential) HashHex() string { return hex.EncodeToString(c.Hash[:]) }

// PlutusData 原始 CBOR 编码的 Plutus data
type PlutusData []byte

// Hash datum hash
func (d PlutusData) Hash() DataHash { return Blake2b256(d) }

// DatumKind 输出 datum 选项
type DatumKind uint8

const (
	DatumOptionHash   DatumKind = 0
	DatumOptionInline DatumKind = 1
)

// Datum 输出 datum：按哈希或内联
type Datum struct {
	Kind DatumKind
	Hash DataHash
	Data PlutusData
}

// DatumFromHash 按哈希引用 datum
func DatumFromHash(h DataHash) *Datum {
	return &Datum{Kind: DatumOptionHash, Hash: h}
}

// InlineDatum 内联 datum
func InlineDatum(d PlutusData) *Datum {
	return &Datum{Kind: DatumOptionInline, Data: d}
}

// ScriptLanguage 脚本语言（数值即哈希前缀标签）
type ScriptLanguage uint8

const (
	LanguageNative   ScriptLanguage = 0
	LanguagePlutusV1 ScriptLanguage = 1
	LanguagePlutusV2 ScriptLanguage = 2
)

func (l ScriptLanguage) String() string {
	switch l {
	case LanguageNative:
		return "Native"
	case LanguagePlutusV1:
		return "PlutusV1"
	case LanguagePlutusV2:
		return "PlutusV2"
	}
	return "Unknown"
}

// Script 账本脚本
//
// Native 脚本的 Bytes 为脚本结构的 CBOR；Plutus 脚本的 Bytes 为单层 CBOR
// 包装的 flat 程序（见证集中再包一层 bytes）。
type Script struct {
	Language ScriptLanguage
	Bytes    []byte
}

// Hash 脚本哈希 = blake2b-224(语言标签 || 脚本字节)
func (s Script) Hash() ScriptHash {
	buf := make([]byte, 0, len(s.Bytes)+1)
	buf = append(buf, byte(s.Language))
	buf = append(buf, s.Bytes...)
	return Blake2b224(buf)
}

// IsPlutus 是否为 Plutus 脚本
func (s Script) IsPlutus() bool { return s.Language != LanguageNative }

// TransactionInput 输入引用
type TransactionInput struct {
	TxID  TxID
	Index uint32
}

// TransactionOutput 交易输出
type TransactionOutput struct {
	Address   Address
	Amount    Value
	Datum     *Datum
	ScriptRef *Script
}

// Utxo 规范 UTxO
type Utxo struct {
	Input  TransactionInput
	Output TransactionOutput
}

// ScriptWitness Plutus 脚本见证：redeemer 以及（花费时）输入的 datum
type ScriptWitness struct {
	Redeemer PlutusData
	Datum    PlutusData
}

// ExUnits 执行预算
type ExUnits struct {
	Mem   uint64 `yaml:"mem"`
	Steps uint64 `yaml:"steps"`
}

// RedeemerTag redeemer 用途
type RedeemerTag uint8

const (
	RedeemerSpend  RedeemerTag = 0
	RedeemerMint   RedeemerTag = 1
	RedeemerCert   RedeemerTag = 2
	RedeemerReward RedeemerTag = 3
)

// Redeemer 见证集中的 redeemer
type Redeemer struct {
	Tag     RedeemerTag
	Index   uint32
	Data    PlutusData
	ExUnits ExUnits
}
