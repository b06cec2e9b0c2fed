package types

import "fmt"

// Lovelace 原生币单位标识
const Lovelace = "lovelace"

// PolicyIDHexLength policy id 的十六进制长度（28 字节脚本哈希）
const PolicyIDHexLength = 56

// Network 网络
type Network string

const (
	NetworkMainnet Network = "Mainnet"
	NetworkPreprod Network = "Preprod"
	NetworkPreview Network = "Preview"
	NetworkCustom  Network = "Custom"
)

// ID 返回地址头中的网络编号（主网 1，其余 0）
func (n Network) ID() byte {
	if n == NetworkMainnet {
		return 1
	}
	return 0
}

// Valid 是否为已知网络
func (n Network) Valid() bool {
	switch n {
	case NetworkMainnet, NetworkPreprod, NetworkPreview, NetworkCustom:
		return true
	}
	return false
}

// Assets 资产映射：unit -> 数量
//
// unit 为 "lovelace"，或 policy id（56 位 hex）拼接资产名 hex。
// 铸造时数量可为负（销毁）。
type Assets map[string]int64

// Lovelace 返回 lovelace 数量
func (a Assets) Lovelace() int64 {
	return a[Lovelace]
}

// Clone 复制
func (a Assets) Clone() Assets {
	out := make(Assets, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

// Add 逐 unit 相加，返回新映射
func (a Assets) Add(b Assets) Assets {
	out := a.Clone()
	for k, v := range b {
		out[k] += v
	}
	return out
}

// SplitUnit 将 unit 拆分为 policy id 与资产名（均为 hex）
func SplitUnit(unit string) (policyID string, assetName string) {
	if unit == Lovelace || len(unit) < PolicyIDHexLength {
		return unit, ""
	}
	return unit[:PolicyIDHexLength], unit[PolicyIDHexLength:]
}

// OutRef UTxO 引用点
type OutRef struct {
	TxHash      string `json:"txHash"`
	OutputIndex uint32 `json:"outputIndex"`
}

func (o OutRef) String() string {
	return fmt.Sprintf("%s#%d", o.TxHash, o.OutputIndex)
}

// UTxO 未花费交易输出（领域表示，字段均为 hex / bech32 字符串）
//
// 若 DatumHash 非空而 Datum 为空，加入交易前必须先通过 DatumLookup 解析 datum。
type UTxO struct {
	TxHash      string  `json:"txHash"`
	OutputIndex uint32  `json:"outputIndex"`
	Assets      Assets  `json:"assets"`
	Address     string  `json:"address"`
	DatumHash   string  `json:"datumHash,omitempty"`
	Datum       string  `json:"datum,omitempty"`
	ScriptRef   *Script `json:"scriptRef,omitempty"`
}

// OutRef 返回引用点
func (u UTxO) OutRef() OutRef {
	return OutRef{TxHash: u.TxHash, OutputIndex: u.OutputIndex}
}

// NeedsDatum 是否需要解析 datum 正文
func (u UTxO) NeedsDatum() bool {
	return u.DatumHash != "" && u.Datum == ""
}

// ScriptType 脚本语言标签
type ScriptType string

const (
	ScriptTypeNative   ScriptType = "Native"
	ScriptTypePlutusV1 ScriptType = "PlutusV1"
	ScriptTypePlutusV2 ScriptType = "PlutusV2"
)

// Script 脚本（Script 字段为 hex 编码的 CBOR）
type Script struct {
	Type   ScriptType `json:"type"`
	Script string     `json:"script"`
}

// 各用途脚本的别名，仅用于提高调用处可读性
type (
	SpendingValidator    = Script
	MintingPolicy        = Script
	CertificateValidator = Script
	WithdrawalValidator  = Script
)

// Redeemer hex 编码的 Plutus data
type Redeemer = string

// Datum hex 编码的 Plutus data
type Datum = string

// OutputData 输出附带的数据
//
// AsHash 与 Inline 互斥；Hash 仅用于找零输出，表示调用方已计算好的 datum hash。
type OutputData struct {
	Hash      string  `json:"hash,omitempty"`
	AsHash    Datum   `json:"asHash,omitempty"`
	Inline    Datum   `json:"inline,omitempty"`
	ScriptRef *Script `json:"scriptRef,omitempty"`
}

// RelayType 中继类型
type RelayType string

const (
	RelaySingleHostIP         RelayType = "SingleHostIp"
	RelaySingleHostDomainName RelayType = "SingleHostDomainName"
	RelayMultiHost            RelayType = "MultiHost"
)

// Relay 矿池中继
//
// Port 为 0 表示未指定端口。MultiHost 不使用端口。
type Relay struct {
	Type       RelayType `json:"type" yaml:"type"`
	IPv4       string    `json:"ipV4,omitempty" yaml:"ipV4,omitempty"`
	IPv6       string    `json:"ipV6,omitempty" yaml:"ipV6,omitempty"`
	Port       uint16    `json:"port,omitempty" yaml:"port,omitempty"`
	DomainName string    `json:"domainName,omitempty" yaml:"domainName,omitempty"`
}

// PoolParams 矿池注册参数
type PoolParams struct {
	PoolID        string   `json:"poolId" yaml:"poolId"`               // bech32 pool1...
	VRFKeyHash    string   `json:"vrfKeyHash" yaml:"vrfKeyHash"`       // hex，32 字节
	Pledge        uint64   `json:"pledge" yaml:"pledge"`               // lovelace
	Cost          uint64   `json:"cost" yaml:"cost"`                   // lovelace
	Margin        float64  `json:"margin" yaml:"margin"`               // [0, 1]
	RewardAddress string   `json:"rewardAddress" yaml:"rewardAddress"` // bech32 stake...
	Owners        []string `json:"owners" yaml:"owners"`               // 奖励地址，必须为 key hash 凭证
	Relays        []Relay  `json:"relays" yaml:"relays"`
	MetadataURL   string   `json:"metadataUrl,omitempty" yaml:"metadataUrl,omitempty"`
}
