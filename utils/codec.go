package utils

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/fxamacker/cbor/v2"

	"github.com/weisyn/ledger-sdk-go/ledger"
	"github.com/weisyn/ledger-sdk-go/types"
)

// FromHex 解码 hex（可带 0x 前缀）；失败返回 MALFORMED_ENCODING
func FromHex(what, s string) ([]byte, error) {
	if !strings.HasPrefix(s, "0x") {
		s = "0x" + s
	}
	if s == "0x" {
		return []byte{}, nil
	}
	b, err := hexutil.Decode(s)
	if err != nil {
		return nil, types.MalformedEncoding(what, err).WithDetail("value", s[2:])
	}
	return b, nil
}

// PolicyOf 取 unit 的 policy id
func PolicyOf(unit string) (ledger.ScriptHash, ledger.AssetName, error) {
	policyHex, nameHex := types.SplitUnit(unit)
	if len(policyHex) != types.PolicyIDHexLength {
		return ledger.ScriptHash{}, "", types.MalformedEncoding("asset unit", fmt.Errorf("unit shorter than a policy id")).
			WithDetail("unit", unit)
	}
	policy, err := FromHex("policy id", policyHex)
	if err != nil {
		return ledger.ScriptHash{}, "", err
	}
	name, err := FromHex("asset name", nameHex)
	if err != nil {
		return ledger.ScriptHash{}, "", err
	}
	if len(name) > 32 {
		return ledger.ScriptHash{}, "", types.Errorf(types.ErrCodeInvalidParams, "asset name longer than 32 bytes").
			WithDetail("unit", unit)
	}
	var sh ledger.ScriptHash
	copy(sh[:], policy)
	return sh, ledger.AssetName(name), nil
}

// ValueFromAssets 资产映射转账本价值
//
// lovelace 单独计入 Coin；输出中任何负数量都是非法参数。
func ValueFromAssets(assets types.Assets) (ledger.Value, error) {
	var v ledger.Value
	for _, unit := range sortedUnits(assets) {
		qty := assets[unit]
		if qty < 0 {
			return ledger.Value{}, types.Errorf(types.ErrCodeInvalidParams, "negative quantity in output value").
				WithDetail("unit", unit).
				WithDetail("quantity", qty)
		}
		if unit == types.Lovelace {
			v.Coin = uint64(qty)
			continue
		}
		policy, name, err := PolicyOf(unit)
		if err != nil {
			return ledger.Value{}, err
		}
		if err := v.AddAsset(policy, name, uint64(qty)); err != nil {
			return ledger.Value{}, err
		}
	}
	return v, nil
}

// MintFromAssets 铸造映射转单 policy 铸造指令
//
// 所有 unit 必须共享同一 policy id，否则返回 MIXED_POLICY。
func MintFromAssets(assets types.Assets) (ledger.ScriptHash, ledger.MintAssets, error) {
	if len(assets) == 0 {
		return ledger.ScriptHash{}, nil, types.NewError(types.ErrCodeInvalidParams, "no assets to mint")
	}
	units := sortedUnits(assets)
	var (
		policy   ledger.ScriptHash
		first    string
		policies []string
	)
	for i, unit := range units {
		if unit == types.Lovelace {
			return ledger.ScriptHash{}, nil, types.NewError(types.ErrCodeInvalidParams, "lovelace cannot be minted")
		}
		p, _ := types.SplitUnit(unit)
		// hex 大小写不同的同一 policy 视为相同
		p = strings.ToLower(p)
		if i == 0 {
			first = p
			policies = append(policies, p)
			continue
		}
		if p != first {
			policies = append(policies, p)
		}
	}
	if len(policies) > 1 {
		return ledger.ScriptHash{}, nil, types.NewError(types.ErrCodeMixedPolicy, "only one policy id allowed per mint").
			WithDetail("policies", dedupe(policies))
	}

	out := make(ledger.MintAssets, len(units))
	for _, unit := range units {
		p, name, err := PolicyOf(unit)
		if err != nil {
			return ledger.ScriptHash{}, nil, err
		}
		policy = p
		out[name] += assets[unit]
	}
	return policy, out, nil
}

func sortedUnits(assets types.Assets) []string {
	units := make([]string, 0, len(assets))
	for u := range assets {
		units = append(units, u)
	}
	sort.Strings(units)
	return units
}

func dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

// ScriptFromType 按语言标签构造账本脚本
//
// Plutus 脚本统一为单层 CBOR 包装：传入双层包装时剥去外层。
// 语言标签不在 Native / PlutusV1 / PlutusV2 之内时返回 UNKNOWN_SCRIPT_VARIANT。
func ScriptFromType(script types.Script) (ledger.Script, error) {
	var lang ledger.ScriptLanguage
	switch script.Type {
	case types.ScriptTypeNative:
		lang = ledger.LanguageNative
	case types.ScriptTypePlutusV1:
		lang = ledger.LanguagePlutusV1
	case types.ScriptTypePlutusV2:
		lang = ledger.LanguagePlutusV2
	default:
		return ledger.Script{}, types.Errorf(types.ErrCodeUnknownScriptVariant, "no variant matched for script type %q", script.Type).
			WithDetail("type", string(script.Type))
	}

	raw, err := FromHex("script", script.Script)
	if err != nil {
		return ledger.Script{}, err
	}
	if err := cbor.Wellformed(raw); err != nil {
		return ledger.Script{}, types.MalformedEncoding(string(script.Type)+" script", err)
	}
	if lang == ledger.LanguageNative {
		return ledger.Script{Language: lang, Bytes: raw}, nil
	}
	return ledger.Script{Language: lang, Bytes: singleCbor(raw)}, nil
}

// ApplyDoubleCborEncoding 确保 Plutus 脚本 hex 为双层 CBOR 包装
func ApplyDoubleCborEncoding(scriptHex string) (string, error) {
	raw, err := FromHex("script", scriptHex)
	if err != nil {
		return "", err
	}
	var inner []byte
	if err := cbor.Unmarshal(raw, &inner); err == nil {
		var flat []byte
		if cbor.Unmarshal(inner, &flat) == nil {
			return hexutil.Encode(raw)[2:], nil
		}
		return hexutil.Encode(wrapBytes(raw))[2:], nil
	}
	return hexutil.Encode(wrapBytes(wrapBytes(raw)))[2:], nil
}

// singleCbor 双层包装时取内层，否则原样返回
func singleCbor(raw []byte) []byte {
	var inner []byte
	if err := cbor.Unmarshal(raw, &inner); err != nil {
		return raw
	}
	var flat []byte
	if cbor.Unmarshal(inner, &flat) == nil {
		return inner
	}
	return raw
}

func wrapBytes(b []byte) []byte {
	out, _ := cbor.Marshal(b)
	return out
}

// PlutusDataFromHex 解码 Plutus data
func PlutusDataFromHex(what, s string) (ledger.PlutusData, error) {
	raw, err := FromHex(what, s)
	if err != nil {
		return nil, err
	}
	if err := cbor.Wellformed(raw); err != nil {
		return nil, types.MalformedEncoding(what, err).WithDetail("value", s)
	}
	return ledger.PlutusData(raw), nil
}

// DataHashFromHex 解码 32 字节 datum hash
func DataHashFromHex(s string) (ledger.DataHash, error) {
	raw, err := FromHex("datum hash", s)
	if err != nil {
		return ledger.DataHash{}, err
	}
	if len(raw) != ledger.Hash32Size {
		return ledger.DataHash{}, types.MalformedEncoding("datum hash", fmt.Errorf("expected %d bytes, got %d", ledger.Hash32Size, len(raw))).
			WithDetail("value", s)
	}
	var h ledger.DataHash
	copy(h[:], raw)
	return h, nil
}

// KeyHashFromHex 解码 28 字节 key hash
func KeyHashFromHex(s string) (ledger.KeyHash, error) {
	raw, err := FromHex("key hash", s)
	if err != nil {
		return ledger.KeyHash{}, err
	}
	if len(raw) != ledger.Hash28Size {
		return ledger.KeyHash{}, types.MalformedEncoding("key hash", fmt.Errorf("expected %d bytes, got %d", ledger.Hash28Size, len(raw))).
			WithDetail("value", s)
	}
	var kh ledger.KeyHash
	copy(kh[:], raw)
	return kh, nil
}

// UtxoFromDomain 领域 UTxO 转账本 UTxO
//
// DatumHash 与 Datum 同时存在时以 Datum 作为见证正文、以 DatumHash 作为输出 datum 选项；
// 仅有 Datum 时视为内联 datum。
func UtxoFromDomain(u types.UTxO) (ledger.Utxo, error) {
	txID, err := FromHex("tx hash", u.TxHash)
	if err != nil {
		return ledger.Utxo{}, err
	}
	if len(txID) != ledger.Hash32Size {
		return ledger.Utxo{}, types.MalformedEncoding("tx hash", fmt.Errorf("expected %d bytes, got %d", ledger.Hash32Size, len(txID))).
			WithDetail("value", u.TxHash)
	}
	addr, err := decodeAddress(u.Address)
	if err != nil {
		return ledger.Utxo{}, err
	}
	value, err := ValueFromAssets(u.Assets)
	if err != nil {
		return ledger.Utxo{}, err
	}

	out := ledger.Utxo{Output: ledger.TransactionOutput{Address: addr, Amount: value}}
	copy(out.Input.TxID[:], txID)
	out.Input.Index = u.OutputIndex

	switch {
	case u.DatumHash != "":
		h, err := DataHashFromHex(u.DatumHash)
		if err != nil {
			return ledger.Utxo{}, err
		}
		out.Output.Datum = ledger.DatumFromHash(h)
	case u.Datum != "":
		d, err := PlutusDataFromHex("inline datum", u.Datum)
		if err != nil {
			return ledger.Utxo{}, err
		}
		out.Output.Datum = ledger.InlineDatum(d)
	}
	if u.ScriptRef != nil {
		s, err := ScriptFromType(*u.ScriptRef)
		if err != nil {
			return ledger.Utxo{}, err
		}
		out.Output.ScriptRef = &s
	}
	return out, nil
}

// UtxosFromDomain 批量转换
func UtxosFromDomain(utxos []types.UTxO) ([]ledger.Utxo, error) {
	out := make([]ledger.Utxo, 0, len(utxos))
	for _, u := range utxos {
		lu, err := UtxoFromDomain(u)
		if err != nil {
			return nil, err
		}
		out = append(out, lu)
	}
	return out, nil
}
