package ledger

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/fxamacker/cbor/v2"
)

// 主类型 5（map）；map 头需在已编码条目前单独写出
const majorMap byte = 5

var (
	cborNull = []byte{0xf6}
	cborTrue = []byte{0xf5}
)

// mustMarshal 编码基础值；这些类型的编码不会失败
func mustMarshal(v interface{}) []byte {
	b, err := cbor.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("cbor: encode %T: %v", v, err))
	}
	return b
}

func cborUint(n uint64) []byte { return mustMarshal(n) }

func cborInt(i int64) []byte { return mustMarshal(i) }

func cborBytes(b []byte) []byte {
	if b == nil {
		b = []byte{}
	}
	return mustMarshal(b)
}

func cborText(s string) []byte { return mustMarshal(s) }

func cborTag(tag uint64, content []byte) []byte {
	return mustMarshal(cbor.RawTag{Number: tag, Content: content})
}

func cborArray(items ...[]byte) []byte {
	raw := make([]cbor.RawMessage, len(items))
	for i, it := range items {
		raw[i] = it
	}
	return mustMarshal(raw)
}

// cborMapHead 与无符号整数共用长度编码，仅主类型不同
func cborMapHead(n int) []byte {
	head := cborUint(uint64(n))
	head[0] |= majorMap << 5
	return head
}

type cborEntry struct {
	key   []byte
	value []byte
}

// 规范键序：编码后的键先比长度，再比字节序
func cborMap(entries []cborEntry) []byte {
	sort.SliceStable(entries, func(i, j int) bool {
		if len(entries[i].key) != len(entries[j].key) {
			return len(entries[i].key) < len(entries[j].key)
		}
		return bytes.Compare(entries[i].key, entries[j].key) < 0
	})
	out := cborMapHead(len(entries))
	for _, e := range entries {
		out = append(out, e.key...)
		out = append(out, e.value...)
	}
	return out
}

// 嵌入 CBOR 的字节：#6.24(bytes .cbor T)
func cborEmbedded(encoded []byte) []byte {
	return cborTag(24, cborBytes(encoded))
}

func encodeInput(in TransactionInput) []byte {
	return cborArray(cborBytes(in.TxID[:]), cborUint(uint64(in.Index)))
}

func encodeInputs(ins []TransactionInput) []byte {
	sorted := sortInputs(ins)
	items := make([][]byte, len(sorted))
	for i, in := range sorted {
		items[i] = encodeInput(in)
	}
	return cborArray(items...)
}

func sortInputs(ins []TransactionInput) []TransactionInput {
	out := append([]TransactionInput(nil), ins...)
	sort.Slice(out, func(i, j int) bool {
		if c := bytes.Compare(out[i].TxID[:], out[j].TxID[:]); c != 0 {
			return c < 0
		}
		return out[i].Index < out[j].Index
	})
	return out
}

func encodeMultiAsset(ma MultiAsset) []byte {
	entries := make([]cborEntry, 0, len(ma))
	for policy, names := range ma {
		inner := make([]cborEntry, 0, len(names))
		for _, name := range sortedNames(names) {
			if names[name] == 0 {
				continue
			}
			inner = append(inner, cborEntry{key: cborBytes([]byte(name)), value: cborUint(names[name])})
		}
		if len(inner) == 0 {
			continue
		}
		p := policy
		entries = append(entries, cborEntry{key: cborBytes(p[:]), value: cborMap(inner)})
	}
	return cborMap(entries)
}

func encodeValue(v Value) []byte {
	if !v.HasAssets() {
		return cborUint(v.Coin)
	}
	return cborArray(cborUint(v.Coin), encodeMultiAsset(v.Assets))
}

func encodeScript(s Script) []byte {
	if s.Language == LanguageNative {
		return cborArray(cborUint(0), s.Bytes)
	}
	return cborArray(cborUint(uint64(s.Language)), cborBytes(s.Bytes))
}

func encodeDatumOption(d *Datum) []byte {
	if d.Kind == DatumOptionHash {
		return cborArray(cborUint(0), cborBytes(d.Hash[:]))
	}
	return cborArray(cborUint(1), cborEmbedded(d.Data))
}

// 输出使用 post-alonzo 映射格式
func encodeOutput(o TransactionOutput) []byte {
	entries := []cborEntry{
		{key: cborUint(0), value: cborBytes(o.Address)},
		{key: cborUint(1), value: encodeValue(o.Amount)},
	}
	if o.Datum != nil {
		entries = append(entries, cborEntry{key: cborUint(2), value: encodeDatumOption(o.Datum)})
	}
	if o.ScriptRef != nil {
		entries = append(entries, cborEntry{key: cborUint(3), value: cborEmbedded(encodeScript(*o.ScriptRef))})
	}
	return cborMap(entries)
}

func encodeCredential(c Credential) []byte {
	return cborArray(cborUint(uint64(c.Type)), cborBytes(c.Hash[:]))
}

func encodeOptionalPort(p *uint16) []byte {
	if p == nil {
		return cborNull
	}
	return cborUint(uint64(*p))
}

func encodeOptionalBytes(b []byte) []byte {
	if len(b) == 0 {
		return cborNull
	}
	return cborBytes(b)
}

func encodeRelay(r Relay) ([]byte, error) {
	switch rl := r.(type) {
	case SingleHostAddr:
		return cborArray(cborUint(0), encodeOptionalPort(rl.Port), encodeOptionalBytes(rl.IPv4), encodeOptionalBytes(rl.IPv6)), nil
	case SingleHostName:
		return cborArray(cborUint(1), encodeOptionalPort(rl.Port), cborText(rl.DNSName)), nil
	case MultiHostName:
		return cborArray(cborUint(2), cborText(rl.DNSName)), nil
	}
	return nil, fmt.Errorf("unknown relay variant %T", r)
}

func encodeCertificate(cert Certificate) ([]byte, error) {
	switch c := cert.(type) {
	case StakeRegistration:
		return cborArray(cborUint(0), encodeCredential(c.Credential)), nil
	case StakeDeregistration:
		return cborArray(cborUint(1), encodeCredential(c.Credential)), nil
	case StakeDelegation:
		return cborArray(cborUint(2), encodeCredential(c.Credential), cborBytes(c.Pool[:])), nil
	case PoolRegistration:
		p := c.Params
		owners := make([][]byte, len(p.Owners))
		for i, o := range p.Owners {
			o := o
			owners[i] = cborBytes(o[:])
		}
		relays := make([][]byte, len(p.Relays))
		for i, r := range p.Relays {
			enc, err := encodeRelay(r)
			if err != nil {
				return nil, err
			}
			relays[i] = enc
		}
		metadata := cborNull
		if p.Metadata != nil {
			metadata = cborArray(cborText(p.Metadata.URL), cborBytes(p.Metadata.Hash[:]))
		}
		return cborArray(
			cborUint(3),
			cborBytes(p.Operator[:]),
			cborBytes(p.VRFKeyHash[:]),
			cborUint(p.Pledge),
			cborUint(p.Cost),
			cborTag(30, cborArray(cborUint(p.Margin.Numerator), cborUint(p.Margin.Denominator))),
			cborBytes(p.RewardAccount),
			cborArray(owners...),
			cborArray(relays...),
			metadata,
		), nil
	case PoolRetirement:
		return cborArray(cborUint(4), cborBytes(c.Pool[:]), cborUint(c.Epoch)), nil
	}
	return nil, fmt.Errorf("unknown certificate variant %T", cert)
}

func encodeMint(mint map[ScriptHash]MintAssets) []byte {
	entries := make([]cborEntry, 0, len(mint))
	for policy, assets := range mint {
		names := make([]AssetName, 0, len(assets))
		for n := range assets {
			names = append(names, n)
		}
		sortAssetNames(names)
		inner := make([]cborEntry, 0, len(names))
		for _, n := range names {
			inner = append(inner, cborEntry{key: cborBytes([]byte(n)), value: cborInt(assets[n])})
		}
		p := policy
		entries = append(entries, cborEntry{key: cborBytes(p[:]), value: cborMap(inner)})
	}
	return cborMap(entries)
}

func encodeMetadatum(m Metadatum) ([]byte, error) {
	switch md := m.(type) {
	case MetadatumInt:
		if md.Value == nil {
			return cborUint(0), nil
		}
		return cbor.Marshal(md.Value)
	case MetadatumText:
		if len(md) > MaxMetadataChunk {
			return nil, fmt.Errorf("metadata text longer than %d bytes", MaxMetadataChunk)
		}
		return cborText(string(md)), nil
	case MetadatumBytes:
		if len(md) > MaxMetadataChunk {
			return nil, fmt.Errorf("metadata bytes longer than %d bytes", MaxMetadataChunk)
		}
		return cborBytes(md), nil
	case MetadatumList:
		items := make([][]byte, len(md))
		for i, it := range md {
			enc, err := encodeMetadatum(it)
			if err != nil {
				return nil, err
			}
			items[i] = enc
		}
		return cborArray(items...), nil
	case MetadatumMap:
		out := cborMapHead(len(md))
		for _, pair := range md {
			k, err := encodeMetadatum(pair.Key)
			if err != nil {
				return nil, err
			}
			v, err := encodeMetadatum(pair.Value)
			if err != nil {
				return nil, err
			}
			out = append(out, k...)
			out = append(out, v...)
		}
		return out, nil
	}
	return nil, fmt.Errorf("unknown metadatum variant %T", m)
}

func encodeRedeemer(r Redeemer) []byte {
	return cborArray(
		cborUint(uint64(r.Tag)),
		cborUint(uint64(r.Index)),
		r.Data,
		cborArray(cborUint(r.ExUnits.Mem), cborUint(r.ExUnits.Steps)),
	)
}

// txBody 交易体，整数键映射
type txBody struct {
	Inputs          cbor.RawMessage `cbor:"0,keyasint"`
	Outputs         cbor.RawMessage `cbor:"1,keyasint"`
	Fee             uint64          `cbor:"2,keyasint"`
	TTL             *uint64         `cbor:"3,keyasint,omitempty"`
	Certificates    cbor.RawMessage `cbor:"4,keyasint,omitempty"`
	Withdrawals     cbor.RawMessage `cbor:"5,keyasint,omitempty"`
	AuxDataHash     []byte          `cbor:"7,keyasint,omitempty"`
	ValidityStart   *uint64         `cbor:"8,keyasint,omitempty"`
	Mint            cbor.RawMessage `cbor:"9,keyasint,omitempty"`
	ScriptDataHash  []byte          `cbor:"11,keyasint,omitempty"`
	Collateral      cbor.RawMessage `cbor:"13,keyasint,omitempty"`
	RequiredSigners cbor.RawMessage `cbor:"14,keyasint,omitempty"`
	ReferenceInputs cbor.RawMessage `cbor:"18,keyasint,omitempty"`
}

// witnessSet 见证集
type witnessSet struct {
	VKeyWitnesses   cbor.RawMessage `cbor:"0,keyasint,omitempty"`
	NativeScripts   cbor.RawMessage `cbor:"1,keyasint,omitempty"`
	PlutusV1Scripts cbor.RawMessage `cbor:"3,keyasint,omitempty"`
	PlutusData      cbor.RawMessage `cbor:"4,keyasint,omitempty"`
	Redeemers       cbor.RawMessage `cbor:"5,keyasint,omitempty"`
	PlutusV2Scripts cbor.RawMessage `cbor:"6,keyasint,omitempty"`
}

// 占位 vkey 见证：[bytes .size 32, bytes .size 64]，用于签名前估算尺寸
func placeholderVKeyWitnesses(n int) []byte {
	if n == 0 {
		return nil
	}
	one := cborArray(cborBytes(make([]byte, 32)), cborBytes(make([]byte, 64)))
	items := make([][]byte, n)
	for i := range items {
		items[i] = one
	}
	return cborArray(items...)
}
