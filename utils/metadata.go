package utils

import (
	"encoding/json"
	"math"
	"math/big"
	"sort"
	"strings"

	"github.com/weisyn/ledger-sdk-go/ledger"
	"github.com/weisyn/ledger-sdk-go/types"
)

// MetadatumFromJSON 将 JSON 风格的值转为元数据树
//
// **支持的值**：
// - string：文本，UTF-8 不超过 64 字节
// - 整数（int/int64/uint64/json.Number/*big.Int，或整数值的 float64）
// - []byte：字节串，不超过 64 字节
// - []interface{}：列表
// - map[string]interface{}：映射，按键排序以保证编码确定
//
// convert 为 true 时，以 "0x" 开头的字符串（值或键）按 hex 解码为字节串。
func MetadatumFromJSON(value interface{}, convert bool) (ledger.Metadatum, error) {
	switch v := value.(type) {
	case string:
		return metadatumFromString(v, convert)
	case []byte:
		if len(v) > ledger.MaxMetadataChunk {
			return nil, chunkTooLong("bytes", len(v))
		}
		return ledger.MetadatumBytes(v), nil
	case int:
		return ledger.NewMetadatumInt(int64(v)), nil
	case int64:
		return ledger.NewMetadatumInt(v), nil
	case uint64:
		return ledger.MetadatumInt{Value: new(big.Int).SetUint64(v)}, nil
	case float64:
		if v != math.Trunc(v) || math.IsInf(v, 0) {
			return nil, types.Errorf(types.ErrCodeInvalidParams, "metadata numbers must be integers, got %v", v)
		}
		i, _ := big.NewFloat(v).Int(nil)
		return ledger.MetadatumInt{Value: i}, nil
	case json.Number:
		i, ok := new(big.Int).SetString(v.String(), 10)
		if !ok {
			return nil, types.Errorf(types.ErrCodeInvalidParams, "metadata numbers must be integers, got %s", v)
		}
		return ledger.MetadatumInt{Value: i}, nil
	case *big.Int:
		return ledger.MetadatumInt{Value: new(big.Int).Set(v)}, nil
	case []interface{}:
		list := make(ledger.MetadatumList, 0, len(v))
		for _, item := range v {
			m, err := MetadatumFromJSON(item, convert)
			if err != nil {
				return nil, err
			}
			list = append(list, m)
		}
		return list, nil
	case map[string]interface{}:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := make(ledger.MetadatumMap, 0, len(v))
		for _, k := range keys {
			key, err := metadatumFromString(k, convert)
			if err != nil {
				return nil, err
			}
			val, err := MetadatumFromJSON(v[k], convert)
			if err != nil {
				return nil, err
			}
			out = append(out, ledger.MetadatumPair{Key: key, Value: val})
		}
		return out, nil
	case nil:
		return nil, types.NewError(types.ErrCodeInvalidParams, "metadata cannot contain null")
	case bool:
		return nil, types.NewError(types.ErrCodeInvalidParams, "metadata cannot contain booleans")
	}

	// 结构体等其他类型经 JSON 往返后再转换
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, types.WrapError(types.ErrCodeInvalidParams, "metadata is not JSON-serializable", err)
	}
	dec := json.NewDecoder(strings.NewReader(string(raw)))
	dec.UseNumber()
	var generic interface{}
	if err := dec.Decode(&generic); err != nil {
		return nil, types.WrapError(types.ErrCodeInvalidParams, "metadata is not JSON-serializable", err)
	}
	return MetadatumFromJSON(generic, convert)
}

func metadatumFromString(s string, convert bool) (ledger.Metadatum, error) {
	if convert && strings.HasPrefix(s, "0x") {
		b, err := FromHex("metadata bytes", s)
		if err != nil {
			return nil, err
		}
		if len(b) > ledger.MaxMetadataChunk {
			return nil, chunkTooLong("bytes", len(b))
		}
		return ledger.MetadatumBytes(b), nil
	}
	if len(s) > ledger.MaxMetadataChunk {
		return nil, chunkTooLong("text", len(s))
	}
	return ledger.MetadatumText(s), nil
}

func chunkTooLong(kind string, n int) error {
	return types.Errorf(types.ErrCodeInvalidParams, "metadata %s is %d bytes, limit is %d", kind, n, ledger.MaxMetadataChunk)
}
