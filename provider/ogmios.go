package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/weisyn/ledger-sdk-go/client"
	"github.com/weisyn/ledger-sdk-go/types"
	"github.com/weisyn/ledger-sdk-go/utils"
)

// MethodQueryUtxo Ogmios 按地址查询 UTxO 的方法名
const MethodQueryUtxo = "queryLedgerState/utxo"

// DefaultAddressBatchSize 单次查询携带的地址数量
const DefaultAddressBatchSize = 20

// Ogmios 基于 Ogmios JSON-RPC 的 UTxO 提供方
//
// 传输层可以是 client 包中的任一实现（HTTP / WebSocket / gRPC 网关）。
type Ogmios struct {
	client      client.Client
	batchSize   int
	concurrency int
	logger      client.Logger
}

// OgmiosOption Ogmios 选项
type OgmiosOption func(*Ogmios)

// WithBatchSize 设置单次查询的地址数量
func WithBatchSize(n int) OgmiosOption {
	return func(o *Ogmios) { o.batchSize = n }
}

// WithConcurrency 设置并发查询数
func WithConcurrency(n int) OgmiosOption {
	return func(o *Ogmios) { o.concurrency = n }
}

// WithLogger 设置日志器
func WithLogger(l client.Logger) OgmiosOption {
	return func(o *Ogmios) { o.logger = l }
}

// NewOgmios 创建 Ogmios 提供方
func NewOgmios(c client.Client, opts ...OgmiosOption) *Ogmios {
	o := &Ogmios{
		client:      c,
		batchSize:   DefaultAddressBatchSize,
		concurrency: utils.DefaultConcurrency,
		logger:      client.NopLogger{},
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// ogmiosUtxo Ogmios v6 的 UTxO 结构
type ogmiosUtxo struct {
	Transaction struct {
		ID string `json:"id"`
	} `json:"transaction"`
	Index     uint32                            `json:"index"`
	Address   string                            `json:"address"`
	Value     map[string]map[string]json.Number `json:"value"`
	DatumHash string                            `json:"datumHash,omitempty"`
	Datum     string                            `json:"datum,omitempty"`
	Script    *ogmiosScript                     `json:"script,omitempty"`
}

type ogmiosScript struct {
	Language string `json:"language"`
	CBOR     string `json:"cbor,omitempty"`
}

// GetUtxos 查询地址上的 UTxO
//
// 地址按 batchSize 分批并行查询，结果按批次顺序合并。
func (o *Ogmios) GetUtxos(ctx context.Context, addresses []string) ([]types.UTxO, error) {
	addresses = dedupeAddresses(addresses)
	if len(addresses) == 0 {
		return []types.UTxO{}, nil
	}

	batches := utils.BatchArray(addresses, o.batchSize)
	chunks, err := utils.ParallelExecute(ctx, batches, o.queryBatch, o.concurrency)
	if err != nil {
		return nil, err
	}
	utxos := flatten(chunks)
	o.logger.Debug("Queried UTxOs", "addresses", len(addresses), "batches", len(batches), "utxos", len(utxos))
	return utxos, nil
}

func (o *Ogmios) queryBatch(ctx context.Context, addresses []string) ([]types.UTxO, error) {
	raw, err := o.client.Call(ctx, MethodQueryUtxo, map[string]interface{}{"addresses": addresses})
	if err != nil {
		return nil, types.WrapError(types.ErrCodeProvider, "query utxos", err)
	}
	var result []ogmiosUtxo
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, types.WrapError(types.ErrCodeProvider, "decode utxo query result", err)
	}
	out := make([]types.UTxO, 0, len(result))
	for _, u := range result {
		utxo, err := u.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, utxo)
	}
	return out, nil
}

func (u ogmiosUtxo) toDomain() (types.UTxO, error) {
	assets := make(types.Assets)
	for policy, byName := range u.Value {
		for name, qty := range byName {
			n, err := qty.Int64()
			if err != nil {
				return types.UTxO{}, types.MalformedEncoding("asset quantity", err).
					WithDetail("outRef", fmt.Sprintf("%s#%d", u.Transaction.ID, u.Index))
			}
			if policy == "ada" {
				assets[types.Lovelace] += n
				continue
			}
			assets[policy+name] += n
		}
	}

	out := types.UTxO{
		TxHash:      u.Transaction.ID,
		OutputIndex: u.Index,
		Address:     u.Address,
		Assets:      assets,
		DatumHash:   u.DatumHash,
		Datum:       u.Datum,
	}
	if u.Script != nil && u.Script.CBOR != "" {
		out.ScriptRef = &types.Script{Type: scriptTypeOf(u.Script.Language), Script: u.Script.CBOR}
	}
	return out, nil
}

// scriptTypeOf 后端语言标签转脚本类型；未知标签原样保留，由 Codec 报错
func scriptTypeOf(language string) types.ScriptType {
	switch language {
	case "native":
		return types.ScriptTypeNative
	case "plutus:v1":
		return types.ScriptTypePlutusV1
	case "plutus:v2":
		return types.ScriptTypePlutusV2
	}
	return types.ScriptType(language)
}

// sortUtxos 按引用点排序
func sortUtxos(utxos []types.UTxO) {
	sort.Slice(utxos, func(i, j int) bool {
		if utxos[i].TxHash != utxos[j].TxHash {
			return utxos[i].TxHash < utxos[j].TxHash
		}
		return utxos[i].OutputIndex < utxos[j].OutputIndex
	})
}
