package provider

import (
	"context"
	"net/url"
	"strings"

	"github.com/weisyn/ledger-sdk-go/client"
	"github.com/weisyn/ledger-sdk-go/types"
	"github.com/weisyn/ledger-sdk-go/utils"
)

// Kupo 基于 Kupo 索引的 datum 查询与 UTxO 提供方
type Kupo struct {
	rest        *client.RESTClient
	concurrency int
	logger      client.Logger
}

// NewKupo 创建 Kupo 提供方
func NewKupo(rest *client.RESTClient, logger client.Logger) *Kupo {
	if logger == nil {
		logger = client.NopLogger{}
	}
	return &Kupo{rest: rest, concurrency: utils.DefaultConcurrency, logger: logger}
}

type kupoDatum struct {
	Datum string `json:"datum"`
}

type kupoScript struct {
	Language string `json:"language"`
	Script   string `json:"script"`
}

type kupoMatch struct {
	TransactionID string `json:"transaction_id"`
	OutputIndex   uint32 `json:"output_index"`
	Address       string `json:"address"`
	Value         struct {
		Coins  int64            `json:"coins"`
		Assets map[string]int64 `json:"assets"`
	} `json:"value"`
	DatumHash  *string `json:"datum_hash"`
	DatumType  string  `json:"datum_type"`
	ScriptHash *string `json:"script_hash"`
}

// LookupDatum 按 UTxO 的 datum hash 查询 datum 正文
//
// 索引中不存在该 datum 时返回 DATUM_NOT_FOUND。
func (k *Kupo) LookupDatum(ctx context.Context, utxo types.UTxO) (types.Datum, error) {
	if utxo.DatumHash == "" {
		return "", types.NewError(types.ErrCodeInvalidParams, "utxo has no datum hash").
			WithDetail("outRef", utxo.OutRef().String())
	}
	// 未命中时 Kupo 返回 null
	var out *kupoDatum
	if err := k.rest.GetJSON(ctx, "datums/"+url.PathEscape(utxo.DatumHash), &out); err != nil {
		if client.IsNotFound(err) {
			return "", datumNotFound(utxo)
		}
		return "", types.WrapError(types.ErrCodeProvider, "lookup datum", err)
	}
	if out == nil || out.Datum == "" {
		return "", datumNotFound(utxo)
	}
	return out.Datum, nil
}

// GetUtxos 查询地址上未花费的输出
//
// 内联 datum 与引用脚本的正文需要额外查询，按地址并行执行。
func (k *Kupo) GetUtxos(ctx context.Context, addresses []string) ([]types.UTxO, error) {
	addresses = dedupeAddresses(addresses)
	chunks, err := utils.ParallelExecute(ctx, addresses, k.matches, k.concurrency)
	if err != nil {
		return nil, err
	}
	utxos := flatten(chunks)
	sortUtxos(utxos)
	return utxos, nil
}

func (k *Kupo) matches(ctx context.Context, address string) ([]types.UTxO, error) {
	var matches []kupoMatch
	if err := k.rest.GetJSON(ctx, "matches/"+url.PathEscape(address)+"?unspent", &matches); err != nil {
		return nil, types.WrapError(types.ErrCodeProvider, "query matches", err)
	}
	out := make([]types.UTxO, 0, len(matches))
	for _, m := range matches {
		u, err := k.toDomain(ctx, m)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	k.logger.Debug("Queried Kupo matches", "address", address, "utxos", len(out))
	return out, nil
}

func (k *Kupo) toDomain(ctx context.Context, m kupoMatch) (types.UTxO, error) {
	assets := types.Assets{types.Lovelace: m.Value.Coins}
	for unit, qty := range m.Value.Assets {
		// Kupo 以 "policy.name" 表示资产
		assets[strings.Replace(unit, ".", "", 1)] += qty
	}
	u := types.UTxO{
		TxHash:      m.TransactionID,
		OutputIndex: m.OutputIndex,
		Address:     m.Address,
		Assets:      assets,
	}

	if m.DatumHash != nil {
		if m.DatumType == "inline" {
			d, err := k.LookupDatum(ctx, types.UTxO{TxHash: u.TxHash, OutputIndex: u.OutputIndex, DatumHash: *m.DatumHash})
			if err != nil {
				return types.UTxO{}, err
			}
			u.Datum = d
		} else {
			u.DatumHash = *m.DatumHash
		}
	}

	if m.ScriptHash != nil {
		var s *kupoScript
		if err := k.rest.GetJSON(ctx, "scripts/"+url.PathEscape(*m.ScriptHash), &s); err != nil {
			return types.UTxO{}, types.WrapError(types.ErrCodeProvider, "lookup script", err)
		}
		if s != nil {
			u.ScriptRef = &types.Script{Type: scriptTypeOf(s.Language), Script: s.Script}
		}
	}
	return u, nil
}
