package txbuilder

import (
	"context"

	"github.com/weisyn/ledger-sdk-go/types"
)

// DatumLookup 按 UTxO 的 datum hash 查询 datum 正文
//
// provider.Kupo 与 provider.Static 实现该接口。
type DatumLookup interface {
	LookupDatum(ctx context.Context, utxo types.UTxO) (types.Datum, error)
}

// Wallet 钱包：可用 UTxO 与默认找零地址
//
// wallet.ReadOnlyWallet 实现该接口。
type Wallet interface {
	Address(ctx context.Context) (string, error)
	GetUtxos(ctx context.Context) ([]types.UTxO, error)
}

// SlotConverter Unix 毫秒转 slot
//
// utils.SlotConfig 实现该接口。
type SlotConverter interface {
	UnixTimeToSlot(unixTime int64) (uint64, error)
}

// MetadataFetcher 获取矿池元数据 URL 的原始内容
//
// provider.MetadataFetcher 实现该接口。
type MetadataFetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}
