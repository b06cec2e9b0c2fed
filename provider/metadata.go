package provider

import (
	"context"

	"github.com/weisyn/ledger-sdk-go/client"
	"github.com/weisyn/ledger-sdk-go/types"
)

// MetadataFetcher 通过 HTTP 获取矿池元数据原始字节
type MetadataFetcher struct {
	rest *client.RESTClient
}

// NewMetadataFetcher 创建元数据获取器
//
// 元数据 URL 均为绝对地址，rest 的基础 URL 不参与拼接。
func NewMetadataFetcher(rest *client.RESTClient) *MetadataFetcher {
	return &MetadataFetcher{rest: rest}
}

// Fetch 获取 URL 的原始内容；任何失败都返回 METADATA_FETCH_FAILED
func (f *MetadataFetcher) Fetch(ctx context.Context, metadataURL string) ([]byte, error) {
	body, err := f.rest.Get(ctx, metadataURL)
	if err != nil {
		return nil, (&types.TxError{
			Code:    types.ErrCodeMetadataFetch,
			Message: "fetch pool metadata",
			Cause:   err,
		}).WithDetail("url", metadataURL)
	}
	return body, nil
}
