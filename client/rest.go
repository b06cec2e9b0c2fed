package client

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
)

// RESTClient 面向 REST 风格后端（datum 索引、元数据服务）的只读客户端
type RESTClient struct {
	baseURL string
	config  *Config
	retry   *RetryConfig
	logger  Logger
	do      func(ctx context.Context, url string) ([]byte, error)
}

// NewRESTClient 创建 REST 客户端；Endpoint 作为基础 URL
func NewRESTClient(config *Config) (*RESTClient, error) {
	if config == nil {
		config = DefaultConfig()
	}
	httpCli, err := newStdHTTPClient(config)
	if err != nil {
		return nil, err
	}
	c := &RESTClient{
		baseURL: strings.TrimRight(config.Endpoint, "/"),
		config:  config,
		retry:   retryWithLogging(config),
		logger:  config.logger(),
	}
	c.do = func(ctx context.Context, url string) ([]byte, error) {
		return doRequest(ctx, httpCli, http.MethodGet, url, nil, config.Headers)
	}
	return c, nil
}

// URL 拼接基础 URL 与路径；path 本身是绝对 URL 时原样返回
func (c *RESTClient) URL(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return c.baseURL + "/" + strings.TrimLeft(path, "/")
}

// Get 获取原始响应体
func (c *RESTClient) Get(ctx context.Context, path string) ([]byte, error) {
	url := c.URL(path)
	var body []byte
	err := withRetry(ctx, func() error {
		b, err := c.do(ctx, url)
		if err != nil {
			return err
		}
		body = b
		return nil
	}, c.retry)
	if err != nil {
		if c.config.Debug {
			c.logger.Debug("REST request failed", "url", url, "error", err)
		}
		return nil, err
	}
	return body, nil
}

// GetJSON 获取并解码 JSON 响应
func (c *RESTClient) GetJSON(ctx context.Context, path string, out interface{}) error {
	body, err := c.Get(ctx, path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return NewInvalidResponseError("decode response failed", err)
	}
	return nil
}
