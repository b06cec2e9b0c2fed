package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
)

// httpClient HTTP客户端实现
type httpClient struct {
	endpoint string
	headers  map[string]string
	client   *http.Client
	logger   Logger
	debug    bool
	nextID   atomic.Uint64
	retry    *RetryConfig
}

// NewHTTPClient 创建HTTP客户端
func NewHTTPClient(config *Config) (Client, error) {
	if config == nil {
		config = DefaultConfig()
	}

	httpCli, err := newStdHTTPClient(config)
	if err != nil {
		return nil, err
	}

	return &httpClient{
		endpoint: config.Endpoint,
		headers:  config.Headers,
		client:   httpCli,
		logger:   config.logger(),
		debug:    config.Debug,
		retry:    retryWithLogging(config),
	}, nil
}

// newStdHTTPClient 按配置创建 *http.Client（超时与 TLS）
func newStdHTTPClient(config *Config) (*http.Client, error) {
	httpCli := &http.Client{Timeout: config.timeout()}
	tlsCfg, err := buildTLSConfig(config.TLS)
	if err != nil {
		return nil, err
	}
	if tlsCfg != nil {
		transport := http.DefaultTransport.(*http.Transport).Clone()
		transport.TLSClientConfig = tlsCfg
		httpCli.Transport = transport
	}
	return httpCli, nil
}

// retryWithLogging 为显式开启的重试配置挂上日志回调
func retryWithLogging(config *Config) *RetryConfig {
	if config.Retry == nil {
		return nil
	}
	retry := *config.Retry
	if retry.OnRetry == nil {
		logger := config.logger()
		retry.OnRetry = func(attempt int, err error) {
			logger.Warn("Retrying request", "endpoint", config.Endpoint, "attempt", attempt, "error", err)
		}
	}
	return &retry
}

// Call 调用JSON-RPC方法
func (c *httpClient) Call(ctx context.Context, method string, params interface{}) (json.RawMessage, error) {
	req := &jsonRPCRequest{
		JSONRPC: "2.0",
		Method:  method,
		Params:  params,
		ID:      c.nextID.Add(1),
	}

	reqBody, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request failed: %w", err)
	}

	if c.debug {
		c.logger.Debug("JSON-RPC request", "method", method, "body", string(reqBody))
	}

	var respBody []byte
	err = withRetry(ctx, func() error {
		// Body 只能读取一次，每次重试重新构造请求
		body, sendErr := doRequest(ctx, c.client, http.MethodPost, c.endpoint, bytes.NewReader(reqBody), c.headers)
		if sendErr != nil {
			return sendErr
		}
		respBody = body
		return nil
	}, c.retry)
	if err != nil {
		return nil, err
	}

	if c.debug {
		c.logger.Debug("JSON-RPC response", "method", method, "body", string(respBody))
	}

	var jsonResp jsonRPCResponse
	if err := json.Unmarshal(respBody, &jsonResp); err != nil {
		return nil, NewInvalidResponseError("unmarshal response failed", err)
	}
	return jsonResp.unwrap()
}

// Close 关闭连接（HTTP客户端无需特殊处理）
func (c *httpClient) Close() error {
	c.client.CloseIdleConnections()
	return nil
}

// doRequest 发送请求并读取完整响应体；非 2xx 状态返回 *Error
func doRequest(ctx context.Context, cli *http.Client, method, url string, body io.Reader, headers map[string]string) ([]byte, error) {
	httpReq, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("create request failed: %w", err)
	}
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	httpReq.Header.Set("Accept", "application/json")
	for k, v := range headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := cli.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, NewNetworkError(err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, NewNetworkError(fmt.Errorf("read response failed: %w", err))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, NewHTTPStatusError(resp.StatusCode, respBody)
	}
	return respBody, nil
}
