package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// websocketClient WebSocket 客户端实现
//
// 单连接上复用多个并发请求，按 JSON-RPC id 分发响应。
type websocketClient struct {
	endpoint string
	conn     *websocket.Conn
	writeMu  sync.Mutex
	closed   int32
	nextID   uint64
	timeout  time.Duration
	logger   Logger
	requests map[uint64]chan *jsonRPCResponse
	muReq    sync.Mutex
}

// NewWebSocketClient 创建 WebSocket 客户端
func NewWebSocketClient(config *Config) (Client, error) {
	if config == nil {
		config = DefaultConfig()
	}

	endpoint := websocketURL(config.Endpoint)

	tlsCfg, err := buildTLSConfig(config.TLS)
	if err != nil {
		return nil, err
	}
	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
		TLSClientConfig:  tlsCfg,
	}

	header := http.Header{}
	for k, v := range config.Headers {
		header.Set(k, v)
	}

	conn, _, err := dialer.Dial(endpoint, header)
	if err != nil {
		return nil, NewNetworkError(fmt.Errorf("dial websocket: %w", err))
	}

	client := &websocketClient{
		endpoint: endpoint,
		conn:     conn,
		timeout:  config.timeout(),
		logger:   config.logger(),
		requests: make(map[uint64]chan *jsonRPCResponse),
	}

	go client.readLoop()

	return client, nil
}

// websocketURL 将 http(s) 端点转换为 ws(s)
func websocketURL(endpoint string) string {
	switch {
	case strings.HasPrefix(endpoint, "http://"):
		return "ws://" + strings.TrimPrefix(endpoint, "http://")
	case strings.HasPrefix(endpoint, "https://"):
		return "wss://" + strings.TrimPrefix(endpoint, "https://")
	case strings.HasPrefix(endpoint, "ws://"), strings.HasPrefix(endpoint, "wss://"):
		return endpoint
	default:
		return "ws://" + endpoint
	}
}

// readLoop 消息读取循环
func (c *websocketClient) readLoop() {
	defer func() {
		atomic.StoreInt32(&c.closed, 1)
		c.muReq.Lock()
		for id, ch := range c.requests {
			close(ch)
			delete(c.requests, id)
		}
		c.muReq.Unlock()
	}()

	for {
		var resp jsonRPCResponse
		if err := c.conn.ReadJSON(&resp); err != nil {
			if atomic.LoadInt32(&c.closed) == 0 {
				c.logger.Warn("WebSocket read failed", "endpoint", c.endpoint, "error", err)
			}
			return
		}

		c.muReq.Lock()
		ch, exists := c.requests[resp.ID]
		if exists {
			delete(c.requests, resp.ID)
		}
		c.muReq.Unlock()

		if exists {
			ch <- &resp
		}
	}
}

func (c *websocketClient) forget(id uint64) {
	c.muReq.Lock()
	delete(c.requests, id)
	c.muReq.Unlock()
}

// Call 调用 JSON-RPC 方法
func (c *websocketClient) Call(ctx context.Context, method string, params interface{}) (json.RawMessage, error) {
	if atomic.LoadInt32(&c.closed) == 1 {
		return nil, NewNetworkError(fmt.Errorf("websocket client is closed"))
	}

	reqID := atomic.AddUint64(&c.nextID, 1)
	req := jsonRPCRequest{
		JSONRPC: "2.0",
		Method:  method,
		Params:  params,
		ID:      reqID,
	}

	respCh := make(chan *jsonRPCResponse, 1)
	c.muReq.Lock()
	c.requests[reqID] = respCh
	c.muReq.Unlock()

	// gorilla 连接同一时刻只允许一个写者
	c.writeMu.Lock()
	err := c.conn.WriteJSON(req)
	c.writeMu.Unlock()
	if err != nil {
		c.forget(reqID)
		return nil, NewNetworkError(fmt.Errorf("write request: %w", err))
	}

	timer := time.NewTimer(c.timeout)
	defer timer.Stop()

	select {
	case resp, ok := <-respCh:
		if !ok {
			return nil, NewNetworkError(fmt.Errorf("connection closed before response"))
		}
		return resp.unwrap()
	case <-ctx.Done():
		c.forget(reqID)
		return nil, ctx.Err()
	case <-timer.C:
		c.forget(reqID)
		return nil, NewTimeoutError()
	}
}

// Close 关闭连接
func (c *websocketClient) Close() error {
	if atomic.CompareAndSwapInt32(&c.closed, 0, 1) {
		c.writeMu.Lock()
		defer c.writeMu.Unlock()
		return c.conn.Close()
	}
	return nil
}
