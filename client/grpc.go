package client

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync/atomic"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
)

// grpcClient gRPC 客户端实现
//
// 通过网关服务的单一 unary 方法 /<service>/Call 转发 JSON-RPC 请求，
// 消息体以 JSON 编解码，无需生成的 protobuf 桩代码。
type grpcClient struct {
	conn     *grpc.ClientConn
	endpoint string
	method   string
	logger   Logger
	debug    bool
	nextID   uint64
}

// jsonCodec gRPC 的 JSON 编解码器
type jsonCodec struct{}

func (jsonCodec) Marshal(v interface{}) ([]byte, error)      { return json.Marshal(v) }
func (jsonCodec) Unmarshal(data []byte, v interface{}) error { return json.Unmarshal(data, v) }
func (jsonCodec) Name() string                               { return "json" }

// NewGRPCClient 创建 gRPC 客户端
func NewGRPCClient(config *Config) (Client, error) {
	if config == nil {
		config = DefaultConfig()
	}

	endpoint := strings.TrimPrefix(strings.TrimPrefix(config.Endpoint, "http://"), "https://")

	creds := insecure.NewCredentials()
	tlsCfg, err := buildTLSConfig(config.TLS)
	if err != nil {
		return nil, err
	}
	if tlsCfg != nil {
		creds = credentials.NewTLS(tlsCfg)
	}

	ctx, cancel := context.WithTimeout(context.Background(), config.timeout())
	defer cancel()

	conn, err := grpc.DialContext(ctx, endpoint,
		grpc.WithTransportCredentials(creds),
		grpc.WithDefaultCallOptions(grpc.ForceCodec(jsonCodec{})),
	)
	if err != nil {
		return nil, NewNetworkError(fmt.Errorf("dial gRPC: %w", err))
	}

	service := config.GRPCService
	if service == "" {
		service = DefaultGRPCService
	}

	return &grpcClient{
		conn:     conn,
		endpoint: endpoint,
		method:   "/" + service + "/Call",
		logger:   config.logger(),
		debug:    config.Debug,
	}, nil
}

// Call 调用 JSON-RPC 方法（通过 gRPC）
func (c *grpcClient) Call(ctx context.Context, method string, params interface{}) (json.RawMessage, error) {
	req := &jsonRPCRequest{
		JSONRPC: "2.0",
		Method:  method,
		Params:  params,
		ID:      atomic.AddUint64(&c.nextID, 1),
	}
	if c.debug {
		c.logger.Debug("gRPC request", "method", method, "endpoint", c.endpoint)
	}

	var resp jsonRPCResponse
	if err := c.conn.Invoke(ctx, c.method, req, &resp); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, NewNetworkError(err)
	}
	return resp.unwrap()
}

// Close 关闭连接
func (c *grpcClient) Close() error {
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
