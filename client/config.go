package client

import "time"

// Config 客户端配置
type Config struct {
	// Endpoint 节点端点地址
	Endpoint string `yaml:"endpoint"`

	// Protocol 协议类型
	Protocol Protocol `yaml:"protocol"`

	// Timeout 超时时间（秒）
	Timeout int `yaml:"timeout"`

	// Headers 附加请求头（如托管服务的 project id）
	Headers map[string]string `yaml:"headers,omitempty"`

	// TLS 配置
	TLS *TLSConfig `yaml:"tls,omitempty"`

	// GRPCService gRPC 网关服务名，Call 映射为 /<GRPCService>/Call
	GRPCService string `yaml:"grpcService,omitempty"`

	// 调试模式
	Debug bool `yaml:"debug"`

	// Retry 重试配置；nil 表示不重试
	Retry *RetryConfig `yaml:"-"`

	// 日志器（可选）
	Logger Logger `yaml:"-"`
}

// Protocol 协议类型
type Protocol string

const (
	ProtocolHTTP      Protocol = "http"
	ProtocolGRPC      Protocol = "grpc"
	ProtocolWebSocket Protocol = "websocket"
)

// TLSConfig TLS 配置
type TLSConfig struct {
	CertFile string `yaml:"certFile"`
	KeyFile  string `yaml:"keyFile"`
	CAFile   string `yaml:"caFile"`
	Insecure bool   `yaml:"insecure"` // 跳过 TLS 验证（仅用于开发）
}

// DefaultGRPCService 默认 gRPC 网关服务名
const DefaultGRPCService = "jsonrpc.JsonRpc"

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		Endpoint:    "http://localhost:1337",
		Protocol:    ProtocolHTTP,
		Timeout:     30,
		GRPCService: DefaultGRPCService,
		Debug:       false,
	}
}

func (c *Config) timeout() time.Duration {
	if c.Timeout <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.Timeout) * time.Second
}

func (c *Config) logger() Logger {
	if c.Logger == nil {
		return NopLogger{}
	}
	return c.Logger
}
