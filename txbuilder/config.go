package txbuilder

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/weisyn/ledger-sdk-go/client"
	"github.com/weisyn/ledger-sdk-go/ledger"
	"github.com/weisyn/ledger-sdk-go/metrics"
	"github.com/weisyn/ledger-sdk-go/types"
	"github.com/weisyn/ledger-sdk-go/utils"
)

// Config 交易构建配置
type Config struct {
	// Network 目标网络；所有输出地址与找零地址都必须属于该网络
	Network types.Network `yaml:"network"`

	// SlotConfig slot 换算参数；为空时使用网络内置参数（Custom 网络必须提供）
	SlotConfig *utils.SlotConfig `yaml:"slotConfig,omitempty"`

	// ProtocolParams 参考引擎使用的协议参数
	ProtocolParams ledger.ProtocolParams `yaml:"protocolParams"`

	// Ogmios / Kupo 后端（可选，供应用装配提供方）
	Ogmios *client.Config `yaml:"ogmios,omitempty"`
	Kupo   *client.Config `yaml:"kupo,omitempty"`

	// 日志器（可选）
	Logger client.Logger `yaml:"-"`

	// 指标（可选）
	Metrics *metrics.Collector `yaml:"-"`
}

// DefaultConfig 返回主网默认配置
func DefaultConfig() *Config {
	return &Config{
		Network:        types.NetworkMainnet,
		ProtocolParams: ledger.DefaultProtocolParams(),
	}
}

// LoadConfig 从 YAML 文件加载配置
//
// 文件中未出现的字段保留 DefaultConfig 的值。
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig 解析 YAML 配置
func ParseConfig(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config yaml decode failed: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate 校验配置
func (c *Config) Validate() error {
	if !c.Network.Valid() {
		return types.Errorf(types.ErrCodeInvalidParams, "unknown network %q", c.Network)
	}
	if c.Network == types.NetworkCustom && c.SlotConfig == nil {
		return types.NewError(types.ErrCodeInvalidParams, "custom network requires slotConfig")
	}
	if c.SlotConfig != nil && c.SlotConfig.SlotLength <= 0 {
		return types.Errorf(types.ErrCodeInvalidParams, "slot length must be positive, got %d", c.SlotConfig.SlotLength)
	}
	return nil
}

// slotConverter 返回配置对应的 slot 换算器
func (c *Config) slotConverter() SlotConverter {
	if c.SlotConfig != nil {
		return *c.SlotConfig
	}
	if sc, err := utils.SlotConfigFor(c.Network); err == nil {
		return sc
	}
	return nil
}

func (c *Config) logger() client.Logger {
	if c.Logger == nil {
		return client.NopLogger{}
	}
	return c.Logger
}
