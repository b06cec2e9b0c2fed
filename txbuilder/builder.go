// Package txbuilder 交易构建核心：意图累积、延迟任务队列、证书组装与最终化
//
// **使用流程**：
//
//	b, _ := txbuilder.New(cfg, txbuilder.WithWallet(w), txbuilder.WithDatumLookup(kupo))
//	tx := b.NewTx().
//	    PayToAddress(addr, types.Assets{types.Lovelace: 5_000_000}).
//	    AttachMetadata(674, map[string]interface{}{"msg": []interface{}{"hello"}})
//	signable, err := tx.Complete(ctx, nil)
//
// 可以同步校验的输入在调用意图方法时立即校验；需要外部数据（datum 正文、矿池元数据）
// 的部分进入任务队列，在 Complete 中按入队顺序执行。
package txbuilder

import (
	"github.com/google/uuid"

	"github.com/weisyn/ledger-sdk-go/client"
	"github.com/weisyn/ledger-sdk-go/ledger"
	"github.com/weisyn/ledger-sdk-go/types"
)

// Builder 交易构建工厂：持有配置与外部协作方，每次 NewTx 产生独立的构建
type Builder struct {
	cfg       *Config
	wallet    Wallet
	datums    DatumLookup
	fetcher   MetadataFetcher
	slots     SlotConverter
	newEngine func() ledger.Engine
}

// Option Builder 选项
type Option func(*Builder)

// WithWallet 设置钱包
func WithWallet(w Wallet) Option {
	return func(b *Builder) { b.wallet = w }
}

// WithDatumLookup 设置 datum 查询
func WithDatumLookup(d DatumLookup) Option {
	return func(b *Builder) { b.datums = d }
}

// WithMetadataFetcher 设置矿池元数据获取器
func WithMetadataFetcher(f MetadataFetcher) Option {
	return func(b *Builder) { b.fetcher = f }
}

// WithSlotConverter 覆盖 slot 换算器
func WithSlotConverter(s SlotConverter) Option {
	return func(b *Builder) { b.slots = s }
}

// WithEngine 设置账本引擎工厂；默认使用 ledger.DraftEngine
func WithEngine(newEngine func() ledger.Engine) Option {
	return func(b *Builder) { b.newEngine = newEngine }
}

// New 创建 Builder
func New(cfg *Config, opts ...Option) (*Builder, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	b := &Builder{cfg: cfg, slots: cfg.slotConverter()}
	b.newEngine = func() ledger.Engine {
		return ledger.NewDraftEngine(cfg.ProtocolParams)
	}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

// Network 构建目标网络
func (b *Builder) Network() types.Network {
	return b.cfg.Network
}

// NewTx 开始一次新的交易构建
func (b *Builder) NewTx() *Tx {
	id := uuid.NewString()
	return &Tx{
		id:      id,
		b:       b,
		network: b.cfg.Network,
		engine:  b.newEngine(),
		logger:  client.With(b.cfg.logger(), "build", id),
	}
}

// txState 构建生命周期
type txState uint8

const (
	stateBuilding txState = iota
	stateDraining
	stateDone
)

// Tx 一次交易构建
//
// 意图方法返回同一个 *Tx 以便链式调用。第一个失败的意图会被记录，
// 之后的意图不再生效；错误可通过 Err 立即取得，Complete 也会返回它。
// Tx 不是并发安全的，只能由一个调用方使用，且只能 Complete 一次。
type Tx struct {
	id      string
	b       *Builder
	network types.Network
	engine  ledger.Engine
	queue   TaskQueue[*Tx]
	state   txState
	err     error
	logger  client.Logger
}

// BuildID 本次构建的唯一标识（出现在所有日志中）
func (t *Tx) BuildID() string {
	return t.id
}

// Err 第一个失败意图的错误
func (t *Tx) Err() error {
	return t.err
}

// Pending 尚未执行的延迟任务数
func (t *Tx) Pending() int {
	return t.queue.Len()
}

// apply 执行一个同步意图；已有错误或构建已结束时不执行
func (t *Tx) apply(intent string, fn func() error) *Tx {
	if t.err != nil {
		return t
	}
	if t.state == stateDone {
		t.err = types.Errorf(types.ErrCodeInvalidParams, "%s called on a completed transaction", intent)
		return t
	}
	if err := fn(); err != nil {
		t.err = err
		t.logger.Warn("Intent rejected", "intent", intent, "error", err)
		return t
	}
	t.logger.Debug("Intent applied", "intent", intent)
	return t
}

// enqueue 同步校验通过后登记延迟任务
func (t *Tx) enqueue(intent string, validate func() (Task[*Tx], error)) *Tx {
	return t.apply(intent, func() error {
		task, err := validate()
		if err != nil {
			return err
		}
		t.queue.Enqueue(task)
		return nil
	})
}
