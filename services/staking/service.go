package staking

import (
	"context"

	"github.com/weisyn/ledger-sdk-go/txbuilder"
	"github.com/weisyn/ledger-sdk-go/types"
	"github.com/weisyn/ledger-sdk-go/wallet"
)

// Service 质押业务服务接口
//
// 奖励地址为空时使用钱包的奖励地址。所有操作返回已平衡、未签名的交易。
type Service interface {
	// Delegate 委托到矿池（可选同时注册质押凭证）
	Delegate(ctx context.Context, req *DelegateRequest) (*Result, error)

	// Undelegate 注销质押凭证，退还押金
	Undelegate(ctx context.Context, req *UndelegateRequest) (*Result, error)

	// ClaimReward 提取奖励
	ClaimReward(ctx context.Context, req *ClaimRewardRequest) (*Result, error)

	// RegisterPool 注册或更新矿池
	RegisterPool(ctx context.Context, req *RegisterPoolRequest) (*Result, error)

	// RetirePool 矿池退役
	RetirePool(ctx context.Context, req *RetirePoolRequest) (*Result, error)
}

// stakingService Staking 服务实现
type stakingService struct {
	builder *txbuilder.Builder
	wallet  wallet.Wallet // 可选：提供默认奖励地址
}

// NewService 创建 Staking 服务（不带 Wallet，请求中必须给出奖励地址）
func NewService(builder *txbuilder.Builder) Service {
	return &stakingService{
		builder: builder,
	}
}

// NewServiceWithWallet 创建带默认 Wallet 的 Staking 服务
func NewServiceWithWallet(builder *txbuilder.Builder, w wallet.Wallet) Service {
	return &stakingService{
		builder: builder,
		wallet:  w,
	}
}

// rewardAddress 获取奖励地址（优先使用请求参数，其次使用钱包）
func (s *stakingService) rewardAddress(ctx context.Context, requested string) (string, error) {
	if requested != "" {
		return requested, nil
	}
	if s.wallet == nil {
		return "", types.NewError(types.ErrCodeInvalidParams, "reward address is required")
	}
	return s.wallet.RewardAddress(ctx)
}

// DelegateRequest 委托请求
type DelegateRequest struct {
	RewardAddress string         // 奖励地址（可选）
	PoolID        string         // pool1... 或 hex
	Register      bool           // 同时注册质押凭证
	Redeemer      types.Redeemer // 脚本质押凭证的 redeemer（可选）
}

// UndelegateRequest 注销请求
type UndelegateRequest struct {
	RewardAddress string
	// Withdraw 注销前一并提取的剩余奖励（lovelace）
	Withdraw uint64
	Redeemer types.Redeemer
}

// ClaimRewardRequest 提取奖励请求
type ClaimRewardRequest struct {
	RewardAddress string
	Amount        uint64 // 必须等于奖励账户全部余额
	Redeemer      types.Redeemer
}

// RegisterPoolRequest 矿池注册请求
type RegisterPoolRequest struct {
	Params types.PoolParams
	Update bool // 更新已注册矿池的参数（不收取押金）
}

// RetirePoolRequest 矿池退役请求
type RetirePoolRequest struct {
	PoolID string
	Epoch  uint64
}

// Result 交易构建结果
type Result struct {
	TxHash string                // 交易哈希
	Fee    uint64                // 手续费（lovelace）
	Tx     *txbuilder.TxComplete // 待签名交易
}

// Delegate 委托（实现在delegate.go）
func (s *stakingService) Delegate(ctx context.Context, req *DelegateRequest) (*Result, error) {
	return s.delegate(ctx, req)
}

// Undelegate 注销（实现在delegate.go）
func (s *stakingService) Undelegate(ctx context.Context, req *UndelegateRequest) (*Result, error) {
	return s.undelegate(ctx, req)
}

// ClaimReward 提取奖励（实现在delegate.go）
func (s *stakingService) ClaimReward(ctx context.Context, req *ClaimRewardRequest) (*Result, error) {
	return s.claimReward(ctx, req)
}

// RegisterPool 矿池注册（实现在pool.go）
func (s *stakingService) RegisterPool(ctx context.Context, req *RegisterPoolRequest) (*Result, error) {
	return s.registerPool(ctx, req)
}

// RetirePool 矿池退役（实现在pool.go）
func (s *stakingService) RetirePool(ctx context.Context, req *RetirePoolRequest) (*Result, error) {
	return s.retirePool(ctx, req)
}

func complete(ctx context.Context, tx *txbuilder.Tx) (*Result, error) {
	signable, err := tx.Complete(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &Result{
		TxHash: signable.ID(),
		Fee:    signable.Fee(),
		Tx:     signable,
	}, nil
}

func redeemers(r types.Redeemer) []types.Redeemer {
	if r == "" {
		return nil
	}
	return []types.Redeemer{r}
}
