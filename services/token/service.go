package token

import (
	"context"

	"github.com/weisyn/ledger-sdk-go/provider"
	"github.com/weisyn/ledger-sdk-go/txbuilder"
	"github.com/weisyn/ledger-sdk-go/types"
)

// Service 原生资产业务服务接口
//
// 所有写操作返回已平衡、未签名的交易，签名与提交由调用方完成。
type Service interface {
	// Transfer 单笔转账
	Transfer(ctx context.Context, req *TransferRequest) (*TransferResult, error)

	// BatchTransfer 批量转账（一笔交易多个输出）
	BatchTransfer(ctx context.Context, req *BatchTransferRequest) (*TransferResult, error)

	// Mint 资产铸造
	Mint(ctx context.Context, req *MintRequest) (*MintResult, error)

	// Burn 资产销毁
	Burn(ctx context.Context, req *BurnRequest) (*MintResult, error)

	// GetBalance 查询地址上某个 unit 的余额（不构建交易）
	GetBalance(ctx context.Context, address string, unit string) (int64, error)
}

// tokenService Token 服务实现
type tokenService struct {
	builder  *txbuilder.Builder
	provider provider.UTxOProvider
}

// NewService 创建 Token 服务
//
// provider 仅用于 GetBalance，可以为 nil。
func NewService(builder *txbuilder.Builder, p provider.UTxOProvider) Service {
	return &tokenService{
		builder:  builder,
		provider: p,
	}
}

// TransferRequest 转账请求
type TransferRequest struct {
	To     string       // 接收地址（bech32）
	Assets types.Assets // 转账资产
	// ChangeAddress 找零地址（可选，默认钱包地址）
	ChangeAddress string
	// Metadata 附言（可选，写入 label 674）
	Metadata []string
}

// TransferItem 批量转账中的单个输出
type TransferItem struct {
	To     string
	Assets types.Assets
}

// BatchTransferRequest 批量转账请求
type BatchTransferRequest struct {
	Transfers     []TransferItem
	ChangeAddress string
}

// TransferResult 转账结果
type TransferResult struct {
	TxHash string                // 交易哈希
	Fee    uint64                // 手续费（lovelace）
	Tx     *txbuilder.TxComplete // 待签名交易
}

// MintRequest 铸造请求
type MintRequest struct {
	Policy    types.MintingPolicy // 铸造策略脚本
	AssetName string              // 资产名 hex
	Amount    int64               // 铸造数量
	To        string              // 接收地址（可选，默认钱包地址）
	Redeemer  types.Redeemer      // Plutus 策略的 redeemer（可选）
}

// BurnRequest 销毁请求
type BurnRequest struct {
	Policy    types.MintingPolicy
	AssetName string
	Amount    int64 // 销毁数量（正数）
	Redeemer  types.Redeemer
}

// MintResult 铸造 / 销毁结果
type MintResult struct {
	TxHash string
	Fee    uint64
	Unit   string // policy id + 资产名 hex
	Tx     *txbuilder.TxComplete
}

// Transfer 单笔转账（实现在transfer.go）
func (s *tokenService) Transfer(ctx context.Context, req *TransferRequest) (*TransferResult, error) {
	return s.transfer(ctx, req)
}

// BatchTransfer 批量转账（实现在transfer.go）
func (s *tokenService) BatchTransfer(ctx context.Context, req *BatchTransferRequest) (*TransferResult, error) {
	return s.batchTransfer(ctx, req)
}

// Mint 资产铸造（实现在mint.go）
func (s *tokenService) Mint(ctx context.Context, req *MintRequest) (*MintResult, error) {
	return s.mint(ctx, req)
}

// Burn 资产销毁（实现在mint.go）
func (s *tokenService) Burn(ctx context.Context, req *BurnRequest) (*MintResult, error) {
	return s.burn(ctx, req)
}

// GetBalance 查询余额（实现在balance.go）
func (s *tokenService) GetBalance(ctx context.Context, address string, unit string) (int64, error) {
	return s.getBalance(ctx, address, unit)
}
