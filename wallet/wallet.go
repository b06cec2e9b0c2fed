// Package wallet 只读钱包：提供找零地址与可用 UTxO
//
// 密钥管理与签名不在本 SDK 范围内，钱包仅描述"花谁的钱、找零给谁"。
package wallet

import (
	"context"

	"github.com/weisyn/ledger-sdk-go/provider"
	"github.com/weisyn/ledger-sdk-go/types"
	"github.com/weisyn/ledger-sdk-go/utils"
)

// Wallet 钱包接口
type Wallet interface {
	// Address 默认找零地址
	Address(ctx context.Context) (string, error)

	// RewardAddress 奖励地址；地址不含 stake 凭证时返回空串
	RewardAddress(ctx context.Context) (string, error)

	// GetUtxos 钱包当前可用的 UTxO
	GetUtxos(ctx context.Context) ([]types.UTxO, error)
}

// ReadOnlyWallet 由地址与 UTxO 提供方构成的钱包
type ReadOnlyWallet struct {
	address       string
	rewardAddress string
	provider      provider.UTxOProvider
}

// NewReadOnlyWallet 创建只读钱包
//
// address 在创建时解析并校验网络；奖励地址由其 stake 凭证推导。
func NewReadOnlyWallet(address string, network types.Network, p provider.UTxOProvider) (*ReadOnlyWallet, error) {
	if _, err := utils.AddressFromWithNetworkCheck(address, network); err != nil {
		return nil, err
	}
	details, err := utils.GetAddressDetails(address)
	if err != nil {
		return nil, err
	}

	w := &ReadOnlyWallet{address: address, provider: p}
	if details.StakeCredential != nil {
		reward, err := utils.CredentialToRewardAddress(network, *details.StakeCredential)
		if err != nil {
			return nil, err
		}
		w.rewardAddress = reward
	}
	return w, nil
}

// Address 默认找零地址
func (w *ReadOnlyWallet) Address(context.Context) (string, error) {
	return w.address, nil
}

// RewardAddress 奖励地址
func (w *ReadOnlyWallet) RewardAddress(context.Context) (string, error) {
	return w.rewardAddress, nil
}

// GetUtxos 查询钱包地址上的 UTxO
func (w *ReadOnlyWallet) GetUtxos(ctx context.Context) ([]types.UTxO, error) {
	utxos, err := w.provider.GetUtxos(ctx, []string{w.address})
	if err != nil {
		return nil, types.WrapError(types.ErrCodeProvider, "query wallet utxos", err)
	}
	return utxos, nil
}
