package staking

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weisyn/ledger-sdk-go/ledger"
	"github.com/weisyn/ledger-sdk-go/provider"
	"github.com/weisyn/ledger-sdk-go/txbuilder"
	"github.com/weisyn/ledger-sdk-go/types"
	"github.com/weisyn/ledger-sdk-go/wallet"
)

const (
	walletAddr       = "addr1qx2fxv2umyhttkxyxp8x0dlpdt3k6cwng5pxj3jhsydzer3n0d3vllmyqwsx5wktcd8cc3sq835lu7drv2xwl2wywfgse35a3x"
	rewardAddr       = "stake1uyehkck0lajq8gr28t9uxnuvgcqrc6070x3k9r8048z8y5gh6ffgw"
	scriptRewardAddr = "stake178phkx6acpnf78fuvxn0mkew3l0fd058hzquvz7w36x4gtcccycj5"
	poolHex          = "c37b1b5dc0669f1d3c61a6fddb2e8fde96be87b881c60bce8e8d542f"
)

const fundedLovelace = 600_000_000

func newEnv(t *testing.T) (Service, *wallet.ReadOnlyWallet) {
	t.Helper()
	static := provider.NewStatic(types.UTxO{
		TxHash:  strings.Repeat("a1", 32),
		Address: walletAddr,
		Assets:  types.Assets{types.Lovelace: fundedLovelace},
	})
	w, err := wallet.NewReadOnlyWallet(walletAddr, types.NetworkMainnet, static)
	require.NoError(t, err)
	b, err := txbuilder.New(txbuilder.DefaultConfig(), txbuilder.WithWallet(w))
	require.NoError(t, err)
	return NewServiceWithWallet(b, w), w
}

func changeCoin(t *testing.T, res *Result) uint64 {
	t.Helper()
	outs := res.Tx.Outputs()
	require.Len(t, outs, 1)
	return outs[0].Amount.Coin
}

func TestDelegate_RegisterAndDelegate(t *testing.T) {
	svc, _ := newEnv(t)
	res, err := svc.Delegate(context.Background(), &DelegateRequest{PoolID: poolHex, Register: true})
	require.NoError(t, err)

	keyDeposit := ledger.DefaultProtocolParams().KeyDeposit
	assert.Equal(t, uint64(fundedLovelace)-keyDeposit, changeCoin(t, res)+res.Fee)
	assert.Equal(t, res.Tx.ID(), res.TxHash)
}

func TestDelegate_ExplicitRewardAddressWithoutWallet(t *testing.T) {
	_, w := newEnv(t)
	b, err := txbuilder.New(txbuilder.DefaultConfig(), txbuilder.WithWallet(w))
	require.NoError(t, err)
	svc := NewService(b)

	_, err = svc.Delegate(context.Background(), &DelegateRequest{PoolID: poolHex})
	assert.True(t, errors.Is(err, types.ErrInvalidParams))

	res, err := svc.Delegate(context.Background(), &DelegateRequest{RewardAddress: rewardAddr, PoolID: poolHex})
	require.NoError(t, err)
	// 仅委托不收取押金
	assert.Equal(t, uint64(fundedLovelace), changeCoin(t, res)+res.Fee)
}

func TestDelegate_Errors(t *testing.T) {
	svc, _ := newEnv(t)
	tests := []struct {
		name string
		req  *DelegateRequest
		code types.ErrorCode
	}{
		{"missing pool", &DelegateRequest{}, types.ErrCodeInvalidParams},
		{"bad pool", &DelegateRequest{PoolID: rewardAddr}, types.ErrCodeInvalidAddress},
		{"payment address", &DelegateRequest{RewardAddress: walletAddr, PoolID: poolHex}, types.ErrCodeInvalidAddress},
		// 脚本凭证未给 redeemer 时无法按 key 签名
		{"script credential", &DelegateRequest{RewardAddress: scriptRewardAddr, PoolID: poolHex}, types.ErrCodeUnsupportedCredentialType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Delegate(context.Background(), tt.req)
			require.Error(t, err)
			assert.Equal(t, tt.code, types.CodeOf(err))
		})
	}
}

func TestUndelegate(t *testing.T) {
	svc, _ := newEnv(t)
	res, err := svc.Undelegate(context.Background(), &UndelegateRequest{Withdraw: 3_000_000})
	require.NoError(t, err)

	keyDeposit := ledger.DefaultProtocolParams().KeyDeposit
	assert.Equal(t, uint64(fundedLovelace)+keyDeposit+3_000_000, changeCoin(t, res)+res.Fee)
}

func TestClaimReward(t *testing.T) {
	svc, _ := newEnv(t)
	res, err := svc.ClaimReward(context.Background(), &ClaimRewardRequest{Amount: 7_000_000})
	require.NoError(t, err)
	require.Len(t, res.Tx.Inputs(), 1)
	assert.Equal(t, uint64(fundedLovelace)+7_000_000, changeCoin(t, res)+res.Fee)

	_, err = svc.ClaimReward(context.Background(), &ClaimRewardRequest{})
	assert.True(t, errors.Is(err, types.ErrInvalidParams))
}

func TestRetirePool(t *testing.T) {
	svc, _ := newEnv(t)
	res, err := svc.RetirePool(context.Background(), &RetirePoolRequest{PoolID: poolHex, Epoch: 400})
	require.NoError(t, err)
	assert.NotEmpty(t, res.TxHash)

	_, err = svc.RetirePool(context.Background(), &RetirePoolRequest{PoolID: poolHex})
	assert.True(t, errors.Is(err, types.ErrInvalidParams))
}

func TestRegisterPool(t *testing.T) {
	svc, _ := newEnv(t)
	params := types.PoolParams{
		PoolID:        poolHex,
		VRFKeyHash:    strings.Repeat("0f", 32),
		Pledge:        100_000_000,
		Cost:          340_000_000,
		Margin:        0.01,
		RewardAddress: rewardAddr,
		Owners:        []string{rewardAddr},
		Relays:        []types.Relay{{Type: types.RelaySingleHostIP, IPv4: "10.0.0.1", Port: 3001}},
	}

	res, err := svc.RegisterPool(context.Background(), &RegisterPoolRequest{Params: params})
	require.NoError(t, err)
	poolDeposit := ledger.DefaultProtocolParams().PoolDeposit
	assert.Equal(t, uint64(fundedLovelace)-poolDeposit, changeCoin(t, res)+res.Fee)

	res, err = svc.RegisterPool(context.Background(), &RegisterPoolRequest{Params: params, Update: true})
	require.NoError(t, err)
	assert.Equal(t, uint64(fundedLovelace), changeCoin(t, res)+res.Fee)

	params.Owners = []string{scriptRewardAddr}
	_, err = svc.RegisterPool(context.Background(), &RegisterPoolRequest{Params: params})
	assert.True(t, errors.Is(err, types.ErrUnsupportedCredentialType))
}
