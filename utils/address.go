package utils

import (
	"encoding/hex"
	"fmt"
	"hash/crc32"
	"strings"

	"github.com/btcsuite/btcd/btcutil/base58"
	"github.com/btcsuite/btcd/btcutil/bech32"
	"github.com/fxamacker/cbor/v2"

	"github.com/weisyn/ledger-sdk-go/ledger"
	"github.com/weisyn/ledger-sdk-go/types"
)

// bech32 前缀
const (
	HRPAddress        = "addr"
	HRPAddressTestnet = "addr_test"
	HRPStake          = "stake"
	HRPStakeTestnet   = "stake_test"
	HRPPool           = "pool"
)

// AddressEncoding 地址的两种字符串形式
type AddressEncoding struct {
	Bech32 string `json:"bech32"` // Byron 地址为 base58
	Hex    string `json:"hex"`
}

// AddressDetails 地址解析结果
//
// 同一地址多次解析得到完全相同的结果（纯函数，无缓存、无状态）。
type AddressDetails struct {
	Type              ledger.AddressKind `json:"type"`
	NetworkID         int                `json:"networkId"` // Byron 地址为 -1
	Address           AddressEncoding    `json:"address"`
	PaymentCredential *ledger.Credential `json:"paymentCredential,omitempty"`
	StakeCredential   *ledger.Credential `json:"stakeCredential,omitempty"`
	Pointer           *ledger.Pointer    `json:"pointer,omitempty"`
	Raw               ledger.Address     `json:"-"`
}

// GetAddressDetails 解析地址字符串
//
// **支持格式**：
// - bech32：addr / addr_test / stake / stake_test
// - base58：Byron 地址（校验 CBOR 结构与 CRC32）
// - hex：原始地址字节（可带 0x 前缀）
func GetAddressDetails(address string) (*AddressDetails, error) {
	raw, err := decodeAddress(address)
	if err != nil {
		return nil, err
	}
	kind, err := raw.Kind()
	if err != nil {
		return nil, types.InvalidAddress(address, err.Error())
	}

	details := &AddressDetails{
		Type:              kind,
		NetworkID:         -1,
		Address:           AddressEncoding{Hex: raw.Hex()},
		PaymentCredential: raw.PaymentCredential(),
		StakeCredential:   raw.StakeCredential(),
		Pointer:           raw.Pointer(),
		Raw:               raw,
	}
	if id, ok := raw.NetworkID(); ok {
		details.NetworkID = int(id)
	}
	if details.Address.Bech32, err = EncodeAddress(raw); err != nil {
		return nil, types.InvalidAddress(address, err.Error())
	}
	return details, nil
}

func decodeAddress(address string) (ledger.Address, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return nil, types.InvalidAddress(address, "empty address")
	}

	if hrp, data, err := bech32.DecodeNoLimit(address); err == nil {
		switch hrp {
		case HRPAddress, HRPAddressTestnet, HRPStake, HRPStakeTestnet:
		default:
			return nil, types.InvalidAddress(address, fmt.Sprintf("unexpected bech32 prefix %q", hrp))
		}
		raw, err := bech32.ConvertBits(data, 5, 8, false)
		if err != nil {
			return nil, types.InvalidAddress(address, "invalid bech32 payload")
		}
		return ledger.Address(raw), nil
	}

	if raw, ok := decodeHex(address); ok {
		return ledger.Address(raw), nil
	}

	if raw := base58.Decode(address); len(raw) > 0 {
		if err := checkByron(raw); err != nil {
			return nil, types.InvalidAddress(address, err.Error())
		}
		return ledger.Address(raw), nil
	}

	return nil, types.InvalidAddress(address, "address is neither bech32, hex nor base58")
}

func decodeHex(s string) ([]byte, bool) {
	s = strings.TrimPrefix(s, "0x")
	if len(s) == 0 || len(s)%2 != 0 {
		return nil, false
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, false
	}
	return b, true
}

// Byron 地址为 [#6.24(bytes), crc32]
func checkByron(raw []byte) error {
	var parts []cbor.RawMessage
	if err := cbor.Unmarshal(raw, &parts); err != nil || len(parts) != 2 {
		return fmt.Errorf("byron address is not a two-element CBOR array")
	}
	var payload cbor.Tag
	if err := cbor.Unmarshal(parts[0], &payload); err != nil || payload.Number != 24 {
		return fmt.Errorf("byron address payload is not tagged CBOR")
	}
	content, ok := payload.Content.([]byte)
	if !ok {
		return fmt.Errorf("byron address payload is not a byte string")
	}
	var crc uint32
	if err := cbor.Unmarshal(parts[1], &crc); err != nil {
		return fmt.Errorf("byron address checksum is not an integer")
	}
	if crc32.ChecksumIEEE(content) != crc {
		return fmt.Errorf("byron address checksum mismatch")
	}
	return nil
}

// EncodeAddress 按地址类型与网络编码为 bech32（Byron 为 base58）
func EncodeAddress(raw ledger.Address) (string, error) {
	kind, err := raw.Kind()
	if err != nil {
		return "", err
	}
	if kind == ledger.AddressByron {
		return base58.Encode(raw), nil
	}
	id, _ := raw.NetworkID()
	hrp := HRPAddress
	if kind == ledger.AddressReward {
		hrp = HRPStake
	}
	if id == 0 {
		hrp += "_test"
	}
	return encodeBech32(hrp, raw)
}

func encodeBech32(hrp string, raw []byte) (string, error) {
	conv, err := bech32.ConvertBits(raw, 8, 5, true)
	if err != nil {
		return "", err
	}
	return bech32.Encode(hrp, conv)
}

// AddressFromWithNetworkCheck 解析地址并校验网络编号；Byron 地址不做校验
func AddressFromWithNetworkCheck(address string, network types.Network) (ledger.Address, error) {
	details, err := detailsWithNetworkCheck(address, network)
	if err != nil {
		return nil, err
	}
	return details.Raw, nil
}

func detailsWithNetworkCheck(address string, network types.Network) (*AddressDetails, error) {
	details, err := GetAddressDetails(address)
	if err != nil {
		return nil, err
	}
	if details.NetworkID >= 0 && byte(details.NetworkID) != network.ID() {
		return nil, types.InvalidAddress(address, "address network does not match builder network").
			WithDetail("network", string(network)).
			WithDetail("networkId", details.NetworkID)
	}
	return details, nil
}

// RewardAddressFrom 解析奖励地址并返回其质押凭证
//
// 非奖励地址（如基础地址）返回 INVALID_ADDRESS。
func RewardAddressFrom(rewardAddress string, network types.Network) (ledger.Address, ledger.Credential, error) {
	raw, err := AddressFromWithNetworkCheck(rewardAddress, network)
	if err != nil {
		return nil, ledger.Credential{}, err
	}
	kind, _ := raw.Kind()
	if kind != ledger.AddressReward {
		return nil, ledger.Credential{}, types.InvalidAddress(rewardAddress, "reward address required").
			WithDetail("type", string(kind))
	}
	return raw, *raw.StakeCredential(), nil
}

// SignerKeyHash 返回地址对应的签名 key hash
//
// 奖励地址取质押凭证，其余取支付凭证；脚本凭证返回 UNSUPPORTED_CREDENTIAL_TYPE。
func SignerKeyHash(address string, network types.Network) (ledger.KeyHash, error) {
	details, err := detailsWithNetworkCheck(address, network)
	if err != nil {
		return ledger.KeyHash{}, err
	}
	cred := details.PaymentCredential
	if details.Type == ledger.AddressReward {
		cred = details.StakeCredential
	}
	if cred == nil {
		return ledger.KeyHash{}, types.InvalidAddress(address, "address carries no credential").
			WithDetail("type", string(details.Type))
	}
	return keyHashOf(address, cred, "address credential is a script hash, a key hash is required")
}

// OwnerKeyHash 解析矿池所有者地址的质押凭证
//
// 任何带质押凭证的地址均可（奖励地址、基础地址）；没有质押凭证返回 INVALID_ADDRESS，
// 脚本凭证返回 UNSUPPORTED_CREDENTIAL_TYPE。
func OwnerKeyHash(owner string, network types.Network) (ledger.KeyHash, error) {
	details, err := detailsWithNetworkCheck(owner, network)
	if err != nil {
		return ledger.KeyHash{}, err
	}
	if details.StakeCredential == nil {
		return ledger.KeyHash{}, types.InvalidAddress(owner, "pool owner address carries no stake credential").
			WithDetail("type", string(details.Type))
	}
	return keyHashOf(owner, details.StakeCredential, "pool owner must be a key hash credential")
}

func keyHashOf(address string, cred *ledger.Credential, reason string) (ledger.KeyHash, error) {
	if !cred.IsKey() {
		return ledger.KeyHash{}, types.NewError(types.ErrCodeUnsupportedCredentialType, reason).
			WithDetail("address", address).
			WithDetail("scriptHash", cred.HashHex())
	}
	return cred.KeyHash(), nil
}

// CredentialToRewardAddress 由质押凭证构造 bech32 奖励地址
func CredentialToRewardAddress(network types.Network, cred ledger.Credential) (string, error) {
	return EncodeAddress(ledger.NewRewardAddress(network.ID(), cred))
}

// PoolIDToKeyHash 解析矿池 ID（bech32 pool1… 或 56 位 hex）
func PoolIDToKeyHash(poolID string) (ledger.KeyHash, error) {
	var raw []byte
	if hrp, data, err := bech32.DecodeNoLimit(poolID); err == nil {
		if hrp != HRPPool {
			return ledger.KeyHash{}, types.InvalidAddress(poolID, fmt.Sprintf("unexpected pool id prefix %q", hrp))
		}
		if raw, err = bech32.ConvertBits(data, 5, 8, false); err != nil {
			return ledger.KeyHash{}, types.InvalidAddress(poolID, "invalid pool id payload")
		}
	} else if b, ok := decodeHex(poolID); ok {
		raw = b
	}
	if len(raw) != ledger.Hash28Size {
		return ledger.KeyHash{}, types.InvalidAddress(poolID, "pool id must be a 28-byte key hash")
	}
	var kh ledger.KeyHash
	copy(kh[:], raw)
	return kh, nil
}

// PoolIDFromKeyHash 将矿池 key hash 编码为 bech32 pool id
func PoolIDFromKeyHash(kh ledger.KeyHash) (string, error) {
	return encodeBech32(HRPPool, kh[:])
}
