package txbuilder

import (
	"context"
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/weisyn/ledger-sdk-go/ledger"
	"github.com/weisyn/ledger-sdk-go/types"
	"github.com/weisyn/ledger-sdk-go/utils"
)

// 账本对矿池证书中字符串字段的长度上限
const (
	maxPoolURLLength = 64
	maxDNSNameLength = 64
)

// poolTask 组装矿池注册 / 更新证书
type poolTask struct {
	params types.PoolParams
	update bool
}

func (k *poolTask) Name() string {
	if k.update {
		return "updatePool"
	}
	return "registerPool"
}

func (k *poolTask) Run(ctx context.Context, t *Tx) error {
	params, err := t.poolParams(ctx, k.params)
	if err != nil {
		return err
	}
	return t.engine.AddCertificate(ledger.PoolRegistration{Params: params, IsUpdate: k.update}, nil)
}

// poolParams 领域矿池参数转规范形式
//
// **步骤**：
//  1. pool id、VRF key hash、奖励地址解码
//  2. 每个 owner 必须解析为 key hash 凭证，否则 UNSUPPORTED_CREDENTIAL_TYPE
//  3. 中继按输入顺序转换
//  4. 有元数据 URL 时获取内容并计算 blake2b-256，失败返回 METADATA_FETCH_FAILED
func (t *Tx) poolParams(ctx context.Context, p types.PoolParams) (ledger.PoolParams, error) {
	operator, err := utils.PoolIDToKeyHash(p.PoolID)
	if err != nil {
		return ledger.PoolParams{}, err
	}
	vrf, err := vrfKeyHash(p.VRFKeyHash)
	if err != nil {
		return ledger.PoolParams{}, err
	}
	margin, err := marginToUnitInterval(p.Margin)
	if err != nil {
		return ledger.PoolParams{}, err
	}
	rewardAccount, _, err := utils.RewardAddressFrom(p.RewardAddress, t.network)
	if err != nil {
		return ledger.PoolParams{}, err
	}

	owners := make([]ledger.KeyHash, 0, len(p.Owners))
	for _, owner := range p.Owners {
		kh, err := utils.OwnerKeyHash(owner, t.network)
		if err != nil {
			return ledger.PoolParams{}, err
		}
		owners = append(owners, kh)
	}

	relays := make([]ledger.Relay, 0, len(p.Relays))
	for i, r := range p.Relays {
		relay, err := relayOf(r)
		if err != nil {
			if txErr, ok := err.(*types.TxError); ok {
				txErr.WithDetail("relay", i)
			}
			return ledger.PoolParams{}, err
		}
		relays = append(relays, relay)
	}

	out := ledger.PoolParams{
		Operator:      operator,
		VRFKeyHash:    vrf,
		Pledge:        p.Pledge,
		Cost:          p.Cost,
		Margin:        margin,
		RewardAccount: rewardAccount,
		Owners:        owners,
		Relays:        relays,
	}
	if p.MetadataURL != "" {
		md, err := t.poolMetadata(ctx, p.MetadataURL)
		if err != nil {
			return ledger.PoolParams{}, err
		}
		out.Metadata = md
	}
	return out, nil
}

func (t *Tx) poolMetadata(ctx context.Context, url string) (*ledger.PoolMetadata, error) {
	if len(url) > maxPoolURLLength {
		return nil, types.Errorf(types.ErrCodeInvalidParams, "metadata url longer than %d bytes", maxPoolURLLength).
			WithDetail("url", url)
	}
	if t.b.fetcher == nil {
		return nil, types.NewError(types.ErrCodeMetadataFetch, "no metadata fetcher configured").
			WithDetail("url", url)
	}
	body, err := t.b.fetcher.Fetch(ctx, url)
	if err != nil {
		if types.CodeOf(err) == types.ErrCodeMetadataFetch {
			return nil, err
		}
		return nil, (&types.TxError{Code: types.ErrCodeMetadataFetch, Message: "fetch pool metadata", Cause: err}).
			WithDetail("url", url)
	}
	t.logger.Debug("Fetched pool metadata", "url", url, "bytes", len(body))
	return &ledger.PoolMetadata{URL: url, Hash: ledger.Blake2b256(body)}, nil
}

func vrfKeyHash(s string) (ledger.VRFKeyHash, error) {
	raw, err := utils.FromHex("vrf key hash", s)
	if err != nil {
		return ledger.VRFKeyHash{}, err
	}
	if len(raw) != ledger.Hash32Size {
		return ledger.VRFKeyHash{}, types.MalformedEncoding("vrf key hash", fmt.Errorf("expected %d bytes, got %d", ledger.Hash32Size, len(raw))).
			WithDetail("value", s)
	}
	var h ledger.VRFKeyHash
	copy(h[:], raw)
	return h, nil
}

// marginToUnitInterval 将 [0, 1] 内的小数转为最简分数
func marginToUnitInterval(margin float64) (ledger.UnitInterval, error) {
	if math.IsNaN(margin) || margin < 0 || margin > 1 {
		return ledger.UnitInterval{}, types.Errorf(types.ErrCodeInvalidParams, "margin must be within [0, 1], got %v", margin)
	}
	d := decimal.NewFromFloat(margin)
	num := new(big.Int).Set(d.Coefficient())
	den := big.NewInt(1)
	if exp := d.Exponent(); exp < 0 {
		den.Exp(big.NewInt(10), big.NewInt(int64(-exp)), nil)
	} else {
		num.Mul(num, new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(exp)), nil))
	}
	if num.Sign() == 0 {
		return ledger.UnitInterval{Numerator: 0, Denominator: 1}, nil
	}
	g := new(big.Int).GCD(nil, nil, num, den)
	num.Quo(num, g)
	den.Quo(den, g)
	if !num.IsUint64() || !den.IsUint64() {
		return ledger.UnitInterval{}, types.Errorf(types.ErrCodeInvalidParams, "margin %v is too precise", margin)
	}
	return ledger.UnitInterval{Numerator: num.Uint64(), Denominator: den.Uint64()}, nil
}

// relayOf 中继转换：IPv4 点分十进制为 4 字节；IPv6 去掉冒号后按 hex 解码为 16 字节
func relayOf(r types.Relay) (ledger.Relay, error) {
	var port *uint16
	if r.Port != 0 {
		p := r.Port
		port = &p
	}

	switch r.Type {
	case types.RelaySingleHostIP:
		relay := ledger.SingleHostAddr{Port: port}
		if r.IPv4 != "" {
			ip, err := parseIPv4(r.IPv4)
			if err != nil {
				return nil, err
			}
			relay.IPv4 = ip
		}
		if r.IPv6 != "" {
			ip, err := utils.FromHex("ipv6 address", strings.ReplaceAll(r.IPv6, ":", ""))
			if err != nil {
				return nil, err
			}
			if len(ip) != 16 {
				return nil, types.MalformedEncoding("ipv6 address", fmt.Errorf("expected 16 bytes, got %d", len(ip))).
					WithDetail("value", r.IPv6)
			}
			relay.IPv6 = ip
		}
		if relay.IPv4 == nil && relay.IPv6 == nil {
			return nil, types.NewError(types.ErrCodeInvalidParams, "single host relay needs an ipv4 or ipv6 address")
		}
		return relay, nil
	case types.RelaySingleHostDomainName:
		if err := checkDNSName(r.DomainName); err != nil {
			return nil, err
		}
		return ledger.SingleHostName{Port: port, DNSName: r.DomainName}, nil
	case types.RelayMultiHost:
		if err := checkDNSName(r.DomainName); err != nil {
			return nil, err
		}
		return ledger.MultiHostName{DNSName: r.DomainName}, nil
	}
	return nil, types.Errorf(types.ErrCodeInvalidParams, "no variant matched for relay type %q", r.Type)
}

func parseIPv4(s string) ([]byte, error) {
	parts := strings.Split(s, ".")
	if len(parts) != 4 {
		return nil, types.MalformedEncoding("ipv4 address", fmt.Errorf("expected 4 octets, got %d", len(parts))).
			WithDetail("value", s)
	}
	out := make([]byte, 4)
	for i, p := range parts {
		n, err := strconv.ParseUint(p, 10, 8)
		if err != nil {
			return nil, types.MalformedEncoding("ipv4 address", err).WithDetail("value", s)
		}
		out[i] = byte(n)
	}
	return out, nil
}

func checkDNSName(name string) error {
	if name == "" {
		return types.NewError(types.ErrCodeInvalidParams, "relay domain name is empty")
	}
	if len(name) > maxDNSNameLength {
		return types.Errorf(types.ErrCodeInvalidParams, "relay domain name longer than %d bytes", maxDNSNameLength).
			WithDetail("domainName", name)
	}
	return nil
}
