package ledger

import (
	"encoding/hex"
	"fmt"
)

// AddressKind 地址类型
type AddressKind string

const (
	AddressBase       AddressKind = "Base"
	AddressEnterprise AddressKind = "Enterprise"
	AddressPointer    AddressKind = "Pointer"
	AddressReward     AddressKind = "Reward"
	AddressByron      AddressKind = "Byron"
)

// Address 原始地址字节（Shelley 头字节 + 凭证；Byron 为 base58 解码后的 CBOR）
type Address []byte

// Pointer 指针地址中的证书位置
type Pointer struct {
	Slot      uint64
	TxIndex   uint64
	CertIndex uint64
}

// Hex 地址字节的 hex 表示
func (a Address) Hex() string { return hex.EncodeToString(a) }

func (a Address) headerType() byte {
	if len(a) == 0 {
		return 0xff
	}
	return a[0] >> 4
}

// Kind 解析地址类型并校验长度
func (a Address) Kind() (AddressKind, error) {
	if len(a) == 0 {
		return "", fmt.Errorf("empty address")
	}
	switch t := a.headerType(); {
	case t <= 3:
		if len(a) != 1+2*Hash28Size {
			return "", fmt.Errorf("base address must be %d bytes, got %d", 1+2*Hash28Size, len(a))
		}
		return AddressBase, nil
	case t == 4 || t == 5:
		if len(a) < 1+Hash28Size+3 {
			return "", fmt.Errorf("pointer address too short: %d bytes", len(a))
		}
		if _, _, err := a.decodePointer(); err != nil {
			return "", err
		}
		return AddressPointer, nil
	case t == 6 || t == 7:
		if len(a) != 1+Hash28Size {
			return "", fmt.Errorf("enterprise address must be %d bytes, got %d", 1+Hash28Size, len(a))
		}
		return AddressEnterprise, nil
	case t == 8:
		return AddressByron, nil
	case t == 14 || t == 15:
		if len(a) != 1+Hash28Size {
			return "", fmt.Errorf("reward address must be %d bytes, got %d", 1+Hash28Size, len(a))
		}
		return AddressReward, nil
	default:
		return "", fmt.Errorf("unknown address header type %d", t)
	}
}

// NetworkID 网络编号；Byron 地址返回 ok=false
func (a Address) NetworkID() (id byte, ok bool) {
	if len(a) == 0 || a.headerType() == 8 {
		return 0, false
	}
	return a[0] & 0x0f, true
}

func credentialAt(a Address, offset int, script bool) *Credential {
	c := &Credential{Type: CredentialKey}
	if script {
		c.Type = CredentialScript
	}
	copy(c.Hash[:], a[offset:offset+Hash28Size])
	return c
}

// PaymentCredential 支付凭证；奖励地址与 Byron 地址返回 nil
func (a Address) PaymentCredential() *Credential {
	kind, err := a.Kind()
	if err != nil {
		return nil
	}
	switch kind {
	case AddressBase, AddressPointer, AddressEnterprise:
		return credentialAt(a, 1, a.headerType()&0x1 == 1)
	}
	return nil
}

// StakeCredential 质押凭证；仅基础地址与奖励地址携带
func (a Address) StakeCredential() *Credential {
	kind, err := a.Kind()
	if err != nil {
		return nil
	}
	switch kind {
	case AddressBase:
		return credentialAt(a, 1+Hash28Size, a.headerType()&0x2 == 2)
	case AddressReward:
		return credentialAt(a, 1, a.headerType()&0x1 == 1)
	}
	return nil
}

// Pointer 指针地址中的证书位置
func (a Address) Pointer() *Pointer {
	if t := a.headerType(); t != 4 && t != 5 {
		return nil
	}
	p, _, err := a.decodePointer()
	if err != nil {
		return nil
	}
	return p
}

func (a Address) decodePointer() (*Pointer, int, error) {
	rest := a[1+Hash28Size:]
	var vals [3]uint64
	for i := range vals {
		v, n, err := readVarUint(rest)
		if err != nil {
			return nil, 0, fmt.Errorf("pointer field %d: %w", i, err)
		}
		vals[i] = v
		rest = rest[n:]
	}
	if len(rest) != 0 {
		return nil, 0, fmt.Errorf("trailing bytes after pointer")
	}
	return &Pointer{Slot: vals[0], TxIndex: vals[1], CertIndex: vals[2]}, len(a), nil
}

// 指针地址使用 7 位分组、高位为续延标志的大端变长整数
func readVarUint(b []byte) (uint64, int, error) {
	var v uint64
	for i, c := range b {
		if i >= 9 {
			return 0, 0, fmt.Errorf("varint too long")
		}
		v = v<<7 | uint64(c&0x7f)
		if c&0x80 == 0 {
			return v, i + 1, nil
		}
	}
	return 0, 0, fmt.Errorf("truncated varint")
}

// NewRewardAddress 由质押凭证构造奖励地址
func NewRewardAddress(network byte, cred Credential) Address {
	header := byte(0xe0)
	if cred.Type == CredentialScript {
		header = 0xf0
	}
	out := make(Address, 0, 1+Hash28Size)
	out = append(out, header|network&0x0f)
	return append(out, cred.Hash[:]...)
}

// NewEnterpriseAddress 由支付凭证构造企业地址
func NewEnterpriseAddress(network byte, cred Credential) Address {
	header := byte(0x60)
	if cred.Type == CredentialScript {
		header = 0x70
	}
	out := make(Address, 0, 1+Hash28Size)
	out = append(out, header|network&0x0f)
	return append(out, cred.Hash[:]...)
}

// NewBaseAddress 由支付凭证与质押凭证构造基础地址
func NewBaseAddress(network byte, payment, stake Credential) Address {
	header := byte(0x00)
	if payment.Type == CredentialScript {
		header |= 0x10
	}
	if stake.Type == CredentialScript {
		header |= 0x20
	}
	out := make(Address, 0, 1+2*Hash28Size)
	out = append(out, header|network&0x0f)
	out = append(out, payment.Hash[:]...)
	return append(out, stake.Hash[:]...)
}
