package ledger

// CertificateKind 证书种类
type CertificateKind uint8

const (
	CertStakeRegistration   CertificateKind = 0
	CertStakeDeregistration CertificateKind = 1
	CertStakeDelegation     CertificateKind = 2
	CertPoolRegistration    CertificateKind = 3
	CertPoolRetirement      CertificateKind = 4
)

// Certificate 证书（封闭的和类型，只能是本文件中的五种）
type Certificate interface {
	Kind() CertificateKind
	isCertificate()
}

// StakeRegistration 注册质押凭证（需要押金）
type StakeRegistration struct {
	Credential Credential
}

// StakeDeregistration 注销质押凭证（退还押金）
type StakeDeregistration struct {
	Credential Credential
}

// StakeDelegation 委托给矿池
type StakeDelegation struct {
	Credential Credential
	Pool       KeyHash
}

// PoolRegistration 矿池注册；IsUpdate 为 true 时为参数更新，不收取押金
type PoolRegistration struct {
	Params   PoolParams
	IsUpdate bool
}

// PoolRetirement 矿池退役
type PoolRetirement struct {
	Pool  KeyHash
	Epoch uint64
}

func (StakeRegistration) Kind() CertificateKind   { return CertStakeRegistration }
func (StakeDeregistration) Kind() CertificateKind { return CertStakeDeregistration }
func (StakeDelegation) Kind() CertificateKind     { return CertStakeDelegation }
func (PoolRegistration) Kind() CertificateKind    { return CertPoolRegistration }
func (PoolRetirement) Kind() CertificateKind      { return CertPoolRetirement }

func (StakeRegistration) isCertificate()   {}
func (StakeDeregistration) isCertificate() {}
func (StakeDelegation) isCertificate()     {}
func (PoolRegistration) isCertificate()    {}
func (PoolRetirement) isCertificate()      {}

// UnitInterval [0, 1] 区间的有理数
type UnitInterval struct {
	Numerator   uint64
	Denominator uint64
}

// PoolMetadata 矿池元数据引用
type PoolMetadata struct {
	URL  string
	Hash Hash32
}

// PoolParams 矿池参数（规范形式）
type PoolParams struct {
	Operator      KeyHash
	VRFKeyHash    VRFKeyHash
	Pledge        uint64
	Cost          uint64
	Margin        UnitInterval
	RewardAccount Address
	Owners        []KeyHash
	Relays        []Relay
	Metadata      *PoolMetadata
}

// Relay 矿池中继（封闭的和类型）
type Relay interface {
	isRelay()
}

// SingleHostAddr 单主机 IP 中继
type SingleHostAddr struct {
	Port *uint16
	IPv4 []byte // 4 字节
	IPv6 []byte // 16 字节
}

// SingleHostName 单主机域名中继（A / AAAA 记录）
type SingleHostName struct {
	Port    *uint16
	DNSName string
}

// MultiHostName 多主机域名中继（SRV 记录）
type MultiHostName struct {
	DNSName string
}

func (SingleHostAddr) isRelay() {}
func (SingleHostName) isRelay() {}
func (MultiHostName) isRelay()  {}

// RequiredKeyHashes 证书要求签名的 key hash（用于见证数量估算）
func RequiredKeyHashes(cert Certificate) []KeyHash {
	switch c := cert.(type) {
	case StakeDeregistration:
		if c.Credential.IsKey() {
			return []KeyHash{c.Credential.KeyHash()}
		}
	case StakeDelegation:
		if c.Credential.IsKey() {
			return []KeyHash{c.Credential.KeyHash()}
		}
	case PoolRegistration:
		out := []KeyHash{c.Params.Operator}
		return append(out, c.Params.Owners...)
	case PoolRetirement:
		return []KeyHash{c.Pool}
	}
	return nil
}
