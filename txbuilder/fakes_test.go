package txbuilder

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/weisyn/ledger-sdk-go/ledger"
	"github.com/weisyn/ledger-sdk-go/types"
)

const (
	baseAddr         = "addr1qx2fxv2umyhttkxyxp8x0dlpdt3k6cwng5pxj3jhsydzer3n0d3vllmyqwsx5wktcd8cc3sq835lu7drv2xwl2wywfgse35a3x"
	baseAddrTestnet  = "addr_test1qz2fxv2umyhttkxyxp8x0dlpdt3k6cwng5pxj3jhsydzer3n0d3vllmyqwsx5wktcd8cc3sq835lu7drv2xwl2wywfgs68faae"
	scriptBaseAddr   = "addr1z8phkx6acpnf78fuvxn0mkew3l0fd058hzquvz7w36x4gten0d3vllmyqwsx5wktcd8cc3sq835lu7drv2xwl2wywfgs9yc0hh"
	enterpriseAddr   = "addr1vx2fxv2umyhttkxyxp8x0dlpdt3k6cwng5pxj3jhsydzers66hrl8"
	scriptEntAddr    = "addr1w8phkx6acpnf78fuvxn0mkew3l0fd058hzquvz7w36x4gtcyjy7wx"
	rewardAddr       = "stake1uyehkck0lajq8gr28t9uxnuvgcqrc6070x3k9r8048z8y5gh6ffgw"
	scriptRewardAddr = "stake178phkx6acpnf78fuvxn0mkew3l0fd058hzquvz7w36x4gtcccycj5"

	paymentKeyHash = "9493315cd92eb5d8c4304e67b7e16ae36d61d34502694657811a2c8e"
	stakeKeyHash   = "337b62cfff6403a06a3acbc34f8c46003c69fe79a3628cefa9c47251"
	scriptHash     = "c37b1b5dc0669f1d3c61a6fddb2e8fde96be87b881c60bce8e8d542f"

	poolHex  = scriptHash
	policyA  = scriptHash
	policyB  = paymentKeyHash
	unitData = "d87980"
)

var (
	unitDatumHash = ledger.PlutusData([]byte{0xd8, 0x79, 0x80}).Hash().String()
	vrfHex        = strings.Repeat("0f", 32)
)

// fakeEngine 记录所有调用的账本引擎
type fakeEngine struct {
	calls []string

	inputs        []ledger.Utxo
	inputWitness  []*ledger.ScriptWitness
	refInputs     []ledger.Utxo
	outputs       []ledger.TransactionOutput
	mints         map[ledger.ScriptHash]ledger.MintAssets
	mintWitness   *ledger.ScriptWitness
	certs         []ledger.Certificate
	certWitness   []*ledger.ScriptWitness
	withdrawals   []ledger.Address
	withdrawn     []uint64
	signers       []ledger.KeyHash
	validFrom     *uint64
	ttl           *uint64
	metadata      map[uint64]ledger.Metadatum
	scripts       []ledger.Script
	data          []ledger.PlutusData
	available     []ledger.Utxo
	change        ledger.Address
	changeDatum   *ledger.Datum
	constructOpts ledger.ConstructOptions

	balanceErr error
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{
		mints:    make(map[ledger.ScriptHash]ledger.MintAssets),
		metadata: make(map[uint64]ledger.Metadatum),
	}
}

func (e *fakeEngine) record(op string) { e.calls = append(e.calls, op) }

func (e *fakeEngine) AddInput(u ledger.Utxo, w *ledger.ScriptWitness) error {
	e.record("AddInput")
	e.inputs = append(e.inputs, u)
	e.inputWitness = append(e.inputWitness, w)
	return nil
}

func (e *fakeEngine) AddReferenceInput(u ledger.Utxo) error {
	e.record("AddReferenceInput")
	e.refInputs = append(e.refInputs, u)
	return nil
}

func (e *fakeEngine) AddOutput(o ledger.TransactionOutput) error {
	e.record("AddOutput")
	e.outputs = append(e.outputs, o)
	return nil
}

func (e *fakeEngine) AddMint(p ledger.ScriptHash, a ledger.MintAssets, w *ledger.ScriptWitness) error {
	e.record("AddMint")
	e.mints[p] = a
	e.mintWitness = w
	return nil
}

func (e *fakeEngine) AddCertificate(c ledger.Certificate, w *ledger.ScriptWitness) error {
	e.record("AddCertificate")
	e.certs = append(e.certs, c)
	e.certWitness = append(e.certWitness, w)
	return nil
}

func (e *fakeEngine) AddWithdrawal(a ledger.Address, amount uint64, _ *ledger.ScriptWitness) error {
	e.record("AddWithdrawal")
	e.withdrawals = append(e.withdrawals, a)
	e.withdrawn = append(e.withdrawn, amount)
	return nil
}

func (e *fakeEngine) AddRequiredSigner(kh ledger.KeyHash) error {
	e.record("AddRequiredSigner")
	e.signers = append(e.signers, kh)
	return nil
}

func (e *fakeEngine) SetValidityStart(slot uint64) { e.record("SetValidityStart"); e.validFrom = &slot }
func (e *fakeEngine) SetTTL(slot uint64)           { e.record("SetTTL"); e.ttl = &slot }

func (e *fakeEngine) AddMetadatum(label uint64, m ledger.Metadatum) error {
	e.record("AddMetadatum")
	e.metadata[label] = m
	return nil
}

func (e *fakeEngine) AddScript(s ledger.Script) error {
	e.record("AddScript")
	e.scripts = append(e.scripts, s)
	return nil
}

func (e *fakeEngine) AddPlutusData(d ledger.PlutusData) error {
	e.record("AddPlutusData")
	e.data = append(e.data, d)
	return nil
}

func (e *fakeEngine) AddInputsFrom(available []ledger.Utxo, change ledger.Address) error {
	e.record("AddInputsFrom")
	e.available = available
	return nil
}

func (e *fakeEngine) Balance(change ledger.Address, datum *ledger.Datum) error {
	e.record("Balance")
	e.change = change
	e.changeDatum = datum
	return e.balanceErr
}

func (e *fakeEngine) Construct(available []ledger.Utxo, change ledger.Address, opts ledger.ConstructOptions) (*ledger.Transaction, error) {
	e.record("Construct")
	e.constructOpts = opts
	body := []byte{0xa0}
	return &ledger.Transaction{
		ID:       ledger.Blake2b256(body),
		Fee:      170_000,
		Outputs:  e.outputs,
		BodyCBOR: body,
		CBOR:     []byte{0x84, 0xa0, 0xa0, 0xf5, 0xf6},
	}, nil
}

// fakeWallet 固定地址与 UTxO 的钱包
type fakeWallet struct {
	address string
	utxos   []types.UTxO
	err     error
}

func (w *fakeWallet) Address(context.Context) (string, error) { return w.address, nil }

func (w *fakeWallet) GetUtxos(context.Context) ([]types.UTxO, error) {
	return w.utxos, w.err
}

// fakeDatums 记录查询顺序的 datum 查询
type fakeDatums struct {
	mu      sync.Mutex
	bodies  map[string]string
	queried []string
}

func (d *fakeDatums) LookupDatum(_ context.Context, u types.UTxO) (types.Datum, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.queried = append(d.queried, u.OutRef().String())
	body, ok := d.bodies[u.DatumHash]
	if !ok {
		return "", types.NewError(types.ErrCodeDatumNotFound, "datum not found").WithDetail("datumHash", u.DatumHash)
	}
	return body, nil
}

// fakeFetcher 记录调用次数的元数据获取器
type fakeFetcher struct {
	body  []byte
	err   error
	calls int
}

func (f *fakeFetcher) Fetch(context.Context, string) ([]byte, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.body, nil
}

var errBackend = errors.New("backend unavailable")

func txHash(b byte) string {
	return strings.Repeat(string("0123456789abcdef"[b%16])+string("0123456789abcdef"[b%16]), 32)
}

func walletUtxo(b byte, lovelace int64) types.UTxO {
	return types.UTxO{
		TxHash:  txHash(b),
		Address: baseAddr,
		Assets:  types.Assets{types.Lovelace: lovelace},
	}
}

type testEnv struct {
	engine  *fakeEngine
	wallet  *fakeWallet
	datums  *fakeDatums
	fetcher *fakeFetcher
	builder *Builder
}

func newTestEnv(t *testing.T, cfg *Config) *testEnv {
	t.Helper()
	env := &testEnv{
		engine:  newFakeEngine(),
		wallet:  &fakeWallet{address: baseAddr, utxos: []types.UTxO{walletUtxo(1, 50_000_000)}},
		datums:  &fakeDatums{bodies: map[string]string{unitDatumHash: unitData}},
		fetcher: &fakeFetcher{body: []byte(`{"name":"pool","ticker":"POOL"}`)},
	}
	if cfg == nil {
		cfg = DefaultConfig()
	}
	b, err := New(cfg,
		WithEngine(func() ledger.Engine { return env.engine }),
		WithWallet(env.wallet),
		WithDatumLookup(env.datums),
		WithMetadataFetcher(env.fetcher),
	)
	require.NoError(t, err)
	env.builder = b
	return env
}
