package ledger

import (
	"errors"
	"testing"

	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weisyn/ledger-sdk-go/types"
)

func keyAddr(b byte) Address {
	return NewEnterpriseAddress(0, KeyCredential(KeyHash{b}))
}

func scriptAddr(b byte) Address {
	return NewEnterpriseAddress(0, ScriptCredential(ScriptHash{b}))
}

func adaUtxo(tx byte, idx uint32, addr Address, coin uint64) Utxo {
	return Utxo{
		Input:  TransactionInput{TxID: TxID{tx}, Index: idx},
		Output: TransactionOutput{Address: addr, Amount: NewValue(coin)},
	}
}

func sumCoin(outs []TransactionOutput) uint64 {
	var total uint64
	for _, o := range outs {
		total += o.Amount.Coin
	}
	return total
}

func TestDraftEngine_SimplePayment(t *testing.T) {
	e := NewDraftEngine(DefaultProtocolParams())
	wallet := keyAddr(1)
	available := []Utxo{
		adaUtxo(1, 0, wallet, 3_000_000),
		adaUtxo(2, 0, wallet, 50_000_000),
	}

	require.NoError(t, e.AddOutput(TransactionOutput{Address: keyAddr(9), Amount: NewValue(10_000_000)}))
	require.NoError(t, e.AddInputsFrom(available, wallet))
	require.NoError(t, e.Balance(wallet, nil))

	tx, err := e.Construct(available, wallet, ConstructOptions{})
	require.NoError(t, err)

	// 最大优先：只需要 50 ADA 那一笔
	require.Len(t, tx.Inputs, 1)
	assert.Equal(t, TxID{2}, tx.Inputs[0].TxID)
	require.Len(t, tx.Outputs, 2)
	assert.Equal(t, uint64(50_000_000), sumCoin(tx.Outputs)+tx.Fee)
	assert.Greater(t, tx.Fee, uint64(155381))
	assert.Equal(t, Blake2b256(tx.BodyCBOR), tx.ID)

	var decoded []cbor.RawMessage
	require.NoError(t, cbor.Unmarshal(tx.CBOR, &decoded))
	assert.Len(t, decoded, 4)
}

func TestDraftEngine_InsufficientFunds(t *testing.T) {
	e := NewDraftEngine(DefaultProtocolParams())
	wallet := keyAddr(1)
	available := []Utxo{adaUtxo(1, 0, wallet, 2_000_000)}

	require.NoError(t, e.AddOutput(TransactionOutput{Address: keyAddr(9), Amount: NewValue(10_000_000)}))
	err := e.AddInputsFrom(available, wallet)
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrInsufficientFunds))

	var txErr *types.TxError
	require.True(t, errors.As(err, &txErr))
	assert.Contains(t, txErr.Details, "missing")
}

func TestDraftEngine_DustChangeFoldedIntoFee(t *testing.T) {
	e := NewDraftEngine(DefaultProtocolParams())
	wallet := keyAddr(1)
	in := adaUtxo(1, 0, wallet, 5_300_000)

	require.NoError(t, e.AddInput(in, nil))
	require.NoError(t, e.AddOutput(TransactionOutput{Address: keyAddr(9), Amount: NewValue(5_000_000)}))
	require.NoError(t, e.Balance(wallet, nil))

	tx, err := e.Construct(nil, wallet, ConstructOptions{})
	require.NoError(t, err)
	require.Len(t, tx.Outputs, 1)
	assert.Equal(t, uint64(300_000), tx.Fee)
}

func TestDraftEngine_OutputTopUp(t *testing.T) {
	e := NewDraftEngine(DefaultProtocolParams())
	require.NoError(t, e.AddOutput(TransactionOutput{Address: keyAddr(9), Amount: NewValue(1)}))
	assert.Equal(t, e.MinUTxO(e.outputs[0]), e.outputs[0].Amount.Coin)
}

func TestDraftEngine_DuplicateInput(t *testing.T) {
	e := NewDraftEngine(DefaultProtocolParams())
	in := adaUtxo(1, 0, keyAddr(1), 5_000_000)
	require.NoError(t, e.AddInput(in, nil))
	err := e.AddInput(in, nil)
	assert.True(t, errors.Is(err, types.ErrInvalidParams))
}

func TestDraftEngine_StakeRegistrationDeposit(t *testing.T) {
	params := DefaultProtocolParams()
	e := NewDraftEngine(params)
	wallet := keyAddr(1)
	in := adaUtxo(1, 0, wallet, 20_000_000)

	require.NoError(t, e.AddInput(in, nil))
	require.NoError(t, e.AddCertificate(StakeRegistration{Credential: KeyCredential(KeyHash{1})}, nil))
	require.NoError(t, e.Balance(wallet, nil))

	tx, err := e.Construct(nil, wallet, ConstructOptions{})
	require.NoError(t, err)
	assert.Equal(t, uint64(20_000_000), sumCoin(tx.Outputs)+tx.Fee+params.KeyDeposit)
}

func TestDraftEngine_MintWithAssetsInChange(t *testing.T) {
	e := NewDraftEngine(DefaultProtocolParams())
	wallet := keyAddr(1)
	policy := ScriptHash{7}

	require.NoError(t, e.AddInput(adaUtxo(1, 0, wallet, 10_000_000), nil))
	require.NoError(t, e.AddMint(policy, MintAssets{"tok": 100}, nil))
	require.NoError(t, e.Balance(wallet, nil))

	tx, err := e.Construct(nil, wallet, ConstructOptions{})
	require.NoError(t, err)
	require.Len(t, tx.Outputs, 1)
	assert.Equal(t, uint64(100), tx.Outputs[0].Amount.Quantity(policy, "tok"))
}

type fixedEvaluator struct {
	units ExUnits
	calls int
}

func (f *fixedEvaluator) Evaluate(_ []byte, _ []Utxo) ([]Redeemer, error) {
	f.calls++
	return []Redeemer{{Tag: RedeemerSpend, Index: 0, ExUnits: f.units}}, nil
}

func TestDraftEngine_ScriptSpendSelectsCollateral(t *testing.T) {
	ev := &fixedEvaluator{units: ExUnits{Mem: 1000, Steps: 1000}}
	e := NewDraftEngine(DefaultProtocolParams(), WithScriptEvaluator(ev))
	wallet := keyAddr(1)
	datum := PlutusData{0xd8, 0x79, 0x80}
	locked := Utxo{
		Input: TransactionInput{TxID: TxID{5}, Index: 0},
		Output: TransactionOutput{
			Address: scriptAddr(3),
			Amount:  NewValue(20_000_000),
			Datum:   DatumFromHash(datum.Hash()),
		},
	}
	available := []Utxo{adaUtxo(1, 0, wallet, 8_000_000)}

	require.NoError(t, e.AddInput(locked, &ScriptWitness{Redeemer: PlutusData{0x00}, Datum: datum}))
	require.NoError(t, e.AddScript(Script{Language: LanguagePlutusV2, Bytes: []byte{0x41, 0x01}}))
	require.NoError(t, e.AddInputsFrom(available, wallet))
	require.NoError(t, e.Balance(wallet, nil))
	feeBefore := e.Fee()

	tx, err := e.Construct(available, wallet, ConstructOptions{EvaluateScripts: true})
	require.NoError(t, err)
	require.Len(t, tx.Collateral, 1)
	assert.Equal(t, TxID{1}, tx.Collateral[0].TxID)
	require.Len(t, tx.Redeemers, 1)
	assert.Equal(t, ExUnits{Mem: 1000, Steps: 1000}, tx.Redeemers[0].ExUnits)
	assert.Equal(t, 1, ev.calls)
	assert.Less(t, tx.Fee, feeBefore)
}

func TestDraftEngine_WithdrawalRequiresRewardAddress(t *testing.T) {
	e := NewDraftEngine(DefaultProtocolParams())
	err := e.AddWithdrawal(keyAddr(1), 10, nil)
	assert.True(t, errors.Is(err, types.ErrInvalidAddress))

	reward := NewRewardAddress(0, KeyCredential(KeyHash{2}))
	require.NoError(t, e.AddWithdrawal(reward, 10, nil))
	assert.True(t, errors.Is(e.AddWithdrawal(reward, 5, nil), types.ErrInvalidParams))
}

func TestDraftEngine_MetadataTooLong(t *testing.T) {
	e := NewDraftEngine(DefaultProtocolParams())
	long := make([]byte, MaxMetadataChunk+1)
	for i := range long {
		long[i] = 'a'
	}
	err := e.AddMetadatum(674, MetadatumText(long))
	assert.True(t, errors.Is(err, types.ErrInvalidParams))
	require.NoError(t, e.AddMetadatum(674, MetadatumText("hello")))
}

func TestDraftEngine_WithdrawalStillSelectsInput(t *testing.T) {
	e := NewDraftEngine(DefaultProtocolParams())
	wallet := keyAddr(1)
	available := []Utxo{adaUtxo(1, 0, wallet, 5_000_000)}

	reward := NewRewardAddress(0, KeyCredential(KeyHash{2}))
	require.NoError(t, e.AddWithdrawal(reward, 10_000_000, nil))
	require.NoError(t, e.AddInputsFrom(available, wallet))
	require.NoError(t, e.Balance(wallet, nil))

	tx, err := e.Construct(available, wallet, ConstructOptions{})
	require.NoError(t, err)
	require.Len(t, tx.Inputs, 1)
	require.Len(t, tx.Outputs, 1)
	assert.Equal(t, uint64(15_000_000), tx.Outputs[0].Amount.Coin+tx.Fee)

	empty := NewDraftEngine(DefaultProtocolParams())
	require.NoError(t, empty.AddWithdrawal(reward, 10_000_000, nil))
	assert.True(t, errors.Is(empty.AddInputsFrom(nil, wallet), types.ErrInsufficientFunds))
}
