package ledger

import (
	"encoding/hex"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weisyn/ledger-sdk-go/types"
)

func TestCborPrimitives(t *testing.T) {
	tests := []struct {
		name string
		n    uint64
		want string
	}{
		{"inline", 23, "17"},
		{"one byte", 24, "1818"},
		{"two bytes", 1000, "1903e8"},
		{"four bytes", 1_000_000, "1a000f4240"},
		{"eight bytes", 1 << 40, "1b0000010000000000"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, hex.EncodeToString(cborUint(tt.n)))
		})
	}
	assert.Equal(t, "20", hex.EncodeToString(cborInt(-1)))
	assert.Equal(t, "3863", hex.EncodeToString(cborInt(-100)))
	assert.Equal(t, "80", hex.EncodeToString(cborArray()))
	assert.Equal(t, "40", hex.EncodeToString(cborBytes(nil)))
	assert.Equal(t, "b903e8", hex.EncodeToString(cborMapHead(1000)))
	assert.Equal(t, "d81843d87980", hex.EncodeToString(cborEmbedded([]byte{0xd8, 0x79, 0x80})))
}

func TestCborMapCanonicalOrder(t *testing.T) {
	got := cborMap([]cborEntry{
		{key: cborBytes([]byte("bb")), value: cborUint(2)},
		{key: cborUint(100), value: cborUint(3)},
		{key: cborBytes([]byte("a")), value: cborUint(1)},
	})
	// 先比较键的编码长度，再比较字节
	assert.Equal(t, "a318640341610142626202", hex.EncodeToString(got))
}

func TestEncodeOutputDatumOptions(t *testing.T) {
	addr := NewEnterpriseAddress(0, KeyCredential(KeyHash{1}))
	data := PlutusData{0xd8, 0x79, 0x80}

	hashed := encodeOutput(TransactionOutput{Address: addr, Amount: NewValue(2), Datum: DatumFromHash(data.Hash())})
	inline := encodeOutput(TransactionOutput{Address: addr, Amount: NewValue(2), Datum: InlineDatum(data)})

	assert.Equal(t, byte(0xa3), hashed[0])
	assert.Equal(t, byte(0xa3), inline[0])
	assert.Contains(t, hex.EncodeToString(inline), "d81843d87980")
	assert.Contains(t, hex.EncodeToString(hashed), "82005820"+data.Hash().String())
}

func TestAddressKinds(t *testing.T) {
	pay := KeyCredential(KeyHash{1})
	stake := ScriptCredential(ScriptHash{2})

	base := NewBaseAddress(1, pay, stake)
	kind, err := base.Kind()
	require.NoError(t, err)
	assert.Equal(t, AddressBase, kind)
	assert.Equal(t, byte(0x21), base[0])
	id, ok := base.NetworkID()
	assert.True(t, ok)
	assert.Equal(t, byte(1), id)
	assert.Equal(t, pay, *base.PaymentCredential())
	assert.Equal(t, stake, *base.StakeCredential())

	reward := NewRewardAddress(0, pay)
	kind, err = reward.Kind()
	require.NoError(t, err)
	assert.Equal(t, AddressReward, kind)
	assert.Nil(t, reward.PaymentCredential())
	assert.Equal(t, pay, *reward.StakeCredential())

	ent := NewEnterpriseAddress(0, ScriptCredential(ScriptHash{3}))
	assert.Equal(t, byte(0x70), ent[0])
	assert.Nil(t, ent.StakeCredential())

	_, err = Address{0x00, 0x01}.Kind()
	assert.Error(t, err)
}

func TestPointerAddress(t *testing.T) {
	addr := append(Address{0x40}, make([]byte, Hash28Size)...)
	addr = append(addr, 0x81, 0x00, 0x02, 0x03)

	kind, err := addr.Kind()
	require.NoError(t, err)
	assert.Equal(t, AddressPointer, kind)
	assert.Equal(t, &Pointer{Slot: 128, TxIndex: 2, CertIndex: 3}, addr.Pointer())
}

func TestValueArithmetic(t *testing.T) {
	policy := ScriptHash{9}
	a := NewValue(10)
	require.NoError(t, a.AddAsset(policy, "x", 5))

	b := NewValue(4)
	require.NoError(t, b.AddAsset(policy, "x", 5))

	diff, err := a.Sub(b)
	require.NoError(t, err)
	assert.Equal(t, uint64(6), diff.Coin)
	assert.False(t, diff.HasAssets())

	_, err = b.Sub(a)
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrInsufficientFunds))

	missing := b.Missing(a)
	assert.Equal(t, types.Assets{types.Lovelace: 6}, missing.Units())
}

func TestScriptHashUsesLanguageTag(t *testing.T) {
	body := []byte{0x01, 0x02}
	v1 := Script{Language: LanguagePlutusV1, Bytes: body}
	v2 := Script{Language: LanguagePlutusV2, Bytes: body}
	assert.NotEqual(t, v1.Hash(), v2.Hash())
	assert.Equal(t, ScriptHash(Blake2b224(append([]byte{2}, body...))), v2.Hash())
}
