package utils

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weisyn/ledger-sdk-go/ledger"
	"github.com/weisyn/ledger-sdk-go/types"
)

const (
	policyA = "c37b1b5dc0669f1d3c61a6fddb2e8fde96be87b881c60bce8e8d542f"
	policyB = "9493315cd92eb5d8c4304e67b7e16ae36d61d34502694657811a2c8e"
)

func TestValueFromAssets(t *testing.T) {
	v, err := ValueFromAssets(types.Assets{
		types.Lovelace:        5_000_000,
		policyA + "746f6b656e": 10,
		policyB:               3,
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(5_000_000), v.Coin)

	pa, _ := KeyHashFromHex(policyA)
	pb, _ := KeyHashFromHex(policyB)
	assert.Equal(t, uint64(10), v.Quantity(ledger.ScriptHash(pa), "token"))
	assert.Equal(t, uint64(3), v.Quantity(ledger.ScriptHash(pb), ""))
}

func TestValueFromAssets_Errors(t *testing.T) {
	tests := []struct {
		name   string
		assets types.Assets
		code   types.ErrorCode
	}{
		{"negative", types.Assets{types.Lovelace: -1}, types.ErrCodeInvalidParams},
		{"short unit", types.Assets{"abcd": 1}, types.ErrCodeMalformedEncoding},
		{"bad hex", types.Assets{strings.Repeat("z", 56): 1}, types.ErrCodeMalformedEncoding},
		{"odd asset name", types.Assets{policyA + "abc": 1}, types.ErrCodeMalformedEncoding},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ValueFromAssets(tt.assets)
			require.Error(t, err)
			assert.Equal(t, tt.code, types.CodeOf(err))
		})
	}
}

func TestMintFromAssets(t *testing.T) {
	policy, assets, err := MintFromAssets(types.Assets{
		policyA + "01": 10,
		policyA + "02": -4,
		policyA:        1,
	})
	require.NoError(t, err)
	assert.Equal(t, policyA, policy.String())
	assert.Equal(t, ledger.MintAssets{"\x01": 10, "\x02": -4, "": 1}, assets)
}

func TestMintFromAssets_PolicyHexCase(t *testing.T) {
	policy, assets, err := MintFromAssets(types.Assets{
		policyA + "01":                  10,
		strings.ToUpper(policyA) + "02": 5,
	})
	require.NoError(t, err)
	assert.Equal(t, policyA, policy.String())
	assert.Equal(t, ledger.MintAssets{"\x01": 10, "\x02": 5}, assets)
}

func TestMintFromAssets_MixedPolicy(t *testing.T) {
	_, _, err := MintFromAssets(types.Assets{
		policyA + "746f6b656e31": 10,
		policyB + "746f6b656e32": 5,
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrMixedPolicy))

	var txErr *types.TxError
	require.True(t, errors.As(err, &txErr))
	assert.ElementsMatch(t, []string{policyA, policyB}, txErr.Details["policies"])
}

func TestScriptFromType(t *testing.T) {
	// 单层包装的 flat 程序：bytes(0x01 0x02)
	single := "420102"
	double := "43420102"

	s1, err := ScriptFromType(types.Script{Type: types.ScriptTypePlutusV2, Script: single})
	require.NoError(t, err)
	s2, err := ScriptFromType(types.Script{Type: types.ScriptTypePlutusV2, Script: double})
	require.NoError(t, err)
	assert.Equal(t, s1, s2)
	assert.Equal(t, []byte{0x42, 0x01, 0x02}, s1.Bytes)
	assert.Equal(t, ledger.LanguagePlutusV2, s1.Language)

	native, err := ScriptFromType(types.Script{Type: types.ScriptTypeNative, Script: "8200581c" + policyA})
	require.NoError(t, err)
	assert.Equal(t, ledger.LanguageNative, native.Language)

	_, err = ScriptFromType(types.Script{Type: "PlutusV3", Script: single})
	assert.True(t, errors.Is(err, types.ErrUnknownScriptVariant))

	_, err = ScriptFromType(types.Script{Type: types.ScriptTypePlutusV1, Script: "zz"})
	assert.True(t, errors.Is(err, types.ErrMalformedEncoding))

	_, err = ScriptFromType(types.Script{Type: types.ScriptTypePlutusV1, Script: "5f"})
	assert.True(t, errors.Is(err, types.ErrMalformedEncoding))
}

func TestApplyDoubleCborEncoding(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"already double", "43420102", "43420102"},
		{"single", "420102", "43420102"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ApplyDoubleCborEncoding(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestUtxoFromDomain(t *testing.T) {
	txHash := strings.Repeat("ab", 32)
	datum := "d87980"
	u := types.UTxO{
		TxHash:      txHash,
		OutputIndex: 2,
		Address:     testScriptEntAddr,
		Assets:      types.Assets{types.Lovelace: 2_000_000},
		Datum:       datum,
		ScriptRef:   &types.Script{Type: types.ScriptTypePlutusV2, Script: "420102"},
	}
	lu, err := UtxoFromDomain(u)
	require.NoError(t, err)
	assert.Equal(t, txHash, lu.Input.TxID.String())
	assert.Equal(t, uint32(2), lu.Input.Index)
	require.NotNil(t, lu.Output.Datum)
	assert.Equal(t, ledger.DatumOptionInline, lu.Output.Datum.Kind)
	require.NotNil(t, lu.Output.ScriptRef)

	u.DatumHash = strings.Repeat("cd", 32)
	lu, err = UtxoFromDomain(u)
	require.NoError(t, err)
	assert.Equal(t, ledger.DatumOptionHash, lu.Output.Datum.Kind)

	u.TxHash = "abcd"
	_, err = UtxoFromDomain(u)
	assert.True(t, errors.Is(err, types.ErrMalformedEncoding))
}
