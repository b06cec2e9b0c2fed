package utils

import (
	"encoding/json"
	"errors"
	"math/big"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weisyn/ledger-sdk-go/ledger"
	"github.com/weisyn/ledger-sdk-go/types"
)

func TestMetadatumFromJSON(t *testing.T) {
	m, err := MetadatumFromJSON(map[string]interface{}{
		"name":  "nft",
		"count": 3,
		"tags":  []interface{}{"a", json.Number("7")},
		"hash":  "0xdeadbeef",
	}, false)
	require.NoError(t, err)

	want := ledger.MetadatumMap{
		{Key: ledger.MetadatumText("count"), Value: ledger.NewMetadatumInt(3)},
		{Key: ledger.MetadatumText("hash"), Value: ledger.MetadatumText("0xdeadbeef")},
		{Key: ledger.MetadatumText("name"), Value: ledger.MetadatumText("nft")},
		{Key: ledger.MetadatumText("tags"), Value: ledger.MetadatumList{
			ledger.MetadatumText("a"),
			ledger.MetadatumInt{Value: big.NewInt(7)},
		}},
	}
	assert.Equal(t, want, m)
}

func TestMetadatumFromJSON_WithConversion(t *testing.T) {
	m, err := MetadatumFromJSON(map[string]interface{}{"0x01": "0xdeadbeef", "text": "plain"}, true)
	require.NoError(t, err)

	want := ledger.MetadatumMap{
		{Key: ledger.MetadatumBytes{0x01}, Value: ledger.MetadatumBytes{0xde, 0xad, 0xbe, 0xef}},
		{Key: ledger.MetadatumText("text"), Value: ledger.MetadatumText("plain")},
	}
	assert.Equal(t, want, m)

	_, err = MetadatumFromJSON("0xzz", true)
	assert.True(t, errors.Is(err, types.ErrMalformedEncoding))
}

func TestMetadatumFromJSON_Struct(t *testing.T) {
	type msg struct {
		Msg []string `json:"msg"`
	}
	m, err := MetadatumFromJSON(msg{Msg: []string{"hello"}}, false)
	require.NoError(t, err)
	assert.Equal(t, ledger.MetadatumMap{
		{Key: ledger.MetadatumText("msg"), Value: ledger.MetadatumList{ledger.MetadatumText("hello")}},
	}, m)
}

func TestMetadatumFromJSON_Errors(t *testing.T) {
	tests := []struct {
		name  string
		value interface{}
	}{
		{"text too long", strings.Repeat("x", 65)},
		{"fraction", 1.5},
		{"null", nil},
		{"bool", true},
		{"nested null", []interface{}{nil}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := MetadatumFromJSON(tt.value, false)
			assert.True(t, errors.Is(err, types.ErrInvalidParams), "got %v", err)
		})
	}
}
