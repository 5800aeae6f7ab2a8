// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cbor_test

import (
	"encoding/hex"
	"testing"

	"github.com/blinklabs-io/gossipledger/cbor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type encodeTestDefinition struct {
	CborHex string
	Object  any
}

type testHashInput struct {
	cbor.StructAsArray
	Version uint
	Index   uint64
	Data    string
}

var encodeTests = []encodeTestDefinition{
	// Simple list of numbers
	{
		CborHex: "83010203",
		Object:  []any{1, 2, 3},
	},
	// Text strings are length-prefixed
	{
		CborHex: "826131623233",
		Object:  []any{"1", "23"},
	},
	// Struct encoded as an array
	{
		CborHex: "8301056161",
		Object: testHashInput{
			Version: 1,
			Index:   5,
			Data:    "a",
		},
	},
	// Map keys are sorted
	{
		CborHex: "a2616101616202",
		Object:  map[string]int{"b": 2, "a": 1},
	},
}

func TestEncode(t *testing.T) {
	for _, test := range encodeTests {
		cborData, err := cbor.Encode(test.Object)
		require.NoError(t, err)
		assert.Equal(
			t,
			test.CborHex,
			hex.EncodeToString(cborData),
			"object did not encode to expected CBOR",
		)
	}
}

func TestEncodeUnambiguous(t *testing.T) {
	a, err := cbor.Encode([]any{uint64(1), "23"})
	require.NoError(t, err)
	b, err := cbor.Encode([]any{uint64(12), "3"})
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestDecodeRoundTrip(t *testing.T) {
	src := testHashInput{Version: 1, Index: 42, Data: "payload"}
	cborData, err := cbor.Encode(src)
	require.NoError(t, err)
	var dest testHashInput
	n, err := decode(cborData, &dest)
	require.NoError(t, err)
	assert.Equal(t, len(cborData), n)
	assert.Equal(t, src.Index, dest.Index)
	assert.Equal(t, src.Data, dest.Data)
}
