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

package ledger_test

import (
	"testing"
	"time"

	"github.com/blinklabs-io/gossipledger/ledger"
	"github.com/stretchr/testify/assert"
)

func buildChain(length int) ledger.Chain {
	chain := ledger.NewChain(testGenesis.Block())
	for i := 1; i < length; i++ {
		block := ledger.CreateNextBlock(
			chain.Head(),
			"payload",
			time.Unix(testGenesis.Timestamp+int64(i), 0),
		)
		chain = chain.Append(block)
	}
	return chain
}

func TestChainAppendIsImmutable(t *testing.T) {
	chain := buildChain(2)
	next := ledger.CreateNextBlock(chain.Head(), "B", time.Unix(2000, 0))
	longer := chain.Append(next)
	assert.Equal(t, 2, chain.Len())
	assert.Equal(t, 3, longer.Len())
	assert.Equal(t, next, longer.Head())
	assert.Equal(t, uint64(1), chain.Head().Index)
}

func TestChainBlocksReturnsCopy(t *testing.T) {
	chain := buildChain(3)
	blocks := chain.Blocks()
	blocks[1].Data = "tampered"
	b, ok := chain.BlockByIndex(1)
	assert.True(t, ok)
	assert.Equal(t, "payload", b.Data)
	_, ok = chain.BlockByIndex(3)
	assert.False(t, ok)
}

func TestChainPrefix(t *testing.T) {
	chain := buildChain(5)
	prefix := chain.Prefix(3)
	assert.Equal(t, 3, prefix.Len())
	assert.Equal(t, uint64(2), prefix.Head().Index)
	assert.Equal(t, 5, chain.Prefix(10).Len())
	assert.Equal(t, 0, chain.Prefix(-1).Len())
	assert.True(t, chain.Prefix(0).IsEmpty())
}

func TestChainEqual(t *testing.T) {
	a := buildChain(3)
	b := ledger.NewChainFromBlocks(a.Blocks())
	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(a.Prefix(2)))
	assert.Equal(t, testGenesis.Block(), a.Genesis())
	assert.Equal(t, ledger.Block{}, ledger.Chain{}.Head())
}
