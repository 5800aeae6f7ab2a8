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

package consensus_test

import (
	"sync"
	"testing"
	"time"

	"github.com/blinklabs-io/gossipledger/consensus"
	"github.com/blinklabs-io/gossipledger/ledger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChainStateMine(t *testing.T) {
	var updates []consensus.Result
	state := consensus.NewChainState(
		testGenesis,
		consensus.WithNowFunc(func() time.Time { return time.Unix(1010, 0) }),
		consensus.WithChainUpdateFunc(func(result consensus.Result) {
			updates = append(updates, result)
		}),
	)
	assert.Equal(t, testGenesis.Block(), state.Head())
	assert.Equal(t, testGenesis.Block(), state.Genesis())

	block, err := state.Mine("A")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), block.Index)
	assert.Equal(t, "GH", block.PreviousHash)
	assert.Equal(t, int64(1010), block.Timestamp)
	assert.Equal(t, ledger.ComputeHash(1, "GH", 1010, "A"), block.Hash)
	assert.Equal(t, block, state.Head())
	assert.Equal(t, 2, state.Chain().Len())
	require.Len(t, updates, 1)
	assert.Equal(t, consensus.OutcomeAppended, updates[0].Outcome)
	assert.Equal(t, block, updates[0].Head)
}

func TestChainStateReconcileNotifiesOnlyOnChange(t *testing.T) {
	var updates []consensus.Result
	state := consensus.NewChainState(
		testGenesis,
		consensus.WithChainUpdateFunc(func(result consensus.Result) {
			updates = append(updates, result)
		}),
	)
	remote := buildBlocks(4, "remote")

	result := state.Reconcile(remote[3:])
	assert.Equal(t, consensus.OutcomeRequestFullChain, result.Outcome)
	assert.Empty(t, updates)

	result = state.Reconcile(remote)
	assert.Equal(t, consensus.OutcomeReplaced, result.Outcome)
	require.Len(t, updates, 1)
	assert.Equal(t, remote[3], state.Head())

	result = state.Reconcile(remote)
	assert.Equal(t, consensus.OutcomeNoAction, result.Outcome)
	assert.Len(t, updates, 1)
}

func TestChainStateSnapshotIsStable(t *testing.T) {
	state := consensus.NewChainState(testGenesis)
	snapshot := state.Chain()
	_, err := state.Mine("A")
	require.NoError(t, err)
	assert.Equal(t, 1, snapshot.Len())
	assert.Equal(t, 2, state.Chain().Len())
}

func TestChainStateConcurrentReconcile(t *testing.T) {
	state := consensus.NewChainState(testGenesis)
	candidates := [][]ledger.Block{
		buildBlocks(5, "a"),
		buildBlocks(6, "b"),
		buildBlocks(7, "c"),
		buildBlocks(3, "d"),
	}
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		for _, candidate := range candidates {
			wg.Add(1)
			go func(blocks []ledger.Block) {
				defer wg.Done()
				state.Reconcile(blocks)
			}(candidate)
		}
	}
	wg.Wait()
	// The longest candidate always wins, whatever the interleaving
	final := state.Chain()
	assert.Equal(t, candidates[2], final.Blocks())
	assert.True(t, consensus.IsValidChain(final.Blocks(), state.Genesis()))
}

func TestChainStateMineRejectsInvalidData(t *testing.T) {
	var updates []consensus.Result
	state := consensus.NewChainState(
		testGenesis,
		consensus.WithChainUpdateFunc(func(result consensus.Result) {
			updates = append(updates, result)
		}),
	)
	_, err := state.Mine("\xff\xfe")
	assert.ErrorIs(t, err, ledger.ErrInvalidData)
	assert.Equal(t, 1, state.Chain().Len())
	assert.Empty(t, updates)
}
