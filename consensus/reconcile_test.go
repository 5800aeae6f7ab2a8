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
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/blinklabs-io/gossipledger/consensus"
	"github.com/blinklabs-io/gossipledger/ledger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReconcileEmpty(t *testing.T) {
	local := buildChain(2, "")
	result := consensus.Reconcile(local, nil, testGenesis.Block())
	assert.Equal(t, consensus.OutcomeNoAction, result.Outcome)
	assert.True(t, result.Chain.Equal(local))
}

func TestReconcileInvalidStructure(t *testing.T) {
	local := buildChain(2, "")
	next := ledger.CreateNextBlock(local.Head(), "B", time.Unix(2000, 0))
	next.Hash = ""
	result := consensus.Reconcile(local, []ledger.Block{next}, testGenesis.Block())
	assert.Equal(t, consensus.OutcomeNoAction, result.Outcome)
	assert.ErrorIs(t, result.Err, consensus.ErrInvalidStructure)
}

func TestReconcileAppend(t *testing.T) {
	// Scenario: the local node holds genesis and the peer sends block 1
	local := ledger.NewChain(testGenesis.Block())
	block1 := ledger.CreateNextBlock(local.Head(), "A", time.Unix(1010, 0))
	result := consensus.Reconcile(local, []ledger.Block{block1}, testGenesis.Block())
	require.Equal(t, consensus.OutcomeAppended, result.Outcome)
	assert.Equal(t, block1, result.Head)
	assert.Equal(t, local.Len()+1, result.Chain.Len())
	assert.Equal(t, block1, result.Chain.Head())
	// The input chain is untouched
	assert.Equal(t, 1, local.Len())
}

func TestReconcileAppendRejectsBadSuccessor(t *testing.T) {
	local := buildChain(3, "")
	next := ledger.CreateNextBlock(local.Head(), "C", time.Unix(2000, 0))
	next.Data = "tampered"
	result := consensus.Reconcile(local, []ledger.Block{next}, testGenesis.Block())
	assert.Equal(t, consensus.OutcomeNoAction, result.Outcome)
	assert.ErrorIs(t, result.Err, consensus.ErrHashMismatch)
	assert.Equal(t, 3, result.Chain.Len())
}

func TestReconcileNoRegression(t *testing.T) {
	local := buildChain(4, "")
	testDefs := map[string][]ledger.Block{
		"same chain":          buildBlocks(4, ""),
		"equal length fork":   buildBlocks(4, "fork"),
		"shorter chain":       buildBlocks(3, "fork"),
		"genesis only":        buildBlocks(1, ""),
		"older single block":  buildBlocks(3, "")[2:],
		"equal single block":  buildBlocks(4, "fork")[3:],
		"invalid short chain": append(buildBlocks(2, "x"), ledger.Block{Index: 1, Hash: "zz"}),
	}
	for name, incoming := range testDefs {
		t.Run(name, func(t *testing.T) {
			result := consensus.Reconcile(local, incoming, testGenesis.Block())
			assert.Equal(t, consensus.OutcomeNoAction, result.Outcome)
			assert.True(t, result.Chain.Equal(local))
		})
	}
}

func TestReconcileRequestFullChain(t *testing.T) {
	local := buildChain(2, "")
	remote := buildBlocks(10, "remote")
	result := consensus.Reconcile(
		local,
		[]ledger.Block{remote[len(remote)-1]},
		testGenesis.Block(),
	)
	assert.Equal(t, consensus.OutcomeRequestFullChain, result.Outcome)
	assert.True(t, result.Chain.Equal(local))
}

func TestReconcileReplace(t *testing.T) {
	local := buildChain(3, "")
	incoming := buildBlocks(local.Len()+2, "remote")
	result := consensus.Reconcile(local, incoming, testGenesis.Block())
	require.Equal(t, consensus.OutcomeReplaced, result.Outcome)
	assert.Equal(t, len(incoming), result.Chain.Len())
	assert.Equal(t, incoming, result.Chain.Blocks())
	assert.Equal(t, incoming[len(incoming)-1], result.Head)
}

func TestReconcileReplaceRejectsTamperedChain(t *testing.T) {
	local := buildChain(3, "")
	incoming := buildBlocks(local.Len()+2, "remote")
	incoming[2].Hash = strings.Repeat("f", ledger.HashLength)
	result := consensus.Reconcile(local, incoming, testGenesis.Block())
	assert.Equal(t, consensus.OutcomeNoAction, result.Outcome)
	assert.ErrorIs(t, result.Err, consensus.ErrInvalidChain)
	assert.True(t, result.Chain.Equal(local))
}

func TestReconcileReplaceRejectsForeignGenesis(t *testing.T) {
	local := buildChain(2, "")
	other := ledger.Genesis{Hash: "OTHER", Timestamp: 1000, Data: "genesis"}
	incoming := []ledger.Block{other.Block()}
	for i := 1; i < 5; i++ {
		incoming = append(
			incoming,
			ledger.CreateNextBlock(incoming[i-1], "x", time.Unix(int64(2000+i), 0)),
		)
	}
	result := consensus.Reconcile(local, incoming, testGenesis.Block())
	assert.Equal(t, consensus.OutcomeNoAction, result.Outcome)
	assert.ErrorIs(t, result.Err, consensus.ErrInvalidChain)
}

func TestOutcomeString(t *testing.T) {
	testDefs := map[consensus.Outcome]string{
		consensus.OutcomeNoAction:         "NoAction",
		consensus.OutcomeAppended:         "Appended",
		consensus.OutcomeRequestFullChain: "RequestFullChain",
		consensus.OutcomeReplaced:         "Replaced",
		consensus.Outcome(99):             "Unknown",
	}
	for outcome, expected := range testDefs {
		assert.Equal(t, expected, outcome.String())
	}
	assert.True(t, consensus.OutcomeAppended.ChangesChain())
	assert.True(t, consensus.OutcomeReplaced.ChangesChain())
	assert.False(t, consensus.OutcomeRequestFullChain.ChangesChain())
}

func TestReconcileRejectsBlockWithMissingFields(t *testing.T) {
	local := buildChain(1, "")
	// Hash matches the zero values the absent fields would decode to
	hash := ledger.ComputeHash(1, "GH", 0, "")
	var incoming []ledger.Block
	require.NoError(
		t,
		json.Unmarshal(
			[]byte(`[{"index":1,"hash":"`+hash+`","previousHash":"GH"}]`),
			&incoming,
		),
	)
	result := consensus.Reconcile(local, incoming, testGenesis.Block())
	assert.Equal(t, consensus.OutcomeNoAction, result.Outcome)
	assert.ErrorIs(t, result.Err, consensus.ErrInvalidStructure)
	assert.True(t, result.Chain.Equal(local))
}

func TestReconcileMinedBlockSurvivesJson(t *testing.T) {
	sender := consensus.NewChainState(testGenesis)
	block, err := sender.Mine("héllo ✓ 日本")
	require.NoError(t, err)
	data, err := json.Marshal([]ledger.Block{block})
	require.NoError(t, err)
	var received []ledger.Block
	require.NoError(t, json.Unmarshal(data, &received))

	receiver := consensus.NewChainState(testGenesis)
	result := receiver.Reconcile(received)
	require.NoError(t, result.Err)
	assert.Equal(t, consensus.OutcomeAppended, result.Outcome)
	assert.Equal(t, block, receiver.Head())
}
