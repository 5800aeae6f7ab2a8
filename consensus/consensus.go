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

// Package consensus validates ledger data received from peers and decides how
// it affects the local chain.
//
// The rules are deliberately simple: the longest valid chain that starts at the
// shared genesis block wins. A block that directly extends the local head is
// appended, a detached single block triggers a request for the peer's full
// chain, and a strictly longer valid chain replaces the local one wholesale.
// Chains of equal length never replace each other.
package consensus

import (
	"github.com/blinklabs-io/gossipledger/ledger"
)

// ChainTip represents the tip of a chain for selection purposes
type ChainTip interface {
	// Index returns the index of the tip block
	Index() uint64
	// Hash returns the hash of the tip block
	Hash() string
}

// ChainSelector determines the preferred chain
type ChainSelector interface {
	// Compare returns positive if a is preferred over b, negative if b preferred, 0 if equal
	Compare(a, b ChainTip) int
}

// blockTip adapts a ledger.Block to the ChainTip interface
type blockTip struct {
	block ledger.Block
}

// TipFromBlock returns a ChainTip for the given head block
func TipFromBlock(block ledger.Block) ChainTip {
	return blockTip{block: block}
}

func (t blockTip) Index() uint64 {
	return t.block.Index
}

func (t blockTip) Hash() string {
	return t.block.Hash
}
