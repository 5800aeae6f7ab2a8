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

// Package bench provides chain fixtures and benchmarks for the ledger,
// consensus and sync code paths.
package bench

import (
	"fmt"

	"github.com/blinklabs-io/gossipledger/internal/test"
	"github.com/blinklabs-io/gossipledger/ledger"
)

// ChainSizes lists the chain lengths the benchmarks run against
var ChainSizes = []int{10, 100, 1000}

// ChainFixture is a pre-built chain for benchmarking
type ChainFixture struct {
	Name    string
	Genesis ledger.Genesis
	Blocks  []ledger.Block
}

// Chain returns the fixture blocks as a chain
func (f *ChainFixture) Chain() ledger.Chain {
	return ledger.NewChainFromBlocks(f.Blocks)
}

// GenesisBlock returns the genesis block of the fixture
func (f *ChainFixture) GenesisBlock() ledger.Block {
	return ledger.NewGenesisBlock(f.Genesis)
}

// LoadChainFixture builds a valid chain of the given length (genesis
// included). Fixtures with different prefixes fork right after genesis
func LoadChainFixture(length int, prefix string) (*ChainFixture, error) {
	if length < 1 {
		return nil, fmt.Errorf("invalid chain length: %d", length)
	}
	genesis := test.Genesis()
	return &ChainFixture{
		Name:    fmt.Sprintf("%s-%d", prefix, length),
		Genesis: genesis,
		Blocks:  test.BuildBlocks(genesis, length, prefix),
	}, nil
}

// MustLoadChainFixture loads a chain fixture and panics on error.
// Use this in benchmark setup code.
func MustLoadChainFixture(length int, prefix string) *ChainFixture {
	fixture, err := LoadChainFixture(length, prefix)
	if err != nil {
		panic(fmt.Sprintf("failed to load chain fixture: %v", err))
	}
	return fixture
}

// PayloadOfSize returns a block payload of exactly size bytes
func PayloadOfSize(size int) string {
	payload := make([]byte, size)
	for i := range payload {
		payload[i] = 'a' + byte(i%26)
	}
	return string(payload)
}
