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
	"time"

	"github.com/blinklabs-io/gossipledger/ledger"
)

var testGenesis = ledger.Genesis{
	Hash:      "GH",
	Timestamp: 1000,
	Data:      "genesis",
}

// buildBlocks returns a valid chain of the given length, using prefix to vary payloads
func buildBlocks(length int, prefix string) []ledger.Block {
	blocks := []ledger.Block{testGenesis.Block()}
	for i := 1; i < length; i++ {
		blocks = append(
			blocks,
			ledger.CreateNextBlock(
				blocks[i-1],
				prefix+string(rune('A'+i-1)),
				time.Unix(testGenesis.Timestamp+int64(10*i), 0),
			),
		)
	}
	return blocks
}

func buildChain(length int, prefix string) ledger.Chain {
	return ledger.NewChainFromBlocks(buildBlocks(length, prefix))
}
