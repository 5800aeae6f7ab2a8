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

package bench

import (
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/blinklabs-io/gossipledger/consensus"
	"github.com/blinklabs-io/gossipledger/ledger"
)

// BenchmarkValidateChain benchmarks full validation of a received chain.
// This is the cost of every chain replacement
func BenchmarkValidateChain(b *testing.B) {
	for _, size := range ChainSizes {
		fixture := MustLoadChainFixture(size, "bench")
		genesis := fixture.GenesisBlock()
		b.Run(fmt.Sprintf("Blocks_%d", size), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				if err := consensus.ValidateChain(fixture.Blocks, genesis); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkValidateSuccessor(b *testing.B) {
	fixture := MustLoadChainFixture(2, "bench")
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if err := consensus.ValidateSuccessor(fixture.Blocks[1], fixture.Blocks[0]); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkReconcile benchmarks the reconcile decision for the message shapes
// a node receives from peers
func BenchmarkReconcile(b *testing.B) {
	for _, size := range ChainSizes {
		local := MustLoadChainFixture(size, "local")
		longer := MustLoadChainFixture(size+1, "remote")
		genesis := local.GenesisBlock()
		localChain := local.Chain()
		successor := ledger.CreateNextBlock(
			localChain.Head(),
			"next",
			localChain.Head().Time().Add(10*time.Second),
		)
		cases := []struct {
			name     string
			incoming []ledger.Block
		}{
			{"Stale", []ledger.Block{local.Blocks[0]}},
			{"Append", []ledger.Block{successor}},
			{"Detached", []ledger.Block{longer.Blocks[len(longer.Blocks)-1]}},
			{"Replace", longer.Blocks},
		}
		for _, tc := range cases {
			b.Run(fmt.Sprintf("%s_%d", tc.name, size), func(b *testing.B) {
				b.ReportAllocs()
				for i := 0; i < b.N; i++ {
					_ = consensus.Reconcile(localChain, tc.incoming, genesis)
				}
			})
		}
	}
}

func BenchmarkChainStateMine(b *testing.B) {
	state := consensus.NewChainState(
		MustLoadChainFixture(1, "bench").Genesis,
		consensus.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := state.Mine("payload"); err != nil {
			b.Fatal(err)
		}
	}
}
