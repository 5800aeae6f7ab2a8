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

package consensus

import (
	"log/slog"
	"sync"
	"time"

	"github.com/blinklabs-io/gossipledger/ledger"
)

// ChainUpdateFunc is called after the local chain was changed
type ChainUpdateFunc func(Result)

// ChainState owns the local chain. All changes go through Reconcile or Mine,
// which hold an exclusive lock for the whole read-decide-install step, so
// concurrent reconciliations never interleave and a replacement is installed
// atomically
type ChainState struct {
	mu           sync.RWMutex
	chain        ledger.Chain
	genesis      ledger.Block
	selector     ChainSelector
	logger       *slog.Logger
	nowFunc      func() time.Time
	onUpdateFunc ChainUpdateFunc
}

// ChainStateOptionFunc is a type that represents functions that modify the ChainState config
type ChainStateOptionFunc func(*ChainState)

// WithLogger specifies the logger to use. slog.Default() is used if none is provided
func WithLogger(logger *slog.Logger) ChainStateOptionFunc {
	return func(s *ChainState) {
		s.logger = logger
	}
}

// WithChainUpdateFunc specifies a callback to run after the chain was appended to or replaced.
// The callback runs after the lock has been released, so concurrent changes may
// deliver their results out of order. A callback that announces heads to peers
// needs no ordering: a peer treats an older head as not ahead of its own and
// ignores it
func WithChainUpdateFunc(updateFunc ChainUpdateFunc) ChainStateOptionFunc {
	return func(s *ChainState) {
		s.onUpdateFunc = updateFunc
	}
}

// WithNowFunc specifies the clock used for new block timestamps
func WithNowFunc(nowFunc func() time.Time) ChainStateOptionFunc {
	return func(s *ChainState) {
		s.nowFunc = nowFunc
	}
}

// NewChainState returns a ChainState holding only the genesis block
func NewChainState(genesis ledger.Genesis, options ...ChainStateOptionFunc) *ChainState {
	genesisBlock := ledger.NewGenesisBlock(genesis)
	s := &ChainState{
		chain:    ledger.NewChain(genesisBlock),
		genesis:  genesisBlock,
		selector: NewLongestChainSelector(),
		nowFunc:  time.Now,
	}
	for _, option := range options {
		option(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	s.logger = s.logger.With("component", "consensus")
	return s
}

// Genesis returns the genesis block shared by all valid chains
func (s *ChainState) Genesis() ledger.Block {
	return s.genesis
}

// Chain returns a snapshot of the local chain
func (s *ChainState) Chain() ledger.Chain {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.chain
}

// Head returns the last block of the local chain
func (s *ChainState) Head() ledger.Block {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.chain.Head()
}

// Reconcile applies the consensus rules to blocks received from a peer and
// installs the resulting chain
func (s *ChainState) Reconcile(incoming []ledger.Block) Result {
	s.mu.Lock()
	result := reconcile(s.selector, s.chain, incoming, s.genesis)
	if result.Outcome.ChangesChain() {
		s.chain = result.Chain
	}
	s.mu.Unlock()
	s.logResult(result)
	if result.Outcome.ChangesChain() && s.onUpdateFunc != nil {
		s.onUpdateFunc(result)
	}
	return result
}

// Mine creates a new block carrying payload on top of the local head and
// appends it. A payload that is not valid UTF-8 is rejected with
// ledger.ErrInvalidData
func (s *ChainState) Mine(payload string) (ledger.Block, error) {
	if err := ledger.ValidateData(payload); err != nil {
		return ledger.Block{}, err
	}
	s.mu.Lock()
	block := ledger.CreateNextBlock(s.chain.Head(), payload, s.nowFunc())
	s.chain = s.chain.Append(block)
	result := Result{
		Outcome: OutcomeAppended,
		Head:    block,
		Chain:   s.chain,
	}
	s.mu.Unlock()
	s.logger.Info(
		"mined block",
		"index", block.Index,
		"hash", block.Hash,
	)
	if s.onUpdateFunc != nil {
		s.onUpdateFunc(result)
	}
	return block, nil
}

func (s *ChainState) logResult(result Result) {
	switch result.Outcome {
	case OutcomeAppended:
		s.logger.Info(
			"appended received block",
			"index", result.Head.Index,
			"hash", result.Head.Hash,
		)
	case OutcomeReplaced:
		s.logger.Info(
			"replaced chain with received chain",
			"length", result.Chain.Len(),
			"head", result.Head.Hash,
		)
	case OutcomeRequestFullChain:
		s.logger.Info(
			"requesting full chain",
			"reason", result.Reason,
		)
	default:
		if result.Err != nil {
			s.logger.Warn(
				"rejected received blocks",
				"reason", result.Reason,
				"error", result.Err,
			)
		} else {
			s.logger.Debug(
				"no action needed",
				"reason", result.Reason,
			)
		}
	}
}
