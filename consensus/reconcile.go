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
	"fmt"

	"github.com/blinklabs-io/gossipledger/ledger"
)

// Outcome is the decision reached when reconciling received blocks
type Outcome uint8

const (
	// OutcomeNoAction leaves the local chain unchanged
	OutcomeNoAction Outcome = iota
	// OutcomeAppended extends the local chain by the received head
	OutcomeAppended
	// OutcomeRequestFullChain asks the peer for its whole chain
	OutcomeRequestFullChain
	// OutcomeReplaced swaps the local chain for the received chain
	OutcomeReplaced
)

func (o Outcome) String() string {
	switch o {
	case OutcomeNoAction:
		return "NoAction"
	case OutcomeAppended:
		return "Appended"
	case OutcomeRequestFullChain:
		return "RequestFullChain"
	case OutcomeReplaced:
		return "Replaced"
	}
	return "Unknown"
}

// ChangesChain returns true for outcomes that install a new local chain
func (o Outcome) ChangesChain() bool {
	return o == OutcomeAppended || o == OutcomeReplaced
}

// Result holds the outcome of a reconciliation. Chain is the resulting local
// chain, which is the unchanged local chain unless the chain was changed.
// Reason describes why no action was taken, and Err holds the validation
// error for rejected data
type Result struct {
	Outcome Outcome
	Head    ledger.Block
	Chain   ledger.Chain
	Reason  string
	Err     error
}

func noAction(local ledger.Chain, reason string, err error) Result {
	return Result{
		Outcome: OutcomeNoAction,
		Head:    local.Head(),
		Chain:   local,
		Reason:  reason,
		Err:     err,
	}
}

// Reconcile decides how incoming blocks affect the local chain. It is a pure
// function: the local chain is never modified, the chain to install is
// returned in the result.
//
// Decision steps:
//  1. No incoming blocks: no action
//  2. The last incoming block is malformed: no action
//  3. The last incoming block is not ahead of the local head: no action
//  4. The last incoming block extends the local head: append it
//  5. A single detached block: request the peer's full chain
//  6. Otherwise the incoming blocks are a candidate chain, which replaces the
//     local chain if it is valid and strictly longer
func Reconcile(
	local ledger.Chain,
	incoming []ledger.Block,
	genesis ledger.Block,
) Result {
	return reconcile(NewLongestChainSelector(), local, incoming, genesis)
}

func reconcile(
	selector ChainSelector,
	local ledger.Chain,
	incoming []ledger.Block,
	genesis ledger.Block,
) Result {
	if len(incoming) == 0 {
		return noAction(local, "no blocks received", nil)
	}
	latestReceived := incoming[len(incoming)-1]
	if err := ValidateStructure(latestReceived); err != nil {
		return noAction(local, "received block has invalid structure", err)
	}
	latestHeld := local.Head()
	if selector.Compare(TipFromBlock(latestReceived), TipFromBlock(latestHeld)) <= 0 {
		return noAction(
			local,
			fmt.Sprintf(
				"received head #%d is not ahead of local head #%d",
				latestReceived.Index,
				latestHeld.Index,
			),
			nil,
		)
	}
	if latestHeld.Hash == latestReceived.PreviousHash {
		if err := ValidateSuccessor(latestReceived, latestHeld); err != nil {
			return noAction(local, "received block does not extend local head", err)
		}
		return Result{
			Outcome: OutcomeAppended,
			Head:    latestReceived,
			Chain:   local.Append(latestReceived),
		}
	}
	if len(incoming) == 1 {
		return Result{
			Outcome: OutcomeRequestFullChain,
			Head:    latestHeld,
			Chain:   local,
			Reason: fmt.Sprintf(
				"received head #%d does not attach to local head #%d",
				latestReceived.Index,
				latestHeld.Index,
			),
		}
	}
	if err := ValidateChain(incoming, genesis); err != nil {
		return noAction(local, "received chain is invalid", err)
	}
	// A valid chain is contiguous from index 0, so its length follows from its
	// head index, which was already found to be ahead of the local head
	candidate := ledger.NewChainFromBlocks(incoming)
	return Result{
		Outcome: OutcomeReplaced,
		Head:    candidate.Head(),
		Chain:   candidate,
	}
}
