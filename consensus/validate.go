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
	"strconv"

	"github.com/blinklabs-io/gossipledger/ledger"
)

// ValidateStructure checks that every field of the block has the expected shape.
//
// Validation checks:
//  1. Every field was present when the block was decoded
//  2. Hash is present, and is a hex SHA-256 digest for any non-genesis block
//  3. PreviousHash is empty for the genesis block and present otherwise
//  4. Timestamp is not negative
//  5. Data is valid UTF-8
//
// The genesis hash is supplied externally, so its shape is not checked.
func ValidateStructure(block ledger.Block) error {
	if missing := block.MissingFields(); len(missing) > 0 {
		return StructureError{Index: block.Index, Field: missing[0], Reason: "is missing"}
	}
	if block.Hash == "" {
		return StructureError{Index: block.Index, Field: "hash", Reason: "is empty"}
	}
	if !block.IsGenesis() && !isHexDigest(block.Hash) {
		return StructureError{
			Index:  block.Index,
			Field:  "hash",
			Reason: fmt.Sprintf("is not a %d character hex digest", ledger.HashLength),
		}
	}
	if block.IsGenesis() && block.PreviousHash != "" {
		return StructureError{Index: block.Index, Field: "previousHash", Reason: "must be empty for genesis"}
	}
	if !block.IsGenesis() && block.PreviousHash == "" {
		return StructureError{Index: block.Index, Field: "previousHash", Reason: "is empty"}
	}
	if block.Timestamp < 0 {
		return StructureError{
			Index:  block.Index,
			Field:  "timestamp",
			Reason: "is negative: " + strconv.FormatInt(block.Timestamp, 10),
		}
	}
	if err := ledger.ValidateData(block.Data); err != nil {
		return StructureError{Index: block.Index, Field: "data", Reason: "is not valid UTF-8"}
	}
	return nil
}

// IsStructurallyValid returns true if ValidateStructure reports no error
func IsStructurallyValid(block ledger.Block) bool {
	return ValidateStructure(block) == nil
}

// ValidateSuccessor checks that candidate directly extends reference.
//
// Validation checks:
//  1. Index is reference index + 1
//  2. PreviousHash matches the reference hash
//  3. Hash matches the hash computed from the candidate's fields
func ValidateSuccessor(candidate ledger.Block, reference ledger.Block) error {
	expectedIndex := reference.Index + 1
	if candidate.Index != expectedIndex {
		return SuccessorError{
			Reason:   ErrIndexMismatch,
			Index:    candidate.Index,
			Expected: strconv.FormatUint(expectedIndex, 10),
			Actual:   strconv.FormatUint(candidate.Index, 10),
		}
	}
	if candidate.PreviousHash != reference.Hash {
		return SuccessorError{
			Reason:   ErrPreviousHashMismatch,
			Index:    candidate.Index,
			Expected: reference.Hash,
			Actual:   candidate.PreviousHash,
		}
	}
	if computed := candidate.ComputeHash(); computed != candidate.Hash {
		return SuccessorError{
			Reason:   ErrHashMismatch,
			Index:    candidate.Index,
			Expected: computed,
			Actual:   candidate.Hash,
		}
	}
	return nil
}

// IsValidSuccessor returns true if ValidateSuccessor reports no error
func IsValidSuccessor(candidate ledger.Block, reference ledger.Block) bool {
	return ValidateSuccessor(candidate, reference) == nil
}

// ValidateChain checks a candidate chain from genesis to head. The first block
// must equal genesis exactly and every later block must be a valid successor of
// the block before it. Validation stops at the first failure
func ValidateChain(blocks []ledger.Block, genesis ledger.Block) error {
	if len(blocks) == 0 {
		return fmt.Errorf("%w: chain is empty", ErrInvalidChain)
	}
	if blocks[0] != genesis {
		return fmt.Errorf(
			"%w: genesis block does not match: got %s, expected %s",
			ErrInvalidChain,
			blocks[0],
			genesis,
		)
	}
	for i := 1; i < len(blocks); i++ {
		if err := ValidateStructure(blocks[i]); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidChain, err)
		}
		if err := ValidateSuccessor(blocks[i], blocks[i-1]); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidChain, err)
		}
	}
	return nil
}

// IsValidChain returns true if ValidateChain reports no error
func IsValidChain(blocks []ledger.Block, genesis ledger.Block) bool {
	return ValidateChain(blocks, genesis) == nil
}

func isHexDigest(s string) bool {
	if len(s) != ledger.HashLength {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}
