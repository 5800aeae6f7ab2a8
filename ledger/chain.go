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

package ledger

// Chain is an ordered, non-empty sequence of blocks starting at genesis.
// A Chain value is never modified in place: Append returns a new Chain
type Chain struct {
	blocks []Block
}

// NewChain returns a chain containing only the genesis block
func NewChain(genesis Block) Chain {
	return Chain{blocks: []Block{genesis}}
}

// NewChainFromBlocks returns a chain holding a copy of blocks. It performs no
// validation, callers are expected to have validated the blocks first
func NewChainFromBlocks(blocks []Block) Chain {
	return Chain{blocks: copyBlocks(blocks)}
}

// Len returns the number of blocks in the chain
func (c Chain) Len() int {
	return len(c.blocks)
}

// IsEmpty returns true for the zero Chain value
func (c Chain) IsEmpty() bool {
	return len(c.blocks) == 0
}

// Head returns the last block of the chain
func (c Chain) Head() Block {
	if len(c.blocks) == 0 {
		return Block{}
	}
	return c.blocks[len(c.blocks)-1]
}

// Genesis returns the first block of the chain
func (c Chain) Genesis() Block {
	if len(c.blocks) == 0 {
		return Block{}
	}
	return c.blocks[0]
}

// BlockByIndex returns the block at the given index, if present
func (c Chain) BlockByIndex(index uint64) (Block, bool) {
	if index >= uint64(len(c.blocks)) {
		return Block{}, false
	}
	return c.blocks[index], true
}

// Blocks returns a copy of the blocks in the chain
func (c Chain) Blocks() []Block {
	return copyBlocks(c.blocks)
}

// Append returns a new chain with block added after the current head
func (c Chain) Append(block Block) Chain {
	blocks := make([]Block, len(c.blocks), len(c.blocks)+1)
	copy(blocks, c.blocks)
	blocks = append(blocks, block)
	return Chain{blocks: blocks}
}

// Prefix returns a new chain holding the first n blocks
func (c Chain) Prefix(n int) Chain {
	if n > len(c.blocks) {
		n = len(c.blocks)
	}
	if n < 0 {
		n = 0
	}
	return Chain{blocks: copyBlocks(c.blocks[:n])}
}

// Equal returns true if both chains hold the same blocks
func (c Chain) Equal(other Chain) bool {
	if len(c.blocks) != len(other.blocks) {
		return false
	}
	for i := range c.blocks {
		if c.blocks[i] != other.blocks[i] {
			return false
		}
	}
	return true
}

// copyBlocks returns a copy of src. Block only holds value types, so a
// shallow copy of the slice is sufficient
func copyBlocks(src []Block) []Block {
	ret := make([]Block, len(src))
	copy(ret, src)
	return ret
}
