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

import "errors"

// Genesis holds the externally supplied values of the first block. The hash
// is a constant and is never recomputed
type Genesis struct {
	Hash      string `json:"hash"`
	Timestamp int64  `json:"timestamp"`
	Data      string `json:"data"`
}

// Validate checks that the genesis values are usable
func (g Genesis) Validate() error {
	if g.Hash == "" {
		return errors.New("genesis hash must not be empty")
	}
	if g.Timestamp < 0 {
		return errors.New("genesis timestamp must not be negative")
	}
	return nil
}

// Block returns the genesis block
func (g Genesis) Block() Block {
	return NewGenesisBlock(g)
}

// NewGenesisBlock returns the genesis block for the provided values
func NewGenesisBlock(g Genesis) Block {
	return Block{
		Index:        0,
		Hash:         g.Hash,
		PreviousHash: "",
		Timestamp:    g.Timestamp,
		Data:         g.Data,
	}
}
