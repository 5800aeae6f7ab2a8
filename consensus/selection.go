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

// LongestChainSelector implements the longest-chain selection rule.
//
// Chains are compared by the index of their tip only. There is no weight or
// difficulty metric, and chains of equal length are considered equivalent so
// that a local chain is never swapped for a peer's chain of the same length.
type LongestChainSelector struct{}

// NewLongestChainSelector creates a new longest-chain selector.
func NewLongestChainSelector() *LongestChainSelector {
	return &LongestChainSelector{}
}

// Compare returns:
//   - positive if chain a is preferred over chain b
//   - negative if chain b is preferred over chain a
//   - zero if the chains are equivalent
func (s *LongestChainSelector) Compare(a, b ChainTip) int {
	if a == nil && b == nil {
		return 0
	}
	if a == nil {
		return -1
	}
	if b == nil {
		return 1
	}
	if a.Index() > b.Index() {
		return 1
	}
	if a.Index() < b.Index() {
		return -1
	}
	return 0
}
