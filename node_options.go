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

package gossipledger

import (
	"log/slog"
	"time"

	"github.com/blinklabs-io/gossipledger/ledger"
)

// NodeOptionFunc is a type that represents functions that modify the Node config
type NodeOptionFunc func(*Node)

// WithGenesis specifies the genesis block parameters. This option is required
func WithGenesis(genesis ledger.Genesis) NodeOptionFunc {
	return func(n *Node) {
		n.genesis = genesis
	}
}

// WithNodeLogger specifies the logger to use. slog.Default() is used if none is provided
func WithNodeLogger(logger *slog.Logger) NodeOptionFunc {
	return func(n *Node) {
		n.logger = logger
	}
}

// WithRetryPolicy specifies how outbound connections are retried
func WithRetryPolicy(retryPolicy RetryPolicy) NodeOptionFunc {
	return func(n *Node) {
		n.retryPolicy = retryPolicy
	}
}

// WithTopology specifies peers to connect to when the node starts serving
func WithTopology(topology *TopologyConfig) NodeOptionFunc {
	return func(n *Node) {
		n.topology = topology
	}
}

// WithPeerSendQueueSize specifies the number of outbound messages queued per peer
func WithPeerSendQueueSize(size int) NodeOptionFunc {
	return func(n *Node) {
		n.sendQueueSize = size
	}
}

// WithPeerRecvQueueSize specifies the number of inbound messages buffered per peer
func WithPeerRecvQueueSize(size int) NodeOptionFunc {
	return func(n *Node) {
		n.recvQueueSize = size
	}
}

// WithNowFunc specifies the clock used for timestamps of mined blocks
func WithNowFunc(nowFunc func() time.Time) NodeOptionFunc {
	return func(n *Node) {
		n.nowFunc = nowFunc
	}
}
