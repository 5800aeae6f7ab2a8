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
	"net"

	"github.com/blinklabs-io/gossipledger/protocol/chainsync"
)

// ConnectionOptionFunc is a type that represents functions that modify the Connection config
type ConnectionOptionFunc func(*Connection)

// WithConnection specifies an existing connection to use. If none is provided, the Dial() function can be
// used to create one later
func WithConnection(conn net.Conn) ConnectionOptionFunc {
	return func(c *Connection) {
		c.conn = conn
	}
}

// WithErrorChan specifies the error channel to use. If none is provided, one will be created
func WithErrorChan(errorChan chan error) ConnectionOptionFunc {
	return func(c *Connection) {
		c.errorChan = errorChan
	}
}

// WithServer specifies whether the connection was accepted from a peer
func WithServer(server bool) ConnectionOptionFunc {
	return func(c *Connection) {
		c.server = server
	}
}

// WithLogger specifies the logger to use. slog.Default() is used if none is provided
func WithLogger(logger *slog.Logger) ConnectionOptionFunc {
	return func(c *Connection) {
		c.logger = logger
	}
}

// WithSendQueueSize specifies the number of outbound messages that can be queued before sends fail
func WithSendQueueSize(size int) ConnectionOptionFunc {
	return func(c *Connection) {
		c.sendQueueSize = size
	}
}

// WithDelayProtocolStart specifies whether to delay starting the muxer and chain-sync protocol. This is
// useful when the connection must be registered somewhere before any message is processed. Call Start()
// once ready
func WithDelayProtocolStart(delayProtocolStart bool) ConnectionOptionFunc {
	return func(c *Connection) {
		c.delayProtocolStart = delayProtocolStart
	}
}

// WithChainSyncConfig specifies ChainSync protocol config
func WithChainSyncConfig(cfg chainsync.Config) ConnectionOptionFunc {
	return func(c *Connection) {
		c.chainSyncConfig = &cfg
	}
}
