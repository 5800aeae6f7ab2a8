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

// Package gossipledger implements a node that keeps a replicated, append-only
// ledger in sync with its peers.
//
// Peers exchange blocks over TCP using the chain-sync protocol. Each node
// keeps the longest valid chain it has seen and announces every change of
// its head to all connected peers, so connected nodes converge on the same
// chain.
//
// This package is the main entry point. The other packages can be used on
// their own, but that is not a primary design goal.
package gossipledger

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"

	"github.com/blinklabs-io/gossipledger/connection"
	"github.com/blinklabs-io/gossipledger/muxer"
	"github.com/blinklabs-io/gossipledger/protocol"
	"github.com/blinklabs-io/gossipledger/protocol/chainsync"
)

// ConnectionId uniquely identifies a connection by its local and remote addresses
type ConnectionId = connection.ConnectionId

// The Connection type is a wrapper around a net.Conn object that runs the chain-sync protocol over that connection
type Connection struct {
	id                 ConnectionId
	conn               net.Conn
	server             bool
	logger             *slog.Logger
	muxer              *muxer.Muxer
	sendQueueSize      int
	errorChan          chan error
	doneChan           chan struct{}
	waitGroup          sync.WaitGroup
	onceStart          sync.Once
	onceClose          sync.Once
	delayProtocolStart bool
	chainSync          *chainsync.ChainSync
	chainSyncConfig    *chainsync.Config
}

// NewConnection returns a new Connection object with the specified options. If a connection is provided, the
// muxer and chain-sync protocol are set up and started unless WithDelayProtocolStart is given
func NewConnection(options ...ConnectionOptionFunc) (*Connection, error) {
	c := &Connection{
		doneChan: make(chan struct{}),
	}
	// Apply provided options functions
	for _, option := range options {
		option(c)
	}
	if c.errorChan == nil {
		c.errorChan = make(chan error, 10)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	if c.conn != nil {
		if err := c.setupConnection(); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Id returns the connection ID
func (c *Connection) Id() ConnectionId {
	return c.id
}

// IsServer returns true for connections accepted from a peer
func (c *Connection) IsServer() bool {
	return c.server
}

// Muxer returns the muxer object for the connection
func (c *Connection) Muxer() *muxer.Muxer {
	return c.muxer
}

// ChainSync returns the chain-sync protocol handler
func (c *Connection) ChainSync() *chainsync.ChainSync {
	return c.chainSync
}

// ErrorChan returns the channel for asynchronous errors. It is closed when
// the connection is closed
func (c *Connection) ErrorChan() chan error {
	return c.errorChan
}

// Dial will establish a connection using the specified protocol and address. These parameters are
// passed to the [net.Dial] func. An error will be returned if the connection fails or a connection
// was already established
func (c *Connection) Dial(proto string, address string) error {
	if c.conn != nil {
		return errors.New("a connection was already established")
	}
	conn, err := net.Dial(proto, address)
	if err != nil {
		return err
	}
	c.conn = conn
	return c.setupConnection()
}

// Start starts the muxer and the chain-sync protocol. It only needs to be
// called when the connection was created with WithDelayProtocolStart
func (c *Connection) Start() error {
	var err error
	c.onceStart.Do(func() {
		c.muxer.Start()
		err = c.chainSync.Start()
	})
	return err
}

// Close will shutdown the connection
func (c *Connection) Close() error {
	c.onceClose.Do(func() {
		// Close doneChan to signify that we're shutting down
		close(c.doneChan)
		if c.muxer != nil {
			// Stopping the muxer closes the underlying connection and the receive channel,
			// which ends the protocol receive loop
			c.muxer.Stop()
		}
		if c.chainSync != nil {
			c.chainSync.Stop()
		}
		// Wait for other goroutines to finish
		c.waitGroup.Wait()
		close(c.errorChan)
		c.logger.Debug(
			"connection closed",
			"component", "network",
			"connection_id", c.id.String(),
		)
	})
	return nil
}

// setupConnection establishes the muxer and chain-sync protocol
func (c *Connection) setupConnection() error {
	c.id = ConnectionId{
		LocalAddr:  c.conn.LocalAddr(),
		RemoteAddr: c.conn.RemoteAddr(),
	}
	if c.chainSyncConfig == nil {
		tmpCfg := chainsync.NewConfig()
		c.chainSyncConfig = &tmpCfg
	}
	c.muxer = muxer.New(
		c.conn,
		muxer.WithSendQueueSize(c.sendQueueSize),
		muxer.WithRecvQueueSize(c.chainSyncConfig.RecvQueueSize),
	)
	// Start Goroutine to pass along errors from the muxer
	c.waitGroup.Add(1)
	go func() {
		defer c.waitGroup.Done()
		select {
		case <-c.doneChan:
			return
		case err, ok := <-c.muxer.ErrorChan():
			// Break out of goroutine if muxer's error channel is closed
			if !ok {
				return
			}
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				// Return a bare io.EOF error if error is EOF/ErrUnexpectedEOF
				c.errorChan <- io.EOF
			} else {
				// Wrap error message to denote it comes from the muxer
				c.errorChan <- fmt.Errorf("muxer error: %w", err)
			}
			// Close connection on muxer errors. Close waits for this goroutine,
			// so it must run separately
			go func() {
				_ = c.Close()
			}()
		}
	}()
	protoOptions := protocol.ProtocolOptions{
		ConnectionId: c.id,
		Muxer:        c.muxer,
		Logger:       c.logger,
	}
	c.chainSync = chainsync.New(protoOptions, c.chainSyncConfig)
	if !c.delayProtocolStart {
		return c.Start()
	}
	return nil
}
