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
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/blinklabs-io/gossipledger/consensus"
	"github.com/blinklabs-io/gossipledger/ledger"
	"github.com/blinklabs-io/gossipledger/protocol/chainsync"
)

// ErrNodeStopped is returned by operations on a stopped node
var ErrNodeStopped = errors.New("node is stopped")

// Node keeps the local chain, serves it to peers and keeps it in sync with them
type Node struct {
	genesis       ledger.Genesis
	logger        *slog.Logger
	retryPolicy   RetryPolicy
	topology      *TopologyConfig
	sendQueueSize int
	recvQueueSize int
	nowFunc       func() time.Time
	chainState    *consensus.ChainState
	connManager   *ConnectionManager
	ctx           context.Context
	cancel        context.CancelFunc
	stateMutex    sync.Mutex
	stopped       bool
	listener      net.Listener
	waitGroup     sync.WaitGroup
	onceStop      sync.Once
}

// NewNode returns a new Node with the specified options. A genesis block must be provided with WithGenesis
func NewNode(options ...NodeOptionFunc) (*Node, error) {
	n := &Node{
		retryPolicy: DefaultRetryPolicy(),
	}
	// Apply provided options functions
	for _, option := range options {
		option(n)
	}
	if n.logger == nil {
		n.logger = slog.Default()
	}
	if err := n.genesis.Validate(); err != nil {
		return nil, fmt.Errorf("invalid genesis: %w", err)
	}
	n.ctx, n.cancel = context.WithCancel(context.Background())
	chainStateOpts := []consensus.ChainStateOptionFunc{
		consensus.WithLogger(n.logger),
		consensus.WithChainUpdateFunc(n.handleChainUpdate),
	}
	if n.nowFunc != nil {
		chainStateOpts = append(chainStateOpts, consensus.WithNowFunc(n.nowFunc))
	}
	n.chainState = consensus.NewChainState(n.genesis, chainStateOpts...)
	n.connManager = NewConnectionManager(
		ConnectionManagerConfig{
			Logger: n.logger,
		},
	)
	if n.topology != nil {
		n.connManager.AddHostsFromTopology(n.topology)
	}
	return n, nil
}

// ConnectionManager returns the registry of peer connections
func (n *Node) ConnectionManager() *ConnectionManager {
	return n.connManager
}

// Genesis returns the genesis block
func (n *Node) Genesis() ledger.Block {
	return n.chainState.Genesis()
}

// GetChain returns a snapshot of the local chain
func (n *Node) GetChain() ledger.Chain {
	return n.chainState.Chain()
}

// GetHead returns the last block of the local chain
func (n *Node) GetHead() ledger.Block {
	return n.chainState.Head()
}

// MineNext creates a block carrying payload on top of the local head, appends
// it and announces it to all peers. A payload that is not valid UTF-8 is
// rejected with ledger.ErrInvalidData
func (n *Node) MineNext(payload string) (ledger.Block, error) {
	if n.isStopped() {
		return ledger.Block{}, ErrNodeStopped
	}
	return n.chainState.Mine(payload)
}

// ListPeers returns the sorted remote addresses of the connected peers
func (n *Node) ListPeers() []string {
	return n.connManager.Addresses()
}

// Addr returns the address the node accepts peer connections on, or nil if it is not serving
func (n *Node) Addr() net.Addr {
	n.stateMutex.Lock()
	defer n.stateMutex.Unlock()
	if n.listener == nil {
		return nil
	}
	return n.listener.Addr()
}

// ConnectPeer starts connecting to the peer at address ("host:port") in the
// background. Failed attempts are retried according to the node retry policy
// and logged. An error is only returned for an invalid address or a stopped node
func (n *Node) ConnectPeer(ctx context.Context, address string) error {
	return n.connectPeerAsync(ctx, address, ConnectionManagerTagHostManual)
}

// ConnectPeerSync connects to the peer at address and returns once the
// connection is registered or all attempts have failed
func (n *Node) ConnectPeerSync(ctx context.Context, address string) error {
	if _, _, err := net.SplitHostPort(address); err != nil {
		return fmt.Errorf("invalid peer address %q: %w", address, err)
	}
	if n.isStopped() {
		return ErrNodeStopped
	}
	_, err := n.connectPeer(ctx, address, ConnectionManagerTagHostManual)
	return err
}

// ListenAndServe listens on the TCP address and serves peer connections until
// ctx is done or the node is stopped
func (n *Node) ListenAndServe(ctx context.Context, address string) error {
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return err
	}
	return n.Serve(ctx, listener)
}

// Serve accepts peer connections on listener until ctx is done or the node is
// stopped. The peers from the topology are dialled once serving starts
func (n *Node) Serve(ctx context.Context, listener net.Listener) error {
	n.stateMutex.Lock()
	if n.stopped {
		n.stateMutex.Unlock()
		_ = listener.Close()
		return ErrNodeStopped
	}
	if n.listener != nil {
		n.stateMutex.Unlock()
		return errors.New("node is already serving")
	}
	n.listener = listener
	n.stateMutex.Unlock()
	stop := context.AfterFunc(ctx, func() {
		_ = listener.Close()
	})
	defer stop()
	n.logger.Info(
		"listening for peers",
		"component", "network",
		"address", listener.Addr().String(),
	)
	for _, host := range n.connManager.Hosts() {
		if err := n.connectPeerAsync(n.ctx, host.HostPort(), ConnectionManagerTagHostTopology); err != nil {
			n.logger.Warn(
				"failed to connect to topology peer",
				"component", "network",
				"address", host.HostPort(),
				"error", err,
			)
		}
	}
	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil || n.isStopped() {
				return nil
			}
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				continue
			}
			return err
		}
		if _, err := n.addConnection(conn, true); err != nil {
			n.logger.Warn(
				"failed to set up peer connection",
				"component", "network",
				"address", conn.RemoteAddr().String(),
				"error", err,
			)
		}
	}
}

// Stop closes the listener and all peer connections and waits for pending connection attempts
func (n *Node) Stop() {
	n.onceStop.Do(func() {
		n.stateMutex.Lock()
		n.stopped = true
		listener := n.listener
		n.stateMutex.Unlock()
		n.cancel()
		if listener != nil {
			_ = listener.Close()
		}
		n.waitGroup.Wait()
		for _, conn := range n.connManager.GetConnections() {
			_ = conn.Conn.Close()
		}
		n.logger.Info("node stopped", "component", "node")
	})
}

func (n *Node) isStopped() bool {
	n.stateMutex.Lock()
	defer n.stateMutex.Unlock()
	return n.stopped
}

func (n *Node) connectPeerAsync(ctx context.Context, address string, tags ...ConnectionManagerTag) error {
	if _, _, err := net.SplitHostPort(address); err != nil {
		return fmt.Errorf("invalid peer address %q: %w", address, err)
	}
	n.stateMutex.Lock()
	defer n.stateMutex.Unlock()
	if n.stopped {
		return ErrNodeStopped
	}
	n.waitGroup.Add(1)
	go func() {
		defer n.waitGroup.Done()
		if _, err := n.connectPeer(ctx, address, tags...); err != nil {
			n.logger.Error(
				"giving up connecting to peer",
				"component", "network",
				"address", address,
				"error", err,
			)
		}
	}()
	return nil
}

func (n *Node) connectPeer(ctx context.Context, address string, tags ...ConnectionManagerTag) (*Connection, error) {
	// Attempts end early when the node stops
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(n.ctx, cancel)
	defer stop()
	conn, err := n.retryPolicy.dialWithRetry(
		ctx,
		address,
		n.retryPolicy.dialer(),
		func(attempt int, err error) {
			n.logger.Warn(
				"connection attempt failed",
				"component", "network",
				"address", address,
				"attempt", attempt,
				"error", err,
			)
		},
	)
	if err != nil {
		return nil, err
	}
	return n.addConnection(conn, false, tags...)
}

// addConnection sets up the protocol on conn and registers it before any message is processed
func (n *Node) addConnection(conn net.Conn, server bool, tags ...ConnectionManagerTag) (*Connection, error) {
	roleTag := ConnectionManagerTagRoleInitiator
	if server {
		roleTag = ConnectionManagerTagRoleResponder
	}
	n.stateMutex.Lock()
	if n.stopped {
		n.stateMutex.Unlock()
		_ = conn.Close()
		return nil, ErrNodeStopped
	}
	oConn, err := NewConnection(
		WithConnection(conn),
		WithServer(server),
		WithLogger(n.logger),
		WithSendQueueSize(n.sendQueueSize),
		WithDelayProtocolStart(true),
		WithChainSyncConfig(n.chainSyncConfig()),
	)
	if err != nil {
		n.stateMutex.Unlock()
		_ = conn.Close()
		return nil, err
	}
	n.connManager.AddConnection(oConn, append(tags, roleTag)...)
	n.stateMutex.Unlock()
	if err := oConn.Start(); err != nil {
		n.logger.Warn(
			"failed to query peer head",
			"component", "network",
			"connection_id", oConn.Id().String(),
			"error", err,
		)
	}
	return oConn, nil
}

func (n *Node) chainSyncConfig() chainsync.Config {
	opts := []chainsync.ChainSyncOptionFunc{
		chainsync.WithLatestFunc(
			func(chainsync.CallbackContext) (ledger.Block, error) {
				return n.chainState.Head(), nil
			},
		),
		chainsync.WithChainFunc(
			func(chainsync.CallbackContext) ([]ledger.Block, error) {
				return n.chainState.Chain().Blocks(), nil
			},
		),
		chainsync.WithResponseChainFunc(n.handleResponseChain),
	}
	if n.recvQueueSize > 0 {
		opts = append(opts, chainsync.WithRecvQueueSize(n.recvQueueSize))
	}
	return chainsync.NewConfig(opts...)
}

func (n *Node) handleResponseChain(_ chainsync.CallbackContext, blocks []ledger.Block) error {
	result := n.chainState.Reconcile(blocks)
	if result.Outcome == consensus.OutcomeRequestFullChain {
		n.connManager.Broadcast(chainsync.NewMsgQueryAll())
	}
	return nil
}

// handleChainUpdate announces the new head to all peers
func (n *Node) handleChainUpdate(result consensus.Result) {
	msg, err := chainsync.NewMsgResponseChain([]ledger.Block{result.Head})
	if err != nil {
		n.logger.Error(
			"failed to build head announcement",
			"component", "node",
			"index", result.Head.Index,
			"error", err,
		)
		return
	}
	n.connManager.Broadcast(msg)
}
