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

// Package chainsync implements the chain-sync protocol used to exchange
// blocks between peers.
//
// Both ends of a connection run the same protocol: either side may ask for
// the other's head (QUERY_LATEST) or full chain (QUERY_ALL) at any time, and
// answers or announcements travel as RESPONSE_CHAIN.
package chainsync

import (
	"errors"
	"fmt"
	"sync"

	"github.com/blinklabs-io/gossipledger/connection"
	"github.com/blinklabs-io/gossipledger/ledger"
	"github.com/blinklabs-io/gossipledger/protocol"
)

// Protocol identifiers
const (
	ProtocolName = "chain-sync"
)

const DefaultRecvQueueSize = 50

var (
	stateConnected = protocol.NewState(1, "Connected")
	stateDone      = protocol.NewState(2, "Done")
)

// ChainSync protocol state machine. Every message is valid at any time while
// the connection is up
var StateMap = protocol.StateMap{
	stateConnected: protocol.StateMapEntry{
		Transitions: []protocol.StateTransition{
			{
				MsgType:  MessageTypeQueryLatest,
				NewState: stateConnected,
			},
			{
				MsgType:  MessageTypeQueryAll,
				NewState: stateConnected,
			},
			{
				MsgType:  MessageTypeResponseChain,
				NewState: stateConnected,
			},
		},
	},
	stateDone: protocol.StateMapEntry{
		Terminal: true,
	},
}

// ChainSync runs the chain-sync protocol on a single connection
type ChainSync struct {
	*protocol.Protocol
	config          *Config
	callbackContext CallbackContext
	onceStart       sync.Once
}

// Config is used to configure the ChainSync protocol instance
type Config struct {
	LatestFunc        LatestFunc
	ChainFunc         ChainFunc
	ResponseChainFunc ResponseChainFunc
	RecvQueueSize     int
}

// Callback context
type CallbackContext struct {
	ConnectionId connection.ConnectionId
	ChainSync    *ChainSync
}

// Callback function types
type LatestFunc func(CallbackContext) (ledger.Block, error)
type ChainFunc func(CallbackContext) ([]ledger.Block, error)
type ResponseChainFunc func(CallbackContext, []ledger.Block) error

// New returns a new ChainSync object
func New(protoOptions protocol.ProtocolOptions, cfg *Config) *ChainSync {
	if cfg == nil {
		tmpCfg := NewConfig()
		cfg = &tmpCfg
	}
	c := &ChainSync{
		config: cfg,
	}
	c.callbackContext = CallbackContext{
		ConnectionId: protoOptions.ConnectionId,
		ChainSync:    c,
	}
	protoConfig := protocol.ProtocolConfig{
		Name:                ProtocolName,
		ConnectionId:        protoOptions.ConnectionId,
		Muxer:               protoOptions.Muxer,
		Logger:              protoOptions.Logger,
		MessageHandlerFunc:  c.messageHandler,
		MessageFromJsonFunc: NewMsgFromJson,
		StateMap:            StateMap.Copy(),
		InitialState:        stateConnected,
		DoneState:           stateDone,
	}
	c.Protocol = protocol.New(protoConfig)
	return c
}

// Start begins processing messages and probes the peer for its head
func (c *ChainSync) Start() error {
	var err error
	c.onceStart.Do(func() {
		c.Protocol.Logger().
			Debug("starting protocol",
				"component", "network",
				"protocol", ProtocolName,
				"connection_id", c.callbackContext.ConnectionId.String(),
			)
		c.Protocol.Start()
		err = c.QueryLatest()
	})
	return err
}

// QueryLatest asks the peer for its head block
func (c *ChainSync) QueryLatest() error {
	return c.SendMessage(NewMsgQueryLatest())
}

// QueryAll asks the peer for its full chain
func (c *ChainSync) QueryAll() error {
	return c.SendMessage(NewMsgQueryAll())
}

// SendBlocks sends blocks to the peer in a RESPONSE_CHAIN message
func (c *ChainSync) SendBlocks(blocks []ledger.Block) error {
	msg, err := NewMsgResponseChain(blocks)
	if err != nil {
		return err
	}
	return c.SendMessage(msg)
}

func (c *ChainSync) messageHandler(msg protocol.Message) error {
	var err error
	switch msg.Type() {
	case MessageTypeQueryLatest:
		err = c.handleQueryLatest()
	case MessageTypeQueryAll:
		err = c.handleQueryAll()
	case MessageTypeResponseChain:
		err = c.handleResponseChain(msg)
	default:
		err = fmt.Errorf(
			"%s: received unexpected message type %d",
			ProtocolName,
			msg.Type(),
		)
	}
	return err
}

func (c *ChainSync) handleQueryLatest() error {
	c.Protocol.Logger().
		Debug("query latest",
			"component", "network",
			"protocol", ProtocolName,
			"connection_id", c.callbackContext.ConnectionId.String(),
		)
	if c.config.LatestFunc == nil {
		return errors.New("received chain-sync QueryLatest message but no callback function is defined")
	}
	head, err := c.config.LatestFunc(c.callbackContext)
	if err != nil {
		return err
	}
	return c.SendBlocks([]ledger.Block{head})
}

func (c *ChainSync) handleQueryAll() error {
	c.Protocol.Logger().
		Debug("query all",
			"component", "network",
			"protocol", ProtocolName,
			"connection_id", c.callbackContext.ConnectionId.String(),
		)
	if c.config.ChainFunc == nil {
		return errors.New("received chain-sync QueryAll message but no callback function is defined")
	}
	blocks, err := c.config.ChainFunc(c.callbackContext)
	if err != nil {
		return err
	}
	return c.SendBlocks(blocks)
}

func (c *ChainSync) handleResponseChain(msg protocol.Message) error {
	msgResponseChain, ok := msg.(*MsgResponseChain)
	if !ok {
		return fmt.Errorf("%s: unexpected message type %T", ProtocolName, msg)
	}
	blocks, err := msgResponseChain.Blocks()
	if err != nil {
		return err
	}
	c.Protocol.Logger().
		Debug("response chain",
			"component", "network",
			"protocol", ProtocolName,
			"connection_id", c.callbackContext.ConnectionId.String(),
			"blocks", len(blocks),
		)
	if c.config.ResponseChainFunc == nil {
		return errors.New("received chain-sync ResponseChain message but no callback function is defined")
	}
	return c.config.ResponseChainFunc(c.callbackContext, blocks)
}

// ChainSyncOptionFunc represents a function used to modify the ChainSync protocol config
type ChainSyncOptionFunc func(*Config)

// NewConfig returns a new ChainSync config object with the provided options
func NewConfig(options ...ChainSyncOptionFunc) Config {
	c := Config{
		RecvQueueSize: DefaultRecvQueueSize,
	}
	// Apply provided options functions
	for _, option := range options {
		option(&c)
	}
	return c
}

// WithLatestFunc specifies the callback that provides the head block for QUERY_LATEST
func WithLatestFunc(latestFunc LatestFunc) ChainSyncOptionFunc {
	return func(c *Config) {
		c.LatestFunc = latestFunc
	}
}

// WithChainFunc specifies the callback that provides the full chain for QUERY_ALL
func WithChainFunc(chainFunc ChainFunc) ChainSyncOptionFunc {
	return func(c *Config) {
		c.ChainFunc = chainFunc
	}
}

// WithResponseChainFunc specifies the callback for received RESPONSE_CHAIN blocks
func WithResponseChainFunc(responseChainFunc ResponseChainFunc) ChainSyncOptionFunc {
	return func(c *Config) {
		c.ResponseChainFunc = responseChainFunc
	}
}

// WithRecvQueueSize specifies the number of received messages buffered for processing
func WithRecvQueueSize(size int) ChainSyncOptionFunc {
	return func(c *Config) {
		c.RecvQueueSize = size
	}
}
