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

// Package protocol provides the common functionality for mini-protocols
package protocol

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/blinklabs-io/gossipledger/connection"
	"github.com/blinklabs-io/gossipledger/muxer"
)

// Protocol implements the base functionality of a mini-protocol
type Protocol struct {
	config       ProtocolConfig
	logger       *slog.Logger
	currentState State
	stateMutex   sync.Mutex
	doneChan     chan struct{}
	onceStart    sync.Once
	onceStop     sync.Once
	waitGroup    sync.WaitGroup
}

// ProtocolConfig provides the configuration for Protocol
type ProtocolConfig struct {
	Name                string
	ConnectionId        connection.ConnectionId
	Muxer               *muxer.Muxer
	Logger              *slog.Logger
	MessageHandlerFunc  MessageHandlerFunc
	MessageFromJsonFunc MessageFromJsonFunc
	StateMap            StateMap
	InitialState        State
	DoneState           State
}

// ProtocolOptions provides common arguments for all mini-protocols
type ProtocolOptions struct {
	ConnectionId connection.ConnectionId
	Muxer        *muxer.Muxer
	Logger       *slog.Logger
}

// MessageHandlerFunc represents a function that handles an incoming message
type MessageHandlerFunc func(Message) error

// MessageFromJsonFunc represents a function that parses a mini-protocol message
type MessageFromJsonFunc func(uint, []byte) (Message, error)

// New returns a new Protocol object
func New(config ProtocolConfig) *Protocol {
	p := &Protocol{
		config:       config,
		currentState: config.InitialState,
		doneChan:     make(chan struct{}),
	}
	p.logger = config.Logger
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p
}

// Start initializes the mini-protocol and begins processing received messages
func (p *Protocol) Start() {
	p.onceStart.Do(func() {
		p.waitGroup.Add(1)
		go p.recvLoop()
	})
}

// Stop moves the protocol to its terminal state and waits for the receive
// loop to exit. It must not be called from a message handler
func (p *Protocol) Stop() {
	p.shutdown()
	p.waitGroup.Wait()
}

func (p *Protocol) shutdown() {
	p.onceStop.Do(func() {
		p.stateMutex.Lock()
		p.currentState = p.config.DoneState
		p.stateMutex.Unlock()
		close(p.doneChan)
	})
}

// Logger returns the protocol logger
func (p *Protocol) Logger() *slog.Logger {
	return p.logger
}

// DoneChan returns the channel used to signal protocol shutdown
func (p *Protocol) DoneChan() <-chan struct{} {
	return p.doneChan
}

// CurrentState returns the current protocol state
func (p *Protocol) CurrentState() State {
	p.stateMutex.Lock()
	defer p.stateMutex.Unlock()
	return p.currentState
}

// IsDone checks if the protocol is in a done/completed state
func (p *Protocol) IsDone() bool {
	select {
	case <-p.doneChan:
		return true
	default:
	}
	return p.CurrentState() == p.config.DoneState
}

// SendMessage encodes msg and queues it on the muxer
func (p *Protocol) SendMessage(msg Message) error {
	if p.IsDone() {
		return ErrProtocolShuttingDown
	}
	if err := p.transition(msg.Type()); err != nil {
		return err
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("%s: encode error: %w", p.config.Name, err)
	}
	return p.config.Muxer.Send(data)
}

func (p *Protocol) transition(msgType uint8) error {
	p.stateMutex.Lock()
	defer p.stateMutex.Unlock()
	nextState, ok := p.config.StateMap.NextState(p.currentState, msgType)
	if !ok {
		return fmt.Errorf(
			"%w: message type %d in state %s",
			ErrInvalidTransition,
			msgType,
			p.currentState,
		)
	}
	p.currentState = nextState
	return nil
}

func (p *Protocol) recvLoop() {
	defer p.waitGroup.Done()
	// A closed connection ends the protocol
	defer p.shutdown()
	recvChan := p.config.Muxer.RecvChan()
	for {
		select {
		case <-p.doneChan:
			return
		case segment, ok := <-recvChan:
			if !ok {
				return
			}
			p.handleMessage(segment.Payload)
		}
	}
}

// handleMessage decodes and dispatches a single message. Failures are logged
// and the message is dropped
func (p *Protocol) handleMessage(payload []byte) {
	msg, err := p.decodeMessage(payload)
	if err != nil {
		p.logger.Debug(
			"dropping malformed message",
			"component", "network",
			"protocol", p.config.Name,
			"connection_id", p.config.ConnectionId.String(),
			"error", err,
		)
		return
	}
	if err := p.transition(msg.Type()); err != nil {
		p.logger.Debug(
			"dropping unexpected message",
			"component", "network",
			"protocol", p.config.Name,
			"connection_id", p.config.ConnectionId.String(),
			"error", err,
		)
		return
	}
	if err := p.config.MessageHandlerFunc(msg); err != nil {
		level := slog.LevelWarn
		if errors.Is(err, ErrParse) {
			level = slog.LevelDebug
		}
		p.logger.Log(
			context.Background(),
			level,
			"failed to handle message",
			"component", "network",
			"protocol", p.config.Name,
			"connection_id", p.config.ConnectionId.String(),
			"message_type", msg.Type(),
			"error", err,
		)
	}
}

func (p *Protocol) decodeMessage(payload []byte) (Message, error) {
	// Decode the envelope type first so we know which message to build
	var envelope struct {
		Type *int `json:"type"`
	}
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrParse, p.config.Name, err)
	}
	if envelope.Type == nil {
		return nil, fmt.Errorf("%w: %s: missing message type", ErrParse, p.config.Name)
	}
	if *envelope.Type < 0 || *envelope.Type > 255 {
		return nil, fmt.Errorf(
			"%w: %s: message type out of range: %d",
			ErrParse,
			p.config.Name,
			*envelope.Type,
		)
	}
	return p.config.MessageFromJsonFunc(uint(*envelope.Type), payload)
}
