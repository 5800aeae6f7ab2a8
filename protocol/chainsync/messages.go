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

package chainsync

import (
	"encoding/json"
	"fmt"

	"github.com/blinklabs-io/gossipledger/ledger"
	"github.com/blinklabs-io/gossipledger/protocol"
)

// Message types
const (
	MessageTypeQueryLatest   = 0
	MessageTypeQueryAll      = 1
	MessageTypeResponseChain = 2
)

// NewMsgFromJson parses a chain-sync message of the given type
func NewMsgFromJson(msgType uint, data []byte) (protocol.Message, error) {
	var ret protocol.Message
	switch msgType {
	case MessageTypeQueryLatest:
		ret = &MsgQueryLatest{}
	case MessageTypeQueryAll:
		ret = &MsgQueryAll{}
	case MessageTypeResponseChain:
		ret = &MsgResponseChain{}
	default:
		return nil, fmt.Errorf(
			"%w: %s: %w: %d",
			protocol.ErrParse,
			ProtocolName,
			ErrUnknownMessageType,
			msgType,
		)
	}
	if err := json.Unmarshal(data, ret); err != nil {
		return nil, fmt.Errorf("%w: %s: decode error: %w", protocol.ErrParse, ProtocolName, err)
	}
	// Store the raw message JSON
	ret.SetRaw(data)
	return ret, nil
}

// MsgQueryLatest asks the peer for its head block
type MsgQueryLatest struct {
	protocol.MessageBase
	Data *string `json:"data"`
}

func NewMsgQueryLatest() *MsgQueryLatest {
	m := &MsgQueryLatest{
		MessageBase: protocol.MessageBase{
			MessageType: MessageTypeQueryLatest,
		},
	}
	return m
}

// MsgQueryAll asks the peer for its whole chain
type MsgQueryAll struct {
	protocol.MessageBase
	Data *string `json:"data"`
}

func NewMsgQueryAll() *MsgQueryAll {
	m := &MsgQueryAll{
		MessageBase: protocol.MessageBase{
			MessageType: MessageTypeQueryAll,
		},
	}
	return m
}

// MsgResponseChain carries blocks. The blocks are JSON encoded into the data
// string of the envelope
type MsgResponseChain struct {
	protocol.MessageBase
	Data *string `json:"data"`
}

func NewMsgResponseChain(blocks []ledger.Block) (*MsgResponseChain, error) {
	if blocks == nil {
		blocks = []ledger.Block{}
	}
	blocksJson, err := json.Marshal(blocks)
	if err != nil {
		return nil, err
	}
	data := string(blocksJson)
	m := &MsgResponseChain{
		MessageBase: protocol.MessageBase{
			MessageType: MessageTypeResponseChain,
		},
		Data: &data,
	}
	return m, nil
}

// Blocks decodes the blocks carried by the message
func (m *MsgResponseChain) Blocks() ([]ledger.Block, error) {
	if m.Data == nil {
		return nil, fmt.Errorf("%w: %s: %w", protocol.ErrParse, ProtocolName, ErrMissingData)
	}
	var blocks []ledger.Block
	if err := json.Unmarshal([]byte(*m.Data), &blocks); err != nil {
		return nil, fmt.Errorf(
			"%w: %s: block payload decode error: %w",
			protocol.ErrParse,
			ProtocolName,
			err,
		)
	}
	return blocks, nil
}
