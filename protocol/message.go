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

package protocol

// Provide a common interface for message utility functions
type Message interface {
	SetRaw([]byte)
	Raw() []byte
	Type() uint8
}

// MessageBase holds the fields shared by all messages. The message type is
// encoded as the "type" field of the JSON envelope
type MessageBase struct {
	rawJson     []byte
	MessageType uint8 `json:"type"`
}

func (m *MessageBase) SetRaw(data []byte) {
	m.rawJson = make([]byte, len(data))
	copy(m.rawJson, data)
}

func (m *MessageBase) Raw() []byte {
	return m.rawJson
}

func (m *MessageBase) Type() uint8 {
	return m.MessageType
}
