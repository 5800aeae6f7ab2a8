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

package muxer

import (
	"time"
)

// Maximum segment payload length
const SegmentMaxPayloadLength = 8 * 1024 * 1024

// SegmentHeaderLength is the encoded size of SegmentHeader
const SegmentHeaderLength = 8

// SegmentHeader represents the header bytes on a segment
type SegmentHeader struct {
	Timestamp     uint32
	PayloadLength uint32
}

// Segment represents basic unit of data in the protocol. Each segment carries
// exactly one protocol message
type Segment struct {
	SegmentHeader
	Payload []byte
}

// NewSegment returns a new Segment given a payload. It returns nil if the
// payload exceeds SegmentMaxPayloadLength
func NewSegment(payload []byte) *Segment {
	if len(payload) > SegmentMaxPayloadLength {
		return nil
	}
	header := SegmentHeader{
		Timestamp:     uint32(time.Now().UnixNano() & 0xffffffff), //nolint:gosec
		PayloadLength: uint32(len(payload)),                       //nolint:gosec
	}
	segment := &Segment{
		SegmentHeader: header,
		Payload:       payload,
	}
	return segment
}
