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

// Package ledger defines the blocks and chains replicated between peers
package ledger

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/blinklabs-io/gossipledger/cbor"
)

// HashVersion identifies the layout of the hash preimage. It is part of the
// preimage itself, so a future layout change can never collide with this one
const HashVersion = 1

// HashLength is the length of a hex-encoded block hash
const HashLength = sha256.Size * 2

// ErrInvalidData is returned for a block payload that is not valid UTF-8.
// Such a payload would not survive the JSON round trip to peers unchanged
var ErrInvalidData = errors.New("block data is not valid UTF-8")

// Block is an immutable ledger record
type Block struct {
	Index        uint64 `json:"index"`
	Hash         string `json:"hash"`
	PreviousHash string `json:"previousHash"`
	Timestamp    int64  `json:"timestamp"`
	Data         string `json:"data"`
	// Fields absent (or null) in the JSON the block was decoded from
	missing blockFields
}

type blockFields uint8

const (
	fieldIndex blockFields = 1 << iota
	fieldHash
	fieldPreviousHash
	fieldTimestamp
	fieldData
)

var blockFieldNames = []struct {
	field blockFields
	name  string
}{
	{fieldIndex, "index"},
	{fieldHash, "hash"},
	{fieldPreviousHash, "previousHash"},
	{fieldTimestamp, "timestamp"},
	{fieldData, "data"},
}

// blockJson is the wire form of a block, used to detect absent fields
type blockJson struct {
	Index        *uint64 `json:"index"`
	Hash         *string `json:"hash"`
	PreviousHash *string `json:"previousHash"`
	Timestamp    *int64  `json:"timestamp"`
	Data         *string `json:"data"`
}

func (b *Block) UnmarshalJSON(data []byte) error {
	var tmp blockJson
	if err := json.Unmarshal(data, &tmp); err != nil {
		return err
	}
	*b = Block{}
	if tmp.Index != nil {
		b.Index = *tmp.Index
	} else {
		b.missing |= fieldIndex
	}
	if tmp.Hash != nil {
		b.Hash = *tmp.Hash
	} else {
		b.missing |= fieldHash
	}
	if tmp.PreviousHash != nil {
		b.PreviousHash = *tmp.PreviousHash
	} else {
		b.missing |= fieldPreviousHash
	}
	if tmp.Timestamp != nil {
		b.Timestamp = *tmp.Timestamp
	} else {
		b.missing |= fieldTimestamp
	}
	if tmp.Data != nil {
		b.Data = *tmp.Data
	} else {
		b.missing |= fieldData
	}
	return nil
}

// MissingFields returns the JSON names of the fields that were absent or null
// when the block was decoded. Blocks built in code have no missing fields
func (b Block) MissingFields() []string {
	var ret []string
	for _, f := range blockFieldNames {
		if b.missing&f.field != 0 {
			ret = append(ret, f.name)
		}
	}
	return ret
}

// ValidateData checks that data can be carried as a block payload
func ValidateData(data string) error {
	if !utf8.ValidString(data) {
		return ErrInvalidData
	}
	return nil
}

// hashPreimage is the canonical form of the hashed block fields
type hashPreimage struct {
	cbor.StructAsArray
	Version      uint
	Index        uint64
	PreviousHash string
	Timestamp    int64
	Data         string
}

// ComputeHash returns the hex-encoded SHA-256 digest of the block fields.
// The fields are encoded as a deterministic CBOR array prefixed with
// HashVersion, so each field is length-delimited
func ComputeHash(
	index uint64,
	previousHash string,
	timestamp int64,
	data string,
) string {
	preimage, err := cbor.Encode(
		hashPreimage{
			Version:      HashVersion,
			Index:        index,
			PreviousHash: previousHash,
			Timestamp:    timestamp,
			Data:         data,
		},
	)
	if err != nil {
		// Encoding a fixed struct of primitive types cannot fail
		panic(fmt.Sprintf("ledger: failed to encode hash preimage: %s", err))
	}
	sum := sha256.Sum256(preimage)
	return hex.EncodeToString(sum[:])
}

// ComputeHash recomputes the hash of the block from its other fields
func (b Block) ComputeHash() string {
	return ComputeHash(b.Index, b.PreviousHash, b.Timestamp, b.Data)
}

// IsGenesis returns true if the block sits at index 0
func (b Block) IsGenesis() bool {
	return b.Index == 0
}

// Time returns the block timestamp as a time.Time
func (b Block) Time() time.Time {
	return time.Unix(b.Timestamp, 0)
}

func (b Block) String() string {
	return fmt.Sprintf("block #%d (%s)", b.Index, shortHash(b.Hash))
}

// CreateNextBlock builds the successor of head carrying payload. The block is
// not added to any chain. Callers check payload with ValidateData first
func CreateNextBlock(head Block, payload string, now time.Time) Block {
	ret := Block{
		Index:        head.Index + 1,
		PreviousHash: head.Hash,
		Timestamp:    now.Unix(),
		Data:         payload,
	}
	ret.Hash = ret.ComputeHash()
	return ret
}

func shortHash(hash string) string {
	if len(hash) > 8 {
		return hash[:8]
	}
	return hash
}
