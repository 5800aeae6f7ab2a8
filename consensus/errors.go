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

package consensus

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidStructure is returned for a block with missing or malformed fields
	ErrInvalidStructure = errors.New("invalid block structure")
	// ErrInvalidSuccessor is returned when a block does not extend its reference block
	ErrInvalidSuccessor = errors.New("invalid successor block")
	// ErrInvalidChain is returned when a candidate chain fails validation
	ErrInvalidChain = errors.New("invalid chain")
)

// Reasons for a block not being a valid successor
var (
	ErrIndexMismatch        = errors.New("index mismatch")
	ErrPreviousHashMismatch = errors.New("previous hash mismatch")
	ErrHashMismatch         = errors.New("hash mismatch")
)

// StructureError describes the field that made a block structurally invalid
type StructureError struct {
	Index  uint64
	Field  string
	Reason string
}

func (e StructureError) Error() string {
	return fmt.Sprintf(
		"%s: block #%d: %s %s",
		ErrInvalidStructure,
		e.Index,
		e.Field,
		e.Reason,
	)
}

func (StructureError) Is(target error) bool {
	return target == ErrInvalidStructure
}

// SuccessorError describes why a candidate block does not extend its reference block
type SuccessorError struct {
	Reason   error
	Index    uint64
	Expected string
	Actual   string
}

func (e SuccessorError) Error() string {
	return fmt.Sprintf(
		"%s: block #%d: %s: expected %s, got %s",
		ErrInvalidSuccessor,
		e.Index,
		e.Reason,
		e.Expected,
		e.Actual,
	)
}

func (e SuccessorError) Unwrap() error { return e.Reason }

func (SuccessorError) Is(target error) bool {
	return target == ErrInvalidSuccessor
}
