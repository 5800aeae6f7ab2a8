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

package cbor_test

import (
	"bytes"

	_cbor "github.com/fxamacker/cbor/v2"
)

// decode reads encoded values back in tests and returns the number of bytes consumed
func decode(dataBytes []byte, dest any) (int, error) {
	decMode, err := _cbor.DecOptions{
		ExtraReturnErrors: _cbor.ExtraDecErrorUnknownField,
		DupMapKey:         _cbor.DupMapKeyEnforcedAPF,
	}.DecMode()
	if err != nil {
		return 0, err
	}
	dec := decMode.NewDecoder(bytes.NewReader(dataBytes))
	err = dec.Decode(dest)
	return dec.NumBytesRead(), err
}
