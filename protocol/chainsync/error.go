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

import "errors"

// ErrUnknownMessageType is returned when decoding a message with a type outside the protocol
var ErrUnknownMessageType = errors.New("unknown message type")

// ErrMissingData is returned for a RESPONSE_CHAIN message without a block payload
var ErrMissingData = errors.New("missing message data")
