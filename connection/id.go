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

// Package connection holds types shared by everything that refers to a peer connection
package connection

import (
	"fmt"
	"net"
)

// ConnectionId uniquely identifies a connection by its local and remote addresses
type ConnectionId struct {
	LocalAddr  net.Addr
	RemoteAddr net.Addr
}

// Address returns the transport-level address of the remote peer
func (c ConnectionId) Address() string {
	if c.RemoteAddr == nil {
		return ""
	}
	return c.RemoteAddr.String()
}

func (c ConnectionId) String() string {
	var localAddr, remoteAddr string
	if c.LocalAddr != nil {
		localAddr = c.LocalAddr.String()
	}
	if c.RemoteAddr != nil {
		remoteAddr = c.RemoteAddr.String()
	}
	return fmt.Sprintf("%s<>%s", localAddr, remoteAddr)
}
