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

package gossipledger

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
)

// TopologyConfig lists the peers a node dials at start
type TopologyConfig struct {
	Peers []TopologyConfigPeer `json:"peers"`
}

type TopologyConfigPeer struct {
	Address string `json:"address"`
	Port    uint   `json:"port"`
}

func NewTopologyConfigFromFile(path string) (*TopologyConfig, error) {
	dataFile, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer dataFile.Close()
	return NewTopologyConfigFromReader(dataFile)
}

func NewTopologyConfigFromReader(r io.Reader) (*TopologyConfig, error) {
	t := &TopologyConfig{}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(data, t); err != nil {
		return nil, err
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// NewTopologyConfigFromAddresses builds a topology from "host:port" strings
func NewTopologyConfigFromAddresses(addresses []string) (*TopologyConfig, error) {
	t := &TopologyConfig{}
	for _, address := range addresses {
		host, portStr, err := net.SplitHostPort(address)
		if err != nil {
			return nil, fmt.Errorf("invalid peer address %q: %w", address, err)
		}
		port, err := strconv.ParseUint(portStr, 10, 16)
		if err != nil {
			return nil, fmt.Errorf("invalid peer port %q: %w", address, err)
		}
		t.Peers = append(
			t.Peers,
			TopologyConfigPeer{
				Address: host,
				Port:    uint(port),
			},
		)
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// Validate checks that every peer has an address and a usable port
func (t *TopologyConfig) Validate() error {
	for idx, peer := range t.Peers {
		if peer.Address == "" {
			return fmt.Errorf("topology peer %d: %w", idx, errors.New("missing address"))
		}
		if peer.Port == 0 || peer.Port > 65535 {
			return fmt.Errorf("topology peer %d: invalid port %d", idx, peer.Port)
		}
	}
	return nil
}
