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

package gossipledger_test

import (
	"reflect"
	"strings"
	"testing"

	"github.com/blinklabs-io/gossipledger"
)

type topologyTestDefinition struct {
	jsonData       string
	expectedObject *gossipledger.TopologyConfig
}

var topologyTests = []topologyTestDefinition{
	{
		jsonData: `
{
  "peers": [
    {
      "address": "127.0.0.1",
      "port": 6001
    },
    {
      "address": "peer.example.com",
      "port": 6002
    }
  ]
}
`,
		expectedObject: &gossipledger.TopologyConfig{
			Peers: []gossipledger.TopologyConfigPeer{
				{
					Address: "127.0.0.1",
					Port:    6001,
				},
				{
					Address: "peer.example.com",
					Port:    6002,
				},
			},
		},
	},
	{
		jsonData:       `{}`,
		expectedObject: &gossipledger.TopologyConfig{},
	},
}

func TestParseTopologyConfig(t *testing.T) {
	for _, test := range topologyTests {
		topology, err := gossipledger.NewTopologyConfigFromReader(
			strings.NewReader(test.jsonData),
		)
		if err != nil {
			t.Fatalf("failed to load TopologyConfig from JSON data: %s", err)
		}
		if !reflect.DeepEqual(topology, test.expectedObject) {
			t.Fatalf(
				"did not get expected object\n  got:\n    %#v\n  wanted:\n    %#v",
				topology,
				test.expectedObject,
			)
		}
	}
}

func TestParseTopologyConfigInvalid(t *testing.T) {
	for _, jsonData := range []string{
		`{"peers": [{"address": "", "port": 6001}]}`,
		`{"peers": [{"address": "127.0.0.1", "port": 0}]}`,
		`{"peers": [{"address": "127.0.0.1", "port": 70000}]}`,
		`{"peers": "nope"}`,
	} {
		if _, err := gossipledger.NewTopologyConfigFromReader(strings.NewReader(jsonData)); err == nil {
			t.Fatalf("did not get expected error for topology: %s", jsonData)
		}
	}
}

func TestTopologyConfigFromAddresses(t *testing.T) {
	topology, err := gossipledger.NewTopologyConfigFromAddresses(
		[]string{"127.0.0.1:6001", "[::1]:6002"},
	)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	expected := &gossipledger.TopologyConfig{
		Peers: []gossipledger.TopologyConfigPeer{
			{Address: "127.0.0.1", Port: 6001},
			{Address: "::1", Port: 6002},
		},
	}
	if !reflect.DeepEqual(topology, expected) {
		t.Fatalf("did not get expected object\n  got:\n    %#v\n  wanted:\n    %#v", topology, expected)
	}
	for _, address := range []string{"127.0.0.1", "127.0.0.1:port", "127.0.0.1:99999"} {
		if _, err := gossipledger.NewTopologyConfigFromAddresses([]string{address}); err == nil {
			t.Fatalf("did not get expected error for address: %s", address)
		}
	}
}
