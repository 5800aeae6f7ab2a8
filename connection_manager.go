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
	"log/slog"
	"net"
	"sort"
	"strconv"
	"sync"

	iradix "github.com/hashicorp/go-immutable-radix"

	"github.com/blinklabs-io/gossipledger/protocol"
)

// ConnectionManagerConnClosedFunc is a function that takes a connection ID and an optional error
type ConnectionManagerConnClosedFunc func(ConnectionId, error)

// ConnectionManagerTag represents the various tags that can be associated with a host or connection
type ConnectionManagerTag uint16

const (
	ConnectionManagerTagNone ConnectionManagerTag = iota

	ConnectionManagerTagHostTopology
	ConnectionManagerTagHostManual

	ConnectionManagerTagRoleInitiator
	ConnectionManagerTagRoleResponder
)

func (c ConnectionManagerTag) String() string {
	tmp := map[ConnectionManagerTag]string{
		ConnectionManagerTagHostTopology:  "HostTopology",
		ConnectionManagerTagHostManual:    "HostManual",
		ConnectionManagerTagRoleInitiator: "RoleInitiator",
		ConnectionManagerTagRoleResponder: "RoleResponder",
	}
	ret, ok := tmp[c]
	if !ok {
		return "Unknown"
	}
	return ret
}

// ConnectionManager is the registry of live peer connections. Connections are
// held in an immutable radix tree, so readers work on a stable snapshot while
// connections come and go
type ConnectionManager struct {
	config           ConnectionManagerConfig
	hosts            []ConnectionManagerHost
	hostsMutex       sync.Mutex
	connections      *iradix.Tree
	connectionsMutex sync.Mutex
}

type ConnectionManagerConfig struct {
	ConnClosedFunc ConnectionManagerConnClosedFunc
	Logger         *slog.Logger
}

type ConnectionManagerHost struct {
	Address string
	Port    uint
	Tags    map[ConnectionManagerTag]bool
}

// HostPort returns the host in "address:port" form
func (h ConnectionManagerHost) HostPort() string {
	return net.JoinHostPort(h.Address, strconv.FormatUint(uint64(h.Port), 10))
}

func NewConnectionManager(cfg ConnectionManagerConfig) *ConnectionManager {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &ConnectionManager{
		config:      cfg,
		connections: iradix.New(),
	}
}

func (c *ConnectionManager) AddHost(address string, port uint, tags ...ConnectionManagerTag) {
	tmpTags := map[ConnectionManagerTag]bool{}
	for _, tag := range tags {
		tmpTags[tag] = true
	}
	c.hostsMutex.Lock()
	defer c.hostsMutex.Unlock()
	c.hosts = append(
		c.hosts,
		ConnectionManagerHost{
			Address: address,
			Port:    port,
			Tags:    tmpTags,
		},
	)
}

func (c *ConnectionManager) AddHostsFromTopology(topology *TopologyConfig) {
	for _, host := range topology.Peers {
		c.AddHost(host.Address, host.Port, ConnectionManagerTagHostTopology)
	}
}

// Hosts returns the known hosts
func (c *ConnectionManager) Hosts() []ConnectionManagerHost {
	c.hostsMutex.Lock()
	defer c.hostsMutex.Unlock()
	ret := make([]ConnectionManagerHost, len(c.hosts))
	copy(ret, c.hosts)
	return ret
}

// AddConnection registers a connection and watches it. When the connection
// fails or is closed it is removed from the registry and ConnClosedFunc is
// called
func (c *ConnectionManager) AddConnection(conn *Connection, tags ...ConnectionManagerTag) {
	connId := conn.Id()
	tmpTags := map[ConnectionManagerTag]bool{}
	for _, tag := range tags {
		tmpTags[tag] = true
	}
	c.connectionsMutex.Lock()
	c.connections, _, _ = c.connections.Insert(
		connectionKey(connId),
		&ConnectionManagerConnection{
			Conn: conn,
			Tags: tmpTags,
		},
	)
	c.connectionsMutex.Unlock()
	c.config.Logger.Info(
		"peer connected",
		"component", "network",
		"connection_id", connId.String(),
	)
	go func() {
		// A closed error channel means the connection was closed without error
		err := <-conn.ErrorChan()
		c.RemoveConnection(connId)
		c.config.Logger.Info(
			"peer disconnected",
			"component", "network",
			"connection_id", connId.String(),
			"error", err,
		)
		// Call configured connection closed callback func
		if c.config.ConnClosedFunc != nil {
			c.config.ConnClosedFunc(connId, err)
		}
	}()
}

func (c *ConnectionManager) RemoveConnection(connId ConnectionId) {
	c.connectionsMutex.Lock()
	c.connections, _, _ = c.connections.Delete(connectionKey(connId))
	c.connectionsMutex.Unlock()
}

func (c *ConnectionManager) GetConnectionById(connId ConnectionId) *ConnectionManagerConnection {
	tmpConn, ok := c.snapshot().Get(connectionKey(connId))
	if !ok {
		return nil
	}
	return tmpConn.(*ConnectionManagerConnection)
}

// GetConnections returns all registered connections ordered by connection ID
func (c *ConnectionManager) GetConnections() []*ConnectionManagerConnection {
	return c.GetConnectionsByTags()
}

// GetConnectionsByTags returns the registered connections that carry all of the given tags
func (c *ConnectionManager) GetConnectionsByTags(tags ...ConnectionManagerTag) []*ConnectionManagerConnection {
	var ret []*ConnectionManagerConnection
	c.snapshot().Root().Walk(func(_ []byte, v any) bool {
		conn := v.(*ConnectionManagerConnection)
		for _, tag := range tags {
			if _, ok := conn.Tags[tag]; !ok {
				return false
			}
		}
		ret = append(ret, conn)
		return false
	})
	return ret
}

// Len returns the number of registered connections
func (c *ConnectionManager) Len() int {
	return c.snapshot().Len()
}

// Addresses returns the sorted remote addresses of all registered connections
func (c *ConnectionManager) Addresses() []string {
	conns := c.GetConnections()
	ret := make([]string, 0, len(conns))
	for _, conn := range conns {
		ret = append(ret, conn.Conn.Id().Address())
	}
	sort.Strings(ret)
	return ret
}

// Broadcast queues msg on every registered connection. Sends never block, and
// a failed send is logged without affecting the other connections
func (c *ConnectionManager) Broadcast(msg protocol.Message) {
	for _, conn := range c.GetConnections() {
		chainSync := conn.Conn.ChainSync()
		if chainSync == nil {
			continue
		}
		if err := chainSync.SendMessage(msg); err != nil {
			c.config.Logger.Warn(
				"failed to send message to peer",
				"component", "network",
				"connection_id", conn.Conn.Id().String(),
				"message_type", msg.Type(),
				"error", err,
			)
		}
	}
}

func (c *ConnectionManager) snapshot() *iradix.Tree {
	c.connectionsMutex.Lock()
	defer c.connectionsMutex.Unlock()
	return c.connections
}

func connectionKey(connId ConnectionId) []byte {
	return []byte(connId.String())
}

type ConnectionManagerConnection struct {
	Conn *Connection
	Tags map[ConnectionManagerTag]bool
}

// HasTag returns true if the connection carries the given tag
func (c *ConnectionManagerConnection) HasTag(tag ConnectionManagerTag) bool {
	return c.Tags[tag]
}
