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

// Package test provides helpers shared by the package tests
package test

import (
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/blinklabs-io/gossipledger/ledger"
)

// DefaultTimeout bounds how long helpers wait for asynchronous results
const DefaultTimeout = 5 * time.Second

// Genesis returns the genesis parameters used throughout the tests
func Genesis() ledger.Genesis {
	return ledger.Genesis{
		Hash:      "GH",
		Timestamp: 1000,
		Data:      "genesis",
	}
}

// BuildBlocks returns a valid chain of the given length (genesis included)
// on top of genesis. The payloads start with prefix, so chains built with
// different prefixes diverge right after the genesis block
func BuildBlocks(genesis ledger.Genesis, length int, prefix string) []ledger.Block {
	if length < 1 {
		return nil
	}
	blocks := []ledger.Block{ledger.NewGenesisBlock(genesis)}
	for i := 1; i < length; i++ {
		prev := blocks[len(blocks)-1]
		blocks = append(
			blocks,
			ledger.CreateNextBlock(
				prev,
				fmt.Sprintf("%s-%d", prefix, i),
				time.Unix(genesis.Timestamp+int64(i)*10, 0),
			),
		)
	}
	return blocks
}

// TCPConnPair returns both ends of a loopback TCP connection. Unlike
// net.Pipe, each end has a distinct address
func TCPConnPair(t testing.TB) (net.Conn, net.Conn) {
	t.Helper()
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %s", err)
	}
	defer listener.Close()
	acceptChan := make(chan net.Conn, 1)
	errChan := make(chan error, 1)
	go func() {
		conn, err := listener.Accept()
		if err != nil {
			errChan <- err
			return
		}
		acceptChan <- conn
	}()
	client, err := net.Dial("tcp", listener.Addr().String())
	if err != nil {
		t.Fatalf("failed to dial: %s", err)
	}
	select {
	case server := <-acceptChan:
		return client, server
	case err := <-errChan:
		client.Close()
		t.Fatalf("failed to accept: %s", err)
	case <-time.After(DefaultTimeout):
		client.Close()
		t.Fatal("timed out accepting connection")
	}
	return nil, nil
}

// WaitFor polls cond until it returns true or DefaultTimeout elapses
func WaitFor(t testing.TB, cond func() bool, msgAndArgs ...any) {
	t.Helper()
	deadline := time.Now().Add(DefaultTimeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	if len(msgAndArgs) > 0 {
		if format, ok := msgAndArgs[0].(string); ok {
			t.Fatal("condition not met: " + fmt.Sprintf(format, msgAndArgs[1:]...))
		}
	}
	t.Fatal("condition not met within timeout")
}
