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
	"encoding/json"
	"io"
	"testing"
	"time"

	"github.com/blinklabs-io/gossipledger"
	"github.com/blinklabs-io/gossipledger/internal/test"
	"github.com/blinklabs-io/gossipledger/muxer"
	"github.com/blinklabs-io/gossipledger/protocol/chainsync"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

type envelope struct {
	Type int     `json:"type"`
	Data *string `json:"data"`
}

// newTestConnection returns a started Connection and a bare muxer on the
// remote end of the same TCP connection
func newTestConnection(
	t *testing.T,
	options ...gossipledger.ConnectionOptionFunc,
) (*gossipledger.Connection, *muxer.Muxer) {
	t.Helper()
	local, remote := test.TCPConnPair(t)
	remoteMuxer := muxer.New(remote)
	remoteMuxer.Start()
	oConn, err := gossipledger.NewConnection(
		append([]gossipledger.ConnectionOptionFunc{gossipledger.WithConnection(local)}, options...)...,
	)
	require.NoError(t, err)
	return oConn, remoteMuxer
}

func recvEnvelope(t *testing.T, m *muxer.Muxer) envelope {
	t.Helper()
	select {
	case segment, ok := <-m.RecvChan():
		require.True(t, ok, "remote connection closed")
		var ret envelope
		require.NoError(t, json.Unmarshal(segment.Payload, &ret))
		return ret
	case <-time.After(test.DefaultTimeout):
		t.Fatal("timed out waiting for message")
	}
	return envelope{}
}

func TestConnectionSendsQueryLatestFirst(t *testing.T) {
	defer goleak.VerifyNone(t)
	oConn, remote := newTestConnection(t)
	defer remote.Stop()
	defer oConn.Close()
	msg := recvEnvelope(t, remote)
	assert.Equal(t, chainsync.MessageTypeQueryLatest, msg.Type)
	assert.Nil(t, msg.Data)
}

func TestConnectionDelayProtocolStart(t *testing.T) {
	defer goleak.VerifyNone(t)
	oConn, remote := newTestConnection(t, gossipledger.WithDelayProtocolStart(true))
	defer remote.Stop()
	defer oConn.Close()
	select {
	case <-remote.RecvChan():
		t.Fatal("received message before protocol start")
	case <-time.After(100 * time.Millisecond):
	}
	require.NoError(t, oConn.Start())
	msg := recvEnvelope(t, remote)
	assert.Equal(t, chainsync.MessageTypeQueryLatest, msg.Type)
}

func TestConnectionRemoteClose(t *testing.T) {
	defer goleak.VerifyNone(t)
	oConn, remote := newTestConnection(t)
	defer oConn.Close()
	recvEnvelope(t, remote)
	remote.Stop()
	select {
	case err := <-oConn.ErrorChan():
		assert.ErrorIs(t, err, io.EOF)
	case <-time.After(test.DefaultTimeout):
		t.Fatal("timed out waiting for connection error")
	}
	// The connection closes itself after an error
	select {
	case <-oConn.ChainSync().DoneChan():
	case <-time.After(test.DefaultTimeout):
		t.Fatal("timed out waiting for protocol shutdown")
	}
}

func TestConnectionClose(t *testing.T) {
	defer goleak.VerifyNone(t)
	oConn, remote := newTestConnection(t)
	defer remote.Stop()
	require.NoError(t, oConn.Close())
	// A clean close closes the error channel without an error
	err, ok := <-oConn.ErrorChan()
	assert.False(t, ok)
	assert.NoError(t, err)
	// Close is idempotent
	require.NoError(t, oConn.Close())
	assert.True(t, oConn.ChainSync().IsDone())
}

func TestConnectionDialWithExistingConnection(t *testing.T) {
	defer goleak.VerifyNone(t)
	oConn, remote := newTestConnection(t)
	defer remote.Stop()
	defer oConn.Close()
	assert.Error(t, oConn.Dial("tcp", "127.0.0.1:1"))
}

func TestConnectionId(t *testing.T) {
	defer goleak.VerifyNone(t)
	oConn, remote := newTestConnection(t)
	defer remote.Stop()
	defer oConn.Close()
	connId := oConn.Id()
	require.NotNil(t, connId.LocalAddr)
	require.NotNil(t, connId.RemoteAddr)
	assert.Equal(t, connId.RemoteAddr.String(), connId.Address())
	assert.False(t, oConn.IsServer())
}
