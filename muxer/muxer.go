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

// Package muxer implements the message framing used on peer connections.
//
// Each protocol message travels in its own length-prefixed segment. The muxer
// runs one goroutine that reads segments from the connection and one that
// writes queued segments to it, so sending never blocks on the network.
package muxer

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
)

const (
	DefaultSendQueueSize = 50
	DefaultRecvQueueSize = 50
)

var (
	// ErrMuxerShutdown is returned when sending on a stopped muxer
	ErrMuxerShutdown = errors.New("muxer shutting down")
	// ErrSendQueueFull is returned when the outbound queue has no room left
	ErrSendQueueFull = errors.New("muxer send queue is full")
	// ErrPayloadTooLarge is returned for segments exceeding SegmentMaxPayloadLength
	ErrPayloadTooLarge = errors.New("segment payload too large")
)

// Muxer wraps a net.Conn and handles reading and writing segments
type Muxer struct {
	conn          net.Conn
	sendQueueSize int
	recvQueueSize int
	sendChan      chan *Segment
	recvChan      chan *Segment
	errorChan     chan error
	doneChan      chan struct{}
	onceStart     sync.Once
	onceShutdown  sync.Once
	waitGroup     sync.WaitGroup
}

// MuxerOptionFunc is a type that represents functions that modify the Muxer config
type MuxerOptionFunc func(*Muxer)

// WithSendQueueSize specifies the number of segments that can be queued for sending
func WithSendQueueSize(size int) MuxerOptionFunc {
	return func(m *Muxer) {
		if size > 0 {
			m.sendQueueSize = size
		}
	}
}

// WithRecvQueueSize specifies the number of received segments buffered for the consumer
func WithRecvQueueSize(size int) MuxerOptionFunc {
	return func(m *Muxer) {
		if size > 0 {
			m.recvQueueSize = size
		}
	}
}

// New returns a new Muxer object for the specified connection. The muxer
// takes ownership of the connection and closes it when stopped
func New(conn net.Conn, options ...MuxerOptionFunc) *Muxer {
	m := &Muxer{
		conn:          conn,
		sendQueueSize: DefaultSendQueueSize,
		recvQueueSize: DefaultRecvQueueSize,
		errorChan:     make(chan error, 1),
		doneChan:      make(chan struct{}),
	}
	for _, option := range options {
		option(m)
	}
	m.sendChan = make(chan *Segment, m.sendQueueSize)
	m.recvChan = make(chan *Segment, m.recvQueueSize)
	return m
}

// ErrorChan returns the channel on which the first read or write error is delivered
func (m *Muxer) ErrorChan() <-chan error {
	return m.errorChan
}

// RecvChan returns the channel of received segments. It is closed when the muxer shuts down
func (m *Muxer) RecvChan() <-chan *Segment {
	return m.recvChan
}

// DoneChan returns a channel that is closed once the muxer starts shutting down
func (m *Muxer) DoneChan() <-chan struct{} {
	return m.doneChan
}

// Start starts the read and write loops. Calling it more than once has no effect
func (m *Muxer) Start() {
	m.onceStart.Do(func() {
		m.waitGroup.Add(2)
		go m.readLoop()
		go m.writeLoop()
	})
}

// Stop shuts down the muxer, closes the underlying connection and waits for
// the read and write loops to exit
func (m *Muxer) Stop() {
	m.shutdown()
	m.waitGroup.Wait()
}

func (m *Muxer) shutdown() {
	m.onceShutdown.Do(func() {
		close(m.doneChan)
		// Closing the connection unblocks the read loop
		_ = m.conn.Close()
	})
}

func (m *Muxer) sendError(err error) {
	// Immediately return if we're already shutting down
	select {
	case <-m.doneChan:
		return
	default:
	}
	// Only the first error is reported
	select {
	case m.errorChan <- err:
	default:
	}
	// Stop the muxer on any error
	m.shutdown()
}

// Send queues payload for sending as a single segment. It does not block: an
// error is returned if the muxer is shut down or the send queue is full
func (m *Muxer) Send(payload []byte) error {
	segment := NewSegment(payload)
	if segment == nil {
		return fmt.Errorf("%w: %d bytes", ErrPayloadTooLarge, len(payload))
	}
	select {
	case <-m.doneChan:
		return ErrMuxerShutdown
	default:
	}
	select {
	case m.sendChan <- segment:
		return nil
	default:
		return ErrSendQueueFull
	}
}

func (m *Muxer) writeSegment(segment *Segment) error {
	buf := &bytes.Buffer{}
	if err := binary.Write(buf, binary.BigEndian, segment.SegmentHeader); err != nil {
		return err
	}
	buf.Write(segment.Payload)
	_, err := m.conn.Write(buf.Bytes())
	return err
}

func (m *Muxer) writeLoop() {
	defer m.waitGroup.Done()
	for {
		select {
		case <-m.doneChan:
			return
		case segment := <-m.sendChan:
			if err := m.writeSegment(segment); err != nil {
				m.sendError(err)
				return
			}
		}
	}
}

func (m *Muxer) readLoop() {
	defer m.waitGroup.Done()
	defer close(m.recvChan)
	for {
		header := SegmentHeader{}
		if err := binary.Read(m.conn, binary.BigEndian, &header); err != nil {
			m.sendError(normalizeReadError(err))
			return
		}
		if header.PayloadLength > SegmentMaxPayloadLength {
			m.sendError(
				fmt.Errorf("%w: %d bytes", ErrPayloadTooLarge, header.PayloadLength),
			)
			return
		}
		segment := &Segment{
			SegmentHeader: header,
			Payload:       make([]byte, header.PayloadLength),
		}
		// We use ReadFull because it guarantees to read the expected number of bytes or
		// return an error
		if _, err := io.ReadFull(m.conn, segment.Payload); err != nil {
			m.sendError(normalizeReadError(err))
			return
		}
		select {
		case <-m.doneChan:
			return
		case m.recvChan <- segment:
		}
	}
}

// normalizeReadError returns a bare io.EOF for a connection closed by the remote side
func normalizeReadError(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return io.EOF
	}
	return err
}
