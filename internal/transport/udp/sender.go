// SPDX-License-Identifier: MIT
package udp

import (
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"

	applog "chords/internal/log"
)

// ErrSenderClosed is returned by Send after Close.
var ErrSenderClosed = errors.New("udp: sender is closed")

// UDPSender writes datagrams to a single connected peer. Send and Close
// may be called from different goroutines.
type UDPSender struct {
	mu     sync.Mutex // Guards conn against a concurrent Close.
	conn   *net.UDPConn
	closed bool

	packets atomic.Uint64
	bytes   atomic.Uint64
}

// NewUDPSender connects a datagram socket to targetAddress ("host:port").
func NewUDPSender(targetAddress string) (*UDPSender, error) {
	raddr, err := net.ResolveUDPAddr("udp", targetAddress)
	if err != nil {
		return nil, fmt.Errorf("udp: resolve %q: %w", targetAddress, err)
	}
	conn, err := net.DialUDP("udp", nil, raddr)
	if err != nil {
		return nil, fmt.Errorf("udp: dial %q: %w", targetAddress, err)
	}

	applog.Debugf("UDP: %s -> %s", conn.LocalAddr(), conn.RemoteAddr())
	return &UDPSender{conn: conn}, nil
}

// RemoteAddr returns the peer the sender writes to.
func (s *UDPSender) RemoteAddr() net.Addr {
	return s.conn.RemoteAddr()
}

// Send writes data as one datagram. A refused or unreachable peer is
// reported but does not close the sender.
func (s *UDPSender) Send(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSenderClosed
	}
	n, err := s.conn.Write(data)
	if err != nil {
		return fmt.Errorf("udp: write to %s: %w", s.conn.RemoteAddr(), err)
	}
	s.packets.Add(1)
	s.bytes.Add(uint64(n))
	return nil
}

// Stats returns the number of datagrams and bytes written so far.
func (s *UDPSender) Stats() (packets, bytes uint64) {
	return s.packets.Load(), s.bytes.Load()
}

// Close closes the socket. Further calls are no-ops.
func (s *UDPSender) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	packets, bytes := s.Stats()
	applog.Debugf("UDP: closing %s after %d packets (%d bytes)", s.conn.RemoteAddr(), packets, bytes)
	return s.conn.Close()
}
