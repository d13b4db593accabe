// SPDX-License-Identifier: MIT
package utils

import (
	"errors"
	"sync"
)

// ErrMockClosed is returned by MockTransport.Send after Close.
var ErrMockClosed = errors.New("mock transport closed")

// MockTransport records everything sent through it instead of transmitting.
// It is safe for concurrent use so publisher goroutines can write to it
// while a test reads.
type MockTransport struct {
	mu     sync.Mutex
	sent   []any
	closed bool
}

// Send stores data for later inspection.
func (m *MockTransport) Send(data any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrMockClosed
	}
	m.sent = append(m.sent, data)
	return nil
}

// Close marks the transport closed. Further sends fail.
func (m *MockTransport) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	return nil
}

// Sent returns a copy of everything sent so far, in order.
func (m *MockTransport) Sent() []any {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]any, len(m.sent))
	copy(out, m.sent)
	return out
}

// Count returns the number of messages sent so far.
func (m *MockTransport) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}
