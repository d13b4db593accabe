// SPDX-License-Identifier: MIT
package transport

import (
	"errors"
	"slices"
	"time"
)

// ErrClosed is returned by Send after a transport has been closed.
var ErrClosed = errors.New("transport: closed")

// Transport defines a generic interface for sending processed data or events.
// Implementations should be thread-safe.
type Transport interface {
	Send(data any) error
	Close() error
}

// NotesMessage is the payload published for each new analysis pass.
type NotesMessage struct {
	Type      string   `json:"type"`      // Always "notes".
	Sequence  uint64   `json:"sequence"`  // Pass sequence number from the mailbox.
	Timestamp int64    `json:"timestamp"` // Unix nanoseconds when the message was built.
	Notes     []string `json:"notes"`     // Ascending by frequency; empty when nothing was detected.
}

// NewNotesMessage copies names into a message. A nil or empty set is
// encoded as an empty list, never null.
func NewNotesMessage(seq uint64, at time.Time, names []string) NotesMessage {
	notes := slices.Clone(names)
	if notes == nil {
		notes = []string{}
	}
	return NotesMessage{
		Type:      "notes",
		Sequence:  seq,
		Timestamp: at.UnixNano(),
		Notes:     notes,
	}
}
