// SPDX-License-Identifier: MIT
package analysis

import "sync"

// Mailbox is a single-slot, one-way hand-off of detected notes from the
// audio thread to presentation readers.
//
// Publish never waits: if a reader holds the lock the publication is
// dropped and the next pass tries again. Readers copy the snapshot out
// under the lock and never observe a partially written set.
type Mailbox struct {
	mu    sync.Mutex
	notes []string
	seq   uint64
}

// NewMailbox returns a mailbox able to hold capacity names without
// growing.
func NewMailbox(capacity int) *Mailbox {
	return &Mailbox{notes: make([]string, 0, capacity)}
}

// Publish replaces the snapshot with names and advances the sequence
// number. It reports false when the slot was contended and nothing was
// written.
func (m *Mailbox) Publish(names []string) bool {
	if !m.mu.TryLock() {
		return false
	}
	m.notes = append(m.notes[:0], names...)
	m.seq++
	m.mu.Unlock()
	return true
}

// Load copies the latest snapshot into dst[:0] and returns it with its
// sequence number. A sequence of 0 means nothing has been published.
func (m *Mailbox) Load(dst []string) ([]string, uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append(dst[:0], m.notes...), m.seq
}

// Sequence returns the number of successful publications.
func (m *Mailbox) Sequence() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.seq
}

var _ NotesProvider = (*Mailbox)(nil)
