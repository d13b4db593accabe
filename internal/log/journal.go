// SPDX-License-Identifier: MIT
package log

import (
	"bytes"
	"strings"
	"sync"
)

// Journal is a bounded, in-memory line log. It implements io.Writer so it
// can be passed to SetOutput, and keeps only the most recent lines.
type Journal struct {
	mu      sync.Mutex
	lines   []string
	next    int // Ring position of the next write once full.
	full    bool
	partial bytes.Buffer
}

// NewJournal returns a Journal that retains up to capacity lines.
func NewJournal(capacity int) *Journal {
	return &Journal{lines: make([]string, max(capacity, 1))}
}

// Write appends p, splitting it into lines. A trailing fragment without a
// newline is held until the next Write completes it.
func (j *Journal) Write(p []byte) (int, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.partial.Write(p)
	for {
		line, err := j.partial.ReadString('\n')
		if err != nil {
			// No newline yet: put the fragment back.
			j.partial.Reset()
			j.partial.WriteString(line)
			break
		}
		j.add(strings.TrimRight(line, "\r\n"))
	}
	return len(p), nil
}

// Add records a single line without going through the global logger.
func (j *Journal) Add(line string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.add(line)
}

func (j *Journal) add(line string) {
	j.lines[j.next] = line
	j.next++
	if j.next == len(j.lines) {
		j.next = 0
		j.full = true
	}
}

// Lines returns a copy of the retained lines, oldest first.
func (j *Journal) Lines() []string {
	j.mu.Lock()
	defer j.mu.Unlock()

	if !j.full {
		return append([]string(nil), j.lines[:j.next]...)
	}
	out := make([]string, 0, len(j.lines))
	out = append(out, j.lines[j.next:]...)
	return append(out, j.lines[:j.next]...)
}

// Tail returns at most n of the most recent lines, oldest first.
func (j *Journal) Tail(n int) []string {
	lines := j.Lines()
	if n < len(lines) {
		return lines[len(lines)-n:]
	}
	return lines
}

// Len returns the number of retained lines.
func (j *Journal) Len() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.full {
		return len(j.lines)
	}
	return j.next
}
