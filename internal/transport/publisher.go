// SPDX-License-Identifier: MIT
package transport

import (
	"errors"
	"sync"
	"time"

	"chords/internal/analysis"
	"chords/internal/log"
)

// DefaultInterval is used when NewPublisher is given a non-positive interval.
const DefaultInterval = 33 * time.Millisecond

// Publisher periodically polls a NotesProvider and, whenever a new pass has
// been published, sends a NotesMessage to every transport. It runs on its
// own goroutine and never touches the audio thread.
type Publisher struct {
	source     analysis.NotesProvider
	transports []Transport
	interval   time.Duration
	now        func() time.Time

	ticker   *time.Ticker
	doneChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	mu       sync.Mutex // Protects ticker and doneChan during Start/Stop.

	lastSeq uint64
	buf     []string
	sent    uint64
}

// NewPublisher creates a Publisher reading from source.
func NewPublisher(interval time.Duration, source analysis.NotesProvider, transports ...Transport) (*Publisher, error) {
	if source == nil {
		return nil, errors.New("publisher: notes source cannot be nil")
	}
	if len(transports) == 0 {
		return nil, errors.New("publisher: at least one transport is required")
	}
	if interval <= 0 {
		interval = DefaultInterval
		log.Warnf("Publisher: Invalid interval provided, defaulting to %s", interval)
	}

	log.Debugf("Publisher: Initializing (Interval: %s, Transports: %d)", interval, len(transports))

	return &Publisher{
		source:     source,
		transports: transports,
		interval:   interval,
		now:        time.Now,
	}, nil
}

// Start launches the polling goroutine. Calling Start on a running
// publisher is a no-op.
func (p *Publisher) Start() {
	p.mu.Lock()
	if p.ticker != nil {
		p.mu.Unlock()
		log.Warnf("Publisher: Start called but already running.")
		return
	}

	p.ticker = time.NewTicker(p.interval)
	p.doneChan = make(chan struct{})
	p.stopOnce = sync.Once{}

	ticker := p.ticker
	doneChan := p.doneChan
	p.mu.Unlock()

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		log.Debugf("Publisher: goroutine started (Interval: %s)", p.interval)
		for {
			select {
			case <-ticker.C:
				p.publish()
			case <-doneChan:
				return
			}
		}
	}()
}

// Stop signals the polling goroutine to exit and waits for it. It is safe
// to call more than once.
func (p *Publisher) Stop() error {
	p.mu.Lock()
	if p.ticker == nil {
		p.mu.Unlock()
		return nil
	}
	p.stopOnce.Do(func() {
		close(p.doneChan)
		p.ticker.Stop()
		p.ticker = nil
	})
	p.mu.Unlock()

	p.wg.Wait()
	log.Debugf("Publisher: stopped after %d messages", p.Sent())
	return nil
}

// Close stops the publisher and closes every transport, returning the
// first error.
func (p *Publisher) Close() error {
	err := p.Stop()
	for _, t := range p.transports {
		if cerr := t.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}

// Sent returns the number of messages published.
func (p *Publisher) Sent() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sent
}

// publish sends the latest snapshot if its sequence number changed. It
// reports whether a message was built.
func (p *Publisher) publish() bool {
	var seq uint64
	p.buf, seq = p.source.Load(p.buf)
	if seq == 0 || seq == p.lastSeq {
		return false
	}
	p.lastSeq = seq

	msg := NewNotesMessage(seq, p.now(), p.buf)
	for _, t := range p.transports {
		if err := t.Send(msg); err != nil {
			log.Debugf("Publisher: %T send failed: %v", t, err)
		}
	}

	p.mu.Lock()
	p.sent++
	p.mu.Unlock()
	return true
}
