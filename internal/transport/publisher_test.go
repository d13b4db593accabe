// SPDX-License-Identifier: MIT
package transport

import (
	"errors"
	"slices"
	"testing"
	"time"

	"chords/internal/analysis"
	"chords/pkg/utils"
)

func newTestPublisher(t *testing.T, box *analysis.Mailbox, transports ...Transport) *Publisher {
	t.Helper()
	p, err := NewPublisher(time.Millisecond, box, transports...)
	if err != nil {
		t.Fatalf("NewPublisher: %v", err)
	}
	p.now = func() time.Time { return time.Unix(0, 42) }
	return p
}

func TestNewPublisherErrors(t *testing.T) {
	if _, err := NewPublisher(time.Second, nil, &utils.MockTransport{}); err == nil {
		t.Error("expected error for nil source")
	}
	if _, err := NewPublisher(time.Second, analysis.NewMailbox(1)); err == nil {
		t.Error("expected error without transports")
	}
	p, err := NewPublisher(0, analysis.NewMailbox(1), &utils.MockTransport{})
	if err != nil {
		t.Fatal(err)
	}
	if p.interval != DefaultInterval {
		t.Errorf("zero interval defaulted to %s", p.interval)
	}
}

func TestPublisherSendsOnNewSequence(t *testing.T) {
	box := analysis.NewMailbox(8)
	a, b := &utils.MockTransport{}, &utils.MockTransport{}
	p := newTestPublisher(t, box, a, b)

	if p.publish() {
		t.Error("published before any pass")
	}

	box.Publish([]string{"A4", "A5"})
	if !p.publish() {
		t.Fatal("new pass was not published")
	}
	if p.publish() {
		t.Error("unchanged sequence published twice")
	}

	box.Publish(nil)
	p.publish()

	for _, mt := range []*utils.MockTransport{a, b} {
		sent := mt.Sent()
		if len(sent) != 2 {
			t.Fatalf("transport received %d messages, want 2", len(sent))
		}
		first := sent[0].(NotesMessage)
		if first.Sequence != 1 || first.Timestamp != 42 || !slices.Equal(first.Notes, []string{"A4", "A5"}) {
			t.Errorf("first message = %+v", first)
		}
		if second := sent[1].(NotesMessage); second.Sequence != 2 || len(second.Notes) != 0 {
			t.Errorf("second message = %+v", second)
		}
	}
	if p.Sent() != 2 {
		t.Errorf("Sent() = %d, want 2", p.Sent())
	}
}

func TestPublisherMessagesDoNotAlias(t *testing.T) {
	box := analysis.NewMailbox(8)
	mt := &utils.MockTransport{}
	p := newTestPublisher(t, box, mt)

	box.Publish([]string{"C4"})
	p.publish()
	box.Publish([]string{"D4"})
	p.publish()

	sent := mt.Sent()
	if sent[0].(NotesMessage).Notes[0] != "C4" {
		t.Error("earlier message was overwritten by a later poll")
	}
}

type failingTransport struct{ utils.MockTransport }

func (f *failingTransport) Send(any) error { return errors.New("unreachable") }

func TestPublisherContinuesPastFailingTransport(t *testing.T) {
	box := analysis.NewMailbox(8)
	ok := &utils.MockTransport{}
	p := newTestPublisher(t, box, &failingTransport{}, ok)

	box.Publish([]string{"E4"})
	p.publish()
	if ok.Count() != 1 {
		t.Errorf("healthy transport got %d messages", ok.Count())
	}
}

func TestPublisherStartStop(t *testing.T) {
	box := analysis.NewMailbox(8)
	mt := &utils.MockTransport{}
	p := newTestPublisher(t, box, mt)

	p.Start()
	p.Start() // No-op.
	box.Publish([]string{"G4"})

	deadline := time.Now().Add(2 * time.Second)
	for mt.Count() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if mt.Count() == 0 {
		t.Fatal("running publisher never sent")
	}

	if err := p.Stop(); err != nil {
		t.Fatal(err)
	}
	if err := p.Stop(); err != nil {
		t.Fatal(err)
	}

	if err := p.Close(); err != nil {
		t.Fatal(err)
	}
	if err := mt.Send("late"); !errors.Is(err, utils.ErrMockClosed) {
		t.Error("Close did not close the transports")
	}
}
