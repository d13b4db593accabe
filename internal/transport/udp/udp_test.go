// SPDX-License-Identifier: MIT
package udp

import (
	"errors"
	"net"
	"slices"
	"strings"
	"testing"
	"time"

	"chords/internal/transport"
)

func listen(t *testing.T) *net.UDPConn {
	t.Helper()
	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	if err != nil {
		t.Fatalf("ListenUDP: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func receive(t *testing.T, conn *net.UDPConn) []byte {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	buf := make([]byte, 2048)
	n, _, err := conn.ReadFromUDP(buf)
	if err != nil {
		t.Fatalf("ReadFromUDP: %v", err)
	}
	return buf[:n]
}

func TestPacketLayout(t *testing.T) {
	b, err := AppendPacket(nil, Packet{Sequence: 0x01020304, Timestamp: 5, Notes: []string{"A4", "C#5"}})
	if err != nil {
		t.Fatal(err)
	}
	want := []byte{
		1, 2, 3, 4, // Sequence
		0, 0, 0, 0, 0, 0, 0, 5, // Timestamp
		0, 2, // Count
		2, 'A', '4',
		3, 'C', '#', '5',
	}
	if !slices.Equal(b, want) {
		t.Errorf("packet = %v, want %v", b, want)
	}

	p, err := ParsePacket(b)
	if err != nil {
		t.Fatal(err)
	}
	if p.Sequence != 0x01020304 || p.Timestamp != 5 || !slices.Equal(p.Notes, []string{"A4", "C#5"}) {
		t.Errorf("parsed %+v", p)
	}
}

func TestPacketEmptyNotes(t *testing.T) {
	b, _ := AppendPacket(nil, Packet{Sequence: 1})
	if len(b) != headerSize {
		t.Fatalf("empty packet has %d bytes, want %d", len(b), headerSize)
	}
	p, err := ParsePacket(b)
	if err != nil || len(p.Notes) != 0 {
		t.Errorf("ParsePacket = %+v, %v", p, err)
	}
}

func TestParsePacketTruncated(t *testing.T) {
	full, _ := AppendPacket(nil, Packet{Notes: []string{"G#3"}})
	for _, n := range []int{0, 5, headerSize, headerSize + 2} {
		if _, err := ParsePacket(full[:n]); !errors.Is(err, ErrShortPacket) {
			t.Errorf("ParsePacket(%d bytes): got %v, want ErrShortPacket", n, err)
		}
	}
}

func TestAppendPacketRejectsLongName(t *testing.T) {
	if _, err := AppendPacket(nil, Packet{Notes: []string{strings.Repeat("x", 300)}}); err == nil {
		t.Error("expected an error for a 300-byte name")
	}
}

func TestTransportSendsNotes(t *testing.T) {
	server := listen(t)
	tr, err := NewTransport(server.LocalAddr().String())
	if err != nil {
		t.Fatalf("NewTransport: %v", err)
	}
	defer tr.Close()

	msg := transport.NewNotesMessage(12, time.Unix(0, 99), []string{"E2", "B2"})
	if err := tr.Send(msg); err != nil {
		t.Fatalf("Send: %v", err)
	}

	p, err := ParsePacket(receive(t, server))
	if err != nil {
		t.Fatal(err)
	}
	if p.Sequence != 12 || p.Timestamp != 99 || !slices.Equal(p.Notes, []string{"E2", "B2"}) {
		t.Errorf("received %+v", p)
	}

	if err := tr.Send("not a message"); err == nil {
		t.Error("expected an error for an unsupported payload")
	}
}

func TestSenderClose(t *testing.T) {
	server := listen(t)
	s, err := NewUDPSender(server.LocalAddr().String())
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Send([]byte("ping")); err != nil {
		t.Fatal(err)
	}
	if got := string(receive(t, server)); got != "ping" {
		t.Errorf("received %q", got)
	}
	if packets, n := s.Stats(); packets != 1 || n != 4 {
		t.Errorf("Stats() = %d packets, %d bytes; want 1, 4", packets, n)
	}
	if s.RemoteAddr().String() != server.LocalAddr().String() {
		t.Errorf("RemoteAddr() = %s, want %s", s.RemoteAddr(), server.LocalAddr())
	}

	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
	if err := s.Send([]byte("late")); !errors.Is(err, ErrSenderClosed) {
		t.Errorf("Send after Close: got %v, want ErrSenderClosed", err)
	}
}

func TestNewUDPSenderBadAddress(t *testing.T) {
	if _, err := NewUDPSender("no-port"); err == nil {
		t.Error("expected a resolve error")
	}
}
