// SPDX-License-Identifier: MIT
package udp

import (
	"fmt"

	"chords/internal/transport"
)

// Transport adapts a UDPSender to transport.Transport, encoding each
// NotesMessage as a binary notes packet.
type Transport struct {
	sender *UDPSender
	buf    []byte
}

// NewTransport dials targetAddress and returns a ready Transport.
func NewTransport(targetAddress string) (*Transport, error) {
	sender, err := NewUDPSender(targetAddress)
	if err != nil {
		return nil, err
	}
	return &Transport{sender: sender, buf: make([]byte, 0, 512)}, nil
}

// Send encodes and transmits a transport.NotesMessage. Other types are
// rejected. Send is called from the publisher goroutine only.
func (t *Transport) Send(data any) error {
	var msg transport.NotesMessage
	switch v := data.(type) {
	case transport.NotesMessage:
		msg = v
	case *transport.NotesMessage:
		msg = *v
	default:
		return fmt.Errorf("udp: unsupported payload %T", data)
	}

	var err error
	t.buf, err = AppendPacket(t.buf[:0], Packet{
		Sequence:  uint32(msg.Sequence),
		Timestamp: msg.Timestamp,
		Notes:     msg.Notes,
	})
	if err != nil {
		return err
	}
	return t.sender.Send(t.buf)
}

// Close closes the underlying sender.
func (t *Transport) Close() error {
	return t.sender.Close()
}

var _ transport.Transport = (*Transport)(nil)
