// SPDX-License-Identifier: MIT
package udp

import (
	"encoding/binary"
	"errors"
	"fmt"
)

/*
Notes packet (BigEndian):

	+-----------------+-----------+------------+--------------------------------+
	| Sequence Number | Timestamp | Note Count | Notes                          |
	| uint32          | int64     | uint16     | Count × (uint8 length, bytes)  |
	+-----------------+-----------+------------+--------------------------------+

The sequence number is the low 32 bits of the pass sequence. The timestamp
is Unix nanoseconds. Note names are ASCII, at most 255 bytes each.
*/

const headerSize = 4 + 8 + 2

// ErrShortPacket is returned when a packet ends before its declared content.
var ErrShortPacket = errors.New("udp: packet too short")

// Packet is the decoded form of a notes packet.
type Packet struct {
	Sequence  uint32
	Timestamp int64
	Notes     []string
}

// AppendPacket appends the encoding of p to dst and returns the extended
// slice.
func AppendPacket(dst []byte, p Packet) ([]byte, error) {
	if len(p.Notes) > 0xFFFF {
		return dst, fmt.Errorf("udp: too many notes (%d)", len(p.Notes))
	}
	dst = binary.BigEndian.AppendUint32(dst, p.Sequence)
	dst = binary.BigEndian.AppendUint64(dst, uint64(p.Timestamp))
	dst = binary.BigEndian.AppendUint16(dst, uint16(len(p.Notes)))
	for _, name := range p.Notes {
		if len(name) > 0xFF {
			return dst, fmt.Errorf("udp: note name too long (%d bytes)", len(name))
		}
		dst = append(dst, byte(len(name)))
		dst = append(dst, name...)
	}
	return dst, nil
}

// ParsePacket decodes a notes packet.
func ParsePacket(b []byte) (Packet, error) {
	if len(b) < headerSize {
		return Packet{}, ErrShortPacket
	}
	p := Packet{
		Sequence:  binary.BigEndian.Uint32(b[0:4]),
		Timestamp: int64(binary.BigEndian.Uint64(b[4:12])),
	}
	count := int(binary.BigEndian.Uint16(b[12:14]))
	b = b[headerSize:]

	p.Notes = make([]string, 0, count)
	for range count {
		if len(b) < 1 {
			return Packet{}, ErrShortPacket
		}
		n := int(b[0])
		if len(b) < 1+n {
			return Packet{}, ErrShortPacket
		}
		p.Notes = append(p.Notes, string(b[1:1+n]))
		b = b[1+n:]
	}
	return p, nil
}
