package messages

import (
	"encoding/binary"
	"fmt"
)

/*
	0                   1                   2                   3
	0 1 2 3 4 5 6 7 8 9 0 1 2 3 4 5 6 7 8 9 0 1 2 3 4 5 6 7 8 9 0 1

+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
|                            Length                             |
+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
|             Type              |             Flags             |
+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
|                           Sequence                            |
+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
|                            Port ID                            |
+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
|                     Payload (padded to 4)                     |
+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+

	struct nlmsghdr, linux/netlink.h
*/

// HeaderLen is the encoded size of a message header.
const HeaderLen = 16

// alignTo is the message and attribute alignment boundary.
const alignTo = 4

// Align rounds n up to the next alignment boundary.
func Align(n int) int {
	return (n + alignTo - 1) &^ (alignTo - 1)
}

// Fields are encoded in native byte order. The wire format is host-endian
// and not portable across architectures.
var endian = binary.NativeEndian

// Header is the fixed message header preceding every payload.
type Header struct {
	Len   uint32
	Type  uint16
	Flags uint16
	Seq   uint32
	PID   uint32
}

func (h *Header) MarshalBinary() (data []byte, err error) {
	b := make([]byte, HeaderLen)
	h.marshal(b)
	return b, nil
}

func (h *Header) marshal(b []byte) {
	endian.PutUint32(b[0:4], h.Len)
	endian.PutUint16(b[4:6], h.Type)
	endian.PutUint16(b[6:8], h.Flags)
	endian.PutUint32(b[8:12], h.Seq)
	endian.PutUint32(b[12:16], h.PID)
}

func (h *Header) UnmarshalBinary(data []byte) error {
	if len(data) < HeaderLen {
		return fmt.Errorf("%w: %d bytes for message header", ErrTooShort, len(data))
	}
	h.Len = endian.Uint32(data[0:4])
	h.Type = endian.Uint16(data[4:6])
	h.Flags = endian.Uint16(data[6:8])
	h.Seq = endian.Uint32(data[8:12])
	h.PID = endian.Uint32(data[12:16])
	return nil
}

// Message is one framed message: a header followed by an opaque payload.
// The payload of many message types is itself an attribute sequence; see
// ParseAttributes.
type Message struct {
	Header  Header
	Payload []byte
}

// NewMessage builds a message around payload. Len is computed at marshal
// time; Seq and PID are caller-supplied and passed through opaque.
func NewMessage(typ, flags uint16, seq, pid uint32, payload []byte) Message {
	return Message{
		Header: Header{
			Type:  typ,
			Flags: flags,
			Seq:   seq,
			PID:   pid,
		},
		Payload: payload,
	}
}

// MarshalBinary frames the message. Len covers the header and the
// unpadded payload; the returned buffer is padded to the alignment
// boundary so consecutive frames in one buffer stay individually
// addressable.
func (m *Message) MarshalBinary() (data []byte, err error) {
	total := HeaderLen + len(m.Payload)
	b := make([]byte, Align(total))
	m.Header.Len = uint32(total)
	m.Header.marshal(b)
	copy(b[HeaderLen:], m.Payload)
	return b, nil
}

// Decode reads one message from the front of data and returns the bytes
// remaining after it; batched multi-message reads are consumed by calling
// Decode repeatedly on the remainder. The decoded payload is copied out
// of data and does not alias the read buffer. A Len below the header size
// or beyond the buffer is a malformed-data error.
func Decode(data []byte) (Message, []byte, error) {
	var m Message
	if err := m.Header.UnmarshalBinary(data); err != nil {
		return Message{}, nil, err
	}
	total := int(m.Header.Len)
	if total < HeaderLen {
		return Message{}, nil, fmt.Errorf("message length %d below header size: %w", total, ErrMalformed)
	}
	if total > len(data) {
		return Message{}, nil, fmt.Errorf("%w: message length %d exceeds %d available", ErrTooShort, total, len(data))
	}
	m.Payload = append([]byte(nil), data[HeaderLen:total]...)
	next := Align(total)
	if next > len(data) {
		next = len(data)
	}
	return m, data[next:], nil
}

// DecodeAll decodes every message packed in data, in order.
func DecodeAll(data []byte) ([]Message, error) {
	var msgs []Message
	for len(data) > 0 {
		m, rest, err := Decode(data)
		if err != nil {
			return msgs, err
		}
		msgs = append(msgs, m)
		data = rest
	}
	return msgs, nil
}
