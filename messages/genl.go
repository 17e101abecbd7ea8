package messages

import "fmt"

/*
	0                   1                   2                   3
	0 1 2 3 4 5 6 7 8 9 0 1 2 3 4 5 6 7 8 9 0 1 2 3 4 5 6 7 8 9 0 1

+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
|      Cmd      |    Version    |           Reserved            |
+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
|                          Attributes                           |
+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+

	struct genlmsghdr, linux/genetlink.h
*/

// GenlHeaderLen is the encoded size of a generic netlink header.
const GenlHeaderLen = 4

// GenlHeader is the generic netlink family header carried at the front
// of a message payload.
type GenlHeader struct {
	Cmd     uint8
	Version uint8
	// 2 reserved bytes follow on the wire
}

func (h *GenlHeader) MarshalBinary() (data []byte, err error) {
	return []byte{h.Cmd, h.Version, 0, 0}, nil
}

func (h *GenlHeader) UnmarshalBinary(data []byte) error {
	if len(data) < GenlHeaderLen {
		return fmt.Errorf("%w: %d bytes for generic netlink header", ErrTooShort, len(data))
	}
	h.Cmd = data[0]
	h.Version = data[1]
	return nil
}

// GenlMessage is a generic netlink payload: family header plus an
// encoded attribute region. The region is kept in wire form and decoded
// on request via Attributes.
type GenlMessage struct {
	Header GenlHeader
	Data   []byte
}

// NewGenlMessage encodes attrs into a generic netlink payload body.
func NewGenlMessage(cmd, version uint8, attrs []Attribute) (GenlMessage, error) {
	data, err := MarshalAttributes(attrs)
	if err != nil {
		return GenlMessage{}, err
	}
	return GenlMessage{
		Header: GenlHeader{Cmd: cmd, Version: version},
		Data:   data,
	}, nil
}

// ParseGenlMessage splits a message payload into the generic netlink
// header and its raw attribute region. The region is copied out of
// payload.
func ParseGenlMessage(payload []byte) (GenlMessage, error) {
	var g GenlMessage
	if err := g.Header.UnmarshalBinary(payload); err != nil {
		return GenlMessage{}, err
	}
	g.Data = append([]byte(nil), payload[GenlHeaderLen:]...)
	return g, nil
}

// Attributes decodes the attribute region.
func (g *GenlMessage) Attributes() ([]Attribute, error) {
	return ParseAttributes(g.Data)
}

// MarshalBinary encodes the full payload body for embedding in a
// Message.
func (g *GenlMessage) MarshalBinary() (data []byte, err error) {
	hdr, err := g.Header.MarshalBinary()
	if err != nil {
		return nil, err
	}
	return append(hdr, g.Data...), nil
}
