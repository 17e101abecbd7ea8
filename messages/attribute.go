package messages

import "fmt"

/*
	0                   1                   2                   3
	0 1 2 3 4 5 6 7 8 9 0 1 2 3 4 5 6 7 8 9 0 1 2 3 4 5 6 7 8 9 0 1

+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
|            Length             |             Type              |
+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
|                     Payload (padded to 4)                     |
+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+

	struct nlattr, linux/netlink.h. Length covers the 4-byte header
	plus the payload, excluding trailing padding.
*/

// AttrHeaderLen is the encoded size of an attribute header.
const AttrHeaderLen = 4

// Attribute type field flag and mask bits.
const (
	NestedFlag    = 0x8000
	ByteOrderFlag = 0x4000
	TypeMask      = 0x3fff
)

// Attribute is one type-length-value entry of a message payload. Typ
// carries the raw on-wire type field including flag bits; Data is the
// payload, which for container attributes is itself an encoded
// attribute sequence decoded on request via Nested.
type Attribute struct {
	Typ  uint16
	Data []byte
}

// AttrType returns the type field with the flag bits masked off.
func (a *Attribute) AttrType() uint16 {
	return a.Typ & TypeMask
}

// IsNested reports whether the container flag bit is set.
func (a *Attribute) IsNested() bool {
	return a.Typ&NestedFlag != 0
}

// Nested decodes the payload as a child attribute sequence. Nesting is
// not followed eagerly at parse time; each level is decoded on request,
// so depth is bounded by the enclosing payload length.
func (a *Attribute) Nested() ([]Attribute, error) {
	return ParseAttributes(a.Data)
}

// MarshalBinary encodes the attribute with its trailing padding.
func (a *Attribute) MarshalBinary() (data []byte, err error) {
	total := AttrHeaderLen + len(a.Data)
	if total > 0xffff {
		return nil, fmt.Errorf("attribute payload of %d bytes does not fit length field", len(a.Data))
	}
	b := make([]byte, Align(total))
	endian.PutUint16(b[0:2], uint16(total))
	endian.PutUint16(b[2:4], a.Typ)
	copy(b[AttrHeaderLen:], a.Data)
	return b, nil
}

// MarshalAttributes encodes an ordered attribute sequence, padding each
// entry to the alignment boundary before the next begins.
func MarshalAttributes(attrs []Attribute) ([]byte, error) {
	var n int
	for i := range attrs {
		n += Align(AttrHeaderLen + len(attrs[i].Data))
	}
	b := make([]byte, 0, n)
	for i := range attrs {
		enc, err := attrs[i].MarshalBinary()
		if err != nil {
			return nil, err
		}
		b = append(b, enc...)
	}
	return b, nil
}

// NewNested builds a container attribute holding the given child
// sequence, with the container flag bit set.
func NewNested(typ uint16, children []Attribute) (Attribute, error) {
	data, err := MarshalAttributes(children)
	if err != nil {
		return Attribute{}, err
	}
	return Attribute{Typ: typ | NestedFlag, Data: data}, nil
}

// ParseAttributes walks the attribute sequence filling data, consuming
// the whole buffer. Each entry's declared length is validated against
// the remaining bytes before any payload access; an attribute that
// would overrun the buffer is a malformed-data error, never a
// truncation. Payloads are copied out; they do not alias data.
func ParseAttributes(data []byte) ([]Attribute, error) {
	var attrs []Attribute
	for len(data) > 0 {
		if len(data) < AttrHeaderLen {
			return nil, fmt.Errorf("%w: %d leftover attribute bytes", ErrMalformed, len(data))
		}
		alen := int(endian.Uint16(data[0:2]))
		if alen < AttrHeaderLen {
			return nil, fmt.Errorf("attribute length %d below header size: %w", alen, ErrMalformed)
		}
		if alen > len(data) {
			return nil, fmt.Errorf("attribute length %d exceeds %d remaining: %w", alen, len(data), ErrMalformed)
		}
		attrs = append(attrs, Attribute{
			Typ:  endian.Uint16(data[2:4]),
			Data: append([]byte(nil), data[AttrHeaderLen:alen]...),
		})
		next := Align(alen)
		if next > len(data) {
			next = len(data)
		}
		data = data[next:]
	}
	return attrs, nil
}

// Typed extraction. Interpretation is explicit and size-checked: the
// payload length must equal the fixed size of the requested type.

func (a *Attribute) Uint8() (uint8, error) {
	if len(a.Data) != 1 {
		return 0, fmt.Errorf("%w: uint8 wants 1 byte, have %d", ErrTypeMismatch, len(a.Data))
	}
	return a.Data[0], nil
}

func (a *Attribute) Uint16() (uint16, error) {
	if len(a.Data) != 2 {
		return 0, fmt.Errorf("%w: uint16 wants 2 bytes, have %d", ErrTypeMismatch, len(a.Data))
	}
	return endian.Uint16(a.Data), nil
}

func (a *Attribute) Uint32() (uint32, error) {
	if len(a.Data) != 4 {
		return 0, fmt.Errorf("%w: uint32 wants 4 bytes, have %d", ErrTypeMismatch, len(a.Data))
	}
	return endian.Uint32(a.Data), nil
}

func (a *Attribute) Uint64() (uint64, error) {
	if len(a.Data) != 8 {
		return 0, fmt.Errorf("%w: uint64 wants 8 bytes, have %d", ErrTypeMismatch, len(a.Data))
	}
	return endian.Uint64(a.Data), nil
}

// StringValue interprets the payload as a NUL-terminated string.
func (a *Attribute) StringValue() (string, error) {
	if len(a.Data) == 0 || a.Data[len(a.Data)-1] != 0 {
		return "", fmt.Errorf("%w: string payload is not NUL-terminated", ErrTypeMismatch)
	}
	return string(a.Data[:len(a.Data)-1]), nil
}

// Bytes returns the raw payload.
func (a *Attribute) Bytes() []byte {
	return a.Data
}

// NewUint32 builds a fixed-width uint32 attribute.
func NewUint32(typ uint16, v uint32) Attribute {
	b := make([]byte, 4)
	endian.PutUint32(b, v)
	return Attribute{Typ: typ, Data: b}
}

// NewUint16 builds a fixed-width uint16 attribute.
func NewUint16(typ uint16, v uint16) Attribute {
	b := make([]byte, 2)
	endian.PutUint16(b, v)
	return Attribute{Typ: typ, Data: b}
}

// NewString builds a NUL-terminated string attribute.
func NewString(typ uint16, s string) Attribute {
	b := make([]byte, len(s)+1)
	copy(b, s)
	return Attribute{Typ: typ, Data: b}
}
