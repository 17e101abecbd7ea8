package messages_test

import (
	"bytes"
	"encoding/binary"
	"errors"
	"reflect"
	"testing"

	"github.com/blockcast/go-netlink/messages"
)

func TestEncodeMessage(t *testing.T) {
	msg := messages.NewMessage(messages.TypeMinProtocol, messages.FlagRequest, 7, 99, []byte{1, 2, 3, 4})
	encoded, err := msg.MarshalBinary()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(encoded) != messages.HeaderLen+4 {
		t.Errorf("unexpected encoded length: got %d, want %d", len(encoded), messages.HeaderLen+4)
	}

	want := make([]byte, 0, messages.HeaderLen+4)
	want = binary.NativeEndian.AppendUint32(want, uint32(messages.HeaderLen+4))
	want = binary.NativeEndian.AppendUint16(want, messages.TypeMinProtocol)
	want = binary.NativeEndian.AppendUint16(want, messages.FlagRequest)
	want = binary.NativeEndian.AppendUint32(want, 7)
	want = binary.NativeEndian.AppendUint32(want, 99)
	want = append(want, 1, 2, 3, 4)
	if !bytes.Equal(encoded, want) {
		t.Errorf("encoded message does not match expected:\ngot  %v\nwant %v", encoded, want)
	}
}

func TestEncodeMessagePadding(t *testing.T) {
	for payloadLen := 0; payloadLen < 9; payloadLen++ {
		msg := messages.NewMessage(messages.TypeMinProtocol, 0, 0, 0, make([]byte, payloadLen))
		encoded, err := msg.MarshalBinary()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := messages.Align(messages.HeaderLen + payloadLen)
		if len(encoded) != want {
			t.Errorf("payload %d: encoded length %d, want %d", payloadLen, len(encoded), want)
		}
		if msg.Header.Len != uint32(messages.HeaderLen+payloadLen) {
			t.Errorf("payload %d: header length %d, want %d", payloadLen, msg.Header.Len, messages.HeaderLen+payloadLen)
		}
	}
}

func TestDecodeMessageRoundTrip(t *testing.T) {
	original := messages.NewMessage(0x11, messages.FlagRequest|messages.FlagAck, 42, 1234, []byte{9, 8, 7, 6, 5})
	encoded, err := original.MarshalBinary()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	decoded, rest, err := messages.Decode(encoded)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rest) != 0 {
		t.Errorf("unexpected remainder of %d bytes", len(rest))
	}
	if !reflect.DeepEqual(decoded, original) {
		t.Errorf("decoded message does not match expected: got %+v, want %+v", decoded, original)
	}
}

func TestDecodeMessageBatch(t *testing.T) {
	var buf []byte
	var want []messages.Message
	for i := 0; i < 3; i++ {
		msg := messages.NewMessage(uint16(0x10+i), 0, uint32(i), 0, bytes.Repeat([]byte{byte(i)}, i+3))
		encoded, err := msg.MarshalBinary()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		buf = append(buf, encoded...)
		want = append(want, msg)
	}

	got, err := messages.DecodeAll(buf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("decoded batch does not match expected:\ngot  %+v\nwant %+v", got, want)
	}
}

func TestDecodeMessageTruncated(t *testing.T) {
	msg := messages.NewMessage(0x10, 0, 0, 0, []byte{1, 2, 3, 4, 5, 6, 7, 8})
	encoded, err := msg.MarshalBinary()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for cut := 1; cut < len(encoded); cut++ {
		if _, _, err := messages.Decode(encoded[:len(encoded)-cut]); err == nil {
			t.Errorf("expected error decoding buffer truncated by %d bytes, got nil", cut)
		}
	}
}

func TestDecodeMessageLengthBelowHeader(t *testing.T) {
	b := make([]byte, messages.HeaderLen)
	binary.NativeEndian.PutUint32(b, messages.HeaderLen-1)
	if _, _, err := messages.Decode(b); !errors.Is(err, messages.ErrMalformed) {
		t.Errorf("expected ErrMalformed, got %v", err)
	}
}

func TestDecodePayloadDoesNotAliasInput(t *testing.T) {
	msg := messages.NewMessage(0x10, 0, 0, 0, []byte{1, 2, 3, 4})
	encoded, err := msg.MarshalBinary()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	decoded, _, err := messages.Decode(encoded)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	encoded[messages.HeaderLen] = 0xff
	if decoded.Payload[0] != 1 {
		t.Errorf("decoded payload aliases the input buffer")
	}
}
