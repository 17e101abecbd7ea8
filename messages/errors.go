package messages

import "errors"

var (
	// ErrMalformed reports a length field inconsistent with the buffer
	// it was decoded from. Decoding fails fast; nothing past the
	// declared bounds is ever read.
	ErrMalformed = errors.New("malformed message data")

	// ErrTooShort reports a buffer ending before the declared length.
	// Callers that accumulate partial reads may treat it as "need more
	// bytes"; for a complete buffer it is a malformed-data failure.
	ErrTooShort = errors.New("message data too short")

	// ErrTypeMismatch reports a typed attribute extraction whose
	// payload size does not match the requested type.
	ErrTypeMismatch = errors.New("attribute payload size mismatch")
)
