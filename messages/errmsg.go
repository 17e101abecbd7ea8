package messages

import (
	"fmt"
	"syscall"
)

// ErrorMessageLen is the minimum payload size of a TypeError message:
// a signed 32-bit code followed by the header of the failed request.
const ErrorMessageLen = 4 + HeaderLen

// ErrorMessage is the payload of a TypeError message. A zero Code is a
// positive acknowledgment; a negative Code is the errno the request
// failed with.
type ErrorMessage struct {
	Code    int32
	Request Header
}

// ParseError decodes the payload of a TypeError message.
func ParseError(payload []byte) (ErrorMessage, error) {
	if len(payload) < ErrorMessageLen {
		return ErrorMessage{}, fmt.Errorf("%w: %d bytes for error message", ErrTooShort, len(payload))
	}
	var e ErrorMessage
	e.Code = int32(endian.Uint32(payload[0:4]))
	if err := e.Request.UnmarshalBinary(payload[4:]); err != nil {
		return ErrorMessage{}, err
	}
	return e, nil
}

// IsAck reports whether this is an acknowledgment rather than a failure.
func (e *ErrorMessage) IsAck() bool {
	return e.Code == 0
}

// Err returns the originating OS error, or nil for an acknowledgment.
func (e *ErrorMessage) Err() error {
	if e.Code == 0 {
		return nil
	}
	return syscall.Errno(-e.Code)
}
