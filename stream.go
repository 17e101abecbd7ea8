package netlink

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/blockcast/go-netlink/messages"
)

// PollState is the observable state of one stream poll.
type PollState uint8

const (
	// StatePending means no full message is available yet; poll again
	// once the driving loop decides the socket may be readable.
	StatePending PollState = iota
	// StateReady means Msg holds one decoded message.
	StateReady
	// StateClosed means the transport ended. Terminal: every later
	// poll reports it again.
	StateClosed
)

// PollResult is the outcome of one Stream.Poll.
type PollResult struct {
	State PollState
	// Msg is valid only when State is StateReady.
	Msg messages.Message
}

// defaultReadBuf matches the conventional page-sized receive buffer for
// this transport; datagrams larger than the buffer are truncated by the
// kernel, so callers expecting jumbo dumps should size up.
const defaultReadBuf = 4096

// Stream turns a non-blocking Sock into a lazily produced message
// sequence. It wraps exactly one socket for its lifetime and keeps no
// state beyond one in-flight read buffer and the undecoded remainder of
// the last read, so message boundaries survive batched and partial
// reads.
//
// A Stream must be the socket's only reader while in use; concurrent
// Receive on the same socket, or polling from multiple goroutines, is
// undefined. Releasing a Stream has no effect on the socket itself, but
// buffered partial input is lost with it.
type Stream struct {
	sock Sock
	rbuf []byte
	// rest holds undecoded bytes from the last read
	rest   []byte
	closed bool
}

// NewStream wraps sock. The socket must be put in non-blocking mode
// before polling; the mode is re-checked on every poll because it can
// change externally at any time.
func NewStream(sock Sock) *Stream {
	return NewStreamSize(sock, defaultReadBuf)
}

// NewStreamSize wraps sock with a receive buffer of size bytes.
func NewStreamSize(sock Sock, size int) *Stream {
	return &Stream{
		sock: sock,
		rbuf: make([]byte, size),
	}
}

// Poll attempts to produce the next message without blocking.
//
// Outcomes: StateReady with one decoded message; StatePending when the
// socket has no data or only part of a message so far; StateClosed once
// the transport has ended, permanently. A blocking-mode socket fails
// with ErrBlockingConn on every poll until the mode is corrected. A
// decode failure discards the rest of that read's buffer, since frame
// boundaries are unreliable past the bad message, and surfaces the
// error; the stream itself stays usable.
func (s *Stream) Poll() (PollResult, error) {
	if s.closed {
		return PollResult{State: StateClosed}, nil
	}
	if s.sock.IsBlocking() {
		return PollResult{State: StatePending}, ErrBlockingConn
	}

	if len(s.rest) == 0 {
		n, err := s.sock.Receive(s.rbuf)
		switch {
		case errors.Is(err, ErrWouldBlock):
			return PollResult{State: StatePending}, nil
		case errors.Is(err, ErrClosed):
			s.closed = true
			return PollResult{State: StateClosed}, nil
		case err != nil:
			return PollResult{State: StatePending}, err
		case n == 0:
			s.closed = true
			return PollResult{State: StateClosed}, nil
		}
		s.rest = s.rbuf[:n]
	}

	msg, rest, err := messages.Decode(s.rest)
	if err != nil {
		if errors.Is(err, messages.ErrTooShort) && !s.holdsWholeRead() {
			// Partial frame at the tail of a read: keep it and wait
			// for the remainder.
			return s.fill()
		}
		s.rest = nil
		return PollResult{State: StatePending}, fmt.Errorf("decoding message: %w", err)
	}
	s.rest = rest
	return PollResult{State: StateReady, Msg: msg}, nil
}

// holdsWholeRead reports whether rest still spans the full read buffer,
// in which case a short decode cannot be cured by reading more.
func (s *Stream) holdsWholeRead() bool {
	return len(s.rest) == len(s.rbuf)
}

// fill appends one more read to the buffered partial frame and retries
// the decode.
func (s *Stream) fill() (PollResult, error) {
	// Move the partial frame to the front of the read buffer so the
	// next read appends after it.
	kept := copy(s.rbuf, s.rest)
	n, err := s.sock.Receive(s.rbuf[kept:])
	switch {
	case errors.Is(err, ErrWouldBlock):
		s.rest = s.rbuf[:kept]
		return PollResult{State: StatePending}, nil
	case errors.Is(err, ErrClosed):
		s.closed = true
		return PollResult{State: StateClosed}, nil
	case err != nil:
		s.rest = s.rbuf[:kept]
		return PollResult{State: StatePending}, err
	case n == 0:
		s.closed = true
		return PollResult{State: StateClosed}, nil
	}
	s.rest = s.rbuf[:kept+n]

	msg, rest, err := messages.Decode(s.rest)
	if err != nil {
		if errors.Is(err, messages.ErrTooShort) && !s.holdsWholeRead() {
			return PollResult{State: StatePending}, nil
		}
		s.rest = nil
		return PollResult{State: StatePending}, fmt.Errorf("decoding message: %w", err)
	}
	s.rest = rest
	return PollResult{State: StateReady, Msg: msg}, nil
}

// Next polls until a message is ready, backing off exponentially while
// the stream is pending and honoring ctx cancellation. It is the
// reactor-free driver; event loops that can wait on the descriptor
// should call Poll directly instead. A closed stream fails with
// ErrClosed.
func (s *Stream) Next(ctx context.Context) (messages.Message, error) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = time.Millisecond
	bo.MaxInterval = 250 * time.Millisecond
	bo.MaxElapsedTime = 0
	bo.Reset()

	timer := time.NewTimer(0)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		res, err := s.Poll()
		if err != nil {
			return messages.Message{}, err
		}
		switch res.State {
		case StateReady:
			return res.Msg, nil
		case StateClosed:
			return messages.Message{}, ErrClosed
		}

		wait := bo.NextBackOff()
		if wait == backoff.Stop {
			wait = bo.MaxInterval
		}
		timer.Reset(wait)
		select {
		case <-ctx.Done():
			return messages.Message{}, ctx.Err()
		case <-timer.C:
		}
	}
}
