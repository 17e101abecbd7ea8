// Package netlink provides user-space access to netlink-style message
// buses: sockets bound to a numeric port id and a multicast-group
// bitmask, carrying length-framed messages with nested type-length-value
// attribute payloads (see the messages subpackage).
//
// A Conn owns one socket descriptor. A Stream wraps a non-blocking Conn
// and turns it into a pull-based message sequence via Poll, reporting
// Pending instead of blocking when no data is ready, so any event loop
// can drive it.
package netlink

import "errors"

var (
	// ErrWouldBlock reports a receive on a non-blocking socket with no
	// data ready. Transient; retry later.
	ErrWouldBlock = errors.New("netlink: receive would block")

	// ErrAlreadyBound reports a second Bind on the same connection.
	ErrAlreadyBound = errors.New("netlink: connection already bound")

	// ErrClosed reports use of a connection after Close, or the end of
	// a stream.
	ErrClosed = errors.New("netlink: connection closed")

	// ErrBlockingConn reports an attempt to stream over a connection in
	// blocking mode. The stream re-checks the mode on every poll, so
	// the error clears once the mode is corrected.
	ErrBlockingConn = errors.New("netlink: connection must be non-blocking to stream")
)

// Sock is the socket surface the stream engine consumes. *Conn
// implements it; tests and alternative transports can substitute their
// own.
type Sock interface {
	// Receive reads into p. On a non-blocking socket with no data
	// ready it fails with ErrWouldBlock.
	Receive(p []byte) (int, error)
	// Send writes p.
	Send(p []byte) (int, error)
	// IsBlocking reports the current blocking mode. It is locally
	// tracked state, not re-derived per call.
	IsBlocking() bool
	// SetBlocking toggles the blocking mode.
	SetBlocking(block bool) error
	// Close releases the underlying resource exactly once.
	Close() error
}

// GroupsMask folds logical multicast group identifiers into the
// bind-time bitmask: group id n sets bit n. Ids of 32 and above do not
// fit the mask and must be joined via Conn.JoinGroup after binding.
func GroupsMask(groups ...uint32) uint32 {
	var mask uint32
	for _, g := range groups {
		if g < 32 {
			mask |= 1 << g
		}
	}
	return mask
}
