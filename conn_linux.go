package netlink

import (
	"fmt"
	"unsafe"

	"github.com/blockcast/go-netlink/messages"
	"go.uber.org/atomic"
	"golang.org/x/net/bpf"
	"golang.org/x/sys/unix"
)

// Conn owns one netlink socket descriptor. It is created in blocking
// mode. A Conn may be bound at most once; the multicast-group bitmask
// is fixed at bind time, with JoinGroup/LeaveGroup for membership
// changes afterwards.
//
// Conn is safe to close from any goroutine, but concurrent Receive
// calls, or direct Receive while a Stream is polling the same Conn, are
// the caller's responsibility to avoid.
type Conn struct {
	fd     int
	family int

	pid      atomic.Uint32
	blocking atomic.Bool
	bound    atomic.Bool
	closed   atomic.Bool
}

var _ Sock = (*Conn)(nil)

// Dial opens a socket for the given protocol family.
func Dial(family int) (*Conn, error) {
	fd, err := unix.Socket(unix.AF_NETLINK, unix.SOCK_RAW|unix.SOCK_CLOEXEC, family)
	if err != nil {
		return nil, fmt.Errorf("could not get socket: %w", err)
	}
	return NewConn(fd, family), nil
}

// NewConn adopts an existing socket descriptor. The descriptor is
// assumed to be in blocking mode; call SetBlocking if it is not.
func NewConn(fd, family int) *Conn {
	c := &Conn{fd: fd, family: family}
	c.blocking.Store(true)
	return c
}

// Family returns the protocol family the socket was opened with.
func (c *Conn) Family() int {
	return c.family
}

// PID returns the port id the socket is bound to. Zero until Bind has
// completed; after binding with pid 0 it reports the kernel-assigned
// id.
func (c *Conn) PID() uint32 {
	return c.pid.Load()
}

// Bind assigns the local address: a port id (0 lets the kernel pick)
// and the multicast groups to subscribe to. Group ids below 32 go into
// the legacy bind bitmask; larger ids are joined via setsockopt after
// the bind. Binding twice fails with ErrAlreadyBound.
func (c *Conn) Bind(pid uint32, groups ...uint32) error {
	if c.closed.Load() {
		return ErrClosed
	}
	if !c.bound.CompareAndSwap(false, true) {
		return ErrAlreadyBound
	}
	sa := &unix.SockaddrNetlink{
		Family: unix.AF_NETLINK,
		Pid:    pid,
		Groups: GroupsMask(groups...),
	}
	if err := unix.Bind(c.fd, sa); err != nil {
		c.bound.Store(false)
		return fmt.Errorf("could not bind socket: %w", err)
	}
	if lsa, err := unix.Getsockname(c.fd); err == nil {
		if nsa, ok := lsa.(*unix.SockaddrNetlink); ok {
			c.pid.Store(nsa.Pid)
		}
	}
	for _, g := range groups {
		if g >= 32 {
			if err := c.JoinGroup(g); err != nil {
				return err
			}
		}
	}
	return nil
}

// JoinGroup subscribes to one multicast group by id. Unlike the bind
// bitmask it is not limited to ids below 32.
func (c *Conn) JoinGroup(group uint32) error {
	if c.closed.Load() {
		return ErrClosed
	}
	if err := unix.SetsockoptInt(c.fd, unix.SOL_NETLINK, unix.NETLINK_ADD_MEMBERSHIP, int(group)); err != nil {
		return fmt.Errorf("could not join group %d: %w", group, err)
	}
	return nil
}

// LeaveGroup drops a multicast group subscription.
func (c *Conn) LeaveGroup(group uint32) error {
	if c.closed.Load() {
		return ErrClosed
	}
	if err := unix.SetsockoptInt(c.fd, unix.SOL_NETLINK, unix.NETLINK_DROP_MEMBERSHIP, int(group)); err != nil {
		return fmt.Errorf("could not leave group %d: %w", group, err)
	}
	return nil
}

// SetBPF attaches a classic BPF filter to the socket, limiting which
// messages the kernel delivers.
func (c *Conn) SetBPF(filter []bpf.RawInstruction) error {
	if c.closed.Load() {
		return ErrClosed
	}
	if len(filter) == 0 {
		return fmt.Errorf("empty bpf filter")
	}
	prog := unix.SockFprog{
		Len:    uint16(len(filter)),
		Filter: (*unix.SockFilter)(unsafe.Pointer(&filter[0])),
	}
	if err := unix.SetsockoptSockFprog(c.fd, unix.SOL_SOCKET, unix.SO_ATTACH_FILTER, &prog); err != nil {
		return fmt.Errorf("failed to set bpf: %w", err)
	}
	return nil
}

// SetBlocking toggles the descriptor's blocking mode. The mode is
// tracked locally and is the single source of truth consulted by
// IsBlocking and by every Stream poll.
func (c *Conn) SetBlocking(block bool) error {
	if c.closed.Load() {
		return ErrClosed
	}
	if err := unix.SetNonblock(c.fd, !block); err != nil {
		return fmt.Errorf("could not set blocking mode: %w", err)
	}
	c.blocking.Store(block)
	return nil
}

// IsBlocking reports the current blocking mode.
func (c *Conn) IsBlocking() bool {
	return c.blocking.Load()
}

// Send writes one encoded frame.
func (c *Conn) Send(p []byte) (int, error) {
	if c.closed.Load() {
		return 0, ErrClosed
	}
	n, err := unix.Write(c.fd, p)
	if err != nil {
		return 0, fmt.Errorf("error writing to socket: %w", err)
	}
	return n, nil
}

// SendMessage frames and sends a message, failing if the kernel accepts
// a short write.
func (c *Conn) SendMessage(m *messages.Message) error {
	b, err := m.MarshalBinary()
	if err != nil {
		return err
	}
	n, err := c.Send(b)
	if err != nil {
		return err
	}
	if n != len(b) {
		return fmt.Errorf("short write: %d of %d bytes", n, len(b))
	}
	return nil
}

// Receive reads one datagram into p. On a non-blocking socket with
// nothing ready it fails with ErrWouldBlock; every other failure is the
// originating OS error.
func (c *Conn) Receive(p []byte) (int, error) {
	if c.closed.Load() {
		return 0, ErrClosed
	}
	n, err := unix.Read(c.fd, p)
	if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
		return 0, ErrWouldBlock
	}
	if err != nil {
		return 0, fmt.Errorf("error reading from socket: %w", err)
	}
	return n, nil
}

// Close releases the descriptor. The release happens exactly once;
// later calls fail with ErrClosed without touching the descriptor.
func (c *Conn) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return ErrClosed
	}
	if err := unix.Close(c.fd); err != nil {
		return fmt.Errorf("error closing socket: %w", err)
	}
	return nil
}
