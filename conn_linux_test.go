package netlink

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	"github.com/blockcast/go-netlink/messages"
)

func dialRoute(t *testing.T) *Conn {
	t.Helper()
	c, err := Dial(messages.FamilyRoute)
	if err != nil {
		t.Skipf("cannot open netlink socket: %v", err)
	}
	return c
}

func TestConnLifecycle(t *testing.T) {
	c := dialRoute(t)

	assert.True(t, c.IsBlocking())
	require.NoError(t, c.SetBlocking(false))
	assert.False(t, c.IsBlocking())
	require.NoError(t, c.SetBlocking(true))
	assert.True(t, c.IsBlocking())

	require.NoError(t, c.Bind(0))
	assert.NotZero(t, c.PID(), "kernel should assign a port id for pid 0")
	assert.ErrorIs(t, c.Bind(0), ErrAlreadyBound)

	require.NoError(t, c.Close())
	assert.ErrorIs(t, c.Close(), ErrClosed)
	assert.ErrorIs(t, c.Bind(0), ErrClosed)
	assert.ErrorIs(t, c.SetBlocking(false), ErrClosed)
	_, err := c.Receive(make([]byte, 16))
	assert.ErrorIs(t, err, ErrClosed)
}

func TestConnReceiveWouldBlock(t *testing.T) {
	c := dialRoute(t)
	defer c.Close()

	require.NoError(t, c.Bind(0))
	require.NoError(t, c.SetBlocking(false))

	_, err := c.Receive(make([]byte, 4096))
	assert.ErrorIs(t, err, ErrWouldBlock)
}

// TestConnDumpStream drives the full path: send a link dump request and
// stream the reply until the terminating done message.
func TestConnDumpStream(t *testing.T) {
	c := dialRoute(t)
	defer c.Close()

	require.NoError(t, c.Bind(0))
	require.NoError(t, c.SetBlocking(false))

	// struct ifinfomsg, zeroed: dump every link.
	req := messages.NewMessage(
		unix.RTM_GETLINK,
		messages.FlagRequest|messages.FlagDump,
		1, c.PID(),
		make([]byte, unix.SizeofIfInfomsg),
	)
	require.NoError(t, c.SendMessage(&req))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s := NewStreamSize(c, 1<<16)
	var links int
	for {
		msg, err := s.Next(ctx)
		require.NoError(t, err)
		if msg.Header.Type == messages.TypeDone {
			break
		}
		if msg.Header.Type == messages.TypeError {
			e, err := messages.ParseError(msg.Payload)
			require.NoError(t, err)
			t.Fatalf("dump request failed: %v", e.Err())
		}
		require.Equal(t, uint16(unix.RTM_NEWLINK), msg.Header.Type)
		links++
	}
	assert.Greater(t, links, 0, "expected at least the loopback link")
}
