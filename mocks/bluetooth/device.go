package bluetooth

import (
	"fmt"
	"net"
	"time"
)

// MockDevice is a registered remote device. Dialing it creates a pipe; the
// local end goes to the dialer and the remote end is queued for the test to
// collect via NextConn.
type MockDevice struct {
	addr string
	name string

	// FailPrimary makes the standard UUID dial fail while the fallback
	// channel dial still works, simulating a device with a broken SPP
	// handshake.
	FailPrimary bool

	// FailAll makes every dial fail.
	FailAll bool

	// Hold, when set, delays dial completion until the channel is closed.
	// Lets tests interleave a second Connect while the first is in flight.
	Hold chan struct{}

	connCh chan net.Conn
}

func (d *MockDevice) establish() (net.Conn, error) {
	local, remote := net.Pipe()

	select {
	case d.connCh <- remote:
		return local, nil
	default:
		local.Close()
		remote.Close()
		return nil, fmt.Errorf("device %s has too many pending connections", d.addr)
	}
}

// NextConn returns the remote end of the next established connection,
// failing after the timeout.
func (d *MockDevice) NextConn(timeout time.Duration) (net.Conn, error) {
	select {
	case conn := <-d.connCh:
		return conn, nil
	case <-time.After(timeout):
		return nil, fmt.Errorf("no connection to %s within %s", d.addr, timeout)
	}
}
