package bluetooth

import (
	"fmt"
	"net"
	"sync"

	realbt "megster/btserial/pkg/bluetooth"
)

type inbound struct {
	conn net.Conn
	addr string
}

// MockListener is the in-memory counterpart of an RFCOMM service record.
type MockListener struct {
	name     string
	acceptCh chan inbound
	closeCh  chan struct{}
	once     sync.Once
}

// Accept implements bluetooth.Listener.
func (l *MockListener) Accept() (realbt.Socket, string, error) {
	select {
	case in := <-l.acceptCh:
		return in.conn, in.addr, nil
	case <-l.closeCh:
		return nil, "", fmt.Errorf("accept(%s): listener closed", l.name)
	}
}

// Close implements bluetooth.Listener. It unblocks a pending Accept and
// releases the service record for re-registration.
func (l *MockListener) Close() error {
	l.once.Do(func() {
		close(l.closeCh)
	})
	return nil
}

// Closed reports whether the listener has been closed.
func (l *MockListener) Closed() bool {
	select {
	case <-l.closeCh:
		return true
	default:
		return false
	}
}

// deliver hands an inbound connection to the accept loop and returns the
// remote end.
func (l *MockListener) deliver(addr string) (net.Conn, error) {
	select {
	case <-l.closeCh:
		return nil, fmt.Errorf("deliver(%s): listener closed", l.name)
	default:
	}

	local, remote := net.Pipe()

	select {
	case l.acceptCh <- inbound{conn: local, addr: addr}:
		return remote, nil
	case <-l.closeCh:
		local.Close()
		remote.Close()
		return nil, fmt.Errorf("deliver(%s): listener closed", l.name)
	}
}

var _ realbt.Listener = (*MockListener)(nil)
