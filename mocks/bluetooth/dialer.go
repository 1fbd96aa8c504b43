package bluetooth

import (
	"fmt"
	"sync"

	realbt "megster/btserial/pkg/bluetooth"
)

// MockDialer is a single outbound attempt against the mock network.
// Closing it unblocks a Connect held on the device's Hold gate, so tests
// can exercise cancellation of dials in flight.
type MockDialer struct {
	m        *MockAdapter
	addr     string
	fallback bool

	closeCh chan struct{}
	once    sync.Once
}

func newMockDialer(m *MockAdapter, addr string, fallback bool) *MockDialer {
	return &MockDialer{
		m:        m,
		addr:     addr,
		fallback: fallback,
		closeCh:  make(chan struct{}),
	}
}

// Connect implements bluetooth.Dialer.
func (d *MockDialer) Connect() (realbt.Socket, error) {
	dev, err := d.m.device(d.addr)
	if err != nil {
		return nil, err
	}

	if dev.Hold != nil {
		select {
		case <-dev.Hold:
		case <-d.closeCh:
			return nil, fmt.Errorf("connect(%s): attempt aborted", d.addr)
		}
	}
	select {
	case <-d.closeCh:
		return nil, fmt.Errorf("connect(%s): attempt aborted", d.addr)
	default:
	}

	if dev.FailAll || (!d.fallback && dev.FailPrimary) {
		return nil, fmt.Errorf("%w: %s: connection refused", realbt.ErrConnectFailed, d.addr)
	}
	return dev.establish()
}

// Close implements bluetooth.Dialer.
func (d *MockDialer) Close() error {
	d.once.Do(func() {
		close(d.closeCh)
	})
	return nil
}

var _ realbt.Dialer = (*MockDialer)(nil)
