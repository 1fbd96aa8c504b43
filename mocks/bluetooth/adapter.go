// Package bluetooth provides a mock Bluetooth adapter for testing without
// real radios. Remote devices are registered up front and connections are
// in-memory pipes.
package bluetooth

import (
	"fmt"
	"net"
	"sync"

	"github.com/google/uuid"

	realbt "megster/btserial/pkg/bluetooth"
)

// MockAdapter implements bluetooth.Adapter against an in-memory network of
// registered mock devices.
type MockAdapter struct {
	mu               sync.Mutex
	devices          map[string]*MockDevice
	listeners        map[bool]*MockListener // keyed by secure flag
	discoveryCancels int
}

// NewMockAdapter creates an empty mock adapter.
func NewMockAdapter() *MockAdapter {
	return &MockAdapter{
		devices:   make(map[string]*MockDevice),
		listeners: make(map[bool]*MockListener),
	}
}

// AddDevice registers a remote device reachable at addr. The returned
// handle configures failure modes and hands out the peer ends of dialed
// connections.
func (m *MockAdapter) AddDevice(addr, name string) *MockDevice {
	m.mu.Lock()
	defer m.mu.Unlock()

	d := &MockDevice{
		addr:   addr,
		name:   name,
		connCh: make(chan net.Conn, 4),
	}
	m.devices[addr] = d
	return d
}

// DiscoveryCancels reports how often CancelDiscovery was called.
func (m *MockAdapter) DiscoveryCancels() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.discoveryCancels
}

// CancelDiscovery implements bluetooth.Adapter.
func (m *MockAdapter) CancelDiscovery() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.discoveryCancels++
	return nil
}

// Dialer implements bluetooth.Adapter. The attempt fails for devices
// configured with FailPrimary or FailAll, simulating a broken SPP
// handshake.
func (m *MockAdapter) Dialer(addr string, u uuid.UUID, secure bool) (realbt.Dialer, error) {
	return newMockDialer(m, addr, false), nil
}

// FallbackDialer implements bluetooth.Adapter. The attempt fails only for
// devices configured with FailAll.
func (m *MockAdapter) FallbackDialer(addr string) (realbt.Dialer, error) {
	return newMockDialer(m, addr, true), nil
}

// Listen implements bluetooth.Adapter. A closed listener no longer claims
// its service record, so a session can listen again after a Stop.
func (m *MockAdapter) Listen(name string, u uuid.UUID, secure bool) (realbt.Listener, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if prev, exists := m.listeners[secure]; exists && !prev.Closed() {
		return nil, fmt.Errorf("service record %s already registered", name)
	}

	l := &MockListener{
		name:     name,
		acceptCh: make(chan inbound, 4),
		closeCh:  make(chan struct{}),
	}
	m.listeners[secure] = l
	return l, nil
}

// DeviceName implements bluetooth.Adapter.
func (m *MockAdapter) DeviceName(addr string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d, ok := m.devices[addr]; ok {
		return d.name
	}
	return addr
}

// ConnectInbound simulates a remote device at addr dialing into the
// registered service record for the given security mode. It returns the
// remote end of the connection.
func (m *MockAdapter) ConnectInbound(addr string, secure bool) (net.Conn, error) {
	m.mu.Lock()
	l, exists := m.listeners[secure]
	m.mu.Unlock()

	if !exists {
		return nil, fmt.Errorf("no service record registered (secure=%v)", secure)
	}
	return l.deliver(addr)
}

func (m *MockAdapter) device(addr string) (*MockDevice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	d, exists := m.devices[addr]
	if !exists {
		return nil, fmt.Errorf("no device at %s", addr)
	}
	return d, nil
}

var _ realbt.Adapter = (*MockAdapter)(nil)
