package serial

import (
	"fmt"
	"sync"

	"megster/btserial/pkg/bluetooth"
	"megster/btserial/pkg/format"
	"megster/btserial/pkg/log"
)

// connector performs a single outbound connection attempt: one direct dial
// against the SPP service UUID, then one fallback dial on fixed channels.
// No backoff, no retry loop; repeated attempts are the caller's business.
type connector struct {
	svc    *Service
	addr   string
	secure bool

	mu        sync.Mutex
	cancelled bool
	dialer    bluetooth.Dialer
	sock      bluetooth.Socket
}

func newConnector(svc *Service, addr string, secure bool) *connector {
	return &connector{
		svc:    svc,
		addr:   addr,
		secure: secure,
	}
}

// run blocks until the attempt resolves. It must run on its own goroutine.
func (c *connector) run() {
	log.DebugMsg("Connecting to %s\n", format.Addr(c.addr, 0))

	// discovery monopolizes the radio and slows down connections
	if err := c.svc.adapter.CancelDiscovery(); err != nil {
		log.DebugMsg("CancelDiscovery(): %s\n", err)
	}

	sock, err := c.dial()
	if err != nil {
		if c.isCancelled() {
			return
		}
		log.ErrorMsg("Couldn't establish a Bluetooth connection to %s: %s\n", c.addr, err)
		c.svc.connectionFailed()
		return
	}

	c.mu.Lock()
	if c.cancelled {
		c.mu.Unlock()
		sock.Close()
		return
	}
	c.sock = sock
	c.mu.Unlock()

	name := c.svc.adapter.DeviceName(c.addr)
	c.svc.connected(sock, name, c)
}

func (c *connector) dial() (bluetooth.Socket, error) {
	sock, err := c.attempt(func() (bluetooth.Dialer, error) {
		return c.svc.adapter.Dialer(c.addr, bluetooth.UUIDSPP, c.secure)
	})
	if err == nil {
		return sock, nil
	}
	if c.isCancelled() {
		return nil, err
	}

	// some devices break the standard SPP handshake, try the raw channel
	// dial before giving up
	log.DebugMsg("Dial(%s): %s, trying fallback\n", c.addr, err)
	return c.attempt(func() (bluetooth.Dialer, error) {
		return c.svc.adapter.FallbackDialer(c.addr)
	})
}

// attempt registers the dialer before connecting, so cancel can abort the
// dial while it is still in flight.
func (c *connector) attempt(open func() (bluetooth.Dialer, error)) (bluetooth.Socket, error) {
	d, err := open()
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	if c.cancelled {
		c.mu.Unlock()
		d.Close()
		return nil, fmt.Errorf("connect(%s): attempt cancelled", c.addr)
	}
	c.dialer = d
	c.mu.Unlock()

	sock, err := d.Connect()

	c.mu.Lock()
	c.dialer = nil
	c.mu.Unlock()
	return sock, err
}

// cancel aborts the dial in flight and closes any socket the attempt has
// opened. A cancelled connector never reports success; connected re-checks
// the flag under the state lock.
func (c *connector) cancel() {
	c.mu.Lock()
	c.cancelled = true
	d := c.dialer
	sock := c.sock
	c.mu.Unlock()

	if d != nil {
		d.Close()
	}
	if sock != nil {
		sock.Close()
	}
}

func (c *connector) isCancelled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cancelled
}
