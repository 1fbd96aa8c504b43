// Package serial implements the Bluetooth serial connection engine: a state
// machine coordinating one outbound connector, two inbound acceptors
// (secure and insecure) and the single active transport.
//
// The structure follows the classic one-goroutine-per-blocking-call model:
// connect, accept and read each run off the caller's goroutine and report
// back through the Service, which serializes all bookkeeping under one
// lock. Cancellation is cooperative, by closing the underlying socket.
package serial

import (
	"fmt"
	"sync"

	"megster/btserial/pkg/bluetooth"
	"megster/btserial/pkg/escpos"
	"megster/btserial/pkg/log"
)

// Service owns the connection state and the four worker slots. It is the
// only writer of those slots; workers report in through connected,
// connectionFailed and connectionLost.
type Service struct {
	adapter bluetooth.Adapter
	sink    EventSink

	mu             sync.Mutex
	state          State
	conn           *connector
	trans          *transport
	acceptSecure   *acceptor
	acceptInsecure *acceptor
}

// New creates a Service for one Bluetooth serial session. Events are
// delivered to sink.
func New(adapter bluetooth.Adapter, sink EventSink) *Service {
	return &Service{
		adapter: adapter,
		sink:    sink,
		state:   StateNone,
	}
}

// State returns the current connection state.
func (s *Service) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// setState must be called with the lock held.
func (s *Service) setState(state State) {
	log.DebugMsg("state %s -> %s\n", s.state, state)
	s.state = state
	s.sink.StateChanged(state)
}

// Start resets the session to an idle state, cancelling any outstanding
// connection attempt and any active transport.
//
// Inbound listening is deliberately not started here: serial peripherals
// like printers and Arduinos expect the host to initiate the connection.
// Use Listen for the inbound use case.
func (s *Service) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cancelConnectorLocked()
	s.cancelTransportLocked()

	s.setState(StateNone)
}

// Listen registers the secure and insecure service records and starts
// accepting inbound connections.
func (s *Service) Listen() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cancelConnectorLocked()
	s.cancelTransportLocked()

	if s.acceptSecure == nil {
		if a, err := newAcceptor(s, true); err != nil {
			log.ErrorMsg("Listening (secure): %s\n", err)
		} else {
			s.acceptSecure = a
			go a.run()
		}
	}
	if s.acceptInsecure == nil {
		if a, err := newAcceptor(s, false); err != nil {
			log.ErrorMsg("Listening (insecure): %s\n", err)
		} else {
			s.acceptInsecure = a
			go a.run()
		}
	}

	s.setState(StateListening)
}

// Connect starts an outbound connection attempt to the device at addr. Any
// attempt already in flight is cancelled first; only one connector may be
// outstanding.
func (s *Service) Connect(addr string, secure bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateConnecting {
		s.cancelConnectorLocked()
	}
	s.cancelTransportLocked()

	c := newConnector(s, addr, secure)
	s.conn = c
	go c.run()

	s.setState(StateConnecting)
}

// Stop cancels every worker and returns the session to idle.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cancelConnectorLocked()
	s.cancelTransportLocked()
	s.cancelAcceptorsLocked()

	s.setState(StateNone)
}

// Write sends p over the active transport. A no-op unless connected. The
// transport reference is snapshotted under the lock but the blocking write
// happens outside it, so writes never stall state transitions.
func (s *Service) Write(p []byte) {
	s.mu.Lock()
	if s.state != StateConnected {
		s.mu.Unlock()
		return
	}
	t := s.trans
	s.mu.Unlock()

	t.write(p)
}

// SendImage rasterizes a base64-encoded bitmap into printer command bytes
// and sends them over the active transport. Malformed input fails the call
// without touching connection state; a write failure mid-stream is
// returned so callers don't mistake a dead printer for a finished job.
func (s *Service) SendImage(data string) error {
	img, err := escpos.DecodeImage(data)
	if err != nil {
		return fmt.Errorf("escpos.DecodeImage(): %s", err)
	}
	stream := escpos.Rasterize(escpos.NewPixelGrid(img))

	s.mu.Lock()
	if s.state != StateConnected {
		s.mu.Unlock()
		return nil
	}
	t := s.trans
	s.mu.Unlock()

	return t.writeAll(stream)
}

// connected installs sock as the active transport. from is the connector
// reporting success, or nil when the socket came from an acceptor.
func (s *Service) connected(sock bluetooth.Socket, name string, from *connector) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connectedLocked(sock, name, from)
}

func (s *Service) connectedLocked(sock bluetooth.Socket, name string, from *connector) {
	if from != nil && from.isCancelled() {
		// a superseding Connect or Stop won the race, this socket loses
		sock.Close()
		return
	}
	if s.conn == from {
		s.conn = nil
	}

	// exactly one peer connection is supported at a time
	s.cancelConnectorLocked()
	s.cancelTransportLocked()
	s.cancelAcceptorsLocked()

	t := newTransport(s, sock)
	s.trans = t
	go t.readLoop()

	s.sink.DeviceConnected(name)
	s.setState(StateConnected)
}

// promote installs an inbound socket if the session is still waiting for a
// peer; otherwise the socket is closed immediately.
func (s *Service) promote(sock bluetooth.Socket, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StateListening, StateConnecting:
		s.connectedLocked(sock, name, nil)
	default:
		// not ready or already serving a peer
		if err := sock.Close(); err != nil {
			log.DebugMsg("closing unwanted inbound socket: %s\n", err)
		}
	}
}

// connectionFailed reports a failed connection attempt and resets the
// session so it stays usable.
func (s *Service) connectionFailed() {
	s.sink.Notify("Unable to connect to device")
	s.Start()
}

// connectionLost reports a dead transport and resets the session. Reports
// from superseded transports are ignored: cancelling a transport forces an
// I/O error on its read loop, which must not tear down its replacement.
func (s *Service) connectionLost(t *transport) {
	s.mu.Lock()
	if s.trans != t {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	s.sink.Notify("Device connection was lost")
	s.Start()
}

func (s *Service) cancelConnectorLocked() {
	if s.conn != nil {
		s.conn.cancel()
		s.conn = nil
	}
}

func (s *Service) cancelTransportLocked() {
	if s.trans != nil {
		s.trans.cancel()
		s.trans = nil
	}
}

func (s *Service) cancelAcceptorsLocked() {
	if s.acceptSecure != nil {
		s.acceptSecure.cancel()
		s.acceptSecure = nil
	}
	if s.acceptInsecure != nil {
		s.acceptInsecure.cancel()
		s.acceptInsecure = nil
	}
}
