// Package bluetooth defines the RFCOMM socket abstraction btserial dials
// through. The real implementation uses AF_BLUETOOTH sockets on Linux;
// other platforms return ErrNotSupported. Tests use the in-memory adapter
// from mocks/bluetooth.
package bluetooth

import (
	"errors"
	"io"

	"github.com/google/uuid"
)

// Well-known SPP service UUID used for outbound connections.
var UUIDSPP = uuid.MustParse("00001101-0000-1000-8000-00805F9B34FB")

// Service record UUIDs for inbound connections, one per security mode.
var (
	UUIDSerialSecure   = uuid.MustParse("7A9C3B55-78D0-44A7-A94E-A93E3FE118CE")
	UUIDSerialInsecure = uuid.MustParse("23F18142-B389-4772-93BD-52BDBB2C03E9")
)

// SDP record names for the listening service.
const (
	ServiceNameSecure   = "BluetoothSerialServiceSecure"
	ServiceNameInsecure = "BluetoothSerialServiceInSecure"
)

var (
	// ErrNotSupported is returned on platforms without RFCOMM support.
	ErrNotSupported = errors.New("bluetooth classic is not supported on this platform")

	// ErrConnectFailed is returned when neither the direct dial nor the
	// fallback dial reached the device.
	ErrConnectFailed = errors.New("failed to establish RFCOMM connection")
)

// Socket is one connected RFCOMM byte stream. Close unblocks any pending
// Read or Write with an error; this is the only cancellation mechanism.
type Socket interface {
	io.ReadWriteCloser
}

// Dialer is a single outbound connection attempt. The attempt holds its
// socket handle before connecting, so Close from another goroutine aborts
// a Connect in flight.
type Dialer interface {
	// Connect blocks until the link is up or an error occurs. It may be
	// called at most once.
	Connect() (Socket, error)

	// Close aborts the attempt, unblocking a pending Connect with an
	// error. Closing a dialer whose Connect already succeeded closes the
	// connected socket.
	Close() error
}

// Listener accepts inbound RFCOMM connections on a registered service
// record. Close unblocks a pending Accept with an error.
type Listener interface {
	// Accept blocks until an inbound connection arrives and returns the
	// socket along with the remote device address.
	Accept() (Socket, string, error)
	Close() error
}

// Adapter is the local Bluetooth radio.
type Adapter interface {
	// CancelDiscovery pauses any ongoing device discovery. Discovery
	// monopolizes the radio and slows down connection attempts, so it must
	// be called before dialing. Best effort.
	CancelDiscovery() error

	// Dialer prepares an outbound connection to the device at addr using
	// the service identified by u.
	Dialer(addr string, u uuid.UUID, secure bool) (Dialer, error)

	// FallbackDialer prepares a connection to addr on fixed RFCOMM
	// channels, bypassing service resolution. Some devices advertise SPP
	// but fail the standard handshake; dialing the channel directly is
	// the workaround.
	FallbackDialer(addr string) (Dialer, error)

	// Listen registers a service record under the given name and UUID and
	// returns a listener for inbound connections.
	Listen(name string, u uuid.UUID, secure bool) (Listener, error)

	// DeviceName resolves the friendly name of a remote device. Returns
	// the address itself when no name is known.
	DeviceName(addr string) string
}
