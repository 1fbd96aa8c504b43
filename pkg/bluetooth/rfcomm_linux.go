//go:build linux

package bluetooth

import (
	"fmt"
	"net"
	"os"
	"os/exec"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sys/unix"

	"megster/btserial/pkg/log"
)

// SPP peripherals almost always serve on channel 1. Without an SDP client
// we dial it directly; the fallback scans a few more channels.
const sppChannel = 1
const maxFallbackChannel = 5

// Listening channels for the secure and insecure service records.
const (
	channelSecure   = 1
	channelInsecure = 2
)

// socket option for link-level security, from <bluetooth/bluetooth.h>
const (
	solBluetooth     = 0x112
	btSecurity       = 4
	btSecurityLow    = 1
	btSecurityMedium = 2
)

// rfcommAdapter implements Adapter on top of AF_BLUETOOTH RFCOMM sockets.
type rfcommAdapter struct{}

// NewAdapter returns the Adapter for the local Bluetooth radio.
func NewAdapter() Adapter {
	return &rfcommAdapter{}
}

func (a *rfcommAdapter) CancelDiscovery() error {
	// bluetoothd owns discovery; stopping the scan frees the radio for the
	// connection attempt. Best effort.
	if err := exec.Command("bluetoothctl", "scan", "off").Run(); err != nil {
		return fmt.Errorf("bluetoothctl scan off: %s", err)
	}
	return nil
}

func (a *rfcommAdapter) Dialer(addr string, u uuid.UUID, secure bool) (Dialer, error) {
	return newRFCOMMDialer(addr, []int{sppChannel}, secure)
}

func (a *rfcommAdapter) FallbackDialer(addr string) (Dialer, error) {
	channels := make([]int, 0, maxFallbackChannel)
	for ch := 1; ch <= maxFallbackChannel; ch++ {
		channels = append(channels, ch)
	}
	return newRFCOMMDialer(addr, channels, false)
}

func (a *rfcommAdapter) Listen(name string, u uuid.UUID, secure bool) (Listener, error) {
	channel := channelInsecure
	if secure {
		channel = channelSecure
	}

	fd, err := unix.Socket(unix.AF_BLUETOOTH, unix.SOCK_STREAM|unix.SOCK_CLOEXEC, unix.BTPROTO_RFCOMM)
	if err != nil {
		return nil, fmt.Errorf("socket(AF_BLUETOOTH, RFCOMM): %s", err)
	}

	if err := setSecurity(fd, secure); err != nil {
		unix.Close(fd)
		return nil, err
	}

	sa := &unix.SockaddrRFCOMM{Channel: uint8(channel)} // any local radio
	if err := unix.Bind(fd, sa); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("bind(rfcomm, channel %d): %s", channel, err)
	}
	if err := unix.Listen(fd, 1); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("listen(rfcomm, channel %d): %s", channel, err)
	}

	log.DebugMsg("Registered %s on RFCOMM channel %d\n", name, channel)
	return &rfcommListener{fd: fd}, nil
}

func (a *rfcommAdapter) DeviceName(addr string) string {
	// bluetoothd caches names of paired and recently seen devices.
	out, err := exec.Command("bluetoothctl", "info", addr).Output()
	if err != nil {
		return addr
	}
	for _, line := range strings.Split(string(out), "\n") {
		line = strings.TrimSpace(line)
		if after, ok := strings.CutPrefix(line, "Name: "); ok {
			return after
		}
	}
	return addr
}

// rfcommDialer tries the given channels in order. The socket handle of the
// attempt in flight is kept under the mutex so Close can reach it; dialing
// is cancellable the same way the data and listening sockets are.
type rfcommDialer struct {
	addr     string
	bdaddr   [6]byte
	channels []int
	secure   bool

	mu     sync.Mutex
	closed bool
	file   *os.File
}

func newRFCOMMDialer(addr string, channels []int, secure bool) (*rfcommDialer, error) {
	bdaddr, err := parseBDAddr(addr)
	if err != nil {
		return nil, err
	}
	return &rfcommDialer{
		addr:     addr,
		bdaddr:   bdaddr,
		channels: channels,
		secure:   secure,
	}, nil
}

func (d *rfcommDialer) Connect() (Socket, error) {
	var lastErr error
	for _, ch := range d.channels {
		sock, err := d.attempt(ch)
		if err == nil {
			return sock, nil
		}
		lastErr = err

		d.mu.Lock()
		closed := d.closed
		d.mu.Unlock()
		if closed {
			break
		}
	}
	return nil, fmt.Errorf("%w: %s: %s", ErrConnectFailed, d.addr, lastErr)
}

func (d *rfcommDialer) attempt(channel int) (Socket, error) {
	fd, err := unix.Socket(unix.AF_BLUETOOTH, unix.SOCK_STREAM|unix.SOCK_CLOEXEC, unix.BTPROTO_RFCOMM)
	if err != nil {
		return nil, fmt.Errorf("socket(AF_BLUETOOTH, RFCOMM): %s", err)
	}
	if err := setSecurity(fd, d.secure); err != nil {
		unix.Close(fd)
		return nil, err
	}
	if err := unix.SetNonblock(fd, true); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("setnonblock: %s", err)
	}
	f := os.NewFile(uintptr(fd), d.addr)

	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		f.Close()
		return nil, fmt.Errorf("connect(rfcomm, %s/%d): attempt aborted", d.addr, channel)
	}
	d.file = f
	d.mu.Unlock()

	sa := &unix.SockaddrRFCOMM{Addr: d.bdaddr, Channel: uint8(channel)}
	if err := connectFile(f, sa); err != nil {
		d.mu.Lock()
		d.file = nil
		d.mu.Unlock()
		f.Close()
		return nil, fmt.Errorf("connect(rfcomm, %s/%d): %s", d.addr, channel, err)
	}
	return f, nil
}

// Close aborts the attempt in flight, or closes the connected socket when
// Connect already succeeded.
func (d *rfcommDialer) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	if d.file != nil {
		return d.file.Close()
	}
	return nil
}

// connectFile runs a nonblocking connect against the runtime poller, so a
// concurrent Close of the file aborts the wait.
func connectFile(f *os.File, sa unix.Sockaddr) error {
	rc, err := f.SyscallConn()
	if err != nil {
		return err
	}

	var cerr error
	if err := rc.Control(func(fd uintptr) {
		cerr = unix.Connect(int(fd), sa)
	}); err != nil {
		return err
	}
	switch cerr {
	case nil:
		return nil
	case unix.EINPROGRESS, unix.EAGAIN, unix.EINTR:
	default:
		return cerr
	}

	cerr = nil
	err = rc.Write(func(fd uintptr) bool {
		// a connected socket has a peer; SO_ERROR alone can't tell a
		// pending connect from a finished one
		if _, perr := unix.Getpeername(int(fd)); perr == nil {
			return true
		}
		soerr, gerr := unix.GetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_ERROR)
		if gerr != nil {
			cerr = gerr
			return true
		}
		if soerr == 0 {
			return false // still connecting, wait for writability
		}
		cerr = unix.Errno(soerr)
		return true
	})
	if err != nil {
		return err
	}
	return cerr
}

// setSecurity selects the link security level before connect/bind.
func setSecurity(fd int, secure bool) error {
	level := byte(btSecurityLow)
	if secure {
		level = btSecurityMedium
	}
	// struct bt_security { uint8_t level; uint8_t key_size; }
	opt := string([]byte{level, 0})
	if err := unix.SetsockoptString(fd, solBluetooth, btSecurity, opt); err != nil {
		return fmt.Errorf("setsockopt(BT_SECURITY, %d): %s", level, err)
	}
	return nil
}

// fileSocket hands the fd to the runtime poller so that Close unblocks a
// pending Read, which is how cancellation works throughout btserial.
func fileSocket(fd int, name string) (Socket, error) {
	if err := unix.SetNonblock(fd, true); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("setnonblock: %s", err)
	}
	return os.NewFile(uintptr(fd), name), nil
}

// parseBDAddr converts "AA:BB:CC:DD:EE:FF" into the kernel's byte order.
// Linux stores BD_ADDRs reversed.
func parseBDAddr(addr string) ([6]byte, error) {
	var b [6]byte
	hw, err := net.ParseMAC(addr)
	if err != nil || len(hw) != 6 {
		return b, fmt.Errorf("invalid device address %q", addr)
	}
	for i := 0; i < 6; i++ {
		b[i] = hw[5-i]
	}
	return b, nil
}

type rfcommListener struct {
	fd int
}

func (l *rfcommListener) Accept() (Socket, string, error) {
	nfd, sa, err := unix.Accept(l.fd)
	if err != nil {
		return nil, "", fmt.Errorf("accept(rfcomm): %s", err)
	}

	remote := "unknown"
	if rsa, ok := sa.(*unix.SockaddrRFCOMM); ok {
		remote = formatBDAddr(rsa.Addr)
	}

	sock, err := fileSocket(nfd, remote)
	if err != nil {
		return nil, "", err
	}
	return sock, remote, nil
}

func (l *rfcommListener) Close() error {
	// close alone does not wake a thread parked in accept, the blocked
	// syscall keeps the file description alive; shutdown does wake it
	unix.Shutdown(l.fd, unix.SHUT_RDWR)
	return unix.Close(l.fd)
}

func formatBDAddr(b [6]byte) string {
	return fmt.Sprintf("%02X:%02X:%02X:%02X:%02X:%02X", b[5], b[4], b[3], b[2], b[1], b[0])
}
