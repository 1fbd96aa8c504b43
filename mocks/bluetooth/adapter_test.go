package bluetooth

import (
	"testing"
	"time"

	realbt "megster/btserial/pkg/bluetooth"
)

const testAddr = "AA:BB:CC:DD:EE:FF"

func dial(t *testing.T, m *MockAdapter, addr string) (realbt.Socket, error) {
	t.Helper()
	d, err := m.Dialer(addr, realbt.UUIDSPP, true)
	if err != nil {
		t.Fatalf("Dialer(): %v", err)
	}
	return d.Connect()
}

func TestDialAndNextConn(t *testing.T) {
	t.Parallel()

	m := NewMockAdapter()
	d := m.AddDevice(testAddr, "Printer")

	sock, err := dial(t, m, testAddr)
	if err != nil {
		t.Fatalf("Connect(): %v", err)
	}
	defer sock.Close()

	remote, err := d.NextConn(time.Second)
	if err != nil {
		t.Fatalf("NextConn(): %v", err)
	}
	defer remote.Close()

	go func() {
		sock.Write([]byte("ping"))
	}()

	buf := make([]byte, 4)
	if _, err := remote.Read(buf); err != nil {
		t.Fatalf("remote.Read(): %v", err)
	}
	if string(buf) != "ping" {
		t.Errorf("remote read %q, want %q", buf, "ping")
	}
}

func TestDialUnknownDevice(t *testing.T) {
	t.Parallel()

	m := NewMockAdapter()
	if _, err := dial(t, m, testAddr); err == nil {
		t.Error("Connect() to unregistered device succeeded")
	}
}

func TestFailPrimaryStillAllowsFallback(t *testing.T) {
	t.Parallel()

	m := NewMockAdapter()
	d := m.AddDevice(testAddr, "Printer")
	d.FailPrimary = true

	if _, err := dial(t, m, testAddr); err == nil {
		t.Fatal("Connect() succeeded, want failure for FailPrimary device")
	}

	fb, err := m.FallbackDialer(testAddr)
	if err != nil {
		t.Fatalf("FallbackDialer(): %v", err)
	}
	sock, err := fb.Connect()
	if err != nil {
		t.Fatalf("fallback Connect(): %v", err)
	}
	sock.Close()
}

func TestFailAll(t *testing.T) {
	t.Parallel()

	m := NewMockAdapter()
	d := m.AddDevice(testAddr, "Printer")
	d.FailAll = true

	if _, err := dial(t, m, testAddr); err == nil {
		t.Error("Connect() succeeded, want failure")
	}

	fb, err := m.FallbackDialer(testAddr)
	if err != nil {
		t.Fatalf("FallbackDialer(): %v", err)
	}
	if _, err := fb.Connect(); err == nil {
		t.Error("fallback Connect() succeeded, want failure")
	}
}

func TestDialerCloseAbortsHeldConnect(t *testing.T) {
	t.Parallel()

	m := NewMockAdapter()
	dev := m.AddDevice(testAddr, "Printer")
	dev.Hold = make(chan struct{})

	d, err := m.Dialer(testAddr, realbt.UUIDSPP, true)
	if err != nil {
		t.Fatalf("Dialer(): %v", err)
	}

	errCh := make(chan error, 1)
	go func() {
		_, err := d.Connect()
		errCh <- err
	}()

	d.Close()

	select {
	case err := <-errCh:
		if err == nil {
			t.Error("Connect() returned nil error after Close")
		}
	case <-time.After(time.Second):
		t.Error("Connect() still blocked after Close")
	}

	// the aborted attempt must not leave a half-open connection behind
	if _, err := dev.NextConn(50 * time.Millisecond); err == nil {
		t.Error("aborted dial still established a connection")
	}
}

func TestListenAndConnectInbound(t *testing.T) {
	t.Parallel()

	m := NewMockAdapter()
	l, err := m.Listen(realbt.ServiceNameSecure, realbt.UUIDSerialSecure, true)
	if err != nil {
		t.Fatalf("Listen(): %v", err)
	}

	type accepted struct {
		sock realbt.Socket
		addr string
		err  error
	}
	ch := make(chan accepted, 1)
	go func() {
		sock, addr, err := l.Accept()
		ch <- accepted{sock: sock, addr: addr, err: err}
	}()

	remote, err := m.ConnectInbound(testAddr, true)
	if err != nil {
		t.Fatalf("ConnectInbound(): %v", err)
	}
	defer remote.Close()

	got := <-ch
	if got.err != nil {
		t.Fatalf("Accept(): %v", got.err)
	}
	if got.addr != testAddr {
		t.Errorf("Accept() addr = %q, want %q", got.addr, testAddr)
	}
	got.sock.Close()
}

func TestCloseUnblocksAccept(t *testing.T) {
	t.Parallel()

	m := NewMockAdapter()
	l, err := m.Listen(realbt.ServiceNameInsecure, realbt.UUIDSerialInsecure, false)
	if err != nil {
		t.Fatalf("Listen(): %v", err)
	}

	errCh := make(chan error, 1)
	go func() {
		_, _, err := l.Accept()
		errCh <- err
	}()

	l.Close()

	select {
	case err := <-errCh:
		if err == nil {
			t.Error("Accept() returned nil error after Close")
		}
	case <-time.After(time.Second):
		t.Error("Accept() still blocked after Close")
	}
}

func TestDuplicateServiceRecord(t *testing.T) {
	t.Parallel()

	m := NewMockAdapter()
	if _, err := m.Listen(realbt.ServiceNameSecure, realbt.UUIDSerialSecure, true); err != nil {
		t.Fatalf("Listen(): %v", err)
	}
	if _, err := m.Listen(realbt.ServiceNameSecure, realbt.UUIDSerialSecure, true); err == nil {
		t.Error("second Listen() for same mode succeeded")
	}
}

func TestListenAgainAfterClose(t *testing.T) {
	t.Parallel()

	m := NewMockAdapter()
	l, err := m.Listen(realbt.ServiceNameSecure, realbt.UUIDSerialSecure, true)
	if err != nil {
		t.Fatalf("Listen(): %v", err)
	}
	l.Close()

	// a closed listener releases its service record
	l2, err := m.Listen(realbt.ServiceNameSecure, realbt.UUIDSerialSecure, true)
	if err != nil {
		t.Fatalf("Listen() after Close: %v", err)
	}

	go func() {
		m.ConnectInbound(testAddr, true)
	}()
	if _, _, err := l2.Accept(); err != nil {
		t.Errorf("Accept() on re-registered listener: %v", err)
	}
}

func TestDiscoveryCancels(t *testing.T) {
	t.Parallel()

	m := NewMockAdapter()
	m.CancelDiscovery()
	m.CancelDiscovery()
	if got := m.DiscoveryCancels(); got != 2 {
		t.Errorf("DiscoveryCancels() = %d, want 2", got)
	}
}
