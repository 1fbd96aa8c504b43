//go:build linux

package bluetooth

import (
	"os"
	"testing"
	"time"

	"golang.org/x/sys/unix"
)

func TestParseBDAddr(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		addr    string
		want    [6]byte
		wantErr bool
	}{
		{
			name: "uppercase",
			addr: "AA:BB:CC:DD:EE:FF",
			want: [6]byte{0xFF, 0xEE, 0xDD, 0xCC, 0xBB, 0xAA},
		},
		{
			name: "lowercase",
			addr: "01:02:03:04:05:06",
			want: [6]byte{0x06, 0x05, 0x04, 0x03, 0x02, 0x01},
		},
		{
			name:    "not an address",
			addr:    "printer",
			wantErr: true,
		},
		{
			name:    "eui-64 is rejected",
			addr:    "01:02:03:04:05:06:07:08",
			wantErr: true,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := parseBDAddr(tc.addr)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("parseBDAddr(%q) succeeded, want error", tc.addr)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseBDAddr(%q): %v", tc.addr, err)
			}
			if got != tc.want {
				t.Errorf("parseBDAddr(%q) = %v, want %v", tc.addr, got, tc.want)
			}
		})
	}
}

// newLoopbackListener builds a listening TCP socket on the loopback
// interface. The listener and dial plumbing only deal in raw fds, so a TCP
// socket exercises the same code paths as an RFCOMM one without a radio.
func newLoopbackListener(t *testing.T) (int, unix.Sockaddr) {
	t.Helper()

	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_STREAM|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		t.Fatalf("socket(AF_INET): %v", err)
	}
	if err := unix.Bind(fd, &unix.SockaddrInet4{Addr: [4]byte{127, 0, 0, 1}}); err != nil {
		unix.Close(fd)
		t.Fatalf("bind(loopback): %v", err)
	}
	if err := unix.Listen(fd, 1); err != nil {
		unix.Close(fd)
		t.Fatalf("listen(loopback): %v", err)
	}
	sa, err := unix.Getsockname(fd)
	if err != nil {
		unix.Close(fd)
		t.Fatalf("getsockname(): %v", err)
	}
	return fd, sa
}

func TestListenerCloseUnblocksAccept(t *testing.T) {
	t.Parallel()

	fd, _ := newLoopbackListener(t)
	ln := &rfcommListener{fd: fd}

	errCh := make(chan error, 1)
	go func() {
		_, _, err := ln.Accept()
		errCh <- err
	}()

	// let the accept park in the syscall before closing under it
	time.Sleep(50 * time.Millisecond)
	ln.Close()

	select {
	case err := <-errCh:
		if err == nil {
			t.Error("Accept() returned nil error after Close")
		}
	case <-time.After(2 * time.Second):
		t.Error("Accept() still blocked after Close")
	}
}

func TestConnectFileToLocalListener(t *testing.T) {
	t.Parallel()

	lfd, sa := newLoopbackListener(t)
	defer unix.Close(lfd)

	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_STREAM|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		t.Fatalf("socket(AF_INET): %v", err)
	}
	if err := unix.SetNonblock(fd, true); err != nil {
		unix.Close(fd)
		t.Fatalf("setnonblock: %v", err)
	}
	f := os.NewFile(uintptr(fd), "dial")
	defer f.Close()

	if err := connectFile(f, sa); err != nil {
		t.Fatalf("connectFile(): %v", err)
	}
}

func TestConnectFileRefused(t *testing.T) {
	t.Parallel()

	lfd, sa := newLoopbackListener(t)
	unix.Close(lfd) // nothing listens on that port anymore

	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_STREAM|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		t.Fatalf("socket(AF_INET): %v", err)
	}
	if err := unix.SetNonblock(fd, true); err != nil {
		unix.Close(fd)
		t.Fatalf("setnonblock: %v", err)
	}
	f := os.NewFile(uintptr(fd), "dial")
	defer f.Close()

	if err := connectFile(f, sa); err == nil {
		t.Error("connectFile() to a closed port succeeded")
	}
}

func TestFormatBDAddrRoundTrip(t *testing.T) {
	t.Parallel()

	addr := "AA:BB:CC:DD:EE:FF"
	b, err := parseBDAddr(addr)
	if err != nil {
		t.Fatalf("parseBDAddr(%q): %v", addr, err)
	}
	if got := formatBDAddr(b); got != addr {
		t.Errorf("formatBDAddr(parseBDAddr(%q)) = %q", addr, got)
	}
}
