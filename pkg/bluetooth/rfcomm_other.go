//go:build !linux

package bluetooth

import (
	"github.com/google/uuid"
)

type unsupportedAdapter struct{}

// NewAdapter returns the Adapter for the local Bluetooth radio.
func NewAdapter() Adapter {
	return &unsupportedAdapter{}
}

func (a *unsupportedAdapter) CancelDiscovery() error {
	return ErrNotSupported
}

func (a *unsupportedAdapter) Dialer(addr string, u uuid.UUID, secure bool) (Dialer, error) {
	return nil, ErrNotSupported
}

func (a *unsupportedAdapter) FallbackDialer(addr string) (Dialer, error) {
	return nil, ErrNotSupported
}

func (a *unsupportedAdapter) Listen(name string, u uuid.UUID, secure bool) (Listener, error) {
	return nil, ErrNotSupported
}

func (a *unsupportedAdapter) DeviceName(addr string) string {
	return addr
}
