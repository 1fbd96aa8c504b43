// Package format provides small formatting helpers shared across btserial.
package format

import (
	"fmt"
	"strings"
)

// Addr renders a Bluetooth device address together with an RFCOMM channel,
// e.g. "AA:BB:CC:DD:EE:FF/3". Channel 0 means "no channel known" and is
// omitted.
func Addr(addr string, channel int) string {
	if channel == 0 {
		return addr
	}
	return fmt.Sprintf("%s/%d", addr, channel)
}

// Bytes renders a byte slice as a short hex preview for debug logging.
// Slices longer than max are truncated with an ellipsis.
func Bytes(p []byte, max int) string {
	var b strings.Builder
	n := len(p)
	if n > max {
		n = max
	}
	for i := 0; i < n; i++ {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%02x", p[i])
	}
	if len(p) > max {
		fmt.Fprintf(&b, " .. (%d bytes)", len(p))
	}
	return b.String()
}
