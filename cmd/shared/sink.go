package shared

import (
	"io"
	"sync"

	"megster/btserial/pkg/format"
	"megster/btserial/pkg/log"
	"megster/btserial/pkg/serial"
)

// ConsoleSink adapts serial events to the terminal: received bytes stream
// to a writer, everything else goes to the console log. Connected signals
// the first established connection, Done is closed when the session fails
// or loses its peer.
type ConsoleSink struct {
	raw io.Writer

	Connected chan string
	Done      chan struct{}
	once      sync.Once
}

// NewConsoleSink creates a ConsoleSink streaming received bytes to raw.
func NewConsoleSink(raw io.Writer) *ConsoleSink {
	return &ConsoleSink{
		raw:       raw,
		Connected: make(chan string, 1),
		Done:      make(chan struct{}),
	}
}

// StateChanged implements serial.EventSink.
func (c *ConsoleSink) StateChanged(state serial.State) {
	log.DebugMsg("state: %s\n", state)
}

// DeviceConnected implements serial.EventSink.
func (c *ConsoleSink) DeviceConnected(name string) {
	log.InfoMsg("Connected to %s\n", name)
	select {
	case c.Connected <- name:
	default:
	}
}

// DataReceived implements serial.EventSink. The raw event carries the same
// bytes, so the text variant is dropped here.
func (c *ConsoleSink) DataReceived(text string) {}

// DataReceivedRaw implements serial.EventSink.
func (c *ConsoleSink) DataReceivedRaw(data []byte) {
	c.raw.Write(data)
}

// WriteCompleted implements serial.EventSink.
func (c *ConsoleSink) WriteCompleted(data []byte) {
	log.DebugMsg("wrote %s\n", format.Bytes(data, 16))
}

// Notify implements serial.EventSink.
func (c *ConsoleSink) Notify(message string) {
	log.ErrorMsg("%s\n", message)
	c.once.Do(func() {
		close(c.Done)
	})
}
