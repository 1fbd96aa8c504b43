package serial

import (
	"bytes"
	"fmt"

	"megster/btserial/pkg/bluetooth"
	"megster/btserial/pkg/format"
	"megster/btserial/pkg/log"
)

// readBufferSize is the maximum number of bytes consumed per read.
const readBufferSize = 1024

// transport owns the one active byte-stream connection.
type transport struct {
	svc  *Service
	sock bluetooth.Socket
}

func newTransport(svc *Service, sock bluetooth.Socket) *transport {
	return &transport{
		svc:  svc,
		sock: sock,
	}
}

// readLoop reads until the socket dies, emitting the bytes of every read as
// a text event plus a raw copy trimmed to the read count. It must run on
// its own goroutine.
func (t *transport) readLoop() {
	buf := make([]byte, readBufferSize)
	for {
		n, err := t.sock.Read(buf)
		if n > 0 {
			t.svc.sink.DataReceived(string(buf[:n]))

			// copy, the buffer is reused and may carry stale bytes past n
			raw := make([]byte, n)
			copy(raw, buf[:n])
			t.svc.sink.DataReceivedRaw(raw)
		}
		if err != nil {
			log.DebugMsg("read: %s\n", err)
			t.svc.connectionLost(t)
			return
		}
	}
}

// write performs one blocking write and echoes the bytes on success.
// Failures are logged and not retried; reconnect policy lives upstairs.
func (t *transport) write(p []byte) {
	if _, err := t.sock.Write(p); err != nil {
		log.ErrorMsg("Writing %s: %s\n", format.Bytes(p, 8), err)
		return
	}
	t.svc.sink.WriteCompleted(p)
}

// writeAll writes chunks in order, stopping at and returning the first
// failure, and echoes the whole stream once on success.
func (t *transport) writeAll(chunks [][]byte) error {
	for _, chunk := range chunks {
		if _, err := t.sock.Write(chunk); err != nil {
			log.ErrorMsg("Writing %s: %s\n", format.Bytes(chunk, 8), err)
			return fmt.Errorf("writing %s: %s", format.Bytes(chunk, 8), err)
		}
	}
	t.svc.sink.WriteCompleted(bytes.Join(chunks, nil))
	return nil
}

// cancel closes the socket. The pending read fails, which is how the loop
// learns it is done; there is no separate stop signal.
func (t *transport) cancel() {
	t.sock.Close()
}
