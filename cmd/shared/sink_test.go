package shared

import (
	"bytes"
	"testing"

	"megster/btserial/pkg/serial"
)

func TestConsoleSinkRawBytes(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	sink := NewConsoleSink(&out)

	sink.DataReceivedRaw([]byte{0x01, 0x02, 0x03})
	sink.DataReceived("ignored text form")

	if got := out.Bytes(); !bytes.Equal(got, []byte{0x01, 0x02, 0x03}) {
		t.Errorf("raw writer received % x, want 01 02 03", got)
	}
}

func TestConsoleSinkConnectedSignal(t *testing.T) {
	t.Parallel()

	sink := NewConsoleSink(&bytes.Buffer{})

	sink.DeviceConnected("Printer")
	sink.DeviceConnected("Printer again") // must not block

	select {
	case name := <-sink.Connected:
		if name != "Printer" {
			t.Errorf("Connected signal = %q, want %q", name, "Printer")
		}
	default:
		t.Error("no Connected signal after DeviceConnected")
	}
}

func TestConsoleSinkNotifyClosesDoneOnce(t *testing.T) {
	t.Parallel()

	sink := NewConsoleSink(&bytes.Buffer{})

	sink.Notify("Unable to connect to device")
	sink.Notify("Device connection was lost") // second close must not panic

	select {
	case <-sink.Done:
	default:
		t.Error("Done not closed after Notify")
	}
}

var _ serial.EventSink = (*ConsoleSink)(nil)
