package shared

import (
	"fmt"

	"megster/btserial/pkg/pipeio"
	"megster/btserial/pkg/serial"
)

// Bridge pipes stdin into the serial link until stdin hits EOF or the
// session dies. Received bytes already flow to the sink's raw writer.
func Bridge(svc *serial.Service, sink *ConsoleSink) error {
	stdio := pipeio.NewStdio()

	go func() {
		<-sink.Done
		stdio.Close() // unblocks the pending stdin read
	}()

	if err := pipeio.Pump(stdio, svc.Write); err != nil {
		select {
		case <-sink.Done:
			// session over, the cancelled stdin read is expected
		default:
			return fmt.Errorf("pipeio.Pump(): %s", err)
		}
	}

	return nil
}
