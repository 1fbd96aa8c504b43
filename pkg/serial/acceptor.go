package serial

import (
	"fmt"

	"megster/btserial/pkg/bluetooth"
	"megster/btserial/pkg/log"
)

// acceptor runs a blocking accept loop on one registered service record.
// There is at most one acceptor per security mode.
type acceptor struct {
	svc    *Service
	secure bool
	ln     bluetooth.Listener
}

func newAcceptor(svc *Service, secure bool) (*acceptor, error) {
	name, u := bluetooth.ServiceNameInsecure, bluetooth.UUIDSerialInsecure
	if secure {
		name, u = bluetooth.ServiceNameSecure, bluetooth.UUIDSerialSecure
	}

	ln, err := svc.adapter.Listen(name, u, secure)
	if err != nil {
		return nil, fmt.Errorf("Listen(%s): %s", name, err)
	}

	return &acceptor{
		svc:    svc,
		secure: secure,
		ln:     ln,
	}, nil
}

// run accepts inbound sockets until the session is connected or the
// listener dies. It must run on its own goroutine.
func (a *acceptor) run() {
	mode := "insecure"
	if a.secure {
		mode = "secure"
	}
	log.DebugMsg("Accept loop (%s) started\n", mode)

	for a.svc.State() != StateConnected {
		sock, addr, err := a.ln.Accept()
		if err != nil {
			// terminates only this acceptor; the other one and any
			// outstanding connector keep going
			log.DebugMsg("Accept (%s): %s\n", mode, err)
			return
		}

		name := a.svc.adapter.DeviceName(addr)
		a.svc.promote(sock, name)
	}

	log.DebugMsg("Accept loop (%s) done\n", mode)
}

// cancel closes the listening handle, unblocking a pending Accept with an
// error.
func (a *acceptor) cancel() {
	a.ln.Close()
}
