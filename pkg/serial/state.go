package serial

// State is the connection state of a Service. Exactly one value holds at a
// time, owned by the Service and mutated only under its lock.
type State int

const (
	// StateNone means the session is idle.
	StateNone State = iota
	// StateListening means the session waits for an inbound connection.
	StateListening
	// StateConnecting means an outbound connection attempt is in flight.
	StateConnecting
	// StateConnected means a transport is up and moving bytes.
	StateConnected
)

func (s State) String() string {
	switch s {
	case StateNone:
		return "none"
	case StateListening:
		return "listening"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return "unknown"
	}
}
