package serial

// EventSink receives the asynchronous notifications a Service emits. All
// requests into the Service are fire-and-forget; their outcomes surface
// here.
//
// Callbacks run on the Service's internal goroutines, some while the state
// lock is held. Implementations must return quickly and must not call back
// into the Service.
type EventSink interface {
	// StateChanged fires on every state transition.
	StateChanged(state State)

	// DeviceConnected fires once per established connection with the
	// resolved name of the remote device.
	DeviceConnected(name string)

	// DataReceived delivers received bytes reinterpreted as text.
	DataReceived(text string)

	// DataReceivedRaw delivers a copy of the received bytes, sized exactly
	// to the read count.
	DataReceivedRaw(data []byte)

	// WriteCompleted echoes the bytes of a successful write.
	WriteCompleted(data []byte)

	// Notify carries user-facing error notifications (connect failed,
	// connection lost).
	Notify(message string)
}
