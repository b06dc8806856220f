package peripheral

// EventType identifies a BLE stack event delivered to the peripheral.
type EventType int

const (
	// EventConnected fires when a central attaches.
	EventConnected EventType = iota
	// EventDisconnected fires when the central detaches.
	EventDisconnected
	// EventDescriptorWritten fires when the central writes the
	// characteristic's client configuration descriptor.
	EventDescriptorWritten
	// EventCharacteristicRead fires when the central issues a manual read.
	EventCharacteristicRead
)

func (e EventType) String() string {
	switch e {
	case EventConnected:
		return "Connected"
	case EventDisconnected:
		return "Disconnected"
	case EventDescriptorWritten:
		return "DescriptorWritten"
	case EventCharacteristicRead:
		return "CharacteristicRead"
	default:
		return "Unknown"
	}
}

// Event is one BLE stack callback, lifted into a value so all four callback
// shapes funnel through a single dispatch path.
type Event struct {
	Type EventType

	// CentralID identifies the central for connection events.
	CentralID string

	// Value carries the written descriptor value for EventDescriptorWritten.
	Value uint16
}
