// Package bluetooth is the facade over the BLE stack: it owns the advertised
// service, its weight characteristic and the notification plumbing, and
// translates stack callbacks into calls on the handlers the state machine
// registers.
package bluetooth

// Service UUID for the scale peripheral
const (
	ScaleServiceUUID = "7e4e1701-8c54-4c38-9a1c-2f5e3b6d9c10"
)

// Characteristic UUIDs
const (
	// WeightCharUUID is the single Read|Notify characteristic carrying the
	// current weight as a little-endian float32 in grams.
	WeightCharUUID = "7e4e1702-8c54-4c38-9a1c-2f5e3b6d9c10"
)

// Client characteristic configuration descriptor values (UUID 0x2902).
const (
	// CCCDNotify is bit 0 of the two-byte CCCD value: notifications on.
	CCCDNotify uint16 = 0x0001
	// CCCDOff clears the subscription.
	CCCDOff uint16 = 0x0000
)

// ConnectionHandler is called when a central connects or disconnects.
type ConnectionHandler func(connected bool, centralID string)

// ReadHandler is called when a central reads the weight characteristic; it
// returns the payload to respond with.
type ReadHandler func() []byte

// SubscriptionHandler is called with the CCCD value when the central's
// notification subscription changes.
type SubscriptionHandler func(value uint16)
