package peripheral

// cccdNotifyBit is bit 0 of the standard two-byte client characteristic
// configuration value: notifications enabled.
const cccdNotifyBit uint16 = 0x0001

// NotificationGate tracks whether the connected central has enabled
// notifications on the sampling characteristic. It only flips a boolean; the
// scheduler consults it each tick. Not safe for concurrent use on its own;
// the owning Peripheral serializes access.
type NotificationGate struct {
	enabled bool
}

// OnDescriptorWrite applies a write to the client configuration descriptor.
// Only the notify bit is interpreted; all other bits are ignored.
func (g *NotificationGate) OnDescriptorWrite(value uint16) {
	g.enabled = value&cccdNotifyBit != 0
}

// IsEnabled reports whether the subscriber wants notifications.
func (g *NotificationGate) IsEnabled() bool {
	return g.enabled
}

// Reset forces the gate closed. Called on disconnect: a reconnecting central
// starts unsubscribed until it writes the descriptor again.
func (g *NotificationGate) Reset() {
	g.enabled = false
}
