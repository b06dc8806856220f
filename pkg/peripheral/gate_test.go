package peripheral

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGateDecodesNotifyBit(t *testing.T) {
	cases := []struct {
		value   uint16
		enabled bool
	}{
		{0x0000, false},
		{0x0001, true},
		{0x0002, false}, // indicate bit alone does not open the gate
		{0x0003, true},
		{0xfffe, false},
		{0xffff, true},
	}

	for _, tc := range cases {
		var g NotificationGate
		g.OnDescriptorWrite(tc.value)
		assert.Equalf(t, tc.enabled, g.IsEnabled(), "descriptor value %#04x", tc.value)
	}
}

func TestGateStartsClosed(t *testing.T) {
	var g NotificationGate
	assert.False(t, g.IsEnabled())
}

func TestGateReset(t *testing.T) {
	var g NotificationGate
	g.OnDescriptorWrite(0x0001)
	assert.True(t, g.IsEnabled())

	g.Reset()
	assert.False(t, g.IsEnabled())
}
