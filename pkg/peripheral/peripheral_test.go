package peripheral

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/octoco-ltd/scalelink/pkg/wire"
)

func TestPeripheralLifecycle(t *testing.T) {
	src := &countingSource{}
	radio := &fakeRadio{}
	var notices []Notice
	p := New(src, radio, func(n Notice) { notices = append(notices, n) })

	// Boot: idle, a tick does nothing.
	p.Tick()
	assert.Zero(t, src.reads)
	assert.Empty(t, radio.notified)

	// Central connects but has not subscribed: still no traffic.
	p.Dispatch(Event{Type: EventConnected, CentralID: "aa:bb"})
	assert.True(t, p.IsConnected())
	assert.False(t, p.IsSubscribed())
	p.Tick()
	assert.Zero(t, src.reads)

	// Central enables notifications: the next tick streams a sample.
	p.Dispatch(Event{Type: EventDescriptorWritten, Value: 0x0001})
	assert.True(t, p.IsSubscribed())
	p.Tick()
	assert.Equal(t, 1, src.reads)
	require.Len(t, radio.notified, 1)

	// Disconnect: subscription cleared, advertising restarted, ticks idle.
	p.Dispatch(Event{Type: EventDisconnected, CentralID: "aa:bb"})
	assert.False(t, p.IsConnected())
	assert.False(t, p.IsSubscribed())
	assert.Equal(t, 1, radio.starts)
	p.Tick()
	assert.Equal(t, 1, src.reads)

	kinds := make([]NoticeKind, 0, len(notices))
	for _, n := range notices {
		kinds = append(kinds, n.Kind)
	}
	assert.Equal(t, []NoticeKind{NoticeConnected, NoticeSubscribed, NoticeSample, NoticeDisconnected}, kinds)
}

func TestPeripheralReconnectStartsUnsubscribed(t *testing.T) {
	src := &countingSource{}
	radio := &fakeRadio{}
	p := New(src, radio, nil)

	p.Dispatch(Event{Type: EventConnected, CentralID: "aa:bb"})
	p.Dispatch(Event{Type: EventDescriptorWritten, Value: 0x0001})
	p.Dispatch(Event{Type: EventDisconnected, CentralID: "aa:bb"})

	// Same central comes back: it must re-subscribe before samples flow.
	p.Dispatch(Event{Type: EventConnected, CentralID: "aa:bb"})
	p.Tick()
	assert.Zero(t, src.reads, "a reconnected central starts unsubscribed")
}

func TestPeripheralUnsubscribeStopsSampling(t *testing.T) {
	src := &countingSource{}
	radio := &fakeRadio{}
	p := New(src, radio, nil)

	p.Dispatch(Event{Type: EventConnected, CentralID: "aa:bb"})
	p.Dispatch(Event{Type: EventDescriptorWritten, Value: 0x0001})
	p.Tick()
	require.Equal(t, 1, src.reads)

	p.Dispatch(Event{Type: EventDescriptorWritten, Value: 0x0000})
	p.Tick()
	assert.Equal(t, 1, src.reads)
}

func TestManualReadForcesFreshSample(t *testing.T) {
	src := &countingSource{}
	radio := &fakeRadio{}
	p := New(src, radio, nil)

	p.Dispatch(Event{Type: EventConnected, CentralID: "aa:bb"})
	p.Dispatch(Event{Type: EventDescriptorWritten, Value: 0x0001})
	p.Tick()
	require.Equal(t, 1, src.reads)

	// A manual read must not return the cached tick value.
	payload := p.ReadSample()
	got, err := wire.DecodeSample(payload)
	require.NoError(t, err)
	assert.Equal(t, 2.0, got)
	assert.Equal(t, 2, src.reads)

	// The resting value was updated too.
	require.NotEmpty(t, radio.values)
	assert.Equal(t, payload, radio.values[len(radio.values)-1])
}

func TestManualReadWorksWhileUnsubscribed(t *testing.T) {
	src := &countingSource{}
	radio := &fakeRadio{}
	p := New(src, radio, nil)

	p.Dispatch(Event{Type: EventConnected, CentralID: "aa:bb"})

	payload := p.ReadSample()
	got, err := wire.DecodeSample(payload)
	require.NoError(t, err)
	assert.Equal(t, 1.0, got)
}

func TestRunStop(t *testing.T) {
	src := &countingSource{}
	radio := &fakeRadio{}
	p := New(src, radio, nil)

	p.Dispatch(Event{Type: EventConnected, CentralID: "aa:bb"})
	p.Dispatch(Event{Type: EventDescriptorWritten, Value: 0x0001})

	p.Run(10 * time.Millisecond)
	assert.Eventually(t, func() bool {
		p.mutex.Lock()
		defer p.mutex.Unlock()
		return src.reads >= 2
	}, time.Second, 5*time.Millisecond)
	p.Stop()

	// Stop is idempotent.
	p.Stop()
}
