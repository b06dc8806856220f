package peripheral

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/octoco-ltd/scalelink/pkg/sensor"
	"github.com/octoco-ltd/scalelink/pkg/wire"
)

// countingSource returns an increasing reading so consecutive samples are
// distinguishable.
type countingSource struct {
	reads int
	err   error
}

func (c *countingSource) Read() (float64, error) {
	c.reads++
	if c.err != nil {
		return 0, c.err
	}
	return float64(c.reads), nil
}

// fakeRadio records facade calls and can fail notifies on demand.
type fakeRadio struct {
	fakeAdvertiser

	notified  [][]byte
	values    [][]byte
	notifyErr error
}

func (f *fakeRadio) Notify(data []byte) error {
	if f.notifyErr != nil {
		return f.notifyErr
	}
	f.notified = append(f.notified, data)
	return nil
}

func (f *fakeRadio) SetCharacteristicValue(data []byte) {
	f.values = append(f.values, data)
}

func newTestScheduler(src sensor.Source, radio *fakeRadio) (*SamplingScheduler, *ConnectionSupervisor, *NotificationGate) {
	sup := NewConnectionSupervisor(radio, nil)
	gate := &NotificationGate{}
	return NewSamplingScheduler(src, radio, sup, gate, nil), sup, gate
}

func TestTickIdlesWhenDisconnected(t *testing.T) {
	src := &countingSource{}
	radio := &fakeRadio{}
	sched, _, gate := newTestScheduler(src, radio)
	gate.OnDescriptorWrite(0x0001)

	sched.Tick()

	assert.Zero(t, src.reads, "idle tick must not touch the sensor")
	assert.Empty(t, radio.notified)
	assert.Empty(t, radio.values)
}

func TestTickIdlesWhenUnsubscribed(t *testing.T) {
	src := &countingSource{}
	radio := &fakeRadio{}
	sched, sup, _ := newTestScheduler(src, radio)
	require.True(t, sup.HandleConnect("aa:bb"))

	sched.Tick()

	assert.Zero(t, src.reads)
	assert.Empty(t, radio.notified)
}

func TestTickSamplesAndNotifiesWhenActive(t *testing.T) {
	src := &countingSource{}
	radio := &fakeRadio{}
	sched, sup, gate := newTestScheduler(src, radio)
	require.True(t, sup.HandleConnect("aa:bb"))
	gate.OnDescriptorWrite(0x0001)

	sched.Tick()
	sched.Tick()

	assert.Equal(t, 2, src.reads, "one sensor read per active tick")
	require.Len(t, radio.notified, 2)
	require.Len(t, radio.values, 2)

	first, err := wire.DecodeSample(radio.notified[0])
	require.NoError(t, err)
	second, err := wire.DecodeSample(radio.notified[1])
	require.NoError(t, err)
	assert.Equal(t, 1.0, first)
	assert.Equal(t, 2.0, second)

	// the resting value always matches the last notified sample
	assert.Equal(t, radio.notified[1], radio.values[1])
}

func TestTickDropsSampleOnNotifyFailure(t *testing.T) {
	src := &countingSource{}
	radio := &fakeRadio{notifyErr: errors.New("link busy")}
	sched, sup, gate := newTestScheduler(src, radio)
	require.True(t, sup.HandleConnect("aa:bb"))
	gate.OnDescriptorWrite(0x0001)

	sched.Tick()
	assert.Equal(t, 1, src.reads)
	assert.Empty(t, radio.notified)

	// link recovers: the next tick carries a fresh sample, not a replay
	radio.notifyErr = nil
	sched.Tick()
	require.Len(t, radio.notified, 1)
	got, err := wire.DecodeSample(radio.notified[0])
	require.NoError(t, err)
	assert.Equal(t, 2.0, got)
}

func TestTickSkipsNotifyOnSensorFault(t *testing.T) {
	src := &countingSource{err: errors.New("sensor dead")}
	radio := &fakeRadio{}
	sched, sup, gate := newTestScheduler(src, radio)
	require.True(t, sup.HandleConnect("aa:bb"))
	gate.OnDescriptorWrite(0x0001)

	sched.Tick()

	assert.Equal(t, 1, src.reads)
	assert.Empty(t, radio.notified)
	assert.Empty(t, radio.values)
}
