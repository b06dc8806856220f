package peripheral

import (
	log "github.com/sirupsen/logrus"

	"github.com/octoco-ltd/scalelink/pkg/sensor"
	"github.com/octoco-ltd/scalelink/pkg/wire"
)

// Sink is the slice of the radio facade the scheduler pushes samples through.
type Sink interface {
	// Notify pushes a payload to the subscribed central.
	Notify(data []byte) error
	// SetCharacteristicValue updates the resting value a manual read
	// falls back to.
	SetCharacteristicValue(data []byte)
}

// SamplingScheduler runs the per-tick sampling decision: read the sensor and
// push a notification, but only while a central is connected and subscribed.
// Not safe for concurrent use on its own; the owning Peripheral serializes
// ticks against stack events.
type SamplingScheduler struct {
	source sensor.Source
	sink   Sink

	supervisor *ConnectionSupervisor
	gate       *NotificationGate

	// onSample observes successfully read samples, nil to disable.
	onSample func(grams float64)
}

// NewSamplingScheduler wires the scheduler to its collaborators. onSample may
// be nil.
func NewSamplingScheduler(source sensor.Source, sink Sink, supervisor *ConnectionSupervisor, gate *NotificationGate, onSample func(float64)) *SamplingScheduler {
	return &SamplingScheduler{
		source:     source,
		sink:       sink,
		supervisor: supervisor,
		gate:       gate,
		onSample:   onSample,
	}
}

// Tick performs one scheduling decision. The active flag is recomputed from
// the connection and subscription state every time rather than cached, so a
// disconnect processed between ticks is always observed.
func (s *SamplingScheduler) Tick() {
	if !s.supervisor.IsConnected() || !s.gate.IsEnabled() {
		// Idle branch: no sensor read, no radio traffic.
		return
	}

	grams, err := s.source.Read()
	if err != nil {
		log.Warnf("skipping tick, sensor read failed: %v", err)
		return
	}

	payload := wire.EncodeSample(grams)
	s.sink.SetCharacteristicValue(payload)

	if err := s.sink.Notify(payload); err != nil {
		// Dropped sample. The next tick sends a fresh reading; a stale
		// sample is never worth queueing.
		log.Debugf("dropped sample %.1fg, notify failed: %v", grams, err)
		return
	}

	log.Tracef("notified sample %.1fg", grams)
	if s.onSample != nil {
		s.onSample(grams)
	}
}
