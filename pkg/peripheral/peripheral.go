// Package peripheral implements the connection/advertising/sampling state
// machine of the BLE scale peripheral.
//
// Three asynchronous sources drive it: connection lifecycle callbacks,
// subscription descriptor writes, and the periodic sampling tick. A single
// mutex serializes all of them, so a disconnect is always fully processed
// (connection state flipped, advertising restarted, subscription cleared)
// before the next tick decides whether to sample.
package peripheral

import (
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/octoco-ltd/scalelink/pkg/sensor"
	"github.com/octoco-ltd/scalelink/pkg/wire"
)

// Radio is the full facade surface the peripheral drives: sample delivery
// plus advertising control.
type Radio interface {
	Sink
	Advertiser
}

// NoticeKind classifies observer notices.
type NoticeKind string

const (
	NoticeConnected    NoticeKind = "connected"
	NoticeDisconnected NoticeKind = "disconnected"
	NoticeSubscribed   NoticeKind = "subscribed"
	NoticeUnsubscribed NoticeKind = "unsubscribed"
	NoticeSample       NoticeKind = "sample"
	NoticeRead         NoticeKind = "read"
	NoticeFault        NoticeKind = "fault"
)

// Notice is a state change or sample reported to an observer (the control
// API). Delivery is best effort and synchronous with the state change.
type Notice struct {
	Kind      NoticeKind
	CentralID string
	Grams     float64
	Err       error
}

// Observer receives notices. It is called with the peripheral lock held and
// must not call back into the peripheral.
type Observer func(Notice)

// Peripheral aggregates the supervisor, gate and scheduler behind one lock.
type Peripheral struct {
	mutex sync.Mutex

	source     sensor.Source
	radio      Radio
	supervisor *ConnectionSupervisor
	gate       *NotificationGate
	scheduler  *SamplingScheduler

	observer Observer

	running  bool
	stopChan chan struct{}
	ticker   *time.Ticker
}

// New builds the peripheral state machine around a sample source and a radio
// facade. observer may be nil.
func New(source sensor.Source, radio Radio, observer Observer) *Peripheral {
	p := &Peripheral{
		source:   source,
		radio:    radio,
		observer: observer,
		stopChan: make(chan struct{}),
	}
	p.gate = &NotificationGate{}
	p.supervisor = NewConnectionSupervisor(radio, func(err error) {
		p.emit(Notice{Kind: NoticeFault, Err: err})
	})
	p.scheduler = NewSamplingScheduler(source, radio, p.supervisor, p.gate, func(grams float64) {
		p.emit(Notice{Kind: NoticeSample, Grams: grams})
	})
	return p
}

// IsConnected reports whether a central is attached.
func (p *Peripheral) IsConnected() bool {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.supervisor.IsConnected()
}

// IsSubscribed reports whether the attached central enabled notifications.
func (p *Peripheral) IsSubscribed() bool {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.gate.IsEnabled()
}

// Dispatch feeds one stack event through the state machine.
func (p *Peripheral) Dispatch(ev Event) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	log.Tracef("dispatching %s event", ev.Type)

	switch ev.Type {
	case EventConnected:
		if p.supervisor.HandleConnect(ev.CentralID) {
			p.emit(Notice{Kind: NoticeConnected, CentralID: ev.CentralID})
		}
	case EventDisconnected:
		wasConnected := p.supervisor.IsConnected()
		p.supervisor.HandleDisconnect(ev.CentralID)
		p.gate.Reset()
		if wasConnected {
			p.emit(Notice{Kind: NoticeDisconnected, CentralID: ev.CentralID})
		}
	case EventDescriptorWritten:
		p.gate.OnDescriptorWrite(ev.Value)
		kind := NoticeUnsubscribed
		if p.gate.IsEnabled() {
			kind = NoticeSubscribed
		}
		p.emit(Notice{Kind: kind})
	case EventCharacteristicRead:
		// Read data flows through ReadSample; the event is informational.
	default:
		log.Warnf("ignoring unknown event type %d", ev.Type)
	}
}

// Tick runs one scheduler pass. Exposed for tests; Run drives it in
// production.
func (p *Peripheral) Tick() {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.scheduler.Tick()
}

// ReadSample services a manual characteristic read: it always forces a fresh
// sensor read, updates the resting characteristic value, and returns the
// encoded payload. Reads are deliberately not served from the cached value.
func (p *Peripheral) ReadSample() []byte {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	grams, err := p.source.Read()
	if err != nil {
		log.Warnf("manual read, sensor failed, returning sentinel: %v", err)
		grams = 0
	}

	payload := wire.EncodeSample(grams)
	p.radio.SetCharacteristicValue(payload)
	p.emit(Notice{Kind: NoticeRead, Grams: grams})
	return payload
}

// Run starts the periodic sampling loop. Returns immediately; the loop runs
// until Stop.
func (p *Peripheral) Run(interval time.Duration) {
	p.mutex.Lock()
	if p.running {
		p.mutex.Unlock()
		return
	}
	p.running = true
	p.ticker = time.NewTicker(interval)
	p.mutex.Unlock()

	log.Infof("starting sampling loop with tick interval %v", interval)
	go p.loop()
}

// Stop halts the sampling loop.
func (p *Peripheral) Stop() {
	p.mutex.Lock()
	if !p.running {
		p.mutex.Unlock()
		return
	}
	p.running = false
	p.ticker.Stop()
	p.mutex.Unlock()

	log.Info("stopping sampling loop")
	p.stopChan <- struct{}{}
}

func (p *Peripheral) loop() {
	for {
		select {
		case <-p.ticker.C:
			p.Tick()
		case <-p.stopChan:
			return
		}
	}
}

// emit calls the observer. Callers hold the peripheral lock.
func (p *Peripheral) emit(n Notice) {
	if p.observer != nil {
		p.observer(n)
	}
}
