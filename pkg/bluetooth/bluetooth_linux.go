//go:build linux

package bluetooth

import (
	"encoding/hex"
	"fmt"
	"sync"

	"github.com/paypal/gatt"
	"github.com/paypal/gatt/linux/cmd"
	log "github.com/sirupsen/logrus"
)

// DefaultServerOptions configures the HCI device for a single-connection
// peripheral.
var DefaultServerOptions = []gatt.Option{
	gatt.LnxMaxConnections(1),
	gatt.LnxDeviceID(-1, true),
	gatt.LnxSetAdvertisingParameters(&cmd.LESetAdvertisingParameters{
		AdvertisingIntervalMin: 0x00f4,
		AdvertisingIntervalMax: 0x00f4,
		AdvertisingChannelMap:  0x7,
	}),
}

// Ble represents the Bluetooth Low Energy device
type Ble struct {
	device      gatt.Device
	deviceName  string
	serviceUUID gatt.UUID

	// Notifier for the weight characteristic, nil while unsubscribed
	notifier     gatt.Notifier
	subscribed   bool
	notifiersMtx sync.Mutex

	// Resting characteristic value returned by reads when no read handler
	// is registered
	charData    []byte
	charDataMtx sync.RWMutex

	// Handlers
	connectionHandler   ConnectionHandler
	readHandler         ReadHandler
	subscriptionHandler SubscriptionHandler
}

// New opens the HCI device. Handlers must be registered before Start.
func New(adapterID string) (*Ble, error) {
	d, err := gatt.NewDevice(DefaultServerOptions...)
	if err != nil {
		return nil, fmt.Errorf("could not open device %s: %w", adapterID, err)
	}

	return &Ble{
		device:      d,
		serviceUUID: gatt.MustParseUUID(ScaleServiceUUID),
	}, nil
}

// SetConnectionHandler sets the callback for central connect/disconnect.
func (b *Ble) SetConnectionHandler(handler ConnectionHandler) {
	b.connectionHandler = handler
}

// SetReadHandler sets the callback producing the payload for a manual read.
func (b *Ble) SetReadHandler(handler ReadHandler) {
	b.readHandler = handler
}

// SetSubscriptionHandler sets the callback for CCCD subscription changes.
func (b *Ble) SetSubscriptionHandler(handler SubscriptionHandler) {
	b.subscriptionHandler = handler
}

// Start performs the one-time boot sequence: registers the connection
// callbacks, initializes the radio, and - once the adapter reports powered
// on - registers the service and begins advertising under deviceName.
func (b *Ble) Start(deviceName string) error {
	b.deviceName = deviceName

	b.device.Handle(
		gatt.CentralConnected(func(c gatt.Central) {
			log.Debugf("pkg bluetooth; central connected: %s", c.ID())
			if b.connectionHandler != nil {
				b.connectionHandler(true, c.ID())
			}
		}),
		gatt.CentralDisconnected(func(c gatt.Central) {
			log.Debugf("pkg bluetooth; central disconnected: %s", c.ID())
			b.notifiersMtx.Lock()
			b.notifier = nil
			b.subscribed = false
			b.notifiersMtx.Unlock()
			if b.connectionHandler != nil {
				b.connectionHandler(false, c.ID())
			}
		}),
	)

	onStateChanged := func(d gatt.Device, s gatt.State) {
		log.Infof("pkg bluetooth; state: %s", s)
		switch s {
		case gatt.StatePoweredOn:
			b.setupService(d)
		default:
		}
	}

	if err := b.device.Init(onStateChanged); err != nil {
		return fmt.Errorf("could not init bluetooth: %w", err)
	}
	return nil
}

// setupService creates the scale service with its weight characteristic
func (b *Ble) setupService(d gatt.Device) {
	s := gatt.NewService(b.serviceUUID)
	char := s.AddCharacteristic(gatt.MustParseUUID(WeightCharUUID))

	// Manual reads force a fresh sample through the read handler; the
	// stored value is only the fallback before the handler is wired.
	char.HandleReadFunc(func(rsp gatt.ResponseWriter, req *gatt.ReadRequest) {
		b.charDataMtx.RLock()
		data := b.charData
		b.charDataMtx.RUnlock()

		if b.readHandler != nil {
			data = b.readHandler()
		}
		if data == nil {
			data = []byte{}
		}

		log.Tracef("pkg bluetooth; read request, responding with: %s", hex.EncodeToString(data))
		if _, err := rsp.Write(data); err != nil {
			log.Warnf("pkg bluetooth; read response failed: %v", err)
		}
	})

	// gatt invokes this when the central sets the CCCD notify bit. The
	// clearing write has no callback of its own; it is detected in Notify
	// via the closed notifier.
	char.HandleNotifyFunc(func(r gatt.Request, n gatt.Notifier) {
		b.notifiersMtx.Lock()
		b.notifier = n
		b.subscribed = true
		b.notifiersMtx.Unlock()
		log.Infof("pkg bluetooth; notifications enabled from %s", r.Central.ID())
		if b.subscriptionHandler != nil {
			b.subscriptionHandler(CCCDNotify)
		}
	})

	if err := d.AddService(s); err != nil {
		log.Errorf("pkg bluetooth; could not add service: %s", err)
		return
	}

	if err := d.AdvertiseNameAndServices(b.deviceName, []gatt.UUID{b.serviceUUID}); err != nil {
		log.Errorf("pkg bluetooth; could not advertise: %s", err)
		return
	}

	log.Infof("pkg bluetooth; advertising as %q, service %s", b.deviceName, ScaleServiceUUID)
}

// StartAdvertising resumes advertising. The stack stops advertising when a
// central connects and does not resume it on disconnect; the supervisor
// calls this after every disconnect.
func (b *Ble) StartAdvertising() error {
	return b.device.AdvertiseNameAndServices(b.deviceName, []gatt.UUID{b.serviceUUID})
}

// SetCharacteristicValue updates the resting value returned by a read when
// no read handler is registered.
func (b *Ble) SetCharacteristicValue(data []byte) {
	b.charDataMtx.Lock()
	defer b.charDataMtx.Unlock()
	b.charData = data
}

// Notify pushes a payload to the subscribed central. Fails when nobody is
// subscribed or the link cannot accept the write.
func (b *Ble) Notify(data []byte) error {
	b.notifiersMtx.Lock()
	notifier := b.notifier
	wasSubscribed := b.subscribed
	b.notifiersMtx.Unlock()

	if notifier == nil {
		return fmt.Errorf("no subscriber")
	}

	if notifier.Done() {
		// The central cleared the CCCD; gatt closed the notifier without
		// a callback. Report the descriptor write upward on its own
		// goroutine, like any other stack event, so the caller's tick
		// finishes first.
		b.notifiersMtx.Lock()
		b.notifier = nil
		b.subscribed = false
		b.notifiersMtx.Unlock()
		if wasSubscribed && b.subscriptionHandler != nil {
			go b.subscriptionHandler(CCCDOff)
		}
		return fmt.Errorf("subscription closed")
	}

	log.Tracef("pkg bluetooth; sending notification: %s", hex.EncodeToString(data))
	if _, err := notifier.Write(data); err != nil {
		return fmt.Errorf("notify write failed: %w", err)
	}
	return nil
}

// Stop stops advertising.
func (b *Ble) Stop() error {
	return b.device.StopAdvertising()
}
