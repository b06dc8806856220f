//go:build !linux

package bluetooth

import (
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"
)

// Ble represents the Bluetooth Low Energy device (stub for non-Linux
// platforms)
type Ble struct {
	charData    []byte
	charDataMtx sync.RWMutex

	connectionHandler   ConnectionHandler
	readHandler         ReadHandler
	subscriptionHandler SubscriptionHandler
}

// New creates a stub BLE device (bluetooth is only supported on Linux).
func New(adapterID string) (*Ble, error) {
	log.Warn("Bluetooth is only supported on Linux. Creating stub BLE instance.")
	return &Ble{}, nil
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

// Start is a no-op on non-Linux platforms.
func (b *Ble) Start(deviceName string) error {
	log.Warnf("Start(%q) called on non-Linux platform (no-op)", deviceName)
	return nil
}

// StartAdvertising is a no-op on non-Linux platforms.
func (b *Ble) StartAdvertising() error {
	log.Debug("StartAdvertising called on non-Linux platform (no-op)")
	return nil
}

// SetCharacteristicValue stores the resting value (never served on stub).
func (b *Ble) SetCharacteristicValue(data []byte) {
	b.charDataMtx.Lock()
	defer b.charDataMtx.Unlock()
	b.charData = data
}

// Notify always fails on non-Linux platforms.
func (b *Ble) Notify(data []byte) error {
	return fmt.Errorf("bluetooth not supported on this platform")
}

// Stop is a no-op on non-Linux platforms.
func (b *Ble) Stop() error {
	return nil
}
