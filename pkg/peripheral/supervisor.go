package peripheral

import (
	"fmt"

	log "github.com/sirupsen/logrus"
)

// advertisingRestartAttempts bounds how often a failed advertising restart is
// retried before the fault is escalated.
const advertisingRestartAttempts = 3

// Advertiser restarts advertising after a disconnect. The BLE stack stops
// advertising on connect by itself but never resumes it; forgetting this call
// leaves the peripheral undiscoverable forever.
type Advertiser interface {
	StartAdvertising() error
}

// ConnectionSupervisor tracks the single-central connection state and owns
// the advertising restart rule. Not safe for concurrent use on its own; the
// owning Peripheral serializes access.
type ConnectionSupervisor struct {
	adv       Advertiser
	connected bool
	centralID string

	// onFault is invoked when advertising could not be restarted after
	// bounded retries. The peripheral is undiscoverable at that point.
	onFault func(error)
}

// NewConnectionSupervisor creates a supervisor in the Idle (advertising)
// state. onFault may be nil.
func NewConnectionSupervisor(adv Advertiser, onFault func(error)) *ConnectionSupervisor {
	return &ConnectionSupervisor{adv: adv, onFault: onFault}
}

// IsConnected reports whether a central is attached.
func (s *ConnectionSupervisor) IsConnected() bool {
	return s.connected
}

// CentralID returns the identifier of the attached central, or "" when idle.
func (s *ConnectionSupervisor) CentralID() string {
	return s.centralID
}

// HandleConnect processes a connect event. Only one central is modeled: a
// second connect while one is already attached is outside the design's
// assumptions, so it is logged and ignored, keeping the first central
// authoritative. Returns whether the connection was accepted.
func (s *ConnectionSupervisor) HandleConnect(centralID string) bool {
	if s.connected {
		log.Errorf("unexpected connect from %s while %s is attached, ignoring", centralID, s.centralID)
		return false
	}
	s.connected = true
	s.centralID = centralID
	log.Infof("central %s connected", centralID)
	return true
}

// HandleDisconnect processes a disconnect event and restarts advertising so
// the peripheral stays discoverable.
func (s *ConnectionSupervisor) HandleDisconnect(centralID string) {
	if !s.connected {
		log.Warnf("disconnect from %s while idle, ignoring", centralID)
		return
	}
	log.Infof("central %s disconnected", s.centralID)
	s.connected = false
	s.centralID = ""
	s.restartAdvertising()
}

func (s *ConnectionSupervisor) restartAdvertising() {
	var err error
	for attempt := 1; attempt <= advertisingRestartAttempts; attempt++ {
		if err = s.adv.StartAdvertising(); err == nil {
			log.Debug("advertising restarted")
			return
		}
		log.Warnf("advertising restart attempt %d/%d failed: %v", attempt, advertisingRestartAttempts, err)
	}

	log.Errorf("advertising could not be restarted, peripheral is undiscoverable: %v", err)
	if s.onFault != nil {
		s.onFault(fmt.Errorf("advertising restart failed after %d attempts: %w", advertisingRestartAttempts, err))
	}
}
