// Package sensor defines the sampling source the peripheral reads from and
// provides the implementations shipped with the firmware.
//
// The physical load-cell amplifier sits behind the Source interface; any
// synchronous scalar sampler can be plugged in.
package sensor

import (
	log "github.com/sirupsen/logrus"
)

// Source produces one weight sample, in grams, on demand. Read must be fast
// and non-blocking: it is called from the sampling tick and from client read
// requests, never from an interrupt-like context, but it must not stall
// either of them.
type Source interface {
	Read() (float64, error)
}

// SourceFunc adapts a plain function to the Source interface.
type SourceFunc func() (float64, error)

// Read calls f.
func (f SourceFunc) Read() (float64, error) {
	return f()
}

// Latched wraps a Source and absorbs read faults: a failed read logs the
// error and returns the last successfully read value instead. Before any
// successful read the fallback is zero. The scheduler therefore never sees
// an error from a latched source, only stale values while the sensor is
// unhealthy.
type Latched struct {
	src  Source
	last float64
}

// NewLatched wraps src with last-known-value fault latching.
func NewLatched(src Source) *Latched {
	return &Latched{src: src}
}

// Read reads from the underlying source, falling back to the last good value.
func (l *Latched) Read() (float64, error) {
	v, err := l.src.Read()
	if err != nil {
		log.Warnf("sensor read failed, holding last value %.1fg: %v", l.last, err)
		return l.last, nil
	}
	l.last = v
	return v, nil
}
