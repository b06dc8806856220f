package sensor

import (
	"math/rand"
	"sync"
)

// Simulated models a load cell without hardware: the reading settles toward a
// target weight with a little noise on top, the way a real platform scale
// behaves when a mass is placed on it. The target can be changed at runtime
// (e.g. from the control API) and the scale can be tared.
type Simulated struct {
	mutex   sync.Mutex
	target  float64 // grams the "scale" should settle at
	current float64 // grams currently reported
	offset  float64 // tare offset subtracted from readings
	noise   float64 // noise amplitude in grams
	settle  float64 // fraction of the remaining gap closed per read
}

// NewSimulated creates a simulated scale reading zero with the given noise
// amplitude in grams.
func NewSimulated(noise float64) *Simulated {
	return &Simulated{
		noise:  noise,
		settle: 0.3,
	}
}

// Read returns the current simulated weight, advancing the settling model by
// one step. It never fails.
func (s *Simulated) Read() (float64, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.current += (s.target - s.current) * s.settle
	v := s.current - s.offset
	if s.noise > 0 {
		v += (rand.Float64()*2 - 1) * s.noise
	}
	return v, nil
}

// SetWeight sets the weight the simulated scale settles toward, in grams.
func (s *Simulated) SetWeight(grams float64) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.target = grams
}

// Tare zeroes the scale at its current settled reading.
func (s *Simulated) Tare() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.offset = s.current
}

// Target returns the weight the scale is settling toward, in grams.
func (s *Simulated) Target() float64 {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.target
}
