package sensor

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLatchedPassesThroughGoodReads(t *testing.T) {
	src := SourceFunc(func() (float64, error) { return 42.5, nil })
	l := NewLatched(src)

	v, err := l.Read()
	require.NoError(t, err)
	assert.Equal(t, 42.5, v)
}

func TestLatchedHoldsLastValueOnFault(t *testing.T) {
	healthy := true
	src := SourceFunc(func() (float64, error) {
		if !healthy {
			return 0, errors.New("hx711 timeout")
		}
		return 100.0, nil
	})
	l := NewLatched(src)

	v, err := l.Read()
	require.NoError(t, err)
	assert.Equal(t, 100.0, v)

	healthy = false
	v, err = l.Read()
	require.NoError(t, err)
	assert.Equal(t, 100.0, v, "fault should return the last good value")
}

func TestLatchedSentinelBeforeFirstSuccess(t *testing.T) {
	src := SourceFunc(func() (float64, error) { return 0, errors.New("not ready") })
	l := NewLatched(src)

	v, err := l.Read()
	require.NoError(t, err)
	assert.Zero(t, v)
}

func TestSimulatedSettlesTowardTarget(t *testing.T) {
	s := NewSimulated(0)
	s.SetWeight(500)

	var v float64
	for i := 0; i < 50; i++ {
		v, _ = s.Read()
	}
	assert.InDelta(t, 500, v, 1.0)
}

func TestSimulatedTare(t *testing.T) {
	s := NewSimulated(0)
	s.SetWeight(200)
	for i := 0; i < 50; i++ {
		s.Read()
	}
	s.Tare()

	v, err := s.Read()
	require.NoError(t, err)
	assert.InDelta(t, 0, v, 1.0)
}

func TestSimulatedNoiseStaysBounded(t *testing.T) {
	s := NewSimulated(2.0)
	for i := 0; i < 100; i++ {
		v, err := s.Read()
		require.NoError(t, err)
		assert.LessOrEqual(t, v, 2.0)
		assert.GreaterOrEqual(t, v, -2.0)
	}
}
