package safety

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDualChannelCompare(t *testing.T) {
	assert.NoError(t, DualChannelCompare(1.0, 1.05, 0.1))
	err := DualChannelCompare(1.0, 2.0, 0.1)
	assert.True(t, errors.Is(err, ErrDualChannelMismatch))
}

func TestRangeCheck(t *testing.T) {
	assert.NoError(t, RangeCheck(0.5, 0, 1))
	assert.True(t, errors.Is(RangeCheck(-0.1, 0, 1), ErrOutOfRange))
	assert.True(t, errors.Is(RangeCheck(1.1, 0, 1), ErrOutOfRange))
}

func TestPlausibility(t *testing.T) {
	assert.True(t, errors.Is(Plausibility(10, 5, 100, 0), ErrInvalidParam))
	// delta of 5 over 10ms = 500/s, below max rate of 1000/s -> ok
	assert.NoError(t, Plausibility(10, 5, 1000, 10))
	// delta of 5 over 10ms = 500/s, above max rate of 100/s -> implausible
	assert.True(t, errors.Is(Plausibility(10, 5, 100, 10), ErrImplausible))
}

func TestTemporalCheckStuckSensor(t *testing.T) {
	frozen := []float64{12.001, 12.002, 12.0005, 12.0015}
	assert.True(t, errors.Is(TemporalCheck(frozen, 0.01), ErrStuckSensor))

	moving := []float64{10, 20, 30, 40}
	assert.NoError(t, TemporalCheck(moving, 0.01))

	assert.NoError(t, TemporalCheck([]float64{1}, 0.01))
	assert.NoError(t, TemporalCheck(nil, 0.01))
}

func TestCanaryDetectsAndRecovers(t *testing.T) {
	c := NewCanary()
	assert.NoError(t, c.Check())

	c.HeapGuard = 0x1
	err := c.Check()
	assert.True(t, errors.Is(err, ErrMemoryCorruption))
	// Best-effort recovery: subsequent check passes again.
	assert.NoError(t, c.Check())
}
