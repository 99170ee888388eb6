package safety

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

// Property 10 (first half): an early kick below min_interval exactly
// MaxEarlyKicks+1 times raises WatchdogViolation.
func TestWatchdogEarlyKickViolation(t *testing.T) {
	w := NewWatchdog("main", 100, 10)
	assert.NoError(t, w.Kick(0)) // first kick always accepted

	var err error
	for i := 0; i < MaxEarlyKicks; i++ {
		// 1ms apart, well under the 10ms min interval.
		err = w.Kick(uint32(1 + i))
		assert.NoError(t, err, "kick %d should not yet violate", i)
	}
	err = w.Kick(uint32(1 + MaxEarlyKicks))
	assert.True(t, errors.Is(err, ErrWatchdogViolation))
}

// Property 10 (second half): a kick beyond timeout raises it on the
// next monitor call (CheckTimeout here stands in for "next monitor
// call").
func TestWatchdogTimeoutViolation(t *testing.T) {
	w := NewWatchdog("main", 50, 5)
	assert.NoError(t, w.Kick(0))
	assert.NoError(t, w.CheckTimeout(40))
	err := w.CheckTimeout(51)
	assert.True(t, errors.Is(err, ErrWatchdogViolation))
}

func TestWatchdogNormalKickResetsEarlyCount(t *testing.T) {
	w := NewWatchdog("main", 100, 10)
	assert.NoError(t, w.Kick(0))
	assert.NoError(t, w.Kick(5)) // early
	assert.Equal(t, uint32(1), w.EarlyKickCount())
	assert.NoError(t, w.Kick(20)) // normal cadence, resets early count
	assert.Equal(t, uint32(0), w.EarlyKickCount())
}

func TestWatchdogWrapAround(t *testing.T) {
	w := NewWatchdog("main", 100, 10)
	nearWrap := ^uint32(0) - 5
	assert.NoError(t, w.Kick(nearWrap))
	// Wraps past zero; unsigned modular subtraction should see this as
	// a ~20ms delta, not an enormous one.
	assert.NoError(t, w.CheckTimeout(nearWrap + 20))
}
