package diagnostics

import (
	"bytes"
	"errors"
	"testing"

	"github.com/ebs-eps/core/pkg/safety"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCode Code = 0x5001

// Property 8: a DTC set three times, or once followed by waiting
// DIAG_CONFIRM_TIME_MS, becomes confirmed and emits exactly one
// DtcConfirmed event.
func TestDTCPromotionByCount(t *testing.T) {
	s := NewStore(nil)
	require.NoError(t, s.SetDTC(testCode, 0))
	require.NoError(t, s.SetDTC(testCode, 10))
	entry, ok := s.Statistics(testCode)
	require.True(t, ok)
	assert.False(t, entry.Confirmed)

	require.NoError(t, s.SetDTC(testCode, 20))
	entry, _ = s.Statistics(testCode)
	assert.True(t, entry.Confirmed)
	assert.Equal(t, 1, countEvents(s, EventDtcConfirmed))
}

func TestDTCPromotionByTime(t *testing.T) {
	s := NewStore(nil)
	require.NoError(t, s.SetDTC(testCode, 0))
	entry, _ := s.Statistics(testCode)
	assert.False(t, entry.Confirmed)

	require.NoError(t, s.SetDTC(testCode, ConfirmTimeMs))
	entry, _ = s.Statistics(testCode)
	assert.True(t, entry.Confirmed)
	assert.Equal(t, 1, countEvents(s, EventDtcConfirmed))
}

func TestDTCClearAndReactivate(t *testing.T) {
	s := NewStore(nil)
	require.NoError(t, s.SetDTC(testCode, 0))
	assert.True(t, s.IsActive(testCode))
	assert.Equal(t, 1, s.ActiveCount())

	require.NoError(t, s.ClearDTC(testCode, 100))
	assert.False(t, s.IsActive(testCode))
	assert.Equal(t, 0, s.ActiveCount())

	require.NoError(t, s.SetDTC(testCode, 200))
	assert.True(t, s.IsActive(testCode))
	entry, _ := s.Statistics(testCode)
	assert.Equal(t, uint32(1), entry.ClearCount)
}

func TestDTCBufferFull(t *testing.T) {
	s := NewStore(nil)
	for i := 0; i < MaxDTC; i++ {
		require.NoError(t, s.SetDTC(Code(i+1), 0))
	}
	err := s.SetDTC(Code(MaxDTC+1), 0)
	assert.True(t, errors.Is(err, safety.ErrBufferFull))
}

// Property 9: after DIAG_MAX_EVENTS+k writes, exactly the last
// DIAG_MAX_EVENTS survive in FIFO order.
func TestEventLogWraps(t *testing.T) {
	s := NewStore(nil)
	const extra = 7
	for i := 0; i < MaxEvents+extra; i++ {
		s.LogEvent(uint8(EventDtcSet), uint32(i), uint32(i))
	}
	events := s.Events()
	require.Equal(t, MaxEvents, len(events))
	for i, e := range events {
		assert.Equal(t, uint32(extra+i), e.Data)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s := NewStore(nil)
	require.NoError(t, s.SetDTC(testCode, 0))
	require.NoError(t, s.SetDTC(testCode, 10))
	require.NoError(t, s.SetDTC(Code(0x1234), 5))
	require.NoError(t, s.ClearDTC(Code(0x1234), 15))

	var buf bytes.Buffer
	require.NoError(t, s.Save(&buf))

	restored := NewStore(nil)
	require.NoError(t, restored.Load(&buf))

	assert.Equal(t, s.ActiveCount(), restored.ActiveCount())
	origEntry, _ := s.Statistics(testCode)
	restoredEntry, _ := restored.Statistics(testCode)
	assert.Equal(t, origEntry, restoredEntry)
	assert.Equal(t, s.Events(), restored.Events())
}

func countEvents(s *Store, t EventType) int {
	n := 0
	for _, e := range s.Events() {
		if e.Type == t {
			n++
		}
	}
	return n
}
