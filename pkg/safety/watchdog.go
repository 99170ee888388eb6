package safety

import "fmt"

// MaxEarlyKicks is the number of early kicks tolerated before a
// watchdog reports a violation (spec §4.4).
const MaxEarlyKicks = 3

// Watchdog is one safety watchdog descriptor (spec §3, §4.4). now -
// lastKick arithmetic is unsigned-modular per spec §6 so a 32-bit
// millisecond tick can wrap every ~49 days without a spurious
// violation.
type Watchdog struct {
	Name         string
	Enabled      bool
	TimeoutMs    uint32
	MinIntervalMs uint32

	lastKickMs    uint32
	kickCount     uint64
	timeoutCount  uint64
	earlyKickCount uint32
}

// NewWatchdog returns an enabled watchdog with the given timing bounds.
func NewWatchdog(name string, timeoutMs, minIntervalMs uint32) *Watchdog {
	return &Watchdog{
		Name:          name,
		Enabled:       true,
		TimeoutMs:     timeoutMs,
		MinIntervalMs: minIntervalMs,
	}
}

// KickCount, TimeoutCount, EarlyKickCount expose the monotone counters
// for diagnostics/telemetry.
func (w *Watchdog) KickCount() uint64      { return w.kickCount }
func (w *Watchdog) TimeoutCount() uint64   { return w.timeoutCount }
func (w *Watchdog) EarlyKickCount() uint32 { return w.earlyKickCount }
func (w *Watchdog) LastKickMs() uint32     { return w.lastKickMs }

// Kick applies the kick rules from spec §4.4:
//   - delta < min_interval: increments the early-kick counter; once it
//     exceeds MaxEarlyKicks, reports ErrWatchdogViolation;
//   - delta > timeout: increments the timeout counter and reports
//     ErrWatchdogViolation;
//   - otherwise: resets the early-kick counter and records the kick.
func (w *Watchdog) Kick(nowMs uint32) error {
	delta := nowMs - w.lastKickMs // unsigned modular subtraction, wrap-safe
	switch {
	case w.kickCount == 0:
		// First kick ever: nothing to compare against yet.
		w.lastKickMs = nowMs
		w.kickCount++
		w.earlyKickCount = 0
		return nil
	case delta < w.MinIntervalMs:
		w.earlyKickCount++
		if w.earlyKickCount > MaxEarlyKicks {
			return fmt.Errorf("watchdog %q: %d early kicks: %w", w.Name, w.earlyKickCount, ErrWatchdogViolation)
		}
		return nil
	case delta > w.TimeoutMs:
		w.timeoutCount++
		return fmt.Errorf("watchdog %q: delta=%dms exceeds timeout=%dms: %w", w.Name, delta, w.TimeoutMs, ErrWatchdogViolation)
	default:
		w.earlyKickCount = 0
		w.lastKickMs = nowMs
		w.kickCount++
		return nil
	}
}

// CheckTimeout verifies the watchdog is within timeout without
// performing a kick, used by the per-cycle monitor (spec §4.4 step 2).
func (w *Watchdog) CheckTimeout(nowMs uint32) error {
	if !w.Enabled {
		return nil
	}
	delta := nowMs - w.lastKickMs
	if delta > w.TimeoutMs {
		return fmt.Errorf("watchdog %q: delta=%dms exceeds timeout=%dms: %w", w.Name, delta, w.TimeoutMs, ErrWatchdogViolation)
	}
	return nil
}
