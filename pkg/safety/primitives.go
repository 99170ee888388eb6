// Package safety implements the cross-cutting safety primitives (spec
// §4.2, component C2) and the watchdog/safety-supervisor state
// machine (spec §4.4, component C4). The primitives in this file are
// stateless: each fails with one of the sentinel errors in errors.go
// and never mutates the supervisor itself — the caller is responsible
// for reporting the violation, keeping these functions pure and
// trivially testable (spec §7 propagation policy).
package safety

import (
	"fmt"
	"math"

	"github.com/ebs-eps/core/internal/crc"
)

// DualChannelCompare fails with ErrDualChannelMismatch if a and b
// disagree by more than tol.
func DualChannelCompare(a, b, tol float64) error {
	if math.Abs(a-b) > tol {
		return fmt.Errorf("a=%v b=%v tol=%v: %w", a, b, tol, ErrDualChannelMismatch)
	}
	return nil
}

// RangeCheck fails with ErrOutOfRange if x is outside [lo, hi].
func RangeCheck(x, lo, hi float64) error {
	if x < lo || x > hi {
		return fmt.Errorf("x=%v not in [%v,%v]: %w", x, lo, hi, ErrOutOfRange)
	}
	return nil
}

// Plausibility checks that the observed rate of change between cur and
// prev over deltaMs milliseconds does not exceed maxRate (per second).
// deltaMs == 0 is a caller error (ErrInvalidParam), not a rate
// violation, since the rate would be undefined.
func Plausibility(cur, prev, maxRate float64, deltaMs uint32) error {
	if deltaMs == 0 {
		return fmt.Errorf("zero time delta: %w", ErrInvalidParam)
	}
	deltaS := float64(deltaMs) / 1000.0
	rate := math.Abs(cur-prev) / deltaS
	if rate > maxRate {
		return fmt.Errorf("rate=%v max=%v: %w", rate, maxRate, ErrImplausible)
	}
	return nil
}

// TemporalCheck (stuck-sensor check) fails with ErrStuckSensor if every
// reading in history lies within resolution of every other reading,
// i.e. the sensor appears to have frozen. An empty or single-sample
// history can never be judged stuck.
func TemporalCheck(history []float64, resolution float64) error {
	if len(history) < 2 {
		return nil
	}
	min, max := history[0], history[0]
	for _, v := range history[1:] {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	if max-min <= resolution {
		return fmt.Errorf("spread=%v resolution=%v: %w", max-min, resolution, ErrStuckSensor)
	}
	return nil
}

// CRC32 computes the CRC-32 (polynomial 0x04C11DB7) over a byte run.
func CRC32(data []byte) uint32 {
	return crc.Compute(data)
}

// VerifyCRC32 reports whether data hashes to expected.
func VerifyCRC32(data []byte, expected uint32) bool {
	return crc.Verify(data, expected)
}

// CanaryValue is the fixed constant every canary word must hold.
// Two independent words (stack and heap) are checked; a mismatch in
// either one counts as corruption.
const CanaryValue uint32 = 0xDEADBEEF

// Canary holds the two fixed 32-bit memory-integrity guard words from
// spec §4.2.
type Canary struct {
	StackCanary uint32
	HeapGuard   uint32
}

// NewCanary returns a Canary with both words at their expected value.
func NewCanary() Canary {
	return Canary{StackCanary: CanaryValue, HeapGuard: CanaryValue}
}

// Check reads both words; any mismatch raises ErrMemoryCorruption and
// resets both words back to their expected value as a best-effort
// recovery, per spec.
func (c *Canary) Check() error {
	corrupted := c.StackCanary != CanaryValue || c.HeapGuard != CanaryValue
	if corrupted {
		c.StackCanary = CanaryValue
		c.HeapGuard = CanaryValue
		return ErrMemoryCorruption
	}
	return nil
}
