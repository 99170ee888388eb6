// Package abs implements the per-wheel ABS state machine, pressure
// modulator, and vehicle-speed estimator (spec §4.5, component C5).
package abs

import (
	"github.com/ebs-eps/core/pkg/control"
	"github.com/ebs-eps/core/pkg/model"
)

// MaxWheelSpeedKmh bounds the samples the vehicle-speed estimator will
// trust; anything beyond it is treated the same as an invalid sample.
const MaxWheelSpeedKmh = 300.0

// VehicleSpeedAlpha is the low-pass coefficient applied to the raw
// (max+mean)/2 estimate.
const VehicleSpeedAlpha = 0.1

// SpeedEstimator holds the private low-pass filter state for the
// vehicle-reference-speed estimator (spec §4.5). The filter state must
// be lifted out of the estimation function into this struct (spec §9)
// so the estimator is unit-testable and isolated per instance.
type SpeedEstimator struct {
	filtered float64
}

// Update computes the raw (max+mean)/2 vehicle-speed estimate over the
// valid wheel-speed samples, low-passes it, and returns the new
// filtered estimate. The double-counting of the max in (max+mean)/2 is
// an intentional, spec-preserved quirk (spec §9 open question): the
// fastest wheel approximates the non-braking reference and the mean
// damps a single stuck sensor, but the two are not orthogonal
// contributions.
func (e *SpeedEstimator) Update(wheelSpeedsKmh [model.WheelCount]model.Scalar) float64 {
	var sum float64
	var max float64
	count := 0
	for _, s := range wheelSpeedsKmh {
		if !s.Valid || s.Value < 0 || s.Value > MaxWheelSpeedKmh {
			continue
		}
		sum += s.Value
		if s.Value > max {
			max = s.Value
		}
		count++
	}

	var raw float64
	if count > 0 {
		mean := sum / float64(count)
		raw = (max + mean) / 2
	}

	e.filtered = control.LowPass(e.filtered, raw, VehicleSpeedAlpha)
	return e.filtered
}

// Value returns the current filtered estimate without updating it.
func (e *SpeedEstimator) Value() float64 {
	return e.filtered
}
