package abs

import (
	"context"
	"fmt"
	"math"

	"github.com/ebs-eps/core/pkg/collaborators"
	"github.com/ebs-eps/core/pkg/control"
	"github.com/ebs-eps/core/pkg/model"
)

// selfTestSlipWheelKmh/selfTestSlipVehicleKmh are spec §4.5's reference
// self-test inputs: slip_ratio(40, 50) must equal 0.2 within 0.001.
const (
	selfTestSlipWheelKmh   = 40.0
	selfTestSlipVehicleKmh = 50.0
	selfTestSlipExpected   = 0.2
	selfTestSlipTolerance  = 0.001

	selfTestSpeedSampleKmh = 50.0
	selfTestSpeedExpected  = 50.0
	selfTestSpeedTolerance = 0.1
)

// System is the ABS system state: four wheels, the shared
// vehicle-speed estimator, and the aggregate enable/activation
// bookkeeping (spec §3, §4.5, component C5).
type System struct {
	wheels      [model.WheelCount]WheelState
	speed       SpeedEstimator
	calibration collaborators.ABSCalibration

	enabled        bool
	selfTestPassed bool

	cumulativeActivations uint64
}

// NewSystem constructs an ABS system in its power-on state: every
// wheel Inactive, system enabled pending a successful self-test.
func NewSystem(cal collaborators.ABSCalibration) *System {
	sys := &System{calibration: cal, enabled: true}
	for _, pos := range model.Wheels() {
		sys.wheels[pos] = NewWheelState(pos)
	}
	return sys
}

// SelfTest validates the calibration table's bounds and the two
// reference calculations spec §4.5 requires before the system may
// leave its Inactive-only posture: slip_ratio(40,50) == 0.2±0.001 and
// vehicle_speed([50,50,50,50]) == 50.0±0.1.
func (s *System) SelfTest() error {
	for _, pos := range model.Wheels() {
		c := s.calibration.Wheels[pos]
		if !c.Enabled {
			// A disabled wheel never intervenes (runStateMachine gates
			// its Active arc on cal.Enabled), so its slip/pressure
			// calibration is inert and need not satisfy the bounds a
			// live wheel's calibration must.
			continue
		}
		if c.SlipThreshold <= 0 || c.SlipThreshold >= 1 {
			return fmt.Errorf("abs: wheel %s slip threshold %.3f out of (0,1)", pos, c.SlipThreshold)
		}
		if c.SlipTarget <= 0 || c.SlipTarget >= c.SlipThreshold {
			return fmt.Errorf("abs: wheel %s slip target %.3f must be in (0, threshold)", pos, c.SlipTarget)
		}
		if c.ReductionFactor <= 0 || c.ReductionFactor >= 1 {
			return fmt.Errorf("abs: wheel %s reduction factor %.3f out of (0,1)", pos, c.ReductionFactor)
		}
		if c.IncreaseFactor <= 1 {
			return fmt.Errorf("abs: wheel %s increase factor %.3f must be > 1", pos, c.IncreaseFactor)
		}
	}
	if s.calibration.MinActivationSpeed < 0 {
		return fmt.Errorf("abs: min activation speed %.3f must be >= 0", s.calibration.MinActivationSpeed)
	}

	slip := control.SlipRatio(selfTestSlipWheelKmh, selfTestSlipVehicleKmh)
	if math.Abs(slip-selfTestSlipExpected) > selfTestSlipTolerance {
		return fmt.Errorf("abs: self-test slip ratio reference failed: got %.4f want %.4f", slip, selfTestSlipExpected)
	}

	var probe SpeedEstimator
	var samples [model.WheelCount]model.Scalar
	for _, pos := range model.Wheels() {
		samples[pos] = model.Scalar{Value: selfTestSpeedSampleKmh, Valid: true, Quality: 100}
	}
	// The low-pass filter needs to settle; iterate until converged
	// since the reference check is on the steady-state value.
	var estimate float64
	for i := 0; i < 200; i++ {
		estimate = probe.Update(samples)
	}
	if math.Abs(estimate-selfTestSpeedExpected) > selfTestSpeedTolerance {
		return fmt.Errorf("abs: self-test vehicle speed reference failed: got %.4f want %.4f", estimate, selfTestSpeedExpected)
	}

	s.selfTestPassed = true
	return nil
}

// SelfTestPassed reports whether SelfTest has succeeded since the
// last reset.
func (s *System) SelfTestPassed() bool {
	return s.selfTestPassed
}

// Enabled reports whether the system is permitted to activate.
func (s *System) Enabled() bool {
	return s.enabled
}

// SetEnabled allows a collaborator (e.g. the scheduler reacting to a
// Fault escalation) to force the system off; re-enabling does not
// bypass SelfTest.
func (s *System) SetEnabled(enabled bool) {
	s.enabled = enabled
}

// VehicleSpeedKmh returns the current filtered vehicle-speed estimate.
func (s *System) VehicleSpeedKmh() float64 {
	return s.speed.Value()
}

// Wheel returns a copy of one wheel's current state.
func (s *System) Wheel(pos model.WheelPosition) WheelState {
	return s.wheels[pos]
}

// AnyWheelActive reports whether at least one wheel is currently in
// StateActive.
func (s *System) AnyWheelActive() bool {
	for _, w := range s.wheels {
		if w.State == StateActive {
			return true
		}
	}
	return false
}

// CumulativeActivations is the system-wide activation counter across
// all wheels, incremented each time any wheel transitions into Active.
func (s *System) CumulativeActivations() uint64 {
	return s.cumulativeActivations
}

// Update runs one control-loop tick across all four wheels: it
// recomputes the shared vehicle-speed estimate first, then updates
// each wheel's slip/acceleration/state machine and calls actuate for
// its commanded pressure. If the system is disabled or has not passed
// self-test, every wheel is still evaluated (for telemetry) but no
// wheel may take the Inactive->Active arc; a wheel that is already
// Active stays Active, and a wheel in Monitoring can still re-enter
// Active.
func (s *System) Update(ctx context.Context, snapshot model.Snapshot, nowMs, cycleTimeMs uint32, actuators collaborators.ActuatorSink) error {
	vehicleSpeedKmh := s.speed.Update(snapshot.WheelSpeedKmh)

	permitActivation := s.enabled && s.selfTestPassed

	for _, pos := range model.Wheels() {
		w := &s.wheels[pos]
		cal := s.calibration.Wheels[pos]
		wasActive := w.State == StateActive

		err := w.UpdateWheel(
			snapshot.WheelSpeedKmh[pos],
			vehicleSpeedKmh,
			cal,
			s.calibration.MinActivationSpeed,
			nowMs,
			cycleTimeMs,
			permitActivation,
			func(pressure float64) error {
				if actuators == nil {
					return nil
				}
				return actuators.SetWheelPressure(ctx, pos, pressure)
			},
		)
		if err != nil {
			return fmt.Errorf("abs: wheel %s: %w", pos, err)
		}

		if !wasActive && w.State == StateActive {
			s.cumulativeActivations++
		}
	}

	return nil
}
