package eps

import (
	"context"
	"fmt"
	"math"

	"github.com/ebs-eps/core/pkg/collaborators"
	"github.com/ebs-eps/core/pkg/diagnostics"
	"github.com/ebs-eps/core/pkg/model"
)

// Current-limit constants for the motor command (spec §4.6 step 8).
const (
	CurrentLimitNormalA   = 40.0
	CurrentLimitDegradedA = 20.0
)

// System owns the EPS operating mode/status, the assist calculator,
// and the uptime/fault bookkeeping from spec §3. System is the
// single writer of its own state per tick, matching spec §5's
// single-owner concurrency model.
type System struct {
	calculator *Calculator

	mode   model.EPSMode
	status model.EPSStatus

	uptimeTicks  uint64
	faultCount   uint64
	lastFaultMs  uint32

	manualSteeringAvailable bool
	assistanceEnabled       bool

	lastParams Params

	prevSteeringAngleDeg float64
	havePrevAngle        bool
}

// NewSystem constructs an EPS system in Init/Initializing with manual
// steering already available, satisfying spec §3's invariant that
// manual_steering_available=true in every mode from power-on.
func NewSystem(table collaborators.EPSCalibrationMap) *System {
	return &System{
		calculator:              NewCalculator(table),
		mode:                    model.EPSModeInit,
		status:                  model.EPSStatusInitializing,
		manualSteeringAvailable: true,
	}
}

// SelfTest exercises the base-assist lookup at representative grid
// points, range-checks the calibration parameters, and verifies the
// oscillation detector against a 4-cycle ±3 Nm square wave (must flag)
// and a single-shot 3 Nm step (must not flag), per spec §4.6.
func (s *System) SelfTest() error {
	table := s.calculator.table
	for i, v := range table.TorqueBinsNm {
		if i > 0 && v <= table.TorqueBinsNm[i-1] {
			return fmt.Errorf("eps: torque bins must be strictly ascending at index %d", i)
		}
	}
	for i, v := range table.SpeedBinsKmh {
		if i > 0 && v <= table.SpeedBinsKmh[i-1] {
			return fmt.Errorf("eps: speed bins must be strictly ascending at index %d", i)
		}
	}
	for _, row := range table.Values {
		for _, v := range row {
			if math.IsNaN(v) || math.Abs(v) > MaxAssistNm*4 {
				return fmt.Errorf("eps: base assist table contains implausible value %.3f", v)
			}
		}
	}

	mid := table.TorqueBinsNm[len(table.TorqueBinsNm)/2]
	speed := table.SpeedBinsKmh[len(table.SpeedBinsKmh)/2]
	if got := bilinearInterpolate(table, mid, speed); math.IsNaN(got) {
		return fmt.Errorf("eps: base assist lookup returned NaN at representative grid point")
	}

	var squareWave Calculator
	squareWave.table = table
	squareWaveOscillated := false
	for i := 0; i < 10; i++ {
		amplitude := 3.0
		if i%2 == 1 {
			amplitude = -3.0
		}
		squareWave.window.push(amplitude)
		if squareWave.window.oscillating() {
			squareWaveOscillated = true
			break
		}
	}
	if !squareWaveOscillated {
		return fmt.Errorf("eps: self-test oscillation detector failed to flag a 4-cycle square wave")
	}

	var step Calculator
	step.table = table
	step.window.push(3.0)
	if step.window.oscillating() {
		return fmt.Errorf("eps: self-test oscillation detector false-positived on a single-shot step")
	}

	s.mode = model.EPSModeNormal
	s.status = model.EPSStatusReady
	s.assistanceEnabled = true
	return nil
}

// Mode, Status, and the two invariant flags (spec §3 invariant: in
// FailSafe, assistance_enabled=false; in every mode,
// manual_steering_available=true).
func (s *System) Mode() model.EPSMode                  { return s.mode }
func (s *System) Status() model.EPSStatus              { return s.status }
func (s *System) ManualSteeringAvailable() bool        { return s.manualSteeringAvailable }
func (s *System) AssistanceEnabled() bool              { return s.assistanceEnabled }
func (s *System) LastParams() Params                   { return s.lastParams }
func (s *System) FaultCount() uint64                   { return s.faultCount }

// SetDegraded transitions to Degraded: assistance stays enabled but
// current limit drops to 20A (spec §7 user-visible failure behavior).
func (s *System) SetDegraded() {
	if s.mode == model.EPSModeFailSafe {
		return
	}
	s.mode = model.EPSModeDegraded
	s.status = model.EPSStatusDegraded
}

// SetFailSafe transitions to FailSafe: assistance is disabled and the
// motor disconnected, but manual steering always remains available
// (spec §3, property 5).
func (s *System) SetFailSafe(nowMs uint32) {
	s.mode = model.EPSModeFailSafe
	s.status = model.EPSStatusFault
	s.assistanceEnabled = false
	s.faultCount++
	s.lastFaultMs = nowMs
	s.manualSteeringAvailable = true
}

// ClearDegraded returns from Degraded to Normal; a no-op outside
// Degraded.
func (s *System) ClearDegraded() {
	if s.mode != model.EPSModeDegraded {
		return
	}
	s.mode = model.EPSModeNormal
	s.status = model.EPSStatusReady
}

// Update runs one tick of the full EPS pipeline: derives steering
// velocity from the consecutive steering-angle samples (spec §4.6
// step 4 takes steering_velocity as an input but the sensor snapshot
// in §3 only carries angle, so this core estimates it the same way
// the ABS wheel-acceleration estimator derives a rate from position,
// spec §9), calculates the assist torque, maps any direction-mismatch
// error and sticky flags to DTCs, builds the motor command, and hands
// it to the actuator. manual_steering_available is only ever set to
// true here (re-asserted on every call); it is true for the system's
// entire lifetime per spec §3.
func (s *System) Update(ctx context.Context, in Inputs, cycleTimeMs uint32, actuators collaborators.ActuatorSink, dtcs DTCReporter) error {
	s.uptimeTicks++
	s.manualSteeringAvailable = true

	if s.status == model.EPSStatusFault || s.mode == model.EPSModeFailSafe {
		return s.sendDisabledCommand(ctx, in.TimestampMs, actuators)
	}

	if s.havePrevAngle && cycleTimeMs > 0 {
		deltaT := float64(cycleTimeMs) / 1000.0
		in.SteeringVelDegS = (in.SteeringAngleDeg - s.prevSteeringAngleDeg) / deltaT
	}
	s.prevSteeringAngleDeg = in.SteeringAngleDeg
	s.havePrevAngle = true

	params, err := s.calculator.Calculate(in)
	s.lastParams = params

	if dtcs != nil {
		if err != nil {
			dtcs.SetDTC(diagnostics.CodeEPSDirectionMismatch, in.TimestampMs)
		}
		if params.SafetyLimited {
			dtcs.SetDTC(diagnostics.CodeEPSAssistLimited, in.TimestampMs)
		}
		if params.OscillationDetected {
			dtcs.SetDTC(diagnostics.CodeEPSOscillationDetected, in.TimestampMs)
		}
	}

	currentLimit := CurrentLimitNormalA
	if s.mode == model.EPSModeDegraded {
		currentLimit = CurrentLimitDegradedA
	}

	cmd := collaborators.MotorCommand{
		TargetTorqueNm: params.TotalNm,
		CurrentLimitA:  currentLimit,
		Enable:         s.assistanceEnabled && s.status != model.EPSStatusFault,
		TimestampMs:    in.TimestampMs,
	}

	if s.status == model.EPSStatusReady {
		s.status = model.EPSStatusActive
	}

	if actuators == nil {
		return nil
	}
	return actuators.SetMotorCommand(ctx, cmd)
}

func (s *System) sendDisabledCommand(ctx context.Context, nowMs uint32, actuators collaborators.ActuatorSink) error {
	cmd := collaborators.MotorCommand{
		TargetTorqueNm: 0,
		CurrentLimitA:  0,
		Enable:         false,
		TimestampMs:    nowMs,
	}
	if actuators == nil {
		return nil
	}
	return actuators.SetMotorCommand(ctx, cmd)
}

// DTCReporter is the minimal slice of the diagnostics store this
// package needs, kept as a narrow local interface so tests can supply
// a fake without constructing a full *diagnostics.Store.
type DTCReporter interface {
	SetDTC(code diagnostics.Code, nowMs uint32) error
}
