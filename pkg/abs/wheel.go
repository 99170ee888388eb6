package abs

import (
	"github.com/ebs-eps/core/pkg/collaborators"
	"github.com/ebs-eps/core/pkg/control"
	"github.com/ebs-eps/core/pkg/model"
)

// State is the per-wheel ABS state (spec §3, §4.5).
type State uint8

const (
	StateInactive State = iota
	StateMonitoring
	StateActive
	StateFault
)

func (s State) String() string {
	switch s {
	case StateInactive:
		return "Inactive"
	case StateMonitoring:
		return "Monitoring"
	case StateActive:
		return "Active"
	case StateFault:
		return "Fault"
	default:
		return "Invalid"
	}
}

// Phase is the pressure-modulation phase, meaningful only while State
// == StateActive.
type Phase uint8

const (
	PhaseNormal Phase = iota
	PhasePressureReduction
	PhasePressureHold
	PhasePressureIncrease
)

func (p Phase) String() string {
	switch p {
	case PhaseNormal:
		return "Normal"
	case PhasePressureReduction:
		return "PressureReduction"
	case PhasePressureHold:
		return "PressureHold"
	case PhasePressureIncrease:
		return "PressureIncrease"
	default:
		return "Invalid"
	}
}

// WheelAccelAlpha is the low-pass coefficient for the per-wheel
// acceleration estimator.
const WheelAccelAlpha = 0.2

// RecoveryThresholdMS2 is the acceleration above which a
// PressureReduction phase promotes to PressureHold (spec §4.5).
const RecoveryThresholdMS2 = 2.0

// ExitAccelThresholdMS2 is the acceleration floor for the
// Active->Monitoring transition (spec §4.5): "wheel_acceleration > -1".
const ExitAccelThresholdMS2 = -1.0

// Stats are the monotone per-wheel statistics from spec §3.
type Stats struct {
	ActivationCount       uint64
	ActiveTimeAccumulatorMs uint64
	MaxSlipSeen           float64
	LastActivationMs      uint32
	FaultCount            uint64
}

// WheelState is one wheel's full ABS state (spec §3).
type WheelState struct {
	Position WheelPosition

	State State
	Phase Phase

	SlipRatio         float64
	CommandedPressure float64

	prevWheelSpeedMs float64
	havePrevSpeed    bool
	accelFiltered    float64

	ActivationTimestampMs uint32
	PhaseEntryTimestampMs uint32

	Fault bool

	Stats Stats
}

// WheelPosition is a local alias kept for readability inside this
// package; it is model.WheelPosition underneath.
type WheelPosition = model.WheelPosition

// NewWheelState returns a wheel in its power-on state: Inactive, full
// unmodulated brake pressure, no fault. CommandedPressure starts at
// 1.0 (not the Go zero value) because the first PressureReduction
// tick after activation computes CommandedPressure *= ReductionFactor
// against this baseline (spec §4.5/§8 S1: 0.8 * 1.0 = 0.8).
func NewWheelState(pos WheelPosition) WheelState {
	return WheelState{Position: pos, State: StateInactive, Phase: PhaseNormal, CommandedPressure: 1.0}
}

// Acceleration returns the current low-pass-filtered wheel
// acceleration in m/s^2.
func (w *WheelState) Acceleration() float64 {
	return w.accelFiltered
}

// updateAccel applies spec §4.5's per-wheel acceleration estimator:
// a = (cur-prev) m/s per Δt, Δt = cycleTimeMs/1000, low-passed at
// alpha=0.2; prev is stored for the next tick regardless of validity
// handling upstream (the caller skips this entirely on an invalid
// sample). The first valid sample only seeds prev; no acceleration is
// derived from it.
func (w *WheelState) updateAccel(curSpeedKmh float64, cycleTimeMs uint32) {
	curMs := control.KmhToMs(curSpeedKmh)
	if !w.havePrevSpeed {
		w.prevWheelSpeedMs = curMs
		w.havePrevSpeed = true
		return
	}
	deltaT := float64(cycleTimeMs) / 1000.0
	raw := (curMs - w.prevWheelSpeedMs) / deltaT
	w.accelFiltered = control.LowPass(w.accelFiltered, raw, WheelAccelAlpha)
	w.prevWheelSpeedMs = curMs
}

// UpdateWheel runs one tick of spec §4.5's per-wheel control sequence:
// mark fault, update slip/acceleration, run the state machine, compute
// (or hold) the pressure command, and finally call actuate with the
// resulting commanded pressure. The updated commanded pressure (always
// in [0,1]) is left in CommandedPressure; the returned error is
// actuate's.
//
// selfTestPassed gates the Inactive->Active arc per spec §4.5's ABS
// self-test section: a failed self-test blocks that arc until re-init,
// but does not itself change State. A wheel already in Monitoring can
// still re-enter Active.
func (w *WheelState) UpdateWheel(
	sample model.Scalar,
	vehicleSpeedKmh float64,
	cal collaborators.ABSWheelCalibration,
	minActivationSpeedKmh float64,
	nowMs uint32,
	cycleTimeMs uint32,
	selfTestPassed bool,
	actuate func(pressure float64) error,
) error {
	w.Fault = !sample.Valid || sample.Value < 0 || sample.Value > MaxWheelSpeedKmh

	if !w.Fault {
		w.SlipRatio = control.SlipRatio(sample.Value, vehicleSpeedKmh)
		w.updateAccel(sample.Value, cycleTimeMs)
	}

	w.runStateMachine(vehicleSpeedKmh, cal, minActivationSpeedKmh, nowMs, selfTestPassed)

	switch w.State {
	case StateActive:
		w.modulatePressure(cal)
	case StateFault:
		w.CommandedPressure = 1.0
	}
	w.CommandedPressure = control.Clamp(w.CommandedPressure, 0, 1)

	if w.State == StateActive {
		w.Stats.ActiveTimeAccumulatorMs += uint64(cycleTimeMs)
		w.Stats.LastActivationMs = nowMs
	}
	if w.SlipRatio > w.Stats.MaxSlipSeen {
		w.Stats.MaxSlipSeen = w.SlipRatio
	}
	if w.Fault {
		w.Stats.FaultCount++
	}

	if actuate != nil {
		return actuate(w.CommandedPressure)
	}
	return nil
}

func (w *WheelState) runStateMachine(
	vehicleSpeedKmh float64,
	cal collaborators.ABSWheelCalibration,
	minActivationSpeedKmh float64,
	nowMs uint32,
	selfTestPassed bool,
) {
	switch w.State {
	case StateInactive:
		if cal.Enabled && selfTestPassed && !w.Fault && vehicleSpeedKmh > minActivationSpeedKmh &&
			w.SlipRatio > cal.SlipThreshold {
			w.enterActive(nowMs)
		}
	case StateMonitoring:
		switch {
		case w.Fault:
			w.enterFault()
		case cal.Enabled && w.SlipRatio > cal.SlipThreshold:
			w.enterActive(nowMs)
		case vehicleSpeedKmh < minActivationSpeedKmh:
			w.State = StateInactive
		}
	case StateActive:
		switch {
		case w.Fault:
			w.enterFault()
		case w.SlipRatio < cal.SlipTarget && w.accelFiltered > ExitAccelThresholdMS2:
			w.State = StateMonitoring
			w.Phase = PhaseNormal
			w.CommandedPressure = 1.0
		}
	case StateFault:
		if !w.Fault {
			w.State = StateInactive
		}
	default:
		// Unreachable except through memory corruption (spec §4.5).
		w.enterFault()
	}
}

func (w *WheelState) enterActive(nowMs uint32) {
	if w.State != StateActive {
		w.State = StateActive
		w.Phase = PhasePressureReduction
		w.ActivationTimestampMs = nowMs
		w.PhaseEntryTimestampMs = nowMs
		w.Stats.ActivationCount++
	}
	// Re-entering Active without leaving it (spec property 3) must not
	// bump the counter again; the guard above already prevents that.
}

func (w *WheelState) enterFault() {
	w.State = StateFault
	w.Phase = PhaseNormal
}

// modulatePressure runs spec §4.5's phase logic for one tick while in
// StateActive.
func (w *WheelState) modulatePressure(cal collaborators.ABSWheelCalibration) {
	switch w.Phase {
	case PhasePressureReduction:
		w.CommandedPressure *= cal.ReductionFactor
		if w.accelFiltered > RecoveryThresholdMS2 {
			w.Phase = PhasePressureHold
		}
	case PhasePressureHold:
		switch {
		case w.SlipRatio < cal.SlipTarget:
			w.Phase = PhasePressureIncrease
		case w.SlipRatio > cal.SlipThreshold:
			w.Phase = PhasePressureReduction
		}
	case PhasePressureIncrease:
		w.CommandedPressure *= cal.IncreaseFactor
		if w.SlipRatio > cal.SlipThreshold {
			w.Phase = PhasePressureReduction
		}
	case PhaseNormal:
		w.CommandedPressure = 1.0
	}
}
