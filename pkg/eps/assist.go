package eps

import (
	"github.com/ebs-eps/core/pkg/collaborators"
	"github.com/ebs-eps/core/pkg/control"
	"github.com/ebs-eps/core/pkg/safety"
)

// Speed-scaling constants (spec §4.6 step 2).
const (
	SpeedScaleLowKmh  = 10.0
	SpeedScaleHighKmh = 100.0
	MinAssistFactor   = 0.3
)

// Return-to-center constants (spec §4.6 step 3).
const (
	RTCThresholdNm  = 1.0
	KRTCNmPerDeg    = 0.02
	// KSpeedRTC's value is left unspecified by spec §4.6 step 3 (only
	// K_RTC and the clamp are numbered); S4's reference case never
	// exercises it since its driver torque sits above the RTC
	// threshold. Mirrored from K_SPEED_DAMP's per-km/h scale pending a
	// calibration-table override.
	KSpeedRTC  = 0.02
	RTCClampNm = 5.0
)

// Damping constants (spec §4.6 step 4).
const (
	KDampNmSPerDeg = 0.05
	KSpeedDamp     = 0.02
	DampClampNm    = 3.0
)

// MaxAssistNm is the absolute safety clamp (spec §4.6 step 7).
const MaxAssistNm = 8.0

// MaxAssistanceRatePerTick is MAX_ASSISTANCE_RATE compared per 1ms
// tick, not per second (spec §9 open question, resolved in
// DESIGN.md): the source compares a per-tick delta directly against a
// "10 Nm/s" constant with no Δt scaling, and this core preserves that
// literal per-tick semantics rather than silently reinterpreting it as
// 10/1000 Nm per ms.
const MaxAssistanceRatePerTick = 10.0

// OscillationWindow is the depth of the recent-totals ring buffer
// (spec §4.6 step 7).
const OscillationWindow = 10

// OscillationSignChangeThreshold and OscillationAmplitudeThresholdNm
// gate the oscillation detector.
const (
	OscillationSignChangeThreshold  = 4
	OscillationAmplitudeThresholdNm = 2.0
)

// Params is the EPS assistance-parameters record (spec §3): the four
// torque components, the speed-scaling factor, a calculation
// timestamp, and the three fault booleans. Each Calculate call returns
// a fresh Params, so the booleans describe that tick only and are not
// latched across ticks.
type Params struct {
	BaseNm            float64
	ReturnToCenterNm  float64
	DampingNm         float64
	TotalNm           float64
	SpeedFactor       float64
	TimestampMs       uint32

	SafetyLimited       bool
	RateLimited         bool
	OscillationDetected bool
}

// Calculator runs the ordered pipeline from spec §4.6 and owns the
// private per-instance state (previous total, oscillation window) the
// pipeline needs across ticks (spec §9: static filter state lifted
// into the owning record).
type Calculator struct {
	table collaborators.EPSCalibrationMap

	prevTotalNm float64
	window      oscillationWindow
}

// NewCalculator constructs a Calculator bound to a fixed calibration
// map. The map is not copied defensively; callers must not mutate it
// after handoff.
func NewCalculator(table collaborators.EPSCalibrationMap) *Calculator {
	return &Calculator{table: table}
}

// Inputs is one tick's worth of raw sensor inputs the calculator
// needs (spec §4.6).
type Inputs struct {
	DriverTorqueNm    float64
	VehicleSpeedKmh   float64
	SteeringAngleDeg  float64
	SteeringVelDegS   float64
	TimestampMs       uint32
}

// Calculate runs spec §4.6 steps 1-7 and returns the resulting
// Params. A direction mismatch (step 5) returns safety.ErrDirectionMismatch
// alongside a Params whose TotalNm has already been forced to 0; the
// caller is expected to set DTC 0x5002 on this error.
func (c *Calculator) Calculate(in Inputs) (Params, error) {
	p := Params{TimestampMs: in.TimestampMs}

	p.BaseNm = bilinearInterpolate(c.table, in.DriverTorqueNm, in.VehicleSpeedKmh)
	p.SpeedFactor = speedFactor(in.VehicleSpeedKmh)
	scaledBase := p.BaseNm * p.SpeedFactor

	var directionErr error
	if in.DriverTorqueNm >= RTCThresholdNm || in.DriverTorqueNm <= -RTCThresholdNm {
		if sign(scaledBase) != sign(in.DriverTorqueNm) {
			directionErr = safety.ErrDirectionMismatch
			scaledBase = 0
		}
	}

	if in.DriverTorqueNm < RTCThresholdNm && in.DriverTorqueNm > -RTCThresholdNm {
		raw := -in.SteeringAngleDeg * KRTCNmPerDeg * (1 + in.VehicleSpeedKmh*KSpeedRTC)
		p.ReturnToCenterNm = control.Clamp(raw, -RTCClampNm, RTCClampNm)
	}

	rawDamp := -in.SteeringVelDegS * KDampNmSPerDeg * (1 + in.VehicleSpeedKmh*KSpeedDamp)
	p.DampingNm = control.Clamp(rawDamp, -DampClampNm, DampClampNm)

	total := scaledBase + p.ReturnToCenterNm + p.DampingNm
	if directionErr != nil {
		total = 0
	}

	if total > MaxAssistNm || total < -MaxAssistNm {
		total = control.Clamp(total, -MaxAssistNm, MaxAssistNm)
		p.SafetyLimited = true
	}

	c.window.push(total)
	if c.window.oscillating() {
		total = 0
		p.OscillationDetected = true
	}

	delta := total - c.prevTotalNm
	if delta > MaxAssistanceRatePerTick {
		total = c.prevTotalNm + MaxAssistanceRatePerTick
		p.RateLimited = true
	} else if delta < -MaxAssistanceRatePerTick {
		total = c.prevTotalNm - MaxAssistanceRatePerTick
		p.RateLimited = true
	}

	p.TotalNm = total
	c.prevTotalNm = total

	return p, directionErr
}

// PrevTotalNm returns the total torque commanded on the last tick,
// used by the rate limiter and exposed for telemetry/tests.
func (c *Calculator) PrevTotalNm() float64 {
	return c.prevTotalNm
}

func speedFactor(vehicleSpeedKmh float64) float64 {
	switch {
	case vehicleSpeedKmh <= SpeedScaleLowKmh:
		return 1.0
	case vehicleSpeedKmh >= SpeedScaleHighKmh:
		return MinAssistFactor
	default:
		t := (vehicleSpeedKmh - SpeedScaleLowKmh) / (SpeedScaleHighKmh - SpeedScaleLowKmh)
		return 1.0 - t*(1.0-MinAssistFactor)
	}
}

func sign(x float64) int {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	default:
		return 0
	}
}
