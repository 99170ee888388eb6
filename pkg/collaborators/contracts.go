// Package collaborators declares the external-collaborator contracts
// from spec §6 (component C8): the hardware I/O, CAN stack, OS task
// runtime, and calibration backend this core treats as out-of-scope
// collaborators, specified here only by interface. Production
// implementations (PWM/ADC/SPI/CAN drivers) live outside this module;
// pkg/calibration and cmd/simulator provide bench-only reference
// backends for the two contracts worth demonstrating end to end.
package collaborators

import (
	"context"
	"time"

	"github.com/ebs-eps/core/pkg/model"
)

// CollaboratorTimeout is the ≤0.5ms bound spec §5 requires on every
// call through a collaborator contract.
const CollaboratorTimeout = 500 * time.Microsecond

// TimeSource returns a monotonically non-decreasing millisecond tick.
// Wrap-around after ~49 days is handled by the caller via unsigned
// modular arithmetic on differences, never by TimeSource itself.
type TimeSource interface {
	NowMs() uint32
}

// SensorProvider supplies one sensor snapshot per tick, with Valid and
// Quality already populated on every scalar.
type SensorProvider interface {
	Read(ctx context.Context) (model.Snapshot, error)
}

// MotorCommand is the EPS motor command from spec §4.6 step 8.
type MotorCommand struct {
	TargetTorqueNm float64
	CurrentLimitA  float64
	Enable         bool
	TimestampMs    uint32
}

// ActuatorSink is the hydraulic/motor actuation contract.
type ActuatorSink interface {
	SetWheelPressure(ctx context.Context, wheel model.WheelPosition, pressure float64) error
	SetMotorCommand(ctx context.Context, cmd MotorCommand) error
	// EmergencyStop must be idempotent and callable from the
	// emergency ISR context without blocking.
	EmergencyStop() error
	// Shutdown transitions the hydraulics to a safe passive state.
	Shutdown(ctx context.Context) error
}

// CommsSink is the CAN/diagnostic notification contract. It must
// tolerate being called while the system is entering Shutdown.
type CommsSink interface {
	SendDTC(ctx context.Context, code uint16, confirmed bool) error
	SendShutdownNotification() error
}

// WatchdogHardware is the hardware watchdog refresh contract; the
// hardware resets the ECU if Refresh is not called within its timeout.
type WatchdogHardware interface {
	Refresh(watchdogID string) error
}

// ABSWheelCalibration is one wheel's calibration row (spec §3).
type ABSWheelCalibration struct {
	SlipThreshold    float64
	SlipTarget       float64
	ReductionFactor  float64
	IncreaseFactor   float64
	Enabled          bool
}

// ABSCalibration is the full per-wheel ABS calibration table.
type ABSCalibration struct {
	Wheels             [model.WheelCount]ABSWheelCalibration
	MinActivationSpeed float64
}

// EPSCalibrationMap is the 10x8 base-assist lookup table from spec
// §4.6 step 1: TorqueBinsNm rows (driver torque, ascending), SpeedBinsKmh
// columns (vehicle speed, ascending), Values[row][col] in Nm.
type EPSCalibrationMap struct {
	TorqueBinsNm [10]float64
	SpeedBinsKmh [8]float64
	Values       [10][8]float64
}

// CalibrationStore is read-only access to the two calibration tables.
type CalibrationStore interface {
	ABSCalibration() (ABSCalibration, error)
	EPSCalibrationMap() (EPSCalibrationMap, error)
}
