package scheduler

import (
	"context"
	"testing"

	"github.com/ebs-eps/core/pkg/abs"
	"github.com/ebs-eps/core/pkg/collaborators"
	"github.com/ebs-eps/core/pkg/diagnostics"
	"github.com/ebs-eps/core/pkg/eps"
	"github.com/ebs-eps/core/pkg/model"
	"github.com/ebs-eps/core/pkg/safety"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSensors struct {
	snapshot model.Snapshot
}

func (f *fakeSensors) Read(ctx context.Context) (model.Snapshot, error) {
	return f.snapshot, nil
}

type fakeActuators struct {
	wheelPressures [model.WheelCount]float64
	motorCommands  []collaborators.MotorCommand
}

func (f *fakeActuators) SetWheelPressure(ctx context.Context, wheel model.WheelPosition, pressure float64) error {
	f.wheelPressures[wheel] = pressure
	return nil
}
func (f *fakeActuators) SetMotorCommand(ctx context.Context, cmd collaborators.MotorCommand) error {
	f.motorCommands = append(f.motorCommands, cmd)
	return nil
}
func (f *fakeActuators) EmergencyStop() error          { return nil }
func (f *fakeActuators) Shutdown(ctx context.Context) error { return nil }

func defaultABSCalibration() collaborators.ABSCalibration {
	wheel := collaborators.ABSWheelCalibration{
		SlipThreshold:   0.3,
		SlipTarget:      0.1,
		ReductionFactor: 0.8,
		IncreaseFactor:  1.1,
		Enabled:         true,
	}
	var cal collaborators.ABSCalibration
	for _, pos := range model.Wheels() {
		cal.Wheels[pos] = wheel
	}
	cal.MinActivationSpeed = 5.0
	return cal
}

func defaultEPSTable() collaborators.EPSCalibrationMap {
	var table collaborators.EPSCalibrationMap
	table.TorqueBinsNm = [10]float64{-8, -6, -4, -2, -1, 1, 2, 3, 5, 8}
	table.SpeedBinsKmh = [8]float64{0, 10, 25, 50, 75, 100, 150, 200}
	for i := range table.Values {
		for j := range table.Values[i] {
			table.Values[i][j] = table.TorqueBinsNm[i]
		}
	}
	return table
}

func newTestScheduler(t *testing.T, sensors *fakeSensors, actuators *fakeActuators) (*Scheduler, *safety.Supervisor, *diagnostics.Store) {
	t.Helper()
	dtcs := diagnostics.NewStore(nil)
	supervisor := safety.NewSupervisor(nil, WrapActuatorForSupervisor(actuators), WrapCommsForSupervisor(nil), dtcs)

	absSystem := abs.NewSystem(defaultABSCalibration())
	require.NoError(t, absSystem.SelfTest())

	epsSystem := eps.NewSystem(defaultEPSTable())
	require.NoError(t, epsSystem.SelfTest())

	supervisor.CompleteSelfTest()

	sched := New(nil, supervisor, absSystem, epsSystem, dtcs, sensors, actuators, nil, SubRateCollaborators{})
	return sched, supervisor, dtcs
}

func validSnapshot() model.Snapshot {
	s := model.Snapshot{}
	for _, pos := range model.Wheels() {
		s.WheelSpeedKmh[pos] = model.Scalar{Value: 50, Valid: true, Quality: 100}
	}
	s.DriverTorqueNm = model.Scalar{Value: 0, Valid: true, Quality: 100}
	s.VehicleSpeedKmh = model.Scalar{Value: 50, Valid: true, Quality: 100}
	s.SteeringAngleDeg = model.Scalar{Value: 0, Valid: true, Quality: 100}
	return s
}

func TestTickRunsFullPipelineWithoutError(t *testing.T) {
	sensors := &fakeSensors{snapshot: validSnapshot()}
	actuators := &fakeActuators{}
	sched, supervisor, _ := newTestScheduler(t, sensors, actuators)

	ctx := context.Background()
	var nowMs uint32
	for i := 0; i < 20; i++ {
		nowMs += CycleTimeMs
		require.NoError(t, sched.Tick(ctx, nowMs))
	}

	assert.Equal(t, model.SafetyOperational, supervisor.State())
	assert.NotEmpty(t, actuators.motorCommands)
}

// S6 (Graceful shutdown): a Critical severity violation transitions
// the supervisor to Shutdown, commands full pressure on all wheels,
// and every subsequent tick continues to do so while the motor stays
// disabled.
func TestCriticalViolationDrivesGracefulShutdownAcrossTicks(t *testing.T) {
	sensors := &fakeSensors{snapshot: validSnapshot()}
	actuators := &fakeActuators{}
	sched, supervisor, _ := newTestScheduler(t, sensors, actuators)

	ctx := context.Background()
	require.NoError(t, sched.Tick(ctx, 1))

	supervisor.Report(safety.Violation{Kind: model.ViolationIntegrity, Detail: "forced for test"})
	assert.Equal(t, model.SafetyShutdown, supervisor.State())

	for _, pos := range model.Wheels() {
		assert.Equal(t, 1.0, actuators.wheelPressures[pos])
	}

	for i := 0; i < 10; i++ {
		require.NoError(t, sched.Tick(ctx, uint32(2+i)))
		for _, pos := range model.Wheels() {
			assert.Equal(t, 1.0, actuators.wheelPressures[pos])
		}
	}
	assert.Equal(t, model.SafetyShutdown, supervisor.State())
}

func TestSubRateCollaboratorsFireOnSchedule(t *testing.T) {
	sensors := &fakeSensors{snapshot: validSnapshot()}
	actuators := &fakeActuators{}

	dtcs := diagnostics.NewStore(nil)
	supervisor := safety.NewSupervisor(nil, WrapActuatorForSupervisor(actuators), WrapCommsForSupervisor(nil), dtcs)
	absSystem := abs.NewSystem(defaultABSCalibration())
	require.NoError(t, absSystem.SelfTest())
	epsSystem := eps.NewSystem(defaultEPSTable())
	require.NoError(t, epsSystem.SelfTest())
	supervisor.CompleteSelfTest()

	var escCalls, tcsCalls, commsCalls, diagCalls, epsSafetyCalls, epsDiagCalls int
	subRate := SubRateCollaborators{
		ESC:                     func(ctx context.Context) error { escCalls++; return nil },
		TCS:                     func(ctx context.Context) error { tcsCalls++; return nil },
		Comms:                   func(ctx context.Context) error { commsCalls++; return nil },
		DiagnosticsHousekeeping: func() { diagCalls++ },
		EPSSafetyMonitor:        func() { epsSafetyCalls++ },
		EPSDiagnostic:           func() { epsDiagCalls++ },
	}
	sched := New(nil, supervisor, absSystem, epsSystem, dtcs, sensors, actuators, nil, subRate)

	ctx := context.Background()
	for i := 1; i <= 100; i++ {
		require.NoError(t, sched.Tick(ctx, uint32(i)))
	}

	assert.Equal(t, 20, escCalls)
	assert.Equal(t, 10, tcsCalls)
	assert.Equal(t, 10, commsCalls)
	assert.Equal(t, 1, diagCalls)
	assert.Equal(t, 10, epsSafetyCalls)
	assert.Equal(t, 1, epsDiagCalls)
}
