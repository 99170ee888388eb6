// Command simulator is a bench harness demonstrating the sensor,
// actuator and comms collaborator contracts from spec §6 wired into a
// running scheduler, driving the spec §8 reference scenarios by hand
// instead of a real vehicle. Watchdog hardware, the time source and
// the calibration store are not wired: ticks are driven directly and
// calibration is built in code. It follows the teacher's examples/basic demo idiom: a
// plain main(), panic(err) on setup failure, and fmt output rather
// than structured logging at this outermost layer.
package main

import (
	"context"
	"fmt"

	"github.com/ebs-eps/core/pkg/abs"
	"github.com/ebs-eps/core/pkg/collaborators"
	"github.com/ebs-eps/core/pkg/diagnostics"
	"github.com/ebs-eps/core/pkg/eps"
	"github.com/ebs-eps/core/pkg/model"
	"github.com/ebs-eps/core/pkg/safety"
	"github.com/ebs-eps/core/pkg/scheduler"
)

func defaultABSCalibration() collaborators.ABSCalibration {
	wheel := collaborators.ABSWheelCalibration{
		SlipThreshold:   0.3,
		SlipTarget:      0.1,
		ReductionFactor: 0.8,
		IncreaseFactor:  1.1,
		Enabled:         true,
	}
	cal := collaborators.ABSCalibration{MinActivationSpeed: 5.0}
	for _, pos := range model.Wheels() {
		cal.Wheels[pos] = wheel
	}
	return cal
}

func defaultEPSTable() collaborators.EPSCalibrationMap {
	torqueBins := [10]float64{-8, -6, -4, -2, -1, 1, 2, 3, 5, 8}
	speedBins := [8]float64{0, 10, 25, 50, 75, 100, 150, 200}
	table := collaborators.EPSCalibrationMap{TorqueBinsNm: torqueBins, SpeedBinsKmh: speedBins}
	for i, t := range torqueBins {
		for j := range speedBins {
			table.Values[i][j] = t
		}
	}
	return table
}

func main() {
	dtcs := diagnostics.NewStore(nil)

	comms := newRateLimitedComms()
	actuators := newLogActuators()

	supervisor := safety.NewSupervisor(nil, scheduler.WrapActuatorForSupervisor(actuators), scheduler.WrapCommsForSupervisor(comms), dtcs)
	supervisor.CompleteSelfTest()

	absSystem := abs.NewSystem(defaultABSCalibration())
	if err := absSystem.SelfTest(); err != nil {
		panic(fmt.Errorf("abs self-test: %w", err))
	}

	epsSystem := eps.NewSystem(defaultEPSTable())
	if err := epsSystem.SelfTest(); err != nil {
		panic(fmt.Errorf("eps self-test: %w", err))
	}

	sensors := newScenarioSensors()

	sched := scheduler.New(nil, supervisor, absSystem, epsSystem, dtcs, sensors, actuators, nil, scheduler.SubRateCollaborators{
		Comms: func(ctx context.Context) error {
			return comms.SendDTC(ctx, 0, dtcs.ActiveCount() > 0)
		},
	})

	ctx := context.Background()

	fmt.Println("=== S1: single-wheel slip triggers ABS activation ===")
	sensors.setWheelSpeed(model.FR, 20)
	runTicks(sched, ctx, 50)
	reportABS(absSystem, actuators)

	fmt.Println("\n=== S2: recovering wheel promotes to pressure hold ===")
	sensors.setWheelSpeed(model.FR, 35)
	runTicks(sched, ctx, 50)
	reportABS(absSystem, actuators)

	fmt.Println("\n=== S4: mid-speed EPS assist scenario ===")
	sensors.setWheelSpeed(model.FR, 50)
	sensors.setEPSInputs(3.0, 0)
	runTicks(sched, ctx, 5)
	params := epsSystem.LastParams()
	fmt.Printf("  base=%.3f speedFactor=%.3f rtc=%.3f damping=%.3f total=%.3f\n",
		params.BaseNm, params.SpeedFactor, params.ReturnToCenterNm, params.DampingNm, params.TotalNm)

	fmt.Println("\n=== S5: oscillating steering input rejected ===")
	torque := 0.0
	for i := 0; i < 8; i++ {
		if i%2 == 0 {
			torque = 6.0
		} else {
			torque = -6.0
		}
		sensors.setEPSInputs(torque, 0)
		runTicks(sched, ctx, 1)
	}
	fmt.Printf("  oscillationDetected=%v total=%.3f\n", epsSystem.LastParams().OscillationDetected, epsSystem.LastParams().TotalNm)
	cmd := actuators.motorCommandSnapshot()
	fmt.Printf("  last motor command: torque=%.3f current=%.3f enable=%v\n", cmd.TargetTorqueNm, cmd.CurrentLimitA, cmd.Enable)

	fmt.Println("\n=== S6: critical violation drives graceful shutdown ===")
	supervisor.Report(safety.Violation{Kind: model.ViolationIntegrity, Detail: "simulated critical sensor fault"})
	runTicks(sched, ctx, 5)
	pressures := actuators.wheelPressureSnapshot()
	fmt.Printf("  safety state=%s wheel pressures=%v\n", supervisor.State(), pressures)

	fmt.Printf("\ncomms: sent=%d dropped=%d\n", comms.sent, comms.dropped)
}

func runTicks(sched *scheduler.Scheduler, ctx context.Context, n int) {
	for i := 0; i < n; i++ {
		nowMs := uint32(sched.TickCount() + 1)
		if err := sched.Tick(ctx, nowMs); err != nil {
			panic(err)
		}
	}
}

func reportABS(absSystem *abs.System, actuators *logActuators) {
	pressures := actuators.wheelPressureSnapshot()
	for _, pos := range model.Wheels() {
		w := absSystem.Wheel(pos)
		fmt.Printf("  %s: state=%s phase=%s slip=%.3f pressure=%.3f activations=%d\n",
			pos, w.State, w.Phase, w.SlipRatio, pressures[pos], w.Stats.ActivationCount)
	}
}
