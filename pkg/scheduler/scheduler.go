// Package scheduler implements the fixed-period control-loop
// orchestrator (spec §4.7, component C7): a single-threaded
// cooperative loop, driven by a 1ms periodic tick, that runs the
// safety supervisor, ABS, and EPS at full rate and hands off to a set
// of external collaborators at their own slower sub-rates. The
// ticker-driven goroutine shape follows the teacher's
// pkg/node/controller.go main loop, generalized from CANopen's
// SYNC/PDO processing to this core's safety->sensors->ABS->EPS->
// actuators->diagnostics ordering (spec §5).
package scheduler

import (
	"context"
	"time"

	"github.com/ebs-eps/core/pkg/abs"
	"github.com/ebs-eps/core/pkg/collaborators"
	"github.com/ebs-eps/core/pkg/diagnostics"
	"github.com/ebs-eps/core/pkg/eps"
	"github.com/ebs-eps/core/pkg/model"
	"github.com/ebs-eps/core/pkg/safety"
	"github.com/sirupsen/logrus"
)

// CycleTimeMs is the fixed scheduler period (spec §1, §4.7).
const CycleTimeMs = 1

// Sub-rate divisors from spec §4.7 step 5/7: every Nth tick, not every
// tick.
const (
	ESCEveryTicks              = 5
	TCSEveryTicks              = 10
	CommsEveryTicks            = 10
	DiagnosticsHousekeepingEveryTicks = 100
	EPSSafetyMonitorEveryTicks = 10
	EPSDiagnosticEveryTicks    = 100
)

const mainWatchdogName = "main"
const emergencyWatchdogName = "emergency"

// SubRateCollaborators groups the lower-frequency external
// collaborators spec §4.7 names only by periodicity (ESC, TCS,
// communications, diagnostics housekeeping, EPS safety monitor, EPS
// diagnostic task). Each hook is optional; a nil hook is simply
// skipped on its tick.
type SubRateCollaborators struct {
	ESC                     func(ctx context.Context) error
	TCS                     func(ctx context.Context) error
	Comms                   func(ctx context.Context) error
	DiagnosticsHousekeeping func()
	EPSSafetyMonitor        func()
	EPSDiagnostic           func()
}

// Scheduler wires together the safety supervisor, the ABS and EPS
// systems, the diagnostic store, and the external-collaborator
// contracts (spec §6) into the single ordered 1ms tick spec §4.7
// describes.
type Scheduler struct {
	logger *logrus.Entry

	supervisor *safety.Supervisor
	absSystem  *abs.System
	epsSystem  *eps.System
	dtcs       *diagnostics.Store

	sensors      collaborators.SensorProvider
	actuators    collaborators.ActuatorSink
	watchdogHw   collaborators.WatchdogHardware
	subRate      SubRateCollaborators

	tickCount uint64
}

// New constructs a Scheduler. logger may be nil, matching the
// teacher's nil-default logging convention.
func New(
	logger *logrus.Logger,
	supervisor *safety.Supervisor,
	absSystem *abs.System,
	epsSystem *eps.System,
	dtcs *diagnostics.Store,
	sensors collaborators.SensorProvider,
	actuators collaborators.ActuatorSink,
	watchdogHw collaborators.WatchdogHardware,
	subRate SubRateCollaborators,
) *Scheduler {
	if logger == nil {
		logger = logrus.New()
	}
	// Only the main-task watchdog is modeled as a safety.Watchdog
	// descriptor checked every Monitor call; the emergency watchdog
	// belongs to the ISR path (spec §5) and is kicked directly through
	// watchdogHw once Shutdown is entered, never through the
	// per-cycle timeout check a live main loop would otherwise fail.
	supervisor.AddWatchdog(safety.NewWatchdog(mainWatchdogName, 2*CycleTimeMs, 0))

	return &Scheduler{
		logger:     logger.WithField("component", "scheduler"),
		supervisor: supervisor,
		absSystem:  absSystem,
		epsSystem:  epsSystem,
		dtcs:       dtcs,
		sensors:    sensors,
		actuators:  actuators,
		watchdogHw: watchdogHw,
		subRate:    subRate,
	}
}

// TickCount returns the number of ticks run so far.
func (s *Scheduler) TickCount() uint64 {
	return s.tickCount
}

// Tick runs exactly one 1ms cycle per spec §4.7. nowMs is the current
// tick's timestamp from the external TimeSource.
func (s *Scheduler) Tick(ctx context.Context, nowMs uint32) error {
	s.tickCount++

	// Step 1: refresh the main-task watchdog.
	if err := s.supervisor.Watchdog(mainWatchdogName).Kick(nowMs); err != nil {
		s.supervisor.Report(safety.Violation{Kind: model.ViolationWatchdog, Detail: err.Error()})
	}
	if s.watchdogHw != nil {
		if err := s.watchdogHw.Refresh(mainWatchdogName); err != nil {
			s.logger.WithError(err).Warn("main watchdog hardware refresh failed")
		}
	}

	// Step 2: per-cycle safety monitor. This core runs ABS/EPS on a
	// single compute channel, so the dual-channel cross-check stays
	// dormant (SetDualChannel is never called to mark both channels
	// active); a redundant-channel build would call SetDualChannel and
	// pass its two independently computed values here instead of 0,0.
	state := s.supervisor.Monitor(nowMs, 0, 0, 0)
	if state == model.SafetyShutdown {
		// Keep the steering motor disabled: EPS is held in FailSafe, whose
		// Update only sends a disabled motor command.
		if s.epsSystem != nil {
			if s.epsSystem.Mode() != model.EPSModeFailSafe {
				s.epsSystem.SetFailSafe(nowMs)
			}
			if err := s.epsSystem.Update(ctx, eps.Inputs{TimestampMs: nowMs}, CycleTimeMs, s.actuators, nil); err != nil {
				s.logger.WithError(err).Warn("eps motor disable failed")
			}
		}
		if s.watchdogHw != nil {
			_ = s.watchdogHw.Refresh(emergencyWatchdogName)
		}
		return nil
	}

	// Step 3: read the sensor snapshot.
	readCtx, cancel := context.WithTimeout(ctx, collaborators.CollaboratorTimeout)
	snapshot, err := s.readSnapshot(readCtx)
	cancel()
	if err != nil {
		s.supervisor.Report(safety.Violation{Kind: model.ViolationTiming, Detail: "sensor read: " + err.Error()})
		return nil
	}

	// Step 4: ABS every tick.
	if s.absSystem != nil {
		if err := s.absSystem.Update(ctx, snapshot, nowMs, CycleTimeMs, s.actuators); err != nil {
			s.logger.WithError(err).Warn("abs update failed")
		}
	}

	// Step 5: ESC/TCS/comms sub-rates, treated as external
	// collaborators per spec §4.7 step 5.
	if s.tickCount%ESCEveryTicks == 0 && s.subRate.ESC != nil {
		if err := s.subRate.ESC(ctx); err != nil {
			s.logger.WithError(err).Warn("esc collaborator failed")
		}
	}
	if s.tickCount%TCSEveryTicks == 0 && s.subRate.TCS != nil {
		if err := s.subRate.TCS(ctx); err != nil {
			s.logger.WithError(err).Warn("tcs collaborator failed")
		}
	}
	if s.tickCount%CommsEveryTicks == 0 && s.subRate.Comms != nil {
		if err := s.subRate.Comms(ctx); err != nil {
			s.logger.WithError(err).Warn("comms collaborator failed")
		}
	}
	if s.tickCount%DiagnosticsHousekeepingEveryTicks == 0 && s.subRate.DiagnosticsHousekeeping != nil {
		s.subRate.DiagnosticsHousekeeping()
	}

	// Step 6: EPS main task every tick. EPS consumes the ABS-estimated
	// vehicle speed (already validated/filtered) rather than the raw
	// sensor field, the same way ESC/TCS would downstream.
	if s.epsSystem != nil {
		vehicleSpeedKmh := snapshot.VehicleSpeedKmh.Value
		if s.absSystem != nil {
			vehicleSpeedKmh = s.absSystem.VehicleSpeedKmh()
		}
		in := eps.Inputs{
			DriverTorqueNm:   snapshot.DriverTorqueNm.Value,
			VehicleSpeedKmh:  vehicleSpeedKmh,
			SteeringAngleDeg: snapshot.SteeringAngleDeg.Value,
			TimestampMs:      nowMs,
		}
		if err := s.epsSystem.Update(ctx, in, CycleTimeMs, s.actuators, s.dtcs); err != nil {
			s.logger.WithError(err).Debug("eps update reported a control error")
		}
	}

	// Step 7: EPS safety monitor / diagnostic sub-rates.
	if s.tickCount%EPSSafetyMonitorEveryTicks == 0 && s.subRate.EPSSafetyMonitor != nil {
		s.subRate.EPSSafetyMonitor()
	}
	if s.tickCount%EPSDiagnosticEveryTicks == 0 && s.subRate.EPSDiagnostic != nil {
		s.subRate.EPSDiagnostic()
	}

	return nil
}

func (s *Scheduler) readSnapshot(ctx context.Context) (model.Snapshot, error) {
	if s.sensors == nil {
		return model.Snapshot{}, nil
	}
	return s.sensors.Read(ctx)
}

// Run drives Tick on a 1ms ticker until ctx is cancelled, mirroring
// the teacher's ticker-driven main loop. timeSource supplies each
// tick's timestamp.
func (s *Scheduler) Run(ctx context.Context, timeSource collaborators.TimeSource) {
	ticker := time.NewTicker(CycleTimeMs * time.Millisecond)
	defer ticker.Stop()

	s.logger.Info("starting control loop")
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("control loop stopped")
			return
		case <-ticker.C:
			nowMs := uint32(0)
			if timeSource != nil {
				nowMs = timeSource.NowMs()
			}
			if err := s.Tick(ctx, nowMs); err != nil {
				s.logger.WithError(err).Error("tick failed")
			}
		}
	}
}
