package safety

import (
	"fmt"
	"sync"

	"github.com/ebs-eps/core/pkg/model"
	"github.com/sirupsen/logrus"
)

// MaxCycleTimeUs is the 1ms-tick budget from spec §4.4 / §5: a
// single scheduler cycle exceeding this reports a Timing violation.
const MaxCycleTimeUs = 1000

// ActuatorSink is the minimal slice of the C8 actuator contract the
// supervisor needs directly: commanding full manual-braking pressure
// on every wheel during a graceful shutdown (spec §4.4 step 4).
type ActuatorSink interface {
	SetWheelPressure(wheel model.WheelPosition, pressure float64) error
}

// CommsSink is the minimal slice of the C8 comms contract the
// supervisor needs: announcing a shutdown event.
type CommsSink interface {
	SendShutdownNotification() error
}

// EventSink records a diagnostic event; satisfied by the diagnostics
// store's LogEvent, kept as an interface here to avoid an import cycle
// between pkg/safety and pkg/diagnostics.
type EventSink interface {
	LogEvent(eventType uint8, data uint32, timestampMs uint32)
}

// Violation is what a caller reports to the supervisor after a safety
// primitive in this package fails; the primitive itself never reports
// violations on its own (spec §7). Severity is not part of this type:
// spec §4.4 fixes it as a constant mapping per Kind (DefaultSeverity).
type Violation struct {
	Kind   model.ViolationKind
	Detail string
}

// Supervisor owns the overall safety state, timing stats, canaries,
// dual-channel flags, and the set of watchdogs (spec §4.4). It is a
// process-wide singleton with a single writer (the scheduler loop);
// see spec §5 for the concurrency model this assumes.
type Supervisor struct {
	mu sync.Mutex

	logger *logrus.Entry

	state     model.SafetyState
	prevState model.SafetyState

	lastCycleMs    uint32
	maxCycleTimeUs uint32
	overrunCount   uint64

	canary Canary

	primaryActive     bool
	secondaryActive   bool
	compareFailures   uint64

	faultLatched bool

	watchdogs map[string]*Watchdog

	actuators ActuatorSink
	comms     CommsSink
	events    EventSink
}

// NewSupervisor constructs a Supervisor in the Init state.
func NewSupervisor(logger *logrus.Logger, actuators ActuatorSink, comms CommsSink, events EventSink) *Supervisor {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Supervisor{
		logger:    logger.WithField("service", "[SAFETY]"),
		state:     model.SafetyInit,
		prevState: model.SafetyInit,
		canary:    NewCanary(),
		watchdogs: make(map[string]*Watchdog),
		actuators: actuators,
		comms:     comms,
		events:    events,
	}
}

// AddWatchdog registers a watchdog descriptor under the supervisor's
// ownership; it will be range-checked by every Monitor call.
func (s *Supervisor) AddWatchdog(w *Watchdog) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.watchdogs[w.Name] = w
}

// Watchdog returns a registered watchdog by name, or nil.
func (s *Supervisor) Watchdog(name string) *Watchdog {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.watchdogs[name]
}

// State returns the current safety state.
func (s *Supervisor) State() model.SafetyState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// CompleteSelfTest transitions Init -> Operational. Called once at
// boot after the ABS/EPS self-tests (spec §4.5, §4.6) have passed.
func (s *Supervisor) CompleteSelfTest() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == model.SafetyInit {
		s.setStateLocked(model.SafetyOperational)
	}
}

// SetDualChannel records whether the primary/secondary compute
// channels are currently active, used by the per-cycle dual-channel
// comparison step.
func (s *Supervisor) SetDualChannel(primaryActive, secondaryActive bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.primaryActive = primaryActive
	s.secondaryActive = secondaryActive
}

// CompareFailures returns the cumulative dual-channel mismatch count.
func (s *Supervisor) CompareFailures() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.compareFailures
}

// MaxCycleTimeUsObserved and OverrunCount expose the timing stats for
// telemetry.
func (s *Supervisor) MaxCycleTimeUsObserved() uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.maxCycleTimeUs
}

func (s *Supervisor) OverrunCount() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.overrunCount
}

// Monitor runs the per-cycle checks from spec §4.4:
//  1. update max cycle time / report Timing on overrun;
//  2. verify every enabled watchdog is within timeout;
//  3. verify canaries;
//  4. run the dual-channel comparison when both channels are active.
//
// nowMs is the current tick, dualChannelA/B are this cycle's two
// independently computed values to cross-check, and tol is their
// allowed disagreement. Monitor reports every violation it finds by
// calling Report, then returns the (possibly escalated) state.
func (s *Supervisor) Monitor(nowMs uint32, dualChannelA, dualChannelB, tol float64) model.SafetyState {
	s.mu.Lock()
	cycleDeltaUs := (nowMs - s.lastCycleMs) * 1000
	s.lastCycleMs = nowMs
	if cycleDeltaUs > s.maxCycleTimeUs {
		s.maxCycleTimeUs = cycleDeltaUs
	}
	overran := cycleDeltaUs > MaxCycleTimeUs
	if overran {
		s.overrunCount++
	}
	var watchdogErr error
	for _, w := range s.watchdogs {
		if err := w.CheckTimeout(nowMs); err != nil {
			watchdogErr = err
			break
		}
	}
	canaryErr := s.canary.Check()
	dualActive := s.primaryActive && s.secondaryActive
	s.mu.Unlock()

	if overran {
		s.Report(Violation{Kind: model.ViolationTiming, Detail: fmt.Sprintf("cycle=%dus", cycleDeltaUs)})
	}
	if watchdogErr != nil {
		s.Report(Violation{Kind: model.ViolationWatchdog, Detail: watchdogErr.Error()})
	}
	if canaryErr != nil {
		s.Report(Violation{Kind: model.ViolationMemory, Detail: canaryErr.Error()})
	}
	if dualActive {
		if err := DualChannelCompare(dualChannelA, dualChannelB, tol); err != nil {
			s.mu.Lock()
			s.compareFailures++
			s.mu.Unlock()
			s.Report(Violation{Kind: model.ViolationDualChannel, Detail: err.Error()})
		}
	}
	return s.State()
}

// Report applies the escalation policy from spec §4.4's violation
// table: Low logs only, Medium enters Degraded, High enters Fault,
// Critical enters graceful Shutdown.
func (s *Supervisor) Report(v Violation) model.SafetyState {
	severity := model.DefaultSeverity(v.Kind)

	s.logger.WithFields(logrus.Fields{
		"kind":     v.Kind.String(),
		"severity": severity.String(),
		"detail":   v.Detail,
	}).Warn("safety violation reported")

	switch severity {
	case model.SeverityLow:
		// Log only; state unchanged.
	case model.SeverityMedium:
		s.mu.Lock()
		if s.state != model.SafetyShutdown && s.state != model.SafetyFault {
			s.setStateLocked(model.SafetyDegraded)
		}
		s.mu.Unlock()
	case model.SeverityHigh:
		s.mu.Lock()
		s.faultLatched = true
		if s.state != model.SafetyShutdown {
			s.setStateLocked(model.SafetyFault)
		}
		s.mu.Unlock()
	case model.SeverityCritical:
		s.gracefulShutdown(v)
	}
	return s.State()
}

// ClearDegraded allows the supervisor to return to Operational once
// the condition that caused a Medium-severity Degraded entry clears.
// It has no effect from Fault or Shutdown, which require an external
// reset.
func (s *Supervisor) ClearDegraded() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == model.SafetyDegraded {
		s.setStateLocked(model.SafetyOperational)
	}
}

func (s *Supervisor) gracefulShutdown(v Violation) {
	s.mu.Lock()
	alreadyShutdown := s.state == model.SafetyShutdown
	s.setStateLocked(model.SafetyShutdown)
	s.mu.Unlock()

	if alreadyShutdown {
		// Per spec §7: "any subsequent error during shutdown is
		// logged but cannot un-shutdown the system."
		s.logger.WithField("detail", v.Detail).Error("violation during shutdown, ignored")
		return
	}

	s.logger.WithField("detail", v.Detail).Error("critical violation, entering graceful shutdown")

	if s.actuators != nil {
		for _, wheel := range model.Wheels() {
			if err := s.actuators.SetWheelPressure(wheel, 1.0); err != nil {
				s.logger.WithError(err).WithField("wheel", wheel).Error("failed to command full pressure during shutdown")
			}
		}
	}
	if s.events != nil {
		s.events.LogEvent(EventShutdown, uint32(v.Kind), s.lastCycleMs)
	}
	if s.comms != nil {
		if err := s.comms.SendShutdownNotification(); err != nil {
			s.logger.WithError(err).Error("failed to send shutdown notification")
		}
	}
}

// EventShutdown is the diagnostic event type emitted exactly once on
// entry to graceful shutdown (spec §4.4, testable property S6).
const EventShutdown uint8 = 0xF0

func (s *Supervisor) setStateLocked(newState model.SafetyState) {
	if newState == s.state {
		return
	}
	s.prevState = s.state
	s.state = newState
	s.logger.WithFields(logrus.Fields{
		"previous": s.prevState.String(),
		"new":      newState.String(),
	}).Info("safety state changed")
}
