package safety

import (
	"sync"
	"testing"

	"github.com/ebs-eps/core/pkg/model"
	"github.com/stretchr/testify/assert"
)

type fakeActuators struct {
	mu       sync.Mutex
	commands map[model.WheelPosition]float64
}

func newFakeActuators() *fakeActuators {
	return &fakeActuators{commands: make(map[model.WheelPosition]float64)}
}

func (f *fakeActuators) SetWheelPressure(wheel model.WheelPosition, pressure float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.commands[wheel] = pressure
	return nil
}

type fakeComms struct {
	shutdownSends int
}

func (f *fakeComms) SendShutdownNotification() error {
	f.shutdownSends++
	return nil
}

type fakeEvents struct {
	events []uint8
}

func (f *fakeEvents) LogEvent(eventType uint8, data uint32, timestampMs uint32) {
	f.events = append(f.events, eventType)
}

func TestSupervisorSelfTestTransition(t *testing.T) {
	s := NewSupervisor(nil, newFakeActuators(), &fakeComms{}, &fakeEvents{})
	assert.Equal(t, model.SafetyInit, s.State())
	s.CompleteSelfTest()
	assert.Equal(t, model.SafetyOperational, s.State())
}

func TestSupervisorMediumEscalatesToDegraded(t *testing.T) {
	s := NewSupervisor(nil, newFakeActuators(), &fakeComms{}, &fakeEvents{})
	s.CompleteSelfTest()
	s.Report(Violation{Kind: model.ViolationTiming, Detail: "overrun"})
	assert.Equal(t, model.SafetyDegraded, s.State())
	s.ClearDegraded()
	assert.Equal(t, model.SafetyOperational, s.State())
}

func TestSupervisorHighEscalatesToFault(t *testing.T) {
	s := NewSupervisor(nil, newFakeActuators(), &fakeComms{}, &fakeEvents{})
	s.CompleteSelfTest()
	s.Report(Violation{Kind: model.ViolationWatchdog, Detail: "late"})
	assert.Equal(t, model.SafetyFault, s.State())
}

// Scenario S6: a Critical severity violation commands 1.0 on all four
// wheels, emits exactly one shutdown event, and stays Shutdown while
// commanding 1.0 on every subsequent tick.
func TestSupervisorCriticalGracefulShutdown(t *testing.T) {
	actuators := newFakeActuators()
	comms := &fakeComms{}
	events := &fakeEvents{}
	s := NewSupervisor(nil, actuators, comms, events)
	s.CompleteSelfTest()

	s.Report(Violation{Kind: model.ViolationIntegrity, Detail: "all wheel sensors lost"})
	assert.Equal(t, model.SafetyShutdown, s.State())

	for _, wheel := range model.Wheels() {
		assert.Equal(t, 1.0, actuators.commands[wheel])
	}
	assert.Equal(t, 1, comms.shutdownSends)
	assert.Equal(t, 1, len(events.events))

	// A second critical violation must not re-send the notification or
	// re-log the event; shutdown is terminal.
	s.Report(Violation{Kind: model.ViolationIntegrity, Detail: "again"})
	assert.Equal(t, model.SafetyShutdown, s.State())
	assert.Equal(t, 1, comms.shutdownSends)
	assert.Equal(t, 1, len(events.events))
}

func TestSupervisorMonitorDetectsOverrun(t *testing.T) {
	s := NewSupervisor(nil, newFakeActuators(), &fakeComms{}, &fakeEvents{})
	s.CompleteSelfTest()
	s.Monitor(0, 1.0, 1.0, 0.1)
	state := s.Monitor(3, 1.0, 1.0, 0.1) // 3ms delta > 1ms budget -> Timing -> Degraded
	assert.Equal(t, model.SafetyDegraded, state)
	assert.Equal(t, uint64(1), s.OverrunCount())
}

func TestSupervisorMonitorDualChannelMismatch(t *testing.T) {
	s := NewSupervisor(nil, newFakeActuators(), &fakeComms{}, &fakeEvents{})
	s.CompleteSelfTest()
	s.SetDualChannel(true, true)
	s.Monitor(0, 1.0, 1.0, 0.01)
	state := s.Monitor(1, 1.0, 5.0, 0.01)
	assert.Equal(t, model.SafetyFault, state)
	assert.Equal(t, uint64(1), s.CompareFailures())
}
