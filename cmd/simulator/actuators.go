package main

import (
	"context"
	"fmt"
	"sync"

	"github.com/ebs-eps/core/pkg/collaborators"
	"github.com/ebs-eps/core/pkg/model"
)

// logActuators is a synthetic collaborators.ActuatorSink that records
// the last pressure command per wheel and the last motor command for
// scenario reporting instead of driving real hydraulics or a motor
// bridge. Only emergency-stop and shutdown calls are printed.
type logActuators struct {
	mu              sync.Mutex
	wheelPressure   [model.WheelCount]float64
	lastMotorCmd    collaborators.MotorCommand
	emergencyStops  int
	shutdowns       int
}

func newLogActuators() *logActuators {
	return &logActuators{}
}

func (a *logActuators) SetWheelPressure(ctx context.Context, wheel model.WheelPosition, pressure float64) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.wheelPressure[wheel] = pressure
	return nil
}

func (a *logActuators) SetMotorCommand(ctx context.Context, cmd collaborators.MotorCommand) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.lastMotorCmd = cmd
	return nil
}

func (a *logActuators) EmergencyStop() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.emergencyStops++
	fmt.Println("  [actuators] EMERGENCY STOP commanded")
	return nil
}

func (a *logActuators) Shutdown(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.shutdowns++
	fmt.Println("  [actuators] hydraulics commanded to safe passive state")
	return nil
}

func (a *logActuators) wheelPressureSnapshot() [model.WheelCount]float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.wheelPressure
}

func (a *logActuators) motorCommandSnapshot() collaborators.MotorCommand {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastMotorCmd
}
