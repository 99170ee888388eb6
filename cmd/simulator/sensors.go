package main

import (
	"context"
	"sync"

	"github.com/ebs-eps/core/pkg/model"
)

// scenarioSensors is a synthetic collaborators.SensorProvider driving
// the spec §8 scenarios: it starts at a steady 50 km/h on all four
// wheels, then lets the caller inject per-scenario overrides (S1's FR
// wheel slip, S2's recovery acceleration) between ticks.
type scenarioSensors struct {
	mu       sync.Mutex
	snapshot model.Snapshot
}

func newScenarioSensors() *scenarioSensors {
	s := &scenarioSensors{}
	for _, pos := range model.Wheels() {
		s.snapshot.WheelSpeedKmh[pos] = model.Scalar{Value: 50, Valid: true, Quality: 100}
	}
	s.snapshot.DriverTorqueNm = model.Scalar{Value: 0, Valid: true, Quality: 100}
	s.snapshot.VehicleSpeedKmh = model.Scalar{Value: 50, Valid: true, Quality: 100}
	s.snapshot.SteeringAngleDeg = model.Scalar{Value: 0, Valid: true, Quality: 100}
	return s
}

func (s *scenarioSensors) Read(ctx context.Context) (model.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot, nil
}

func (s *scenarioSensors) setWheelSpeed(pos model.WheelPosition, kmh float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot.WheelSpeedKmh[pos] = model.Scalar{Value: kmh, Valid: true, Quality: 100}
}

func (s *scenarioSensors) setEPSInputs(driverTorqueNm, steeringAngleDeg float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot.DriverTorqueNm = model.Scalar{Value: driverTorqueNm, Valid: true, Quality: 100}
	s.snapshot.SteeringAngleDeg = model.Scalar{Value: steeringAngleDeg, Valid: true, Quality: 100}
}
