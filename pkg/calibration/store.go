// Package calibration implements the INI-backed calibration store
// (SPEC_FULL.md component D1): a collaborators.CalibrationStore that
// reads the ABS per-wheel table and the EPS 10x8 base-assist map from
// an .ini file using the teacher's own gopkg.in/ini.v1 dependency,
// repurposed here from CANopen EDS parsing to calibration-table
// loading.
package calibration

import (
	"fmt"

	"github.com/ebs-eps/core/pkg/collaborators"
	"github.com/ebs-eps/core/pkg/model"
	"gopkg.in/ini.v1"
)

// Store loads and validates the two calibration tables from an INI
// file. It implements collaborators.CalibrationStore.
type Store struct {
	abs collaborators.ABSCalibration
	eps collaborators.EPSCalibrationMap
}

// wheelSectionNames maps each wheel position to its INI section name.
var wheelSectionNames = [model.WheelCount]string{
	model.FL: "abs.fl",
	model.FR: "abs.fr",
	model.RL: "abs.rl",
	model.RR: "abs.rr",
}

// Load parses path and validates every field it reads; a malformed or
// incomplete file is rejected outright rather than silently defaulted,
// since calibration feeds an ASIL-D control law.
func Load(path string) (*Store, error) {
	f, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("calibration: load %s: %w", path, err)
	}

	s := &Store{}
	if err := s.loadABS(f); err != nil {
		return nil, err
	}
	if err := s.loadEPS(f); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) loadABS(f *ini.File) error {
	general := f.Section("abs")
	minActivation, err := general.Key("min_activation_speed_kmh").Float64()
	if err != nil {
		return fmt.Errorf("calibration: abs.min_activation_speed_kmh: %w", err)
	}
	s.abs.MinActivationSpeed = minActivation

	for _, pos := range model.Wheels() {
		section := f.Section(wheelSectionNames[pos])
		wheel := collaborators.ABSWheelCalibration{}

		wheel.SlipThreshold, err = section.Key("slip_threshold").Float64()
		if err != nil {
			return fmt.Errorf("calibration: %s.slip_threshold: %w", wheelSectionNames[pos], err)
		}
		wheel.SlipTarget, err = section.Key("slip_target").Float64()
		if err != nil {
			return fmt.Errorf("calibration: %s.slip_target: %w", wheelSectionNames[pos], err)
		}
		wheel.ReductionFactor, err = section.Key("reduction_factor").Float64()
		if err != nil {
			return fmt.Errorf("calibration: %s.reduction_factor: %w", wheelSectionNames[pos], err)
		}
		wheel.IncreaseFactor, err = section.Key("increase_factor").Float64()
		if err != nil {
			return fmt.Errorf("calibration: %s.increase_factor: %w", wheelSectionNames[pos], err)
		}
		wheel.Enabled, err = section.Key("enabled").Bool()
		if err != nil {
			return fmt.Errorf("calibration: %s.enabled: %w", wheelSectionNames[pos], err)
		}

		s.abs.Wheels[pos] = wheel
	}
	return nil
}

func (s *Store) loadEPS(f *ini.File) error {
	section := f.Section("eps.torque_bins")
	for i := range s.eps.TorqueBinsNm {
		key := fmt.Sprintf("t%d", i)
		v, err := section.Key(key).Float64()
		if err != nil {
			return fmt.Errorf("calibration: eps.torque_bins.%s: %w", key, err)
		}
		s.eps.TorqueBinsNm[i] = v
	}

	section = f.Section("eps.speed_bins")
	for j := range s.eps.SpeedBinsKmh {
		key := fmt.Sprintf("s%d", j)
		v, err := section.Key(key).Float64()
		if err != nil {
			return fmt.Errorf("calibration: eps.speed_bins.%s: %w", key, err)
		}
		s.eps.SpeedBinsKmh[j] = v
	}

	for i := range s.eps.Values {
		section = f.Section(fmt.Sprintf("eps.row%d", i))
		for j := range s.eps.Values[i] {
			key := fmt.Sprintf("v%d", j)
			v, err := section.Key(key).Float64()
			if err != nil {
				return fmt.Errorf("calibration: eps.row%d.%s: %w", i, key, err)
			}
			s.eps.Values[i][j] = v
		}
	}
	return nil
}

// ABSCalibration implements collaborators.CalibrationStore.
func (s *Store) ABSCalibration() (collaborators.ABSCalibration, error) {
	return s.abs, nil
}

// EPSCalibrationMap implements collaborators.CalibrationStore.
func (s *Store) EPSCalibrationMap() (collaborators.EPSCalibrationMap, error) {
	return s.eps, nil
}
