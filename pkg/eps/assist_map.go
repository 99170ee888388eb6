// Package eps implements the EPS assist-torque calculator (spec
// §4.6, component C6): base-map lookup, speed scaling,
// return-to-center, damping, direction check, and the safety/
// oscillation/rate limiting chain that produces the motor command.
package eps

import (
	"github.com/ebs-eps/core/pkg/collaborators"
	"github.com/ebs-eps/core/pkg/control"
)

// bilinearInterpolate looks up M[x, y] from a 10x8 calibration grid
// using bilinear interpolation (spec §4.6 step 1). Inputs are clamped
// to the grid extent before interpolation, so this never extrapolates
// past the table's edges.
func bilinearInterpolate(table collaborators.EPSCalibrationMap, driverTorqueNm, vehicleSpeedKmh float64) float64 {
	x := control.Clamp(driverTorqueNm, table.TorqueBinsNm[0], table.TorqueBinsNm[len(table.TorqueBinsNm)-1])
	y := control.Clamp(vehicleSpeedKmh, table.SpeedBinsKmh[0], table.SpeedBinsKmh[len(table.SpeedBinsKmh)-1])

	xi0, xi1, xt := locate(table.TorqueBinsNm[:], x)
	yi0, yi1, yt := locate(table.SpeedBinsKmh[:], y)

	v00 := table.Values[xi0][yi0]
	v01 := table.Values[xi0][yi1]
	v10 := table.Values[xi1][yi0]
	v11 := table.Values[xi1][yi1]

	v0 := v00 + (v10-v00)*xt
	v1 := v01 + (v11-v01)*xt
	return v0 + (v1-v0)*yt
}

// locate finds the bracketing pair of indices in an ascending grid
// axis and the fractional position t ∈ [0,1] of x between them.
func locate(axis []float64, x float64) (lo, hi int, t float64) {
	n := len(axis)
	if n == 1 {
		return 0, 0, 0
	}
	for i := 0; i < n-1; i++ {
		if x >= axis[i] && x <= axis[i+1] {
			span := axis[i+1] - axis[i]
			if span == 0 {
				return i, i + 1, 0
			}
			return i, i + 1, (x - axis[i]) / span
		}
	}
	if x < axis[0] {
		return 0, 1, 0
	}
	return n - 2, n - 1, 1
}
