package calibration

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ebs-eps/core/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCalibration = `
[abs]
min_activation_speed_kmh = 5.0

[abs.fl]
slip_threshold = 0.3
slip_target = 0.1
reduction_factor = 0.8
increase_factor = 1.1
enabled = true

[abs.fr]
slip_threshold = 0.3
slip_target = 0.1
reduction_factor = 0.8
increase_factor = 1.1
enabled = true

[abs.rl]
slip_threshold = 0.3
slip_target = 0.1
reduction_factor = 0.8
increase_factor = 1.1
enabled = true

[abs.rr]
slip_threshold = 0.3
slip_target = 0.1
reduction_factor = 0.8
increase_factor = 1.1
enabled = true

[eps.torque_bins]
t0 = -8
t1 = -6
t2 = -4
t3 = -2
t4 = -1
t5 = 1
t6 = 2
t7 = 3
t8 = 5
t9 = 8

[eps.speed_bins]
s0 = 0
s1 = 10
s2 = 25
s3 = 50
s4 = 75
s5 = 100
s6 = 150
s7 = 200

[eps.row0]
v0 = -8
v1 = -8
v2 = -8
v3 = -8
v4 = -8
v5 = -8
v6 = -8
v7 = -8

[eps.row1]
v0 = -6
v1 = -6
v2 = -6
v3 = -6
v4 = -6
v5 = -6
v6 = -6
v7 = -6

[eps.row2]
v0 = -4
v1 = -4
v2 = -4
v3 = -4
v4 = -4
v5 = -4
v6 = -4
v7 = -4

[eps.row3]
v0 = -2
v1 = -2
v2 = -2
v3 = -2
v4 = -2
v5 = -2
v6 = -2
v7 = -2

[eps.row4]
v0 = -1
v1 = -1
v2 = -1
v3 = -1
v4 = -1
v5 = -1
v6 = -1
v7 = -1

[eps.row5]
v0 = 1
v1 = 1
v2 = 1
v3 = 1
v4 = 1
v5 = 1
v6 = 1
v7 = 1

[eps.row6]
v0 = 2
v1 = 2
v2 = 2
v3 = 2
v4 = 2
v5 = 2
v6 = 2
v7 = 2

[eps.row7]
v0 = 3
v1 = 3
v2 = 3
v3 = 3
v4 = 3
v5 = 3
v6 = 3
v7 = 3

[eps.row8]
v0 = 5
v1 = 5
v2 = 5
v3 = 5
v4 = 5
v5 = 5
v6 = 5
v7 = 5

[eps.row9]
v0 = 8
v1 = 8
v2 = 8
v3 = 8
v4 = 8
v5 = 8
v6 = 8
v7 = 8
`

func writeSample(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "calibration.ini")
	require.NoError(t, os.WriteFile(path, []byte(sampleCalibration), 0o600))
	return path
}

func TestLoadPopulatesABSAndEPSTables(t *testing.T) {
	store, err := Load(writeSample(t))
	require.NoError(t, err)

	absCal, err := store.ABSCalibration()
	require.NoError(t, err)
	assert.Equal(t, 5.0, absCal.MinActivationSpeed)
	assert.Equal(t, 0.3, absCal.Wheels[model.FL].SlipThreshold)
	assert.True(t, absCal.Wheels[model.FR].Enabled)

	epsMap, err := store.EPSCalibrationMap()
	require.NoError(t, err)
	assert.Equal(t, -8.0, epsMap.TorqueBinsNm[0])
	assert.Equal(t, 200.0, epsMap.SpeedBinsKmh[7])
	assert.Equal(t, 3.0, epsMap.Values[7][0])
}

func TestLoadRejectsMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "does-not-exist.ini"))
	assert.Error(t, err)
}

func TestLoadRejectsMissingField(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "incomplete.ini")
	require.NoError(t, os.WriteFile(path, []byte("[abs]\nmin_activation_speed_kmh = 5.0\n"), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}
