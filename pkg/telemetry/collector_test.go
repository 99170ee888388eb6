package telemetry

import (
	"testing"

	"github.com/ebs-eps/core/pkg/diagnostics"
	"github.com/ebs-eps/core/pkg/safety"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectEmitsSafetyAndDiagnosticMetrics(t *testing.T) {
	dtcs := diagnostics.NewStore(nil)
	require.NoError(t, dtcs.SetDTC(0x1001, 0))

	supervisor := safety.NewSupervisor(nil, nil, nil, dtcs)
	supervisor.CompleteSelfTest()

	c := New(supervisor, nil, nil, dtcs)

	ch := make(chan prometheus.Metric, 16)
	c.Collect(ch)
	close(ch)

	var count int
	for range ch {
		count++
	}
	assert.Equal(t, 5, count)
}

func TestDescribeEmitsAllDescriptors(t *testing.T) {
	c := New(nil, nil, nil, nil)
	ch := make(chan *prometheus.Desc, 16)
	c.Describe(ch)
	close(ch)

	var count int
	for range ch {
		count++
	}
	assert.Equal(t, 10, count)
}
