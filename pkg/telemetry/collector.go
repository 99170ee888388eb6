// Package telemetry implements a Prometheus exporter for the safety
// supervisor, ABS, EPS, and diagnostic store (SPEC_FULL.md component
// D2): a read-only observer scraped out-of-band from the 1ms control
// loop. Follows the teacher pack's custom prometheus.Collector shape
// (const Desc fields populated at construction, values emitted at
// scrape time via MustNewConstMetric) from martinlindhe-wmi_exporter's
// collector package rather than the simpler GaugeVec style, since the
// values here are read from live singletons this package does not own
// and must never block or mutate.
package telemetry

import (
	"github.com/ebs-eps/core/pkg/abs"
	"github.com/ebs-eps/core/pkg/diagnostics"
	"github.com/ebs-eps/core/pkg/eps"
	"github.com/ebs-eps/core/pkg/model"
	"github.com/ebs-eps/core/pkg/safety"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "ebs_eps"

// Collector exports the control core's observable state as Prometheus
// metrics. It never touches the 1ms loop's data structures beyond the
// read-only accessor methods those packages already expose.
type Collector struct {
	supervisor *safety.Supervisor
	absSystem  *abs.System
	epsSystem  *eps.System
	dtcs       *diagnostics.Store

	safetyState      *prometheus.Desc
	cycleOverrunTotal *prometheus.Desc
	maxCycleTimeUs   *prometheus.Desc
	compareFailures  *prometheus.Desc

	dtcActiveCount *prometheus.Desc

	absActivationTotal *prometheus.Desc
	absWheelPressure   *prometheus.Desc
	vehicleSpeedKmh    *prometheus.Desc

	epsAssistTotalNm *prometheus.Desc
	epsStickyFlag    *prometheus.Desc
}

// New constructs a Collector over the given singletons; any may be
// nil, in which case its metrics are simply not emitted.
func New(supervisor *safety.Supervisor, absSystem *abs.System, epsSystem *eps.System, dtcs *diagnostics.Store) *Collector {
	return &Collector{
		supervisor: supervisor,
		absSystem:  absSystem,
		epsSystem:  epsSystem,
		dtcs:       dtcs,

		safetyState: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "safety_state"),
			"Current safety supervisor state (0=Init,1=Operational,2=Degraded,3=Fault,4=Shutdown)",
			nil, nil,
		),
		cycleOverrunTotal: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "cycle_overrun_total"),
			"Cumulative count of scheduler ticks exceeding the 1ms cycle budget",
			nil, nil,
		),
		maxCycleTimeUs: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "max_cycle_time_us"),
			"Maximum observed scheduler cycle time in microseconds",
			nil, nil,
		),
		compareFailures: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "dual_channel_compare_failures_total"),
			"Cumulative count of dual-channel comparison mismatches",
			nil, nil,
		),
		dtcActiveCount: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "diag", "dtc_active_count"),
			"Number of currently active diagnostic trouble codes",
			nil, nil,
		),
		absActivationTotal: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "abs", "activation_total"),
			"Cumulative ABS activation count for one wheel",
			[]string{"wheel"}, nil,
		),
		absWheelPressure: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "abs", "wheel_commanded_pressure"),
			"Current ABS commanded pressure in [0,1] for one wheel",
			[]string{"wheel"}, nil,
		),
		vehicleSpeedKmh: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "abs", "vehicle_speed_kmh"),
			"Current ABS-estimated vehicle reference speed in km/h",
			nil, nil,
		),
		epsAssistTotalNm: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "eps", "assist_total_nm"),
			"Last computed EPS total assist torque in Nm",
			nil, nil,
		),
		epsStickyFlag: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "eps", "sticky_flag"),
			"EPS sticky fault flag state (1=set, 0=clear) for the last tick",
			[]string{"flag"}, nil,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.safetyState
	ch <- c.cycleOverrunTotal
	ch <- c.maxCycleTimeUs
	ch <- c.compareFailures
	ch <- c.dtcActiveCount
	ch <- c.absActivationTotal
	ch <- c.absWheelPressure
	ch <- c.vehicleSpeedKmh
	ch <- c.epsAssistTotalNm
	ch <- c.epsStickyFlag
}

// Collect implements prometheus.Collector. It is best-effort and
// non-blocking: a nil singleton simply contributes no samples.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	if c.supervisor != nil {
		ch <- prometheus.MustNewConstMetric(c.safetyState, prometheus.GaugeValue, float64(c.supervisor.State()))
		ch <- prometheus.MustNewConstMetric(c.cycleOverrunTotal, prometheus.CounterValue, float64(c.supervisor.OverrunCount()))
		ch <- prometheus.MustNewConstMetric(c.maxCycleTimeUs, prometheus.GaugeValue, float64(c.supervisor.MaxCycleTimeUsObserved()))
		ch <- prometheus.MustNewConstMetric(c.compareFailures, prometheus.CounterValue, float64(c.supervisor.CompareFailures()))
	}

	if c.dtcs != nil {
		ch <- prometheus.MustNewConstMetric(c.dtcActiveCount, prometheus.GaugeValue, float64(c.dtcs.ActiveCount()))
	}

	if c.absSystem != nil {
		ch <- prometheus.MustNewConstMetric(c.vehicleSpeedKmh, prometheus.GaugeValue, c.absSystem.VehicleSpeedKmh())
		for _, pos := range model.Wheels() {
			wheel := c.absSystem.Wheel(pos)
			ch <- prometheus.MustNewConstMetric(c.absActivationTotal, prometheus.CounterValue, float64(wheel.Stats.ActivationCount), pos.String())
			ch <- prometheus.MustNewConstMetric(c.absWheelPressure, prometheus.GaugeValue, wheel.CommandedPressure, pos.String())
		}
	}

	if c.epsSystem != nil {
		params := c.epsSystem.LastParams()
		ch <- prometheus.MustNewConstMetric(c.epsAssistTotalNm, prometheus.GaugeValue, params.TotalNm)
		ch <- prometheus.MustNewConstMetric(c.epsStickyFlag, prometheus.GaugeValue, boolToFloat(params.SafetyLimited), "safety_limited")
		ch <- prometheus.MustNewConstMetric(c.epsStickyFlag, prometheus.GaugeValue, boolToFloat(params.RateLimited), "rate_limited")
		ch <- prometheus.MustNewConstMetric(c.epsStickyFlag, prometheus.GaugeValue, boolToFloat(params.OscillationDetected), "oscillation_detected")
	}
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
