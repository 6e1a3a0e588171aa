package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// regime states mapped to a single gauge value so dashboards can
// overlay state transitions on the index series.
var regimeGaugeValues = map[string]float64{
	"OFF_OVERRIDE": -2,
	"OFF":          -1,
	"NEU":          0,
	"ON":           1,
}

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	ticksTotal   prometheus.Counter
	ticksSkipped *prometheus.CounterVec
	tickDuration prometheus.Histogram
	indexValue   prometheus.Gauge
	constituents prometheus.Gauge
	stressValue  prometheus.Gauge
	regimeState  prometheus.Gauge
	rejectsTotal *prometheus.CounterVec
	errorsTotal  *prometheus.CounterVec
	latency      *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		ticksTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "stablebench_ticks_total",
				Help: "Total number of published benchmark ticks",
			},
		),
		ticksSkipped: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stablebench_ticks_skipped_total",
				Help: "Ticks skipped without publishing a snapshot",
			},
			[]string{"reason"},
		),
		tickDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "stablebench_tick_duration_seconds",
				Help:    "Wall time of a full tick computation",
				Buckets: prometheus.DefBuckets,
			},
		),
		indexValue: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "stablebench_index_value",
				Help: "Latest published index value (risk-adjusted APY, percent)",
			},
		),
		constituents: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "stablebench_index_constituents",
				Help: "Constituent count of the latest tick",
			},
		),
		stressValue: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "stablebench_stress_value",
				Help: "Latest stress index value in [0, 1]",
			},
		),
		regimeState: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "stablebench_regime_state",
				Help: "Latest regime as a level: -2 override, -1 off, 0 neutral, 1 on",
			},
		),
		rejectsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stablebench_rejects_total",
				Help: "Observations rejected by validation or staleness",
			},
			[]string{"reason"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stablebench_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "stablebench_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordTick records a published tick with its constituent count and duration.
func (r *Recorder) RecordTick(constituents int, seconds float64) {
	r.ticksTotal.Inc()
	r.constituents.Set(float64(constituents))
	r.tickDuration.Observe(seconds)
}

// RecordSkippedTick records a tick that produced no snapshot.
func (r *Recorder) RecordSkippedTick(reason string) {
	r.ticksSkipped.WithLabelValues(reason).Inc()
}

// RecordIndexValue records the latest index value.
func (r *Recorder) RecordIndexValue(v float64) {
	r.indexValue.Set(v)
}

// RecordStress records the latest stress index value.
func (r *Recorder) RecordStress(v float64) {
	r.stressValue.Set(v)
}

// RecordRegime records the latest regime state.
func (r *Recorder) RecordRegime(state string) {
	if v, ok := regimeGaugeValues[state]; ok {
		r.regimeState.Set(v)
	}
}

// RecordReject records a rejected observation by reason.
func (r *Recorder) RecordReject(reason string) {
	r.rejectsTotal.WithLabelValues(reason).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
