// Package metrics records per-run generation statistics and writes them in
// the Prometheus text format, for node_exporter's textfile collector.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"randcal/internal/model"
)

const namespace = "randcal"

// Recorder collects statistics for one generation run. The zero value is
// not usable; call NewRecorder.
type Recorder struct {
	registry *prometheus.Registry

	days        prometheus.Counter
	underfilled prometheus.Counter
	events      *prometheus.CounterVec
	attempts    prometheus.Histogram
	lastRun     prometheus.Gauge
}

// NewRecorder creates a Recorder backed by its own registry.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		days: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "days_planned_total",
			Help:      "Weekdays planned.",
		}),
		underfilled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "days_underfilled_total",
			Help:      "Weekdays that ran out of placement attempts before reaching their target count.",
		}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_generated_total",
			Help:      "Events generated, by kind (anchor or regular).",
		}, []string{"kind"}),
		attempts: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "placement_attempts",
			Help:      "Placement attempts consumed per day.",
			Buckets:   []float64{1, 2, 4, 8, 16, 32, 50},
		}),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time of the last completed generation run.",
		}),
	}

	r.registry.MustRegister(r.days, r.underfilled, r.events, r.attempts, r.lastRun)
	return r
}

// ObserveDay records one finalized day schedule.
func (r *Recorder) ObserveDay(ds model.DaySchedule) {
	r.days.Inc()
	if ds.Underfilled() {
		r.underfilled.Inc()
	}
	r.attempts.Observe(float64(ds.Attempts))

	for i := range ds.Events {
		kind := "regular"
		if i == 0 && ds.AnchorPlaced {
			kind = "anchor"
		}
		r.events.WithLabelValues(kind).Inc()
	}
}

// MarkCompleted stamps the last-run gauge with the current time.
func (r *Recorder) MarkCompleted() {
	r.lastRun.SetToCurrentTime()
}

// Registry exposes the underlying registry, mainly for tests.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// WriteTextfile atomically writes all metrics to path.
func (r *Recorder) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.registry)
}
