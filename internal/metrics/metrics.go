// Package metrics records sweep results on a private prometheus registry and
// writes them in the node_exporter textfile format at the end of a run.
package metrics

import (
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/OpenTraceLab/OpenTraceBIST/pkg/sweep"
)

const namespace = "bist"

// Recorder owns the registry and the bist_* collectors.
type Recorder struct {
	registry *prometheus.Registry

	signatureCoverage *prometheus.GaugeVec
	signatureTaps     *prometheus.GaugeVec
	evaluated         prometheus.Counter
	faultCoverage     prometheus.Gauge
	sweepDuration     prometheus.Histogram
}

// NewRecorder registers every collector on a fresh registry. runID, when
// not empty, becomes a constant label on all series.
func NewRecorder(runID string) *Recorder {
	var labels prometheus.Labels
	if runID != "" {
		labels = prometheus.Labels{"run_id": runID}
	}

	r := &Recorder{
		registry: prometheus.NewRegistry(),
		signatureCoverage: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        "signature_coverage_percent",
			Help:        "Distinct signature analyzer states over the reference cycle, in percent.",
			ConstLabels: labels,
		}, []string{"polynomial"}),
		signatureTaps: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        "signature_taps",
			Help:        "Feedback taps (XOR adders) of the candidate polynomial.",
			ConstLabels: labels,
		}, []string{"polynomial"}),
		evaluated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "polynomials_evaluated_total",
			Help:        "Candidate polynomials evaluated.",
			ConstLabels: labels,
		}),
		faultCoverage: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        "fault_coverage_percent",
			Help:        "Single stuck-at faults detected by at least one test vector, in percent.",
			ConstLabels: labels,
		}),
		sweepDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace:   namespace,
			Name:        "sweep_duration_seconds",
			Help:        "Wall time of a polynomial sweep.",
			ConstLabels: labels,
			Buckets:     []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		}),
	}
	r.registry.MustRegister(
		r.signatureCoverage,
		r.signatureTaps,
		r.evaluated,
		r.faultCoverage,
		r.sweepDuration,
	)
	return r
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// ObserveRecord records one sweep row.
func (r *Recorder) ObserveRecord(rec sweep.Record) {
	poly := rec.Polynomial.String()
	r.signatureCoverage.WithLabelValues(poly).Set(rec.Coverage)
	r.signatureTaps.WithLabelValues(poly).Set(float64(rec.Taps))
	r.evaluated.Inc()
}

// ObserveSweep records the duration of a completed sweep.
func (r *Recorder) ObserveSweep(d time.Duration) {
	r.sweepDuration.Observe(d.Seconds())
}

// SetFaultCoverage records the stuck-at coverage of the detection table.
func (r *Recorder) SetFaultCoverage(percent float64) {
	r.faultCoverage.Set(percent)
}

// WriteTextfile writes every gathered series to path, atomically.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return errors.Wrapf(err, "metrics: write %s", path)
	}
	return nil
}
