// Package metrics exposes joke store activity as Prometheus metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/jsamuelsen/jokeboard/internal/app"
)

const namespace = "jokeboard"

// Recorder implements app.Recorder on a dedicated Prometheus registry.
type Recorder struct {
	registry *prometheus.Registry

	fetchDuration  *prometheus.HistogramVec
	fetchTotal     *prometheus.CounterVec
	filterTotal    prometheus.Counter
	filterMatched  prometheus.Histogram
	sessionsActive prometheus.Gauge
}

var _ app.Recorder = (*Recorder)(nil)

// New creates a recorder with its own registry, including the Go runtime
// and process collectors.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		fetchDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_duration_seconds",
			Help:      "Duration of joke batch fetches.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"outcome"}),
		fetchTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetches_total",
			Help:      "Joke batch fetches by outcome. A failure is labelled with the step that failed.",
		}, []string{"outcome"}),
		filterTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "filters_total",
			Help:      "Filter queries applied to joke stores.",
		}),
		filterMatched: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "filter_match_ratio",
			Help:      "Share of jokes matching a filter query.",
			Buckets:   prometheus.LinearBuckets(0, 0.25, 5),
		}),
		sessionsActive: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_active",
			Help:      "Browser sessions with a mounted joke store.",
		}),
	}
}

// FetchCompleted records one fetch.
func (r *Recorder) FetchCompleted(failed app.ExecutionStep, duration time.Duration) {
	outcome := "success"
	if failed != "" {
		outcome = string(failed)
	}

	r.fetchDuration.WithLabelValues(outcome).Observe(duration.Seconds())
	r.fetchTotal.WithLabelValues(outcome).Inc()
}

// JokesFiltered records one filter query. An empty store counts as a full match.
func (r *Recorder) JokesFiltered(matched, total int) {
	r.filterTotal.Inc()

	ratio := 1.0
	if total > 0 {
		ratio = float64(matched) / float64(total)
	}

	r.filterMatched.Observe(ratio)
}

// SessionsMounted records the number of mounted sessions.
func (r *Recorder) SessionsMounted(n int) {
	r.sessionsActive.Set(float64(n))
}

// Gatherer returns the registry backing the recorder, for the metrics endpoint.
func (r *Recorder) Gatherer() prometheus.Gatherer {
	return r.registry
}
