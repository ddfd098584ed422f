// Package metrics provides Prometheus metrics for the day supply engine.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all application metrics.
type Metrics struct {
	ExtractionsTotal     *prometheus.CounterVec
	ExtractionsUnmatched prometheus.Counter
	ExtractionsDegraded  prometheus.Counter
	ExtractionWarnings   prometheus.Counter
	ExtractionDuration   prometheus.Histogram
}

// New creates and registers all metrics on the given registerer.
func New(registerer prometheus.Registerer) *Metrics {
	m := &Metrics{
		ExtractionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "daysupply_extractions_total",
			Help: "Total extractions processed, by drug category",
		}, []string{"category"}),
		ExtractionsUnmatched: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "daysupply_extractions_unmatched_total",
			Help: "Total extractions where no catalog drug matched",
		}),
		ExtractionsDegraded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "daysupply_extractions_degraded_total",
			Help: "Total extractions that fell back to the default day supply",
		}),
		ExtractionWarnings: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "daysupply_extraction_warnings_total",
			Help: "Total warnings attached to extraction results",
		}),
		ExtractionDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "daysupply_extraction_duration_seconds",
			Help:    "Extraction processing duration",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		}),
	}

	registerer.MustRegister(
		m.ExtractionsTotal,
		m.ExtractionsUnmatched,
		m.ExtractionsDegraded,
		m.ExtractionWarnings,
		m.ExtractionDuration,
	)

	return m
}

// Handler returns the Prometheus scrape handler for the given gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
