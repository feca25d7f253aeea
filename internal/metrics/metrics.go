// Package metrics exposes Prometheus collectors for the monitor service.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	observationsTotal   *prometheus.CounterVec
	fetchFailuresTotal  *prometheus.CounterVec
	extractionMissTotal *prometheus.CounterVec
	dropsDetectedTotal  *prometheus.CounterVec
	notificationsTotal  *prometheus.CounterVec
	runsTotal           prometheus.Counter

	once sync.Once
)

// Init initializes the Prometheus metrics collectors. It is safe to call
// multiple times; the helpers below no-op until it runs.
func Init() {
	once.Do(func() {
		observationsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pricewatch_observations_total",
				Help: "Total price observations recorded, labeled by model.",
			},
			[]string{"model"},
		)
		fetchFailuresTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pricewatch_fetch_failures_total",
				Help: "Total failed page fetches, labeled by failure reason.",
			},
			[]string{"reason"},
		)
		extractionMissTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pricewatch_extraction_misses_total",
				Help: "Total pages fetched where no price could be extracted, labeled by model.",
			},
			[]string{"model"},
		)
		dropsDetectedTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pricewatch_drops_detected_total",
				Help: "Total threshold-exceeding price drops detected, labeled by model.",
			},
			[]string{"model"},
		)
		notificationsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pricewatch_notifications_total",
				Help: "Total notification deliveries attempted, labeled by sink and outcome.",
			},
			[]string{"sink", "outcome"},
		)
		runsTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "pricewatch_runs_total",
				Help: "Total monitoring runs completed.",
			},
		)
	})
}

// RecordObservation counts one recorded price observation.
func RecordObservation(model string) {
	if observationsTotal != nil {
		observationsTotal.WithLabelValues(model).Inc()
	}
}

// RecordFetchFailure counts one failed fetch by reason.
func RecordFetchFailure(reason string) {
	if fetchFailuresTotal != nil {
		fetchFailuresTotal.WithLabelValues(reason).Inc()
	}
}

// RecordExtractionMiss counts one page with no extractable price.
func RecordExtractionMiss(model string) {
	if extractionMissTotal != nil {
		extractionMissTotal.WithLabelValues(model).Inc()
	}
}

// RecordDrop counts one detected price drop.
func RecordDrop(model string) {
	if dropsDetectedTotal != nil {
		dropsDetectedTotal.WithLabelValues(model).Inc()
	}
}

// RecordNotification counts one delivery attempt per sink and outcome.
func RecordNotification(sink, outcome string) {
	if notificationsTotal != nil {
		notificationsTotal.WithLabelValues(sink, outcome).Inc()
	}
}

// RecordRun counts one completed monitoring run.
func RecordRun() {
	if runsTotal != nil {
		runsTotal.Inc()
	}
}

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
