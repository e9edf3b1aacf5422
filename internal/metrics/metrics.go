// Package metrics owns the Prometheus collectors for the prediction path.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// predictionsTotal counts prediction requests by outcome.
	// Labels: outcome (matched, empty, invalid_input, catalog_unavailable, error)
	predictionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "symptomatch",
		Subsystem: "predictor",
		Name:      "predictions_total",
		Help:      "Prediction requests by outcome",
	}, []string{"outcome"})

	// predictionLatencySeconds measures catalog fetch plus scoring.
	predictionLatencySeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "symptomatch",
		Subsystem: "predictor",
		Name:      "latency_seconds",
		Help:      "Prediction latency including the catalog fetch",
		Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	})

	malformedEntriesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "symptomatch",
		Subsystem: "catalog",
		Name:      "malformed_entries_total",
		Help:      "Catalog rows skipped because they failed to decode",
	})

	// cacheLookupsTotal counts catalog snapshot cache lookups.
	// Labels: result (hit, miss, error)
	cacheLookupsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "symptomatch",
		Subsystem: "catalog",
		Name:      "cache_lookups_total",
		Help:      "Catalog snapshot cache lookups by result",
	}, []string{"result"})

	// queryLogWritesTotal counts prediction history writes.
	// Labels: status (ok, failed)
	queryLogWritesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "symptomatch",
		Subsystem: "history",
		Name:      "writes_total",
		Help:      "Prediction query log writes by status",
	}, []string{"status"})
)

// RecordPrediction records a finished prediction.
func RecordPrediction(outcome string, durationSec float64) {
	predictionsTotal.WithLabelValues(outcome).Inc()
	predictionLatencySeconds.Observe(durationSec)
}

func RecordMalformedEntry() {
	malformedEntriesTotal.Inc()
}

func RecordCacheLookup(result string) {
	cacheLookupsTotal.WithLabelValues(result).Inc()
}

func RecordQueryLogWrite(ok bool) {
	status := "ok"
	if !ok {
		status = "failed"
	}
	queryLogWritesTotal.WithLabelValues(status).Inc()
}
