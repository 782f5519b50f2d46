// Package metrics exposes Prometheus counters for the ingest and
// aggregate paths.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Import outcome labels.
const (
	OutcomeAccepted         = "accepted"
	OutcomeValidationFailed = "validation_failed"
	OutcomeMalformed        = "malformed"
	OutcomeUnsupported      = "unsupported"
	OutcomeStoreError       = "store_error"
)

// Aggregate result labels.
const (
	ResultOK       = "ok"
	ResultNotFound = "not_found"
	ResultError    = "error"
)

// Statistics cache lookup labels.
const (
	CacheHit  = "hit"
	CacheMiss = "miss"
)

var (
	ImportsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "markr_imports_total",
		Help: "Batch import requests by outcome.",
	}, []string{"outcome"})

	RecordsMergedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "markr_records_merged_total",
		Help: "Result records merged into the store.",
	})

	AggregatesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "markr_aggregates_total",
		Help: "Aggregate requests by result.",
	}, []string{"result"})

	StatsCacheTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "markr_stats_cache_total",
		Help: "Statistics cache lookups by result.",
	}, []string{"result"})
)

func Handler() http.Handler {
	return promhttp.Handler()
}
