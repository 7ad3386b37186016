// Package metrics provides Prometheus metrics for the harvester.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// FetchTotal counts upstream fetch calls by outcome.
	FetchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gameharvester",
			Name:      "fetch_total",
			Help:      "Total number of upstream fetch calls by outcome",
		},
		[]string{"outcome"},
	)

	// RateLimitHits counts explicit rate-limit signals from upstream.
	RateLimitHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "gameharvester",
			Name:      "rate_limit_hits_total",
			Help:      "Total number of explicit rate-limit signals received",
		},
	)

	// RateLimitWaits counts the visible cooldown waits taken by the pipeline.
	RateLimitWaits = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "gameharvester",
			Name:      "rate_limit_waits_total",
			Help:      "Total number of cooldown waits before resuming fetches",
		},
	)

	// GamesTotal counts filtered games by verdict.
	GamesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gameharvester",
			Name:      "games_total",
			Help:      "Total number of fetched games by filter verdict",
		},
		[]string{"verdict"},
	)

	// BatchYield observes accepted games per completed batch.
	BatchYield = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "gameharvester",
			Name:      "batch_yield",
			Help:      "Distribution of accepted games per batch",
			Buckets:   []float64{0, 1, 5, 10, 25, 50, 100, 200},
		},
	)

	// EmptyBatches counts batches that produced no accepted games.
	EmptyBatches = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "gameharvester",
			Name:      "empty_batches_total",
			Help:      "Total number of batches yielding zero accepted games",
		},
	)

	// PoolFallbacks counts pool refreshes served by the static fallback list.
	PoolFallbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "gameharvester",
			Name:      "pool_fallbacks_total",
			Help:      "Total number of pool refreshes that fell back to the static list",
		},
	)

	// CurrentPaceSeconds tracks the coordinator's current pacing delay.
	CurrentPaceSeconds = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "gameharvester",
			Name:      "current_pace_seconds",
			Help:      "Current delay inserted between upstream calls",
		},
	)

	// KnownIDsTotal tracks the size of the in-memory known-ID ledger.
	KnownIDsTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "gameharvester",
			Name:      "known_ids",
			Help:      "Number of game IDs in the known-ID ledger",
		},
	)

	// HarvestState tracks the orchestrator state (0=idle, 1=running,
	// 2=waiting on rate limit, 3=stopped).
	HarvestState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "gameharvester",
			Name:      "harvest_state",
			Help:      "Current orchestrator state (0=idle, 1=running, 2=waiting, 3=stopped)",
		},
	)
)

// RecordFetch records one upstream fetch call outcome.
func RecordFetch(outcome string) {
	FetchTotal.WithLabelValues(outcome).Inc()
}

// RecordVerdict records one filtered game verdict.
func RecordVerdict(verdict string) {
	GamesTotal.WithLabelValues(verdict).Inc()
}
