package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	FetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fluxmap_fetches_total",
			Help: "Total source archive fetches by source and status",
		},
		[]string{"source", "status"},
	)

	FetchLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fluxmap_fetch_latency_seconds",
			Help:    "Source archive fetch latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"source"},
	)

	ObservationsIngested = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fluxmap_observations_ingested_total",
			Help: "Total hourly observations ingested into the cache",
		},
		[]string{"station"},
	)

	FluxComputed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fluxmap_flux_computed_total",
			Help: "Latent heat flux values computed, by outcome (ok or missing)",
		},
		[]string{"outcome"},
	)
)
