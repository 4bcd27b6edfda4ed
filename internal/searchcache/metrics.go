package searchcache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	hitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "discovery_searchcache_hits_total",
		Help: "Resolutions served from cached identifiers.",
	}, []string{"category"})
	missesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "discovery_searchcache_misses_total",
		Help: "Resolutions that queried the provider.",
	}, []string{"category"})
	providerFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "discovery_searchcache_provider_failures_total",
		Help: "Cache misses that failed at the provider or reconciler.",
	}, []string{"category"})
)
