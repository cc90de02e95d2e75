package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	cacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "maya_cache_hits_total",
			Help: "Total cache hits returning a stored value",
		},
		[]string{"cache"},
	)

	cacheAbsentHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "maya_cache_absent_hits_total",
			Help: "Total cache hits on confirmed-absent markers",
		},
		[]string{"cache"},
	)

	cacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "maya_cache_misses_total",
			Help: "Total cache misses, including lazy expiries",
		},
		[]string{"cache"},
	)

	cacheInvalidations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "maya_cache_invalidations_total",
			Help: "Total entries evicted by local or remote invalidation",
		},
		[]string{"cache"},
	)

	busMessagesPublished = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "maya_invalidation_bus_published_total",
			Help: "Total invalidation messages published to the broker",
		},
	)

	busMessagesReceived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "maya_invalidation_bus_received_total",
			Help: "Total invalidation messages received, by origin",
		},
		[]string{"origin"},
	)
)
