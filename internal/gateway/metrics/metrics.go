package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ClassificationsTotal counts inbound hostname classifications by kind.
	ClassificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "medigate",
		Subsystem: "router",
		Name:      "classifications_total",
		Help:      "Hostname classifications by kind.",
	}, []string{"kind"})

	// ResolutionsTotal counts tenant resolutions by the tier that produced
	// the route.
	ResolutionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "medigate",
		Subsystem: "router",
		Name:      "resolutions_total",
		Help:      "Tenant resolutions by matching tier.",
	}, []string{"tier"})

	// LookupFailures counts directory lookups that failed or timed out and
	// were degraded to the next resolution tier.
	LookupFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "medigate",
		Subsystem: "directory",
		Name:      "lookup_failures_total",
		Help:      "Directory lookups that failed or timed out.",
	})

	// CacheHits counts directory lookups answered from the injected cache.
	CacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "medigate",
		Subsystem: "directory",
		Name:      "cache_hits_total",
		Help:      "Directory lookups served from cache.",
	})
)
