package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the domains module: registry cache
// behavior, directory fallbacks, and forest registration outcomes.
type Metrics struct {
	CacheHits         prometheus.Counter
	CacheMisses       prometheus.Counter
	DomainsRegistered prometheus.Counter
	SiblingsSkipped   prometheus.Counter
	ResolveDuration   prometheus.Histogram
}

// New creates a Metrics instance with all domains module metrics registered.
func New() *Metrics {
	return &Metrics{
		CacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "adresolver_domain_cache_hits_total",
			Help: "Domain resolutions answered from the registry",
		}),
		CacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "adresolver_domain_cache_misses_total",
			Help: "Domain resolutions that fell through to the directory",
		}),
		DomainsRegistered: promauto.NewCounter(prometheus.CounterOpts{
			Name: "adresolver_domains_registered_total",
			Help: "Domain records registered, anchor and sibling alike",
		}),
		SiblingsSkipped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "adresolver_forest_siblings_skipped_total",
			Help: "Sibling domains skipped during forest registration because they were unreachable",
		}),
		ResolveDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "adresolver_domain_resolve_duration_seconds",
			Help:    "Duration of ResolveDomain operations",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),
	}
}

// ObserveResolve records the duration of a ResolveDomain operation.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveResolve(start time.Time) {
	m.ResolveDuration.Observe(time.Since(start).Seconds())
}
