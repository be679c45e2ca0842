package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the principals module.
type Metrics struct {
	CacheHits        prometheus.Counter
	CacheMisses      prometheus.Counter
	DirectoryQueries prometheus.Counter
	QueryFallbacks   prometheus.Counter
	NotFound         prometheus.Counter
	ResolveDuration  prometheus.Histogram
}

// New creates a Metrics instance with all principals module metrics registered.
func New() *Metrics {
	return &Metrics{
		CacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "adresolver_principal_cache_hits_total",
			Help: "Principal resolutions answered from the registry",
		}),
		CacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "adresolver_principal_cache_misses_total",
			Help: "Principal resolutions that fell through to the directory",
		}),
		DirectoryQueries: promauto.NewCounter(prometheus.CounterOpts{
			Name: "adresolver_principal_directory_queries_total",
			Help: "Object queries issued against candidate domains",
		}),
		QueryFallbacks: promauto.NewCounter(prometheus.CounterOpts{
			Name: "adresolver_principal_query_fallbacks_total",
			Help: "Directory queries retried with the domain's own credential",
		}),
		NotFound: promauto.NewCounter(prometheus.CounterOpts{
			Name: "adresolver_principal_not_found_total",
			Help: "Resolutions where no candidate domain yielded a match",
		}),
		ResolveDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "adresolver_principal_resolve_duration_seconds",
			Help:    "Duration of ResolvePrincipal operations",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),
	}
}

// ObserveResolve records the duration of a ResolvePrincipal operation.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveResolve(start time.Time) {
	m.ResolveDuration.Observe(time.Since(start).Seconds())
}
