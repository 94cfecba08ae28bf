package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CatalogMetrics records catalog read-path and fallback behavior.
type CatalogMetrics struct {
	cacheHits     *prometheus.CounterVec
	cacheMisses   *prometheus.CounterVec
	fallbacks     *prometheus.CounterVec
	remoteLatency *prometheus.HistogramVec
	auditFailures prometheus.Counter
}

// NewCatalogMetrics registers the catalog metrics on the provided registerer.
func NewCatalogMetrics(reg prometheus.Registerer) *CatalogMetrics {
	if reg == nil {
		return &CatalogMetrics{}
	}
	cacheHits := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_cache_hits_total",
		Help: "Catalog reads served from the in-memory cache.",
	}, []string{"op"})
	cacheMisses := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_cache_misses_total",
		Help: "Catalog reads that had to consult a store.",
	}, []string{"op"})
	fallbacks := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_store_fallbacks_total",
		Help: "Requests served by the local store after a remote failure.",
	}, []string{"op"})
	remoteLatency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "catalog_remote_duration_seconds",
		Help:    "Duration of remote store calls in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"op"})
	auditFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "catalog_audit_failures_total",
		Help: "Audit log writes that were dropped.",
	})
	reg.MustRegister(cacheHits, cacheMisses, fallbacks, remoteLatency, auditFailures)
	return &CatalogMetrics{
		cacheHits:     cacheHits,
		cacheMisses:   cacheMisses,
		fallbacks:     fallbacks,
		remoteLatency: remoteLatency,
		auditFailures: auditFailures,
	}
}

// IncCacheHit increments the cache hit counter for the named operation.
func (c *CatalogMetrics) IncCacheHit(op string) {
	if c == nil || c.cacheHits == nil {
		return
	}
	c.cacheHits.WithLabelValues(normalizeLabel(op)).Inc()
}

// IncCacheMiss increments the cache miss counter for the named operation.
func (c *CatalogMetrics) IncCacheMiss(op string) {
	if c == nil || c.cacheMisses == nil {
		return
	}
	c.cacheMisses.WithLabelValues(normalizeLabel(op)).Inc()
}

// IncFallback increments the local-store fallback counter.
func (c *CatalogMetrics) IncFallback(op string) {
	if c == nil || c.fallbacks == nil {
		return
	}
	c.fallbacks.WithLabelValues(normalizeLabel(op)).Inc()
}

// ObserveRemote records the duration of a remote store call.
func (c *CatalogMetrics) ObserveRemote(op string, duration time.Duration) {
	if c == nil || c.remoteLatency == nil {
		return
	}
	c.remoteLatency.WithLabelValues(normalizeLabel(op)).Observe(duration.Seconds())
}

// IncAuditFailure counts a dropped audit write.
func (c *CatalogMetrics) IncAuditFailure() {
	if c == nil || c.auditFailures == nil {
		return
	}
	c.auditFailures.Inc()
}

func normalizeLabel(op string) string {
	if op == "" {
		return "unknown"
	}
	return op
}
