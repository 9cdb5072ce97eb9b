// Package metrics exports secret lookup events as Prometheus metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/alapierre/secret-helper/pkg/secrets"
)

const namespace = "secret_helper"

// Prometheus implements secrets.Metrics.
type Prometheus struct {
	cacheHits      *prometheus.CounterVec
	cacheMisses    *prometheus.CounterVec
	cacheEvictions *prometheus.CounterVec
	fetches        *prometheus.CounterVec
	fetchDuration  prometheus.Histogram
	parseFailures  prometheus.Counter
}

var _ secrets.Metrics = (*Prometheus)(nil)

// New registers the collectors with reg. A nil reg leaves them unregistered.
func New(reg prometheus.Registerer) *Prometheus {
	return &Prometheus{
		cacheHits: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_hits_total",
			Help:      "Lookups served from a cache.",
		}, []string{"cache"}),
		cacheMisses: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_misses_total",
			Help:      "Lookups that found no live cache entry.",
		}, []string{"cache"}),
		cacheEvictions: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_evictions_total",
			Help:      "Entries dropped from a cache because they expired.",
		}, []string{"cache"}),
		fetches: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetches_total",
			Help:      "Live lookups against the secret store, by outcome.",
		}, []string{"outcome"}),
		fetchDuration: promauto.With(reg).NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_duration_seconds",
			Help:      "Time spent in live lookups.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
		}),
		parseFailures: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "parse_failures_total",
			Help:      "Secret values that could not be decoded as JSON.",
		}),
	}
}

func (p *Prometheus) CacheHit(cache string) {
	p.cacheHits.WithLabelValues(cache).Inc()
}

func (p *Prometheus) CacheMiss(cache string) {
	p.cacheMisses.WithLabelValues(cache).Inc()
}

func (p *Prometheus) CacheEviction(cache string) {
	p.cacheEvictions.WithLabelValues(cache).Inc()
}

func (p *Prometheus) Fetch(outcome string, elapsed time.Duration) {
	p.fetches.WithLabelValues(outcome).Inc()
	p.fetchDuration.Observe(elapsed.Seconds())
}

func (p *Prometheus) ParseFailure() {
	p.parseFailures.Inc()
}
