package secrets

import "time"

// Cache labels passed to Metrics.
const (
	RawCache    = "raw"
	ParsedCache = "parsed"
)

// Fetch outcomes passed to Metrics.Fetch.
const (
	OutcomeSuccess = "success"
	OutcomeEmpty   = "empty"
	OutcomeError   = "error"
)

// Metrics receives events from the Fetcher and the Coordinator.
type Metrics interface {
	CacheHit(cache string)
	CacheMiss(cache string)
	CacheEviction(cache string)
	Fetch(outcome string, elapsed time.Duration)
	ParseFailure()
}

// NoopMetrics discards every event.
type NoopMetrics struct{}

func (NoopMetrics) CacheHit(string)             {}
func (NoopMetrics) CacheMiss(string)            {}
func (NoopMetrics) CacheEviction(string)        {}
func (NoopMetrics) Fetch(string, time.Duration) {}
func (NoopMetrics) ParseFailure()               {}
