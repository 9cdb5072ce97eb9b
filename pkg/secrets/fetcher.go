package secrets

import (
	"context"
	"time"

	"github.com/alapierre/secret-helper/pkg/cache"
	"github.com/alapierre/secret-helper/pkg/logging"
)

var logger = logging.Component("pkg/secrets")

// Fetcher performs live lookups against the platform store. Every successful
// lookup is written to the raw store; failures never touch it. It does not
// retry.
type Fetcher struct {
	get      GetValueFunc
	elevated GetValueFunc
	raw      *cache.Store[string]
	metrics  Metrics
}

// NewFetcher builds a Fetcher over get. When elevate is nil, elevated calls go
// through get unchanged.
func NewFetcher(get GetValueFunc, elevate Elevator, raw *cache.Store[string], metrics Metrics) *Fetcher {
	if elevate == nil {
		elevate = NoElevation
	}
	if metrics == nil {
		metrics = NoopMetrics{}
	}
	return &Fetcher{
		get:      get,
		elevated: elevate(get),
		raw:      raw,
		metrics:  metrics,
	}
}

// Fetch calls the store once, through the elevated capability when elevate is
// true.
func (f *Fetcher) Fetch(ctx context.Context, name string, elevate bool) (string, error) {
	if name == "" {
		return "", newError("fetch", "", ErrInvalidArgument, nil)
	}

	call := f.get
	if elevate {
		call = f.elevated
	}

	start := time.Now()
	value, err := call(ctx, name)
	elapsed := time.Since(start)
	if err != nil {
		f.metrics.Fetch(OutcomeError, elapsed)
		logger.Debugf("Fetching %s failed after %s: %v", name, elapsed, err)
		return "", newError("fetch", name, ErrFetch, err)
	}
	if value == "" {
		f.metrics.Fetch(OutcomeEmpty, elapsed)
		logger.Debugf("Store returned no value for %s", name)
		return "", newError("fetch", name, ErrEmptySecret, nil)
	}

	f.metrics.Fetch(OutcomeSuccess, elapsed)
	logger.Debugf("Fetched %s in %s (elevated: %t)", name, elapsed, elevate)
	if f.raw != nil {
		f.raw.Set(name, value)
	}
	return value, nil
}
