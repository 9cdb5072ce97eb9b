package secrets

import (
	"context"
	"time"

	jsoniter "github.com/json-iterator/go"
	"golang.org/x/sync/singleflight"

	"github.com/alapierre/secret-helper/pkg/cache"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Request describes one secret lookup. The zero value of every flag selects
// the default behaviour: served from cache when possible, fetched with
// elevated access, returned as a plain string.
type Request struct {
	Name string

	// ParseJSON returns the secret decoded as JSON.
	ParseJSON bool

	// DisableCache skips the cache lookup and always fetches. The fetched
	// value is still written to the cache.
	DisableCache bool

	// SkipElevation fetches without the elevated capability.
	SkipElevation bool
}

// Value is the result of a lookup. Parsed is set only when the request asked
// for JSON.
type Value struct {
	Name      string
	Raw       string
	Parsed    any
	IsJSON    bool
	FromCache bool
}

type coordinatorConfig struct {
	ttl               time.Duration
	checkPeriod       time.Duration
	now               func() time.Time
	raw               *cache.Store[string]
	parsed            *cache.Store[any]
	elevator          Elevator
	metrics           Metrics
	coalesce          bool
	evictOnParseError bool
}

// Option configures a Coordinator.
type Option func(*coordinatorConfig)

// WithTTL sets the lifetime of entries in both default stores.
func WithTTL(ttl time.Duration) Option {
	return func(c *coordinatorConfig) {
		c.ttl = ttl
	}
}

// WithCheckPeriod sets the sweep interval of both default stores.
func WithCheckPeriod(d time.Duration) Option {
	return func(c *coordinatorConfig) {
		c.checkPeriod = d
	}
}

// WithClock replaces time.Now in both default stores.
func WithClock(now func() time.Time) Option {
	return func(c *coordinatorConfig) {
		c.now = now
	}
}

// WithRawStore injects the store that holds fetched secret strings.
func WithRawStore(s *cache.Store[string]) Option {
	return func(c *coordinatorConfig) {
		c.raw = s
	}
}

// WithParsedStore injects the store that holds decoded JSON values. The
// Coordinator owns the entries it writes there.
func WithParsedStore(s *cache.Store[any]) Option {
	return func(c *coordinatorConfig) {
		c.parsed = s
	}
}

// WithElevator sets the capability used for elevated fetches.
func WithElevator(e Elevator) Option {
	return func(c *coordinatorConfig) {
		c.elevator = e
	}
}

// WithMetrics sets the receiver of cache and fetch events.
func WithMetrics(m Metrics) Option {
	return func(c *coordinatorConfig) {
		c.metrics = m
	}
}

// WithCoalescing makes concurrent cache misses for the same name share a
// single fetch.
func WithCoalescing(enabled bool) Option {
	return func(c *coordinatorConfig) {
		c.coalesce = enabled
	}
}

// WithEvictOnParseError drops the raw entry when it fails to parse as JSON,
// so the next request fetches it again.
func WithEvictOnParseError(enabled bool) Option {
	return func(c *coordinatorConfig) {
		c.evictOnParseError = enabled
	}
}

// Coordinator serves secrets from two TTL stores, one for raw strings and one
// for decoded JSON, and falls back to a live fetch on a miss. It owns both
// stores. It is safe for concurrent use.
type Coordinator struct {
	fetcher           *Fetcher
	raw               *cache.Store[string]
	parsed            *cache.Store[any]
	metrics           Metrics
	coalesce          bool
	evictOnParseError bool
	group             singleflight.Group

	parse func(string) (any, error)
}

// NewCoordinator builds a Coordinator over the platform lookup get.
func NewCoordinator(get GetValueFunc, opts ...Option) *Coordinator {
	cfg := &coordinatorConfig{
		ttl:         cache.DefaultTTL,
		checkPeriod: cache.DefaultCheckPeriod,
		now:         time.Now,
		metrics:     NoopMetrics{},
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.metrics == nil {
		cfg.metrics = NoopMetrics{}
	}

	if cfg.raw == nil {
		cfg.raw = cache.New[string](RawCache, cfg.ttl,
			cache.WithCheckPeriod(cfg.checkPeriod),
			cache.WithClock(cfg.now),
			cache.WithEvictionHook(evictionRecorder(cfg.metrics, RawCache)),
		)
	}
	if cfg.parsed == nil {
		cfg.parsed = cache.New[any](ParsedCache, cfg.ttl,
			cache.WithCheckPeriod(cfg.checkPeriod),
			cache.WithClock(cfg.now),
			cache.WithEvictionHook(evictionRecorder(cfg.metrics, ParsedCache)),
		)
	}

	return &Coordinator{
		fetcher:           NewFetcher(get, cfg.elevator, cfg.raw, cfg.metrics),
		raw:               cfg.raw,
		parsed:            cfg.parsed,
		metrics:           cfg.metrics,
		coalesce:          cfg.coalesce,
		evictOnParseError: cfg.evictOnParseError,
		parse:             parseJSON,
	}
}

func evictionRecorder(m Metrics, name string) func(string) {
	return func(string) {
		m.CacheEviction(name)
	}
}

// parsedEntry is a decoded value together with the raw string it was decoded
// from. It is only served while that string is still the cached raw value.
type parsedEntry struct {
	raw   string
	value any
}

func parseJSON(raw string) (any, error) {
	var v any
	if err := json.UnmarshalFromString(raw, &v); err != nil {
		return nil, err
	}
	return v, nil
}

// Resolve looks up req.Name according to the request flags.
func (c *Coordinator) Resolve(ctx context.Context, req Request) (*Value, error) {
	if req.Name == "" {
		return nil, newError("resolve", "", ErrInvalidArgument, nil)
	}
	elevate := !req.SkipElevation

	if req.DisableCache {
		logger.Debugf("Cache disabled for %s, fetching", req.Name)
		raw, err := c.fetch(ctx, req.Name, elevate)
		if err != nil {
			return nil, err
		}
		return c.fetched(req, raw)
	}

	if raw, ok := c.raw.Get(req.Name); ok {
		c.metrics.CacheHit(RawCache)
		if !req.ParseJSON {
			return &Value{Name: req.Name, Raw: raw, FromCache: true}, nil
		}
		return c.parseCached(req.Name, raw)
	}

	c.metrics.CacheMiss(RawCache)
	logger.Debugf("Cache miss for %s, fetching", req.Name)
	raw, err := c.fetch(ctx, req.Name, elevate)
	if err != nil {
		return nil, err
	}
	return c.fetched(req, raw)
}

// fetch performs a live lookup. A successful lookup replaces the raw entry, so
// any parsed entry derived from the previous raw value is dropped.
func (c *Coordinator) fetch(ctx context.Context, name string, elevate bool) (string, error) {
	load := func(ctx context.Context) (string, error) {
		raw, err := c.fetcher.Fetch(ctx, name, elevate)
		if err != nil {
			return "", err
		}
		c.parsed.Delete(name)
		return raw, nil
	}

	if !c.coalesce {
		return load(ctx)
	}

	key := "plain:" + name
	if elevate {
		key = "elevated:" + name
	}
	// The shared fetch outlives any single caller: each caller stops waiting
	// when its own context is done.
	shared := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (any, error) {
		return load(shared)
	})

	select {
	case res := <-ch:
		if res.Shared {
			logger.Debugf("Shared in-flight fetch for %s", name)
		}
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	case <-ctx.Done():
		logger.Debugf("Stopped waiting for %s: %v", name, ctx.Err())
		return "", newError("fetch", name, ErrFetch, ctx.Err())
	}
}

func (c *Coordinator) fetched(req Request, raw string) (*Value, error) {
	if !req.ParseJSON {
		return &Value{Name: req.Name, Raw: raw}, nil
	}

	parsed, err := c.parse(raw)
	if err != nil {
		return nil, c.parseFailed(req.Name, err)
	}
	c.parsed.Set(req.Name, parsedEntry{raw: raw, value: parsed})
	return &Value{Name: req.Name, Raw: raw, Parsed: parsed, IsJSON: true}, nil
}

func (c *Coordinator) parseCached(name, raw string) (*Value, error) {
	if cached, ok := c.parsed.Get(name); ok {
		// A concurrent fetch may have replaced the raw value after this entry
		// was decoded; such an entry is stale.
		if ent, ok := cached.(parsedEntry); ok && ent.raw == raw {
			c.metrics.CacheHit(ParsedCache)
			return &Value{Name: name, Raw: raw, Parsed: ent.value, IsJSON: true, FromCache: true}, nil
		}
		logger.Debugf("Parsed entry for %s is stale, parsing again", name)
	}
	c.metrics.CacheMiss(ParsedCache)

	parsed, err := c.parse(raw)
	if err != nil {
		return nil, c.parseFailed(name, err)
	}
	c.parsed.Set(name, parsedEntry{raw: raw, value: parsed})
	return &Value{Name: name, Raw: raw, Parsed: parsed, IsJSON: true, FromCache: true}, nil
}

func (c *Coordinator) parseFailed(name string, err error) error {
	c.metrics.ParseFailure()
	if c.evictOnParseError {
		logger.Debugf("Dropping cached %s after parse failure", name)
		c.raw.Delete(name)
	}
	return newError("parse", name, ErrParse, err)
}

// Invalidate drops both cached forms of name.
func (c *Coordinator) Invalidate(name string) {
	c.raw.Delete(name)
	c.parsed.Delete(name)
}

// Flush empties both stores.
func (c *Coordinator) Flush() {
	c.raw.Flush()
	c.parsed.Flush()
}
