// Package cache holds the time-bounded, process-local stores used to keep
// secret values between calls. Entries expire a fixed duration after they
// were written; expired entries are dropped lazily on lookup and by a
// periodic sweep.
package cache

import (
	"runtime"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/alapierre/secret-helper/pkg/logging"
)

const (
	DefaultTTL         = 360 * time.Second
	DefaultCheckPeriod = 120 * time.Second
)

var logger = logging.Component("pkg/cache")

type entry[V any] struct {
	value      V
	insertedAt time.Time
}

type options struct {
	checkPeriod time.Duration
	now         func() time.Time
	onEvicted   func(key string)
}

type Option func(*options)

// WithCheckPeriod sets how often expired entries are swept. Zero disables the
// sweep; entries are then only dropped on lookup.
func WithCheckPeriod(d time.Duration) Option {
	return func(o *options) {
		o.checkPeriod = d
	}
}

// WithClock replaces time.Now for every expiry decision, on lookup and in the
// sweep.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// WithEvictionHook registers fn to be called whenever an entry is dropped
// because it expired, either on lookup or by the sweep. Explicit Delete and
// Flush do not call it.
func WithEvictionHook(fn func(key string)) Option {
	return func(o *options) {
		o.onEvicted = fn
	}
}

// Store maps names to values of type V with a single TTL shared by every
// entry. It is safe for concurrent use.
//
// Expiry is decided only by the store clock; the backing go-cache keeps
// entries without a deadline of its own.
type Store[V any] struct {
	*store[V]
}

type store[V any] struct {
	name      string
	ttl       time.Duration
	now       func() time.Time
	onEvicted func(key string)
	items     *gocache.Cache
	stop      chan struct{}
}

// New creates a store. name only labels log lines. A ttl <= 0 keeps entries
// until they are deleted.
func New[V any](name string, ttl time.Duration, opts ...Option) *Store[V] {
	o := &options{
		checkPeriod: DefaultCheckPeriod,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}

	s := &store[V]{
		name:      name,
		ttl:       ttl,
		now:       o.now,
		onEvicted: o.onEvicted,
		items:     gocache.New(gocache.NoExpiration, 0),
	}
	wrapped := &Store[V]{s}

	if ttl > 0 && o.checkPeriod > 0 {
		s.stop = make(chan struct{})
		go s.runSweep(o.checkPeriod)
		// The sweep goroutine only holds the inner store, so wrapped can be
		// collected; stop the sweep when it is.
		runtime.SetFinalizer(wrapped, stopSweep[V])
	}

	logger.Debugf("Created %s store (ttl %s, check period %s)", name, ttl, o.checkPeriod)
	return wrapped
}

func stopSweep[V any](s *Store[V]) {
	close(s.stop)
}

func (s *store[V]) runSweep(period time.Duration) {
	ticker := time.NewTicker(period)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.sweep()
		case <-s.stop:
			return
		}
	}
}

func (s *store[V]) sweep() {
	for key, item := range s.items.Items() {
		ent, ok := item.Object.(entry[V])
		if ok && s.expired(ent) {
			s.expire(key)
		}
	}
}

func (s *store[V]) expired(ent entry[V]) bool {
	return s.ttl > 0 && !s.now().Before(ent.insertedAt.Add(s.ttl))
}

// expire removes key after re-checking it, so an entry Set since the caller
// looked at it is kept.
func (s *store[V]) expire(key string) {
	raw, ok := s.items.Get(key)
	if !ok {
		return
	}
	if ent, ok := raw.(entry[V]); ok && !s.expired(ent) {
		return
	}
	s.items.Delete(key)
	logger.Debugf("Entry %s expired in %s store", key, s.name)
	if s.onEvicted != nil {
		s.onEvicted(key)
	}
}

func (s *store[V]) Name() string {
	return s.name
}

func (s *store[V]) TTL() time.Duration {
	return s.ttl
}

// Get returns the value stored under key. An entry whose age has reached the
// TTL is treated as absent and removed.
func (s *store[V]) Get(key string) (V, bool) {
	var zero V

	raw, ok := s.items.Get(key)
	if !ok {
		return zero, false
	}
	ent, ok := raw.(entry[V])
	if !ok {
		return zero, false
	}

	if s.expired(ent) {
		s.expire(key)
		return zero, false
	}

	return ent.value, true
}

// Set stores value under key, replacing any previous entry and restarting its
// TTL.
func (s *store[V]) Set(key string, value V) {
	s.items.Set(key, entry[V]{value: value, insertedAt: s.now()}, gocache.NoExpiration)
}

func (s *store[V]) Delete(key string) {
	s.items.Delete(key)
}

func (s *store[V]) Flush() {
	s.items.Flush()
}

// Len counts stored entries, including expired ones the sweep has not reached
// yet.
func (s *store[V]) Len() int {
	return s.items.ItemCount()
}
