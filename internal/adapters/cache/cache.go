// Package cache provides the TTL- and tag-indexed materialized-view cache
// fronting ledger and roster reads. Every entry is reconstructible from the
// ledger, so losing the cache costs latency, never correctness.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/okian/shatranj/pkg/metrics"
)

// Producer computes a cache value from ledger state. Producers must be pure
// functions of that state: concurrent misses may invoke one redundantly.
type Producer func(ctx context.Context) (any, error)

type entry struct {
	value     any
	tags      []string
	expiresAt time.Time
}

// Store is an in-memory cache with per-entry TTL and tag invalidation.
type Store struct {
	mu         sync.RWMutex
	entries    map[string]*entry
	byTag      map[string]map[string]struct{}
	maxEntries int
	clock      func() time.Time
}

// New creates a cache store with configuration options.
func New(opts ...Option) *Store {
	s := &Store{
		entries:    make(map[string]*entry),
		byTag:      make(map[string]map[string]struct{}),
		maxEntries: 0, // unbounded by default
		clock:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetOrPopulate returns the cached value if present and unexpired; otherwise
// it invokes producer, stores the result under key with ttl and tags, and
// returns it. The boolean reports whether the value came from cache.
func (s *Store) GetOrPopulate(ctx context.Context, key string, ttl time.Duration, tags []string, producer Producer) (any, bool, error) {
	if v, ok := s.lookup(key, false); ok {
		metrics.RecordCacheHit()
		return v, true, nil
	}
	metrics.RecordCacheMiss()

	// No lock held while producing: duplicate computation on a racing miss
	// is wasted work, not a correctness bug.
	v, err := producer(ctx)
	if err != nil {
		return nil, false, err
	}
	s.put(key, v, ttl, tags)
	return v, false, nil
}

// Get returns the cached value if present and unexpired.
func (s *Store) Get(ctx context.Context, key string) (any, bool) {
	v, ok := s.lookup(key, false)
	if ok {
		metrics.RecordCacheHit()
	} else {
		metrics.RecordCacheMiss()
	}
	return v, ok
}

// GetStale returns the cached value even past its TTL. The quota guard uses
// this while the breaker is open: stale data beats no data.
func (s *Store) GetStale(ctx context.Context, key string) (any, bool) {
	return s.lookup(key, true)
}

// InvalidateKey removes a single entry. Unknown keys are a no-op.
func (s *Store) InvalidateKey(ctx context.Context, key string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[key]; !ok {
		return nil
	}
	s.removeLocked(key)
	metrics.RecordCacheEviction()
	metrics.UpdateCacheEntries(len(s.entries))
	return []string{key}
}

// InvalidateByTags removes every entry carrying any of the given tags and
// returns the removed keys.
func (s *Store) InvalidateByTags(ctx context.Context, tags []string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]struct{})
	for _, tag := range tags {
		for key := range s.byTag[tag] {
			seen[key] = struct{}{}
		}
	}
	removed := make([]string, 0, len(seen))
	for key := range seen {
		s.removeLocked(key)
		metrics.RecordCacheEviction()
		removed = append(removed, key)
	}
	metrics.UpdateCacheEntries(len(s.entries))
	return removed
}

// Len returns the current number of live entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func (s *Store) lookup(key string, allowStale bool) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[key]
	if !ok {
		return nil, false
	}
	if !allowStale && s.clock().After(e.expiresAt) {
		return nil, false
	}
	return e.value, true
}

func (s *Store) put(key string, v any, ttl time.Duration, tags []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.entries[key]; ok {
		s.detachTagsLocked(key, old.tags)
	} else if s.maxEntries > 0 && len(s.entries) >= s.maxEntries {
		s.evictSoonestLocked()
	}

	s.entries[key] = &entry{
		value:     v,
		tags:      append([]string(nil), tags...),
		expiresAt: s.clock().Add(ttl),
	}
	for _, tag := range tags {
		if s.byTag[tag] == nil {
			s.byTag[tag] = make(map[string]struct{})
		}
		s.byTag[tag][key] = struct{}{}
	}
	metrics.UpdateCacheEntries(len(s.entries))
}

// evictSoonestLocked drops the entry closest to expiry to make room.
func (s *Store) evictSoonestLocked() {
	var victim string
	var soonest time.Time
	for key, e := range s.entries {
		if victim == "" || e.expiresAt.Before(soonest) {
			victim = key
			soonest = e.expiresAt
		}
	}
	if victim != "" {
		s.removeLocked(victim)
		metrics.RecordCacheEviction()
	}
}

func (s *Store) removeLocked(key string) {
	e := s.entries[key]
	delete(s.entries, key)
	s.detachTagsLocked(key, e.tags)
}

func (s *Store) detachTagsLocked(key string, tags []string) {
	for _, tag := range tags {
		delete(s.byTag[tag], key)
		if len(s.byTag[tag]) == 0 {
			delete(s.byTag, tag)
		}
	}
}
