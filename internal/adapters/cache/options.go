package cache

import "time"

// Option applies a configuration option to the Store.
type Option func(*Store)

// WithMaxEntries bounds the cache; 0 or negative means unbounded.
func WithMaxEntries(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.maxEntries = n
		}
	}
}

// WithClock overrides the time source, for tests.
func WithClock(clock func() time.Time) Option {
	return func(s *Store) {
		if clock != nil {
			s.clock = clock
		}
	}
}
