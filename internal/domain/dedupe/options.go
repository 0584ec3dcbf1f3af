package dedupe

// Option applies a configuration option to the in-memory tracker.
type Option func(*memTracker)

// WithMaxSize bounds the number of remembered ids. Values <= 0 disable
// eviction entirely.
func WithMaxSize(n int) Option {
	return func(t *memTracker) {
		t.maxSize = n
	}
}
