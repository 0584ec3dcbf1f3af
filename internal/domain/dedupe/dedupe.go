// Package dedupe tracks client-supplied submission ids so retried game
// submissions converge on a single ledger row instead of duplicating it.
package dedupe

import (
	"context"
	"sync"
	"sync/atomic"
)

const defaultMaxSize = 50_000

// Tracker records seen submission ids for at-most-once recording.
type Tracker interface {
	// SeenAndRecord atomically checks whether id was seen and records it
	// if not. Returns true when id was already seen.
	SeenAndRecord(ctx context.Context, id string) bool

	// Unrecord forgets an id so the submission can be retried. Used when a
	// submission was recorded as seen but its write failed.
	Unrecord(ctx context.Context, id string)

	Size() int64
}

// memTracker is an in-memory Tracker with FIFO eviction once maxSize is
// reached. maxSize <= 0 disables eviction.
type memTracker struct {
	mu      sync.Mutex
	seen    map[string]struct{}
	order   []string // insertion order, oldest first; unused when unbounded
	maxSize int
	size    atomic.Int64
}

// NewTracker creates an in-memory tracker with configuration options.
func NewTracker(opts ...Option) Tracker {
	t := &memTracker{maxSize: defaultMaxSize}
	for _, opt := range opts {
		opt(t)
	}
	t.seen = make(map[string]struct{})
	return t
}

func (t *memTracker) SeenAndRecord(ctx context.Context, id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.seen[id]; ok {
		return true
	}
	if t.maxSize > 0 {
		for len(t.seen) >= t.maxSize && len(t.order) > 0 {
			oldest := t.order[0]
			t.order = t.order[1:]
			if _, ok := t.seen[oldest]; ok {
				delete(t.seen, oldest)
				t.size.Add(-1)
			}
		}
		t.order = append(t.order, id)
	}
	t.seen[id] = struct{}{}
	t.size.Add(1)
	return false
}

func (t *memTracker) Unrecord(ctx context.Context, id string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.seen[id]; !ok {
		return
	}
	delete(t.seen, id)
	t.size.Add(-1)
	// The stale order slot is skipped at eviction time.
}

func (t *memTracker) Size() int64 {
	return t.size.Load()
}
