// Package guard implements the quota circuit breaker protecting the backing
// store. State is process-local: in a horizontally scaled deployment each
// instance trips and recovers on its own, which only stretches staleness,
// never correctness.
package guard

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/okian/shatranj/internal/domain/types"
	"github.com/okian/shatranj/pkg/logger"
	"github.com/okian/shatranj/pkg/metrics"
)

const defaultCooldown = 60 * time.Second

// Guard is a Closed/Open breaker with no half-open probe: once the cool-down
// elapses the gate simply reopens and the next real request proves success
// or trips it again.
type Guard struct {
	cooldown time.Duration
	clock    func() time.Time

	// openedAt holds the unix-nano trip time, 0 while closed. All
	// transitions go through atomic compare-and-swap.
	openedAt atomic.Int64

	log logger.Logger
}

// New creates a guard with configuration options.
func New(opts ...Option) *Guard {
	g := &Guard{
		cooldown: defaultCooldown,
		clock:    time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.log == nil {
		g.log = logger.Get().Named("quota-guard")
	}
	return g
}

// Trip opens the breaker. Re-tripping while open restarts the cool-down.
func (g *Guard) Trip(ctx context.Context) {
	now := g.clock().UnixNano()
	prev := g.openedAt.Swap(now)
	metrics.UpdateQuotaOpen(true)
	if prev == 0 {
		metrics.RecordQuotaTrip()
		g.log.Warn(ctx, "quota breaker opened; serving cache only",
			logger.Duration("cooldown", g.cooldown))
	}
}

// Open reports whether the breaker currently blocks backing-store reads.
// An elapsed cool-down closes the breaker as a side effect.
func (g *Guard) Open() bool {
	opened := g.openedAt.Load()
	if opened == 0 {
		return false
	}
	if g.clock().Sub(time.Unix(0, opened)) < g.cooldown {
		return true
	}
	// Cool-down elapsed: close, tolerating a racing re-trip.
	if g.openedAt.CompareAndSwap(opened, 0) {
		metrics.UpdateQuotaOpen(false)
		g.log.Info(context.Background(), "quota breaker cool-down elapsed; closed")
	}
	return g.openedAt.Load() != 0
}

// Reset closes the breaker immediately. Administrative action.
func (g *Guard) Reset(ctx context.Context) {
	if g.openedAt.Swap(0) != 0 {
		metrics.RecordQuotaReset()
		metrics.UpdateQuotaOpen(false)
		g.log.Info(ctx, "quota breaker manually reset")
	}
}

// Status exposes breaker state for operational visibility.
func (g *Guard) Status() types.QuotaStatus {
	if !g.Open() {
		return types.QuotaStatus{}
	}
	opened := g.openedAt.Load()
	remaining := g.cooldown - g.clock().Sub(time.Unix(0, opened))
	if remaining < 0 {
		remaining = 0
	}
	return types.QuotaStatus{
		QuotaExceeded:   true,
		TimeRemainingMS: remaining.Milliseconds(),
	}
}
