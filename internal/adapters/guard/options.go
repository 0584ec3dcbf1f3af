package guard

import (
	"time"

	"github.com/okian/shatranj/pkg/logger"
)

// Option applies a configuration option to the Guard.
type Option func(*Guard)

// WithCooldown sets how long the breaker stays open after a trip.
func WithCooldown(d time.Duration) Option {
	return func(g *Guard) {
		if d > 0 {
			g.cooldown = d
		}
	}
}

// WithClock overrides the time source, for tests.
func WithClock(clock func() time.Time) Option {
	return func(g *Guard) {
		if clock != nil {
			g.clock = clock
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(log logger.Logger) Option {
	return func(g *Guard) {
		if log != nil {
			g.log = log
		}
	}
}
