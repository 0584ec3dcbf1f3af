package ladder

import "github.com/okian/shatranj/pkg/logger"

// Option applies a configuration option to the Aggregator.
type Option func(*Aggregator)

// WithDefaultRating sets the rating shown for players with no rating state.
func WithDefaultRating(r float64) Option {
	return func(a *Aggregator) {
		if r > 0 {
			a.defaultRating = r
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(log logger.Logger) Option {
	return func(a *Aggregator) {
		if log != nil {
			a.log = log
		}
	}
}
