package rating

import "github.com/okian/shatranj/pkg/logger"

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithKFactor sets the uniform K applied to every verified game.
func WithKFactor(k float64) Option {
	return func(e *Engine) {
		if k > 0 {
			e.k = k
		}
	}
}

// WithDefaultRating sets the seed rating for unseen players.
func WithDefaultRating(r float64) Option {
	return func(e *Engine) {
		if r > 0 {
			e.defaultRating = r
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(log logger.Logger) Option {
	return func(e *Engine) {
		if log != nil {
			e.log = log
		}
	}
}
