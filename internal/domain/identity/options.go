package identity

import "github.com/okian/shatranj/pkg/logger"

// Option applies a configuration option to the Coordinator.
type Option func(*Coordinator)

// WithParallelism bounds the number of concurrent row updates during apply.
func WithParallelism(n int) Option {
	return func(c *Coordinator) {
		if n > 0 {
			c.parallelism = n
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(log logger.Logger) Option {
	return func(c *Coordinator) {
		if log != nil {
			c.log = log
		}
	}
}
