package tasks

import "github.com/okian/shatranj/pkg/logger"

// Option applies a configuration option to the Runner.
type Option func(*Runner)

// WithQueueSize sets the queued-task bound.
func WithQueueSize(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.size = n
		}
	}
}

// WithWorkers sets the worker pool size.
func WithWorkers(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.workers = n
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(log logger.Logger) Option {
	return func(r *Runner) {
		if log != nil {
			r.log = log
		}
	}
}
