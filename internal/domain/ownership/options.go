package ownership

import (
	"time"

	"github.com/okian/shatranj/pkg/logger"
)

// RegistryOption applies a configuration option to a Registry.
type RegistryOption func(*Registry)

// WithClock replaces the time source, for tests.
func WithClock(clock func() time.Time) RegistryOption {
	return func(r *Registry) {
		if clock != nil {
			r.clock = clock
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(log logger.Logger) RegistryOption {
	return func(r *Registry) {
		if log != nil {
			r.log = log
		}
	}
}
