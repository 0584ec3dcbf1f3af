// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Defaults live in New; Load layers file and env on top.
// - External errors must be wrapped via this package's error helpers.
package config

import "runtime"

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// DBPath points at the SQLite ledger file. Empty selects the
	// in-memory ledger store.
	DBPath string `koanf:"db_path"`

	// KFactor is the ELO K applied uniformly to every verified game.
	KFactor float64 `koanf:"k_factor"`

	// DefaultRating seeds every player with no rating state.
	DefaultRating float64 `koanf:"default_rating"`

	// CacheTTLSeconds is the default materialized-view TTL.
	CacheTTLSeconds int `koanf:"cache_ttl_seconds"`

	// CacheMaxEntries bounds the cache; 0 means unbounded.
	CacheMaxEntries int `koanf:"cache_max_entries"`

	// QuotaCooldownSeconds is how long the breaker stays open after a
	// rate-limit signal from the backing store.
	QuotaCooldownSeconds int `koanf:"quota_cooldown_seconds"`

	// LedgerTimeoutMS bounds every backing store call.
	LedgerTimeoutMS int `koanf:"ledger_timeout_ms"`

	// TaskQueueSize bounds the post-write task queue.
	TaskQueueSize int `koanf:"task_queue_size"`

	// TaskWorkerCount sets the number of post-write task workers.
	TaskWorkerCount int `koanf:"task_worker_count"`

	// DedupeSize sets the size of the submission idempotency cache.
	DedupeSize int `koanf:"dedupe_size"`

	// ReconcileParallelism bounds concurrent row rewrites during
	// batch reconciliation.
	ReconcileParallelism int `koanf:"reconcile_parallelism"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:             "info",
		Addr:                 ":9080",
		DBPath:               "",
		KFactor:              32,
		DefaultRating:        1000,
		CacheTTLSeconds:      300,
		CacheMaxEntries:      10_000,
		QuotaCooldownSeconds: 60,
		LedgerTimeoutMS:      5_000,
		TaskQueueSize:        1_000,
		TaskWorkerCount:      runtime.NumCPU(),
		DedupeSize:           50_000,
		ReconcileParallelism: 4,
	}
}
