// Package service wires the rating, ladder, cache, and consistency
// components together and implements the dependencies required by the HTTP
// API.
package service

import (
	"context"
	"runtime"
	"time"

	"github.com/okian/shatranj/internal/adapters/cache"
	"github.com/okian/shatranj/internal/adapters/guard"
	"github.com/okian/shatranj/internal/adapters/ledger"
	"github.com/okian/shatranj/internal/adapters/tasks"
	"github.com/okian/shatranj/internal/domain/dedupe"
	"github.com/okian/shatranj/internal/domain/identity"
	"github.com/okian/shatranj/internal/domain/ladder"
	"github.com/okian/shatranj/internal/domain/ownership"
	"github.com/okian/shatranj/internal/domain/rating"
	"github.com/okian/shatranj/pkg/logger"
)

// Cache tags shared between writers and readers. A write invalidates by tag;
// the standings producer attaches the same tags when it repopulates.
const (
	TagRankings = "rankings"
	TagRatings  = "ratings"
)

// Service implements the API dependencies for the rating and ladder system.
type Service struct {
	store       ledger.Store
	cache       *cache.Store
	quota       *guard.Guard
	engine      *rating.Engine
	aggregator  *ladder.Aggregator
	coordinator *identity.Coordinator
	claims      *ownership.Registry
	tracker     dedupe.Tracker
	runner      *tasks.Runner

	// Configuration
	cacheTTL             time.Duration
	cacheMaxEntries      int
	quotaCooldown        time.Duration
	ledgerTimeout        time.Duration
	kFactor              float64
	defaultRating        float64
	dedupeSize           int
	taskQueueSize        int
	taskWorkers          int
	reconcileParallelism int

	started bool
	log     logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore sets the backing ledger store.
func WithStore(store ledger.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithCacheTTL sets the default cache entry lifetime.
func WithCacheTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.cacheTTL = ttl
		}
	}
}

// WithCacheMaxEntries bounds the cache. Zero means unbounded.
func WithCacheMaxEntries(n int) Option {
	return func(s *Service) {
		if n >= 0 {
			s.cacheMaxEntries = n
		}
	}
}

// WithQuotaCooldown sets the breaker cool-down window.
func WithQuotaCooldown(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.quotaCooldown = d
		}
	}
}

// WithLedgerTimeout bounds every backing-store call.
func WithLedgerTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.ledgerTimeout = d
		}
	}
}

// WithKFactor sets the rating K constant.
func WithKFactor(k float64) Option {
	return func(s *Service) {
		if k > 0 {
			s.kFactor = k
		}
	}
}

// WithDefaultRating sets the seed rating for unseen players.
func WithDefaultRating(r float64) Option {
	return func(s *Service) {
		if r > 0 {
			s.defaultRating = r
		}
	}
}

// WithDedupeSize bounds the submission idempotency tracker.
func WithDedupeSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.dedupeSize = n
		}
	}
}

// WithTaskQueueSize bounds the post-write task queue.
func WithTaskQueueSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.taskQueueSize = n
		}
	}
}

// WithTaskWorkers sets the post-write worker pool size.
func WithTaskWorkers(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.taskWorkers = n
		}
	}
}

// WithReconcileParallelism bounds concurrent reconciliation row updates.
func WithReconcileParallelism(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.reconcileParallelism = n
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(log logger.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// New constructs a Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		cacheTTL:             5 * time.Minute,
		quotaCooldown:        time.Minute,
		ledgerTimeout:        5 * time.Second,
		kFactor:              32,
		defaultRating:        1000,
		dedupeSize:           50_000,
		taskQueueSize:        1_000,
		taskWorkers:          runtime.NumCPU(),
		reconcileParallelism: 4,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start initializes the component graph and seeds rating state for any
// roster player that has none.
func (s *Service) Start(ctx context.Context) error {
	if s.started {
		return nil
	}
	if s.log == nil {
		s.log = logger.Get().Named("service")
	}
	if s.store == nil {
		s.store = ledger.NewMemStore()
		s.log.Info(ctx, "using in-memory ledger store")
	}

	s.cache = cache.New(cache.WithMaxEntries(s.cacheMaxEntries))
	s.quota = guard.New(
		guard.WithCooldown(s.quotaCooldown),
		guard.WithLogger(s.log.Named("quota")),
	)
	s.engine = rating.New(
		rating.WithKFactor(s.kFactor),
		rating.WithDefaultRating(s.defaultRating),
		rating.WithLogger(s.log.Named("rating")),
	)
	s.aggregator = ladder.New(
		ladder.WithDefaultRating(s.defaultRating),
		ladder.WithLogger(s.log.Named("ladder")),
	)
	s.coordinator = identity.New(s.store,
		identity.WithParallelism(s.reconcileParallelism),
		identity.WithLogger(s.log.Named("identity")),
	)
	s.claims = ownership.NewRegistry(ownership.WithLogger(s.log.Named("ownership")))
	s.tracker = dedupe.NewTracker(dedupe.WithMaxSize(s.dedupeSize))
	s.runner = tasks.NewRunner(
		tasks.WithQueueSize(s.taskQueueSize),
		tasks.WithWorkers(s.taskWorkers),
		tasks.WithLogger(s.log.Named("tasks")),
	)
	s.runner.Start(ctx)

	if err := s.InitializeRatings(ctx); err != nil {
		// Missing seed state self-heals on the next recalculation.
		s.log.Warn(ctx, "could not seed rating state", logger.Error(err))
	}

	s.started = true
	s.log.Info(ctx, "service started",
		logger.Duration("cacheTTL", s.cacheTTL),
		logger.Duration("quotaCooldown", s.quotaCooldown),
		logger.Int("taskWorkers", s.taskWorkers),
	)
	return nil
}

// Stop drains the post-write task queue and closes the store.
func (s *Service) Stop() {
	if !s.started {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.runner.Close(ctx); err != nil {
		s.log.Warn(ctx, "task runner did not drain in time", logger.Error(err))
	}
	if closer, ok := s.store.(interface{ Close() error }); ok {
		_ = closer.Close()
	}
	s.started = false
	s.log.Info(ctx, "service stopped")
}

// ledgerCtx bounds a backing-store call. A timeout is treated like quota
// exhaustion by the callers of this helper.
func (s *Service) ledgerCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.ledgerTimeout)
}

// noteQuota trips the breaker when err carries a quota signature or a
// deadline expiry.
func (s *Service) noteQuota(ctx context.Context, err error) {
	if ledger.IsQuotaExceeded(err) {
		s.quota.Trip(ctx)
	}
}

// invalidateAsync queues a fire-and-forget tag invalidation. A refused or
// failed task is only logged: the entries expire via TTL anyway.
func (s *Service) invalidateAsync(ctx context.Context, reason string, tags ...string) {
	s.runner.Submit(ctx, tasks.Task{
		Name: "invalidate:" + reason,
		Run: func(taskCtx context.Context) error {
			removed := s.cache.InvalidateByTags(taskCtx, tags)
			s.log.Debug(taskCtx, "cache invalidated",
				logger.String("reason", reason),
				logger.Int("removed", len(removed)),
			)
			return nil
		},
	})
}
