package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/cors"

	"github.com/okian/shatranj/internal/adapters/http/api"
	"github.com/okian/shatranj/internal/adapters/ledger"
	app "github.com/okian/shatranj/internal/app"
	"github.com/okian/shatranj/internal/config"
	"github.com/okian/shatranj/pkg/logger"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 10 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
)

func main() {
	// The custom registry carries every domain metric; the default Go and
	// process collectors would only duplicate what it already exposes.
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	log := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env).
	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info",
			logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	// Pick the ledger store: SQLite when a path is configured, otherwise
	// the in-memory store for throwaway runs.
	var store ledger.Store
	if cfg.DBPath != "" {
		db, err := ledger.OpenDB(ctx, cfg.DBPath, log.Named("ledger"))
		if err != nil {
			log.Error(ctx, "failed to open ledger database", logger.Error(err))
			return
		}
		store = ledger.NewSQLStore(db)
		log.Info(ctx, "using sqlite ledger store", logger.String("path", cfg.DBPath))
	}

	svc := app.New(
		app.WithStore(store),
		app.WithLogger(log),
		app.WithCacheTTL(time.Duration(cfg.CacheTTLSeconds)*time.Second),
		app.WithCacheMaxEntries(cfg.CacheMaxEntries),
		app.WithQuotaCooldown(time.Duration(cfg.QuotaCooldownSeconds)*time.Second),
		app.WithLedgerTimeout(time.Duration(cfg.LedgerTimeoutMS)*time.Millisecond),
		app.WithKFactor(cfg.KFactor),
		app.WithDefaultRating(cfg.DefaultRating),
		app.WithDedupeSize(cfg.DedupeSize),
		app.WithTaskQueueSize(cfg.TaskQueueSize),
		app.WithTaskWorkers(cfg.TaskWorkerCount),
		app.WithReconcileParallelism(cfg.ReconcileParallelism),
	)
	if err := svc.Start(ctx); err != nil {
		os.Stderr.WriteString("failed to start service: " + err.Error() + "\n")
		return
	}
	defer svc.Stop()

	mux := http.NewServeMux()
	api.NewServer(svc).Register(ctx, mux)

	handler := cors.New(cors.Options{
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete},
		AllowedHeaders: []string{"Content-Type"},
	}).Handler(mux)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			os.Stderr.WriteString("HTTP server failed: " + err.Error() + "\n")
		}
	}()

	<-ctx.Done()
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}
	log.Info(ctx, "server stopped")
}
