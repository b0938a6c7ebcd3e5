package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"semmelweis/internal/cache"
	"semmelweis/internal/cli"
	"semmelweis/internal/config"
	apphttp "semmelweis/internal/http"
	applog "semmelweis/internal/log"
	"semmelweis/internal/middleware/ratelimit"
	"semmelweis/internal/watch"
)

func main() {
	cli.LoadEnvFile()

	boot := applog.New(applog.DefaultConfig())
	cfg := cli.LoadAndValidateConfig(boot.Logger)
	logger := cli.SetupLogger(cfg)

	ctx, stop := cli.SignalContext()
	defer stop()

	source, err := cli.OpenSource(ctx, cfg)
	if err != nil {
		logger.Error("Failed to initialize dataset source", applog.FieldError, err, "backend", cfg.DataBackend)
		os.Exit(1)
	}

	cacheLogger := logger.WithComponent(applog.ComponentCache)
	data := cache.NewDatasetCache(source, cfg.CacheSize, cfg.CacheTTL, cacheLogger.Logger)
	manager := cache.NewManager(cacheLogger.Logger)
	manager.Register(data)

	// A failed warm-up is not fatal: the server reports the dataset as
	// unavailable until a later load succeeds.
	if ds, err := data.Get(ctx); err != nil {
		logger.Warn("Initial dataset load failed", applog.FieldError, err,
			applog.FieldSource, source.Name(), applog.FieldOperation, applog.OpStartup)
	} else {
		applog.NewStructuredLogger(logger).LogDatasetLoaded(ctx, ds.Source, ds.Fingerprint, len(ds.Records))
	}

	var limiter *ratelimit.Limiter
	if cfg.RateLimitPerMinute > 0 {
		limiter = ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: cfg.RateLimitPerMinute})
	}

	srv := apphttp.NewServer(apphttp.Config{
		Addr:         cfg.Addr(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
		Logger:       logger,
		Limiter:      limiter,
	}, data)
	srv.MaxHeaderBytes = 1 << 16

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting semmelweis server", "port", cfg.Port, "backend", cfg.DataBackend, applog.FieldSource, source.Name())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutdown signal received", applog.FieldOperation, applog.OpShutdown)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	g.Go(func() error { return manager.Run(gctx, cfg.CleanupInterval) })
	if limiter != nil {
		g.Go(func() error { return limiter.Run(gctx) })
	}
	if cfg.DataBackend == config.BackendCSV && cfg.DatasetWatch {
		watchLogger := logger.WithComponent(applog.ComponentWatch)
		g.Go(func() error {
			err := watch.File(gctx, watchLogger, cfg.DatasetPath, watch.DefaultDebounce, func(ctx context.Context) {
				ds, err := data.Refresh(ctx)
				if err != nil {
					watchLogger.Warn("Dataset reload failed", applog.FieldError, err)
					return
				}
				applog.NewStructuredLogger(watchLogger).LogDatasetLoaded(ctx, ds.Source, ds.Fingerprint, len(ds.Records))
			})
			if err != nil {
				// Requests still pick up changes through the fingerprint check.
				watchLogger.Warn("File watching disabled", applog.FieldError, err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Server error", applog.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
