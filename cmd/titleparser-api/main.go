// Package main provides the title-parser HTTP lookup service entrypoint,
// adapted from the teacher's knowledge-engine-api: a graceful-shutdown
// server loop wrapping a chi router, trimmed to the single dependency
// this domain needs (a pipeline.Pipeline) instead of a database, vector
// store, and embedding client.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/reportlib/titleparser/internal/cache"
	"github.com/reportlib/titleparser/internal/config"
	"github.com/reportlib/titleparser/internal/observability"
	"github.com/reportlib/titleparser/internal/patternstore"
	"github.com/reportlib/titleparser/internal/pipeline"
)

// gracefulShutdownTimeout bounds how long in-flight requests get to
// finish once a shutdown signal arrives. The teacher's ServerConfig
// carries this as cfg.Server.GracefulShutdown; this domain's config has
// no analogous field yet, so a fixed bound stands in for it.
const gracefulShutdownTimeout = 10 * time.Second

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if len(os.Args) > 2 && os.Args[1] == "--config" {
		cfgPath = os.Args[2]
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(observability.LogConfig{
		Level:       cfg.Observability.LogLevel,
		Format:      cfg.Observability.LogFormat,
		ServiceName: "titleparser-api",
	})

	logger.Info().
		Str("host", cfg.Server.Host).
		Int("port", cfg.Server.Port).
		Str("store_driver", cfg.Store.Driver).
		Msg("starting title-parser API")

	store := patternstore.New(logger)
	if err := loadStore(cfg, store); err != nil {
		logger.Fatal().Err(err).Msg("failed to load pattern library")
	}

	if cfg.Cache.Driver == "redis" {
		watchReloads(cfg, logger, store)
	}

	resultCache := buildResultCache(cfg, logger)

	p := pipeline.New(store, logger)
	router := NewRouter(logger, p, cfg, resultCache)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", addr).Msg("HTTP server listening")
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("server error")
		}
	case sig := <-shutdown:
		logger.Info().Str("signal", sig.String()).Msg("shutdown signal received")
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
		if err := srv.Close(); err != nil {
			logger.Error().Err(err).Msg("forced shutdown failed")
		}
	}

	logger.Info().Msg("server stopped")
}

// loadStore connects to the configured pattern source and loads it.
// Mongo is the only wired backend for the long-running service; the
// local-file Source is used by the CLI.
func loadStore(cfg *config.Config, store *patternstore.Store) error {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Store.Timeout)
	defer cancel()

	src, err := patternstore.NewMongoSource(ctx, patternstore.MongoConfig{
		URI:        cfg.Store.URI,
		Database:   cfg.Store.Database,
		Collection: cfg.Store.Collection,
		Timeout:    cfg.Store.Timeout,
	})
	if err != nil {
		return fmt.Errorf("connect pattern store: %w", err)
	}

	return store.Load(ctx, src)
}

// buildResultCache constructs the per-title result cache named by
// SPEC_FULL.md's DOMAIN STACK: Redis when configured, an in-memory
// cache otherwise so the service still benefits from repeated titles
// without requiring Redis in development.
func buildResultCache(cfg *config.Config, logger *observability.Logger) cache.Client {
	if cfg.Cache.Driver != "redis" {
		return cache.NewMemoryClient(0)
	}

	client, err := cache.NewRedisClient(cache.RedisConfig{
		Addr:     cfg.Cache.Redis.Addr,
		Password: cfg.Cache.Redis.Password,
		DB:       cfg.Cache.Redis.DB,
		PoolSize: cfg.Cache.Redis.PoolSize,
	})
	if err != nil {
		logger.Warn().Err(err).Msg("result cache disabled: redis unavailable, falling back to memory")
		return cache.NewMemoryClient(0)
	}
	return client
}

// watchReloads subscribes to the reload topic and re-fetches the pattern
// library in place whenever reload-patterns publishes to it (spec.md
// §3.4), so a long-running API process never needs a restart to pick
// up a new pattern library.
func watchReloads(cfg *config.Config, logger *observability.Logger, store *patternstore.Store) {
	client, err := cache.NewRedisClient(cache.RedisConfig{
		Addr:     cfg.Cache.Redis.Addr,
		Password: cfg.Cache.Redis.Password,
		DB:       cfg.Cache.Redis.DB,
		PoolSize: cfg.Cache.Redis.PoolSize,
	})
	if err != nil {
		logger.Warn().Err(err).Msg("reload watcher disabled: redis unavailable")
		return
	}

	ctx := context.Background()
	reloads, _, err := client.SubscribeReload(ctx, cfg.Cache.ReloadTopic)
	if err != nil {
		logger.Warn().Err(err).Msg("reload watcher disabled: subscribe failed")
		return
	}

	go func() {
		for range reloads {
			reloadCtx, cancel := context.WithTimeout(context.Background(), cfg.Store.Timeout)
			src, err := patternstore.NewMongoSource(reloadCtx, patternstore.MongoConfig{
				URI:        cfg.Store.URI,
				Database:   cfg.Store.Database,
				Collection: cfg.Store.Collection,
				Timeout:    cfg.Store.Timeout,
			})
			if err != nil {
				logger.Error().Err(err).Msg("pattern library reload: connect failed")
				cancel()
				continue
			}
			if err := store.Reload(reloadCtx, src); err != nil {
				logger.Error().Err(err).Msg("pattern library reload failed")
			} else {
				logger.Info().Msg("pattern library reloaded")
			}
			src.Close(reloadCtx)
			cancel()
		}
	}()
}
