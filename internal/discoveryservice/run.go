// Package discoveryservice runs the discovery HTTP service.
package discoveryservice

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/mymichlin/discovery/internal/api"
	"github.com/mymichlin/discovery/internal/config"
	"github.com/mymichlin/discovery/internal/core"
	"github.com/mymichlin/discovery/internal/health"
	"github.com/mymichlin/discovery/internal/logger"
	"github.com/mymichlin/discovery/internal/model"
	"github.com/mymichlin/discovery/internal/searchcache"
	"github.com/mymichlin/discovery/internal/store"
)

// Run starts the discovery service HTTP server and blocks until shutdown or error.
func Run() error {
	log := logger.New("discovery-service")

	cfg, err := config.New()
	if err != nil {
		log.Error().Err(err).Msg("Failed to load configuration")
		return err
	}
	logger.SetLevel(cfg.LogLevel)

	log.Info().
		Str("build_target", cfg.BuildTarget).
		Str("db_driver", cfg.DBDriver).
		Int("http_port", cfg.HTTPPort).
		Bool("fetch_photos", cfg.FetchPhotos).
		Msg("Discovery service starting")

	// Create cancellable root context bound to SIGINT/SIGTERM
	ctx, stop := newServerContext()
	defer stop()

	c, err := core.Open(ctx, cfg, log)
	if err != nil {
		log.Error().Stack().Err(err).Msg("Core unavailable")
		return err
	}
	defer func() {
		if err := c.Close(); err != nil {
			log.Error().Err(err).Msg("close store")
		}
	}()

	svcHealth := startHealthCheckers(ctx, cfg, log, c.Store)
	if err := waitUntilHealthy(ctx, cfg, svcHealth); err != nil {
		log.Error().Stack().Err(err).Msg("startup health check failed")
		return err
	}

	go warmCache(ctx, c, log)

	server := newHTTPServer(ctx, cfg, api.NewRouter(c, svcHealth.IsHealthy))
	errCh := serveHTTP(server, log, cfg)

	// Graceful shutdown on context cancel or server error
	select {
	case <-ctx.Done():
		log.Info().Msg("Shutting down server")
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(ctxShutdown); err != nil {
			log.Error().Stack().Err(err).Msg("Server forced to shutdown")
			return err
		}
		log.Info().Msg("Server exited")
		return nil
	case err := <-errCh:
		log.Error().Stack().Err(err).Msg("HTTP server failed")
		return err
	}
}

// warmCache resolves every category around the user's home once so the
// first requests are served from the cache. Failures are only logged.
func warmCache(ctx context.Context, c *core.Core, log zerolog.Logger) {
	coord, err := homeCoordinate(ctx, c)
	if err != nil {
		log.Warn().Err(err).Msg("cache warm-up skipped")
		return
	}
	out, err := c.Cache.Prefetch(ctx, coord)
	if err != nil {
		log.Warn().Err(err).Msg("cache warm-up failed")
		return
	}
	log.Info().
		Int("trending", len(out[searchcache.Trending])).
		Int("budget", len(out[searchcache.Budget])).
		Int("nearby", len(out[searchcache.Nearby])).
		Msg("cache warmed")
}

func homeCoordinate(ctx context.Context, c *core.Core) (model.Coordinate, error) {
	u, err := c.Catalog.User(ctx)
	if err != nil {
		return model.Coordinate{}, err
	}
	if u != nil && !u.Home.IsZero() {
		return u.Home, nil
	}
	return model.Melbourne, nil
}

// startHealthCheckers starts the store checker and the service-level aggregator.
func startHealthCheckers(ctx context.Context, cfg *config.Config, log zerolog.Logger, st store.Store) *health.Service {
	probeTimeout := time.Duration(cfg.HealthProbeTimeoutSeconds) * time.Second
	interval := time.Duration(cfg.HealthIntervalSeconds) * time.Second

	storeChecker := store.NewHealthChecker(st, log, probeTimeout)
	svcHealth := health.NewService(log, storeChecker)
	go svcHealth.StartAll(ctx, interval)
	return svcHealth
}

func newHTTPServer(ctx context.Context, cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.GetHTTPAddr(),
		Handler:           handler,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		// Provider retries and the chat model can take a while.
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}
}

func serveHTTP(server *http.Server, log zerolog.Logger, cfg *config.Config) <-chan error {
	errCh := make(chan error, 1)
	go func() {
		log.Info().Int("port", cfg.HTTPPort).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()
	return errCh
}

// startupHealthTimeout is twice the health interval, at least 30 seconds.
func startupHealthTimeout(healthIntervalSeconds int) time.Duration {
	timeout := healthIntervalSeconds * 2
	if timeout < 30 {
		timeout = 30
	}
	return time.Duration(timeout) * time.Second
}

type healthFlag interface{ IsHealthy() bool }

// waitUntilHealthy blocks until service health is healthy or the startup window expires.
func waitUntilHealthy(ctx context.Context, cfg *config.Config, svcHealth healthFlag) error {
	timeout := startupHealthTimeout(cfg.HealthIntervalSeconds)
	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()
	for {
		if svcHealth.IsHealthy() {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("startup aborted: dependencies not healthy within %s", timeout)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// newServerContext returns a cancellable context that is cancelled on SIGINT/SIGTERM.
func newServerContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
