package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/time/rate"

	"prophet/internal/adapters/config"
	"prophet/internal/adapters/errors/noop"
	"prophet/internal/adapters/errors/sentry"
	"prophet/internal/api"
	"prophet/internal/api/health"
	"prophet/internal/api/ui"
	"prophet/internal/cache"
	"prophet/internal/features"
	"prophet/internal/metrics"
	"prophet/internal/ml"
	"prophet/internal/prediction"
	"prophet/pkg/errors"
	"prophet/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	if err := logger.Init(cfg.App.LogLevel, cfg.App.Env); err != nil {
		panic("failed to init logger: " + err.Error())
	}
	defer logger.Sync()

	log := logger.Get()
	log.Infof("Starting %s in %s mode", cfg.App.Name, cfg.App.Env)

	errorTracker := initErrorTracker(cfg, log)
	logger.SetErrorTracker(errorTracker)

	metrics.Init()

	registry, err := ml.LoadRegistry(cfg.Models)
	if err != nil {
		log.Fatalf("Failed to load model registry: %v", err)
	}
	defer registry.Close()
	metrics.ModelsLoaded.Set(float64(registry.Size()))
	log.Infof("Model registry loaded (%d models)", registry.Size())

	clusterScaler, err := features.LoadScaler(cfg.Models.Path(cfg.Models.ClusterScalerFile))
	if err != nil {
		log.Fatalf("Failed to load cluster scaler: %v", err)
	}
	regressionScaler, err := features.LoadScaler(cfg.Models.Path(cfg.Models.RegressionScalerFile))
	if err != nil {
		log.Fatalf("Failed to load regression scaler: %v", err)
	}

	responseCache := initCache(cfg, log)
	if responseCache != nil {
		defer responseCache.Close()
	}

	svc := prediction.New(registry, clusterScaler, regressionScaler, log)
	handler := api.NewHandler(svc, responseCache, log)
	healthHandler := health.New(log, registry, responseCache, cfg.App.Name, cfg.App.Version)

	uiHandler, err := ui.New(log)
	if err != nil {
		log.Fatalf("Failed to build UI handler: %v", err)
	}

	var limiter *rate.Limiter
	if cfg.RateLimit.Enabled {
		limiter = api.NewLimiter(cfg.RateLimit.RequestsPerMinute)
	}

	server := api.NewServer(api.ServerConfig{
		Port:         cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}, handler, healthHandler, uiHandler, limiter, log)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Start()
	}()

	log.Info("System initialized successfully")

	waitForShutdown(cfg, server, serverErr, errorTracker, log)
}

// initErrorTracker initializes error tracking (Sentry or no-op)
func initErrorTracker(cfg *config.Config, log *logger.Logger) errors.Tracker {
	if !cfg.ErrorTracking.Enabled || cfg.ErrorTracking.SentryDSN == "" {
		log.Info("Error tracking disabled")
		return noop.New()
	}

	tracker, err := sentry.New(cfg.ErrorTracking.SentryDSN, cfg.ErrorTracking.Environment)
	if err != nil {
		log.Warnf("Failed to initialize Sentry: %v", err)
		return noop.New()
	}

	log.Info("Error tracking initialized (Sentry)")
	return tracker
}

// initCache initializes the optional Redis response cache
func initCache(cfg *config.Config, log *logger.Logger) *cache.Cache {
	if !cfg.Cache.Enabled {
		log.Info("Response cache disabled")
		return nil
	}

	c, err := cache.New(cfg.Cache)
	if err != nil {
		// The cache is an accelerator; a dead Redis must not block serving
		log.Warnf("Failed to connect to Redis, continuing without cache: %v", err)
		return nil
	}

	log.Infof("Response cache connected (%s, ttl %s)", cfg.Cache.Addr(), cfg.Cache.TTL)
	return c
}

// waitForShutdown waits for a shutdown signal or server failure and
// performs graceful shutdown
func waitForShutdown(cfg *config.Config, server *api.Server, serverErr <-chan error, errorTracker errors.Tracker, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		log.Info("Shutting down...")
	case err := <-serverErr:
		if err != nil {
			log.Errorf("HTTP server failed: %v", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Warnf("Server shutdown: %v", err)
	}

	if errorTracker != nil {
		if err := errorTracker.Flush(ctx); err != nil {
			log.Warnf("Failed to flush error tracker: %v", err)
		}
	}

	log.Info("Shutdown complete")
}
