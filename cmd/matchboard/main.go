package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fortuna/matchboard/internal/api/rest"
	"github.com/fortuna/matchboard/internal/api/websocket"
	"github.com/fortuna/matchboard/internal/cache"
	"github.com/fortuna/matchboard/internal/config"
	"github.com/fortuna/matchboard/internal/logger"
	"github.com/fortuna/matchboard/internal/service"
	"github.com/fortuna/matchboard/internal/store"
	"github.com/fortuna/matchboard/internal/store/repository"
	"github.com/fortuna/matchboard/internal/telemetry"
)

const (
	serviceName    = "matchboard"
	serviceVersion = "1.0.0"
)

func main() {
	log := logger.New(os.Stdout).With(logger.M{"app": serviceName})
	if err := run(log); err != nil {
		log.Error("fatal", logger.M{"err": err})
		os.Exit(1)
	}
}

func run(log *logger.Logger) error {
	log.Info("starting", logger.M{"version": serviceVersion})

	// Load configuration from environment
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	schema, err := cfg.ResultsSchema()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracing, err := telemetry.Setup(ctx, serviceName, serviceVersion, cfg.OTelEndpoint, cfg.OTelEnabled)
	if err != nil {
		return err
	}
	defer func() {
		flushCtx, flushCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer flushCancel()
		if err := shutdownTracing(flushCtx); err != nil {
			log.Warn("tracing shutdown failed", logger.M{"err": err})
		}
	}()

	// Open the results store read-only
	db, err := store.NewDatabase(cfg.StoreDriver, cfg.StoreDSN)
	if err != nil {
		return err
	}
	defer db.Close()

	log.Info("connected to results store", logger.M{"driver": cfg.StoreDriver, "schema": schema.Name, "table": schema.Table})

	repo, err := repository.NewMatchRepository(db, schema, repository.WithLogger(log))
	if err != nil {
		return err
	}

	// Option lists are cached only when Redis is configured
	var optionCache cache.Cache = cache.NopCache{}
	if cfg.RedisURL != "" {
		redisCache, err := cache.NewRedisCache(cfg.RedisURL)
		if err != nil {
			log.Warn("redis unavailable, caching disabled", logger.M{"err": err})
		} else {
			defer redisCache.Close()
			optionCache = redisCache
			log.Info("connected to redis", logger.M{"ttl": cfg.CacheTTL})
		}
	}

	dashboard := service.NewDashboardService(repo, schema, optionCache, cfg.CacheTTL, log)

	// REST API server
	restServer := rest.NewServer(cfg.RESTPort, db, dashboard, rest.Options{
		DefaultLang:  cfg.Language(),
		TableMaxRows: cfg.TableMaxRows,
		Version:      serviceVersion,
	}, log)

	errs := make(chan error, 2)
	go func() {
		log.Info("rest api listening", logger.M{"port": cfg.RESTPort})
		if err := restServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs <- err
		}
	}()

	// WebSocket server
	wsServer := websocket.NewServer(cfg.WSPort, dashboard, cfg.Language(), log)
	go func() {
		if err := wsServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs <- err
		}
	}()

	// Wait for interrupt signal or a listener failure
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	var serveErr error
	select {
	case sig := <-sigChan:
		log.Info("shutting down", logger.M{"signal": sig.String()})
	case serveErr = <-errs:
		log.Error("server failed", logger.M{"err": serveErr})
	}

	// Graceful shutdown
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := restServer.Shutdown(shutdownCtx); err != nil {
		log.Warn("rest api shutdown failed", logger.M{"err": err})
	}
	if err := wsServer.Shutdown(shutdownCtx); err != nil {
		log.Warn("websocket shutdown failed", logger.M{"err": err})
	}

	log.Info("stopped", nil)
	return serveErr
}
