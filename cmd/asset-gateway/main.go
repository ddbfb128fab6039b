package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alorle/asset-gateway/cache"
	"github.com/alorle/asset-gateway/config"
	"github.com/alorle/asset-gateway/fetcher"
	"github.com/alorle/asset-gateway/handlers"
	"github.com/alorle/asset-gateway/logging"
	"github.com/alorle/asset-gateway/worker"
)

func buildStorage(cfg *config.Config) (cache.Storage, func() error, error) {
	switch cfg.Cache.Backend {
	case "file":
		storage, err := cache.NewFileStorage(cfg.Cache.Dir)
		if err != nil {
			return nil, nil, err
		}
		return storage, func() error { return nil }, nil
	case "bolt":
		storage, err := cache.NewBoltStorage(cfg.Cache.Path)
		if err != nil {
			return nil, nil, err
		}
		return storage, storage.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown cache backend %q", cfg.Cache.Backend)
	}
}

func main() {
	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	logger := logging.New(logging.ParseLogLevel(cfg.Log.Level), "")

	logger.Info("Starting asset-gateway", map[string]interface{}{
		"address":  cfg.HTTP.Address,
		"port":     cfg.HTTP.Port,
		"upstream": cfg.Upstream.Origin,
		"cache":    cfg.Cache.Name,
		"backend":  cfg.Cache.Backend,
		"assets":   len(cfg.Assets),
	})

	storage, closeStorage, err := buildStorage(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize cache storage: %v", err)
	}
	defer func() {
		if err := closeStorage(); err != nil {
			logger.Warn("Error closing cache storage", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}()

	fetch := fetcher.New(cfg.Upstream.Timeout)
	wrk := worker.New(cfg.Cache.Name, cfg.Upstream.Origin, cfg.Assets, storage, fetch, logger)

	// The install event: pre-fetch every configured asset. A single failure
	// fails the whole install and this version never activates.
	installCtx, cancelInstall := context.WithTimeout(context.Background(), cfg.Install.Timeout)
	err = wrk.Install(installCtx)
	cancelInstall()
	if err != nil {
		log.Fatalf("Install failed, refusing to activate: %v", err)
	}

	// Activation prunes caches left behind by previous cache names
	if err := wrk.Activate(context.Background()); err != nil {
		log.Fatalf("Activation failed: %v", err)
	}

	handler, err := handlers.SetupRoutes(cfg, handlers.Dependencies{
		Logger:  logger,
		Storage: storage,
		Fetcher: fetch,
		Worker:  wrk,
	})
	if err != nil {
		log.Fatalf("Failed to set up routes: %v", err)
	}

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.HTTP.Address, cfg.HTTP.Port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("HTTP server listening", map[string]interface{}{
			"addr": server.Addr,
		})
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutdown signal received, shutting down gracefully", nil)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server shutdown error", map[string]interface{}{
			"error": err.Error(),
		})
	}

	logger.Info("Server stopped", nil)
}
