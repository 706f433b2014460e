package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/sparkfn/webhook-listener/internal/capture"
	"github.com/sparkfn/webhook-listener/internal/config"
	"github.com/sparkfn/webhook-listener/internal/handler"
	"github.com/sparkfn/webhook-listener/internal/hub"
	"github.com/sparkfn/webhook-listener/internal/logger"
	"github.com/sparkfn/webhook-listener/internal/metrics"
	"github.com/sparkfn/webhook-listener/internal/namespace"
	"github.com/sparkfn/webhook-listener/internal/service"
	"github.com/sparkfn/webhook-listener/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// Initialize logger
	log, err := logger.New(cfg.ServiceEnvironment)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer func(log *zap.Logger) {
		err := log.Sync()
		if err != nil {
			log.Error("Failed to sync logger", zap.Error(err))
		}
	}(log)

	registry := namespace.NewRegistry(cfg.NamespaceList())

	log.Info("Starting webhook listener",
		zap.String("environment", cfg.ServiceEnvironment),
		zap.String("port", cfg.ServiceAPIPort),
		zap.Strings("namespaces", registry.List()))

	// A corrupt log is fatal here: refusing to start beats serving a
	// silently incomplete history.
	eventStore, err := store.NewFileStore(cfg.DataDir, registry.List(), log)
	if err != nil {
		log.Fatal("Failed to open event store", zap.Error(err))
	}
	defer func() {
		if err := eventStore.Close(); err != nil {
			log.Error("Failed to close event store", zap.Error(err))
		}
	}()

	m := metrics.New(prometheus.DefaultRegisterer)

	wsHub := hub.NewHub(registry.List(), m, log)
	defer wsHub.Close()

	captureService := service.NewCaptureService(
		registry,
		capture.NewNormalizer(),
		eventStore,
		wsHub,
		log,
	)

	h := handler.NewHandler(captureService, registry, wsHub, m, cfg.MaxBodySize, log)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.ServiceAPIPort),
		Handler: h,
	}

	errChan := make(chan error, 1)
	go func() {
		log.Info("API server starting", zap.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		log.Info("Received shutdown signal", zap.String("signal", sig.String()))
	case err := <-errChan:
		log.Fatal("Failed to start API server", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Failed to shut down cleanly", zap.Error(err))
	}
	log.Info("Server stopped")
}
