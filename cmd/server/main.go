package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"likes-service/internal/config"
	"likes-service/internal/likes"
	"likes-service/internal/server"
	"likes-service/internal/state"
)

func main() {
	configPath := flag.String("config", "config/likes.yaml", "Path to configuration file")
	flag.Parse()

	// Setup Logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Load Config
	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	// Init Store
	var store state.Store
	if cfg.Store.Type == "valkey" {
		logger.Info("Using Valkey Store", "address", cfg.Store.Address)
		s, err := state.NewValkeyStore(cfg.Store.Address, cfg.Store.Password)
		if err != nil {
			logger.Error("Failed to initialize Valkey store", "error", err)
			os.Exit(1)
		}
		store = s
	} else {
		logger.Info("Using Memory Store")
		store = state.NewMemoryStore()
	}

	// Init Components
	likesService := likes.NewService(store)
	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: server.NewServer(likesService),
	}

	// Metrics Server
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		logger.Info("Starting metrics server", "addr", cfg.Server.MetricsAddr)
		if err := http.ListenAndServe(cfg.Server.MetricsAddr, mux); err != nil {
			logger.Error("Metrics server failed", "error", err)
		}
	}()

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle Signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Info("Shutting down...")
		cancel()
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Shutdown failed", "error", err)
		}
	}()

	logger.Info("Starting likes service",
		"addr", cfg.Server.Addr,
		"store", cfg.Store.Type)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server failed", "error", err)
		os.Exit(1)
	}
	logger.Info("Server stopped")
}
