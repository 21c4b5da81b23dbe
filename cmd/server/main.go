package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/iconidentify/vidgate/internal/api"
	"github.com/iconidentify/vidgate/internal/api/handler"
	"github.com/iconidentify/vidgate/internal/config"
	"github.com/iconidentify/vidgate/internal/probe"
	"github.com/iconidentify/vidgate/internal/repository"
	"github.com/iconidentify/vidgate/internal/service"
	"github.com/iconidentify/vidgate/internal/worker"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	// Parse flags
	configPath := flag.String("config", "", "Path to config file")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("vidgate %s (built %s)\n", Version, BuildTime)
		os.Exit(0)
	}

	// Setup logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	logger.Info("starting vidgate",
		"version", Version,
		"build_time", BuildTime,
	)

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Ensure the database directory exists
	if err := os.MkdirAll(filepath.Dir(cfg.Storage.SQLitePath), 0755); err != nil {
		logger.Error("failed to create database directory", "error", err)
		os.Exit(1)
	}

	// Initialize dependencies
	db, err := repository.OpenSQLite(cfg.Storage.SQLitePath)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	checkRepo, err := repository.NewSQLiteCheckRepository(db)
	if err != nil {
		logger.Error("failed to initialize check store", "error", err)
		os.Exit(1)
	}
	jobRepo := repository.NewInMemoryJobRepository()

	prober := probe.NewHTTPProber(cfg.Probe)
	prober.SetLogger(logger)

	// Initialize services
	checkSvc := service.NewCheckService(
		checkRepo,
		jobRepo,
		prober,
		cfg.Worker,
		logger,
	)

	// Initialize handlers
	checkHandler := handler.NewCheckHandler(checkSvc, logger)
	healthHandler := handler.NewHealthHandler(jobRepo)

	// Setup router
	router := api.NewRouter(checkHandler, healthHandler, cfg.Server.APIKey)

	// Initialize worker pool
	pool := worker.NewPool(
		worker.Config{
			Workers:      cfg.Worker.Count,
			PollInterval: cfg.Worker.PollInterval,
		},
		jobRepo,
		checkSvc,
		logger,
	)

	// Start worker pool
	pool.Start()

	// Setup HTTP server
	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in goroutine
	go func() {
		logger.Info("starting HTTP server", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Stop accepting new requests
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	// Stop workers (allow in-flight probes to complete)
	if err := pool.Stop(25 * time.Second); err != nil {
		logger.Error("worker pool shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
}
