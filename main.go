package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/co-intel-labs/labs-1.0/internal/auth"
	"github.com/co-intel-labs/labs-1.0/internal/config"
	"github.com/co-intel-labs/labs-1.0/internal/handlers"
	"github.com/co-intel-labs/labs-1.0/internal/metrics"
	"github.com/co-intel-labs/labs-1.0/internal/repositories/casdoor"
	"github.com/co-intel-labs/labs-1.0/internal/services"
	"github.com/co-intel-labs/labs-1.0/internal/store"
	"github.com/co-intel-labs/labs-1.0/internal/utils"
	"github.com/co-intel-labs/labs-1.0/internal/validator"
	"github.com/co-intel-labs/labs-1.0/pkg"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	handlerOpts := &slog.HandlerOptions{Level: cfg.LogLevel}
	var logHandler slog.Handler = slog.NewJSONHandler(os.Stdout, handlerOpts)
	if cfg.LogFormat == "text" {
		logHandler = slog.NewTextHandler(os.Stdout, handlerOpts)
	}
	logger := slog.New(logHandler)

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	// Initialize storage
	storage, err := pkg.NewBlobStore(context.Background(), cfg, logger)
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}

	publisher, err := pkg.NewEventPublisher(cfg, logger)
	if err != nil {
		log.Fatalf("Failed to initialize event publisher: %v", err)
	}

	seed := store.DefaultSeed()
	if !cfg.Storage.SeedDemoData {
		seed = store.EmptySeed()
	}
	recordStore := store.New(storage, utils.SystemClock(), logger, m, seed)

	smConfig := services.ServiceManagerConfig{SweepInterval: cfg.SweepInterval}
	if cfg.Casdoor.Enabled() {
		smConfig.Directory = casdoor.NewUserDirectory(casdoor.CasdoorConfig{
			Endpoint:         cfg.Casdoor.Endpoint,
			ClientID:         cfg.Casdoor.ClientID,
			ClientSecret:     cfg.Casdoor.ClientSecret,
			Certificate:      cfg.Casdoor.Cert,
			OrganizationName: cfg.Casdoor.Organization,
			ApplicationName:  cfg.Casdoor.Application,
		})
	}

	// Initialize services
	serviceManager := services.NewServiceManager(recordStore, publisher, m, logger, validator.New(), smConfig)
	if err := serviceManager.Initialize(context.Background()); err != nil {
		log.Fatalf("Failed to initialize services: %v", err)
	}

	sweepCtx, stopSweeper := context.WithCancel(context.Background())
	sweeperDone := make(chan struct{})
	go func() {
		defer close(sweeperDone)
		serviceManager.Sweeper().Run(sweepCtx)
	}()

	// Initialize handlers
	tokens := auth.NewJWTService(cfg.JWTSecret, cfg.TokenTTL)
	handlerManager := handlers.NewHandlerManager(serviceManager, tokens, registry, logger)

	// Setup Gin router
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	handlers.SetupMiddleware(router, logger, cfg.CORSOrigin)
	handlerManager.SetupRoutes(router)

	// Create HTTP server
	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Starting server",
			"port", cfg.Port,
			"environment", cfg.Environment,
			"storage", cfg.Storage.Driver,
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	stopSweeper()
	<-sweeperDone

	if err := serviceManager.Shutdown(ctx); err != nil {
		logger.Error("Failed to shutdown services", "error", err)
	}

	if err := storage.Close(); err != nil {
		logger.Error("Failed to close storage", "error", err)
	}

	logger.Info("Server exited")
}
