package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"temperature-stats/internal/config"
	"temperature-stats/internal/handlers"
	"temperature-stats/internal/repository"
	"temperature-stats/internal/scheduler"
	"temperature-stats/internal/services"
	"temperature-stats/pkg/database"
	"temperature-stats/pkg/logging"
	"temperature-stats/pkg/metrics"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	if cfg.Analysis.DataFile == "" {
		fmt.Fprintln(os.Stderr, "DATA_FILE must be set")
		os.Exit(1)
	}

	logger := logging.NewStructuredLogger("temperature-api", "1.0.0", logging.ParseLevel(cfg.Logging.Level))

	ctx := context.Background()
	logger.Info(ctx, "[STARTUP] Starting temperature statistics API server", logging.Fields{
		"version":         "1.0.0",
		"server_host":     cfg.Server.Host,
		"server_port":     cfg.Server.Port,
		"data_file":       cfg.Analysis.DataFile,
		"reload_interval": cfg.Analysis.ReloadInterval.String(),
		"db_enabled":      cfg.Database.Enabled,
	})

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metricsCollector := metrics.NewCollector("temperature_stats", registry)

	// Optional persistence
	var repo repository.StatisticsRepository
	var historyService *services.HistoryService
	if cfg.Database.Enabled {
		db, err := database.NewPostgresDB(ctx, &database.Config{
			Host:            cfg.Database.Host,
			Port:            cfg.Database.Port,
			User:            cfg.Database.User,
			Password:        cfg.Database.Password,
			Database:        cfg.Database.Database,
			SSLMode:         cfg.Database.SSLMode,
			MaxOpenConns:    cfg.Database.MaxOpenConns,
			MaxIdleConns:    cfg.Database.MaxIdleConns,
			ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
			ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
		}, logger, metricsCollector)
		if err != nil {
			logger.Fatal(ctx, "[STARTUP_ERROR] Failed to connect to database", logging.Fields{}, err)
		}
		defer db.Close()

		repo = repository.NewStatisticsRepository(db, logger, metricsCollector)
		historyService = services.NewHistoryService(repo, logger, metricsCollector)
	}

	// Initialize services
	analysisService := services.NewAnalysisService(repo, logger, metricsCollector)
	statsService := services.NewStatisticsService(analysisService, cfg.Analysis.DataFile, cfg.Database.Enabled, logger, metricsCollector)

	// A failed first load leaves the API answering 503 until a reload succeeds
	if err := statsService.Refresh(ctx); err != nil {
		logger.Warn(ctx, "[STARTUP_REFRESH_FAILED] Initial analysis failed", logging.Fields{
			"error": err.Error(),
		})
	}

	reloader := scheduler.New(statsService, cfg.Analysis.ReloadInterval, logger)
	if err := reloader.Start(); err != nil {
		logger.Fatal(ctx, "[STARTUP_ERROR] Failed to start reload scheduler", logging.Fields{}, err)
	}
	defer reloader.Stop()

	// Setup router
	router := mux.NewRouter()
	handlers.NewTemperatureHandler(statsService, historyService, logger, metricsCollector).RegisterRoutes(router)
	router.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}))

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info(ctx, "[SERVER_START] HTTP server listening", logging.Fields{
			"address": server.Addr,
		})

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal(ctx, "[SERVER_ERROR] Server failed", logging.Fields{}, err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info(ctx, "[SHUTDOWN] Shutting down server...", logging.Fields{})

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error(ctx, "[SHUTDOWN_ERROR] Server forced to shutdown", logging.Fields{}, err)
	}

	logger.Info(ctx, "[SHUTDOWN_COMPLETE] Server stopped", logging.Fields{})
}
