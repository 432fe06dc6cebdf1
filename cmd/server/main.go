// Land-cover pipeline server entry point
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/aaronalt/gcc-lulc/internal/api"
	"github.com/aaronalt/gcc-lulc/internal/catalog"
	"github.com/aaronalt/gcc-lulc/internal/classify"
	"github.com/aaronalt/gcc-lulc/internal/config"
	"github.com/aaronalt/gcc-lulc/internal/pipeline"
	"github.com/aaronalt/gcc-lulc/internal/raster"
	"github.com/aaronalt/gcc-lulc/internal/store"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load .env if present, then configuration from the environment
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Set up logger
	logger := setupLogger(cfg.Logging.Level, cfg.Logging.Format)

	logger.Info("starting land-cover server",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
	)

	// Create scene source based on configuration
	var source catalog.SceneSource
	switch cfg.Catalog.Source {
	case "stac":
		source = catalog.NewClient(cfg.Catalog.STACURL, cfg.Catalog.Timeout).WithLogger(logger)
		logger.Info("using STAC scene source", "base_url", cfg.Catalog.STACURL)
	default:
		source = catalog.NewDirSource(cfg.Catalog.SceneDir).WithLogger(logger)
		logger.Info("using directory scene source", "scene_dir", cfg.Catalog.SceneDir)
	}

	if cfg.Catalog.CacheTTL > 0 {
		cache := catalog.NewCachingSource(source, cfg.Catalog.CacheTTL, cfg.Catalog.CacheTTL/2)
		defer cache.Stop()
		source = cache
		logger.Info("search caching enabled", "ttl", cfg.Catalog.CacheTTL)
	}

	// Open the run store
	st, err := store.Open(cfg.Data.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to open run store: %w", err)
	}
	defer st.Close()
	logger.Info("run store opened", "path", cfg.Data.DatabasePath)

	loader := catalog.NewLoader(raster.Georef{CellSize: cfg.Pipeline.CellSize}).WithLogger(logger)

	runner := pipeline.NewRunner(source, loader, pipeline.Options{
		MaxCloudCover: cfg.Pipeline.MaxCloudCover,
		MaxScenes:     cfg.Pipeline.MaxScenes,
		CellSize:      cfg.Pipeline.CellSize,
	}).WithLogger(logger)

	// Attach the classifier model and elevation raster when available.
	// The server still answers catalog and run-history requests without
	// them; new run requests fail until both load.
	if model, err := classify.Load(cfg.Data.ModelPath); err != nil {
		logger.Warn("classifier model not loaded", "path", cfg.Data.ModelPath, "error", err)
	} else {
		runner.WithModel(model)
		logger.Info("classifier model loaded",
			"path", cfg.Data.ModelPath,
			"bands", len(model.Bands),
			"prototypes", len(model.Prototypes),
		)
	}

	if elev, err := raster.ReadBandFile(cfg.Data.ElevationTIF, raster.BandFileOptions{}); err != nil {
		logger.Warn("elevation raster not loaded", "path", cfg.Data.ElevationTIF, "error", err)
	} else {
		runner.WithElevation(elev)
		logger.Info("elevation raster loaded", "path", cfg.Data.ElevationTIF)
	}

	// Create handlers and router
	handlers := api.NewHandlers(st, runner, logger)
	router := api.NewRouter(handlers, logger)

	// Create server
	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	case sig := <-quit:
		logger.Info("received shutdown signal", "signal", sig)
	}

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	logger.Info("shutting down server", "timeout", cfg.Server.ShutdownTimeout)
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	logger.Info("server stopped")
	return nil
}

func setupLogger(level, format string) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: logLevel}

	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
