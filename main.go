package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"car-archive/internal/catalog"
	"car-archive/internal/gallery"
	"car-archive/internal/grid"
	"car-archive/internal/handlers"
	"car-archive/internal/logging"
	"car-archive/internal/middleware"
	"car-archive/internal/preload"
	"car-archive/internal/startup"
	"car-archive/internal/store"
	"car-archive/internal/transform"
)

func main() {
	startTime := time.Now()

	// Load configuration
	config, err := startup.LoadConfig()
	if err != nil {
		startup.LogFatal("Configuration error: %v", err)
	}

	// Load analysis presets
	presets, err := startup.LoadPresets(config.PresetsFile)
	if err != nil {
		startup.LogFatal("Presets error: %v", err)
	}

	// Initialize local store
	dbStart := time.Now()
	st, err := store.New(context.Background(), config.DatabasePath)
	if err != nil {
		startup.LogFatal("Failed to initialize store: %v", err)
	}
	defer st.Close()
	startup.LogDatabaseInit(time.Since(dbStart))

	// Initialize catalog client
	startup.LogCatalogInit(config.CatalogURL, config.CacheTTL)
	client := catalog.New(config.CatalogURL)
	client.SetCacheTTL(config.CacheTTL)

	// Initialize transform tool runner
	runner := transform.New(config.ToolsDir, config.TransformTimeout)
	available := make(map[string]bool)
	for _, tool := range []transform.Tool{transform.ToolExtendCanvas, transform.ToolCrop, transform.ToolMatte} {
		available[string(tool)] = runner.IsAvailable(tool)
	}
	startup.LogTransformInit(config.ToolsDir, available)

	// Gallery registry
	galleryOpts := gallery.DefaultOptions()
	galleryOpts.PageSize = config.PageSize
	galleryOpts.ClientSide = config.ClientSidePaging
	galleryOpts.Grid = grid.DefaultConfig()
	galleryOpts.Preload = preload.DefaultConfig()
	galleryOpts.Recorder = st
	registry := handlers.NewRegistry(client, galleryOpts, config.GalleryIdleTTL)

	// Initialize handlers and router
	h := handlers.New(registry, st, runner, presets, config)
	router := h.Router()
	startup.LogHTTPRoutes(router, config.LogHealthChecks)

	// Middleware chain: compression outermost, then logging, metrics
	// closest to the handlers
	var handler http.Handler = router
	if config.MetricsEnabled {
		handler = middleware.Metrics(middleware.DefaultMetricsConfig())(handler)
	}
	loggingConfig := middleware.DefaultLoggingConfig()
	loggingConfig.LogHealthChecks = config.LogHealthChecks
	handler = middleware.Logger(loggingConfig)(handler)
	handler = middleware.Compression(middleware.DefaultCompressionConfig())(handler)

	srv := &http.Server{
		Addr:         ":" + config.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Metrics on a separate port so it never sits behind compression
	// or access logging
	var metricsSrv *http.Server
	if config.MetricsEnabled {
		metricsMux := http.NewServeMux()
		metricsMux.Handle("/metrics", h.MetricsHandler())
		metricsSrv = &http.Server{
			Addr:        ":" + config.MetricsPort,
			Handler:     metricsMux,
			ReadTimeout: 15 * time.Second,
		}
		go func() {
			if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logging.Error("Metrics server error: %v", err)
			}
		}()
	}

	go handleShutdown(srv, metricsSrv, registry)

	startup.LogServerStarted(startup.ServerConfig{
		Port:            config.Port,
		MetricsPort:     config.MetricsPort,
		MetricsEnabled:  config.MetricsEnabled,
		StartupDuration: time.Since(startTime),
	})
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		startup.LogFatal("Server error: %v", err)
	}
}

func handleShutdown(srv, metricsSrv *http.Server, registry *handlers.Registry) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan

	startup.LogShutdownInitiated(sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	startup.LogShutdownStep("Unmounting galleries")
	registry.Close()
	startup.LogShutdownStepComplete("Galleries unmounted")

	if metricsSrv != nil {
		startup.LogShutdownStep("Shutting down metrics server")
		if err := metricsSrv.Shutdown(ctx); err != nil {
			logging.Warn("Metrics server shutdown error: %v", err)
		} else {
			startup.LogShutdownStepComplete("Metrics server stopped")
		}
	}

	startup.LogShutdownStep("Shutting down HTTP server")
	if err := srv.Shutdown(ctx); err != nil {
		logging.Warn("Server shutdown error: %v", err)
	} else {
		startup.LogShutdownStepComplete("HTTP server stopped")
	}

	startup.LogShutdownComplete()
}
