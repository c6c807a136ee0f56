// Package main is the entry point for the heat tiles server.
package main

import (
	"context"
	"flag"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/heat-tiles/server/internal/api"
	"github.com/heat-tiles/server/internal/cache"
	"github.com/heat-tiles/server/internal/config"
	"github.com/heat-tiles/server/internal/demo"
	"github.com/heat-tiles/server/internal/heatmap"
	"github.com/heat-tiles/server/internal/ingest"
	"github.com/heat-tiles/server/internal/layerstore"
	"github.com/heat-tiles/server/internal/render"
	"github.com/heat-tiles/server/internal/service"
	"github.com/heat-tiles/server/pkg/gradient"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "config/server.yaml", "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	log.Printf("Starting heat tiles server on port %d", cfg.Server.Port)

	ctx := context.Background()

	// Open the layer store
	store, err := layerstore.NewStore(cfg.Storage.SQLitePath)
	if err != nil {
		log.Fatalf("Failed to open layer store: %v", err)
	}
	defer store.Close()

	// Initialize cache manager (shared across all layers)
	cacheManager, err := cache.NewManager(cache.Config{
		TileCacheSizeMB: cfg.Cache.TileCacheMB,
		TileTTL:         cfg.Cache.TTL(),
		QueryCacheSize:  cfg.Cache.QueryCacheSize,
	})
	if err != nil {
		log.Fatalf("Failed to initialize cache: %v", err)
	}

	// Initialize PNG encoder and legend renderer (shared across all layers)
	encoder := render.NewEncoder(heatmap.TileDim)
	legendRenderer := render.NewLegendRenderer(encoder)

	defaults := layerstore.Params{
		Radius:    cfg.Heatmap.Radius,
		Opacity:   cfg.Heatmap.Opacity,
		Smoothing: cfg.Heatmap.Smoothing,
		Gradient:  gradient.Default,
	}

	registry := api.NewLayerRegistry(cfg.Title)

	// Restore persisted layers
	summaries, err := store.ListLayers()
	if err != nil {
		log.Fatalf("Failed to list stored layers: %v", err)
	}
	log.Printf("Restoring %d stored layer(s)", len(summaries))
	for _, summary := range summaries {
		layer, err := store.GetLayer(summary.ID)
		if err != nil {
			log.Fatalf("Failed to load stored layer %q: %v", summary.ID, err)
		}
		if layer == nil {
			continue
		}

		provider, err := service.BuildProvider(layer.Params, layer.Points)
		if err != nil {
			log.Printf("  [%s] Skipping layer %q: %v", layer.ID, layer.Name, err)
			continue
		}

		layerSvc := service.NewLayerService(service.LayerServiceConfig{
			LayerID:  layer.ID,
			Name:     layer.Name,
			Provider: provider,
			Cache:    cacheManager,
			Encoder:  encoder,
			Legend:   legendRenderer,
			Store:    store,
		})
		registry.Register(layerSvc)
		log.Printf("  [%s] Restored layer %q with %d points", layerSvc.ID(), layerSvc.Name(), layerSvc.NumPoints())
	}

	// Bootstrap layers listed in the config that are not stored yet
	for _, lc := range cfg.Layers {
		if lc.Name == "" || lc.GeoJSONPath == "" {
			log.Fatalf("Invalid layers entry: name and geojson_path are required")
		}
		if registry.Lookup(lc.Name) != nil {
			log.Printf("  [%s] Already stored, skipping bootstrap", lc.Name)
			continue
		}

		data, err := os.ReadFile(lc.GeoJSONPath)
		if err != nil {
			log.Fatalf("Failed to read %s for layer %q: %v", lc.GeoJSONPath, lc.Name, err)
		}

		weighted := true
		if lc.Weighted != nil {
			weighted = *lc.Weighted
		}
		points, err := ingest.Points(data, weighted)
		if err != nil {
			log.Fatalf("Failed to ingest %s for layer %q: %v", lc.GeoJSONPath, lc.Name, err)
		}

		params := defaults
		if lc.Radius != 0 {
			params.Radius = lc.Radius
		}
		if lc.Opacity != 0 {
			params.Opacity = lc.Opacity
		}
		if lc.Smoothing != 0 {
			params.Smoothing = lc.Smoothing
		}
		if lc.MaxIntensity != 0 {
			params.MaxIntensity = lc.MaxIntensity
		}

		provider, err := service.BuildProvider(params, points)
		if err != nil {
			log.Fatalf("Failed to build layer %q: %v", lc.Name, err)
		}

		layerSvc := service.NewLayerService(service.LayerServiceConfig{
			Name:     lc.Name,
			Provider: provider,
			Cache:    cacheManager,
			Encoder:  encoder,
			Legend:   legendRenderer,
			Store:    store,
		})
		if err := layerSvc.Save(); err != nil {
			log.Fatalf("Failed to save layer %q: %v", lc.Name, err)
		}
		registry.Register(layerSvc)
		log.Printf("  [%s] Bootstrapped layer %q with %d points from %s", layerSvc.ID(), layerSvc.Name(), layerSvc.NumPoints(), lc.GeoJSONPath)
	}

	// Register the built-in demo layer. It is rebuilt from source on every
	// start and never persisted.
	if cfg.Demo.Enabled && registry.Lookup(cfg.Demo.Name) == nil {
		provider, err := service.BuildProvider(demo.Params(), demo.Points())
		if err != nil {
			log.Fatalf("Failed to build demo layer: %v", err)
		}
		layerSvc := service.NewLayerService(service.LayerServiceConfig{
			Name:     cfg.Demo.Name,
			Provider: provider,
			Cache:    cacheManager,
			Encoder:  encoder,
			Legend:   legendRenderer,
		})
		registry.Register(layerSvc)
		log.Printf("  [%s] Demo layer %q with %d points", layerSvc.ID(), layerSvc.Name(), layerSvc.NumPoints())
	}

	if len(registry.IDs()) == 0 {
		log.Printf("No layers registered; create one via POST /api/layers")
	}

	// Set up HTTP router
	router := api.NewRouter(api.RouterConfig{
		Registry:    registry,
		CORSOrigins: cfg.Server.CORSOrigins,
		Cache:       cacheManager,
		Encoder:     encoder,
		Legend:      legendRenderer,
		Store:       store,
		Defaults:    defaults,
	})

	// Create HTTP server
	addr := net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port))
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Server listening on %s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}
