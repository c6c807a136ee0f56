package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/heat-tiles/server/internal/cache"
	"github.com/heat-tiles/server/internal/demo"
	"github.com/heat-tiles/server/internal/heatmap"
	"github.com/heat-tiles/server/internal/render"
	"github.com/heat-tiles/server/internal/service"
)

func TestStatsEndpoint_NoListen(t *testing.T) {
	cacheManager, err := cache.NewManager(cache.Config{
		TileCacheSizeMB: 16,
		TileTTL:         1 * time.Minute,
		QueryCacheSize:  10,
	})
	if err != nil {
		t.Fatalf("Failed to initialize cache: %v", err)
	}
	defer cacheManager.Close()

	encoder := render.NewEncoder(heatmap.TileDim)

	provider, err := service.BuildProvider(demo.Params(), demo.Points())
	if err != nil {
		t.Fatalf("Failed to build demo provider: %v", err)
	}

	layerSvc := service.NewLayerService(service.LayerServiceConfig{
		LayerID:  "demo",
		Provider: provider,
		Cache:    cacheManager,
		Encoder:  encoder,
		Legend:   render.NewLegendRenderer(encoder),
	})

	registry := NewLayerRegistry("")
	registry.Register(layerSvc)

	router := NewRouter(RouterConfig{
		Registry:    registry,
		CORSOrigins: []string{"http://localhost:3000"},
	})

	req := httptest.NewRequest(http.MethodGet, "/d/demo/api/stats", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected %d, got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}

	var payload map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to decode JSON: %v", err)
	}
	if got, _ := payload["count"].(float64); got != 38 {
		t.Fatalf("unexpected point count: got %v want 38", got)
	}
}
