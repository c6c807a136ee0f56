// Package api provides HTTP handlers for the heatmap tile server.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/heat-tiles/server/internal/cache"
	"github.com/heat-tiles/server/internal/heatmap"
	"github.com/heat-tiles/server/internal/ingest"
	"github.com/heat-tiles/server/internal/layerstore"
	"github.com/heat-tiles/server/internal/render"
	"github.com/heat-tiles/server/internal/service"
	"github.com/heat-tiles/server/pkg/gradient"
)

// RouterConfig contains router configuration.
type RouterConfig struct {
	Registry    *LayerRegistry
	CORSOrigins []string

	// Shared infrastructure handed to layers created over the API.
	Cache   *cache.Manager
	Encoder *render.Encoder
	Legend  *render.LegendRenderer
	Store   *layerstore.Store

	// Defaults seeds the render parameters of new layers.
	Defaults layerstore.Params
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Global layer endpoints (not layer-scoped)
	r.Get("/api/layers", layersHandler(cfg.Registry))
	r.Post("/api/layers", createLayerHandler(cfg))

	// Layer-scoped routes: /d/{layer}/...
	r.Route("/d/{layer}", func(r chi.Router) {
		r.Use(layerMiddleware(cfg.Registry))

		r.Get("/tiles/{z}/{x}/{y}.png", tileHandler)

		r.Route("/api", func(r chi.Router) {
			r.Get("/metadata", metadataHandler)
			r.Get("/stats", statsHandler)
			r.Get("/legend.png", legendHandler)
			r.Get("/calibration.png", calibrationHandler)
			r.Put("/config", updateConfigHandler)
			r.Put("/points", replacePointsHandler)
		})

		r.Delete("/", deleteLayerHandler(cfg.Registry))
	})

	return r
}

// Context key for layer service
type ctxKey string

const layerServiceKey ctxKey = "layerService"

// layerMiddleware resolves the layer from URL and injects its service into
// context. The URL segment may be a layer ID or a display name.
func layerMiddleware(registry *LayerRegistry) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			layerID := chi.URLParam(r, "layer")
			svc := registry.Lookup(layerID)
			if svc == nil {
				http.Error(w, "layer not found: "+layerID, http.StatusNotFound)
				return
			}
			ctx := context.WithValue(r.Context(), layerServiceKey, svc)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func getLayerService(r *http.Request) *service.LayerService {
	if svc, ok := r.Context().Value(layerServiceKey).(*service.LayerService); ok {
		return svc
	}
	return nil
}

// layersHandler returns the list of live layers.
func layersHandler(registry *LayerRegistry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response := map[string]interface{}{
			"default": registry.DefaultID(),
			"layers":  registry.Layers(),
			"title":   registry.Title(),
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(response)
	}
}

type createLayerRequest struct {
	Name         string             `json:"name"`
	Radius       *int               `json:"radius"`
	Opacity      *float64           `json:"opacity"`
	Smoothing    *float64           `json:"smoothing"`
	MaxIntensity *float64           `json:"max_intensity"`
	Gradient     *gradient.Gradient `json:"gradient"`
	Weighted     *bool              `json:"weighted"`
	GeoJSON      json.RawMessage    `json:"geojson"`
}

// createLayerHandler ingests a GeoJSON FeatureCollection into a new layer.
func createLayerHandler(cfg RouterConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := readBody(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		var req createLayerRequest
		if err := json.Unmarshal(body, &req); err != nil {
			http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
			return
		}

		// Validate required fields
		if strings.TrimSpace(req.Name) == "" {
			http.Error(w, "name is required", http.StatusBadRequest)
			return
		}
		if len(req.GeoJSON) == 0 {
			http.Error(w, "geojson is required", http.StatusBadRequest)
			return
		}

		params := cfg.Defaults
		if len(params.Gradient.Stops()) == 0 {
			params.Gradient = gradient.Default
		}
		if req.Radius != nil {
			params.Radius = *req.Radius
		}
		if req.Opacity != nil {
			params.Opacity = *req.Opacity
		}
		if req.Smoothing != nil {
			params.Smoothing = *req.Smoothing
		}
		if req.MaxIntensity != nil {
			params.MaxIntensity = *req.MaxIntensity
		}
		if req.Gradient != nil {
			params.Gradient = *req.Gradient
		}
		weighted := true
		if req.Weighted != nil {
			weighted = *req.Weighted
		}

		points, err := ingest.Points(req.GeoJSON, weighted)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		provider, err := service.BuildProvider(params, points)
		if err != nil {
			http.Error(w, err.Error(), configErrorStatus(err))
			return
		}

		svc := service.NewLayerService(service.LayerServiceConfig{
			Name:     req.Name,
			Provider: provider,
			Cache:    cfg.Cache,
			Encoder:  cfg.Encoder,
			Legend:   cfg.Legend,
			Store:    cfg.Store,
		})
		if err := svc.Save(); err != nil {
			http.Error(w, "failed to save layer: "+err.Error(), http.StatusInternalServerError)
			return
		}
		cfg.Registry.Register(svc)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"layer_id": svc.ID(),
			"name":     svc.Name(),
			"points":   svc.NumPoints(),
		})
	}
}

// Layer-scoped handlers (get service from context)

func tileHandler(w http.ResponseWriter, r *http.Request) {
	svc := getLayerService(r)
	if svc == nil {
		http.Error(w, "layer service not found", http.StatusInternalServerError)
		return
	}

	z, err := strconv.Atoi(chi.URLParam(r, "z"))
	if err != nil {
		http.Error(w, "invalid z", http.StatusBadRequest)
		return
	}
	x, err := strconv.Atoi(chi.URLParam(r, "x"))
	if err != nil {
		http.Error(w, "invalid x", http.StatusBadRequest)
		return
	}
	y, err := strconv.Atoi(chi.URLParam(r, "y"))
	if err != nil {
		http.Error(w, "invalid y", http.StatusBadRequest)
		return
	}

	data, err := svc.GetTile(z, x, y)
	if err != nil {
		// Return empty tile on error
		data, _ = svc.GetEmptyTile()
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.Write(data)
}

func metadataHandler(w http.ResponseWriter, r *http.Request) {
	svc := getLayerService(r)
	if svc == nil {
		http.Error(w, "layer service not found", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(svc.Metadata())
}

func statsHandler(w http.ResponseWriter, r *http.Request) {
	svc := getLayerService(r)
	if svc == nil {
		http.Error(w, "layer service not found", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(svc.WeightStats())
}

func legendHandler(w http.ResponseWriter, r *http.Request) {
	svc := getLayerService(r)
	if svc == nil {
		http.Error(w, "layer service not found", http.StatusInternalServerError)
		return
	}

	width := render.DefaultLegendWidth
	height := render.DefaultLegendHeight
	if raw := r.URL.Query().Get("width"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			http.Error(w, "invalid width", http.StatusBadRequest)
			return
		}
		width = v
	}
	if raw := r.URL.Query().Get("height"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			http.Error(w, "invalid height", http.StatusBadRequest)
			return
		}
		height = v
	}

	data, err := svc.Legend(width, height)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Write(data)
}

func calibrationHandler(w http.ResponseWriter, r *http.Request) {
	svc := getLayerService(r)
	if svc == nil {
		http.Error(w, "layer service not found", http.StatusInternalServerError)
		return
	}

	data, err := svc.CalibrationPlot()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Write(data)
}

func updateConfigHandler(w http.ResponseWriter, r *http.Request) {
	svc := getLayerService(r)
	if svc == nil {
		http.Error(w, "layer service not found", http.StatusInternalServerError)
		return
	}

	body, err := readBody(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var upd service.ConfigUpdate
	if err := json.Unmarshal(body, &upd); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	if err := svc.UpdateConfig(upd); err != nil {
		http.Error(w, err.Error(), configErrorStatus(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"layer_id": svc.ID(),
		"epoch":    svc.Epoch(),
		"params":   svc.Params(),
	})
}

func replacePointsHandler(w http.ResponseWriter, r *http.Request) {
	svc := getLayerService(r)
	if svc == nil {
		http.Error(w, "layer service not found", http.StatusInternalServerError)
		return
	}

	weighted := true
	if raw := strings.TrimSpace(r.URL.Query().Get("weighted")); raw != "" {
		if v, err := strconv.ParseBool(raw); err == nil {
			weighted = v
		}
	}

	body, err := readBody(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	points, err := ingest.Points(body, weighted)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := svc.ReplacePoints(points); err != nil {
		http.Error(w, err.Error(), configErrorStatus(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"layer_id": svc.ID(),
		"points":   len(points),
		"epoch":    svc.Epoch(),
	})
}

func deleteLayerHandler(registry *LayerRegistry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		svc := getLayerService(r)
		if svc == nil {
			http.Error(w, "layer service not found", http.StatusInternalServerError)
			return
		}

		registry.Remove(svc.ID())
		if err := svc.Delete(); err != nil {
			http.Error(w, "failed to delete layer: "+err.Error(), http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"layer_id": svc.ID(),
			"deleted":  true,
		})
	}
}

const maxBodyBytes = 10 << 20 // 10 MiB

func readBody(r *http.Request) ([]byte, error) {
	if r.Body == nil {
		return nil, nil
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if err != nil {
		return nil, err
	}
	if len(body) > maxBodyBytes {
		return nil, errors.New("request body too large")
	}
	return body, nil
}

// configErrorStatus maps parameter validation failures to 400 and anything
// else to 500.
func configErrorStatus(err error) int {
	switch {
	case errors.Is(err, heatmap.ErrNoData),
		errors.Is(err, heatmap.ErrEmptyData),
		errors.Is(err, heatmap.ErrRadiusTooSmall),
		errors.Is(err, heatmap.ErrOpacityRange),
		errors.Is(err, heatmap.ErrNegativeMaxIntensity):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
