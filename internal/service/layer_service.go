// Package service provides business logic for the heatmap tile server.
package service

import (
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/heat-tiles/server/internal/cache"
	"github.com/heat-tiles/server/internal/geo"
	"github.com/heat-tiles/server/internal/heatmap"
	"github.com/heat-tiles/server/internal/layerstore"
	"github.com/heat-tiles/server/internal/render"
	"github.com/heat-tiles/server/pkg/gradient"
)

// LayerServiceConfig contains layer service configuration.
type LayerServiceConfig struct {
	LayerID  string // minted when empty
	Name     string
	Provider *heatmap.Provider
	Cache    *cache.Manager
	Encoder  *render.Encoder
	Legend   *render.LegendRenderer
	Store    *layerstore.Store // nil disables persistence
}

// LayerService serves one heatmap layer: tiles, diagnostics, and parameter
// or dataset updates. Every mutation bumps an epoch that is part of each
// cache key, so a stale tile can never be served after a change.
type LayerService struct {
	layerID  string
	name     string
	provider *heatmap.Provider
	cache    *cache.Manager
	encoder  *render.Encoder
	legend   *render.LegendRenderer
	store    *layerstore.Store

	epoch atomic.Uint64
}

// NewLayerService creates a new layer service around a built provider.
func NewLayerService(cfg LayerServiceConfig) *LayerService {
	layerID := cfg.LayerID
	if layerID == "" {
		layerID = uuid.NewString()
	}
	name := cfg.Name
	if name == "" {
		name = layerID
	}

	return &LayerService{
		layerID:  layerID,
		name:     name,
		provider: cfg.Provider,
		cache:    cfg.Cache,
		encoder:  cfg.Encoder,
		legend:   cfg.Legend,
		store:    cfg.Store,
	}
}

// BuildProvider constructs a heatmap provider from stored layer parameters.
func BuildProvider(params layerstore.Params, points []heatmap.WeightedPoint) (*heatmap.Provider, error) {
	return heatmap.NewBuilder().
		WeightedData(points).
		Radius(params.Radius).
		Gradient(params.Gradient).
		Opacity(params.Opacity).
		Smoothing(params.Smoothing).
		MaxIntensity(params.MaxIntensity).
		Build()
}

// ID returns the layer identifier.
func (s *LayerService) ID() string {
	return s.layerID
}

// Name returns the layer display name.
func (s *LayerService) Name() string {
	return s.name
}

// Epoch returns the current cache epoch.
func (s *LayerService) Epoch() uint64 {
	return s.epoch.Load()
}

// NumPoints returns the size of the layer's dataset.
func (s *LayerService) NumPoints() int {
	return len(s.provider.Data())
}

// Params returns the layer's current render parameters.
func (s *LayerService) Params() layerstore.Params {
	return layerstore.Params{
		Radius:       s.provider.Radius(),
		Opacity:      s.provider.Opacity(),
		Smoothing:    s.provider.Smoothing(),
		MaxIntensity: s.provider.MaxIntensity(),
		Gradient:     s.provider.Gradient(),
	}
}

// Save writes the layer to the store as a new record.
func (s *LayerService) Save() error {
	if s.store == nil {
		return nil
	}
	return s.store.CreateLayer(&layerstore.Layer{
		ID:     s.layerID,
		Name:   s.name,
		Params: s.Params(),
		Points: s.provider.Data(),
	})
}

// Delete removes the layer's persisted record.
func (s *LayerService) Delete() error {
	if s.store == nil {
		return nil
	}
	return s.store.DeleteLayer(s.layerID)
}

// GetTile returns a rendered tile PNG. Tiles that cannot contain any heat
// come back as the shared transparent tile.
func (s *LayerService) GetTile(z, x, y int) ([]byte, error) {
	if z < 0 || z >= heatmap.MaxZoom {
		return nil, fmt.Errorf("invalid zoom level: %d", z)
	}
	tilesPerAxis := 1 << z
	if x < 0 || y < 0 || x >= tilesPerAxis || y >= tilesPerAxis {
		return nil, fmt.Errorf("tile out of range: %d/%d (tiles_per_axis=%d)", x, y, tilesPerAxis)
	}

	cacheKey := cache.TileKey(s.layerID, s.epoch.Load(), z, x, y)
	if data, ok := s.cache.GetTile(cacheKey); ok {
		return data, nil
	}

	img := s.provider.Render(x, y, z)
	if img == nil {
		return s.encoder.EmptyTile()
	}

	data, err := s.encoder.EncodePNG(img)
	if err != nil {
		return nil, fmt.Errorf("failed to encode tile: %w", err)
	}

	s.cache.SetTile(cacheKey, data)

	return data, nil
}

// GetEmptyTile returns the shared transparent tile.
func (s *LayerService) GetEmptyTile() ([]byte, error) {
	return s.encoder.EmptyTile()
}

// ConfigUpdate carries optional parameter changes. Absent fields keep their
// current values; a zero max intensity switches back to auto calibration.
type ConfigUpdate struct {
	Radius       *int               `json:"radius,omitempty"`
	Opacity      *float64           `json:"opacity,omitempty"`
	MaxIntensity *float64           `json:"max_intensity,omitempty"`
	Gradient     *gradient.Gradient `json:"gradient,omitempty"`
}

func (u ConfigUpdate) validate() error {
	if u.Radius != nil && *u.Radius < heatmap.MinRadius {
		return fmt.Errorf("%w: %d < %d", heatmap.ErrRadiusTooSmall, *u.Radius, heatmap.MinRadius)
	}
	if u.Opacity != nil && (*u.Opacity < 0 || *u.Opacity > 1) {
		return fmt.Errorf("%w: %v", heatmap.ErrOpacityRange, *u.Opacity)
	}
	if u.MaxIntensity != nil && *u.MaxIntensity < 0 {
		return fmt.Errorf("%w: %v", heatmap.ErrNegativeMaxIntensity, *u.MaxIntensity)
	}
	return nil
}

// UpdateConfig validates and applies the requested parameter changes, bumps
// the cache epoch, and persists the new parameters. A rejected update leaves
// the layer untouched.
func (s *LayerService) UpdateConfig(upd ConfigUpdate) error {
	if err := upd.validate(); err != nil {
		return err
	}

	if upd.Radius != nil {
		if err := s.provider.SetRadius(*upd.Radius); err != nil {
			return err
		}
	}
	if upd.Opacity != nil {
		if err := s.provider.SetOpacity(*upd.Opacity); err != nil {
			return err
		}
	}
	if upd.MaxIntensity != nil {
		if err := s.provider.SetMaxIntensity(*upd.MaxIntensity); err != nil {
			return err
		}
	}
	if upd.Gradient != nil {
		s.provider.SetGradient(*upd.Gradient)
	}

	s.epoch.Add(1)

	if s.store != nil {
		if err := s.store.UpdateParams(s.layerID, s.Params()); err != nil {
			return fmt.Errorf("failed to persist parameters: %w", err)
		}
	}
	return nil
}

// ReplacePoints swaps the layer's dataset, bumps the cache epoch, and
// persists the new points.
func (s *LayerService) ReplacePoints(points []heatmap.WeightedPoint) error {
	if err := s.provider.SetWeightedData(points); err != nil {
		return err
	}

	s.epoch.Add(1)

	if s.store != nil {
		if err := s.store.ReplacePoints(s.layerID, points); err != nil {
			return fmt.Errorf("failed to persist points: %w", err)
		}
	}
	return nil
}

// WorldBounds is a dataset rectangle in unit-world coordinates.
type WorldBounds struct {
	MinX float64 `json:"min_x"`
	MinY float64 `json:"min_y"`
	MaxX float64 `json:"max_x"`
	MaxY float64 `json:"max_y"`
}

// GeoBounds is the same rectangle in degrees. World y grows southward, so
// the north edge comes from the minimum y.
type GeoBounds struct {
	MinLat float64 `json:"min_lat"`
	MinLng float64 `json:"min_lng"`
	MaxLat float64 `json:"max_lat"`
	MaxLng float64 `json:"max_lng"`
}

// LayerMetadata describes a layer for API clients.
type LayerMetadata struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	NumPoints int               `json:"num_points"`
	Bounds    WorldBounds       `json:"bounds"`
	GeoBounds GeoBounds         `json:"geo_bounds"`
	Params    layerstore.Params `json:"params"`
	Epoch     uint64            `json:"epoch"`
}

// Metadata returns the layer's identity, bounds, and render parameters.
func (s *LayerService) Metadata() LayerMetadata {
	b := s.provider.Bounds()
	maxLat, minLng := geo.Unproject(heatmap.Point{X: b.MinX, Y: b.MinY})
	minLat, maxLng := geo.Unproject(heatmap.Point{X: b.MaxX, Y: b.MaxY})

	return LayerMetadata{
		ID:        s.layerID,
		Name:      s.name,
		NumPoints: s.NumPoints(),
		Bounds:    WorldBounds{MinX: b.MinX, MinY: b.MinY, MaxX: b.MaxX, MaxY: b.MaxY},
		GeoBounds: GeoBounds{MinLat: minLat, MinLng: minLng, MaxLat: maxLat, MaxLng: maxLng},
		Params:    s.Params(),
		Epoch:     s.epoch.Load(),
	}
}

// WeightStats computes the layer's weight distribution statistics.
func (s *LayerService) WeightStats() WeightStats {
	return weightStats(s.provider.Data())
}

// Legend renders the layer's gradient scale strip. The label at the top of
// the scale is the fixed max intensity when one is set, otherwise the
// calibrated value at the coarsest calibration zoom.
func (s *LayerService) Legend(width, height int) ([]byte, error) {
	cacheKey := cache.DiagnosticKey(s.layerID, s.epoch.Load(), "legend", width, height)
	if data, ok := s.cache.GetQuery(cacheKey); ok {
		return data, nil
	}

	max := s.provider.MaxIntensity()
	if max <= 0 {
		max = s.provider.MaxIntensities().At(heatmap.CalibrationMinZoom)
	}

	data, err := s.legend.Draw(s.provider.Gradient(), max, width, height)
	if err != nil {
		return nil, err
	}

	s.cache.SetQuery(cacheKey, data)

	return data, nil
}

// CalibrationPlot charts the per-zoom max intensity table as a PNG.
func (s *LayerService) CalibrationPlot() ([]byte, error) {
	cacheKey := cache.DiagnosticKey(s.layerID, s.epoch.Load(), "calibration", 0, 0)
	if data, ok := s.cache.GetQuery(cacheKey); ok {
		return data, nil
	}

	data, err := render.CalibrationPlot(s.provider.MaxIntensities(), s.provider.Radius())
	if err != nil {
		return nil, fmt.Errorf("failed to render calibration plot: %w", err)
	}

	s.cache.SetQuery(cacheKey, data)

	return data, nil
}
