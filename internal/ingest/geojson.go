// Package ingest decodes GeoJSON point data into projected weighted points.
package ingest

import (
	"errors"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/heat-tiles/server/internal/geo"
	"github.com/heat-tiles/server/internal/heatmap"
)

// WeightProperty is the feature property read as the point weight.
const WeightProperty = "weight"

// ErrNoPoints is returned when the input holds no usable point geometry.
var ErrNoPoints = errors.New("ingest: no point features")

// Points decodes a GeoJSON FeatureCollection into projected weighted points.
// Point and MultiPoint geometries are accepted, other geometry types are
// skipped. When weighted is true the "weight" property is honored with a
// default of 1; otherwise every point weighs 1.
func Points(data []byte, weighted bool) ([]heatmap.WeightedPoint, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("ingest: decode feature collection: %w", err)
	}

	var out []heatmap.WeightedPoint
	for i, f := range fc.Features {
		if f == nil {
			continue
		}
		weight := 1.0
		if weighted {
			weight = f.Properties.MustFloat64(WeightProperty, 1)
			if weight < 0 {
				return nil, fmt.Errorf("ingest: feature %d has negative weight %v", i, weight)
			}
		}
		switch g := f.Geometry.(type) {
		case orb.Point:
			out = append(out, projectPoint(g, weight))
		case orb.MultiPoint:
			for _, p := range g {
				out = append(out, projectPoint(p, weight))
			}
		}
	}
	if len(out) == 0 {
		return nil, ErrNoPoints
	}
	return out, nil
}

func projectPoint(p orb.Point, weight float64) heatmap.WeightedPoint {
	return heatmap.WeightedPoint{
		Point:  geo.Project(p.Lat(), p.Lon()),
		Weight: weight,
	}
}
