// Package demo provides the built-in sample layer: weighted points around
// Krakow, rendered with the Fire gradient.
package demo

import (
	"github.com/heat-tiles/server/internal/geo"
	"github.com/heat-tiles/server/internal/heatmap"
	"github.com/heat-tiles/server/internal/layerstore"
	"github.com/heat-tiles/server/pkg/gradient"
)

// Params returns the demo layer's render parameters.
func Params() layerstore.Params {
	return layerstore.Params{
		Radius:       50,
		Opacity:      0.7,
		Smoothing:    10,
		MaxIntensity: 100,
		Gradient:     gradient.Fire,
	}
}

// Points returns the demo dataset projected into world coordinates.
func Points() []heatmap.WeightedPoint {
	out := make([]heatmap.WeightedPoint, len(places))
	for i, pl := range places {
		out[i] = heatmap.WeightedPoint{
			Point:  geo.Project(pl.lat, pl.lng),
			Weight: pl.weight,
		}
	}
	return out
}

type place struct {
	lat    float64
	lng    float64
	weight float64
}

var places = []place{
	{49.986111, 20.061667, 1},
	{50.193139, 20.288717, 1},
	{49.740278, 19.588611, 1},
	{50.061389, 19.938333, 1},
	{50.174722, 20.986389, 1},
	{50.064507, 19.920777, 23},
	{49.3, 19.95, 1},
	{49.833333, 19.940556, 1},
	{49.477778, 20.03, 1},
	{49.975, 19.828333, 1},
	{50.357778, 20.0325, 1},
	{50.0125, 20.988333, 1},
	{50.067959, 19.91266, 76},
	{49.418588, 20.323788, 63},
	{49.62113, 20.710777, 25},
	{50.039167, 19.220833, 1},
	{49.970495, 19.837214, 48},
	{49.701667, 20.425556, 1},
	{50.078429, 20.050861, 43},
	{49.895, 21.054167, 1},
	{50.27722, 19.569658, 50},
	{49.968889, 20.606389, 1},
	{49.51232, 19.63755, 29},
	{50.018077, 20.989849, 50},
	{50.081698, 19.895629, 32},
	{49.968889, 20.43, 1},
	{50.279167, 19.559722, 1},
	{50.067947, 19.912865, 52},
	{49.654444, 21.159167, 1},
	{50.099606, 20.016707, 27},
	{50.357778, 20.0325, 41},
	{49.296628, 19.959694, 15},
	{50.019014, 21.002474, 57},
	{50.056829, 19.926414, 51},
	{49.616667, 20.7, 1},
	{49.883333, 19.5, 1},
	{50.054217, 19.943289, 41},
	{50.133333, 19.4, 1},
}
