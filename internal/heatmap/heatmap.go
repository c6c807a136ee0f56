// Package heatmap renders weighted point data into 512x512 map tiles.
//
// Points live on a projected unit square where one world width wraps around
// the antimeridian. Each point is convolved over a disc kernel into a
// per-pixel (intensity, weight) accumulator, which is then colorized through
// a gradient lookup table scaled by a per-zoom maximum intensity.
package heatmap

import "errors"

const (
	// WorldWidth is the extent of the projected unit square.
	WorldWidth = 1.0
	// TileDim is the edge length of a rendered tile in pixels.
	TileDim = 512

	// MinRadius is the smallest accepted convolution radius in pixels.
	MinRadius = 10
	// DefaultRadius is the convolution radius used when none is set.
	DefaultRadius = 20
	// DefaultOpacity scales the alpha channel of rendered tiles.
	DefaultOpacity = 0.7
	// DefaultSmoothing balances kernel falloff against raw point weight.
	DefaultSmoothing = 10

	// MaxZoom is the number of zoom levels the intensity table covers.
	MaxZoom = 22
	// CalibrationMinZoom and CalibrationMaxZoom delimit the zoom band
	// whose maxima are measured; levels outside copy the nearest end.
	CalibrationMinZoom = 5
	CalibrationMaxZoom = 11

	// screenSize approximates the longer screen dimension in pixels when
	// estimating how much of the dataset is visible at a zoom level.
	screenSize = 1280
)

var (
	// ErrNoData is returned by Build when no data source was supplied.
	ErrNoData = errors.New("heatmap: no input data")
	// ErrEmptyData rejects empty point sets.
	ErrEmptyData = errors.New("heatmap: empty point set")
	// ErrRadiusTooSmall rejects radii below MinRadius.
	ErrRadiusTooSmall = errors.New("heatmap: radius below minimum")
	// ErrOpacityRange rejects opacity values outside [0, 1].
	ErrOpacityRange = errors.New("heatmap: opacity outside [0, 1]")
	// ErrNegativeMaxIntensity rejects negative max intensity overrides.
	ErrNegativeMaxIntensity = errors.New("heatmap: negative max intensity")
)

// Point is a location on the projected unit square.
type Point struct {
	X float64
	Y float64
}

// WeightedPoint is a projected point with an attached weight.
type WeightedPoint struct {
	Point
	Weight float64
}

// Weighted wraps plain points with the default weight of 1.
func Weighted(points []Point) []WeightedPoint {
	out := make([]WeightedPoint, len(points))
	for i, p := range points {
		out[i] = WeightedPoint{Point: p, Weight: 1}
	}
	return out
}
