package heatmap

import "math"

// MaxIntensityTable holds, per zoom level, the accumulated weight that maps
// to the top of the gradient.
type MaxIntensityTable [MaxZoom]float64

// At returns the calibrated maximum for zoom. Out-of-range zooms clamp to
// the nearest table end.
func (t MaxIntensityTable) At(zoom int) float64 {
	if zoom < 0 {
		zoom = 0
	}
	if zoom >= MaxZoom {
		zoom = MaxZoom - 1
	}
	return t[zoom]
}

// computeMaxIntensities measures the calibration zoom band and copies the
// end values out to the remaining levels. Each zoom doubles the screen
// footprint of the previous one.
func computeMaxIntensities(points []WeightedPoint, bounds Bounds, radius int) MaxIntensityTable {
	var t MaxIntensityTable
	for z := CalibrationMinZoom; z < CalibrationMaxZoom; z++ {
		t[z] = maxValue(points, bounds, radius, screenSize*(1<<(z-CalibrationMinZoom)))
	}
	for z := 0; z < CalibrationMinZoom; z++ {
		t[z] = t[CalibrationMinZoom]
	}
	for z := CalibrationMaxZoom; z < MaxZoom; z++ {
		t[z] = t[CalibrationMaxZoom-1]
	}
	return t
}

// uniformMaxIntensities fills every level with a fixed override.
func uniformMaxIntensities(v float64) MaxIntensityTable {
	var t MaxIntensityTable
	for z := range t {
		t[z] = v
	}
	return t
}

type bucketKey struct {
	x, y int
}

// maxValue estimates the largest weight sum a screen of screenDim pixels
// would see, by summing weights into buckets one kernel diameter wide.
func maxValue(points []WeightedPoint, bounds Bounds, radius, screenDim int) float64 {
	boundsDim := math.Max(bounds.Width(), bounds.Height())
	if boundsDim <= 0 {
		// Degenerate dataset: everything lands in a single bucket.
		var sum float64
		for _, p := range points {
			sum += p.Weight
		}
		return sum
	}

	nBuckets := int(float64(screenDim)/float64(2*radius) + 0.5)
	scale := float64(nBuckets) / boundsDim

	buckets := make(map[bucketKey]float64)
	var max float64
	for _, p := range points {
		k := bucketKey{
			x: int((p.X - bounds.MinX) * scale),
			y: int((p.Y - bounds.MinY) * scale),
		}
		buckets[k] += p.Weight
		if buckets[k] > max {
			max = buckets[k]
		}
	}
	return max
}
