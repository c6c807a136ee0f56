package service

import (
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/heat-tiles/server/internal/heatmap"
)

// WeightStats summarizes a layer's weight distribution.
type WeightStats struct {
	Count  int     `json:"count"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Sum    float64 `json:"sum"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	Median float64 `json:"median"`
	P90    float64 `json:"p90"`
	P99    float64 `json:"p99"`
}

// weightStats computes distribution statistics over a sorted copy of the
// point weights. Quantiles use the empirical (nearest-rank) definition.
func weightStats(points []heatmap.WeightedPoint) WeightStats {
	if len(points) == 0 {
		return WeightStats{}
	}

	weights := make([]float64, len(points))
	for i, p := range points {
		weights[i] = p.Weight
	}
	sort.Float64s(weights)

	st := WeightStats{
		Count:  len(weights),
		Min:    weights[0],
		Max:    weights[len(weights)-1],
		Sum:    floats.Sum(weights),
		Mean:   stat.Mean(weights, nil),
		Median: stat.Quantile(0.5, stat.Empirical, weights, nil),
		P90:    stat.Quantile(0.9, stat.Empirical, weights, nil),
		P99:    stat.Quantile(0.99, stat.Empirical, weights, nil),
	}
	// StdDev of a single sample divides by zero.
	if len(weights) > 1 {
		st.StdDev = stat.StdDev(weights, nil)
	}
	return st
}
