// Package geo converts between geographic coordinates and the projected
// unit square the renderer works on.
package geo

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/maptile"

	"github.com/heat-tiles/server/internal/heatmap"
)

// MaxLatitude is the Web Mercator latitude cutoff. Latitudes beyond it clamp
// so every input lands on the unit square.
const MaxLatitude = 85.05112877980659

// Project maps a lat/lng pair onto the projected unit square.
func Project(lat, lng float64) heatmap.Point {
	if lat > MaxLatitude {
		lat = MaxLatitude
	}
	if lat < -MaxLatitude {
		lat = -MaxLatitude
	}
	for lng > 180 {
		lng -= 360
	}
	for lng < -180 {
		lng += 360
	}
	f := maptile.Fraction(orb.Point{lng, lat}, 0)
	return heatmap.Point{X: f[0], Y: f[1]}
}

// Unproject maps a unit-square point back to lat/lng.
func Unproject(p heatmap.Point) (lat, lng float64) {
	lng = (p.X - 0.5) * 360
	y := 0.5 - p.Y
	lat = 90 - 2*math.Atan(math.Exp(-y*2*math.Pi))*180/math.Pi
	return lat, lng
}
