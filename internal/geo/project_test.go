package geo

import (
	"math"
	"testing"
)

func TestProjectKnownPoints(t *testing.T) {
	origin := Project(0, 0)
	if math.Abs(origin.X-0.5) > 1e-12 || math.Abs(origin.Y-0.5) > 1e-12 {
		t.Errorf("Project(0, 0) = %+v, want (0.5, 0.5)", origin)
	}

	west := Project(0, -180)
	if math.Abs(west.X) > 1e-12 {
		t.Errorf("Project(0, -180).X = %v, want 0", west.X)
	}

	// Latitudes past the Mercator cutoff clamp to the square's edges.
	if north := Project(90, 0); math.Abs(north.Y) > 1e-6 {
		t.Errorf("Project(90, 0).Y = %v, want ~0", north.Y)
	}
	if south := Project(-90, 0); math.Abs(south.Y-1) > 1e-6 {
		t.Errorf("Project(-90, 0).Y = %v, want ~1", south.Y)
	}
}

func TestProjectNormalizesLongitude(t *testing.T) {
	a := Project(10, 200)
	b := Project(10, -160)
	if math.Abs(a.X-b.X) > 1e-12 {
		t.Errorf("Project(10, 200).X = %v, Project(10, -160).X = %v, want equal", a.X, b.X)
	}
}

func TestProjectRoundTrip(t *testing.T) {
	coords := []struct{ lat, lng float64 }{
		{50.061389, 19.938333},
		{-33.865143, 151.2099},
		{0, 0},
		{71.0, -42.0},
	}
	for _, c := range coords {
		p := Project(c.lat, c.lng)
		lat, lng := Unproject(p)
		if math.Abs(lat-c.lat) > 1e-9 || math.Abs(lng-c.lng) > 1e-9 {
			t.Errorf("round trip (%v, %v) = (%v, %v)", c.lat, c.lng, lat, lng)
		}
	}
}

func TestProjectNorthIsUp(t *testing.T) {
	north := Project(60, 0)
	south := Project(-60, 0)
	if north.Y >= south.Y {
		t.Errorf("northern latitude must map to a smaller Y: %v vs %v", north.Y, south.Y)
	}
}
