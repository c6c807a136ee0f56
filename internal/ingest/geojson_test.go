package ingest

import (
	"errors"
	"math"
	"testing"

	"github.com/heat-tiles/server/internal/geo"
)

const sampleCollection = `{
  "type": "FeatureCollection",
  "features": [
    {"type": "Feature", "geometry": {"type": "Point", "coordinates": [19.938333, 50.061389]}, "properties": {"weight": 23}},
    {"type": "Feature", "geometry": {"type": "Point", "coordinates": [20.061667, 49.986111]}, "properties": {}},
    {"type": "Feature", "geometry": {"type": "MultiPoint", "coordinates": [[19.5, 49.9], [21.0, 50.1]]}, "properties": {"weight": 4}},
    {"type": "Feature", "geometry": {"type": "LineString", "coordinates": [[19.0, 50.0], [20.0, 50.0]]}, "properties": {"weight": 9}}
  ]
}`

func TestPointsWeighted(t *testing.T) {
	points, err := Points([]byte(sampleCollection), true)
	if err != nil {
		t.Fatalf("Points: %v", err)
	}
	// One Point with weight, one without, two from the MultiPoint; the
	// LineString is skipped.
	if len(points) != 4 {
		t.Fatalf("decoded %d points, want 4", len(points))
	}
	if points[0].Weight != 23 {
		t.Errorf("weight = %v, want 23", points[0].Weight)
	}
	if points[1].Weight != 1 {
		t.Errorf("missing weight property must default to 1, got %v", points[1].Weight)
	}
	if points[2].Weight != 4 || points[3].Weight != 4 {
		t.Errorf("multipoint weights = %v, %v, want 4, 4", points[2].Weight, points[3].Weight)
	}

	want := geo.Project(50.061389, 19.938333)
	if math.Abs(points[0].X-want.X) > 1e-12 || math.Abs(points[0].Y-want.Y) > 1e-12 {
		t.Errorf("projected point = %+v, want %+v", points[0].Point, want)
	}
}

func TestPointsUnweighted(t *testing.T) {
	points, err := Points([]byte(sampleCollection), false)
	if err != nil {
		t.Fatalf("Points: %v", err)
	}
	for i, p := range points {
		if p.Weight != 1 {
			t.Errorf("point %d weight = %v, want 1", i, p.Weight)
		}
	}
}

func TestPointsErrors(t *testing.T) {
	if _, err := Points([]byte(`{"type":`), true); err == nil {
		t.Error("malformed JSON must error")
	}

	empty := `{"type": "FeatureCollection", "features": []}`
	if _, err := Points([]byte(empty), true); !errors.Is(err, ErrNoPoints) {
		t.Errorf("empty collection error = %v, want %v", err, ErrNoPoints)
	}

	linesOnly := `{"type": "FeatureCollection", "features": [
	  {"type": "Feature", "geometry": {"type": "LineString", "coordinates": [[0, 0], [1, 1]]}, "properties": {}}
	]}`
	if _, err := Points([]byte(linesOnly), true); !errors.Is(err, ErrNoPoints) {
		t.Errorf("line-only collection error = %v, want %v", err, ErrNoPoints)
	}

	negative := `{"type": "FeatureCollection", "features": [
	  {"type": "Feature", "geometry": {"type": "Point", "coordinates": [19.9, 50.0]}, "properties": {"weight": -3}}
	]}`
	if _, err := Points([]byte(negative), true); err == nil {
		t.Error("negative weight must error")
	}
	if _, err := Points([]byte(negative), false); err != nil {
		t.Errorf("unweighted ingest ignores the weight property, got %v", err)
	}
}
